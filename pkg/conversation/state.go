// Package conversation holds the linear chat history of a session and
// assembles it into provider-agnostic request messages.
package conversation

// State is the append-only log of a conversation: turns alternate user,
// assistant, user, assistant... starting with a user turn. A State is owned
// by a single session loop and is not safe for concurrent use.
type State struct {
	turns []string
}

// NewState returns an empty conversation.
func NewState() *State {
	return &State{}
}

// Append records one completed exchange. Both turns are added in a single
// step so a reader never observes a user turn without its reply.
func (s *State) Append(userTurn, assistantTurn string) {
	s.turns = append(s.turns, userTurn, assistantTurn)
}

// Turns returns a copy of every recorded turn in order.
func (s *State) Turns() []string {
	out := make([]string, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len returns the number of recorded turns.
func (s *State) Len() int {
	return len(s.turns)
}

// Exchanges returns the number of completed user/assistant pairs.
func (s *State) Exchanges() int {
	return len(s.turns) / 2
}

// pairs calls fn for every complete user/assistant pair in order.
// A dangling trailing user turn is skipped.
func (s *State) pairs(fn func(user, assistant string)) {
	for i := 0; i+1 < len(s.turns); i += 2 {
		fn(s.turns[i], s.turns[i+1])
	}
}
