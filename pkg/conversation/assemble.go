package conversation

import "github.com/papercomputeco/aichat/pkg/llm"

// DefaultInstruction is the system directive sent first on every request.
const DefaultInstruction = `
You are a helpful, respectful and honest assistant. Don't be neutral.
Have opinions. Strong opinions are better, but not mandatory. Just express
those opinions with a baseline of politeness. Short answers are better, but
don't omit details if you consider them important. Whenever you are completely
or partially unsure about the answer to any question asked by the user just
admit it frankly.
`

// Assemble builds the request messages for a new question: the instruction
// as a system message, then every complete pair from state replayed as
// user/assistant messages, then the question as the final user message.
// It does not modify state.
func Assemble(instruction string, state *State, question string) []llm.Message {
	n := 2
	if state != nil {
		n += state.Len()
	}

	messages := make([]llm.Message, 0, n)
	messages = append(messages, llm.SystemMessage(instruction))
	if state != nil {
		state.pairs(func(user, assistant string) {
			messages = append(messages,
				llm.UserMessage(user),
				llm.AssistantMessage(assistant),
			)
		})
	}

	return append(messages, llm.UserMessage(question))
}
