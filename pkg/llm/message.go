package llm

// Conversation roles understood by every supported wire format.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single text message in a conversation.
type Message struct {
	Role    string `json:"role"`    // "system", "user", "assistant"
	Content string `json:"content"` // Plain text body
}

// NewTextMessage creates a text message with the given role and content.
func NewTextMessage(role, text string) Message {
	return Message{Role: role, Content: text}
}

// SystemMessage is shorthand for NewTextMessage(RoleSystem, text).
func SystemMessage(text string) Message { return NewTextMessage(RoleSystem, text) }

// UserMessage is shorthand for NewTextMessage(RoleUser, text).
func UserMessage(text string) Message { return NewTextMessage(RoleUser, text) }

// AssistantMessage is shorthand for NewTextMessage(RoleAssistant, text).
func AssistantMessage(text string) Message { return NewTextMessage(RoleAssistant, text) }
