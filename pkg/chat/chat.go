package chat

const (
	ChatRoleUser   = "user"      // Player or orchestrator instruction
	ChatRoleAgent  = "assistant" // Collaborator
	ChatRoleSystem = "system"    // Role prompt
)

// ChatMessage is a single message sent to an LLM.
type ChatMessage struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// ChatResponse is the text an LLM produced.
type ChatResponse struct {
	Message string `json:"message,omitempty"`
}
