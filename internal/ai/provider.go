package ai

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider is a chat completion backend. Implementations make a single
// attempt per call and return the assistant text.
type Provider interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}
