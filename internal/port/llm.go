package port

import "context"

// ChatMessage is a single message sent to a chat model.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role    string
	Content string
}

// LLM represents a language model for text generation.
type LLM interface {
	// Chat sends the conversation and returns the model's reply.
	Chat(ctx context.Context, messages []ChatMessage) (string, error)

	// ModelName returns the name of the model.
	ModelName() string
}
