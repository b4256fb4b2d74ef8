package nlp

import (
	"context"

	"github.com/soundprediction/aboxlink/pkg/types"
)

// Client is a chat model used to pull triples out of free text.
type Client interface {
	Chat(ctx context.Context, messages []types.Message) (*types.Response, error)

	// ChatWithStructuredOutput asks for a JSON reply. Providers without a
	// schema mode may ignore schema.
	ChatWithStructuredOutput(ctx context.Context, messages []types.Message, schema any) (*types.Response, error)

	Close() error
}

const (
	RoleSystem types.Role = "system"
	RoleUser   types.Role = "user"
)

// Config holds settings for chat clients. Nil pointers leave the provider
// default in place.
type Config struct {
	Model       string   `json:"model"`
	Temperature *float32 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	// BaseURL selects an OpenAI-compatible service.
	BaseURL string `json:"base_url,omitempty"`
}

func NewSystemMessage(content string) types.Message {
	return types.Message{Role: RoleSystem, Content: content}
}

func NewUserMessage(content string) types.Message {
	return types.Message{Role: RoleUser, Content: content}
}

// Prompt builds the two-message exchange used for extraction: instructions
// as the system turn and the input as the user turn. An empty system prompt
// is omitted.
func Prompt(system, user string) []types.Message {
	if system == "" {
		return []types.Message{NewUserMessage(user)}
	}
	return []types.Message{NewSystemMessage(system), NewUserMessage(user)}
}
