package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"

	"docqa/config"
	"docqa/internal/adapter/openaiapi"
	"docqa/internal/domain"
	"docqa/internal/port"
)

var _ port.LLM = (*OpenAIChat)(nil)

// OpenAIChat sends conversations to the chat completions endpoint of an
// OpenAI-compatible API.
type OpenAIChat struct {
	client      openai.Client
	model       string
	temperature *float64
	maxTokens   int
}

func NewOpenAIChat(provider config.ProviderConfig, cfg config.LLMConfig) (*OpenAIChat, error) {
	client, err := openaiapi.NewClient(provider)
	if err != nil {
		return nil, err
	}
	return &OpenAIChat{
		client:      client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

func (c *OpenAIChat) Chat(ctx context.Context, messages []port.ChatMessage) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)),
	}
	if c.temperature != nil {
		params.Temperature = openai.Float(*c.temperature)
	}
	if c.maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(c.maxTokens))
	}

	for _, m := range messages {
		switch m.Role {
		case "system":
			params.Messages = append(params.Messages, openai.SystemMessage(m.Content))
		case domain.RoleAssistant:
			params.Messages = append(params.Messages, openai.AssistantMessage(m.Content))
		default:
			params.Messages = append(params.Messages, openai.UserMessage(m.Content))
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAIChat) ModelName() string {
	return c.model
}
