// Package openaiapi builds the client shared by the embedding and chat
// adapters for any OpenAI-compatible endpoint.
package openaiapi

import (
	"fmt"
	"os"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"docqa/config"
	"docqa/internal/domain"
)

// NewClient reads the API key from the configured environment variable.
// A missing key is a configuration error.
func NewClient(cfg config.ProviderConfig) (openai.Client, error) {
	apiKey := os.Getenv(cfg.APIKeyEnv)
	if apiKey == "" {
		return openai.Client{}, fmt.Errorf("%w: environment variable %s is empty", domain.ErrMissingAPIKey, cfg.APIKeyEnv)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.TimeoutSecs > 0 {
		opts = append(opts, option.WithRequestTimeout(time.Duration(cfg.TimeoutSecs)*time.Second))
	}
	return openai.NewClient(opts...), nil
}
