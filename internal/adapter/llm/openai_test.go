package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/config"
	"docqa/internal/domain"
	"docqa/internal/port"
)

type chatRequest struct {
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newChatServer(t *testing.T, reply string, got *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   got.Model,
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": reply},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestChat(t *testing.T, baseURL string) *OpenAIChat {
	t.Helper()
	temperature := 0.2
	return newTestChatWith(t, baseURL, config.LLMConfig{Model: "gemini-1.5-flash", Temperature: &temperature})
}

func newTestChatWith(t *testing.T, baseURL string, cfg config.LLMConfig) *OpenAIChat {
	t.Helper()
	t.Setenv("DOCQA_TEST_KEY", "test-key")

	c, err := NewOpenAIChat(config.ProviderConfig{
		BaseURL:   baseURL,
		APIKeyEnv: "DOCQA_TEST_KEY",
	}, cfg)
	require.NoError(t, err)
	return c
}

func TestOpenAIChat_SendsConversation(t *testing.T) {
	var got chatRequest
	srv := newChatServer(t, "Employees get 15 days.", &got)
	c := newTestChat(t, srv.URL)

	reply, err := c.Chat(context.Background(), []port.ChatMessage{
		{Role: "system", Content: "Answer from context."},
		{Role: domain.RoleUser, Content: "Hi"},
		{Role: domain.RoleAssistant, Content: "Hello"},
		{Role: domain.RoleUser, Content: "How many vacation days?"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Employees get 15 days.", reply)

	assert.Equal(t, "gemini-1.5-flash", got.Model)
	require.Len(t, got.Messages, 4)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "assistant", got.Messages[2].Role)
	assert.Equal(t, "How many vacation days?", got.Messages[3].Content)
	require.NotNil(t, got.Temperature)
	assert.Equal(t, 0.2, *got.Temperature)
}

func TestOpenAIChat_ZeroTemperatureSent(t *testing.T) {
	var got chatRequest
	srv := newChatServer(t, "ok", &got)
	zero := 0.0
	c := newTestChatWith(t, srv.URL, config.LLMConfig{Model: "m", Temperature: &zero})

	_, err := c.Chat(context.Background(), []port.ChatMessage{{Role: domain.RoleUser, Content: "q"}})
	require.NoError(t, err)
	require.NotNil(t, got.Temperature)
	assert.Zero(t, *got.Temperature)
}

func TestOpenAIChat_UnsetTemperatureOmitted(t *testing.T) {
	var got chatRequest
	srv := newChatServer(t, "ok", &got)
	c := newTestChatWith(t, srv.URL, config.LLMConfig{Model: "m"})

	_, err := c.Chat(context.Background(), []port.ChatMessage{{Role: domain.RoleUser, Content: "q"}})
	require.NoError(t, err)
	assert.Nil(t, got.Temperature)
}

func TestOpenAIChat_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"invalid key","type":"auth"}}`))
	}))
	defer srv.Close()

	c := newTestChat(t, srv.URL)
	_, err := c.Chat(context.Background(), []port.ChatMessage{{Role: domain.RoleUser, Content: "q"}})
	assert.ErrorContains(t, err, "chat completion failed")
}

func TestNewOpenAIChat_MissingAPIKey(t *testing.T) {
	t.Setenv("DOCQA_TEST_KEY", "")

	_, err := NewOpenAIChat(config.ProviderConfig{APIKeyEnv: "DOCQA_TEST_KEY"}, config.LLMConfig{Model: "m"})
	assert.True(t, errors.Is(err, domain.ErrMissingAPIKey))
}
