// Package openai adapts ralph's Provider Router to OpenAI's Chat
// Completions API, grounded on the teacher framework's
// ai/providers/openai client.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/itsneelabh/ralph/internal/provider"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	envAPIKey      = "OPENAI_API_KEY"
	envBaseURL     = "RALPH_OPENAI_BASE_URL"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float32       `json:"temperature,omitempty"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

// Client implements provider.Adapter for OpenAI.
type Client struct {
	*provider.HTTPBase
	apiKey  string
	baseURL string
}

func newClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		HTTPBase: provider.NewHTTPBase(180 * time.Second),
		apiKey:   apiKey,
		baseURL:  baseURL,
	}
}

// Complete sends req to the Chat Completions endpoint.
func (c *Client) Complete(ctx context.Context, req provider.Request) (provider.Response, error) {
	messages := make([]chatMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, chatMessage{Role: string(m.Role), Content: m.Content})
	}

	body := chatRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return provider.Response{}, fmt.Errorf("openai: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return provider.Response{}, fmt.Errorf("openai: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.ExecuteWithRetry(ctx, httpReq)
	if err != nil {
		return provider.Response{}, fmt.Errorf("openai: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return provider.Response{}, fmt.Errorf("openai: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return provider.Response{}, provider.HandleHTTPError(resp.StatusCode, raw, "openai")
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return provider.Response{}, fmt.Errorf("openai: parse response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return provider.Response{}, fmt.Errorf("openai: no choices in response")
	}

	return provider.Response{
		Content:      parsed.Choices[0].Message.Content,
		InputTokens:  parsed.Usage.PromptTokens,
		OutputTokens: parsed.Usage.CompletionTokens,
	}, nil
}

type factory struct{}

func (factory) Tag() provider.Tag { return provider.OpenAI }

func (factory) CredentialEnvVar() string { return envAPIKey }

func (factory) New(envLookup func(string) (string, bool)) (provider.Adapter, error) {
	key, _ := envLookup(envAPIKey)
	baseURL, _ := envLookup(envBaseURL)
	return newClient(key, baseURL), nil
}

func init() {
	provider.MustRegister(factory{})
}
