// Package ollama adapts ralph's Provider Router to a local Ollama server.
// Ollama exposes an OpenAI-compatible chat endpoint, the same
// compatibility shortcut the reference multi-provider proxy in the
// retrieval pack uses (delegate to the OpenAI wire format rather than
// write a second chat codec).
package ollama

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
	defaultBaseURL = "http://localhost:11434/v1"
	// envBaseURL is intentionally the only env var Ollama looks at: a local
	// server has no API key, so CredentialEnvVar returns "" and the router
	// skips the MissingCredentials check entirely for this vendor.
	envBaseURL = "RALPH_OLLAMA_BASE_URL"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
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

// Client implements provider.Adapter for a local Ollama server.
type Client struct {
	*provider.HTTPBase
	baseURL string
}

func newClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		HTTPBase: provider.NewHTTPBase(120 * time.Second),
		baseURL:  baseURL,
	}
}

// Complete sends req to Ollama's /chat/completions endpoint. Ollama's
// server-side token accounting is best-effort; the router prices the
// reported tokens from its price table like any other vendor, so a model
// missing from the table is billed at the table's fallback rate.
func (c *Client) Complete(ctx context.Context, req provider.Request) (provider.Response, error) {
	messages := make([]chatMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, chatMessage{Role: string(m.Role), Content: m.Content})
	}

	body := chatRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: req.Temperature,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return provider.Response{}, fmt.Errorf("ollama: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return provider.Response{}, fmt.Errorf("ollama: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.ExecuteWithRetry(ctx, httpReq)
	if err != nil {
		return provider.Response{}, fmt.Errorf("ollama: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return provider.Response{}, fmt.Errorf("ollama: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return provider.Response{}, provider.HandleHTTPError(resp.StatusCode, raw, "ollama")
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return provider.Response{}, fmt.Errorf("ollama: parse response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return provider.Response{}, fmt.Errorf("ollama: no choices in response")
	}

	return provider.Response{
		Content:      parsed.Choices[0].Message.Content,
		InputTokens:  parsed.Usage.PromptTokens,
		OutputTokens: parsed.Usage.CompletionTokens,
	}, nil
}

type factory struct{}

func (factory) Tag() provider.Tag { return provider.Ollama }

func (factory) CredentialEnvVar() string { return "" }

func (factory) New(envLookup func(string) (string, bool)) (provider.Adapter, error) {
	baseURL, _ := envLookup(envBaseURL)
	return newClient(baseURL), nil
}

func init() {
	provider.MustRegister(factory{})
}
