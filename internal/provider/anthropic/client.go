// Package anthropic adapts ralph's Provider Router to Anthropic's native
// Messages API, grounded on the teacher framework's
// ai/providers/anthropic client — same request/response shape, same
// retry-then-fail boundary, reworked onto provider.Request/Response.
package anthropic

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
	defaultBaseURL = "https://api.anthropic.com/v1"
	apiVersion     = "2023-06-01"
	envAPIKey      = "ANTHROPIC_API_KEY"
	envBaseURL     = "RALPH_ANTHROPIC_BASE_URL"
)

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	System      string    `json:"system,omitempty"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float32   `json:"temperature,omitempty"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type response struct {
	Model   string         `json:"model"`
	Content []contentBlock `json:"content"`
	Usage   usage          `json:"usage"`
}

// Client implements provider.Adapter for Anthropic.
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
		HTTPBase: provider.NewHTTPBase(60 * time.Second),
		apiKey:   apiKey,
		baseURL:  baseURL,
	}
}

// Complete sends req to Anthropic's Messages API. System-role messages are
// hoisted into the top-level "system" field since the native API has no
// system role in its Messages array.
func (c *Client) Complete(ctx context.Context, req provider.Request) (provider.Response, error) {
	var system string
	msgs := make([]message, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m.Role == provider.RoleSystem {
			system = m.Content
			continue
		}
		msgs = append(msgs, message{Role: string(m.Role), Content: m.Content})
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	body := request{
		Model:       req.Model,
		Messages:    msgs,
		System:      system,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return provider.Response{}, fmt.Errorf("anthropic: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return provider.Response{}, fmt.Errorf("anthropic: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	resp, err := c.ExecuteWithRetry(ctx, httpReq)
	if err != nil {
		return provider.Response{}, fmt.Errorf("anthropic: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return provider.Response{}, fmt.Errorf("anthropic: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return provider.Response{}, provider.HandleHTTPError(resp.StatusCode, raw, "anthropic")
	}

	var parsed response
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return provider.Response{}, fmt.Errorf("anthropic: parse response: %w", err)
	}

	var content string
	for _, block := range parsed.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}
	if content == "" {
		return provider.Response{}, fmt.Errorf("anthropic: empty response content")
	}

	return provider.Response{
		Content:      content,
		InputTokens:  parsed.Usage.InputTokens,
		OutputTokens: parsed.Usage.OutputTokens,
	}, nil
}

type factory struct{}

func (factory) Tag() provider.Tag { return provider.Anthropic }

func (factory) CredentialEnvVar() string { return envAPIKey }

func (factory) New(envLookup func(string) (string, bool)) (provider.Adapter, error) {
	key, _ := envLookup(envAPIKey)
	baseURL, _ := envLookup(envBaseURL)
	return newClient(key, baseURL), nil
}

func init() {
	provider.MustRegister(factory{})
}
