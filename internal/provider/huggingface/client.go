// Package huggingface adapts ralph's Provider Router to the Hugging Face
// Inference API, which speaks a single prompt/generated-text shape rather
// than a chat-message array, unlike the other vendor adapters.
package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/itsneelabh/ralph/internal/provider"
)

const (
	defaultBaseURL = "https://api-inference.huggingface.co/models"
	envAPIKey      = "HUGGINGFACE_API_KEY"
	envBaseURL     = "RALPH_HUGGINGFACE_BASE_URL"
)

type generationParameters struct {
	Temperature     float32 `json:"temperature,omitempty"`
	MaxNewTokens    int     `json:"max_new_tokens,omitempty"`
	ReturnFullText  bool    `json:"return_full_text"`
}

type generateRequest struct {
	Inputs     string                `json:"inputs"`
	Parameters generationParameters  `json:"parameters"`
}

type generateResult struct {
	GeneratedText string `json:"generated_text"`
}

// Client implements provider.Adapter for the Hugging Face Inference API.
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
		HTTPBase: provider.NewHTTPBase(120 * time.Second),
		apiKey:   apiKey,
		baseURL:  baseURL,
	}
}

// Complete flattens req.Messages into a single prompt, since the Inference
// API's text-generation task has no notion of conversational roles.
func (c *Client) Complete(ctx context.Context, req provider.Request) (provider.Response, error) {
	var prompt strings.Builder
	for _, m := range req.Messages {
		if prompt.Len() > 0 {
			prompt.WriteString("\n")
		}
		prompt.WriteString(string(m.Role))
		prompt.WriteString(": ")
		prompt.WriteString(m.Content)
	}

	maxNew := req.MaxTokens
	if maxNew == 0 {
		maxNew = 512
	}

	body := generateRequest{
		Inputs: prompt.String(),
		Parameters: generationParameters{
			Temperature:    req.Temperature,
			MaxNewTokens:   maxNew,
			ReturnFullText: false,
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return provider.Response{}, fmt.Errorf("huggingface: marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s", c.baseURL, req.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return provider.Response{}, fmt.Errorf("huggingface: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.ExecuteWithRetry(ctx, httpReq)
	if err != nil {
		return provider.Response{}, fmt.Errorf("huggingface: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return provider.Response{}, fmt.Errorf("huggingface: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return provider.Response{}, provider.HandleHTTPError(resp.StatusCode, raw, "huggingface")
	}

	var parsed []generateResult
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return provider.Response{}, fmt.Errorf("huggingface: parse response: %w", err)
	}
	if len(parsed) == 0 {
		return provider.Response{}, fmt.Errorf("huggingface: no results in response")
	}

	text := parsed[0].GeneratedText
	// The Inference API does not report token usage; approximate using a
	// whitespace word count rather than report a misleading zero cost.
	inputTokens := approxTokens(prompt.String())
	outputTokens := approxTokens(text)

	return provider.Response{
		Content:      text,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
	}, nil
}

func approxTokens(s string) int {
	return len(strings.Fields(s))
}

type factory struct{}

func (factory) Tag() provider.Tag { return provider.HuggingFace }

func (factory) CredentialEnvVar() string { return envAPIKey }

func (factory) New(envLookup func(string) (string, bool)) (provider.Adapter, error) {
	key, _ := envLookup(envAPIKey)
	baseURL, _ := envLookup(envBaseURL)
	return newClient(key, baseURL), nil
}

func init() {
	provider.MustRegister(factory{})
}
