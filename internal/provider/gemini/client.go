// Package gemini adapts ralph's Provider Router to Google's Gemini
// GenerateContent API, grounded on the teacher framework's
// ai/providers/gemini client.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/itsneelabh/ralph/internal/provider"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	envAPIKey      = "GOOGLE_API_KEY"
	envBaseURL     = "RALPH_GOOGLE_BASE_URL"
)

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature     float32 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type generateRequest struct {
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type candidate struct {
	Content content `json:"content"`
}

type usageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
}

type generateResponse struct {
	Candidates    []candidate   `json:"candidates"`
	UsageMetadata usageMetadata `json:"usageMetadata"`
}

// Client implements provider.Adapter for Google Gemini.
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
		HTTPBase: provider.NewHTTPBase(30 * time.Second),
		apiKey:   apiKey,
		baseURL:  baseURL,
	}
}

// Complete sends req to the GenerateContent endpoint. Gemini authenticates
// via a query-string API key rather than a header, and carries the system
// prompt in a dedicated systemInstruction field.
func (c *Client) Complete(ctx context.Context, req provider.Request) (provider.Response, error) {
	var system *content
	contents := make([]content, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m.Role == provider.RoleSystem {
			system = &content{Parts: []part{{Text: m.Content}}}
			continue
		}
		role := "user"
		if m.Role == provider.RoleAssistant {
			role = "model"
		}
		contents = append(contents, content{Role: role, Parts: []part{{Text: m.Content}}})
	}

	body := generateRequest{
		Contents:          contents,
		SystemInstruction: system,
		GenerationConfig: &generationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return provider.Response{}, fmt.Errorf("gemini: marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, req.Model, url.QueryEscape(c.apiKey))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return provider.Response{}, fmt.Errorf("gemini: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.ExecuteWithRetry(ctx, httpReq)
	if err != nil {
		return provider.Response{}, fmt.Errorf("gemini: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return provider.Response{}, fmt.Errorf("gemini: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return provider.Response{}, provider.HandleHTTPError(resp.StatusCode, raw, "gemini")
	}

	var parsed generateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return provider.Response{}, fmt.Errorf("gemini: parse response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return provider.Response{}, fmt.Errorf("gemini: no candidates in response")
	}

	var text string
	for _, p := range parsed.Candidates[0].Content.Parts {
		text += p.Text
	}

	return provider.Response{
		Content:      text,
		InputTokens:  parsed.UsageMetadata.PromptTokenCount,
		OutputTokens: parsed.UsageMetadata.CandidatesTokenCount,
	}, nil
}

type factory struct{}

func (factory) Tag() provider.Tag { return provider.Google }

func (factory) CredentialEnvVar() string { return envAPIKey }

func (factory) New(envLookup func(string) (string, bool)) (provider.Adapter, error) {
	key, _ := envLookup(envAPIKey)
	baseURL, _ := envLookup(envBaseURL)
	return newClient(key, baseURL), nil
}

func init() {
	provider.MustRegister(factory{})
}
