// Package provider implements the Provider Router (spec §4.1): a single
// Complete() entry point that dispatches to per-vendor adapters, computes
// USD cost from a price table, and raises typed MissingCredentials /
// ProviderError failures. Adapters share only the Request/Response
// contract — the router never imports a vendor SDK directly.
package provider

import "context"

// Tag identifies an LLM vendor.
type Tag string

const (
	Anthropic  Tag = "anthropic"
	Google     Tag = "google"
	OpenAI     Tag = "openai"
	HuggingFace Tag = "huggingface"
	Ollama     Tag = "ollama"
)

// Role is a message's conversational role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn in the conversation sent to the model.
type Message struct {
	Role    Role
	Content string
}

// Request is the uniform call shape every adapter receives.
type Request struct {
	Provider    Tag
	Model       string
	Messages    []Message
	Temperature float32
	MaxTokens   int
}

// Response is the uniform call shape every adapter returns.
type Response struct {
	Content         string
	InputTokens     int
	OutputTokens    int
	CostUSD         float64
	ProviderUsed    Tag
}

// Adapter is what a vendor package implements. The router never holds
// adapter-specific state; each Complete call is fully self-contained.
type Adapter interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// AdapterFactory constructs an Adapter for a given Tag, analogous to the
// teacher's ai.ProviderFactory. Adapter packages register one of these from
// an init() function so the router's dispatch table never hard-codes a
// vendor list.
type AdapterFactory interface {
	// Tag returns the provider tag this factory builds adapters for.
	Tag() Tag
	// New constructs an adapter. envLookup is injected so tests can stub
	// credential resolution without mutating process environment.
	New(envLookup func(string) (string, bool)) (Adapter, error)
	// CredentialEnvVar names the environment variable Complete() requires
	// before dispatching to this vendor; used to build the
	// MissingCredentials remediation hint.
	CredentialEnvVar() string
}
