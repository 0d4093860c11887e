// Package llm converts requirement document text into a scope document
// by calling an external LLM provider. Providers are tried in a fixed
// priority order at construction time (Gemini, then OpenAI, then Groq);
// a single provider is selected once and used for every call.
package llm

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNoProvider indicates that no provider API key is configured.
	// The generator is unusable for the process lifetime.
	ErrNoProvider = errors.New("no llm provider configured")

	// ErrProvider indicates a network, HTTP, or safety-block failure
	// from the selected provider. Recoverable via heuristic fallback.
	ErrProvider = errors.New("llm provider error")

	// ErrParse indicates the provider response could not be validated
	// against the scope document schema. Recoverable via fallback.
	ErrParse = errors.New("llm response parse error")
)

// Default provider endpoints and models.
const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel   = "gemini-2.5-flash"
	defaultOpenAIBaseURL = "https://api.openai.com/v1/chat/completions"
	defaultOpenAIModel   = "gpt-4o-mini"
	defaultGroqBaseURL   = "https://api.groq.com/openai/v1/chat/completions"
	defaultGroqModel     = "llama3-70b-8192"

	defaultTemperature = 0.1
	defaultMaxTokens   = 6000

	geminiTimeout = 60 * time.Second
	openAITimeout = 120 * time.Second
)

// Rate limiter defaults shared by all provider clients:
// 50 requests per minute with small bursts.
const (
	defaultRateLimit = 50.0 / 60.0
	defaultBurst     = 5
)

// ProviderConfig holds one provider's connection settings.
type ProviderConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Config holds all provider configurations. A provider with an empty
// APIKey is treated as absent.
type Config struct {
	Gemini ProviderConfig
	OpenAI ProviderConfig
	Groq   ProviderConfig
}

// Provider is a single LLM vendor client. Complete sends one
// system+user prompt pair and returns the raw text response. No
// automatic retry is performed; a failed call surfaces as ErrProvider.
type Provider interface {
	Name() string
	Complete(ctx context.Context, system, user string) (string, error)
}
