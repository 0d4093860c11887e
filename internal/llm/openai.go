package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// openAIClient calls an OpenAI-compatible chat completions API. Groq
// exposes the same wire shape, so one client serves both vendors; the
// name distinguishes them in logs and error messages.
type openAIClient struct {
	name       string
	model      string
	apiKey     string
	apiURL     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

func newOpenAIClient(cfg ProviderConfig, logger *zap.Logger) *openAIClient {
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	apiURL := cfg.BaseURL
	if apiURL == "" {
		apiURL = defaultOpenAIBaseURL
	}
	return &openAIClient{
		name:       "openai",
		model:      model,
		apiKey:     cfg.APIKey,
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: openAITimeout},
		limiter:    rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
		logger:     logger,
	}
}

func newGroqClient(cfg ProviderConfig, logger *zap.Logger) *openAIClient {
	model := cfg.Model
	if model == "" {
		model = defaultGroqModel
	}
	apiURL := cfg.BaseURL
	if apiURL == "" {
		apiURL = defaultGroqBaseURL
	}
	return &openAIClient{
		name:       "groq",
		model:      model,
		apiKey:     cfg.APIKey,
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: openAITimeout},
		limiter:    rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
		logger:     logger,
	}
}

func (o *openAIClient) Name() string { return o.name }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Messages    []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends the prompt pair as a system+user message sequence and
// returns the first choice's content.
func (o *openAIClient) Complete(ctx context.Context, system, user string) (string, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: rate limiter: %v", ErrProvider, err)
	}

	payload := chatRequest{
		Model:       o.model,
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: marshaling request: %v", ErrProvider, err)
	}

	o.logger.Debug("calling chat completions api",
		zap.String("provider", o.name),
		zap.String("model", o.model),
		zap.Int("payload_bytes", len(body)),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: building request: %v", ErrProvider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %s request failed: %v", ErrProvider, o.name, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading %s response: %v", ErrProvider, o.name, err)
	}
	if resp.StatusCode != http.StatusOK {
		o.logger.Error("chat completions api error",
			zap.String("provider", o.name),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", truncateBytes(respBody, 500)),
		)
		return "", fmt.Errorf("%w: %s status %d", ErrProvider, o.name, resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("%w: decoding %s response: %v", ErrProvider, o.name, err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in %s response", ErrProvider, o.name)
	}
	return parsed.Choices[0].Message.Content, nil
}

var _ Provider = (*openAIClient)(nil)
