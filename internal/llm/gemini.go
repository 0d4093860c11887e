package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// geminiClient calls the Gemini generateContent API. Gemini uses a
// different wire shape from the OpenAI-compatible vendors: a
// systemInstruction block, contents/parts nesting, and key-in-query
// authentication.
type geminiClient struct {
	model      string
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

func newGeminiClient(cfg ProviderConfig, logger *zap.Logger) *geminiClient {
	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	return &geminiClient{
		model:      model,
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: geminiTimeout},
		limiter:    rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
		logger:     logger,
	}
}

func (g *geminiClient) Name() string { return "gemini" }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiRequest struct {
	Contents          []geminiContent        `json:"contents"`
	SystemInstruction geminiContent          `json:"systemInstruction"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete sends the prompt pair to Gemini and returns the raw text of
// the first candidate.
func (g *geminiClient) Complete(ctx context.Context, system, user string) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: rate limiter: %v", ErrProvider, err)
	}

	payload := geminiRequest{
		Contents:          []geminiContent{{Parts: []geminiPart{{Text: user}}}},
		SystemInstruction: geminiContent{Parts: []geminiPart{{Text: system}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     defaultTemperature,
			MaxOutputTokens: defaultMaxTokens,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: marshaling request: %v", ErrProvider, err)
	}

	model := g.model
	if !strings.HasPrefix(model, "models/") {
		model = "models/" + model
	}
	url := fmt.Sprintf("%s/%s:generateContent?key=%s", g.baseURL, model, g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: building request: %v", ErrProvider, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: gemini request failed: %v", ErrProvider, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading gemini response: %v", ErrProvider, err)
	}
	if resp.StatusCode != http.StatusOK {
		g.logger.Error("gemini api error",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", truncateBytes(respBody, 500)),
		)
		return "", fmt.Errorf("%w: gemini status %d", ErrProvider, resp.StatusCode)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("%w: decoding gemini response: %v", ErrProvider, err)
	}
	return g.extractText(parsed)
}

func (g *geminiClient) extractText(resp geminiResponse) (string, error) {
	if resp.Error != nil {
		return "", fmt.Errorf("%w: gemini: %s", ErrProvider, resp.Error.Message)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates in gemini response", ErrProvider)
	}

	candidate := resp.Candidates[0]
	switch candidate.FinishReason {
	case "", "STOP":
	case "SAFETY":
		return "", fmt.Errorf("%w: gemini blocked the response due to safety filters", ErrProvider)
	case "MAX_TOKENS":
		// Truncated output may still parse; log and continue.
		g.logger.Warn("gemini response truncated at max tokens")
	default:
		g.logger.Warn("unexpected gemini finish reason", zap.String("finish_reason", candidate.FinishReason))
	}

	if len(candidate.Content.Parts) == 0 || candidate.Content.Parts[0].Text == "" {
		return "", fmt.Errorf("%w: empty text in gemini response", ErrProvider)
	}
	return candidate.Content.Parts[0].Text, nil
}

func truncateBytes(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}

var _ Provider = (*geminiClient)(nil)
