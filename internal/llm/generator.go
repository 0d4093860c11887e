package llm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/scopegen/internal/rag"
	"github.com/fyrsmithlabs/scopegen/internal/scope"
)

// ExampleRetriever supplies few-shot examples for prompt augmentation.
// The rag package implements this; a nil retriever disables it.
type ExampleRetriever interface {
	FindSimilarExamples(ctx context.Context, query string) ([]rag.Example, error)
	FormatExamplesForPrompt(examples []rag.Example) string
}

// Generator converts document text into a scope document via an LLM
// provider selected once at construction.
type Generator struct {
	provider  Provider
	retriever ExampleRetriever
	logger    *zap.Logger
}

// NewGenerator selects a provider in fixed priority order (Gemini,
// then OpenAI, then Groq) and returns ErrNoProvider when no API key is
// configured. The selection is not re-evaluated per call.
func NewGenerator(cfg Config, retriever ExampleRetriever, logger *zap.Logger) (*Generator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var provider Provider
	switch {
	case cfg.Gemini.APIKey != "":
		provider = newGeminiClient(cfg.Gemini, logger)
	case cfg.OpenAI.APIKey != "":
		provider = newOpenAIClient(cfg.OpenAI, logger)
	case cfg.Groq.APIKey != "":
		provider = newGroqClient(cfg.Groq, logger)
	default:
		return nil, fmt.Errorf("%w: missing Gemini, OpenAI, or Groq API key", ErrNoProvider)
	}
	logger.Info("llm scope generator configured", zap.String("provider", provider.Name()))

	return &Generator{
		provider:  provider,
		retriever: retriever,
		logger:    logger,
	}, nil
}

// ProviderName returns the name of the selected provider.
func (g *Generator) ProviderName() string {
	return g.provider.Name()
}

// Generate sends the document text to the provider and parses the
// response into a scope document. A single call is made; there is no
// retry against the provider, only the JSON-repair parse fallback.
func (g *Generator) Generate(ctx context.Context, content string) (scope.Document, error) {
	if strings.TrimSpace(content) == "" {
		return scope.Document{}, fmt.Errorf("%w: no content available for generation", ErrParse)
	}

	raw, err := g.provider.Complete(ctx, systemPrompt, g.buildUserMessage(ctx, content))
	if err != nil {
		return scope.Document{}, err
	}

	doc, err := parseScopeResponse(raw)
	if err != nil {
		return scope.Document{}, err
	}
	g.logger.Info("llm scope generation succeeded",
		zap.String("provider", g.provider.Name()),
		zap.Int("modules", len(doc.Modules)),
		zap.Int("features", len(doc.Features)),
	)
	return doc, nil
}

// buildUserMessage prepends the few-shot example block, when available,
// to the document template. Retrieval failures are logged and skipped;
// they never fail generation.
func (g *Generator) buildUserMessage(ctx context.Context, content string) string {
	var parts []string
	if g.retriever != nil {
		examples, err := g.retriever.FindSimilarExamples(ctx, content)
		switch {
		case err != nil:
			g.logger.Warn("failed to retrieve few-shot examples, continuing without", zap.Error(err))
		case len(examples) > 0:
			parts = append(parts, g.retriever.FormatExamplesForPrompt(examples))
			g.logger.Info("including few-shot examples in prompt", zap.Int("count", len(examples)))
		}
	}
	parts = append(parts, userTemplatePrefix+strings.TrimSpace(content)+userTemplateSuffix)
	return strings.Join(parts, "\n")
}
