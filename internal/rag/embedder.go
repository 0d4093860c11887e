// Package rag retrieves similar prior example documents for few-shot
// prompting. A fixed corpus of input documents and their gold-standard
// scope JSON outputs is embedded once, lazily, and queried with cosine
// similarity.
package rag

import (
	"context"
	"fmt"
	"sync"

	fastembed "github.com/anush008/fastembed-go"
)

// Embedder produces a normalized embedding vector for a text.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// FastEmbedConfig configures the local ONNX embedding model.
type FastEmbedConfig struct {
	// Model is the embedding model name.
	// Defaults to BAAI/bge-small-en-v1.5.
	Model string
	// CacheDir is where model files are cached.
	CacheDir string
}

// fastEmbedModels maps friendly model names to fastembed constants.
var fastEmbedModels = map[string]fastembed.EmbeddingModel{
	"BAAI/bge-small-en-v1.5":                 fastembed.BGESmallENV15,
	"BAAI/bge-base-en-v1.5":                  fastembed.BGEBaseENV15,
	"sentence-transformers/all-MiniLM-L6-v2": fastembed.AllMiniLML6V2,
}

// FastEmbedder generates embeddings with a local ONNX model. Model
// loading happens in the constructor, so construct it eagerly at
// startup rather than from concurrent request paths.
type FastEmbedder struct {
	mu    sync.RWMutex
	model *fastembed.FlagEmbedding
}

// NewFastEmbedder loads the embedding model.
func NewFastEmbedder(cfg FastEmbedConfig) (*FastEmbedder, error) {
	name := cfg.Model
	if name == "" {
		name = "BAAI/bge-small-en-v1.5"
	}
	model, ok := fastEmbedModels[name]
	if !ok {
		return nil, fmt.Errorf("unsupported embedding model %q", name)
	}

	cacheDir := cfg.CacheDir
	if cacheDir == "" {
		cacheDir = "local_cache"
	}

	showProgress := false
	flag, err := fastembed.NewFlagEmbedding(&fastembed.InitOptions{
		Model:                model,
		CacheDir:             cacheDir,
		ShowDownloadProgress: &showProgress,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing fastembed: %w", err)
	}
	return &FastEmbedder{model: flag}, nil
}

// EmbedQuery embeds a single text and normalizes the result so cosine
// similarity reduces to a dot product.
func (f *FastEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	vec, err := f.model.QueryEmbed(text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	normalize(vec)
	return vec, nil
}

// Close releases the underlying ONNX resources.
func (f *FastEmbedder) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.model != nil {
		return f.model.Destroy()
	}
	return nil
}

var _ Embedder = (*FastEmbedder)(nil)
