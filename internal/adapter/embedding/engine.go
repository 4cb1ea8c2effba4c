// Package embedding turns prompt text into vectors for intent matching.
// Backends: a deterministic offline hashing engine, Ollama (local) and Google GenAI (cloud).
package embedding

import (
	"context"
	"fmt"
	"math"
)

// Engine generates vector embeddings for text.
type Engine interface {
	// Embed generates the embedding of a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for several texts, in order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the vector size.
	Dimensions() int

	// Name identifies the engine and model.
	Name() string
}

// Provider names accepted by New.
const (
	ProviderHashing = "hashing"
	ProviderOllama  = "ollama"
	ProviderGenAI   = "genai"
)

// Config selects and configures an engine.
type Config struct {
	Provider string

	// Hashing
	Dimensions int

	// Ollama
	OllamaEndpoint string
	OllamaModel    string

	// GenAI
	GenAIAPIKey string
	GenAIModel  string
}

// New creates the engine named by cfg.Provider.
func New(ctx context.Context, cfg Config) (Engine, error) {
	switch cfg.Provider {
	case ProviderHashing, "":
		return NewHashingEngine(cfg.Dimensions), nil
	case ProviderOllama:
		return NewOllamaEngine(cfg.OllamaEndpoint, cfg.OllamaModel), nil
	case ProviderGenAI:
		return NewGenAIEngine(ctx, cfg.GenAIAPIKey, cfg.GenAIModel)
	}
	return nil, fmt.Errorf("unsupported embedding provider %q (use hashing, ollama or genai)", cfg.Provider)
}

// CosineSimilarity returns the cosine of the angle between a and b.
// A zero vector has similarity 0 with everything.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vectors must have the same length: %d != %d", len(a), len(b))
	}

	var dot, aMag, bMag float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		aMag += float64(a[i]) * float64(a[i])
		bMag += float64(b[i]) * float64(b[i])
	}
	if aMag == 0 || bMag == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(aMag) * math.Sqrt(bMag)), nil
}
