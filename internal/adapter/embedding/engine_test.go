package embedding

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name    string
		a, b    []float32
		want    float64
		wantErr bool
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1, false},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0, false},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1, false},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0, false},
		{"length mismatch", []float32{1}, []float32{1, 2}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CosineSimilarity(tt.a, tt.b)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error=%v, got %v", tt.wantErr, err)
			}
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("expected %f, got %f", tt.want, got)
			}
		})
	}
}

func TestTokens(t *testing.T) {
	got := Tokens("Show me the SLOWEST jobs, top 5!")
	want := []string{"slow", "job", "top"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestHashingEngine(t *testing.T) {
	ctx := context.Background()
	e := NewHashingEngine(0)
	if e.Dimensions() != DefaultHashingDimensions {
		t.Fatalf("expected %d dimensions, got %d", DefaultHashingDimensions, e.Dimensions())
	}

	t.Run("Deterministic", func(t *testing.T) {
		a, _ := e.Embed(ctx, "top slow jobs this week")
		b, _ := e.Embed(ctx, "top slow jobs this week")
		if diff := cmp.Diff(a, b); diff != "" {
			t.Errorf("expected identical vectors:\n%s", diff)
		}
	})

	t.Run("Related Text Scores Higher", func(t *testing.T) {
		vecs, err := e.EmbedBatch(ctx, []string{
			"top 5 slow jobs this week",
			"show the slowest jobs",
			"prediction accuracy per job type",
		})
		if err != nil {
			t.Fatalf("embed batch failed: %v", err)
		}
		related, _ := CosineSimilarity(vecs[0], vecs[1])
		unrelated, _ := CosineSimilarity(vecs[0], vecs[2])
		if related <= unrelated {
			t.Errorf("expected related score %f > unrelated score %f", related, unrelated)
		}
	})

	t.Run("Empty Text", func(t *testing.T) {
		v, err := e.Embed(ctx, "")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		for _, x := range v {
			if x != 0 {
				t.Fatal("expected zero vector for empty text")
			}
		}
	})
}

func TestOllamaEngine(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		var req ollamaEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Prompt == "fail" {
			http.Error(w, "model not loaded", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: []float32{float32(len(req.Prompt)), 1}})
	}))
	defer srv.Close()

	e := NewOllamaEngine(srv.URL+"/", "test-model")
	if e.Name() != "ollama:test-model" {
		t.Errorf("unexpected name %s", e.Name())
	}

	vecs, err := e.EmbedBatch(context.Background(), []string{"ab", "abcd"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	want := [][]float32{{2, 1}, {4, 1}}
	if diff := cmp.Diff(want, vecs); diff != "" {
		t.Errorf("vectors mismatch (-want +got):\n%s", diff)
	}

	if _, err := e.Embed(context.Background(), "fail"); err == nil {
		t.Error("expected an error for a non-200 response")
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	if _, err := New(context.Background(), Config{Provider: "word2vec"}); err == nil {
		t.Fatal("expected an error for an unknown provider")
	}
	if _, err := New(context.Background(), Config{Provider: ProviderGenAI}); err == nil {
		t.Fatal("expected an error for genai without an API key")
	}
}
