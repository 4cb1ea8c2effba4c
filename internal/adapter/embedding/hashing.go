package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// DefaultHashingDimensions is the vector size of the hashing engine.
const DefaultHashingDimensions = 512

var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "of": true, "for": true, "me": true,
	"show": true, "list": true, "give": true, "what": true, "which": true,
	"are": true, "is": true, "in": true, "by": true, "and": true, "to": true,
	"please": true, "all": true,
}

// HashingEngine embeds text as a signed feature-hashed bag of word stems and
// stem bigrams. It needs no model or network and is fully deterministic.
type HashingEngine struct {
	dims int
}

// NewHashingEngine creates a hashing engine; dims <= 0 uses DefaultHashingDimensions.
func NewHashingEngine(dims int) *HashingEngine {
	if dims <= 0 {
		dims = DefaultHashingDimensions
	}
	return &HashingEngine{dims: dims}
}

func (e *HashingEngine) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dims)
	stems := Tokens(text)
	for i, s := range stems {
		e.add(vec, s, 1)
		if i > 0 {
			e.add(vec, stems[i-1]+" "+s, 0.5)
		}
	}
	normalize(vec)
	return vec, nil
}

func (e *HashingEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *HashingEngine) Dimensions() int { return e.dims }

func (e *HashingEngine) Name() string { return "hashing" }

func (e *HashingEngine) add(vec []float32, feature string, weight float32) {
	h := fnv.New64a()
	h.Write([]byte(feature))
	sum := h.Sum64()
	idx := int(sum % uint64(len(vec)))
	if sum>>63 == 1 {
		weight = -weight
	}
	vec[idx] += weight
}

func normalize(vec []float32) {
	var sq float64
	for _, v := range vec {
		sq += float64(v) * float64(v)
	}
	if sq == 0 {
		return
	}
	norm := float32(math.Sqrt(sq))
	for i := range vec {
		vec[i] /= norm
	}
}

// Tokens lowercases text, drops stop words and digits-only tokens, and reduces
// each word to a crude stem ("slowest" -> "slow", "jobs" -> "job").
func Tokens(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make([]string, 0, len(words))
	for _, w := range words {
		if stopWords[w] || isDigits(w) {
			continue
		}
		out = append(out, stem(w))
	}
	return out
}

func stem(w string) string {
	for _, suffix := range []string{"est", "ing", "er", "ed", "s"} {
		if len(w) > len(suffix)+2 && strings.HasSuffix(w, suffix) {
			return strings.TrimSuffix(w, suffix)
		}
	}
	return w
}

func isDigits(w string) bool {
	for _, r := range w {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return w != ""
}
