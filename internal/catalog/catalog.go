// Package catalog loads the declarative list of supported prompt intents.
package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/V4T54L/runtime-analytics/internal/domain"
)

//go:embed prompt_catalog.yaml
var defaultDocument []byte

// Entry is one intent: example phrasings, the target function and its defaults.
type Entry struct {
	Examples      []string        `yaml:"examples" validate:"dive,required"`
	Function      domain.Function `yaml:"function" validate:"required"`
	DefaultParams domain.Params   `yaml:"default_params"`
}

// Example is one phrasing together with the index of its entry.
type Example struct {
	Entry int
	Text  string
}

// Catalog is immutable once loaded.
type Catalog struct {
	entries []Entry
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Parse decodes and validates a catalog document. An empty document is a valid,
// empty catalog. Function names outside the registry are accepted here and
// surface as an unrecognized function at dispatch time.
func Parse(data []byte) (*Catalog, error) {
	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode prompt catalog: %w", err)
	}
	for i := range entries {
		if err := validate.Struct(entries[i]); err != nil {
			return nil, fmt.Errorf("prompt catalog entry %d: %w", i, err)
		}
		if entries[i].DefaultParams == nil {
			entries[i].DefaultParams = domain.Params{}
		}
	}
	return &Catalog{entries: entries}, nil
}

// Load reads a catalog document from disk.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt catalog: %w", err)
	}
	return Parse(data)
}

// Default returns the catalog shipped with the binary.
func Default() *Catalog {
	c, err := Parse(defaultDocument)
	if err != nil {
		panic(fmt.Sprintf("embedded prompt catalog is invalid: %v", err))
	}
	return c
}

// LoadOrDefault loads path, or the embedded catalog when path is empty.
func LoadOrDefault(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Len returns the number of entries.
func (c *Catalog) Len() int { return len(c.entries) }

// Entry returns entry i. Its DefaultParams must not be mutated; use Clone.
func (c *Catalog) Entry(i int) Entry { return c.entries[i] }

// Examples flattens every example in declaration order.
func (c *Catalog) Examples() []Example {
	var out []Example
	for i, e := range c.entries {
		for _, text := range e.Examples {
			out = append(out, Example{Entry: i, Text: text})
		}
	}
	return out
}

// UnknownFunctions lists entry functions that are not part of the registry enum.
func (c *Catalog) UnknownFunctions() []domain.Function {
	var out []domain.Function
	for _, e := range c.entries {
		if _, err := domain.ParseFunction(string(e.Function)); err != nil {
			out = append(out, e.Function)
		}
	}
	return out
}
