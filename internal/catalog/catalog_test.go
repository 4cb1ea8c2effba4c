package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/V4T54L/runtime-analytics/internal/domain"
)

func TestDefaultCatalogCoversEveryFunction(t *testing.T) {
	c := Default()
	if c.Len() == 0 {
		t.Fatal("expected embedded catalog to have entries")
	}
	if unknown := c.UnknownFunctions(); len(unknown) != 0 {
		t.Errorf("expected only known functions, got %v", unknown)
	}

	covered := map[domain.Function]bool{}
	for i := 0; i < c.Len(); i++ {
		covered[c.Entry(i).Function] = true
	}
	for _, f := range domain.Functions() {
		if !covered[f] {
			t.Errorf("function %s has no catalog entry", f)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		entries  int
		examples int
		wantErr  bool
	}{
		{"empty document", "", 0, 0, false},
		{"empty list", "[]", 0, 0, false},
		{"entry without examples", "- function: job_count_by_type\n", 1, 0, false},
		{"two entries", `
- examples: [show the slowest jobs, top slow jobs]
  function: select_jobs_by_metric_rank
  default_params: {n: 10}
- examples: [job count by type]
  function: job_count_by_type
`, 2, 3, false},
		{"missing function", "- examples: [hello]\n", 0, 0, true},
		{"blank example", "- examples: ['']\n  function: filter_jobs\n", 0, 0, true},
		{"not a list", "function: filter_jobs\n", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Parse([]byte(tt.doc))
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error=%v, got %v", tt.wantErr, err)
			}
			if tt.wantErr {
				return
			}
			if c.Len() != tt.entries {
				t.Errorf("expected %d entries, got %d", tt.entries, c.Len())
			}
			if got := len(c.Examples()); got != tt.examples {
				t.Errorf("expected %d examples, got %d", tt.examples, got)
			}
		})
	}
}

func TestParse_DefaultParams(t *testing.T) {
	c, err := Parse([]byte(`
- examples: [average duration by type]
  function: aggregate_by_field
  default_params:
    group_by: type
    operations: [mean, max]
    filters: {type: [SNSI, PSTR]}
`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	p := c.Entry(0).DefaultParams
	if p.String(domain.ParamGroupBy, "") != "type" {
		t.Errorf("expected group_by type, got %v", p[domain.ParamGroupBy])
	}
	if ops := p.Strings(domain.ParamOps); len(ops) != 2 || ops[1] != "max" {
		t.Errorf("expected operations [mean max], got %v", ops)
	}
	filters, err := p.Filters()
	if err != nil || len(filters) != 1 || filters[0].Op != domain.OpIn {
		t.Errorf("expected one IN filter, got %v (err %v)", filters, err)
	}
}

func TestParse_UnknownFunctionIsKept(t *testing.T) {
	c, err := Parse([]byte("- examples: [forecast tomorrow]\n  function: forecast_load\n"))
	if err != nil {
		t.Fatalf("expected unknown function to load, got %v", err)
	}
	if got := c.UnknownFunctions(); len(got) != 1 || got[0] != "forecast_load" {
		t.Errorf("expected forecast_load to be reported, got %v", got)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte("- examples: [x]\n  function: filter_jobs\n"), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", c.Len())
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
