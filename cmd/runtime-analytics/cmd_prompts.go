package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/V4T54L/runtime-analytics/internal/catalog"
	"github.com/V4T54L/runtime-analytics/internal/domain"
	"github.com/V4T54L/runtime-analytics/internal/format"
	"github.com/V4T54L/runtime-analytics/internal/pkg/config"
)

var promptsFlags struct {
	format string
}

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "List the example prompts of the catalog",
	Args:  cobra.NoArgs,
	RunE:  runPrompts,
}

func init() {
	promptsCmd.Flags().StringVarP(&promptsFlags.format, "format", "f", "table", "Output format (table, markdown, csv, json)")
}

func runPrompts(cmd *cobra.Command, _ []string) error {
	mode, err := format.ParseMode(promptsFlags.format)
	if err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if rootFlags.catalogPath != "" {
		cfg.CatalogPath = rootFlags.catalogPath
	}
	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	return format.Write(cmd.OutOrStdout(), mode, promptTable(cat))
}

func promptTable(cat *catalog.Catalog) domain.Table {
	t := domain.NewTable("prompt", "function")
	for _, ex := range cat.Examples() {
		t.Append(ex.Text, string(cat.Entry(ex.Entry).Function))
	}
	return t
}
