package main

import (
	"github.com/spf13/cobra"

	"github.com/V4T54L/runtime-analytics/internal/analytics"
	"github.com/V4T54L/runtime-analytics/internal/domain"
	"github.com/V4T54L/runtime-analytics/internal/format"
)

var reportsFlags struct {
	format string
}

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List the predefined reports",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		mode, err := format.ParseMode(reportsFlags.format)
		if err != nil {
			return err
		}
		return format.Write(cmd.OutOrStdout(), mode, reportTable())
	},
}

func init() {
	reportsCmd.Flags().StringVarP(&reportsFlags.format, "format", "f", "table", "Output format (table, markdown, csv, json)")
}

func reportTable() domain.Table {
	t := domain.NewTable("report", "function", "period")
	for _, r := range analytics.Reports() {
		t.Append(r.Name, string(r.Function), string(r.Period))
	}
	return t
}
