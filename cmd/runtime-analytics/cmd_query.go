package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/V4T54L/runtime-analytics/internal/analytics"
	"github.com/V4T54L/runtime-analytics/internal/domain"
	"github.com/V4T54L/runtime-analytics/internal/format"
	"github.com/V4T54L/runtime-analytics/internal/usecase"
)

var queryFlags struct {
	format      string
	report      string
	listPrompts bool
	fromLogs    string
	startDate   string
	endDate     string
}

var queryCmd = &cobra.Command{
	Use:   "query [prompt]",
	Short: "Answer a free-text prompt or a predefined report",
	Example: `  runtime-analytics query "top 5 slow jobs this week"
  runtime-analytics query --report "Job Count by Type" -f csv
  runtime-analytics query --report "Top Slow Jobs for Date Range" --start-date 2025-07-01 --end-date 2025-07-07
  runtime-analytics query --from-logs ./logs "count jobs by type"`,
	RunE: runQuery,
}

func init() {
	f := queryCmd.Flags()
	f.StringVarP(&queryFlags.format, "format", "f", "table", "Output format (table, markdown, csv, json)")
	f.StringVarP(&queryFlags.report, "report", "r", "", "Run a predefined report by name instead of a prompt")
	f.BoolVar(&queryFlags.listPrompts, "list-prompts", false, "List the catalog example prompts and exit")
	f.StringVar(&queryFlags.fromLogs, "from-logs", "", "Ingest pending files from this directory before answering")
	f.StringVar(&queryFlags.startDate, "start-date", "", "First run_date (YYYY-MM-DD) for --report")
	f.StringVar(&queryFlags.endDate, "end-date", "", "Last run_date (YYYY-MM-DD) for --report")
}

func runQuery(cmd *cobra.Command, args []string) error {
	if queryFlags.listPrompts {
		promptsFlags.format = queryFlags.format
		return runPrompts(cmd, nil)
	}

	mode, err := format.ParseMode(queryFlags.format)
	if err != nil {
		return err
	}
	prompt := strings.TrimSpace(strings.Join(args, " "))
	if prompt == "" && queryFlags.report == "" {
		return errors.New("a prompt or --report is required")
	}

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	// 1. Optionally ingest a directory first
	if queryFlags.fromLogs != "" {
		uc, err := a.ingestFiles(queryFlags.fromLogs)
		if err != nil {
			return err
		}
		report, err := uc.Run(ctx)
		switch {
		case errors.Is(err, domain.ErrNoData):
			a.logger.Warn("no pending log files", "dir", queryFlags.fromLogs)
		case err != nil:
			return fmt.Errorf("ingest: %w", err)
		default:
			a.logger.Info("ingested logs before query", "inserted", report.Inserted, "duplicates", report.Duplicates)
		}
	}

	// 2. Answer
	q, err := a.query(ctx)
	if err != nil {
		return err
	}
	var res usecase.Result
	if queryFlags.report != "" {
		res, err = q.Report(ctx, queryFlags.report, analytics.DateRange{Start: queryFlags.startDate, End: queryFlags.endDate})
	} else {
		res, err = q.Prompt(ctx, prompt)
	}
	if err != nil {
		return err
	}

	// 3. Render
	if mode == format.Table || mode == format.Markdown {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s (latest run_date %s)\n", describe(res), res.RunDate)
	}
	return format.Write(cmd.OutOrStdout(), mode, res.Table)
}

func describe(res usecase.Result) string {
	if res.Report != "" {
		return res.Report
	}
	if res.Example != "" {
		return fmt.Sprintf("%s, matched %q (%.2f)", res.Function, res.Example, res.Score)
	}
	return string(res.Function)
}
