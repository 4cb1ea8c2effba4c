package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/V4T54L/runtime-analytics/internal/domain"
	"github.com/V4T54L/runtime-analytics/internal/format"
	"github.com/V4T54L/runtime-analytics/internal/usecase"
)

var ingestFlags struct {
	dir    string
	format string
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest pending log files from the inbox into the store",
	Args:  cobra.NoArgs,
	RunE:  runIngest,
}

func init() {
	f := ingestCmd.Flags()
	f.StringVar(&ingestFlags.dir, "inbox", "", "Inbox directory (defaults to INBOX_DIR)")
	f.StringVarP(&ingestFlags.format, "format", "f", "table", "Summary format (table, markdown, csv, json)")
}

func runIngest(cmd *cobra.Command, _ []string) error {
	mode, err := format.ParseMode(ingestFlags.format)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	uc, err := a.ingestFiles(ingestFlags.dir)
	if err != nil {
		return err
	}
	report, err := uc.Run(ctx)
	if errors.Is(err, domain.ErrPartialAppend) {
		// files stay pending; show what was stored before failing
		if werr := writeIngestReport(cmd.OutOrStdout(), mode, report); werr != nil {
			return werr
		}
	}
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	return writeIngestReport(cmd.OutOrStdout(), mode, report)
}

func writeIngestReport(w io.Writer, mode format.Mode, r usecase.IngestReport) error {
	t := domain.NewTable("run_id", "files", "lines", "parsed", "rejected", "duplicates", "inserted", "failed_chunks", "failed_rows")
	t.Append(r.RunID, r.Files, r.Lines, r.Parsed, r.Rejected, r.Duplicates, r.Inserted, r.FailedChunks, r.FailedRows)
	return format.Write(w, mode, t)
}
