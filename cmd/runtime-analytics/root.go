package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	logLevel    string
	storeDriver string
	storeDSN    string
	catalogPath string
	engine      string
}

var rootCmd = &cobra.Command{
	Use:   "runtime-analytics",
	Short: "Ingest scheduler run logs and query their history",
	Long: "runtime-analytics turns batch scheduler export logs into a deduplicated\n" +
		"job run history and answers reports or free-text prompts over it.",
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&rootFlags.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides LOG_LEVEL")
	f.StringVar(&rootFlags.storeDriver, "store-driver", "", "Store driver (sqlite or postgres); overrides STORE_DRIVER")
	f.StringVar(&rootFlags.storeDSN, "store-dsn", "", "Store DSN or SQLite path; overrides STORE_DSN")
	f.StringVar(&rootFlags.catalogPath, "catalog", "", "Prompt catalog YAML; overrides CATALOG_PATH")
	f.StringVar(&rootFlags.engine, "embedding-engine", "", "Embedding engine (hashing, ollama or genai); overrides EMBEDDING_ENGINE")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(promptsCmd)
	rootCmd.AddCommand(reportsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.Version = version
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
