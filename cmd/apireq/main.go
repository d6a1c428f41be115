package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/apireq/internal/app"
	"github.com/samvad-hq/apireq/internal/config"
	"github.com/samvad-hq/apireq/internal/logger"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

var (
	flagInclude       bool
	flagQuery         string
	flagNoConditional bool
	flagNoPublish     bool
)

var rootCmd = &cobra.Command{
	Use:   "apireq <file>",
	Short: "Execute an HTTP request described in a YAML or JSON file",
	Long: `apireq executes one HTTP request described in a YAML or JSON file and prints
the normalized outcome.

Validators (ETag, Last-Modified) from earlier GET/HEAD responses are sent back
as conditional headers; a 304 is reported as "not modified". Outcomes are
published to the sinks listed in APIREQ_PUBLISHERS_FILE when it is set.

Examples:
  apireq get-user.yaml                     # Execute and print the body
  apireq get-user.yaml -i                  # Include response headers
  apireq list-issues.yaml -q '[].title'    # Filter a JSON body with JMESPath
  apireq get-user.yaml --no-conditional    # Ignore stored validators`,
	Version:       version,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, args[0])
	},
}

func init() {
	rootCmd.Flags().BoolVarP(&flagInclude, "include", "i", false, "Include response headers in the output")
	rootCmd.Flags().StringVarP(&flagQuery, "query", "q", "", "JMESPath expression applied to JSON bodies")
	rootCmd.Flags().BoolVar(&flagNoConditional, "no-conditional", false, "Do not send stored validators")
	rootCmd.Flags().BoolVar(&flagNoPublish, "no-publish", false, "Do not publish the outcome event")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "apireq: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, file string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.DebugObj("apireq starting", "config", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner, err := app.NewRunner(ctx, cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize runner", "error", err)
		return err
	}
	defer runner.Close()

	return runner.Run(ctx, app.RunOptions{
		File:           file,
		Out:            cmd.OutOrStdout(),
		IncludeHeaders: flagInclude,
		Query:          flagQuery,
		NoConditional:  flagNoConditional,
		NoPublish:      flagNoPublish,
	})
}
