package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"
	"github.com/vango-dev/wayfinder/internal/config"
	"github.com/vango-dev/wayfinder/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type rootOptions struct {
	configPath string
	logLevel   string
	logger     *slog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.Print(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "wayfinder",
		Short: "Inspect and exercise wayfinder route tables",
		Long: `wayfinder ranks, matches and resolves routes from a wayfinder.json
route table, simulates navigation scripts against an in-memory history,
and serves the table over HTTP for inspection.

--config accepts a file path or an s3://bucket/key URI. Without it,
./wayfinder.json is used when present.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(opts.logLevel, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			opts.logger = logger
			slog.SetDefault(logger)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file path or s3://bucket/key")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(
		matchCmd(opts),
		resolveCmd(),
		routesCmd(opts),
		simulateCmd(opts),
		serveCmd(opts),
		versionCmd(),
	)
	return rootCmd
}

func newLogger(level string, w io.Writer) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, errors.Newf(errors.CategoryCLI, "invalid --log-level %q", level).
			WithSuggestion("Use debug, info, warn or error")
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

// loadConfig reads the config named by --config.
func (o *rootOptions) loadConfig(ctx context.Context) (*config.Config, error) {
	if bucket, key, ok := config.ParseS3URI(o.configPath); ok {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, errors.New(errors.CodeS3Fetch).
				WithDetail("Could not load AWS configuration").
				Wrap(err)
		}
		return config.LoadS3(ctx, s3.NewFromConfig(awsCfg), bucket, key)
	}
	if o.configPath != "" {
		return config.LoadFile(o.configPath)
	}
	if config.Exists(".") {
		return config.Load(".")
	}
	o.logger.Debug("no config found, using defaults")
	return config.Default(), nil
}

// success prints a success message.
func success(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}
