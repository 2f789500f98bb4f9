// Package main provides the ontokn binary entry point.
// Ontokn turns OBO ontology documents into a property graph of terms and
// relations in a graph store.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/c360studio/ontokn/config"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "ontokn"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// globalOptions are the flags shared by every subcommand.
type globalOptions struct {
	configPath string
	logLevel   string
	envFile    string
}

func rootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Build a property graph from OBO ontologies",
		Long: `Ontokn reads OBO ontology documents (RDF/XML, Turtle, N-Triples),
flattens OWL axioms and restrictions into plain statements, and loads the
resulting terms and relations into a graph store.

The target database and graph are rebuilt from scratch on every build.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "Dotenv file with graph store credentials")

	cmd.AddCommand(
		buildCmd(opts),
		watchCmd(opts),
		downloadCmd(opts),
		inspectCmd(opts),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
			},
		},
	)
	return cmd
}

func newLogger(level string) *slog.Logger {
	l := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
	slog.SetDefault(logger)
	return logger
}

// setup builds the logger and loads the layered configuration and the
// environment secrets.
func (o *globalOptions) setup() (*slog.Logger, *config.Config, *config.Secrets, error) {
	logger := newLogger(o.logLevel)

	cfg, err := config.NewLoader(logger).Load(o.configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	secrets, err := config.LoadSecrets(o.envFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load secrets: %w", err)
	}
	secrets.Apply(cfg)
	return logger, cfg, secrets, nil
}
