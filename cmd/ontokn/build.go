package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/c360studio/ontokn/config"
	"github.com/c360studio/ontokn/graph"
	"github.com/c360studio/ontokn/pipeline"
	"github.com/c360studio/ontokn/source"
	"github.com/c360studio/ontokn/storage"
)

// buildOptions are the target overrides of build and watch.
type buildOptions struct {
	dir      string
	database string
	graph    string
	dumpDir  string
	dryRun   bool
}

func (b *buildOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&b.dir, "dir", "", "Directory holding the ontology documents")
	cmd.Flags().StringVar(&b.database, "database", "", "Target database name")
	cmd.Flags().StringVar(&b.graph, "graph", "", "Target graph name")
	cmd.Flags().StringVar(&b.dumpDir, "dump-dir", "", "Write the cleaned statements of each document here")
	cmd.Flags().BoolVar(&b.dryRun, "dry-run", false, "Build into an in-memory store")
}

// apply copies positional arguments and flags over the loaded config.
// Positional arguments are DIR, DATABASE and GRAPH; flags win over them.
func (b *buildOptions) apply(cfg *config.Config, args []string) {
	positional := []*string{&cfg.Documents.Dir, &cfg.Graph.Database, &cfg.Graph.Name}
	for i, arg := range args {
		*positional[i] = arg
	}
	if b.dir != "" {
		cfg.Documents.Dir = b.dir
	}
	if b.database != "" {
		cfg.Graph.Database = b.database
	}
	if b.graph != "" {
		cfg.Graph.Name = b.graph
	}
	if b.dumpDir != "" {
		cfg.Output.DumpDir = b.dumpDir
	}
	if b.dryRun {
		cfg.Graph.Backend = config.BackendMemory
	}
}

func buildCmd(opts *globalOptions) *cobra.Command {
	b := &buildOptions{}
	cmd := &cobra.Command{
		Use:   "build [DIR] [DATABASE] [GRAPH]",
		Short: "Rebuild the ontology graph from scratch",
		Args:  cobra.MaximumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, cfg, secrets, err := opts.setup()
			if err != nil {
				return err
			}
			b.apply(cfg, args)

			env, err := openEnv(cmd.Context(), cfg, secrets, logger)
			if err != nil {
				return err
			}
			defer env.close(cmd.Context())

			sum, err := env.build(cmd.Context())
			if err != nil {
				return err
			}
			return printSummary(cmd.OutOrStdout(), sum)
		},
	}
	b.register(cmd)
	return cmd
}

func watchCmd(opts *globalOptions) *cobra.Command {
	b := &buildOptions{}
	cmd := &cobra.Command{
		Use:   "watch [DIR] [DATABASE] [GRAPH]",
		Short: "Rebuild the ontology graph whenever the documents change",
		Args:  cobra.MaximumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, cfg, secrets, err := opts.setup()
			if err != nil {
				return err
			}
			b.apply(cfg, args)
			ctx := cmd.Context()

			env, err := openEnv(ctx, cfg, secrets, logger)
			if err != nil {
				return err
			}
			defer env.close(ctx)

			w, err := source.NewWatcher(cfg.Documents.Dir, cfg.Documents.Include, cfg.Documents.Exclude, cfg.Watch.Debounce, logger)
			if err != nil {
				return fmt.Errorf("create watcher: %w", err)
			}
			if err := w.Start(ctx); err != nil {
				return fmt.Errorf("start watcher: %w", err)
			}
			defer w.Stop()

			rebuild := func(ctx context.Context) error {
				sum, err := env.build(ctx)
				if err != nil {
					return err
				}
				return printSummary(cmd.OutOrStdout(), sum)
			}
			if err := rebuild(ctx); err != nil {
				logger.Error("Initial build failed", "error", err)
			}

			logger.Info("Watching ontology documents", "dir", cfg.Documents.Dir, "debounce", cfg.Watch.Debounce)
			err = pipeline.Watch(ctx, w.Batches(), rebuild, logger)
			if ctx.Err() != nil {
				return nil
			}
			return err
		},
	}
	b.register(cmd)
	return cmd
}

// buildEnv holds the connections shared by the builds of one process.
type buildEnv struct {
	cfg       *config.Config
	client    storage.Client
	publisher *graph.Publisher
	closers   []func(context.Context)
	logger    *slog.Logger
}

func openEnv(ctx context.Context, cfg *config.Config, secrets *config.Secrets, logger *slog.Logger) (*buildEnv, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	client, err := pipeline.OpenClient(ctx, cfg, secrets, logger)
	if err != nil {
		return nil, err
	}
	env := &buildEnv{cfg: cfg, client: client, logger: logger}
	env.closers = append(env.closers, func(ctx context.Context) {
		if err := client.Close(ctx); err != nil {
			logger.Warn("Failed to close graph store", "error", err)
		}
	})

	if cfg.NATS.URL == "" {
		return env, nil
	}
	nc, err := graph.Connect(ctx, cfg.NATS.URL, cfg.NATS.Subject, logger)
	if err != nil {
		// Catalog publication is optional
		logger.Warn("Catalog publication disabled", "error", err)
		return env, nil
	}
	env.publisher = graph.NewPublisher(nc, cfg.NATS.Subject, logger)
	env.closers = append(env.closers, func(ctx context.Context) {
		if err := nc.Close(ctx); err != nil {
			logger.Warn("Failed to close NATS connection", "error", err)
		}
	})
	return env, nil
}

func (e *buildEnv) build(ctx context.Context) (*pipeline.Summary, error) {
	var opts []pipeline.Option
	if e.publisher != nil {
		opts = append(opts, pipeline.WithPublisher(e.publisher))
	}
	return pipeline.New(e.cfg, e.client, e.logger, opts...).Run(ctx)
}

func (e *buildEnv) close(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i](ctx)
	}
}

func printSummary(w io.Writer, sum *pipeline.Summary) error {
	table := tablewriter.NewWriter(w)
	table.Header("Document", "Statements", "Axioms", "Restrictions", "Unmatched", "Status")
	for _, d := range sum.Documents {
		status := "assembled"
		switch {
		case d.Err != nil:
			status = "failed: " + d.Err.Error()
		case !d.Assembled:
			status = "dictionary only"
		}
		table.Append(d.Source,
			fmt.Sprint(d.Statements),
			fmt.Sprint(d.Flatten.Axioms),
			fmt.Sprint(d.Flatten.Restrictions),
			fmt.Sprint(len(d.Flatten.Unmatched)),
			status)
	}
	if err := table.Render(); err != nil {
		return err
	}

	load := tablewriter.NewWriter(w)
	load.Header("Run", "Vertices", "Edges", "Deprecated", "Dangling", "Failed", "Duration")
	load.Append(sum.RunID,
		fmt.Sprintf("%d (%d inserted)", sum.Vertices, sum.Load.VerticesInserted),
		fmt.Sprintf("%d (%d inserted)", sum.Edges, sum.Load.EdgesInserted),
		fmt.Sprint(len(sum.Load.Deprecated)),
		fmt.Sprint(sum.Load.EdgesDangling),
		fmt.Sprint(sum.Load.VerticesFailed+sum.Load.EdgesFailed),
		sum.Duration.Round(time.Millisecond).String())
	return load.Render()
}
