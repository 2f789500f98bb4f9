package main

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/c360studio/ontokn/source"
)

func downloadCmd(opts *globalOptions) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "download [PURL...]",
		Short: "Refresh ontology documents from their PURLs",
		Long: `Download each ontology document and install it when it is newer than the
current copy. Replaced documents are archived under .archive/ with their
version in the file name. Without arguments the configured PURLs are used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, cfg, _, err := opts.setup()
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.Download.Dir
			}
			if dir == "" {
				dir = cfg.Documents.Dir
			}
			purls := cfg.Download.PURLs
			if len(args) > 0 {
				purls = args
			}

			d := source.NewDownloader(dir, cfg.Download.Timeout, cfg.Download.UserAgent, logger)
			updates, updateErr := d.UpdateAll(cmd.Context(), purls)

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("File", "Outcome", "Current", "Downloaded", "Archived")
			for _, u := range updates {
				table.Append(u.File, u.Outcome.String(), u.CurrentVersion, u.NewVersion, u.Archived)
			}
			if err := table.Render(); err != nil {
				return err
			}
			if updateErr != nil {
				return fmt.Errorf("download documents: %w", updateErr)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Directory receiving the documents")
	return cmd
}
