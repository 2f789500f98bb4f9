package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/c360studio/ontokn/metadata"
	"github.com/c360studio/ontokn/processor/classifier"
	"github.com/c360studio/ontokn/source"
	"github.com/c360studio/ontokn/triple"
)

func inspectCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [FILE...]",
		Short: "Print the header and node kind counts of ontology documents",
		Long: `Decode ontology documents and print their descriptor (title, version,
root term) and how many statements fall in each subject/object node kind
combination. Without arguments every configured document is inspected.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, cfg, _, err := opts.setup()
			if err != nil {
				return err
			}
			paths := args
			if len(paths) == 0 {
				if paths, err = source.Discover(cfg.Documents.Dir, cfg.Documents.Include, cfg.Documents.Exclude); err != nil {
					return fmt.Errorf("discover documents: %w", err)
				}
			}

			for _, path := range paths {
				doc, err := triple.DecodeFile(path)
				if err != nil {
					logger.Error("Failed to decode document", "path", path, "error", err)
					continue
				}
				if err := printDocument(cmd.OutOrStdout(), doc); err != nil {
					return err
				}
			}
			return nil
		},
	}
	return cmd
}

func printDocument(w io.Writer, doc *triple.Document) error {
	d := metadata.Extract(doc)
	fmt.Fprintf(w, "%s (%s)\n", d.Title, doc.Path)
	fmt.Fprintf(w, "  version: %s\n  root:    %s\n  statements: %d\n", d.Version(), d.Root, len(doc.Triples))

	counts := classifier.Count(doc.Triples)
	keys := make([][2]triple.Kind, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})

	table := tablewriter.NewWriter(w)
	table.Header("Subject", "Object", "Statements")
	for _, k := range keys {
		table.Append(k[0].String(), k[1].String(), fmt.Sprint(counts[k]))
	}
	return table.Render()
}
