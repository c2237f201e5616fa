package main

import (
	"os"

	"github.com/dgallion1/docscaffold/internal/store"
	"github.com/spf13/cobra"
)

func exportCmd() *cobra.Command {
	var (
		db     string
		out    string
		format string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a stored SQLite document as Markdown, HTML or DOCX",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Open would create an empty database for a mistyped path.
			if _, err := os.Stat(db); err != nil {
				return err
			}
			s, err := store.Open(db, "")
			if err != nil {
				return err
			}
			defer s.Close()

			doc, err := s.Snapshot()
			if err != nil {
				return err
			}
			return writeDocument(cmd.OutOrStdout(), doc, out, format)
		},
	}
	cmd.Flags().StringVar(&db, "db", "", "SQLite document to export")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the document here (default: stdout)")
	cmd.Flags().StringVar(&format, "format", "", "output format: md|html|docx (default: from --out)")
	cmd.MarkFlagRequired("db")
	return cmd
}
