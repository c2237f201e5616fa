package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docscaffold/internal/config"
	"github.com/dgallion1/docscaffold/internal/doctree"
	"github.com/dgallion1/docscaffold/internal/export"
	"github.com/dgallion1/docscaffold/internal/generator"
	"github.com/dgallion1/docscaffold/internal/loader"
	"github.com/dgallion1/docscaffold/internal/pipeline"
	"github.com/dgallion1/docscaffold/internal/store"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/ulikunitz/xz"
)

// printHost writes invocation side effects to the terminal.
type printHost struct {
	w io.Writer
}

func (h printHost) Notify(message string) { fmt.Fprintln(h.w, message) }
func (h printHost) Terminate()            {}

func applyCmd(logger func(*cobra.Command) *slog.Logger) *cobra.Command {
	var (
		file      string
		in        string
		out       string
		format    string
		db        string
		title     string
		width     float64
		height    float64
		pdftotext bool
	)

	cmd := &cobra.Command{
		Use:   "apply [command]",
		Short: "Run a command against a document and write the result",
		Long: `Run a command against a document.

The document starts empty, or from --in (any loadable outline), or from the
SQLite file named by --db, which is updated in place. The result is written
to --out; the format follows its extension unless --format is given, and a
trailing .xz compresses it. Without --out, Markdown goes to stdout.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger(cmd)
			input, err := readCommand(cmd, args, file)
			if err != nil {
				return err
			}

			cfg := config.Config{Store: config.StoreMemory, Title: title}
			if db != "" {
				cfg.Store, cfg.SQLitePath = config.StoreSQLite, db
			}
			tree, closeStore, err := store.New(cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			if in != "" {
				doc, err := loader.LoadFile(in, loader.WithPDFFallback(pdftotext))
				if err != nil {
					return err
				}
				res, err := loader.Merge(tree, doc)
				if err != nil {
					return fmt.Errorf("merge %s: %w", in, err)
				}
				log.Info("loaded document", "path", in, "pages", res.PagesCreated, "nodes", res.NodesAdded)
			}

			worker := pipeline.NewWorker(tree, log, generator.WithFrameSize(width, height))
			job := pipeline.NewJob(uuid.NewString(), input, printHost{w: cmd.ErrOrStderr()})
			worker.Process(cmd.Context(), job)

			snap := job.Snapshot()
			if snap.Status != pipeline.StatusCompleted {
				return errors.New("command failed")
			}

			doc, err := tree.Snapshot()
			if err != nil {
				return err
			}
			return writeDocument(cmd.OutOrStdout(), doc, out, format)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "read the command from a file (- for stdin)")
	cmd.Flags().StringVar(&in, "in", "", "load this outline into the document first")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the document here (default: Markdown on stdout)")
	cmd.Flags().StringVar(&format, "format", "", "output format: md|html|docx (default: from --out)")
	cmd.Flags().StringVar(&db, "db", "", "use and update this SQLite document")
	cmd.Flags().StringVar(&title, "title", "Untitled", "title for a new document")
	cmd.Flags().Float64Var(&width, "width", generator.DefaultFrameWidth, "frame width")
	cmd.Flags().Float64Var(&height, "height", generator.DefaultFrameHeight, "frame height")
	cmd.Flags().BoolVar(&pdftotext, "pdftotext", true, "fall back to pdftotext for PDFs the Go reader cannot parse")
	return cmd
}

// writeDocument writes doc to path, or to stdout when path is empty.
func writeDocument(stdout io.Writer, doc *doctree.Document, path, format string) (err error) {
	name := strings.TrimSuffix(path, ".xz")
	if format == "" {
		format = filepath.Ext(name)
	}
	f, err := export.ParseFormat(format)
	if err != nil {
		return err
	}
	if path == "" {
		return export.Write(stdout, doc, f)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()

	if name == path {
		return export.Write(file, doc, f)
	}
	zw, err := xz.NewWriter(file)
	if err != nil {
		return fmt.Errorf("open xz: %w", err)
	}
	if err := export.Write(zw, doc, f); err != nil {
		return err
	}
	return zw.Close()
}
