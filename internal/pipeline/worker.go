package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dgallion1/docscaffold/internal/command"
	"github.com/dgallion1/docscaffold/internal/doctree"
	"github.com/dgallion1/docscaffold/internal/generator"
)

// MessageParseAndGenerate is the only message type that triggers work.
const MessageParseAndGenerate = "parse-and-generate"

// User-facing notification texts.
const (
	SuccessMessage      = "Structure created successfully"
	UnknownErrorMessage = "An unknown error occurred"
)

// Message is an inbound request from the UI shell.
type Message struct {
	Type    string `json:"type"`
	Payload string `json:"payload"`
}

// Actionable reports whether the message should be processed at all.
func (m Message) Actionable() bool {
	return m.Type == MessageParseAndGenerate
}

// Worker runs a single command invocation against the document tree.
type Worker struct {
	tree doctree.Tree
	gen  *generator.Generator
	log  *slog.Logger
}

func NewWorker(tree doctree.Tree, log *slog.Logger, opts ...generator.Option) *Worker {
	opts = append([]generator.Option{generator.WithLogger(log)}, opts...)
	return &Worker{
		tree: tree,
		gen:  generator.New(tree, opts...),
		log:  log,
	}
}

// Process parses the job's command and, only if it is valid, generates the
// structure. Parse failures leave the tree untouched; generation failures
// may leave earlier mutations in place.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "fingerprint", shortFingerprint(job.Fingerprint))

	if err := ctx.Err(); err != nil {
		log.Warn("invocation cancelled before start", "error", err)
		job.SetError(err)
		job.SetStatus(StatusFailed, "queued")
		return
	}

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	cfg, err := command.Parse(job.Payload())
	if err != nil {
		log.Info("command rejected", "error", err)
		w.fail(job, "parsing", err)
		return
	}
	job.SetMode(cfg.Mode())

	// Phase 2: Generate
	job.SetStatus(StatusGenerating, "generating")
	res, err := w.gen.Generate(cfg)
	job.SetOutcome(outcomeOf(res))
	if err != nil {
		log.Error("generation failed", "mode", cfg.Mode(), "frames_created", res.FramesCreated, "error", err)
		w.fail(job, "generating", err)
		return
	}

	if res.Active != nil {
		if err := w.tree.SetActivePage(res.Active); err != nil {
			log.Error("activate page failed", "page", res.Active.Name, "error", err)
			w.fail(job, "activating", err)
			return
		}
	}

	log.Info("structure generated",
		"mode", cfg.Mode(),
		"pages_created", res.PagesCreated,
		"pages_reused", res.PagesReused,
		"frames_created", res.FramesCreated,
	)
	job.Notify(SuccessMessage)
	job.Terminate()
	job.SetStatus(StatusCompleted, "done")
}

func (w *Worker) fail(job *Job, phase string, err error) {
	job.SetError(err)
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		msg = UnknownErrorMessage
	}
	job.Notify(msg)
	job.SetStatus(StatusFailed, phase)
}

func outcomeOf(res generator.Result) Outcome {
	o := Outcome{
		PagesCreated:  res.PagesCreated,
		PagesReused:   res.PagesReused,
		FramesCreated: res.FramesCreated,
	}
	if res.Active != nil {
		o.ActivePageID = res.Active.ID
		o.ActivePageName = res.Active.Name
	}
	return o
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
