package pipeline

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/docscaffold/internal/config"
	"github.com/dgallion1/docscaffold/internal/doctree"
)

func testConfig() config.Config {
	return config.Config{
		MaxQueueSize: 8,
		JobTTL:       time.Hour,
		FrameWidth:   800,
		FrameHeight:  600,
	}
}

func startOrchestrator(t *testing.T, cfg config.Config, tree doctree.Tree) *Orchestrator {
	t.Helper()
	o := NewOrchestrator(cfg, tree, testLogger())
	o.Start(context.Background())
	t.Cleanup(o.Stop)
	return o
}

func TestOrchestrator_SubmitAndWait(t *testing.T) {
	mem := doctree.NewMemory("doc", doctree.Limits{})
	o := startOrchestrator(t, testConfig(), mem)
	host := &recordingHost{}

	job, err := o.Submit(Message{Type: MessageParseAndGenerate, Payload: "pages: Home\nlayers: 2\nlayerPrefix: Sec"}, host)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	snap, err := o.Wait(ctx, job)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %+v", snap)
	}
	if o.GetJob(job.ID) != job {
		t.Error("expected job to be retrievable by ID")
	}

	pages, _ := mem.Pages()
	if len(pages) != 1 || !reflect.DeepEqual(pages[0].ChildNames(), []string{"Sec 01", "Sec 02"}) {
		t.Fatalf("unexpected tree: %+v", pages)
	}
	if got := pages[0].Children[0].Width; got != 800 {
		t.Errorf("expected 800 wide frames, got %v", got)
	}
	if s := o.Stats().Snapshot(); s.Count != 1 || s.Completed != 1 {
		t.Errorf("unexpected stats: %+v", s)
	}
}

func TestOrchestrator_UnsupportedMessage(t *testing.T) {
	o := NewOrchestrator(testConfig(), doctree.NewMemory("doc", doctree.Limits{}), testLogger())
	job, err := o.Submit(Message{Type: "resize", Payload: "A -> B"}, nil)
	if !errors.Is(err, ErrUnsupportedMessage) || job != nil {
		t.Fatalf("expected ErrUnsupportedMessage, got %v", err)
	}
	if o.QueueDepth() != 0 {
		t.Error("ignored messages must not be queued")
	}
}

func TestOrchestrator_QueueFull(t *testing.T) {
	cfg := testConfig()
	cfg.MaxQueueSize = 1
	// Not started, so nothing drains the queue.
	o := NewOrchestrator(cfg, doctree.NewMemory("doc", doctree.Limits{}), testLogger())
	msg := Message{Type: MessageParseAndGenerate, Payload: "A -> B"}

	if _, err := o.Submit(msg, nil); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := o.Submit(msg, nil); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if o.QueueDepth() != 1 {
		t.Errorf("expected depth 1, got %d", o.QueueDepth())
	}
}

func TestOrchestrator_SubmitAfterStop(t *testing.T) {
	o := NewOrchestrator(testConfig(), doctree.NewMemory("doc", doctree.Limits{}), testLogger())
	o.Start(context.Background())
	o.Stop()
	o.Stop()

	_, err := o.Submit(Message{Type: MessageParseAndGenerate, Payload: "A -> B"}, nil)
	if !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}

func TestOrchestrator_ConcurrentSubmissionsAreSerialized(t *testing.T) {
	mem := doctree.NewMemory("doc", doctree.Limits{})
	cfg := testConfig()
	cfg.MaxQueueSize = 32
	o := startOrchestrator(t, cfg, mem)

	const n = 10
	jobs := make([]*Job, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			payload := fmt.Sprintf("Shared -> a%d, b%d\nP%d -> x, y, z", i, i, i)
			job, err := o.Submit(Message{Type: MessageParseAndGenerate, Payload: payload}, nil)
			if err != nil {
				t.Errorf("submit %d: %v", i, err)
				return
			}
			jobs[i] = job
		}(i)
	}
	wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, job := range jobs {
		if job == nil {
			continue
		}
		if snap, err := o.Wait(ctx, job); err != nil || snap.Status != StatusCompleted {
			t.Fatalf("job %s: %v %+v", job.ID, err, snap)
		}
	}

	doc, err := mem.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Pages) != n+1 {
		t.Fatalf("expected %d pages, got %d", n+1, len(doc.Pages))
	}
	shared := doc.FindPage("Shared")
	if shared == nil || len(shared.Children) != 2*n {
		t.Fatalf("expected Shared to collect %d frames, got %+v", 2*n, shared)
	}
	// Each invocation prepends its own pair intact, so pairs never interleave.
	for i := 0; i < len(shared.Children); i += 2 {
		a, b := shared.Children[i].Name, shared.Children[i+1].Name
		if a[0] != 'a' || b[0] != 'b' || a[1:] != b[1:] {
			t.Errorf("interleaved frames at %d: %q, %q", i, a, b)
		}
	}
	for i := 0; i < n; i++ {
		p := doc.FindPage(fmt.Sprintf("P%d", i))
		if p == nil || !reflect.DeepEqual(p.ChildNames(), []string{"x", "y", "z"}) {
			t.Errorf("page P%d: unexpected children %+v", i, p)
		}
	}
}

func TestOrchestrator_ExclusiveSeesTree(t *testing.T) {
	mem := doctree.NewMemory("doc", doctree.Limits{})
	o := startOrchestrator(t, testConfig(), mem)

	err := o.Exclusive(func(tree doctree.Tree) error {
		p, err := tree.CreatePage()
		if err != nil {
			return err
		}
		p.Name = "Imported"
		return tree.AppendPage(p)
	})
	if err != nil {
		t.Fatalf("exclusive: %v", err)
	}

	job, err := o.Submit(Message{Type: MessageParseAndGenerate, Payload: "Imported -> Hero"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	snap, err := o.Wait(ctx, job)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Outcome.PagesReused != 1 || snap.Outcome.PagesCreated != 0 {
		t.Errorf("expected the imported page to be reused, got %+v", snap.Outcome)
	}
}

func TestOrchestrator_WaitHonorsContext(t *testing.T) {
	o := NewOrchestrator(testConfig(), doctree.NewMemory("doc", doctree.Limits{}), testLogger())
	job, err := o.Submit(Message{Type: MessageParseAndGenerate, Payload: "A -> B"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	snap, err := o.Wait(ctx, job)
	if !errors.Is(err, context.Canceled) || snap.Status != StatusQueued {
		t.Errorf("expected cancelled wait on a queued job, got %v %+v", err, snap)
	}
}
