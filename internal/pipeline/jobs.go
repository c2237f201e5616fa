package pipeline

import (
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/dgallion1/docscaffold/internal/command"
	"github.com/zeebo/blake3"
)

// JobStatus represents the state of a command invocation.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusParsing    JobStatus = "parsing"
	StatusGenerating JobStatus = "generating"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Host receives the user-facing side effects of an invocation.
type Host interface {
	Notify(message string)
	Terminate()
}

// Discard is a Host that drops every side effect.
type Discard struct{}

func (Discard) Notify(string) {}
func (Discard) Terminate()    {}

// Outcome reports what generation did to the document.
type Outcome struct {
	PagesCreated   int    `json:"pages_created"`
	PagesReused    int    `json:"pages_reused"`
	FramesCreated  int    `json:"frames_created"`
	ActivePageID   string `json:"active_page_id,omitempty"`
	ActivePageName string `json:"active_page_name,omitempty"`
}

// ErrorInfo is the JSON form of a failed invocation's error.
type ErrorInfo struct {
	Message string            `json:"message"`
	Kind    command.ErrorKind `json:"kind,omitempty"`
	Line    int               `json:"line,omitempty"`
}

// Job tracks the state of a single command invocation.
type Job struct {
	mu sync.Mutex

	ID          string       `json:"job_id"`
	Status      JobStatus    `json:"status"`
	Phase       string       `json:"phase"`
	Mode        command.Mode `json:"mode,omitempty"`
	Fingerprint string       `json:"fingerprint"`

	Outcome       Outcome    `json:"outcome"`
	Error         *ErrorInfo `json:"error,omitempty"`
	Notifications []string   `json:"notifications"`
	Terminated    bool       `json:"terminated"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	payload string
	host    Host
	done    chan struct{}
	once    sync.Once
}

// NewJob creates a queued job for payload. A nil host discards side effects.
func NewJob(id, payload string, host Host) *Job {
	if host == nil {
		host = Discard{}
	}
	now := time.Now()
	return &Job{
		ID:          id,
		Status:      StatusQueued,
		Phase:       "queued",
		Fingerprint: Fingerprint([]byte(payload)),
		CreatedAt:   now,
		UpdatedAt:   now,
		payload:     payload,
		host:        host,
		done:        make(chan struct{}),
	}
}

// Payload returns the raw command text.
func (j *Job) Payload() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.payload
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
	j.mu.Unlock()
}

// finish releases Wait callers. The orchestrator calls it once all
// bookkeeping for the job is recorded.
func (j *Job) finish() {
	if j.done != nil {
		j.once.Do(func() { close(j.done) })
	}
}

// Done is closed once the orchestrator is finished with the job.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// SetMode records the grammar the command was written in.
func (j *Job) SetMode(m command.Mode) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Mode = m
	j.UpdatedAt = time.Now()
}

// SetOutcome records generation counters.
func (j *Job) SetOutcome(o Outcome) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Outcome = o
	j.UpdatedAt = time.Now()
}

// SetError records why the invocation failed.
func (j *Job) SetError(err error) {
	info := &ErrorInfo{Message: err.Error()}
	var pe *command.ParseError
	if errors.As(err, &pe) {
		info.Kind = pe.Kind
		info.Line = pe.Line
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Error = info
	j.UpdatedAt = time.Now()
}

// Notify records a user notification and forwards it to the host.
func (j *Job) Notify(message string) {
	j.mu.Lock()
	j.Notifications = append(j.Notifications, message)
	j.UpdatedAt = time.Now()
	host := j.host
	j.mu.Unlock()
	host.Notify(message)
}

// Terminate records session termination and forwards it to the host.
func (j *Job) Terminate() {
	j.mu.Lock()
	j.Terminated = true
	j.UpdatedAt = time.Now()
	host := j.host
	j.mu.Unlock()
	host.Terminate()
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID            string       `json:"job_id"`
	Status        JobStatus    `json:"status"`
	Phase         string       `json:"phase"`
	Mode          command.Mode `json:"mode,omitempty"`
	Fingerprint   string       `json:"fingerprint"`
	Outcome       Outcome      `json:"outcome"`
	Error         *ErrorInfo   `json:"error,omitempty"`
	Notifications []string     `json:"notifications"`
	Terminated    bool         `json:"terminated"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	notes := make([]string, len(j.Notifications))
	copy(notes, j.Notifications)
	var errInfo *ErrorInfo
	if j.Error != nil {
		e := *j.Error
		errInfo = &e
	}
	return JobSnapshot{
		ID:            j.ID,
		Status:        j.Status,
		Phase:         j.Phase,
		Mode:          j.Mode,
		Fingerprint:   j.Fingerprint,
		Outcome:       j.Outcome,
		Error:         errInfo,
		Notifications: notes,
		Terminated:    j.Terminated,
	}
}

func (j *Job) updatedAt() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.UpdatedAt
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.updatedAt()) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// Fingerprint returns the hex BLAKE3 digest of a command payload.
func Fingerprint(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
