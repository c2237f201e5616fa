package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docscaffold/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

// maxMessageBytes bounds a JSON command message.
const maxMessageBytes = 1 << 20

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxMessageBytes)

	var msg pipeline.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		jsonError(w, "invalid message: "+err.Error(), http.StatusBadRequest)
		return
	}

	job, err := s.orchestrator.Submit(msg, nil)
	switch {
	case errors.Is(err, pipeline.ErrUnsupportedMessage):
		s.log.Debug("ignoring message", "type", msg.Type)
		w.WriteHeader(http.StatusNoContent)
		return
	case err != nil:
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	if r.URL.Query().Get("wait") == "true" {
		snap, err := s.orchestrator.Wait(r.Context(), job)
		if err != nil {
			jsonError(w, "wait: "+err.Error(), http.StatusGatewayTimeout)
			return
		}
		writeJSON(w, http.StatusOK, snap)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":      job.ID,
		"fingerprint": job.Fingerprint,
		"status":      pipeline.StatusQueued,
		"poll_url":    fmt.Sprintf("/api/messages/%s/status", job.ID),
	})
}

func (s *Server) handleMessageStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
