package api

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/dgallion1/docscaffold/internal/doctree"
	"github.com/dgallion1/docscaffold/internal/export"
	"github.com/dgallion1/docscaffold/internal/loader"
)

type pageView struct {
	*doctree.Page
	Active bool `json:"active"`
}

// handleListPages returns every page with its children, in tree order.
func (s *Server) handleListPages(w http.ResponseWriter, r *http.Request) {
	doc, err := s.snapshot()
	if err != nil {
		jsonError(w, "failed to read document: "+err.Error(), http.StatusInternalServerError)
		return
	}

	pages := make([]pageView, 0, len(doc.Pages))
	for _, p := range doc.Pages {
		pages = append(pages, pageView{Page: p, Active: p.ID == doc.ActivePageID})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"title":          doc.Title,
		"active_page_id": doc.ActivePageID,
		"pages":          pages,
	})
}

// handleExportDocument renders the document as md, html or docx.
func (s *Server) handleExportDocument(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	doc, err := s.snapshot()
	if err != nil {
		jsonError(w, "failed to read document: "+err.Error(), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, doc, format); err != nil {
		s.log.Error("export failed", "format", format, "error", err)
		jsonError(w, "export failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	filename := sanitizeFilename(doc.Title) + "." + string(format)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Write(buf.Bytes())
}

// handleImportDocument loads an uploaded outline and merges it into the tree.
func (s *Server) handleImportDocument(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !loader.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}
	ldr, err := loader.ForFile(filename, loader.WithPDFFallback(s.cfg.PDFFallbackPdftotext))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	doc, err := ldr.Load(bytes.NewReader(data), filename)
	if err != nil {
		jsonError(w, "failed to load "+filename+": "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	var res loader.MergeResult
	err = s.orchestrator.Exclusive(func(tree doctree.Tree) error {
		var err error
		res, err = loader.Merge(tree, doc)
		return err
	})
	if err != nil {
		s.log.Error("import failed", "filename", filename, "nodes_added", res.NodesAdded, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":  "import failed: " + err.Error(),
			"result": res,
		})
		return
	}

	s.log.Info("document imported",
		"filename", filename,
		"pages_created", res.PagesCreated,
		"pages_reused", res.PagesReused,
		"nodes_added", res.NodesAdded,
	)
	writeJSON(w, http.StatusOK, map[string]any{
		"filename": filename,
		"result":   res,
	})
}
