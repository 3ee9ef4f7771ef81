package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/valdix-dev/rosterd/internal/logging"
	"github.com/valdix-dev/rosterd/internal/roster"
)

// ImportResponse is the success body for POST /import.
type ImportResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
	BatchID string `json:"batch_id"`
}

// handleImport accepts a multipart XLSX upload and imports it as one
// all-or-nothing batch. The uploaded content is staged to a temporary file
// owned by the importer, which removes it on every outcome.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Import.MaxUploadSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		s.respondError(w, r, roster.ErrNoFile, http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, roster.ErrNoFile, http.StatusBadRequest)
		return
	}
	defer file.Close()

	batchID := uuid.New().String()
	path, err := s.stageUpload(file, batchID)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	logger := logging.WithFields(r.Context(),
		"batch_id", batchID,
		"file", header.Filename,
	)
	logger.Info("import started", "size", header.Size)

	// A stalled import otherwise ties up its connection until the store
	// gives up, so bound it by the configured timeout.
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Import.Timeout)
	defer cancel()

	count, err := s.service.ImportFile(ctx, path)
	if err != nil {
		logger.Warn("import rejected", "error", err)

		// Empty input is a caller problem; anything else, including an
		// ImportError after rollback, is a server-side failure.
		if errors.Is(err, roster.ErrEmptyBatch) {
			s.respondError(w, r, err, http.StatusBadRequest)
			return
		}
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	logger.Info("import finished", "rows", count)
	writeJSON(w, http.StatusCreated, ImportResponse{
		Message: fmt.Sprintf("imported %d records", count),
		Count:   count,
		BatchID: batchID,
	})
}

// stageUpload copies the uploaded content to a batch-named temporary file.
// Ownership of the file passes to the importer once staging succeeds.
func (s *Server) stageUpload(file io.Reader, batchID string) (string, error) {
	dir := s.cfg.Import.TempDir
	if dir == "" {
		dir = os.TempDir()
	}

	path := filepath.Join(dir, "roster-import-"+batchID+".xlsx")
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("stage upload: %w", err)
	}

	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		os.Remove(path)
		return "", fmt.Errorf("stage upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("stage upload: %w", err)
	}

	return path, nil
}

// handleListRecords returns the full ordered roster.
func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.service.List(r.Context())
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(records))
}

// handleIdentityLookup searches by identity number with an optional
// complement. Zero matches is a 404, not an error body-less failure.
func (s *Server) handleIdentityLookup(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		respondErrorJSON(w, roster.UserMessage{
			Message: "The id parameter is required",
			Action:  "Supply an identity number",
			Code:    "QRY002",
		}, http.StatusBadRequest)
		return
	}

	complement := r.URL.Query().Get("complement")
	records, err := s.service.FindByIdentity(r.Context(), id, complement)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	if len(records) == 0 {
		respondErrorJSON(w, roster.UserMessage{
			Message: "No records match this identity",
			Action:  "Check the identity number and complement",
			Code:    "QRY003",
		}, http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, records)
}

// handleNameSearch searches by surname, given names, and unit fragments.
func (s *Server) handleNameSearch(w http.ResponseWriter, r *http.Request) {
	q := roster.NameQuery{
		Paternal: r.URL.Query().Get("paternal"),
		Given:    r.URL.Query().Get("given"),
		Unit:     r.URL.Query().Get("unit"),
	}

	records, err := s.service.SearchByName(r.Context(), q)
	if err != nil {
		if errors.Is(err, roster.ErrMissingCriteria) {
			s.respondError(w, r, err, http.StatusBadRequest)
			return
		}
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, nonNil(records))
}

// handleHealth reports database connectivity.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Ping(r.Context()); err != nil {
		s.respondError(w, r, err, http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// nonNil keeps empty result sets encoding as [] instead of null.
func nonNil(records []roster.Record) []roster.Record {
	if records == nil {
		return []roster.Record{}
	}
	return records
}
