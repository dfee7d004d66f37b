package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ssargent/rawbin/pkg/catalog"
	"github.com/ssargent/rawbin/pkg/convert"
	"github.com/ssargent/rawbin/pkg/fileparts"
)

const (
	defaultListLimit = 50
	maxListLimit     = 1000
	uploadPrefix     = "upload:"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordHealthCheck(true)
	sendSuccess(w, map[string]interface{}{
		"status":  "healthy",
		"catalog": s.catalog != nil,
	})
}

// handleConvert converts the CSV export in the request body. The artifact is
// streamed back unless the client accepts only JSON, in which case a summary
// is returned instead. ?name= sets the artifact file name.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	name := uploadName(r.URL.Query().Get("name"))

	dir, err := os.MkdirTemp("", "rawbin-upload-*")
	if err != nil {
		sendError(w, fmt.Sprintf("Failed to create work directory: %v", err), http.StatusInternalServerError)
		return
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, name+".csv")
	out := filepath.Join(dir, name+".bin")

	if err := s.saveUpload(w, r, in); err != nil {
		sendUploadError(w, err)
		return
	}

	outcome := s.converter.Convert(r.Context(), in, out)
	outcome.Input = uploadPrefix + name + ".csv"
	outcome.Output = ""
	s.converter.Notify(outcome)

	if outcome.Err != nil {
		sendError(w, conversionMessage(outcome.Err), conversionStatus(outcome.Err))
		return
	}
	res := outcome.Result

	if r.Header.Get("Accept") == "application/json" {
		sendSuccess(w, conversionSummary(name+".bin", res))
		return
	}

	f, err := os.Open(out)
	if err != nil {
		sendError(w, fmt.Sprintf("Failed to open artifact: %v", err), http.StatusInternalServerError)
		return
	}
	defer f.Close()

	h := w.Header()
	h.Set("Content-Type", "application/octet-stream")
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".bin"))
	h.Set("X-Rawbin-Records", strconv.FormatUint(res.Reconcile.Final, 10))
	h.Set("X-Rawbin-Duration", strconv.FormatUint(uint64(res.Header.DurationSeconds), 10))
	h.Set("X-Rawbin-Sample-Rate", strconv.FormatUint(uint64(res.Header.SampleRate), 10))
	if res.Warning != nil {
		h.Set("X-Rawbin-Warning", convert.BodyTruncated.String())
	}
	http.ServeContent(w, r, name+".bin", time.Time{}, f)
}

// handleInspect decodes the binary artifact in the request body and returns
// its header. ?samples=N also returns the first N samples.
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	samples := 0
	if v := r.URL.Query().Get("samples"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			sendError(w, "samples must be a non-negative integer", http.StatusBadRequest)
			return
		}
		samples = n
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes))
	if err != nil {
		sendUploadError(w, err)
		return
	}

	artifact, err := s.converter.InspectReader(bytes.NewReader(body), uint64(s.config.MaxUploadBytes))
	if err != nil {
		sendError(w, conversionMessage(err), conversionStatus(err))
		return
	}

	sendSuccess(w, inspectResponse(artifact, samples))
}

// handleListConversions lists catalog entries, newest first. ?limit= caps the count.
func (s *Server) handleListConversions(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		sendError(w, "Conversion catalog is disabled", http.StatusServiceUnavailable)
		return
	}

	limit := defaultListLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	entries, err := s.catalog.List(limit)
	if err != nil {
		sendError(w, fmt.Sprintf("Failed to list conversions: %v", err), http.StatusInternalServerError)
		return
	}

	sendSuccess(w, map[string]interface{}{"conversions": entries})
}

func (s *Server) handleGetConversion(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		sendError(w, "Conversion catalog is disabled", http.StatusServiceUnavailable)
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		sendError(w, "id is required", http.StatusBadRequest)
		return
	}

	entry, err := s.catalog.Get(id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			sendError(w, "Conversion not found", http.StatusNotFound)
			return
		}
		sendError(w, fmt.Sprintf("Failed to get conversion: %v", err), http.StatusInternalServerError)
		return
	}

	sendSuccess(w, entry)
}

// saveUpload copies the bounded request body to path.
func (s *Server) saveUpload(w http.ResponseWriter, r *http.Request, path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// uploadName reduces a client supplied name to a safe base name.
func uploadName(raw string) string {
	p := fileparts.Split(filepath.Base(filepath.FromSlash(raw)))
	if p.Base == "" || fileparts.Hidden(p.Base) || p.Base == ".." {
		return "upload"
	}
	return p.Base
}

func sendUploadError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		sendError(w, fmt.Sprintf("Request body exceeds %d bytes", maxErr.Limit), http.StatusRequestEntityTooLarge)
		return
	}
	sendError(w, fmt.Sprintf("Failed to read request body: %v", err), http.StatusBadRequest)
}

// conversionMessage describes err without the server side paths it may carry.
func conversionMessage(err error) string {
	var cerr *convert.Error
	if errors.As(err, &cerr) {
		return fmt.Sprintf("%s: %v", cerr.Kind, cerr.Err)
	}
	return err.Error()
}

func conversionStatus(err error) int {
	switch convert.KindOf(err) {
	case convert.HeaderParseError, convert.BinaryCorrupt:
		return http.StatusUnprocessableEntity
	case convert.InputUnreadable:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
