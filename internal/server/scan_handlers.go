package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tcx-health/scanbar/internal/audit"
	"github.com/tcx-health/scanbar/internal/decode"
	"github.com/tcx-health/scanbar/internal/imgproc"
	"github.com/tcx-health/scanbar/internal/scan"
)

// scanHandler decodes a barcode from an uploaded image and resolves the
// product. POST /barcode/scan, multipart field "image".
func (s *Server) scanHandler(w http.ResponseWriter, r *http.Request) {
	s.handleScan(w, r, true)
}

// readHandler decodes a barcode only, skipping product resolution.
// POST /barcode/read, multipart field "image".
func (s *Server) readHandler(w http.ResponseWriter, r *http.Request) {
	s.handleScan(w, r, false)
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request, withLookup bool) {
	routeLabel := "read"
	if withLookup {
		routeLabel = "scan"
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data, mimeType, ok := s.parseImageUpload(w, r)
	if !ok {
		scanRequestsTotal.WithLabelValues(routeLabel, "error").Inc()
		return // error already written
	}

	start := time.Now()
	result, err := s.pipeline.Scan(r.Context(), data, mimeType, withLookup)
	duration := time.Since(start)

	if err != nil {
		scanRequestsTotal.WithLabelValues(routeLabel, "error").Inc()
		s.writeScanError(w, err)
		return
	}

	scanRequestsTotal.WithLabelValues(routeLabel, "success").Inc()
	scanDuration.WithLabelValues(routeLabel).Observe(duration.Seconds())
	productLookups.WithLabelValues(string(result.ProductStatus)).Inc()

	s.notifyAudit(r, result)

	resp := ScanResponse{
		Success:       true,
		Barcode:       result.Barcode,
		Product:       result.Product,
		ProductStatus: result.ProductStatus,
		Processing:    &result.Processing,
	}
	if withLookup && result.ProductStatus == scan.ProductNotFound {
		resp.Message = "barcode decoded, but no product record was found"
	}
	if withLookup && result.ProductStatus == scan.ProductUnavailable {
		resp.Message = "barcode decoded; the product database is temporarily unreachable, try again later"
	}
	writeJSON(w, http.StatusOK, resp)
}

// parseImageUpload extracts the uploaded image bytes from a multipart form.
// The upload cap applies before any pipeline work starts.
func (s *Server) parseImageUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	maxBytes := s.maxUploadMB * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		if isBodyTooLarge(err) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "file_too_large",
				"the image exceeds the upload limit", err)
		} else {
			s.writeError(w, http.StatusBadRequest, "invalid_request",
				"could not parse the multipart form; send the image in a field named \"image\"", err)
		}
		return nil, "", false
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "missing_file",
			"no image file found in the request; send it in a field named \"image\"", err)
		return nil, "", false
	}
	defer func() { _ = file.Close() }()

	if header.Size > maxBytes {
		s.writeError(w, http.StatusRequestEntityTooLarge, "file_too_large",
			"the image exceeds the upload limit", nil)
		return nil, "", false
	}
	uploadSizeBytes.Observe(float64(header.Size))

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "read_failed",
			"failed to read the uploaded file", err)
		return nil, "", false
	}
	if len(data) == 0 {
		s.writeError(w, http.StatusBadRequest, "empty_file",
			"the uploaded file is empty; choose a valid image file", nil)
		return nil, "", false
	}

	return data, header.Header.Get("Content-Type"), true
}

// writeScanError maps pipeline failures onto the error taxonomy. Unusable
// input is the client's problem; anything else is ours.
func (s *Server) writeScanError(w http.ResponseWriter, err error) {
	var invalid *imgproc.InvalidImageError
	switch {
	case errors.As(err, &invalid):
		s.writeError(w, http.StatusBadRequest, "invalid_image_"+string(invalid.Category), invalid.Hint, err)
	case errors.Is(err, decode.ErrNoBarcodeFound):
		s.writeError(w, http.StatusBadRequest, "no_barcode_found",
			"no barcode could be read; use a sharper photo with good lighting", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// Client went away or the request deadline passed.
		s.writeError(w, http.StatusRequestTimeout, "request_cancelled", "the request was cancelled", err)
	default:
		s.writeError(w, http.StatusInternalServerError, "scan_failed",
			"an unexpected error occurred while scanning", err)
	}
}

// notifyAudit records the scan outcome, fire-and-forget.
func (s *Server) notifyAudit(r *http.Request, result *scan.Result) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(audit.ScanEvent{
		UserID:       r.Header.Get("X-User-ID"),
		Barcode:      result.Barcode,
		ProductFound: result.ProductStatus == scan.ProductFound,
		Status:       audit.StatusCompleted,
		ClientIP:     getClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "request body too large")
}
