package server

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tcx-health/scanbar/internal/audit"
	"github.com/tcx-health/scanbar/internal/product"
	"github.com/tcx-health/scanbar/internal/scan"
)

// scanPipeline is what the server needs from a pipeline.
type scanPipeline interface {
	Scan(ctx context.Context, data []byte, declaredMIME string, withLookup bool) (*scan.Result, error)
}

// productSearcher is the free-text product search collaborator.
type productSearcher interface {
	Search(ctx context.Context, query string, page, pageSize int) (*product.SearchResult, error)
}

// Server holds the HTTP server state and dependencies.
type Server struct {
	pipeline    scanPipeline
	searcher    productSearcher
	recorder    *audit.Recorder
	history     *audit.Store
	limiter     *Limiter
	corsOrigin  string
	maxUploadMB int64
	debug       bool
}

// Config holds server construction settings. The pipeline is required;
// every collaborator is optional and its routes/features degrade when nil.
type Config struct {
	Pipeline    scanPipeline
	Searcher    productSearcher
	Recorder    *audit.Recorder
	History     *audit.Store
	Limiter     *Limiter
	CORSOrigin  string
	MaxUploadMB int64
	Debug       bool
}

// HealthResponse is the /health payload.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

// ScanResponse is the payload for the two barcode routes.
type ScanResponse struct {
	Success       bool               `json:"success"`
	Barcode       string             `json:"barcode,omitempty"`
	Product       *product.Record    `json:"product"`
	ProductStatus scan.ProductStatus `json:"product_status,omitempty"`
	Message       string             `json:"message,omitempty"`
	Processing    *scan.Processing   `json:"processing,omitempty"`
}

// ErrorResponse is the uniform failure payload: a machine-readable category
// plus a remediation hint. Debug detail appears only in debug mode.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Debug   string `json:"debug,omitempty"`
}

// HistoryResponse is the /scans payload.
type HistoryResponse struct {
	Scans []audit.ScanEvent `json:"scans"`
	Count int               `json:"count"`
}

// NewServer creates a scan server instance.
func NewServer(cfg Config) *Server {
	maxUpload := cfg.MaxUploadMB
	if maxUpload <= 0 {
		maxUpload = 50
	}
	corsOrigin := cfg.CORSOrigin
	if corsOrigin == "" {
		corsOrigin = "*"
	}
	return &Server{
		pipeline:    cfg.Pipeline,
		searcher:    cfg.Searcher,
		recorder:    cfg.Recorder,
		history:     cfg.History,
		limiter:     cfg.Limiter,
		corsOrigin:  corsOrigin,
		maxUploadMB: maxUpload,
		debug:       cfg.Debug,
	}
}

// Close flushes the audit queue.
func (s *Server) Close() error {
	if s.recorder != nil {
		s.recorder.Close()
	}
	return nil
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/barcode/scan", s.corsMiddleware(s.rateLimitMiddleware(s.scanHandler)))
	mux.HandleFunc("/barcode/read", s.corsMiddleware(s.rateLimitMiddleware(s.readHandler)))
	mux.HandleFunc("/products/search", s.corsMiddleware(s.searchHandler))
	mux.HandleFunc("/scans", s.corsMiddleware(s.historyHandler))
	mux.Handle("/metrics", promhttp.Handler())
}

func nowRFC3339() string { return time.Now().UTC().Format(time.RFC3339) }
