// Package scan wires the barcode pipeline: image decode, normalization,
// luminance projection, symbol decoding and the optional product lookup.
// One pipeline instance serves any number of concurrent requests; it holds
// no per-request state.
package scan

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/tcx-health/scanbar/internal/decode"
	"github.com/tcx-health/scanbar/internal/imgproc"
	"github.com/tcx-health/scanbar/internal/product"
)

// ProductStatus reports the outcome of the optional product lookup.
type ProductStatus string

const (
	// ProductFound: the collaborator returned a record.
	ProductFound ProductStatus = "found"
	// ProductNotFound: the collaborator was reached but holds no record.
	// Still a successful scan.
	ProductNotFound ProductStatus = "not_found"
	// ProductUnavailable: the collaborator could not be reached or timed
	// out. The decoded barcode is still returned.
	ProductUnavailable ProductStatus = "unavailable"
	// ProductSkipped: no lookup was requested or configured.
	ProductSkipped ProductStatus = "skipped"
)

// Processing carries per-stage timings for one scan.
type Processing struct {
	DecodeNs  int64 `json:"decode_ns"`
	ResolveNs int64 `json:"resolve_ns,omitempty"`
	TotalNs   int64 `json:"total_ns"`
}

// Result is the canonical output of one scan.
type Result struct {
	Barcode       string           `json:"barcode"`
	Product       *product.Record  `json:"product"`
	ProductStatus ProductStatus    `json:"product_status"`
	Image         imgproc.Metadata `json:"-"`
	Processing    Processing       `json:"processing"`
}

// Config holds pipeline settings.
type Config struct {
	// MaxWidth bounds the raster width after normalization.
	MaxWidth int
	// Hints configures the symbol decoder.
	Hints decode.Hints
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		MaxWidth: imgproc.DefaultMaxWidth,
		Hints:    decode.DefaultHints(),
	}
}

// Builder constructs a Pipeline with fluent configuration.
type Builder struct {
	cfg      Config
	decoder  *decode.Decoder
	resolver product.Resolver
}

// NewBuilder creates a pipeline builder with defaults.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// WithMaxWidth overrides the normalization width bound.
func (b *Builder) WithMaxWidth(w int) *Builder {
	if w > 0 {
		b.cfg.MaxWidth = w
	}
	return b
}

// WithTryHarder toggles the decoder's exhaustive-scan flag.
func (b *Builder) WithTryHarder(v bool) *Builder {
	b.cfg.Hints.TryHarder = v
	return b
}

// WithFormats restricts the accepted symbologies.
func (b *Builder) WithFormats(formats []decode.Format) *Builder {
	if len(formats) > 0 {
		b.cfg.Hints.Formats = formats
	}
	return b
}

// WithDecoder overrides the symbol decoder (tests inject a mock reader here).
func (b *Builder) WithDecoder(d *decode.Decoder) *Builder {
	b.decoder = d
	return b
}

// WithResolver attaches the product lookup collaborator. Without one, every
// scan reports ProductSkipped.
func (b *Builder) WithResolver(r product.Resolver) *Builder {
	b.resolver = r
	return b
}

// Build assembles the pipeline.
func (b *Builder) Build() (*Pipeline, error) {
	if len(b.cfg.Hints.Formats) == 0 {
		return nil, errors.New("pipeline requires at least one barcode format")
	}
	dec := b.decoder
	if dec == nil {
		dec = decode.NewDecoder()
	}
	return &Pipeline{
		cfg:      b.cfg,
		decoder:  dec,
		resolver: b.resolver,
	}, nil
}

// Pipeline executes the linear scan flow. Safe for concurrent use.
type Pipeline struct {
	cfg      Config
	decoder  *decode.Decoder
	resolver product.Resolver
}

// Scan runs the pipeline over an uploaded buffer. Load and decode failures
// abort with typed errors; product lookup failures degrade to a nil product
// with ProductUnavailable. withLookup selects whether the resolver runs at
// all.
func (p *Pipeline) Scan(ctx context.Context, data []byte, declaredMIME string, withLookup bool) (*Result, error) {
	start := time.Now()

	img, meta, err := imgproc.Decode(data, declaredMIME)
	if err != nil {
		return nil, err
	}

	normalized := imgproc.Normalize(img, p.cfg.MaxWidth)

	decodeStart := time.Now()
	barcode, err := p.decoder.Decode(ctx, normalized, p.cfg.Hints)
	decodeDur := time.Since(decodeStart)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Barcode:       barcode,
		ProductStatus: ProductSkipped,
		Image:         meta,
	}
	result.Processing.DecodeNs = decodeDur.Nanoseconds()

	if withLookup && p.resolver != nil {
		resolveStart := time.Now()
		result.Product, result.ProductStatus, err = p.resolve(ctx, barcode)
		result.Processing.ResolveNs = time.Since(resolveStart).Nanoseconds()
		if err != nil {
			return nil, err
		}
	}

	result.Processing.TotalNs = time.Since(start).Nanoseconds()
	return result, nil
}

// resolve isolates lookup failures from the scan outcome. Only a cancelled
// request propagates an error; the decoded barcode survives everything else.
func (p *Pipeline) resolve(ctx context.Context, barcode string) (*product.Record, ProductStatus, error) {
	rec, err := p.resolver.Resolve(ctx, barcode)
	switch {
	case err == nil:
		return rec, ProductFound, nil
	case errors.Is(err, product.ErrNotFound):
		return nil, ProductNotFound, nil
	case ctx.Err() != nil:
		return nil, ProductUnavailable, ctx.Err()
	default:
		slog.Warn("product lookup unavailable", "barcode", barcode, "error", err)
		return nil, ProductUnavailable, nil
	}
}
