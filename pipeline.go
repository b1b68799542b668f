package filesmith

import (
	"context"
	"fmt"

	"github.com/filesmith/filesmith/extract"
	"github.com/filesmith/filesmith/fileset"
	"github.com/filesmith/filesmith/materialize"
)

// Pipeline runs the response-materialization stages once per model
// response: extract, decode, materialize. It holds no state between runs
// and is safe for concurrent use.
type Pipeline struct {
	format       extract.Format
	materializer *materialize.Materializer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithFormat sets the payload format the model was instructed to use.
// Defaults to JSON.
func WithFormat(f extract.Format) Option {
	return func(p *Pipeline) { p.format = f }
}

// WithMaterializer replaces the default materializer, e.g. to set a
// custom path policy or worker count.
func WithMaterializer(m *materialize.Materializer) Option {
	return func(p *Pipeline) { p.materializer = m }
}

// NewPipeline creates a Pipeline.
func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{format: extract.FormatJSON}
	for _, opt := range opts {
		opt(p)
	}
	if p.materializer == nil {
		p.materializer = materialize.New()
	}
	return p
}

// Run processes one raw model response against targetRoot. Extraction and
// decoding errors are terminal: they return a typed error and nothing is
// written. Once decoding succeeds, per-file dispositions are carried in
// the report, never as an error. An empty decoded mapping short-circuits
// to an empty, clean report.
func (p *Pipeline) Run(ctx context.Context, raw, targetRoot string) (*materialize.Report, error) {
	payload, err := extract.Extract(raw, p.format)
	if err != nil {
		return nil, fmt.Errorf("extracting payload: %w", err)
	}

	fs, err := fileset.Decode(payload)
	if err != nil {
		return nil, fmt.Errorf("decoding payload: %w", err)
	}
	if fs.Len() == 0 {
		return &materialize.Report{}, nil
	}

	return p.materializer.Materialize(ctx, fs, targetRoot)
}

// Apply is a convenience wrapper running a default Pipeline once.
func Apply(ctx context.Context, raw, targetRoot string, format extract.Format) (*materialize.Report, error) {
	return NewPipeline(WithFormat(format)).Run(ctx, raw, targetRoot)
}
