package mapper

import (
	"context"
	"io"
	"time"

	"building-converter/internal/common/logging"
	"building-converter/internal/common/metrics"
	"building-converter/internal/converter/geometry"
	"building-converter/internal/converter/graph"
	"building-converter/internal/converter/models"
	"building-converter/internal/converter/parser"
)

// ============================================================
// Converter
// ============================================================

// Converter runs the whole pipeline for one document at a time. It keeps no
// per-document state and may be shared between goroutines.
type Converter struct {
	lib     graph.Library
	opts    Options
	metrics *metrics.Metrics
}

// New creates a converter. lib may be nil.
func New(lib graph.Library, opts Options) *Converter {
	if opts.Unit == "" {
		opts.Unit = "m"
	}
	return &Converter{lib: lib, opts: opts}
}

// WithMetrics records conversion outcomes on m.
func (c *Converter) WithMetrics(m *metrics.Metrics) *Converter {
	c.metrics = m
	return c
}

// WithScale returns a copy of the converter with a different scale.
func (c *Converter) WithScale(scale float64) *Converter {
	cp := *c
	cp.opts.Scale = scale
	return &cp
}

// Convert BDL → building model
func (c *Converter) Convert(ctx context.Context, r io.Reader) (*models.Building, error) {
	start := time.Now()
	b, err := c.convert(ctx, r)
	c.metrics.ObserveConversion(Status(err), time.Since(start))
	return b, err
}

func (c *Converter) convert(ctx context.Context, r io.Reader) (*models.Building, error) {
	log := logging.FromContext(ctx)

	commands, err := parser.ReadCommands(r)
	if err != nil {
		return nil, stageError("parse BDL", err)
	}
	c.metrics.AddCommands(len(commands))
	log.Debug("document parsed", "commands", len(commands))

	if err := graph.BuildHierarchy(commands); err != nil {
		return nil, stageError("build hierarchy", err)
	}

	refs, err := graph.NewResolver(c.lib).Resolve(ctx, commands)
	if err != nil {
		return nil, stageError("resolve references", err)
	}

	engine := geometry.New(commands, refs)

	// A fresh building per document; nothing is returned on failure.
	building := models.NewBuilding(c.opts.Unit)
	if err := NewExporter(engine, refs, c.opts).Export(ctx, commands, building); err != nil {
		return nil, stageError("export", err)
	}

	c.metrics.AddExported("story", len(building.Stories))
	c.metrics.AddExported("space", len(building.Spaces))
	c.metrics.AddExported("zone", len(building.Zones))
	c.metrics.AddExported("surface", len(building.Surfaces))
	c.metrics.AddExported("opening", len(building.Openings))
	return building, nil
}

// Status is a metrics label for a conversion result.
func Status(err error) string {
	if err == nil {
		return "ok"
	}
	switch models.KindOf(err) {
	case models.KindMalformedCommand:
		return "malformed_command"
	case models.KindUnresolvedReference:
		return "unresolved_reference"
	case models.KindAmbiguousReference:
		return "ambiguous_reference"
	case models.KindUnsupportedGeometry:
		return "unsupported_geometry"
	case models.KindInconsistentExport:
		return "inconsistent_export"
	}
	return "error"
}
