package mapper

import (
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"building-converter/internal/converter/geometry"
	"building-converter/internal/converter/models"
)

// ============================================================
// Renderer
// ============================================================

// Renderer draws a plan view of an exported building as SVG.
type Renderer struct {
	margin float64
}

func NewRenderer() *Renderer {
	return &Renderer{margin: 1}
}

type planPath struct {
	id     string
	points []models.Point
	fill   string
	stroke string
}

// Render собирает SVG-план из модели здания.
func (r *Renderer) Render(b *models.Building) (string, error) {
	if b == nil {
		return "", fmt.Errorf("building is nil")
	}
	if len(b.Surfaces) == 0 {
		return "", fmt.Errorf("building has no surfaces")
	}

	frames, err := r.spaceFrames(b)
	if err != nil {
		return "", err
	}

	var paths []planPath
	paths = append(paths, r.surfacePaths(b, frames, models.SurfaceFloor, "#F5F5F5", "#888")...)
	paths = append(paths, r.surfacePaths(b, frames, models.SurfaceWall, "none", "#000")...)
	paths = append(paths, r.openingPaths(b, frames)...)

	minX, minY, maxX, maxY := planBounds(paths)
	width := maxX - minX + 2*r.margin
	height := maxY - minY + 2*r.margin

	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s">`,
		formatFloat(width), formatFloat(height), formatFloat(width), formatFloat(height)))
	builder.WriteString("\n")

	// SVG y grows downwards, plan y grows north.
	toSVG := func(p models.Point) models.Point {
		return models.Point{X: p.X - minX + r.margin, Y: maxY - p.Y + r.margin}
	}
	for _, p := range paths {
		if len(p.points) < 2 {
			continue
		}
		builder.WriteString("  ")
		builder.WriteString(renderPath(p, toSVG))
		builder.WriteString("\n")
	}

	builder.WriteString(`</svg>`)
	return builder.String(), nil
}

// ============================================================
// Frames & sizing
// ============================================================

// spaceFrames composes story and space placements into absolute frames.
func (r *Renderer) spaceFrames(b *models.Building) (map[string]geometry.Transform, error) {
	frames := make(map[string]geometry.Transform, len(b.Spaces))
	for _, sp := range b.Spaces {
		st := b.Story(sp.Story)
		if st == nil {
			return nil, fmt.Errorf("space %q: story %q not found", sp.Name, sp.Story)
		}
		frames[sp.Name] = placementFrame(st.Placement).Then(placementFrame(sp.Placement))
	}
	return frames, nil
}

func placementFrame(p models.Placement) geometry.Transform {
	origin := r3.Vec{X: p.Origin.X, Y: p.Origin.Y, Z: p.Origin.Z}
	return geometry.Translation(origin).Then(geometry.RotationZ(-p.Azimuth))
}

func planBounds(paths []planPath) (float64, float64, float64, float64) {
	minX, minY := math.MaxFloat64, math.MaxFloat64
	maxX, maxY := -math.MaxFloat64, -math.MaxFloat64

	for _, path := range paths {
		for _, p := range path.points {
			minX = math.Min(minX, p.X)
			maxX = math.Max(maxX, p.X)
			minY = math.Min(minY, p.Y)
			maxY = math.Max(maxY, p.Y)
		}
	}

	if minX == math.MaxFloat64 {
		return 0, 0, 0, 0
	}
	return minX, minY, maxX, maxY
}

// ============================================================
// Element renderers
// ============================================================

func (r *Renderer) surfacePaths(b *models.Building, frames map[string]geometry.Transform, kind models.SurfaceKind, fill, stroke string) []planPath {
	var out []planPath
	for _, s := range b.Surfaces {
		if s.Kind != kind {
			continue
		}
		frame, ok := frames[s.Space]
		if !ok {
			continue
		}
		out = append(out, planPath{
			id:     s.Name,
			points: project(frame, s.Vertices),
			fill:   fill,
			stroke: stroke,
		})
	}
	return out
}

func (r *Renderer) openingPaths(b *models.Building, frames map[string]geometry.Transform) []planPath {
	var out []planPath
	for _, o := range b.Openings {
		s := b.Surface(o.Surface)
		if s == nil {
			continue
		}
		frame, ok := frames[s.Space]
		if !ok {
			continue
		}

		stroke := "#1f77b4"
		if o.Kind == models.OpeningDoor {
			stroke = "#d62728"
		}
		out = append(out, planPath{id: o.Name, points: project(frame, o.Vertices), fill: "none", stroke: stroke})

		if o.Overhang != nil {
			out = append(out, planPath{
				id:     o.Name + "-overhang",
				points: project(frame, o.Overhang.Vertices),
				fill:   "none",
				stroke: "#2ca02c",
			})
		}
	}
	return out
}

func renderPath(p planPath, toSVG func(models.Point) models.Point) string {
	var path strings.Builder
	path.WriteString(`<path id="`)
	path.WriteString(html.EscapeString(p.id))
	path.WriteString(`" d="`)
	for i, pt := range p.points {
		if i == 0 {
			path.WriteString("M ")
		} else {
			path.WriteString(" L ")
		}
		path.WriteString(formatPoint(toSVG(pt)))
	}
	path.WriteString(` Z" fill="`)
	path.WriteString(p.fill)
	path.WriteString(`" stroke="`)
	path.WriteString(p.stroke)
	path.WriteString(`" />`)
	return path.String()
}

// ============================================================
// Geometry helpers
// ============================================================

// project maps space-relative vertices to absolute plan coordinates and drops
// consecutive duplicates left by vertical faces.
func project(frame geometry.Transform, vertices []models.Point3) []models.Point {
	var points []models.Point
	for _, v := range vertices {
		w := frame.Apply(r3.Vec{X: v.X, Y: v.Y, Z: v.Z})
		p := models.Point{X: round(w.X), Y: round(w.Y)}
		if n := len(points); n > 0 && points[n-1] == p {
			continue
		}
		points = append(points, p)
	}
	if len(points) > 1 && points[0] == points[len(points)-1] {
		points = points[:len(points)-1]
	}
	return points
}

func round(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// ============================================================
// Formatting helpers
// ============================================================

func formatFloat(val float64) string {
	return strconv.FormatFloat(val, 'f', -1, 64)
}

func formatPoint(p models.Point) string {
	return formatFloat(p.X) + " " + formatFloat(p.Y)
}
