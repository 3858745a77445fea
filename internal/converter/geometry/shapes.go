package geometry

import (
	"regexp"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"building-converter/internal/converter/models"
	"building-converter/internal/converter/parser"
)

// ============================================================
// Locations
// ============================================================

type locationKind int

const (
	locNone locationKind = iota
	locEdge
	locTop
	locBottom
)

type location struct {
	kind  locationKind
	index int // zero-based vertex/edge index for locEdge
	raw   string
}

var sideIndex = map[string]int{"FRONT": 0, "RIGHT": 1, "BACK": 2, "LEFT": 3}

var vertexLocRe = regexp.MustCompile(`^(?:[A-Z]+-)?V(\d+)$`)

func parseLocation(cmd *models.Command) (location, error) {
	raw, ok := cmd.StringValue("LOCATION")
	if !ok {
		return location{}, nil
	}
	v := strings.ToUpper(strings.TrimSpace(raw))

	if i, ok := sideIndex[v]; ok {
		return location{kind: locEdge, index: i, raw: v}, nil
	}
	switch v {
	case "TOP":
		return location{kind: locTop, raw: v}, nil
	case "BOTTOM":
		return location{kind: locBottom, raw: v}, nil
	}
	if m := vertexLocRe.FindStringSubmatch(v); m != nil {
		n, _ := strconv.Atoi(m[1])
		if n >= 1 {
			return location{kind: locEdge, index: n - 1, raw: v}, nil
		}
	}
	return location{}, unsupported(cmd, "LOCATION", raw, "unknown location")
}

// edge returns the edge of ring starting at the location's vertex.
func (l location) edge(cmd *models.Command, ring []r3.Vec) (r3.Vec, r3.Vec, error) {
	if l.index >= len(ring) {
		return r3.Vec{}, r3.Vec{}, unsupported(cmd, "LOCATION", l.raw, "parent polygon has only "+strconv.Itoa(len(ring))+" vertices")
	}
	return ring[l.index], ring[(l.index+1)%len(ring)], nil
}

// ============================================================
// Shape rings
// ============================================================

// planRing returns the horizontal ring of a floor or space from its SHAPE,
// POLYGON or WIDTH/DEPTH attributes. nil means the command has no shape.
func planRing(e *Engine, cmd *models.Command) ([]r3.Vec, error) {
	shapeName, _ := cmd.StringValue("SHAPE")
	shapeName = strings.ToUpper(shapeName)
	if shapeName == "" {
		switch {
		case e.refs != nil && e.refs.Polygon(cmd) != nil:
			shapeName = "POLYGON"
		case cmd.Has("WIDTH") && cmd.Has("DEPTH"):
			shapeName = "BOX"
		default:
			shapeName = "NO-SHAPE"
		}
	}

	switch shapeName {
	case "POLYGON":
		var poly *models.Command
		if e.refs != nil {
			poly = e.refs.Polygon(cmd)
		}
		if poly == nil {
			return nil, unsupported(cmd, "SHAPE", "POLYGON", "no polygon linked")
		}
		points, err := parser.PolygonPoints(poly)
		if err != nil {
			return nil, err
		}
		if len(points) < 3 {
			return nil, unsupported(cmd, "POLYGON", poly.Name(), "polygon needs at least 3 vertices")
		}
		return fromPoints(points, 0), nil
	case "BOX":
		w, okW, err := cmd.Float("WIDTH")
		if err != nil {
			return nil, err
		}
		d, okD, err := cmd.Float("DEPTH")
		if err != nil {
			return nil, err
		}
		if !okW || !okD || w <= 0 || d <= 0 {
			return nil, unsupported(cmd, "SHAPE", "BOX", "box needs positive WIDTH and DEPTH")
		}
		return rectangle(0, 0, w, d), nil
	case "NO-SHAPE":
		return nil, nil
	}
	return nil, unsupported(cmd, "SHAPE", shapeName, "unknown shape")
}

// ============================================================
// Polygon
// ============================================================

type polygonShape struct {
	cmd *models.Command
}

func (s *polygonShape) place(_ *Engine) (*Placement, error) {
	points, err := parser.PolygonPoints(s.cmd)
	if err != nil {
		return nil, err
	}
	return &Placement{
		Local:   Identity(),
		World:   Identity(),
		Polygon: fromPoints(points, 0),
	}, nil
}

// ============================================================
// Floor
// ============================================================

type floorShape struct {
	cmd *models.Command
}

func (s *floorShape) place(e *Engine) (*Placement, error) {
	origin, _, err := explicitVec(s.cmd)
	if err != nil {
		return nil, err
	}
	az, err := s.cmd.FloatOr("AZIMUTH", 0)
	if err != nil {
		return nil, err
	}
	ring, err := planRing(e, s.cmd)
	if err != nil {
		return nil, err
	}

	az = NormalizeDegrees(az)
	local := Translation(origin).Then(RotationZ(-az))
	return &Placement{
		Origin:  origin,
		Azimuth: az,
		Local:   local,
		World:   local,
		Polygon: ring,
	}, nil
}

// ============================================================
// Space
// ============================================================

type spaceShape struct {
	cmd *models.Command
}

func (s *spaceShape) floor() *models.Command {
	return s.cmd.Ancestor("FLOOR")
}

// height is the extrusion height of the space, 0 when unknown.
func (s *spaceShape) height() (float64, error) {
	if h, ok, err := s.cmd.Float("HEIGHT"); err != nil || ok {
		return h, err
	}
	if floor := s.floor(); floor != nil {
		for _, key := range []string{"SPACE-HEIGHT", "FLOOR-HEIGHT"} {
			if h, ok, err := floor.Float(key); err != nil || ok {
				return h, err
			}
		}
	}
	return 0, nil
}

func (s *spaceShape) place(e *Engine) (*Placement, error) {
	offset, _, err := explicitVec(s.cmd)
	if err != nil {
		return nil, err
	}
	loc, err := parseLocation(s.cmd)
	if err != nil {
		return nil, err
	}

	origin := offset
	derivedAz, hasDerived := 0.0, false
	if loc.kind != locNone {
		if loc.kind != locEdge {
			return nil, unsupported(s.cmd, "LOCATION", loc.raw, "space location must name a floor vertex or side")
		}
		floorRing, err := s.floorRing(e)
		if err != nil {
			return nil, err
		}
		p, q, err := loc.edge(s.cmd, floorRing)
		if err != nil {
			return nil, err
		}
		origin = r3.Add(p, offset)
		if theta, ok := EdgeAngle(p, q); ok {
			derivedAz, hasDerived = NormalizeDegrees(360-theta), true
		}
	}

	az, ok, err := s.cmd.Float("AZIMUTH")
	if err != nil {
		return nil, err
	}
	switch {
	case ok:
		az = NormalizeDegrees(az)
	case hasDerived:
		az = derivedAz
	default:
		az = 0
	}

	ring, err := planRing(e, s.cmd)
	if err != nil {
		return nil, err
	}

	local := Translation(origin).Then(RotationZ(-az))
	parent, err := e.parentWorld(s.cmd)
	if err != nil {
		return nil, err
	}
	return &Placement{
		Origin:  origin,
		Azimuth: az,
		Local:   local,
		World:   parent.Then(local),
		Polygon: ring,
	}, nil
}

func (s *spaceShape) floorRing(e *Engine) ([]r3.Vec, error) {
	floor := s.floor()
	if floor == nil {
		return nil, unsupported(s.cmd, "LOCATION", "", "space location needs a parent floor")
	}
	fp, err := e.Placement(floor)
	if err != nil {
		return nil, err
	}
	if fp.Polygon == nil {
		return nil, unsupported(s.cmd, "LOCATION", "", "parent floor has no shape")
	}
	return fp.Polygon, nil
}

// ============================================================
// Opaque surfaces
// ============================================================

type surfaceShape struct {
	cmd  *models.Command
	kind models.GeometryKind
}

func (s *surfaceShape) space() *models.Command {
	return s.cmd.Ancestor("SPACE")
}

func (s *surfaceShape) place(e *Engine) (*Placement, error) {
	loc, err := parseLocation(s.cmd)
	if err != nil {
		return nil, err
	}

	var (
		spaceRing   []r3.Vec
		spaceHeight float64
	)
	if loc.kind != locNone {
		if sp := s.space(); sp != nil {
			spp, err := e.Placement(sp)
			if err != nil {
				return nil, err
			}
			spaceRing = spp.Polygon
			if spaceHeight, err = (&spaceShape{cmd: sp}).height(); err != nil {
				return nil, err
			}
		}
	}

	// derived frame from the location
	origin := r3.Vec{}
	az, tilt := 0.0, 0.0
	var desired []r3.Vec // ring in the parent frame, mapped into the surface frame below
	var edgeRect []r3.Vec

	// The orientation follows the location even when the space has no ring.
	switch loc.kind {
	case locEdge:
		tilt = 90
	case locTop:
		if spaceHeight > 0 {
			origin = r3.Vec{Z: spaceHeight}
		}
	case locBottom:
		tilt = 180
	}

	if loc.kind != locNone && spaceRing != nil {
		switch loc.kind {
		case locEdge:
			p, q, err := loc.edge(s.cmd, spaceRing)
			if err != nil {
				return nil, err
			}
			theta, ok := EdgeAngle(p, q)
			if !ok {
				return nil, unsupported(s.cmd, "LOCATION", loc.raw, "zero-length edge")
			}
			origin = p
			az = NormalizeDegrees(180 - theta)
			tilt = 90
			length := r3.Norm(r3.Sub(q, p))
			w, err := s.cmd.FloatOr("WIDTH", length)
			if err != nil {
				return nil, err
			}
			h, err := s.cmd.FloatOr("HEIGHT", spaceHeight)
			if err != nil {
				return nil, err
			}
			if h <= 0 {
				return nil, unsupported(s.cmd, "HEIGHT", "", "space height unknown for "+loc.raw+" surface")
			}
			edgeRect = rectangle(0, 0, w, h)
		case locTop:
			if spaceHeight <= 0 {
				return nil, unsupported(s.cmd, "LOCATION", loc.raw, "space height unknown")
			}
			origin = r3.Vec{Z: spaceHeight}
			desired = lifted(spaceRing, spaceHeight)
		case locBottom:
			tilt = 180
			desired = reversed(spaceRing)
		}
	}

	if v, found, err := explicitVec(s.cmd); err != nil {
		return nil, err
	} else if found {
		origin = v
	}
	if a, ok, err := s.cmd.Float("AZIMUTH"); err != nil {
		return nil, err
	} else if ok {
		az = NormalizeDegrees(a)
	}
	if t, ok, err := s.cmd.Float("TILT"); err != nil {
		return nil, err
	} else if ok {
		tilt = t
	}

	local := surfaceFrame(origin, az, tilt)

	ring, err := s.polygon(e, loc, spaceRing, edgeRect, desired, local)
	if err != nil {
		return nil, err
	}

	parent, err := e.parentWorld(s.cmd)
	if err != nil {
		return nil, err
	}
	return &Placement{
		Origin:  origin,
		Azimuth: az,
		Tilt:    tilt,
		Local:   local,
		World:   parent.Then(local),
		Polygon: ring,
	}, nil
}

// polygon picks the local ring: an explicit polygon, the location-derived
// ring, or an explicit WIDTH×HEIGHT rectangle.
func (s *surfaceShape) polygon(e *Engine, loc location, spaceRing, edgeRect, desired []r3.Vec, local Transform) ([]r3.Vec, error) {
	if e.refs != nil {
		if poly := e.refs.Polygon(s.cmd); poly != nil {
			points, err := parser.PolygonPoints(poly)
			if err != nil {
				return nil, err
			}
			return fromPoints(points, 0), nil
		}
	}
	if edgeRect != nil {
		return edgeRect, nil
	}
	if desired != nil {
		return local.Inverse().ApplyAll(desired), nil
	}

	w, okW, err := s.cmd.Float("WIDTH")
	if err != nil {
		return nil, err
	}
	h, okH, err := s.cmd.Float("HEIGHT")
	if err != nil {
		return nil, err
	}
	if okW && okH && w > 0 && h > 0 {
		return rectangle(0, 0, w, h), nil
	}

	if loc.kind != locNone && spaceRing == nil {
		return nil, unsupported(s.cmd, "LOCATION", loc.raw, "parent space has NO-SHAPE and the surface gives no WIDTH and HEIGHT")
	}
	return nil, unsupported(s.cmd, "", "", "surface needs a POLYGON, a LOCATION on a shaped space, or WIDTH and HEIGHT")
}

// surfaceFrame maps the surface frame (X along the surface, Z outward) into
// the space frame.
func surfaceFrame(origin r3.Vec, az, tilt float64) Transform {
	return Translation(origin).Then(RotationZ(180 - az)).Then(RotationX(tilt))
}

// ============================================================
// Openings
// ============================================================

type openingShape struct {
	cmd  *models.Command
	kind models.GeometryKind
}

func (s *openingShape) parentSurface(e *Engine) (*Placement, error) {
	parent := s.cmd.Parent()
	if parent == nil || !models.GeometryKindOf(parent.Keyword).IsSurface() {
		return nil, unsupported(s.cmd, "", "", "opening is not nested in a wall or roof")
	}
	return e.Placement(parent)
}

func (s *openingShape) place(e *Engine) (*Placement, error) {
	ps, err := s.parentSurface(e)
	if err != nil {
		return nil, err
	}

	x, err := s.cmd.FloatOr("X", 0)
	if err != nil {
		return nil, err
	}
	y, err := s.cmd.FloatOr("Y", 0)
	if err != nil {
		return nil, err
	}
	origin := r3.Vec{X: x, Y: y}

	var ring []r3.Vec
	if e.refs != nil && e.refs.Polygon(s.cmd) != nil {
		points, err := parser.PolygonPoints(e.refs.Polygon(s.cmd))
		if err != nil {
			return nil, err
		}
		ring = fromPoints(points, 0)
	} else {
		w, h, err := s.size()
		if err != nil {
			return nil, err
		}
		ring = rectangle(0, 0, w, h)
	}

	// Openings lie in the parent surface plane; the parent's azimuth and
	// tilt are already in ps.World and are not applied again.
	local := Translation(origin)
	return &Placement{
		Origin:  origin,
		Azimuth: ps.Azimuth,
		Tilt:    ps.Tilt,
		Local:   local,
		World:   ps.World.Then(local),
		Polygon: ring,
	}, nil
}

func (s *openingShape) size() (float64, float64, error) {
	w, okW, err := s.cmd.Float("WIDTH")
	if err != nil {
		return 0, 0, err
	}
	h, okH, err := s.cmd.Float("HEIGHT")
	if err != nil {
		return 0, 0, err
	}
	if !okW || !okH || w <= 0 || h <= 0 {
		return 0, 0, unsupported(s.cmd, "WIDTH", "", "opening needs positive WIDTH and HEIGHT")
	}
	return w, h, nil
}

func (s *openingShape) overhang(e *Engine) (*Overhang, bool, error) {
	depth, ok, err := s.cmd.Float("OVERHANG-D")
	if err != nil {
		return nil, false, err
	}
	if !ok || depth <= 0 {
		return nil, false, nil
	}

	p, err := e.Placement(s.cmd)
	if err != nil {
		return nil, false, err
	}
	w, h, err := s.size()
	if err != nil {
		return nil, false, err
	}
	offset, err := s.cmd.FloatOr("OVERHANG-A", 0)
	if err != nil {
		return nil, false, err
	}
	left, err := s.cmd.FloatOr("OVERHANG-B", 0)
	if err != nil {
		return nil, false, err
	}
	width, err := s.cmd.FloatOr("OVERHANG-W", w)
	if err != nil {
		return nil, false, err
	}

	y := h + offset
	x0, x1 := -left, -left+width
	ring := []r3.Vec{
		{X: x0, Y: y, Z: 0},
		{X: x0, Y: y, Z: depth},
		{X: x1, Y: y, Z: depth},
		{X: x1, Y: y, Z: 0},
	}
	return &Overhang{
		Depth:    depth,
		Offset:   offset,
		Vertices: p.World.ApplyAll(ring),
	}, true, nil
}
