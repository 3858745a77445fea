package geometry

import (
	"gonum.org/v1/gonum/spatial/r3"

	"building-converter/internal/converter/graph"
	"building-converter/internal/converter/models"
)

// ============================================================
// Geometry Engine
// ============================================================

// Placement is the derived geometry of one command. It is computed once and
// never changed afterwards.
type Placement struct {
	Origin  r3.Vec
	Azimuth float64
	Tilt    float64
	// Local maps the command's own frame into its parent's frame.
	Local Transform
	// World maps the command's own frame into building coordinates.
	World Transform
	// Polygon is the ring in the command's own frame; nil for shapeless spaces.
	Polygon []r3.Vec
}

// Overhang is a flat rectangular shade above an opening, in building coordinates.
type Overhang struct {
	Depth    float64
	Offset   float64
	Vertices []r3.Vec
}

// shape is the capability every geometry kind implements.
type shape interface {
	place(e *Engine) (*Placement, error)
}

// Engine derives geometry for resolved commands.
type Engine struct {
	refs   *graph.References
	shapes map[*models.Command]shape
	cache  map[*models.Command]*Placement
	busy   map[*models.Command]bool
}

// New builds an engine over commands linked by graph.BuildHierarchy and
// graph.Resolver. The kind of every command is selected here, once.
func New(commands []*models.Command, refs *graph.References) *Engine {
	e := &Engine{
		refs:   refs,
		shapes: make(map[*models.Command]shape, len(commands)),
		cache:  make(map[*models.Command]*Placement, len(commands)),
		busy:   make(map[*models.Command]bool),
	}
	for _, cmd := range commands {
		if s := newShape(cmd); s != nil {
			e.shapes[cmd] = s
		}
	}
	return e
}

func newShape(cmd *models.Command) shape {
	switch kind := models.GeometryKindOf(cmd.Keyword); {
	case kind == models.KindFloor:
		return &floorShape{cmd: cmd}
	case kind == models.KindSpace:
		return &spaceShape{cmd: cmd}
	case kind.IsSurface():
		return &surfaceShape{cmd: cmd, kind: kind}
	case kind.IsOpening():
		return &openingShape{cmd: cmd, kind: kind}
	case kind == models.KindPolygon:
		return &polygonShape{cmd: cmd}
	}
	return nil
}

// Placement returns the memoized geometry of cmd.
func (e *Engine) Placement(cmd *models.Command) (*Placement, error) {
	if p, ok := e.cache[cmd]; ok {
		return p, nil
	}
	s, ok := e.shapes[cmd]
	if !ok {
		return nil, models.NewError(models.KindUnsupportedGeometry, cmd, "", "", "command carries no geometry")
	}
	if e.busy[cmd] {
		return nil, models.NewError(models.KindUnsupportedGeometry, cmd, "", "", "geometry depends on itself")
	}

	e.busy[cmd] = true
	p, err := s.place(e)
	delete(e.busy, cmd)
	if err != nil {
		return nil, err
	}

	e.cache[cmd] = p
	return p, nil
}

// Vertices returns the absolute ring of cmd.
func (e *Engine) Vertices(cmd *models.Command) ([]r3.Vec, error) {
	p, err := e.Placement(cmd)
	if err != nil {
		return nil, err
	}
	return p.World.ApplyAll(p.Polygon), nil
}

// Mirror returns the absolute ring of the counterpart of a surface that
// declares NEXT-TO, for assignment to the adjacent space.
func (e *Engine) Mirror(cmd *models.Command) ([]r3.Vec, error) {
	ring, err := e.Vertices(cmd)
	if err != nil {
		return nil, err
	}
	return MirrorRing(ring), nil
}

// Overhang returns the overhang of an opening, if it declares one.
func (e *Engine) Overhang(cmd *models.Command) (*Overhang, bool, error) {
	s, ok := e.shapes[cmd].(*openingShape)
	if !ok {
		return nil, false, nil
	}
	return s.overhang(e)
}

// parentWorld returns the world transform of the closest geometric parent.
func (e *Engine) parentWorld(cmd *models.Command) (Transform, error) {
	parent := cmd.Parent()
	if parent == nil {
		return Identity(), nil
	}
	if _, ok := e.shapes[parent]; !ok {
		return Identity(), nil
	}
	p, err := e.Placement(parent)
	if err != nil {
		return Transform{}, err
	}
	return p.World, nil
}

// ============================================================
// Attribute helpers
// ============================================================

// explicitVec reads X/Y/Z; missing components are zero.
func explicitVec(cmd *models.Command) (r3.Vec, bool, error) {
	var v r3.Vec
	found := false
	for _, axis := range []struct {
		key string
		dst *float64
	}{{"X", &v.X}, {"Y", &v.Y}, {"Z", &v.Z}} {
		f, ok, err := cmd.Float(axis.key)
		if err != nil {
			return r3.Vec{}, false, err
		}
		if ok {
			*axis.dst = f
			found = true
		}
	}
	return v, found, nil
}

func unsupported(cmd *models.Command, attr, value, msg string) error {
	return models.NewError(models.KindUnsupportedGeometry, cmd, attr, value, msg)
}
