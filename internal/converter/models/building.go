package models

import (
	"github.com/google/uuid"
)

// ============================================================
// Building construction
// ============================================================

// NewBuilding returns an empty building with a fresh id.
func NewBuilding(unit string) *Building {
	return &Building{
		ID:       uuid.NewString(),
		Unit:     unit,
		Stories:  []*Story{},
		Spaces:   []*Space{},
		Zones:    []*Zone{},
		Surfaces: []*Surface{},
		Openings: []*Opening{},
	}
}

func inconsistent(kind, name, message string) error {
	return &Error{
		Kind:    KindInconsistentExport,
		Keyword: kind,
		Value:   name,
		Message: message,
	}
}

func (b *Building) Story(name string) *Story {
	for _, s := range b.Stories {
		if s.Name == name {
			return s
		}
	}
	return nil
}

func (b *Building) Space(name string) *Space {
	for _, s := range b.Spaces {
		if s.Name == name {
			return s
		}
	}
	return nil
}

func (b *Building) Zone(name string) *Zone {
	for _, z := range b.Zones {
		if z.Name == name {
			return z
		}
	}
	return nil
}

func (b *Building) Surface(name string) *Surface {
	for _, s := range b.Surfaces {
		if s.Name == name {
			return s
		}
	}
	return nil
}

func (b *Building) Opening(name string) *Opening {
	for _, o := range b.Openings {
		if o.Name == name {
			return o
		}
	}
	return nil
}

// AddStory adds a story. Names are unique.
func (b *Building) AddStory(name string, placement Placement, height float64) (*Story, error) {
	if b.Story(name) != nil {
		return nil, inconsistent("STORY", name, "duplicate story")
	}
	s := &Story{
		Handle:    uuid.NewString(),
		Name:      name,
		Placement: placement,
		Height:    height,
		Spaces:    []string{},
	}
	b.Stories = append(b.Stories, s)
	return s, nil
}

// AddSpace adds a space to an already exported story.
func (b *Building) AddSpace(name, story string, placement Placement) (*Space, error) {
	st := b.Story(story)
	if st == nil {
		return nil, inconsistent("SPACE", name, "story "+story+" not exported")
	}
	if b.Space(name) != nil {
		return nil, inconsistent("SPACE", name, "duplicate space")
	}
	s := &Space{
		Handle:    uuid.NewString(),
		Name:      name,
		Story:     story,
		Placement: placement,
		Surfaces:  []string{},
	}
	b.Spaces = append(b.Spaces, s)
	st.Spaces = append(st.Spaces, name)
	return s, nil
}

// AddZone adds a zone serving an already exported space.
func (b *Building) AddZone(name, space string) (*Zone, error) {
	sp := b.Space(space)
	if sp == nil {
		return nil, inconsistent("ZONE", name, "space "+space+" not exported")
	}
	if b.Zone(name) != nil {
		return nil, inconsistent("ZONE", name, "duplicate zone")
	}
	z := &Zone{
		Handle: uuid.NewString(),
		Name:   name,
		Space:  space,
	}
	b.Zones = append(b.Zones, z)
	sp.Zone = name
	return z, nil
}

// AddSurface adds a surface to an already exported space.
func (b *Building) AddSurface(name, space string, vertices []Point3, bc BoundaryCondition, kind SurfaceKind) (*Surface, error) {
	sp := b.Space(space)
	if sp == nil {
		return nil, inconsistent("SURFACE", name, "space "+space+" not exported")
	}
	if b.Surface(name) != nil {
		return nil, inconsistent("SURFACE", name, "duplicate surface")
	}
	s := &Surface{
		Handle:            uuid.NewString(),
		Name:              name,
		Space:             space,
		Kind:              kind,
		BoundaryCondition: bc,
		Vertices:          vertices,
		Openings:          []string{},
	}
	b.Surfaces = append(b.Surfaces, s)
	sp.Surfaces = append(sp.Surfaces, name)
	return s, nil
}

// AddOpening adds a window or door to an already exported surface.
func (b *Building) AddOpening(name, surface string, vertices []Point3, kind OpeningKind, overhang *Overhang) (*Opening, error) {
	sf := b.Surface(surface)
	if sf == nil {
		return nil, inconsistent("OPENING", name, "surface "+surface+" not exported")
	}
	if b.Opening(name) != nil {
		return nil, inconsistent("OPENING", name, "duplicate opening")
	}
	o := &Opening{
		Handle:   uuid.NewString(),
		Name:     name,
		Surface:  surface,
		Kind:     kind,
		Vertices: vertices,
		Overhang: overhang,
	}
	b.Openings = append(b.Openings, o)
	sf.Openings = append(sf.Openings, name)
	return o, nil
}
