package models

// ============================================================
// Geometry primitives
// ============================================================

type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

type Point3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// ============================================================
// Building model (export target)
// ============================================================

type BoundaryCondition string

const (
	BoundaryOutdoors BoundaryCondition = "Outdoors"
	BoundaryGround   BoundaryCondition = "Ground"
	BoundarySurface  BoundaryCondition = "Surface"
)

type SurfaceKind string

const (
	SurfaceWall        SurfaceKind = "Wall"
	SurfaceFloor       SurfaceKind = "Floor"
	SurfaceRoofCeiling SurfaceKind = "RoofCeiling"
)

type OpeningKind string

const (
	OpeningWindow OpeningKind = "FixedWindow"
	OpeningDoor   OpeningKind = "Door"
)

// Placement is the group transform of a story or space relative to its parent.
type Placement struct {
	Origin  Point3  `json:"origin" yaml:"origin"`
	Azimuth float64 `json:"azimuth" yaml:"azimuth"`
}

type Story struct {
	Handle    string    `json:"handle" yaml:"handle"`
	Name      string    `json:"name" yaml:"name"`
	Placement Placement `json:"placement" yaml:"placement"`
	Height    float64   `json:"height" yaml:"height"`
	Spaces    []string  `json:"spaces" yaml:"spaces"`
}

type Space struct {
	Handle    string    `json:"handle" yaml:"handle"`
	Name      string    `json:"name" yaml:"name"`
	Story     string    `json:"story" yaml:"story"`
	Zone      string    `json:"zone,omitempty" yaml:"zone,omitempty"`
	Placement Placement `json:"placement" yaml:"placement"`
	Surfaces  []string  `json:"surfaces" yaml:"surfaces"`
}

type Zone struct {
	Handle string `json:"handle" yaml:"handle"`
	Name   string `json:"name" yaml:"name"`
	Space  string `json:"space" yaml:"space"`
	System string `json:"system,omitempty" yaml:"system,omitempty"`
}

type Surface struct {
	Handle            string            `json:"handle" yaml:"handle"`
	Name              string            `json:"name" yaml:"name"`
	Space             string            `json:"space" yaml:"space"`
	Kind              SurfaceKind       `json:"kind" yaml:"kind"`
	BoundaryCondition BoundaryCondition `json:"boundaryCondition" yaml:"boundaryCondition"`
	AdjacentSurface   string            `json:"adjacentSurface,omitempty" yaml:"adjacentSurface,omitempty"`
	Construction      string            `json:"construction,omitempty" yaml:"construction,omitempty"`
	UValue            *float64          `json:"uValue,omitempty" yaml:"uValue,omitempty"`
	Vertices          []Point3          `json:"vertices" yaml:"vertices"`
	Openings          []string          `json:"openings" yaml:"openings"`
}

type Overhang struct {
	Depth    float64  `json:"depth" yaml:"depth"`
	Offset   float64  `json:"offset" yaml:"offset"`
	Vertices []Point3 `json:"vertices" yaml:"vertices"`
}

type Opening struct {
	Handle   string      `json:"handle" yaml:"handle"`
	Name     string      `json:"name" yaml:"name"`
	Surface  string      `json:"surface" yaml:"surface"`
	Kind     OpeningKind `json:"kind" yaml:"kind"`
	Vertices []Point3    `json:"vertices" yaml:"vertices"`
	Overhang *Overhang   `json:"overhang,omitempty" yaml:"overhang,omitempty"`
}

// Building is the exported model. Surface and opening vertices are relative
// to the owning space placement, which is relative to its story.
type Building struct {
	ID       string     `json:"id" yaml:"id"`
	Unit     string     `json:"unit" yaml:"unit"`
	Stories  []*Story   `json:"stories" yaml:"stories"`
	Spaces   []*Space   `json:"spaces" yaml:"spaces"`
	Zones    []*Zone    `json:"zones" yaml:"zones"`
	Surfaces []*Surface `json:"surfaces" yaml:"surfaces"`
	Openings []*Opening `json:"openings" yaml:"openings"`
}
