package models

// ============================================================
// Scopes
// ============================================================

// Scope is one of the independent nesting namespaces of a BDL document.
type Scope int

const (
	ScopeNone Scope = iota
	ScopeEnvelope
	ScopeMechanical
)

func (s Scope) String() string {
	switch s {
	case ScopeEnvelope:
		return "envelope"
	case ScopeMechanical:
		return "mechanical"
	default:
		return "none"
	}
}

var envelopeDepth = map[string]int{
	"FLOOR":            0,
	"SPACE":            1,
	"EXTERIOR-WALL":    2,
	"INTERIOR-WALL":    2,
	"UNDERGROUND-WALL": 2,
	"ROOF":             2,
	"WINDOW":           3,
	"DOOR":             3,
}

var mechanicalDepth = map[string]int{
	"SYSTEM": 0,
	"ZONE":   1,
}

// ScopeOf returns the scope and nesting depth of a keyword. Keywords outside
// both tables return ScopeNone and depth -1.
func ScopeOf(keyword string) (Scope, int) {
	if d, ok := envelopeDepth[keyword]; ok {
		return ScopeEnvelope, d
	}
	if d, ok := mechanicalDepth[keyword]; ok {
		return ScopeMechanical, d
	}
	return ScopeNone, -1
}

// ============================================================
// Geometry kinds
// ============================================================

// GeometryKind selects the geometric behaviour of a command.
type GeometryKind int

const (
	KindNone GeometryKind = iota
	KindFloor
	KindSpace
	KindExteriorWall
	KindInteriorWall
	KindUndergroundWall
	KindRoof
	KindWindow
	KindDoor
	KindPolygon
)

var geometryKinds = map[string]GeometryKind{
	"FLOOR":            KindFloor,
	"SPACE":            KindSpace,
	"EXTERIOR-WALL":    KindExteriorWall,
	"INTERIOR-WALL":    KindInteriorWall,
	"UNDERGROUND-WALL": KindUndergroundWall,
	"ROOF":             KindRoof,
	"WINDOW":           KindWindow,
	"DOOR":             KindDoor,
	"POLYGON":          KindPolygon,
}

// GeometryKindOf maps a keyword to its geometry kind.
func GeometryKindOf(keyword string) GeometryKind {
	return geometryKinds[keyword]
}

// IsSurface reports whether the kind is an opaque surface.
func (k GeometryKind) IsSurface() bool {
	switch k {
	case KindExteriorWall, KindInteriorWall, KindUndergroundWall, KindRoof:
		return true
	}
	return false
}

// IsOpening reports whether the kind is a sub-surface.
func (k GeometryKind) IsOpening() bool {
	return k == KindWindow || k == KindDoor
}

func (k GeometryKind) String() string {
	for kw, kind := range geometryKinds {
		if kind == k {
			return kw
		}
	}
	return "NONE"
}
