package geometry

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"building-converter/internal/converter/graph"
	"building-converter/internal/converter/models"
	"building-converter/internal/converter/parser"
)

const eps = 1e-9

type fixture struct {
	engine *Engine
	cmds   map[string]*models.Command
}

func load(t *testing.T, doc string) fixture {
	t.Helper()
	cmds, err := parser.ReadCommands(strings.NewReader(doc))
	require.NoError(t, err)
	require.NoError(t, graph.BuildHierarchy(cmds))
	refs, err := graph.NewResolver(nil).Resolve(context.Background(), cmds)
	require.NoError(t, err)

	byName := make(map[string]*models.Command, len(cmds))
	for _, c := range cmds {
		byName[c.Name()] = c
	}
	return fixture{engine: New(cmds, refs), cmds: byName}
}

func (f fixture) vertices(t *testing.T, name string) []r3.Vec {
	t.Helper()
	cmd, ok := f.cmds[name]
	require.True(t, ok, "no command %q", name)
	ring, err := f.engine.Vertices(cmd)
	require.NoError(t, err)
	return ring
}

func assertVec(t *testing.T, want, got r3.Vec, msgAndArgs ...interface{}) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, eps, msgAndArgs...)
	assert.InDelta(t, want.Y, got.Y, eps, msgAndArgs...)
	assert.InDelta(t, want.Z, got.Z, eps, msgAndArgs...)
}

func assertRing(t *testing.T, want, got []r3.Vec) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assertVec(t, want[i], got[i], "vertex %d", i)
	}
}

const boxDoc = `
"F1" = FLOOR ..
"S1" = SPACE SHAPE = BOX WIDTH = 10 DEPTH = 5 HEIGHT = 3 ..
"Front" = EXTERIOR-WALL LOCATION = FRONT ..
"Win" = WINDOW X = 1 Y = 0.5 WIDTH = 2 HEIGHT = 1 OVERHANG-D = 0.5 OVERHANG-A = 0.2 ..
"Right" = EXTERIOR-WALL LOCATION = RIGHT ..
"Back" = EXTERIOR-WALL LOCATION = BACK ..
"Left" = EXTERIOR-WALL LOCATION = LEFT ..
"Top" = ROOF LOCATION = TOP ..
"Bottom" = UNDERGROUND-WALL LOCATION = BOTTOM ..
`

func TestEngine_BoxWalls(t *testing.T) {
	f := load(t, boxDoc)

	assertRing(t, []r3.Vec{{X: 0, Y: 0, Z: 0}, {X: 10, Y: 0, Z: 0}, {X: 10, Y: 0, Z: 3}, {X: 0, Y: 0, Z: 3}}, f.vertices(t, "Front"))
	assertRing(t, []r3.Vec{{X: 10, Y: 0, Z: 0}, {X: 10, Y: 5, Z: 0}, {X: 10, Y: 5, Z: 3}, {X: 10, Y: 0, Z: 3}}, f.vertices(t, "Right"))

	tests := []struct {
		name   string
		normal r3.Vec
		area   float64
	}{
		{"Front", r3.Vec{Y: -1}, 30},
		{"Right", r3.Vec{X: 1}, 15},
		{"Back", r3.Vec{Y: 1}, 30},
		{"Left", r3.Vec{X: -1}, 15},
		{"Top", r3.Vec{Z: 1}, 50},
		{"Bottom", r3.Vec{Z: -1}, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ring := f.vertices(t, tt.name)
			assertVec(t, tt.normal, Normal(ring))
			assert.InDelta(t, tt.area, Area(ring), eps)
		})
	}
}

func TestEngine_TopAndBottomCoverFootprint(t *testing.T) {
	f := load(t, boxDoc)

	top := f.vertices(t, "Top")
	assert.InDelta(t, 50, ProjectedArea(top), eps)
	for _, p := range top {
		assert.InDelta(t, 3, p.Z, eps)
	}
	assertRing(t, []r3.Vec{{X: 0, Y: 0, Z: 3}, {X: 10, Y: 0, Z: 3}, {X: 10, Y: 5, Z: 3}, {X: 0, Y: 5, Z: 3}}, top)

	bottom := f.vertices(t, "Bottom")
	assert.InDelta(t, -50, ProjectedArea(bottom), eps)
	for _, p := range bottom {
		assert.InDelta(t, 0, p.Z, eps)
	}

	p, err := f.engine.Placement(f.cmds["Bottom"])
	require.NoError(t, err)
	assert.Equal(t, 180.0, p.Tilt)
}

func TestEngine_NormalFollowsFrame(t *testing.T) {
	f := load(t, `
"F1" = FLOOR Z = 3 AZIMUTH = 30 ..
"S1" = SPACE SHAPE = BOX WIDTH = 8 DEPTH = 4 HEIGHT = 2.5 AZIMUTH = 15 ..
"Front" = EXTERIOR-WALL LOCATION = FRONT ..
"Right" = EXTERIOR-WALL LOCATION = RIGHT ..
"Roof" = ROOF LOCATION = TOP ..
"Tilted" = ROOF X = 1 Y = 1 Z = 2.5 AZIMUTH = 200 TILT = 30 WIDTH = 2 HEIGHT = 2 ..
`)
	for _, name := range []string{"Front", "Right", "Roof", "Tilted"} {
		p, err := f.engine.Placement(f.cmds[name])
		require.NoError(t, err)
		ring := p.World.ApplyAll(p.Polygon)
		assertVec(t, p.World.ApplyVector(r3.Vec{Z: 1}), Normal(ring), name)
	}
}

func TestEngine_FloorPlacementMovesChildren(t *testing.T) {
	f := load(t, `
"F1" = FLOOR Z = 3 AZIMUTH = 90 ..
"S1" = SPACE SHAPE = BOX WIDTH = 10 DEPTH = 5 HEIGHT = 3 ..
"Front" = EXTERIOR-WALL LOCATION = FRONT ..
`)
	ring := f.vertices(t, "Front")
	assertVec(t, r3.Vec{X: 0, Y: 0, Z: 3}, ring[0])
	assertVec(t, r3.Vec{X: 0, Y: -10, Z: 3}, ring[1])
	assertVec(t, r3.Vec{X: 0, Y: -10, Z: 6}, ring[2])
}

func TestEngine_PolygonSpaceWall(t *testing.T) {
	f := load(t, `
"P1" = POLYGON V1 = ( 0, 0 ) V2 = ( 5, 0 ) V3 = ( 5, 5 ) V4 = ( 0, 5 ) ..
"F1" = FLOOR ..
"S1" = SPACE SHAPE = POLYGON POLYGON = "P1" ..
"W1" = EXTERIOR-WALL LOCATION = SPACE-V1 HEIGHT = 2 ..
"W3" = EXTERIOR-WALL LOCATION = SPACE-V3 HEIGHT = 2 ..
`)
	w1 := f.vertices(t, "W1")
	assert.InDelta(t, 10, Area(w1), eps)
	assertVec(t, r3.Vec{Y: -1}, Normal(w1))

	w3 := f.vertices(t, "W3")
	assertVec(t, r3.Vec{X: 5, Y: 5}, w3[0])
	assertVec(t, r3.Vec{Y: 1}, Normal(w3))

	p, err := f.engine.Placement(f.cmds["W3"])
	require.NoError(t, err)
	assert.InDelta(t, 0, p.Azimuth, eps)
	assert.InDelta(t, 90, p.Tilt, eps)
}

func TestEngine_SpaceLocationOnFloorVertex(t *testing.T) {
	f := load(t, `
"P1" = POLYGON V1 = ( 0, 0 ) V2 = ( 10, 0 ) V3 = ( 10, 10 ) V4 = ( 0, 10 ) ..
"F1" = FLOOR POLYGON = "P1" ..
"S1" = SPACE LOCATION = FLOOR-V2 Z = 1 SHAPE = BOX WIDTH = 2 DEPTH = 2 HEIGHT = 3 ..
`)
	p, err := f.engine.Placement(f.cmds["S1"])
	require.NoError(t, err)
	assertVec(t, r3.Vec{X: 10, Z: 1}, p.Origin)
	assert.InDelta(t, 270, p.Azimuth, eps)
}

func TestEngine_SpaceHeightFallsBackToFloor(t *testing.T) {
	f := load(t, `
"F1" = FLOOR SPACE-HEIGHT = 2.8 FLOOR-HEIGHT = 3.2 ..
"S1" = SPACE SHAPE = BOX WIDTH = 4 DEPTH = 4 ..
"Front" = EXTERIOR-WALL LOCATION = FRONT ..
"F2" = FLOOR FLOOR-HEIGHT = 3.2 ..
"S2" = SPACE SHAPE = BOX WIDTH = 4 DEPTH = 4 ..
"Front2" = EXTERIOR-WALL LOCATION = FRONT ..
`)
	assert.InDelta(t, 4*2.8, Area(f.vertices(t, "Front")), eps)
	assert.InDelta(t, 4*3.2, Area(f.vertices(t, "Front2")), eps)
}

func TestEngine_PlacementIsMemoized(t *testing.T) {
	f := load(t, boxDoc)
	cmd := f.cmds["Right"]

	first, err := f.engine.Placement(cmd)
	require.NoError(t, err)
	second, err := f.engine.Placement(cmd)
	require.NoError(t, err)
	assert.Same(t, first, second)

	a, err := f.engine.Vertices(cmd)
	require.NoError(t, err)
	b, err := f.engine.Vertices(cmd)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEngine_WindowAndOverhang(t *testing.T) {
	f := load(t, boxDoc)

	assertRing(t, []r3.Vec{{X: 1, Y: 0, Z: 0.5}, {X: 3, Y: 0, Z: 0.5}, {X: 3, Y: 0, Z: 1.5}, {X: 1, Y: 0, Z: 1.5}}, f.vertices(t, "Win"))

	p, err := f.engine.Placement(f.cmds["Win"])
	require.NoError(t, err)
	assert.InDelta(t, 180, p.Azimuth, eps)
	assert.InDelta(t, 90, p.Tilt, eps)

	oh, ok, err := f.engine.Overhang(f.cmds["Win"])
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0.5, oh.Depth)
	assertRing(t, []r3.Vec{{X: 1, Y: 0, Z: 1.7}, {X: 1, Y: -0.5, Z: 1.7}, {X: 3, Y: -0.5, Z: 1.7}, {X: 3, Y: 0, Z: 1.7}}, oh.Vertices)

	_, ok, err = f.engine.Overhang(f.cmds["Front"])
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEngine_MirrorOpposesNormal(t *testing.T) {
	f := load(t, `
"F1" = FLOOR ..
"A" = SPACE SHAPE = BOX WIDTH = 6 DEPTH = 4 HEIGHT = 3 ..
"Wall AB" = INTERIOR-WALL LOCATION = RIGHT NEXT-TO = "B" ..
"B" = SPACE X = 6 SHAPE = BOX WIDTH = 6 DEPTH = 4 HEIGHT = 3 ..
`)
	ring := f.vertices(t, "Wall AB")
	mirror, err := f.engine.Mirror(f.cmds["Wall AB"])
	require.NoError(t, err)

	n := len(ring)
	for i := range ring {
		assert.Equal(t, ring[i], mirror[(n-i)%n])
	}
	assertVec(t, r3.Scale(-1, Normal(ring)), Normal(mirror))
}

func TestEngine_UnsupportedGeometry(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		cmd  string
	}{
		{
			name: "no-shape space with derived wall",
			doc: `
"F1" = FLOOR ..
"S1" = SPACE HEIGHT = 3 ..
"W1" = EXTERIOR-WALL LOCATION = FRONT ..`,
			cmd: "W1",
		},
		{
			name: "vertex beyond polygon",
			doc: `
"P1" = POLYGON V1 = ( 0, 0 ) V2 = ( 5, 0 ) V3 = ( 5, 5 ) ..
"F1" = FLOOR ..
"S1" = SPACE POLYGON = "P1" HEIGHT = 3 ..
"W1" = EXTERIOR-WALL LOCATION = SPACE-V7 ..`,
			cmd: "W1",
		},
		{
			name: "unknown location",
			doc: `
"F1" = FLOOR ..
"S1" = SPACE SHAPE = BOX WIDTH = 2 DEPTH = 2 HEIGHT = 3 ..
"W1" = EXTERIOR-WALL LOCATION = SIDEWAYS ..`,
			cmd: "W1",
		},
		{
			name: "top without height",
			doc: `
"F1" = FLOOR ..
"S1" = SPACE SHAPE = BOX WIDTH = 2 DEPTH = 2 ..
"R1" = ROOF LOCATION = TOP ..`,
			cmd: "R1",
		},
		{
			name: "window without size",
			doc: `
"F1" = FLOOR ..
"S1" = SPACE SHAPE = BOX WIDTH = 2 DEPTH = 2 HEIGHT = 3 ..
"W1" = EXTERIOR-WALL LOCATION = FRONT ..
"Win" = WINDOW X = 1 ..`,
			cmd: "Win",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := load(t, tt.doc)
			_, err := f.engine.Vertices(f.cmds[tt.cmd])
			require.Error(t, err)
			assert.ErrorIs(t, err, models.ErrUnsupportedGeometry)
		})
	}
}

func TestEngine_NoShapeWallWithExplicitSize(t *testing.T) {
	f := load(t, `
"F1" = FLOOR ..
"S1" = SPACE ..
"W1" = EXTERIOR-WALL LOCATION = FRONT WIDTH = 4 HEIGHT = 2.5 ..
`)
	ring := f.vertices(t, "W1")
	assert.InDelta(t, 10, Area(ring), eps)
	assertRing(t, []r3.Vec{{X: 0, Y: 0, Z: 0}, {X: -4, Y: 0, Z: 0}, {X: -4, Y: 0, Z: 2.5}, {X: 0, Y: 0, Z: 2.5}}, ring)
	assertVec(t, r3.Vec{Y: 1}, Normal(ring))

	p, err := f.engine.Placement(f.cmds["W1"])
	require.NoError(t, err)
	assert.Equal(t, 90.0, p.Tilt)
}

func TestEngine_NoShapeFloorAndCeilingKeepOrientation(t *testing.T) {
	f := load(t, `
"F1" = FLOOR ..
"S1" = SPACE HEIGHT = 3 ..
"Ceiling" = ROOF LOCATION = TOP WIDTH = 2 HEIGHT = 2 ..
"Slab" = UNDERGROUND-WALL LOCATION = BOTTOM WIDTH = 2 HEIGHT = 2 ..
`)
	ceiling := f.vertices(t, "Ceiling")
	assertVec(t, r3.Vec{Z: 1}, Normal(ceiling))
	for _, v := range ceiling {
		assert.InDelta(t, 3, v.Z, eps)
	}

	slab := f.vertices(t, "Slab")
	assertVec(t, r3.Vec{Z: -1}, Normal(slab))
	assert.InDelta(t, 4, Area(slab), eps)
}
