package mapper

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"building-converter/internal/converter/geometry"
	"building-converter/internal/converter/models"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func convert(t *testing.T, doc string, opts Options) *models.Building {
	t.Helper()
	b, err := New(nil, opts).Convert(context.Background(), strings.NewReader(doc))
	require.NoError(t, err)
	require.NotNil(t, b)
	return b
}

func area(vertices []models.Point3) float64 {
	ring := make([]r3.Vec, len(vertices))
	for i, v := range vertices {
		ring[i] = r3.Vec{X: v.X, Y: v.Y, Z: v.Z}
	}
	return geometry.Area(ring)
}

const singleWallDoc = `
$ one wall on a 5 x 5 space
"P1" = POLYGON V1 = ( 0, 0 ) V2 = ( 5, 0 ) V3 = ( 5, 5 ) V4 = ( 0, 5 ) ..
"F1" = FLOOR ..
"S1" = SPACE POLYGON = "P1" ..
"W1" = EXTERIOR-WALL LOCATION = SPACE-V1 HEIGHT = 2 ..
`

func TestConvert_SingleWall(t *testing.T) {
	b := convert(t, singleWallDoc, Options{})

	require.Len(t, b.Stories, 1)
	require.Len(t, b.Spaces, 1)
	require.Len(t, b.Surfaces, 1)
	assert.Empty(t, b.Openings)

	assert.Equal(t, []string{"S1"}, b.Stories[0].Spaces)
	assert.Equal(t, "F1", b.Spaces[0].Story)

	w := b.Surfaces[0]
	assert.Equal(t, "S1", w.Space)
	assert.Equal(t, models.BoundaryOutdoors, w.BoundaryCondition)
	assert.Equal(t, models.SurfaceWall, w.Kind)
	assert.InDelta(t, 10, area(w.Vertices), 1e-9)

	want := []models.Point3{{X: 0, Y: 0, Z: 0}, {X: 5, Y: 0, Z: 0}, {X: 5, Y: 0, Z: 2}, {X: 0, Y: 0, Z: 2}}
	if diff := cmp.Diff(want, w.Vertices, approx); diff != "" {
		t.Errorf("wall vertices mismatch (-want +got):\n%s", diff)
	}
}

func TestConvert_BoxWithFrontWall(t *testing.T) {
	b := convert(t, `
"F1" = FLOOR ..
"S1" = SPACE SHAPE = BOX WIDTH = 4 DEPTH = 3 HEIGHT = 2.5 ..
"W1" = EXTERIOR-WALL LOCATION = FRONT ..
`, Options{})

	require.Len(t, b.Stories, 1)
	require.Len(t, b.Spaces, 1)
	require.Len(t, b.Surfaces, 1)

	w := b.Surfaces[0]
	assert.Equal(t, "W1", w.Name)
	assert.Equal(t, models.BoundaryOutdoors, w.BoundaryCondition)
	assert.Equal(t, models.SurfaceWall, w.Kind)
	assert.InDelta(t, 10, area(w.Vertices), 1e-9)
}

func TestConvert_InteriorWallWithoutNextTo(t *testing.T) {
	b := convert(t, `
"F1" = FLOOR ..
"S1" = SPACE SHAPE = BOX WIDTH = 4 DEPTH = 3 HEIGHT = 2.5 ..
"I1" = INTERIOR-WALL LOCATION = LEFT ..
`, Options{})

	require.Len(t, b.Surfaces, 1)
	w := b.Surface("I1")
	require.NotNil(t, w)
	assert.Equal(t, models.BoundarySurface, w.BoundaryCondition)
	assert.Equal(t, models.SurfaceWall, w.Kind)
	assert.Empty(t, w.AdjacentSurface)
	assert.InDelta(t, 7.5, area(w.Vertices), 1e-9)
	assert.Nil(t, b.Surface(MirrorName("I1")))
}

func TestConvert_NoShapeWallStaysVertical(t *testing.T) {
	b := convert(t, `
"F1" = FLOOR ..
"S1" = SPACE ..
"W1" = EXTERIOR-WALL LOCATION = FRONT WIDTH = 4 HEIGHT = 2.5 ..
`, Options{})

	w := b.Surface("W1")
	require.NotNil(t, w)
	assert.Equal(t, models.SurfaceWall, w.Kind)
	assert.InDelta(t, 10, area(w.Vertices), 1e-9)
}

func TestConvert_UnresolvedPolygon(t *testing.T) {
	doc := `
"F1" = FLOOR ..
"S1" = SPACE POLYGON = "P1" ..
"W1" = EXTERIOR-WALL LOCATION = SPACE-V1 HEIGHT = 2 ..
`
	b, err := New(nil, Options{}).Convert(context.Background(), strings.NewReader(doc))
	require.Error(t, err)
	assert.Nil(t, b)
	assert.ErrorIs(t, err, models.ErrUnresolvedReference)
	assert.Contains(t, err.Error(), "P1")
	assert.Equal(t, "unresolved_reference", Status(err))
}

func TestConvert_Failures(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{
			name: "missing terminator",
			doc:  `"F1" = FLOOR`,
			want: models.ErrMalformedCommand,
		},
		{
			name: "bad number",
			doc: `
"F1" = FLOOR Z = abc ..
"S1" = SPACE SHAPE = BOX WIDTH = 1 DEPTH = 1 ..`,
			want: models.ErrMalformedCommand,
		},
		{
			name: "no-shape space",
			doc: `
"F1" = FLOOR ..
"S1" = SPACE HEIGHT = 3 ..
"W1" = EXTERIOR-WALL LOCATION = FRONT ..`,
			want: models.ErrUnsupportedGeometry,
		},
		{
			name: "space outside a floor",
			doc:  `"S1" = SPACE SHAPE = BOX WIDTH = 1 DEPTH = 1 ..`,
			want: models.ErrInconsistentExport,
		},
		{
			name: "duplicate space names",
			doc: `
"F1" = FLOOR ..
"S1" = SPACE SHAPE = BOX WIDTH = 1 DEPTH = 1 ..
"S1" = SPACE SHAPE = BOX WIDTH = 1 DEPTH = 1 ..`,
			want: models.ErrInconsistentExport,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := New(nil, Options{}).Convert(context.Background(), strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Nil(t, b)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

const houseDoc = `
"Plan" = POLYGON V1 = ( 0, 0 ) V2 = ( 6, 0 ) V3 = ( 6, 4 ) V4 = ( 0, 4 ) ..
"Ins" = MATERIAL TYPE = RESISTANCE RESISTANCE = 4 ..
"WL" = LAYERS MATERIAL = ( "Ins" ) ..
"Wall Cons" = CONSTRUCTION TYPE = LAYERS LAYERS = "WL" ..
"Ground Floor" = FLOOR Z = 0 FLOOR-HEIGHT = 3 ..
"Living" = SPACE POLYGON = "Plan" HEIGHT = 3 ..
"South" = EXTERIOR-WALL LOCATION = SPACE-V1 CONSTRUCTION = "Wall Cons" ..
"Entry" = DOOR X = 1 WIDTH = 1 HEIGHT = 2 ..
"Glazing" = WINDOW X = 3 Y = 1 WIDTH = 2 HEIGHT = 1 OVERHANG-D = 0.6 ..
"Party" = INTERIOR-WALL LOCATION = SPACE-V2 NEXT-TO = "Kitchen" ..
"Roof" = ROOF LOCATION = TOP ..
"Slab" = UNDERGROUND-WALL LOCATION = BOTTOM ..
"Kitchen" = SPACE X = 6 SHAPE = BOX WIDTH = 4 DEPTH = 4 HEIGHT = 3 ..
"HVAC" = SYSTEM ..
"Living Zone" = ZONE SPACE = "Living" ..
"Kitchen Zone" = ZONE SPACE = "Kitchen" ..
`

func TestConvert_House(t *testing.T) {
	b := convert(t, houseDoc, Options{})

	require.Len(t, b.Spaces, 2)
	require.Len(t, b.Zones, 2)
	assert.Equal(t, "Living Zone", b.Space("Living").Zone)
	assert.Equal(t, "HVAC", b.Zone("Kitchen Zone").System)

	south := b.Surface("South")
	require.NotNil(t, south)
	assert.Equal(t, "Wall Cons", south.Construction)
	require.NotNil(t, south.UValue)
	assert.InDelta(t, 0.25, *south.UValue, 1e-12)
	assert.Equal(t, []string{"Entry", "Glazing"}, south.Openings)

	roof := b.Surface("Roof")
	assert.Equal(t, models.SurfaceRoofCeiling, roof.Kind)
	assert.Equal(t, models.BoundaryOutdoors, roof.BoundaryCondition)
	assert.InDelta(t, 24, area(roof.Vertices), 1e-9)

	slab := b.Surface("Slab")
	assert.Equal(t, models.SurfaceFloor, slab.Kind)
	assert.Equal(t, models.BoundaryGround, slab.BoundaryCondition)

	door := b.Opening("Entry")
	assert.Equal(t, models.OpeningDoor, door.Kind)
	assert.Nil(t, door.Overhang)

	window := b.Opening("Glazing")
	assert.Equal(t, models.OpeningWindow, window.Kind)
	require.NotNil(t, window.Overhang)
	assert.Equal(t, 0.6, window.Overhang.Depth)
	assert.InDelta(t, 2*0.6, area(window.Overhang.Vertices), 1e-9)
}

func TestConvert_InteriorWallMirror(t *testing.T) {
	b := convert(t, houseDoc, Options{})

	party := b.Surface("Party")
	mirror := b.Surface(MirrorName("Party"))
	require.NotNil(t, party)
	require.NotNil(t, mirror)

	assert.Equal(t, "Living", party.Space)
	assert.Equal(t, "Kitchen", mirror.Space)
	assert.Equal(t, models.BoundarySurface, party.BoundaryCondition)
	assert.Equal(t, models.BoundarySurface, mirror.BoundaryCondition)
	assert.Equal(t, mirror.Name, party.AdjacentSurface)
	assert.Equal(t, party.Name, mirror.AdjacentSurface)
	assert.Contains(t, b.Space("Kitchen").Surfaces, mirror.Name)

	// The shared wall is the kitchen's x = 0 plane.
	for _, v := range mirror.Vertices {
		assert.InDelta(t, 0, v.X, 1e-9)
	}
	assert.InDelta(t, area(party.Vertices), area(mirror.Vertices), 1e-9)
}

func TestConvert_Scale(t *testing.T) {
	const ft = 0.3048
	b := convert(t, `
"F1" = FLOOR Z = 10 ..
"S1" = SPACE X = 2 SHAPE = BOX WIDTH = 5 DEPTH = 5 HEIGHT = 2 ..
"W1" = EXTERIOR-WALL LOCATION = FRONT ..
`, Options{Scale: ft, Unit: "m"})

	assert.Equal(t, "m", b.Unit)
	assert.InDelta(t, 10*ft, b.Stories[0].Placement.Origin.Z, 1e-12)
	assert.InDelta(t, 2*ft, b.Spaces[0].Placement.Origin.X, 1e-12)
	assert.InDelta(t, 10*ft*ft, area(b.Surfaces[0].Vertices), 1e-12)
}

func TestConvert_HandlesAreUnique(t *testing.T) {
	b := convert(t, houseDoc, Options{})

	seen := map[string]bool{b.ID: true}
	var handles []string
	for _, s := range b.Stories {
		handles = append(handles, s.Handle)
	}
	for _, s := range b.Spaces {
		handles = append(handles, s.Handle)
	}
	for _, z := range b.Zones {
		handles = append(handles, z.Handle)
	}
	for _, s := range b.Surfaces {
		handles = append(handles, s.Handle)
	}
	for _, o := range b.Openings {
		handles = append(handles, o.Handle)
	}

	for _, h := range handles {
		_, err := uuid.Parse(h)
		require.NoError(t, err)
		assert.False(t, seen[h], "duplicate handle %s", h)
		seen[h] = true
	}
}

func TestConvert_Deterministic(t *testing.T) {
	a := convert(t, houseDoc, Options{})
	b := convert(t, houseDoc, Options{})

	ignoreHandles := cmpopts.IgnoreFields(models.Surface{}, "Handle")
	if diff := cmp.Diff(a.Surfaces, b.Surfaces, ignoreHandles, approx); diff != "" {
		t.Errorf("surfaces differ between runs (-a +b):\n%s", diff)
	}
}

func TestStatus(t *testing.T) {
	assert.Equal(t, "ok", Status(nil))
	assert.Equal(t, "error", Status(errors.New("boom")))
	assert.Equal(t, "inconsistent_export", Status(&models.Error{Kind: models.KindInconsistentExport}))
}
