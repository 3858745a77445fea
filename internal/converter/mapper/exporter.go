package mapper

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"building-converter/internal/common/logging"
	"building-converter/internal/converter/geometry"
	"building-converter/internal/converter/graph"
	"building-converter/internal/converter/models"
)

// ============================================================
// Exporter
// ============================================================

// Target receives exported objects. Parents are always added before their
// children; a lookup of a missing parent fails with InconsistentExport.
type Target interface {
	AddStory(name string, placement models.Placement, height float64) (*models.Story, error)
	AddSpace(name, story string, placement models.Placement) (*models.Space, error)
	AddZone(name, space string) (*models.Zone, error)
	AddSurface(name, space string, vertices []models.Point3, bc models.BoundaryCondition, kind models.SurfaceKind) (*models.Surface, error)
	AddOpening(name, surface string, vertices []models.Point3, kind models.OpeningKind, overhang *models.Overhang) (*models.Opening, error)
}

// Options controls unit conversion of exported coordinates.
type Options struct {
	// Scale multiplies every vertex and story/space origin. Zero means 1.
	Scale float64
	// Unit is recorded on the exported building.
	Unit string
}

func (o Options) scale() float64 {
	if o.Scale == 0 {
		return 1
	}
	return o.Scale
}

// horizontal is the |nz| above which a surface is a floor or a ceiling.
const horizontal = 0.5

// Exporter walks resolved commands and feeds a Target.
type Exporter struct {
	engine *geometry.Engine
	refs   *graph.References
	opts   Options
}

func NewExporter(engine *geometry.Engine, refs *graph.References, opts Options) *Exporter {
	return &Exporter{engine: engine, refs: refs, opts: opts}
}

// Export emits stories, spaces, zones, surfaces and openings, in that order.
func (x *Exporter) Export(ctx context.Context, commands []*models.Command, target Target) error {
	log := logging.FromContext(ctx)

	var floors, spaces, zones, surfaces, openings []*models.Command
	for _, cmd := range commands {
		switch kind := models.GeometryKindOf(cmd.Keyword); {
		case kind == models.KindFloor:
			floors = append(floors, cmd)
		case kind == models.KindSpace:
			spaces = append(spaces, cmd)
		case kind.IsSurface():
			surfaces = append(surfaces, cmd)
		case kind.IsOpening():
			openings = append(openings, cmd)
		case cmd.Keyword == "ZONE":
			zones = append(zones, cmd)
		}
	}

	for _, cmd := range floors {
		if err := x.exportStory(cmd, target); err != nil {
			return err
		}
	}
	for _, cmd := range spaces {
		if err := x.exportSpace(cmd, target); err != nil {
			return err
		}
	}
	for _, cmd := range zones {
		if err := x.exportZone(cmd, target); err != nil {
			return err
		}
	}
	for _, cmd := range surfaces {
		if err := x.exportSurface(ctx, cmd, target); err != nil {
			return err
		}
	}
	for _, cmd := range openings {
		if err := x.exportOpening(cmd, target); err != nil {
			return err
		}
	}

	log.Info("building exported",
		"stories", len(floors),
		"spaces", len(spaces),
		"zones", len(zones),
		"surfaces", len(surfaces),
		"openings", len(openings))
	return nil
}

func (x *Exporter) exportStory(cmd *models.Command, target Target) error {
	p, err := x.engine.Placement(cmd)
	if err != nil {
		return err
	}
	height, err := cmd.FloatOr("FLOOR-HEIGHT", 0)
	if err != nil {
		return err
	}
	_, err = target.AddStory(cmd.Name(), x.placement(p), height*x.opts.scale())
	return err
}

func (x *Exporter) exportSpace(cmd *models.Command, target Target) error {
	floor := cmd.Ancestor("FLOOR")
	if floor == nil {
		return models.NewError(models.KindInconsistentExport, cmd, "", "", "space is not nested in a floor")
	}
	p, err := x.engine.Placement(cmd)
	if err != nil {
		return err
	}
	_, err = target.AddSpace(cmd.Name(), floor.Name(), x.placement(p))
	return err
}

func (x *Exporter) exportZone(cmd *models.Command, target Target) error {
	space := x.refs.SpaceOf(cmd)
	if space == nil {
		return models.NewError(models.KindInconsistentExport, cmd, "SPACE", "", "zone has no resolved space")
	}
	zone, err := target.AddZone(cmd.Name(), space.Name())
	if err != nil {
		return err
	}
	if system := cmd.Ancestor("SYSTEM"); system != nil {
		zone.System = system.Name()
	}
	return nil
}

func (x *Exporter) exportSurface(ctx context.Context, cmd *models.Command, target Target) error {
	space := cmd.Ancestor("SPACE")
	if space == nil {
		return models.NewError(models.KindInconsistentExport, cmd, "", "", "surface is not nested in a space")
	}

	world, err := x.engine.Vertices(cmd)
	if err != nil {
		return err
	}
	local, err := x.relativeTo(space, world)
	if err != nil {
		return err
	}

	kind := models.GeometryKindOf(cmd.Keyword)
	next := x.refs.NextTo(cmd)

	surface, err := target.AddSurface(cmd.Name(), space.Name(), local, boundaryCondition(kind), surfaceKind(kind, world))
	if err != nil {
		return err
	}
	x.attachConstruction(ctx, cmd, surface)

	if next == nil {
		return nil
	}

	mirrorWorld, err := x.engine.Mirror(cmd)
	if err != nil {
		return err
	}
	mirrorLocal, err := x.relativeTo(next, mirrorWorld)
	if err != nil {
		return err
	}
	mirror, err := target.AddSurface(MirrorName(cmd.Name()), next.Name(), mirrorLocal, models.BoundarySurface, surfaceKind(kind, mirrorWorld))
	if err != nil {
		return err
	}
	x.attachConstruction(ctx, cmd, mirror)

	surface.AdjacentSurface = mirror.Name
	mirror.AdjacentSurface = surface.Name
	return nil
}

func (x *Exporter) exportOpening(cmd *models.Command, target Target) error {
	parent := cmd.Parent()
	space := cmd.Ancestor("SPACE")
	if parent == nil || space == nil || !models.GeometryKindOf(parent.Keyword).IsSurface() {
		return models.NewError(models.KindInconsistentExport, cmd, "", "", "opening is not nested in a surface of a space")
	}

	world, err := x.engine.Vertices(cmd)
	if err != nil {
		return err
	}
	local, err := x.relativeTo(space, world)
	if err != nil {
		return err
	}

	var overhang *models.Overhang
	oh, ok, err := x.engine.Overhang(cmd)
	if err != nil {
		return err
	}
	if ok {
		vertices, err := x.relativeTo(space, oh.Vertices)
		if err != nil {
			return err
		}
		overhang = &models.Overhang{
			Depth:    oh.Depth * x.opts.scale(),
			Offset:   oh.Offset * x.opts.scale(),
			Vertices: vertices,
		}
	}

	kind := models.OpeningWindow
	if models.GeometryKindOf(cmd.Keyword) == models.KindDoor {
		kind = models.OpeningDoor
	}
	_, err = target.AddOpening(cmd.Name(), parent.Name(), local, kind, overhang)
	return err
}

// attachConstruction records the construction name and its U-value when one
// can be computed. A construction without enough data is exported bare.
func (x *Exporter) attachConstruction(ctx context.Context, cmd *models.Command, surface *models.Surface) {
	cons := x.refs.Construction(cmd)
	if cons == nil {
		return
	}
	surface.Construction = cons.Name()

	u, err := x.refs.UValue(cons)
	if err != nil {
		logging.FromContext(ctx).Debug("u-value unavailable", "surface", surface.Name, "construction", cons.Name(), "error", err)
		return
	}
	surface.UValue = &u
}

// ============================================================
// Helpers
// ============================================================

// MirrorName names the counterpart of an interior surface in the adjacent space.
func MirrorName(name string) string {
	return name + " Reversed"
}

func (x *Exporter) placement(p *geometry.Placement) models.Placement {
	return models.Placement{
		Origin:  x.point(p.Origin),
		Azimuth: p.Azimuth,
	}
}

// relativeTo maps absolute points into the frame of a space.
func (x *Exporter) relativeTo(space *models.Command, world []r3.Vec) ([]models.Point3, error) {
	sp, err := x.engine.Placement(space)
	if err != nil {
		return nil, err
	}
	inv := sp.World.Inverse()
	out := make([]models.Point3, len(world))
	for i, p := range world {
		out[i] = x.point(inv.Apply(p))
	}
	return out, nil
}

func (x *Exporter) point(v r3.Vec) models.Point3 {
	s := x.opts.scale()
	return models.Point3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

func boundaryCondition(kind models.GeometryKind) models.BoundaryCondition {
	switch kind {
	case models.KindUndergroundWall:
		return models.BoundaryGround
	case models.KindInteriorWall:
		return models.BoundarySurface
	}
	return models.BoundaryOutdoors
}

// surfaceKind classifies by the outward normal of the absolute ring.
func surfaceKind(kind models.GeometryKind, world []r3.Vec) models.SurfaceKind {
	n := geometry.Normal(world)
	switch {
	case n.Z >= horizontal:
		return models.SurfaceRoofCeiling
	case n.Z <= -horizontal:
		if kind == models.KindExteriorWall || kind == models.KindRoof {
			return models.SurfaceRoofCeiling
		}
		return models.SurfaceFloor
	}
	return models.SurfaceWall
}

var _ Target = (*models.Building)(nil)

func stageError(stage string, err error) error {
	return fmt.Errorf("%s: %w", stage, err)
}
