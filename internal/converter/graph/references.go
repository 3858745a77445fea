package graph

import (
	"context"
	"fmt"
	"strings"

	"building-converter/internal/common/logging"
	"building-converter/internal/converter/models"
)

// ============================================================
// Reference Resolver
// ============================================================

// Library is the read-only fallback store for materials and layers that a
// document uses without defining them.
type Library interface {
	Material(ctx context.Context, name string) (*models.Command, bool, error)
	Layer(ctx context.Context, name string) (*models.Command, bool, error)
}

// References holds the cross links found by Resolve. Commands themselves are
// not modified.
type References struct {
	polygons      map[*models.Command]*models.Command
	constructions map[*models.Command]*models.Command
	layers        map[*models.Command]*models.Command
	materials     map[*models.Command][]*models.Command
	zoneSpace     map[*models.Command]*models.Command
	spaceZone     map[*models.Command]*models.Command
	nextTo        map[*models.Command]*models.Command
}

func newReferences() *References {
	return &References{
		polygons:      make(map[*models.Command]*models.Command),
		constructions: make(map[*models.Command]*models.Command),
		layers:        make(map[*models.Command]*models.Command),
		materials:     make(map[*models.Command][]*models.Command),
		zoneSpace:     make(map[*models.Command]*models.Command),
		spaceZone:     make(map[*models.Command]*models.Command),
		nextTo:        make(map[*models.Command]*models.Command),
	}
}

// Polygon returns the POLYGON command referenced by cmd.
func (r *References) Polygon(cmd *models.Command) *models.Command { return r.polygons[cmd] }

// Construction returns the CONSTRUCTION command of a surface.
func (r *References) Construction(surface *models.Command) *models.Command {
	return r.constructions[surface]
}

// Layer returns the LAYERS command of a layered construction.
func (r *References) Layer(construction *models.Command) *models.Command {
	return r.layers[construction]
}

// Materials returns the materials of a LAYERS command in layer order.
func (r *References) Materials(layer *models.Command) []*models.Command {
	return r.materials[layer]
}

// SpaceOf returns the space served by a zone.
func (r *References) SpaceOf(zone *models.Command) *models.Command { return r.zoneSpace[zone] }

// ZoneOf returns the zone serving a space.
func (r *References) ZoneOf(space *models.Command) *models.Command { return r.spaceZone[space] }

// NextTo returns the space on the other side of an interior surface.
func (r *References) NextTo(surface *models.Command) *models.Command { return r.nextTo[surface] }

// Resolver links named entities across a parsed document.
type Resolver struct {
	lib Library
}

// NewResolver creates a resolver. lib may be nil when every material and
// layer is defined in the document.
func NewResolver(lib Library) *Resolver {
	return &Resolver{lib: lib}
}

type index map[string][]*models.Command

func buildIndex(commands []*models.Command) index {
	idx := make(index)
	for _, cmd := range commands {
		if cmd.Identifier == "" {
			continue
		}
		idx[cmd.Identifier] = append(idx[cmd.Identifier], cmd)
	}
	return idx
}

// Resolve runs one pass over the document and returns its links.
func (r *Resolver) Resolve(ctx context.Context, commands []*models.Command) (*References, error) {
	log := logging.FromContext(ctx)
	idx := buildIndex(commands)
	refs := newReferences()

	for _, cmd := range commands {
		kind := models.GeometryKindOf(cmd.Keyword)

		if kind != models.KindNone && kind != models.KindPolygon {
			if name, ok := cmd.StringValue("POLYGON"); ok {
				poly, err := idx.find(cmd, "POLYGON", name, "POLYGON")
				if err != nil {
					return nil, err
				}
				refs.polygons[cmd] = poly
			}
		}

		if kind.IsSurface() {
			if name, ok := cmd.StringValue("CONSTRUCTION"); ok {
				cons, err := idx.find(cmd, "CONSTRUCTION", name, "CONSTRUCTION")
				if err != nil {
					return nil, err
				}
				refs.constructions[cmd] = cons
				if err := r.resolveConstruction(ctx, idx, refs, cons); err != nil {
					return nil, err
				}
			}
			if name, ok := cmd.StringValue("NEXT-TO"); ok {
				space, err := idx.find(cmd, "NEXT-TO", name, "SPACE")
				if err != nil {
					return nil, err
				}
				refs.nextTo[cmd] = space
			}
		}

		if cmd.Keyword == "ZONE" {
			if err := resolveZone(idx, refs, cmd); err != nil {
				return nil, err
			}
		}
	}

	log.Debug("references resolved",
		"polygons", len(refs.polygons),
		"constructions", len(refs.constructions),
		"zones", len(refs.zoneSpace))
	return refs, nil
}

func (r *Resolver) resolveConstruction(ctx context.Context, idx index, refs *References, cons *models.Command) error {
	if _, done := refs.layers[cons]; done {
		return nil
	}
	if !isLayered(cons) {
		return nil
	}

	name, ok := cons.StringValue("LAYERS")
	if !ok {
		return models.NewError(models.KindUnresolvedReference, cons, "LAYERS", "", "layered construction without LAYERS")
	}
	layer, err := r.lookup(ctx, idx, cons, "LAYERS", name, "LAYERS", r.libLayer)
	if err != nil {
		return err
	}
	refs.layers[cons] = layer

	if _, done := refs.materials[layer]; done {
		return nil
	}
	names, _ := layer.List("MATERIAL")
	mats := make([]*models.Command, 0, len(names))
	for _, mname := range names {
		mat, err := r.lookup(ctx, idx, layer, "MATERIAL", mname, "MATERIAL", r.libMaterial)
		if err != nil {
			return err
		}
		mats = append(mats, mat)
	}
	refs.materials[layer] = mats
	return nil
}

func resolveZone(idx index, refs *References, zone *models.Command) error {
	name, ok := zone.StringValue("SPACE")
	if !ok {
		return models.NewError(models.KindUnresolvedReference, zone, "SPACE", "", "zone names no space")
	}
	space, err := idx.find(zone, "SPACE", name, "SPACE")
	if err != nil {
		return err
	}
	if other, taken := refs.spaceZone[space]; taken {
		return models.NewError(models.KindAmbiguousReference, zone, "SPACE", name,
			fmt.Sprintf("space already served by zone %q", other.Name()))
	}
	refs.zoneSpace[zone] = space
	refs.spaceZone[space] = zone
	return nil
}

// ============================================================
// Lookup helpers
// ============================================================

func (idx index) match(from *models.Command, attr, name, keyword string) (*models.Command, bool, error) {
	found := idx[name]
	switch len(found) {
	case 0:
		return nil, false, nil
	case 1:
	default:
		return nil, false, models.NewError(models.KindAmbiguousReference, from, attr, name,
			fmt.Sprintf("%d commands share this identifier", len(found)))
	}
	if found[0].Keyword != keyword {
		return nil, false, models.NewError(models.KindUnresolvedReference, from, attr, name,
			fmt.Sprintf("%q is a %s, not a %s", name, found[0].Keyword, keyword))
	}
	return found[0], true, nil
}

// find resolves a reference that must be defined in the document.
func (idx index) find(from *models.Command, attr, name, keyword string) (*models.Command, error) {
	cmd, ok, err := idx.match(from, attr, name, keyword)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.NewError(models.KindUnresolvedReference, from, attr, name, "no "+keyword+" with this name")
	}
	return cmd, nil
}

type libFunc func(ctx context.Context, name string) (*models.Command, bool, error)

// lookup resolves in-document first and then through the library.
func (r *Resolver) lookup(ctx context.Context, idx index, from *models.Command, attr, name, keyword string, lib libFunc) (*models.Command, error) {
	cmd, ok, err := idx.match(from, attr, name, keyword)
	if err != nil {
		return nil, err
	}
	if ok {
		return cmd, nil
	}

	if r.lib != nil {
		cmd, ok, err = lib(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("library lookup %s %q: %w", keyword, name, err)
		}
		if ok {
			logging.FromContext(ctx).Debug("library fallback", "keyword", keyword, "name", name)
			return cmd, nil
		}
	}
	return nil, models.NewError(models.KindUnresolvedReference, from, attr, name, "not in document or library")
}

func (r *Resolver) libLayer(ctx context.Context, name string) (*models.Command, bool, error) {
	return r.lib.Layer(ctx, name)
}

func (r *Resolver) libMaterial(ctx context.Context, name string) (*models.Command, bool, error) {
	return r.lib.Material(ctx, name)
}

func isLayered(cons *models.Command) bool {
	t, ok := cons.StringValue("TYPE")
	if !ok {
		return cons.Has("LAYERS")
	}
	return strings.EqualFold(t, "LAYERS")
}
