package parser

import (
	"regexp"
	"sort"
	"strconv"

	"building-converter/internal/converter/models"
)

// ============================================================
// Polygon Parser
// ============================================================

var vertexKeyRe = regexp.MustCompile(`^V(\d+)$`)

// PolygonPoints returns the ring of a POLYGON command ordered by vertex index
// (V1, V2, ... Vn), independent of attribute order.
func PolygonPoints(cmd *models.Command) ([]models.Point, error) {
	type indexed struct {
		n int
		p models.Point
	}

	var vertices []indexed
	for _, attr := range cmd.Attributes {
		m := vertexKeyRe.FindStringSubmatch(attr.Key)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])

		coords, _, err := cmd.FloatList(attr.Key)
		if err != nil {
			return nil, err
		}
		if len(coords) != 2 {
			return nil, models.NewError(models.KindMalformedCommand, cmd, attr.Key, attr.Value, "vertex needs ( x, y )")
		}
		vertices = append(vertices, indexed{n: n, p: models.Point{X: coords[0], Y: coords[1]}})
	}

	sort.Slice(vertices, func(i, j int) bool { return vertices[i].n < vertices[j].n })

	points := make([]models.Point, len(vertices))
	for i, v := range vertices {
		points[i] = v.p
	}
	return points, nil
}
