package geo

import (
	"fmt"
	"os"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

const DefaultIDProperty = "id"

// Boundary is one polygonal region with its identifier.
type Boundary struct {
	ID       string
	Geometry orb.Geometry
}

type indexedBoundary struct {
	id       string
	bound    orb.Bound
	geometry orb.Geometry
}

// BoundaryIndex answers point-in-polygon queries. It is immutable after
// construction and safe for concurrent reads.
type BoundaryIndex struct {
	boundaries []indexedBoundary
}

func NewBoundaryIndex(boundaries []Boundary) (*BoundaryIndex, error) {
	out := make([]indexedBoundary, 0, len(boundaries))
	for i, b := range boundaries {
		id := strings.TrimSpace(b.ID)
		if id == "" {
			return nil, fmt.Errorf("boundary %d has no id", i)
		}
		switch b.Geometry.(type) {
		case orb.Polygon, orb.MultiPolygon:
		default:
			return nil, fmt.Errorf("boundary %s: unsupported geometry %T", id, b.Geometry)
		}
		out = append(out, indexedBoundary{
			id:       id,
			bound:    b.Geometry.Bound(),
			geometry: b.Geometry,
		})
	}
	return &BoundaryIndex{boundaries: out}, nil
}

// LoadBoundaryIndex reads a GeoJSON FeatureCollection from path.
func LoadBoundaryIndex(path, idProperty string) (*BoundaryIndex, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read boundary dataset %s: %w", path, err)
	}
	index, err := ParseBoundaryIndex(raw, idProperty)
	if err != nil {
		return nil, fmt.Errorf("parse boundary dataset %s: %w", path, err)
	}
	return index, nil
}

// ParseBoundaryIndex builds an index from GeoJSON. Features without polygonal
// geometry are skipped; features without an id are rejected.
func ParseBoundaryIndex(raw []byte, idProperty string) (*BoundaryIndex, error) {
	if strings.TrimSpace(idProperty) == "" {
		idProperty = DefaultIDProperty
	}

	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return nil, fmt.Errorf("decode feature collection: %w", err)
	}

	boundaries := make([]Boundary, 0, len(fc.Features))
	for i, feature := range fc.Features {
		if feature == nil || feature.Geometry == nil {
			continue
		}
		switch feature.Geometry.(type) {
		case orb.Polygon, orb.MultiPolygon:
		default:
			continue
		}

		id := feature.Properties.MustString(idProperty, "")
		if id == "" {
			if fid, ok := feature.ID.(string); ok {
				id = fid
			}
		}
		if strings.TrimSpace(id) == "" {
			return nil, fmt.Errorf("feature %d has no %q property", i, idProperty)
		}
		boundaries = append(boundaries, Boundary{ID: id, Geometry: feature.Geometry})
	}

	return NewBoundaryIndex(boundaries)
}

// Containing returns the ids of every boundary containing the point, in
// dataset order.
func (i *BoundaryIndex) Containing(lat, lng float64) []string {
	if i == nil {
		return nil
	}

	point := orb.Point{lng, lat}
	var ids []string
	for _, b := range i.boundaries {
		if !b.bound.Contains(point) {
			continue
		}
		if contains(b.geometry, point) {
			ids = append(ids, b.id)
		}
	}
	return ids
}

func (i *BoundaryIndex) Len() int {
	if i == nil {
		return 0
	}
	return len(i.boundaries)
}

func contains(geometry orb.Geometry, point orb.Point) bool {
	switch g := geometry.(type) {
	case orb.Polygon:
		return planar.PolygonContains(g, point)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(g, point)
	default:
		return false
	}
}
