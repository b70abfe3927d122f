// Package tile builds renderable tiles from clipped features.
package tile

import (
	"encoding/json"
	"maps"
	"slices"

	"geovt/internal/geom"
)

// GeomType is the rendered geometry class of a tile feature.
type GeomType uint8

const (
	TypePoint   GeomType = 1
	TypeLine    GeomType = 2
	TypePolygon GeomType = 3
)

func typeOf(k geom.Kind) GeomType {
	switch k {
	case geom.Point, geom.MultiPoint:
		return TypePoint
	case geom.LineString, geom.MultiLineString:
		return TypeLine
	case geom.Polygon, geom.MultiPolygon:
		return TypePolygon
	}
	return 0
}

// Point is a vertex in tile-local integer space.
type Point struct {
	X   int64
	Y   int64
	Alt float64
}

type coord struct {
	x, y, alt float64
}

// Feature is one feature of a tile. Geometry is filled in by Transform;
// point features keep all their points in a single ring.
type Feature struct {
	Type     GeomType
	Geometry [][]Point
	Tags     map[string]any
	Layer    string
	ID       any

	rings    [][]coord
	altitude bool
}

// Tile is the simplified content of one z/x/y tile.
type Tile struct {
	Features      []*Feature
	NumPoints     int
	NumSimplified int
	NumFeatures   int
	Z, X, Y       int
	Transformed   bool
	BBox          geom.BBox

	source []*geom.Feature
}

// New builds the tile z/x/y from features already clipped to it (plus
// buffer). Below opts.MaxZoom, vertices and rings too small to matter at
// zoom z are dropped.
func New(features []*geom.Feature, z, x, y int, opts Options) *Tile {
	tolerance := 0.0
	if z != opts.MaxZoom {
		tolerance = opts.Tolerance / (float64(int64(1)<<z) * float64(opts.Extent))
	}
	t := &Tile{
		NumFeatures: len(features),
		Z:           z,
		X:           x,
		Y:           y,
		BBox:        geom.BBox{MinX: 2, MinY: 1, MaxX: -1, MaxY: 0},
	}
	for _, f := range features {
		t.addFeature(f, tolerance, opts)
		t.BBox.Union(f.BBox)
	}
	return t
}

func (t *Tile) addFeature(f *geom.Feature, tolerance float64, opts Options) {
	var rings [][]coord
	switch f.Kind {
	case geom.Point, geom.MultiPoint:
		ring := make([]coord, 0, len(f.Geometry.Points))
		for _, p := range f.Geometry.Points {
			ring = append(ring, coord{p.X, p.Y, p.Alt})
			t.NumPoints++
			t.NumSimplified++
		}
		if len(ring) > 0 {
			rings = append(rings, ring)
		}
	case geom.LineString, geom.MultiLineString:
		for _, r := range f.Geometry.Rings {
			rings = t.addRing(rings, r, tolerance, false, false)
		}
	case geom.Polygon:
		for i, r := range f.Geometry.Rings {
			rings = t.addRing(rings, r, tolerance, true, i == 0)
		}
	case geom.MultiPolygon:
		for _, poly := range f.Geometry.Polygons {
			for i, r := range poly {
				rings = t.addRing(rings, r, tolerance, true, i == 0)
			}
		}
	}
	if len(rings) == 0 {
		return
	}

	tags := f.Tags
	if f.Kind == geom.LineString && opts.LineMetrics {
		line := f.Geometry.Rings[0]
		tags = make(map[string]any, len(f.Tags)+2)
		maps.Copy(tags, f.Tags)
		start, end := 0.0, 1.0
		if line.Size > 0 {
			start, end = line.Start/line.Size, line.End/line.Size
		}
		tags["clip_start"] = start
		tags["clip_end"] = end
	}

	t.Features = append(t.Features, &Feature{
		Type:     typeOf(f.Kind),
		Tags:     tags,
		Layer:    f.Layer,
		ID:       f.ID,
		rings:    rings,
		altitude: opts.HasAltitude,
	})
}

// addRing filters r down to the vertices that matter at tolerance and
// appends it to out. Rings smaller than the tolerance are dropped but their
// vertices still count towards NumPoints.
func (t *Tile) addRing(out [][]coord, r geom.Ring, tolerance float64, isPolygon, isOuter bool) [][]coord {
	sqTolerance := tolerance * tolerance
	limit := tolerance
	if isPolygon {
		limit = sqTolerance
	}
	if tolerance > 0 && r.Size < limit {
		t.NumPoints += len(r.Points)
		return out
	}

	ring := make([]coord, 0, len(r.Points))
	for _, p := range r.Points {
		if tolerance == 0 || p.Keep || p.Importance > sqTolerance {
			t.NumSimplified++
			ring = append(ring, coord{p.X, p.Y, p.Alt})
		}
		t.NumPoints++
	}
	if isPolygon {
		rewind(ring, isOuter)
	}
	return append(out, ring)
}

// rewind orients ring in place: clockwise on a y-down plane when clockwise
// is set (outer rings), counter-clockwise otherwise (holes).
func rewind(ring []coord, clockwise bool) {
	area := 0.0
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		area += (ring[i].x - ring[j].x) * (ring[i].y + ring[j].y)
	}
	if (area > 0) == clockwise {
		slices.Reverse(ring)
	}
}

// MarshalJSON encodes the feature in tile coordinates. Point features are
// written as a flat list of points.
func (f *Feature) MarshalJSON() ([]byte, error) {
	out := struct {
		Geometry any            `json:"geometry"`
		Type     GeomType       `json:"type"`
		Tags     map[string]any `json:"tags"`
		Layer    string         `json:"layer,omitempty"`
		ID       any            `json:"id,omitempty"`
	}{
		Type:  f.Type,
		Tags:  f.Tags,
		Layer: f.Layer,
		ID:    f.ID,
	}
	rings := make([][][]float64, len(f.Geometry))
	for i, ring := range f.Geometry {
		rings[i] = make([][]float64, len(ring))
		for j, p := range ring {
			v := []float64{float64(p.X), float64(p.Y)}
			if f.altitude {
				v = append(v, p.Alt)
			}
			rings[i][j] = v
		}
	}
	if f.Type == TypePoint {
		var pts [][]float64
		for _, r := range rings {
			pts = append(pts, r...)
		}
		out.Geometry = pts
	} else {
		out.Geometry = rings
	}
	return json.Marshal(out)
}
