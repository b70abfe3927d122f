// Package clip cuts projected features against axis-parallel bands.
package clip

import (
	"math"

	"geovt/internal/geom"
)

// Axis selects the coordinate a band is measured on.
type Axis int

const (
	AxisX Axis = iota
	AxisY
)

func (a Axis) of(v geom.Vertex) float64 {
	if a == AxisX {
		return v.X
	}
	return v.Y
}

func (a Axis) bounds(b geom.BBox) (lo, hi float64) {
	if a == AxisX {
		return b.MinX, b.MaxX
	}
	return b.MinY, b.MaxY
}

// Options controls clipping behaviour.
type Options struct {
	// LineMetrics tracks start/end along the original line and emits every
	// clipped LineString piece as its own feature.
	LineMetrics bool
}

// Clip keeps the parts of features between k1/scale and k2/scale on axis.
// minAll and maxAll bound the whole set on that axis. The input slice is
// returned as-is when every feature lies inside the band; nil is returned
// when nothing survives.
//
//	   |        |
//	___|___     |     /
//	/  |   \____|____/
//	   |        |
func Clip(features []*geom.Feature, scale, k1, k2 float64, axis Axis, minAll, maxAll float64, opts Options) []*geom.Feature {
	k1 /= scale
	k2 /= scale

	if minAll >= k1 && maxAll < k2 {
		return features
	} else if maxAll < k1 || minAll >= k2 {
		return nil
	}

	var clipped []*geom.Feature
	for _, f := range features {
		lo, hi := axis.bounds(f.BBox)
		if lo >= k1 && hi < k2 {
			clipped = append(clipped, f)
			continue
		} else if hi < k1 || lo >= k2 {
			continue
		}

		kind := f.Kind
		var g geom.Geometry
		switch kind {
		case geom.Point, geom.MultiPoint:
			g.Points = clipPoints(f.Geometry.Points, k1, k2, axis)
			if len(g.Points) == 0 {
				continue
			}
			kind = geom.MultiPoint
			if len(g.Points) == 1 {
				kind = geom.Point
			}

		case geom.LineString, geom.MultiLineString:
			trackMetrics := opts.LineMetrics && kind == geom.LineString
			for _, r := range f.Geometry.Rings {
				g.Rings = clipLine(g.Rings, r, k1, k2, axis, false, trackMetrics)
			}
			if len(g.Rings) == 0 {
				continue
			}
			if trackMetrics {
				for _, r := range g.Rings {
					clipped = append(clipped, geom.NewFeature(f.ID, geom.LineString, geom.Geometry{Rings: []geom.Ring{r}}, f.Tags, f.Layer))
				}
				continue
			}
			kind = geom.MultiLineString
			if len(g.Rings) == 1 {
				kind = geom.LineString
			}

		case geom.Polygon:
			for _, r := range f.Geometry.Rings {
				g.Rings = clipLine(g.Rings, r, k1, k2, axis, true, false)
			}
			if len(g.Rings) == 0 {
				continue
			}

		case geom.MultiPolygon:
			for _, poly := range f.Geometry.Polygons {
				var rings []geom.Ring
				for _, r := range poly {
					rings = clipLine(rings, r, k1, k2, axis, true, false)
				}
				if len(rings) > 0 {
					g.Polygons = append(g.Polygons, rings)
				}
			}
			if len(g.Polygons) == 0 {
				continue
			}
		}

		clipped = append(clipped, geom.NewFeature(f.ID, kind, g, f.Tags, f.Layer))
	}
	return clipped
}

func clipPoints(pts []geom.Vertex, k1, k2 float64, axis Axis) []geom.Vertex {
	var out []geom.Vertex
	for _, p := range pts {
		if a := axis.of(p); a >= k1 && a <= k2 {
			out = append(out, p)
		}
	}
	return out
}

// clipLine appends the pieces of ring inside [k1, k2] to out. Open lines
// are split where they leave the band; polygon rings stay one piece and are
// closed again if clipping separated their endpoints.
func clipLine(out []geom.Ring, ring geom.Ring, k1, k2 float64, axis Axis, isPolygon, trackMetrics bool) []geom.Ring {
	slice := newPiece(ring)
	length := ring.Start
	var segLen, t float64

	pts := ring.Points
	for i := 0; i+1 < len(pts); i++ {
		a, b := pts[i], pts[i+1]
		ak, bk := axis.of(a), axis.of(b)
		exited := false

		if trackMetrics {
			segLen = math.Sqrt((a.X-b.X)*(a.X-b.X) + (a.Y-b.Y)*(a.Y-b.Y))
		}

		switch {
		case ak < k1:
			// ---|-->  | enters from below k1
			if bk > k1 {
				t = slice.intersect(a, b, k1, axis)
				if trackMetrics {
					slice.Start = length + segLen*t
				}
			}
		case ak > k2:
			// |  <--|--- enters from above k2
			if bk < k2 {
				t = slice.intersect(a, b, k2, axis)
				if trackMetrics {
					slice.Start = length + segLen*t
				}
			}
		default:
			slice.Points = append(slice.Points, a)
		}
		if bk < k1 && ak >= k1 {
			// <--|---  | leaves below k1
			t = slice.intersect(a, b, k1, axis)
			exited = true
		}
		if bk > k2 && ak <= k2 {
			// |  ---|--> leaves above k2
			t = slice.intersect(a, b, k2, axis)
			exited = true
		}

		if !isPolygon && exited {
			if trackMetrics {
				slice.End = length + segLen*t
			}
			out = append(out, slice.Ring)
			slice = newPiece(ring)
		}

		if trackMetrics {
			length += segLen
		}
	}

	if n := len(pts); n > 0 {
		last := pts[n-1]
		if a := axis.of(last); a >= k1 && a <= k2 {
			slice.Points = append(slice.Points, last)
		}
	}

	if n := len(slice.Points); isPolygon && n >= 2 {
		first, last := slice.Points[0], slice.Points[n-1]
		if first.X != last.X || first.Y != last.Y {
			slice.Points = append(slice.Points, first)
		}
	}

	if len(slice.Points) > 0 {
		out = append(out, slice.Ring)
	}
	return out
}

type piece struct {
	geom.Ring
}

func newPiece(r geom.Ring) *piece {
	return &piece{geom.Ring{Size: r.Size, Start: r.Start, End: r.End}}
}

// intersect appends the point where a-b crosses k on axis and returns the
// crossing's fraction along a-b.
func (s *piece) intersect(a, b geom.Vertex, k float64, axis Axis) float64 {
	var t float64
	v := geom.Vertex{Keep: true}
	if axis == AxisX {
		t = (k - a.X) / (b.X - a.X)
		v.X = k
		v.Y = a.Y + (b.Y-a.Y)*t
	} else {
		t = (k - a.Y) / (b.Y - a.Y)
		v.X = a.X + (b.X-a.X)*t
		v.Y = k
	}
	v.Alt = a.Alt + (b.Alt-a.Alt)*t
	s.Points = append(s.Points, v)
	return t
}
