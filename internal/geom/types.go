package geom

import "math"

// Kind is the geometry type of a feature.
type Kind uint8

const (
	Point Kind = iota + 1
	MultiPoint
	LineString
	MultiLineString
	Polygon
	MultiPolygon
)

func (k Kind) String() string {
	switch k {
	case Point:
		return "Point"
	case MultiPoint:
		return "MultiPoint"
	case LineString:
		return "LineString"
	case MultiLineString:
		return "MultiLineString"
	case Polygon:
		return "Polygon"
	case MultiPolygon:
		return "MultiPolygon"
	}
	return "Unknown"
}

// BBox is an axis-aligned box in projected [0,1] space.
type BBox struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// EmptyBBox returns a box that any Extend call replaces.
func EmptyBBox() BBox {
	return BBox{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
}

// Extend grows the box to include (x, y).
func (b *BBox) Extend(x, y float64) {
	if x < b.MinX {
		b.MinX = x
	}
	if y < b.MinY {
		b.MinY = y
	}
	if x > b.MaxX {
		b.MaxX = x
	}
	if y > b.MaxY {
		b.MaxY = y
	}
}

// Union grows the box to include o.
func (b *BBox) Union(o BBox) {
	if o.MinX < b.MinX {
		b.MinX = o.MinX
	}
	if o.MinY < b.MinY {
		b.MinY = o.MinY
	}
	if o.MaxX > b.MaxX {
		b.MaxX = o.MaxX
	}
	if o.MaxY > b.MaxY {
		b.MaxY = o.MaxY
	}
}

// Vertex is one projected coordinate.
//
// Importance is the simplifier's score: the vertex survives a tile tolerance t
// when Importance > t*t. Keep marks ring endpoints and clip intersections,
// which survive every tolerance.
type Vertex struct {
	X          float64
	Y          float64
	Alt        float64
	Importance float64
	Keep       bool
}

// Ring is an open line or a closed polygon ring.
//
// Size is the line length or the absolute ring area. Start and End locate the
// ring along its original, unclipped line, in the same units as Size.
type Ring struct {
	Points []Vertex
	Size   float64
	Start  float64
	End    float64
}

// Shift returns a copy of the ring moved by dx along x.
func (r Ring) Shift(dx float64) Ring {
	pts := make([]Vertex, len(r.Points))
	for i, p := range r.Points {
		p.X += dx
		pts[i] = p
	}
	return Ring{Points: pts, Size: r.Size, Start: r.Start, End: r.End}
}

// Geometry holds the coordinates of a feature. Which field is used depends
// on the feature kind:
//
//	Point, MultiPoint               Points
//	LineString                      Rings (exactly one)
//	MultiLineString, Polygon        Rings
//	MultiPolygon                    Polygons
type Geometry struct {
	Points   []Vertex
	Rings    []Ring
	Polygons [][]Ring
}

// Shift returns a copy of g moved by dx along x.
func (g Geometry) Shift(dx float64) Geometry {
	var out Geometry
	if g.Points != nil {
		out.Points = Ring{Points: g.Points}.Shift(dx).Points
	}
	if g.Rings != nil {
		out.Rings = shiftRings(g.Rings, dx)
	}
	if g.Polygons != nil {
		out.Polygons = make([][]Ring, len(g.Polygons))
		for i, poly := range g.Polygons {
			out.Polygons[i] = shiftRings(poly, dx)
		}
	}
	return out
}

func shiftRings(rings []Ring, dx float64) []Ring {
	out := make([]Ring, len(rings))
	for i, r := range rings {
		out[i] = r.Shift(dx)
	}
	return out
}
