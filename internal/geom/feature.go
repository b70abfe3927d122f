package geom

// Feature is a projected feature ready for clipping. Its geometry is owned
// by the feature; clipping and shifting always build new geometry.
type Feature struct {
	ID       any
	Kind     Kind
	Geometry Geometry
	Tags     map[string]any
	Layer    string
	BBox     BBox
}

// NewFeature builds a feature and computes its bounding box over every
// vertex of every ring, holes included.
func NewFeature(id any, kind Kind, g Geometry, tags map[string]any, layer string) *Feature {
	f := &Feature{
		ID:       id,
		Kind:     kind,
		Geometry: g,
		Tags:     tags,
		Layer:    layer,
		BBox:     EmptyBBox(),
	}
	switch kind {
	case Point, MultiPoint:
		extendPoints(&f.BBox, g.Points)
	case LineString, MultiLineString, Polygon:
		for _, r := range g.Rings {
			extendPoints(&f.BBox, r.Points)
		}
	case MultiPolygon:
		for _, poly := range g.Polygons {
			for _, r := range poly {
				extendPoints(&f.BBox, r.Points)
			}
		}
	}
	return f
}

func extendPoints(b *BBox, pts []Vertex) {
	for _, p := range pts {
		b.Extend(p.X, p.Y)
	}
}

// NumPoints counts the vertices of the feature.
func (f *Feature) NumPoints() int {
	n := len(f.Geometry.Points)
	for _, r := range f.Geometry.Rings {
		n += len(r.Points)
	}
	for _, poly := range f.Geometry.Polygons {
		for _, r := range poly {
			n += len(r.Points)
		}
	}
	return n
}
