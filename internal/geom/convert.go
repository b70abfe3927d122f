package geom

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/tidwall/gjson"
)

// ErrInvalidGeoJSON is returned for input that is not a GeoJSON object this
// package understands.
var ErrInvalidGeoJSON = errors.New("input data is not a valid GeoJSON object")

// ConvertOptions controls projection and simplification during conversion.
type ConvertOptions struct {
	Tolerance   float64
	MaxZoom     int
	Extent      int
	LineMetrics bool
	HasAltitude bool
	PromoteID   string
	GenerateID  bool
	// Layer tags every feature of a single-layer document.
	Layer string
}

// sqTolerance is the simplification tolerance at MaxZoom, squared, in
// projected units.
func (o ConvertOptions) sqTolerance() float64 {
	t := o.Tolerance / (math.Exp2(float64(o.MaxZoom)) * float64(o.Extent))
	return t * t
}

// Convert projects a GeoJSON document into features. doc is either a single
// GeoJSON object or an array of {"layer": name, "data": object} entries.
func Convert(doc gjson.Result, opts ConvertOptions) ([]*Feature, error) {
	var features []*Feature
	if doc.IsArray() {
		var err error
		doc.ForEach(func(_, entry gjson.Result) bool {
			features, err = convertObject(features, entry.Get("data"), entry.Get("layer").String(), opts)
			return err == nil
		})
		if err != nil {
			return nil, err
		}
		return features, nil
	}
	return convertObject(features, doc, opts.Layer, opts)
}

func convertObject(features []*Feature, obj gjson.Result, layer string, opts ConvertOptions) ([]*Feature, error) {
	if !obj.IsObject() {
		return nil, errors.Wrap(ErrInvalidGeoJSON, "expected an object")
	}
	var err error
	switch obj.Get("type").String() {
	case "FeatureCollection":
		i := 0
		obj.Get("features").ForEach(func(_, f gjson.Result) bool {
			features, err = convertFeature(features, f.Get("id"), f.Get("geometry"), f.Get("properties"), layer, i, opts)
			i++
			return err == nil
		})
	case "Feature":
		features, err = convertFeature(features, obj.Get("id"), obj.Get("geometry"), obj.Get("properties"), layer, 0, opts)
	default:
		// bare geometry or geometry collection
		features, err = convertFeature(features, gjson.Result{}, obj, gjson.Result{}, layer, 0, opts)
	}
	if err != nil {
		return nil, err
	}
	return features, nil
}

func convertFeature(features []*Feature, rawID, geometry, props gjson.Result, layer string, index int, opts ConvertOptions) ([]*Feature, error) {
	if !geometry.IsObject() {
		return features, nil
	}

	tags := properties(props)
	id := rawID.Value()
	switch {
	case opts.PromoteID != "":
		id = tags[opts.PromoteID]
	case opts.GenerateID:
		id = index
	}

	sqTol := opts.sqTolerance()
	coords := geometry.Get("coordinates")
	gt := geometry.Get("type").String()

	var kind Kind
	var g Geometry
	switch gt {
	case "Point":
		kind = Point
		g.Points = []Vertex{convertPoint(coords, opts.HasAltitude)}
	case "MultiPoint":
		kind = MultiPoint
		g.Points = []Vertex{}
		coords.ForEach(func(_, c gjson.Result) bool {
			g.Points = append(g.Points, convertPoint(c, opts.HasAltitude))
			return true
		})
	case "LineString":
		kind = LineString
		g.Rings = []Ring{convertRing(coords, sqTol, false, opts.HasAltitude)}
	case "MultiLineString":
		if opts.LineMetrics {
			// one feature per line so each keeps its own start/end
			coords.ForEach(func(_, line gjson.Result) bool {
				r := convertRing(line, sqTol, false, opts.HasAltitude)
				features = append(features, NewFeature(id, LineString, Geometry{Rings: []Ring{r}}, tags, layer))
				return true
			})
			return features, nil
		}
		kind = MultiLineString
		g.Rings = convertRings(coords, sqTol, false, opts.HasAltitude)
	case "Polygon":
		kind = Polygon
		g.Rings = convertRings(coords, sqTol, true, opts.HasAltitude)
	case "MultiPolygon":
		kind = MultiPolygon
		g.Polygons = [][]Ring{}
		coords.ForEach(func(_, poly gjson.Result) bool {
			g.Polygons = append(g.Polygons, convertRings(poly, sqTol, true, opts.HasAltitude))
			return true
		})
	case "GeometryCollection":
		var err error
		geometry.Get("geometries").ForEach(func(_, member gjson.Result) bool {
			// members share the collection's id and properties
			features, err = convertFeature(features, rawID, member, props, layer, index, opts)
			return err == nil
		})
		return features, err
	default:
		return nil, errors.Wrapf(ErrInvalidGeoJSON, "unsupported geometry type %q", gt)
	}

	return append(features, NewFeature(id, kind, g, tags, layer)), nil
}

func properties(props gjson.Result) map[string]any {
	if !props.IsObject() {
		return nil
	}
	m, _ := props.Value().(map[string]any)
	return m
}

func convertPoint(c gjson.Result, hasAltitude bool) Vertex {
	a := c.Array()
	v := Vertex{}
	if len(a) >= 2 {
		v.X = ProjectX(a[0].Float())
		v.Y = ProjectY(a[1].Float())
	}
	if hasAltitude && len(a) >= 3 {
		v.Alt = a[2].Float()
	}
	return v
}

// convertRing projects one line or ring, measures it and assigns
// simplification importance to its interior vertices.
func convertRing(coords gjson.Result, sqTol float64, isPolygon, hasAltitude bool) Ring {
	raw := coords.Array()
	pts := make([]Vertex, 0, len(raw))
	size := 0.0
	var x0, y0 float64
	for j, c := range raw {
		v := convertPoint(c, hasAltitude)
		if j > 0 {
			if isPolygon {
				size += (x0*v.Y - v.X*y0) / 2
			} else {
				size += math.Sqrt((v.X-x0)*(v.X-x0) + (v.Y-y0)*(v.Y-y0))
			}
		}
		x0, y0 = v.X, v.Y
		pts = append(pts, v)
	}

	if n := len(pts); n > 0 {
		pts[0].Keep = true
		Simplify(pts, 0, n-1, sqTol)
		pts[n-1].Keep = true
	}

	size = math.Abs(size)
	return Ring{Points: pts, Size: size, Start: 0, End: size}
}

func convertRings(coords gjson.Result, sqTol float64, isPolygon, hasAltitude bool) []Ring {
	rings := []Ring{}
	coords.ForEach(func(_, c gjson.Result) bool {
		rings = append(rings, convertRing(c, sqTol, isPolygon, hasAltitude))
		return true
	})
	return rings
}
