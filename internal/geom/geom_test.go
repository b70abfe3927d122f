package geom

import (
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestProject(t *testing.T) {
	assert.Equal(t, 0.0, ProjectX(-180))
	assert.Equal(t, 0.5, ProjectX(0))
	assert.Equal(t, 1.0, ProjectX(180))
	assert.Equal(t, 0.5, ProjectY(0))

	for _, lat := range []float64{90, -90, 89.999999, -89.999999, 85.0511, 1000, -1000, math.Inf(1), math.Inf(-1)} {
		y := ProjectY(lat)
		assert.GreaterOrEqual(t, y, 0.0, "lat %v", lat)
		assert.LessOrEqual(t, y, 1.0, "lat %v", lat)
	}
	assert.Equal(t, 0.0, ProjectY(90))
	assert.Equal(t, 1.0, ProjectY(-90))
	assert.Less(t, ProjectY(45), 0.5)
}

func TestSimplify(t *testing.T) {
	tests := []struct {
		name string
		pts  []Vertex
		want []float64
	}{
		{
			name: "collinear",
			pts:  []Vertex{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}},
			want: []float64{0, 0, 0},
		},
		{
			name: "peak",
			pts:  []Vertex{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 0}},
			want: []float64{0, 1, 0},
		},
		{
			name: "nested",
			pts:  []Vertex{{X: 0, Y: 0}, {X: 1, Y: 0.5}, {X: 2, Y: 2}, {X: 4, Y: 0}},
			// (2,2) splits first, then (1,0.5) is measured against (0,0)-(2,2)
			want: []float64{0, 0.125, 4, 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Simplify(tt.pts, 0, len(tt.pts)-1, 0)
			got := make([]float64, len(tt.pts))
			for i, p := range tt.pts {
				got[i] = p.Importance
			}
			assert.InDeltaSlice(t, tt.want, got, 1e-12)
		})
	}
}

func TestSimplifyTolerance(t *testing.T) {
	pts := []Vertex{{X: 0, Y: 0}, {X: 1, Y: 0.1}, {X: 2, Y: 0}}
	Simplify(pts, 0, 2, 0.1)
	assert.Zero(t, pts[1].Importance)
}

func TestNewFeatureBBoxIncludesHoles(t *testing.T) {
	outer := Ring{Points: []Vertex{{X: 0.2, Y: 0.2}, {X: 0.4, Y: 0.2}, {X: 0.4, Y: 0.4}, {X: 0.2, Y: 0.2}}}
	// a malformed hole reaching past the outer ring still widens the box
	hole := Ring{Points: []Vertex{{X: 0.1, Y: 0.3}, {X: 0.3, Y: 0.5}, {X: 0.3, Y: 0.3}, {X: 0.1, Y: 0.3}}}

	f := NewFeature(nil, Polygon, Geometry{Rings: []Ring{outer, hole}}, nil, "")
	assert.Equal(t, BBox{MinX: 0.1, MinY: 0.2, MaxX: 0.4, MaxY: 0.5}, f.BBox)

	mp := NewFeature(nil, MultiPolygon, Geometry{Polygons: [][]Ring{{outer, hole}}}, nil, "")
	assert.Equal(t, f.BBox, mp.BBox)
	assert.Equal(t, 8, mp.NumPoints())
}

func TestGeometryShift(t *testing.T) {
	g := Geometry{Rings: []Ring{{Points: []Vertex{{X: 0.1, Y: 0.2, Alt: 3}}, Size: 1, Start: 0.25, End: 0.75}}}
	s := g.Shift(1)
	assert.Equal(t, 1.1, s.Rings[0].Points[0].X)
	assert.Equal(t, 3.0, s.Rings[0].Points[0].Alt)
	assert.Equal(t, 0.25, s.Rings[0].Start)
	assert.Equal(t, 0.75, s.Rings[0].End)
	assert.Equal(t, 1.0, s.Rings[0].Size)
	assert.Equal(t, 0.1, g.Rings[0].Points[0].X, "source untouched")
}

func TestConvertLineString(t *testing.T) {
	doc := gjson.Parse(`{"type":"LineString","coordinates":[[0,0,5],[45,0,6],[90,0,7]]}`)
	features, err := Convert(doc, ConvertOptions{Tolerance: 3, MaxZoom: 14, Extent: 4096, HasAltitude: true})
	require.NoError(t, err)
	require.Len(t, features, 1)

	f := features[0]
	assert.Equal(t, LineString, f.Kind)
	assert.Nil(t, f.ID)
	assert.Nil(t, f.Tags)
	require.Len(t, f.Geometry.Rings, 1)

	r := f.Geometry.Rings[0]
	require.Len(t, r.Points, 3)
	assert.True(t, r.Points[0].Keep)
	assert.False(t, r.Points[1].Keep)
	assert.True(t, r.Points[2].Keep)
	assert.Zero(t, r.Points[1].Importance, "collinear midpoint")
	assert.Equal(t, 6.0, r.Points[1].Alt)
	assert.InDelta(t, 0.25, r.Size, 1e-15)
	assert.Equal(t, 0.0, r.Start)
	assert.Equal(t, r.Size, r.End)
	assert.Equal(t, BBox{MinX: 0.5, MinY: 0.5, MaxX: 0.75, MaxY: 0.5}, f.BBox)
}

func TestConvertPolygonSize(t *testing.T) {
	doc := gjson.Parse(`{"type":"Polygon","coordinates":[[[0,0],[90,0],[90,45],[0,45],[0,0]]]}`)
	features, err := Convert(doc, ConvertOptions{Tolerance: 3, MaxZoom: 14, Extent: 4096})
	require.NoError(t, err)
	require.Len(t, features, 1)

	r := features[0].Geometry.Rings[0]
	want := 0.25 * (0.5 - ProjectY(45))
	assert.InDelta(t, want, r.Size, 1e-15)
	assert.True(t, r.Points[0].Keep)
	assert.True(t, r.Points[4].Keep)
	assert.Zero(t, r.Points[0].Alt, "altitude ignored when disabled")
}

func TestConvertDocuments(t *testing.T) {
	opts := ConvertOptions{Tolerance: 3, MaxZoom: 14, Extent: 4096}

	t.Run("feature collection", func(t *testing.T) {
		doc := gjson.Parse(`{"type":"FeatureCollection","features":[
			{"type":"Feature","id":7,"properties":{"name":"a"},"geometry":{"type":"Point","coordinates":[0,0]}},
			{"type":"Feature","properties":{"name":"b"},"geometry":null},
			{"type":"Feature","id":"m","geometry":{"type":"MultiPoint","coordinates":[[0,0],[10,10]]}}
		]}`)
		features, err := Convert(doc, opts)
		require.NoError(t, err)
		require.Len(t, features, 2)
		assert.Equal(t, 7.0, features[0].ID)
		assert.Equal(t, map[string]any{"name": "a"}, features[0].Tags)
		assert.Equal(t, Point, features[0].Kind)
		assert.Equal(t, "m", features[1].ID)
		assert.Equal(t, MultiPoint, features[1].Kind)
		assert.Len(t, features[1].Geometry.Points, 2)
	})

	t.Run("geometry collection", func(t *testing.T) {
		doc := gjson.Parse(`{"type":"Feature","id":1,"properties":{"k":"v"},"geometry":{"type":"GeometryCollection","geometries":[
			{"type":"Point","coordinates":[1,1]},
			{"type":"LineString","coordinates":[[0,0],[1,1]]}
		]}}`)
		features, err := Convert(doc, opts)
		require.NoError(t, err)
		require.Len(t, features, 2)
		for _, f := range features {
			assert.Equal(t, 1.0, f.ID)
			assert.Equal(t, map[string]any{"k": "v"}, f.Tags)
		}
		assert.Equal(t, Point, features[0].Kind)
		assert.Equal(t, LineString, features[1].Kind)
	})

	t.Run("layers", func(t *testing.T) {
		doc := gjson.Parse(`[
			{"layer":"roads","data":{"type":"LineString","coordinates":[[0,0],[1,1]]}},
			{"layer":"pois","data":{"type":"FeatureCollection","features":[
				{"type":"Feature","geometry":{"type":"Point","coordinates":[0,0]}}
			]}}
		]`)
		features, err := Convert(doc, ConvertOptions{Tolerance: 3, MaxZoom: 14, Extent: 4096, Layer: "ignored"})
		require.NoError(t, err)
		require.Len(t, features, 2)
		assert.Equal(t, "roads", features[0].Layer)
		assert.Equal(t, "pois", features[1].Layer)
	})

	t.Run("single layer", func(t *testing.T) {
		doc := gjson.Parse(`{"type":"Point","coordinates":[0,0]}`)
		features, err := Convert(doc, ConvertOptions{Tolerance: 3, MaxZoom: 14, Extent: 4096, Layer: "points"})
		require.NoError(t, err)
		require.Len(t, features, 1)
		assert.Equal(t, "points", features[0].Layer)
	})
}

func TestConvertIDs(t *testing.T) {
	doc := gjson.Parse(`{"type":"FeatureCollection","features":[
		{"type":"Feature","id":"x","properties":{"code":"A"},"geometry":{"type":"Point","coordinates":[0,0]}},
		{"type":"Feature","id":"y","properties":{"code":"B"},"geometry":{"type":"Point","coordinates":[0,0]}}
	]}`)

	features, err := Convert(doc, ConvertOptions{Tolerance: 3, MaxZoom: 14, Extent: 4096, PromoteID: "code"})
	require.NoError(t, err)
	assert.Equal(t, "A", features[0].ID)
	assert.Equal(t, "B", features[1].ID)

	features, err = Convert(doc, ConvertOptions{Tolerance: 3, MaxZoom: 14, Extent: 4096, GenerateID: true})
	require.NoError(t, err)
	assert.Equal(t, 0, features[0].ID)
	assert.Equal(t, 1, features[1].ID)
}

func TestConvertLineMetricsExplodes(t *testing.T) {
	doc := gjson.Parse(`{"type":"MultiLineString","coordinates":[[[0,0],[10,0]],[[0,10],[10,10],[20,10]]]}`)

	features, err := Convert(doc, ConvertOptions{Tolerance: 3, MaxZoom: 14, Extent: 4096})
	require.NoError(t, err)
	require.Len(t, features, 1)
	assert.Equal(t, MultiLineString, features[0].Kind)

	features, err = Convert(doc, ConvertOptions{Tolerance: 3, MaxZoom: 14, Extent: 4096, LineMetrics: true})
	require.NoError(t, err)
	require.Len(t, features, 2)
	for _, f := range features {
		assert.Equal(t, LineString, f.Kind)
		require.Len(t, f.Geometry.Rings, 1)
		assert.Equal(t, f.Geometry.Rings[0].Size, f.Geometry.Rings[0].End)
	}
}

func TestConvertInvalid(t *testing.T) {
	for _, in := range []string{
		`{"type":"Circle","coordinates":[0,0]}`,
		`{"type":"Feature","geometry":{"type":"Curve","coordinates":[]}}`,
		`[{"layer":"a","data":{"type":"Triangle"}}]`,
		`42`,
	} {
		_, err := Convert(gjson.Parse(in), ConvertOptions{Tolerance: 3, MaxZoom: 14, Extent: 4096})
		assert.True(t, errors.Is(err, ErrInvalidGeoJSON), "input %s: %v", in, err)
	}
}

func TestUnproject(t *testing.T) {
	for _, lon := range []float64{-180, -42.5, 0, 120} {
		assert.InDelta(t, lon, UnprojectX(ProjectX(lon)), 1e-9)
	}
	for _, lat := range []float64{-80, -12.25, 0, 33.3, 85} {
		assert.InDelta(t, lat, UnprojectY(ProjectY(lat)), 1e-9)
	}
}
