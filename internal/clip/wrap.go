package clip

import "geovt/internal/geom"

// Wrap duplicates geometry that crosses the antimeridian into the
// neighbouring world so that tiles at x=0 and x=2^z-1 see it within their
// buffer. buffer is the buffer width as a fraction of the world. When no
// geometry reaches past [-buffer, 1+buffer) the input slice is returned
// unchanged.
func Wrap(features []*geom.Feature, buffer float64, opts Options) []*geom.Feature {
	left := Clip(features, 1, -1-buffer, buffer, AxisX, -1, 2, opts)
	right := Clip(features, 1, 1-buffer, 2+buffer, AxisX, -1, 2, opts)
	if left == nil && right == nil {
		return features
	}

	center := Clip(features, 1, -buffer, 1+buffer, AxisX, -1, 2, opts)
	merged := make([]*geom.Feature, 0, len(left)+len(center)+len(right))
	merged = append(merged, shiftFeatures(left, 1)...)
	merged = append(merged, center...)
	merged = append(merged, shiftFeatures(right, -1)...)
	return merged
}

func shiftFeatures(features []*geom.Feature, dx float64) []*geom.Feature {
	out := make([]*geom.Feature, len(features))
	for i, f := range features {
		out[i] = geom.NewFeature(f.ID, f.Kind, f.Geometry.Shift(dx), f.Tags, f.Layer)
	}
	return out
}
