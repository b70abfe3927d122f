package tile

import "math"

// Transform converts the tile's features from projected [0,1] space into
// integer tile coordinates in [0, extent) (plus buffer). It runs once; later
// calls return t unchanged.
func Transform(t *Tile, extent int) *Tile {
	if t.Transformed {
		return t
	}

	z2 := float64(int64(1) << t.Z)
	ext := float64(extent)
	tx, ty := float64(t.X), float64(t.Y)

	for _, f := range t.Features {
		f.Geometry = make([][]Point, len(f.rings))
		for i, ring := range f.rings {
			pts := make([]Point, len(ring))
			for j, c := range ring {
				pts[j] = Point{
					X:   round(ext * (c.x*z2 - tx)),
					Y:   round(ext * (c.y*z2 - ty)),
					Alt: c.alt,
				}
			}
			f.Geometry[i] = pts
		}
		f.rings = nil
	}

	t.Transformed = true
	return t
}

// round rounds half up, so -0.5 becomes 0 the same way 0.5 becomes 1.
func round(v float64) int64 {
	return int64(math.Floor(v + 0.5))
}
