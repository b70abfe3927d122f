package geom

// Simplify assigns Douglas-Peucker importance to the interior vertices of
// pts[first:last+1]. A vertex that would be the split point at squared
// tolerance sqTol gets Importance set to its squared distance from the
// chord; dropping every vertex with Importance <= t keeps the line within
// sqrt(t) of the original. Endpoints are left untouched.
func Simplify(pts []Vertex, first, last int, sqTol float64) {
	maxSqDist := sqTol
	mid := first + (last-first)/2
	minPosToMid := last - first
	index := -1

	a, b := pts[first], pts[last]
	for i := first + 1; i < last; i++ {
		d := sqSegDist(pts[i].X, pts[i].Y, a.X, a.Y, b.X, b.Y)
		if d > maxSqDist {
			index = i
			maxSqDist = d
		} else if d == maxSqDist {
			// pick a pivot close to the middle on ties to keep recursion shallow
			posToMid := abs(i - mid)
			if posToMid < minPosToMid {
				index = i
				minPosToMid = posToMid
			}
		}
	}

	if index >= 0 && maxSqDist > sqTol {
		if index-first > 1 {
			Simplify(pts, first, index, sqTol)
		}
		pts[index].Importance = maxSqDist
		if last-index > 1 {
			Simplify(pts, index, last, sqTol)
		}
	}
}

// sqSegDist is the squared distance from p to the segment a-b.
func sqSegDist(px, py, ax, ay, bx, by float64) float64 {
	x, y := ax, ay
	dx, dy := bx-ax, by-ay
	if dx != 0 || dy != 0 {
		t := ((px-ax)*dx + (py-ay)*dy) / (dx*dx + dy*dy)
		if t > 1 {
			x, y = bx, by
		} else if t > 0 {
			x += dx * t
			y += dy * t
		}
	}
	dx, dy = px-x, py-y
	return dx*dx + dy*dy
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
