package geom

import "math"

// ProjectX maps a longitude to spherical mercator x in [0,1] for [-180,180].
func ProjectX(lon float64) float64 {
	return lon/360 + 0.5
}

// ProjectY maps a latitude to spherical mercator y, clamped to [0,1].
func ProjectY(lat float64) float64 {
	sin := math.Sin(lat * math.Pi / 180)
	y := 0.5 - 0.25*math.Log((1+sin)/(1-sin))/math.Pi
	switch {
	case math.IsNaN(y):
		if lat > 0 {
			return 0
		}
		return 1
	case y < 0:
		return 0
	case y > 1:
		return 1
	}
	return y
}

// UnprojectX is the inverse of ProjectX.
func UnprojectX(x float64) float64 {
	return (x - 0.5) * 360
}

// UnprojectY is the inverse of ProjectY for y in [0,1].
func UnprojectY(y float64) float64 {
	return math.Atan(math.Sinh(math.Pi*(1-2*y))) * 180 / math.Pi
}
