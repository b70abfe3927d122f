package tui

// brailleBuf is a canvas of braille cells, each holding a 2x4 grid of
// micro pixels.
type brailleBuf struct {
	w, h int       // in cells
	m    [][]uint8 // per-cell dot mask
}

// dots[ry][rx] is the braille dot bit of micro pixel (rx, ry) in a cell.
var dots = [4][2]uint8{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

func newBrailleBuf(w, h int) *brailleBuf {
	m := make([][]uint8, h)
	for i := range m {
		m[i] = make([]uint8, w)
	}
	return &brailleBuf{w: w, h: h, m: m}
}

func (b *brailleBuf) set(mx, my int) {
	if mx < 0 || my < 0 {
		return
	}
	cx, cy := mx/2, my/4
	if cx >= b.w || cy >= b.h {
		return
	}
	b.m[cy][cx] |= dots[my%4][mx%2]
}

// span sets micro pixels x0..x1 on row my.
func (b *brailleBuf) span(x0, x1, my int) {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	for x := max(x0, 0); x <= x1 && x < b.w*2; x++ {
		b.set(x, my)
	}
}

// line draws a Bresenham line between two micro pixels.
func (b *brailleBuf) line(x0, y0, x1, y1 int) {
	b.walk(x0, y0, x1, y1, func(int) bool { return true })
}

// dashed draws a line setting only every n-th pixel.
func (b *brailleBuf) dashed(x0, y0, x1, y1, n int) {
	b.walk(x0, y0, x1, y1, func(i int) bool { return i%n == 0 })
}

func (b *brailleBuf) walk(x0, y0, x1, y1 int, on func(step int) bool) {
	dx := abs(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -abs(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for i := 0; ; i++ {
		if on(i) {
			b.set(x0, y0)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func (b *brailleBuf) toLines() []string {
	out := make([]string, b.h)
	for y, cells := range b.m {
		row := make([]rune, len(cells))
		for x, mask := range cells {
			if mask == 0 {
				row[x] = ' '
			} else {
				row[x] = rune(0x2800 + int(mask))
			}
		}
		out[y] = string(row)
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
