package tui

import (
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"geovt/internal/geom"
	"geovt/internal/tile"
)

// viewport maps tile coordinates (extent plus buffer on each side) onto a
// square region of the braille micro-grid, centred in a w x h cell area.
type viewport struct {
	side   int // square side in micro pixels
	ox, oy int // top-left corner in micro pixels
	buffer int
	span   int // extent + 2*buffer
}

func newViewport(w, h int, opts tile.Options) viewport {
	side := max(1, min(w*2, h*4))
	return viewport{
		side:   side,
		ox:     (w*2 - side) / 2,
		oy:     (h*4 - side) / 2,
		buffer: opts.Buffer,
		span:   opts.Extent + 2*opts.Buffer,
	}
}

func (v viewport) micro(p tile.Point) (int, int) {
	mx := v.ox + int((p.X+int64(v.buffer))*int64(v.side-1)/int64(v.span))
	my := v.oy + int((p.Y+int64(v.buffer))*int64(v.side-1)/int64(v.span))
	return mx, my
}

// tilePoint is the inverse of micro, for hover lookups.
func (v viewport) tilePoint(mx, my int) (tile.Point, bool) {
	if v.side <= 1 || mx < v.ox || my < v.oy || mx >= v.ox+v.side || my >= v.oy+v.side {
		return tile.Point{}, false
	}
	px := int64(mx-v.ox)*int64(v.span)/int64(v.side-1) - int64(v.buffer)
	py := int64(my-v.oy)*int64(v.span)/int64(v.side-1) - int64(v.buffer)
	return tile.Point{X: px, Y: py}, true
}

// lonLat converts a tile-local point of tile z/x/y back to degrees.
func lonLat(p tile.Point, z, x, y, extent int) (float64, float64) {
	z2 := float64(int64(1) << z)
	wx := (float64(x) + float64(p.X)/float64(extent)) / z2
	wy := (float64(y) + float64(p.Y)/float64(extent)) / z2
	return geom.UnprojectX(wx), geom.UnprojectY(wy)
}

func (m Model) renderTileMap(w, h int) string {
	br := newBrailleBuf(w, h)
	v := newViewport(w, h, m.idx.Options())

	// tile edge, dotted so it reads apart from geometry
	ext := int64(m.idx.Options().Extent)
	corners := []tile.Point{{X: 0, Y: 0}, {X: ext, Y: 0}, {X: ext, Y: ext}, {X: 0, Y: ext}}
	for i := range corners {
		ax, ay := v.micro(corners[i])
		bx, by := v.micro(corners[(i+1)%len(corners)])
		br.dashed(ax, ay, bx, by, 3)
	}

	for _, f := range m.features() {
		if !m.visible(f) {
			continue
		}
		switch f.Type {
		case tile.TypePolygon:
			fillRings(br, v, f.Geometry)
			for _, ring := range f.Geometry {
				strokeRing(br, v, ring)
			}
		case tile.TypeLine:
			for _, ring := range f.Geometry {
				strokeRing(br, v, ring)
			}
		case tile.TypePoint:
			for _, ring := range f.Geometry {
				for _, p := range ring {
					br.set(v.micro(p))
				}
			}
		}
	}

	lines := br.toLines()
	if m.hovering {
		// mark the hovered vertex
		cx, cy := m.hoverMicX/2, m.hoverMicY/4
		if cy >= 0 && cy < len(lines) {
			r := []rune(lines[cy])
			if cx >= 0 && cx < len(r) {
				lines[cy] = string(r[:cx]) + hoverStyle.Render("◯") + string(r[cx+1:])
			}
		}
	}
	return strings.Join(lines, "\n")
}

func strokeRing(br *brailleBuf, v viewport, ring []tile.Point) {
	for i := 0; i+1 < len(ring); i++ {
		ax, ay := v.micro(ring[i])
		bx, by := v.micro(ring[i+1])
		br.line(ax, ay, bx, by)
	}
}

// fillRings fills a polygon's rings with the even-odd rule, one scanline
// per micro row, so holes stay empty.
func fillRings(br *brailleBuf, v viewport, rings [][]tile.Point) {
	var edges [][4]int
	minY, maxY := v.oy+v.side, v.oy
	for _, ring := range rings {
		for i := 0; i+1 < len(ring); i++ {
			ax, ay := v.micro(ring[i])
			bx, by := v.micro(ring[i+1])
			if ay == by {
				continue
			}
			edges = append(edges, [4]int{ax, ay, bx, by})
			minY = min(minY, ay, by)
			maxY = max(maxY, ay, by)
		}
	}

	var xs []int
	for my := max(minY, 0); my <= maxY && my < br.h*4; my++ {
		xs = xs[:0]
		for _, e := range edges {
			x0, y0, x1, y1 := e[0], e[1], e[2], e[3]
			if (my >= y0 && my < y1) || (my >= y1 && my < y0) {
				t := float64(my-y0) / float64(y1-y0)
				xs = append(xs, x0+int(t*float64(x1-x0)))
			}
		}
		slices.Sort(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			br.span(xs[i], xs[i+1], my)
		}
	}
}

// nearestVertex finds the rendered vertex closest to micro position
// (mx, my) and returns it with its micro coordinates.
func (m Model) nearestVertex(v viewport, mx, my int) (tile.Point, int, int, bool) {
	best := -1
	var bp tile.Point
	bx, by := mx, my
	for _, f := range m.features() {
		if !m.visible(f) {
			continue
		}
		for _, ring := range f.Geometry {
			for _, p := range ring {
				px, py := v.micro(p)
				d := (px-mx)*(px-mx) + (py-my)*(py-my)
				if best < 0 || d < best {
					best, bp, bx, by = d, p, px, py
				}
			}
		}
	}
	return bp, bx, by, best >= 0
}

var hoverStyle = lipgloss.NewStyle().Foreground(hoverFg)
