// Package render rasterises transformed tiles for previews.
package render

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"github.com/cockroachdb/errors"
	"golang.org/x/image/vector"

	"geovt/internal/tile"
)

var (
	background = color.Gray{Y: 255}
	fill       = color.Gray{Y: 170}
	ink        = color.Gray{Y: 0}
)

// Options sets the output size and the tile box drawn into it.
type Options struct {
	Size   int // output width and height in pixels
	Extent int
	Buffer int
}

// Image draws t into a square grayscale image covering the tile extent plus
// buffer on each side. Polygons are filled, lines and points drawn in ink.
func Image(t *tile.Tile, opts Options) (*image.Gray, error) {
	if !t.Transformed {
		return nil, errors.Newf("tile %d/%d/%d is not transformed", t.Z, t.X, t.Y)
	}
	if opts.Size <= 0 || opts.Extent <= 0 {
		return nil, errors.Newf("bad render size %d or extent %d", opts.Size, opts.Extent)
	}

	dst := image.NewGray(image.Rect(0, 0, opts.Size, opts.Size))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	scale := float32(opts.Size) / float32(opts.Extent+2*opts.Buffer)
	buf := float32(opts.Buffer)
	size := float32(opts.Size)
	px := func(p tile.Point) (float32, float32) {
		return clamp((float32(p.X)+buf)*scale, size), clamp((float32(p.Y)+buf)*scale, size)
	}

	r := vector.NewRasterizer(opts.Size, opts.Size)
	paint := func(c color.Color) {
		r.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{})
		r.Reset(opts.Size, opts.Size)
	}

	// polygons first so lines stay visible on top
	for _, f := range t.Features {
		if f.Type != tile.TypePolygon {
			continue
		}
		for _, ring := range f.Geometry {
			if len(ring) < 3 {
				continue
			}
			r.MoveTo(px(ring[0]))
			for _, p := range ring[1:] {
				r.LineTo(px(p))
			}
			r.ClosePath()
		}
		paint(fill)
	}

	for _, f := range t.Features {
		switch f.Type {
		case tile.TypeLine, tile.TypePolygon:
			for _, ring := range f.Geometry {
				for i := 0; i+1 < len(ring); i++ {
					x0, y0 := px(ring[i])
					x1, y1 := px(ring[i+1])
					stroke(r, x0, y0, x1, y1, 0.5)
				}
			}
		case tile.TypePoint:
			for _, ring := range f.Geometry {
				for _, p := range ring {
					x, y := px(p)
					dot(r, x, y, 1.5)
				}
			}
		}
	}
	paint(ink)
	return dst, nil
}

// PNG renders t with Image and encodes it to w.
func PNG(w io.Writer, t *tile.Tile, opts Options) error {
	img, err := Image(t, opts)
	if err != nil {
		return err
	}
	return errors.Wrap(png.Encode(w, img), "encode png")
}

// stroke adds the segment (x0,y0)-(x1,y1) as a quad of half width hw.
func stroke(r *vector.Rasterizer, x0, y0, x1, y1, hw float32) {
	dx, dy := x1-x0, y1-y0
	l := float32(math.Hypot(float64(dx), float64(dy)))
	if l == 0 {
		dot(r, x0, y0, hw)
		return
	}
	nx, ny := -dy/l*hw, dx/l*hw
	size := float32(r.Size().X)
	r.MoveTo(clamp(x0+nx, size), clamp(y0+ny, size))
	r.LineTo(clamp(x1+nx, size), clamp(y1+ny, size))
	r.LineTo(clamp(x1-nx, size), clamp(y1-ny, size))
	r.LineTo(clamp(x0-nx, size), clamp(y0-ny, size))
	r.ClosePath()
}

func dot(r *vector.Rasterizer, x, y, hw float32) {
	size := float32(r.Size().X)
	x0, y0 := clamp(x-hw, size), clamp(y-hw, size)
	x1, y1 := clamp(x+hw, size), clamp(y+hw, size)
	r.MoveTo(x0, y0)
	r.LineTo(x1, y0)
	r.LineTo(x1, y1)
	r.LineTo(x0, y1)
	r.ClosePath()
}

// clamp keeps v inside the rasteriser's [0, size] range.
func clamp(v, size float32) float32 {
	return min(max(v, 0), size)
}
