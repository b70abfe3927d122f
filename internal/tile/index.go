package tile

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/paulmach/orb/maptile"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"geovt/internal/clip"
	"geovt/internal/geom"
)

// ErrZoomRange is returned for tile requests outside zoom 0-24.
var ErrZoomRange = errors.New("zoom out of range")

// Index is a lazily built tile pyramid over one dataset. Tiles down to
// IndexMaxZoom are built up front; deeper tiles are cut on request from the
// nearest ancestor that kept its source features.
//
// An Index is not safe for concurrent use.
type Index struct {
	opts   Options
	log    logrus.FieldLogger
	tiles  map[maptile.Tile]*Tile
	coords []maptile.Tile
}

type job struct {
	features []*geom.Feature
	z, x, y  int
}

// NewIndex converts a GeoJSON document and builds the initial tile index.
// A nil logger discards all output.
func NewIndex(doc gjson.Result, opts Options, log logrus.FieldLogger) (*Index, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	features, err := geom.Convert(doc, opts.ConvertOptions())
	if err != nil {
		return nil, errors.Wrap(err, "convert")
	}
	idx := FromFeatures(features, opts, log)
	idx.log.WithFields(logrus.Fields{
		"features": len(features),
		"tiles":    len(idx.coords),
		"elapsed":  time.Since(start),
	}).Debug("index built")
	return idx, nil
}

// FromFeatures builds the initial tile index over already converted
// features. opts must be valid.
func FromFeatures(features []*geom.Feature, opts Options, log logrus.FieldLogger) *Index {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	idx := &Index{
		opts:  opts,
		log:   log,
		tiles: make(map[maptile.Tile]*Tile),
	}
	features = clip.Wrap(features, float64(opts.Buffer)/float64(opts.Extent), opts.clipOptions())
	if len(features) > 0 {
		idx.split(features, 0, 0, 0, nil)
	}
	return idx
}

// Options returns the options the index was built with.
func (idx *Index) Options() Options {
	return idx.opts
}

// Tiles lists the tiles built so far, in build order.
func (idx *Index) Tiles() []maptile.Tile {
	return slices.Clone(idx.coords)
}

// GetTile returns the transformed tile z/x/y, cutting it from an ancestor if
// needed. x wraps around the antimeridian. A nil tile means there is no data
// there.
func (idx *Index) GetTile(z, x, y int) (*Tile, error) {
	if z < 0 || z > 24 {
		return nil, errors.Wrapf(ErrZoomRange, "z=%d", z)
	}
	z2 := 1 << z
	x = (x + z2) & (z2 - 1)
	if y < 0 || y >= z2 {
		return nil, nil
	}

	key := maptile.New(uint32(x), uint32(y), maptile.Zoom(z))
	if t, ok := idx.tiles[key]; ok {
		return Transform(t, idx.opts.Extent), nil
	}

	var parent *Tile
	pk := key
	for parent == nil && pk.Z > 0 {
		pk = pk.Parent()
		parent = idx.tiles[pk]
	}
	if parent == nil || parent.source == nil {
		return nil, nil
	}

	start := time.Now()
	idx.split(parent.source, int(pk.Z), int(pk.X), int(pk.Y), &key)
	idx.log.WithFields(logrus.Fields{
		"z":       z,
		"x":       x,
		"y":       y,
		"parent":  fmt.Sprintf("%d/%d/%d", pk.Z, pk.X, pk.Y),
		"elapsed": time.Since(start),
	}).Debug("drilled down")

	if t, ok := idx.tiles[key]; ok {
		return Transform(t, idx.opts.Extent), nil
	}
	return nil, nil
}

// split cuts features into the tile z/x/y and its descendants. Without a
// target it stops at IndexMaxZoom or at tiles with few enough points; with
// a target it only descends towards that tile.
func (idx *Index) split(features []*geom.Feature, z, x, y int, target *maptile.Tile) {
	opts := idx.opts
	co := opts.clipOptions()
	k1 := 0.5 * float64(opts.Buffer) / float64(opts.Extent)
	k2 := 0.5 - k1
	k3 := 0.5 + k1
	k4 := 1 + k1

	stack := []job{{features, z, x, y}}
	for len(stack) > 0 {
		j := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		key := maptile.New(uint32(j.x), uint32(j.y), maptile.Zoom(j.z))
		t := idx.tiles[key]
		if t == nil {
			t = New(j.features, j.z, j.x, j.y, opts)
			idx.tiles[key] = t
			idx.coords = append(idx.coords, key)
			idx.log.WithFields(logrus.Fields{
				"z":          j.z,
				"x":          j.x,
				"y":          j.y,
				"features":   t.NumFeatures,
				"points":     t.NumPoints,
				"simplified": t.NumSimplified,
			}).Debug("tile created")
		}

		// keep the source around in case the tile is drilled into later
		t.source = j.features

		if target == nil {
			if j.z == opts.IndexMaxZoom || t.NumPoints <= opts.IndexMaxPoints {
				continue
			}
		} else if j.z == opts.MaxZoom || j.z == int(target.Z) {
			continue
		} else {
			steps := int(target.Z) - j.z
			if uint32(j.x) != target.X>>steps || uint32(j.y) != target.Y>>steps {
				continue
			}
		}

		t.source = nil
		if len(j.features) == 0 {
			continue
		}

		z2 := float64(int64(1) << j.z)
		tx, ty := float64(j.x), float64(j.y)
		b := t.BBox

		var tl, bl, tr, br []*geom.Feature
		left := clip.Clip(j.features, z2, tx-k1, tx+k3, clip.AxisX, b.MinX, b.MaxX, co)
		right := clip.Clip(j.features, z2, tx+k2, tx+k4, clip.AxisX, b.MinX, b.MaxX, co)
		if left != nil {
			tl = clip.Clip(left, z2, ty-k1, ty+k3, clip.AxisY, b.MinY, b.MaxY, co)
			bl = clip.Clip(left, z2, ty+k2, ty+k4, clip.AxisY, b.MinY, b.MaxY, co)
		}
		if right != nil {
			tr = clip.Clip(right, z2, ty-k1, ty+k3, clip.AxisY, b.MinY, b.MaxY, co)
			br = clip.Clip(right, z2, ty+k2, ty+k4, clip.AxisY, b.MinY, b.MaxY, co)
		}

		stack = append(stack,
			job{tl, j.z + 1, j.x * 2, j.y * 2},
			job{bl, j.z + 1, j.x * 2, j.y*2 + 1},
			job{tr, j.z + 1, j.x*2 + 1, j.y * 2},
			job{br, j.z + 1, j.x*2 + 1, j.y*2 + 1},
		)
	}
}
