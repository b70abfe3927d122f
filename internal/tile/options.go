package tile

import (
	"github.com/cockroachdb/errors"

	"geovt/internal/clip"
	"geovt/internal/geom"
)

// ErrInvalidOptions reports an unusable Options value.
var ErrInvalidOptions = errors.New("invalid tiling options")

// Options configures conversion, tiling and simplification.
type Options struct {
	MaxZoom        int     // max zoom to preserve detail on
	IndexMaxZoom   int     // max zoom in the initial tile index
	IndexMaxPoints int     // max points per tile in the initial index
	Tolerance      float64 // simplification tolerance, in tile pixels
	Extent         int     // tile extent
	Buffer         int     // tile buffer on each side, in tile pixels
	LineMetrics    bool    // tag line pieces with their clip_start/clip_end
	HasAltitude    bool    // keep the third coordinate
	PromoteID      string  // property to use as feature id
	GenerateID     bool    // number features by their input position
	Layer          string  // layer for single-layer input
}

// DefaultOptions returns the stock tiling options.
func DefaultOptions() Options {
	return Options{
		MaxZoom:        14,
		IndexMaxZoom:   5,
		IndexMaxPoints: 100000,
		Tolerance:      3,
		Extent:         4096,
		Buffer:         64,
	}
}

// Validate checks option ranges and combinations.
func (o Options) Validate() error {
	if o.MaxZoom < 0 || o.MaxZoom > 24 {
		return errors.Wrapf(ErrInvalidOptions, "maxZoom %d should be in the 0-24 range", o.MaxZoom)
	}
	if o.IndexMaxZoom < 0 || o.IndexMaxZoom > o.MaxZoom {
		return errors.Wrapf(ErrInvalidOptions, "indexMaxZoom %d should be in the 0-%d range", o.IndexMaxZoom, o.MaxZoom)
	}
	if o.Extent <= 0 {
		return errors.Wrapf(ErrInvalidOptions, "extent %d should be positive", o.Extent)
	}
	if o.Buffer < 0 {
		return errors.Wrapf(ErrInvalidOptions, "buffer %d should not be negative", o.Buffer)
	}
	if o.PromoteID != "" && o.GenerateID {
		return errors.Wrap(ErrInvalidOptions, "promoteId and generateId cannot be used together")
	}
	return nil
}

// ConvertOptions returns the subset of o used to convert GeoJSON input.
func (o Options) ConvertOptions() geom.ConvertOptions {
	return geom.ConvertOptions{
		Tolerance:   o.Tolerance,
		MaxZoom:     o.MaxZoom,
		Extent:      o.Extent,
		LineMetrics: o.LineMetrics,
		HasAltitude: o.HasAltitude,
		PromoteID:   o.PromoteID,
		GenerateID:  o.GenerateID,
		Layer:       o.Layer,
	}
}

func (o Options) clipOptions() clip.Options {
	return clip.Options{LineMetrics: o.LineMetrics}
}
