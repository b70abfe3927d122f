package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/cockroachdb/errors"
	"github.com/shirou/gopsutil/v4/mem"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tysonmote/gommap"

	"geovt/internal/mbtiles"
	"geovt/internal/render"
	"geovt/internal/tile"
	"geovt/internal/tui"
)

// converted features take roughly this many bytes per input byte
const memoryFactor = 8

type config struct {
	opts    tile.Options
	input   string
	tile    string
	mbtiles string
	png     string
	pngSize int
	logFile string
	debug   bool
}

func parseFlags(args []string, stderr io.Writer) (config, error) {
	c := config{opts: tile.DefaultOptions()}
	fs := flag.NewFlagSet("geovt", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: geovt [flags] file.geojson")
		fs.PrintDefaults()
	}

	o := &c.opts
	fs.IntVar(&o.MaxZoom, "maxzoom", o.MaxZoom, "max zoom to preserve detail on")
	fs.IntVar(&o.IndexMaxZoom, "index-maxzoom", o.IndexMaxZoom, "max zoom in the initial tile index")
	fs.IntVar(&o.IndexMaxPoints, "index-maxpoints", o.IndexMaxPoints, "max points per tile in the initial index")
	fs.Float64Var(&o.Tolerance, "tolerance", o.Tolerance, "simplification tolerance in tile pixels")
	fs.IntVar(&o.Extent, "extent", o.Extent, "tile extent")
	fs.IntVar(&o.Buffer, "buffer", o.Buffer, "tile buffer on each side")
	fs.BoolVar(&o.LineMetrics, "line-metrics", false, "tag line pieces with clip_start/clip_end")
	fs.BoolVar(&o.HasAltitude, "altitude", false, "keep the third coordinate")
	fs.StringVar(&o.PromoteID, "promote-id", "", "property to use as feature id")
	fs.BoolVar(&o.GenerateID, "generate-id", false, "number features by input position")
	fs.StringVar(&o.Layer, "layer", "", "layer name for single-layer input")

	fs.StringVar(&c.tile, "tile", "", "print tile z/x/y as JSON and exit")
	fs.StringVar(&c.mbtiles, "mbtiles", "", "export every indexed tile to this MBTiles file")
	fs.StringVar(&c.png, "png", "", "render -tile to this PNG file")
	fs.IntVar(&c.pngSize, "png-size", 512, "PNG width and height")
	fs.StringVar(&c.logFile, "log", "", "write logs to this file")
	fs.BoolVar(&c.debug, "debug", false, "debug logging")

	if err := fs.Parse(args); err != nil {
		return c, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return c, errors.New("expected exactly one input file")
	}
	c.input = fs.Arg(0)
	if c.png != "" && c.tile == "" {
		return c, errors.New("-png needs -tile")
	}
	return c, o.Validate()
}

// checkMemory warns when the input is unlikely to fit in memory once
// converted.
func checkMemory(size int64) {
	v, err := mem.VirtualMemory()
	if err != nil {
		log.WithError(err).Debug("memory stats unavailable")
		return
	}
	need := uint64(size) * memoryFactor
	fields := log.Fields{"input": size, "available": v.Available, "used_percent": fmt.Sprintf("%.1f", v.UsedPercent)}
	if need > v.Available {
		log.WithFields(fields).Warn("input may not fit in memory")
		return
	}
	log.WithFields(fields).Debug("memory check")
}

// loadIndex maps the input file and builds the tile index over it.
func loadIndex(path string, opts tile.Options) (*tile.Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open input")
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "stat input")
	}
	if fi.Size() == 0 {
		return nil, errors.Newf("%s is empty", path)
	}
	checkMemory(fi.Size())

	mmap, err := gommap.Map(f.Fd(), gommap.PROT_READ, gommap.MAP_PRIVATE)
	if err != nil {
		return nil, errors.Wrap(err, "map input")
	}
	defer mmap.UnsafeUnmap()

	if !gjson.ValidBytes(mmap) {
		return nil, errors.Newf("%s is not valid JSON", path)
	}
	return tile.NewIndex(gjson.ParseBytes(mmap), opts, log.StandardLogger())
}

func parseTile(s string) (z, x, y int, err error) {
	var rest string
	if n, _ := fmt.Sscanf(s, "%d/%d/%d%s", &z, &x, &y, &rest); n != 3 {
		return 0, 0, 0, errors.Newf("bad tile %q, want z/x/y", s)
	}
	return z, x, y, nil
}

func writeTile(c config, idx *tile.Index, stdout io.Writer) error {
	z, x, y, err := parseTile(c.tile)
	if err != nil {
		return err
	}
	t, err := idx.GetTile(z, x, y)
	if err != nil {
		return err
	}
	features := []*tile.Feature{}
	if t != nil {
		features = t.Features
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(features); err != nil {
		return errors.Wrap(err, "encode tile")
	}

	if c.png == "" {
		return nil
	}
	if t == nil {
		return errors.Newf("tile %s has no data to render", c.tile)
	}
	out, err := os.Create(c.png)
	if err != nil {
		return errors.Wrap(err, "create png")
	}
	defer out.Close()
	ro := render.Options{Size: c.pngSize, Extent: c.opts.Extent, Buffer: c.opts.Buffer}
	if err := render.PNG(out, t, ro); err != nil {
		return err
	}
	log.WithField("path", c.png).Info("png written")
	return out.Close()
}

func export(c config, idx *tile.Index) error {
	s, err := mbtiles.Open(c.mbtiles)
	if err != nil {
		return err
	}
	name := filepath.Base(c.input)
	n, err := mbtiles.Export(s, idx, name, log.StandardLogger())
	if err != nil {
		s.Close()
		return err
	}
	log.WithFields(log.Fields{"path": c.mbtiles, "tiles": n}).Info("mbtiles written")
	return s.Close()
}

func run(args []string, stdout, stderr io.Writer) error {
	c, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	log.SetOutput(stderr)
	if c.debug {
		log.SetLevel(log.DebugLevel)
	}
	interactive := c.tile == "" && c.mbtiles == ""
	if c.logFile != "" {
		lf, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return errors.Wrap(err, "open log file")
		}
		defer lf.Close()
		log.SetOutput(lf)
	} else if interactive {
		// stderr belongs to the terminal UI
		log.SetOutput(io.Discard)
	}

	idx, err := loadIndex(c.input, c.opts)
	if err != nil {
		return err
	}

	if c.tile != "" {
		if err := writeTile(c, idx, stdout); err != nil {
			return err
		}
	}
	if c.mbtiles != "" {
		if err := export(c, idx); err != nil {
			return err
		}
	}
	if !interactive {
		return nil
	}

	m := tui.New(idx, 0, 0, 0, filepath.Base(c.input))
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion()).Run()
	return err
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		log.SetOutput(os.Stderr)
		log.Fatal(err)
	}
}
