package tui

import (
	"fmt"

	list "github.com/charmbracelet/bubbles/list"
	table "github.com/charmbracelet/bubbles/table"
	textarea "github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/cockroachdb/errors"

	"geovt/internal/tile"
)

const sidebarWidth = 28

// Model is the bubbletea model of the tile inspector. It shows one tile of
// an index at a time.
type Model struct {
	width  int
	height int

	showSidebar bool
	helpVisible bool

	status string
	source string

	// Data
	idx     *tile.Index
	z, x, y int
	cur     *tile.Tile

	// tile list
	l list.Model

	// goto prompt
	promptMode bool
	ta         textarea.Model

	// layer visibility
	showPoints bool
	showLines  bool
	showPolys  bool

	// inspect popup
	inspectPopup string

	// hover state
	hovering    bool
	hoverMicX   int
	hoverMicY   int
	hoverHasGeo bool
	hoverLon    float64
	hoverLat    float64
	hoverPx     tile.Point

	// feature table
	showAttrs bool
	tbl       table.Model
}

// New returns an inspector over idx opened at tile z/x/y. source names
// the input in the header.
func New(idx *tile.Index, z, x, y int, source string) Model {
	m := Model{
		helpVisible: true,
		source:      source,
		idx:         idx,
		showPoints:  true,
		showLines:   true,
		showPolys:   true,
	}
	d := list.NewDefaultDelegate()
	d.ShowDescription = false
	m.l = list.New(nil, d, 0, 0)
	m.l.Title = "Tiles"
	m.l.SetShowHelp(false)
	m.l.SetShowStatusBar(false)
	m.l.SetFilteringEnabled(true)

	m.ta = textarea.New()
	m.ta.Placeholder = "z/x/y"
	m.ta.ShowLineNumbers = false
	m.ta.CharLimit = 32
	m.ta.SetWidth(24)
	m.ta.SetHeight(1)

	m.tbl = table.New(table.WithFocused(true))
	m.tbl.SetHeight(12)

	m.goTo(z, x, y)
	return m
}

func (m Model) Init() tea.Cmd { return nil }

// goTo loads tile z/x/y, wrapping x and clamping y into the grid.
func (m *Model) goTo(z, x, y int) {
	t, err := m.idx.GetTile(z, x, y)
	if errors.Is(err, tile.ErrZoomRange) {
		m.status = fmt.Sprintf("zoom %d out of range", z)
		return
	}
	if err != nil {
		m.status = "error: " + err.Error()
		return
	}
	n := 1 << z
	m.z, m.x, m.y = z, ((x%n)+n)%n, min(max(y, 0), n-1)
	if y != m.y {
		// y was clamped, fetch the tile actually shown
		t, _ = m.idx.GetTile(m.z, m.x, m.y)
	}
	m.cur = t
	m.inspectPopup = ""
	if t == nil {
		m.status = fmt.Sprintf("%d/%d/%d  empty", m.z, m.x, m.y)
	} else {
		m.status = fmt.Sprintf("%d/%d/%d  features=%d points=%d kept=%d",
			m.z, m.x, m.y, len(t.Features), t.NumPoints, t.NumSimplified)
	}
	if m.showAttrs {
		m.refreshAttrs()
	}
}

func (m Model) features() []*tile.Feature {
	if m.cur == nil {
		return nil
	}
	return m.cur.Features
}

func (m Model) visible(f *tile.Feature) bool {
	switch f.Type {
	case tile.TypePoint:
		return m.showPoints
	case tile.TypeLine:
		return m.showLines
	case tile.TypePolygon:
		return m.showPolys
	}
	return false
}
