package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"geovt/internal/tile"
)

const sample = `{"type":"FeatureCollection","features":[
	{"type":"Feature","id":1,"properties":{"name":"square","rank":2},"geometry":{"type":"Polygon","coordinates":[[[42.1875,57.32652122521708],[47.8125,57.32652122521708],[47.8125,54.16243396806781],[42.1875,54.16243396806781],[42.1875,57.32652122521708]]]}},
	{"type":"Feature","properties":{"name":"road"},"geometry":{"type":"LineString","coordinates":[[0,0],[50,50]]}}
]}`

func newModel(t *testing.T, z, x, y int) Model {
	t.Helper()
	idx, err := tile.NewIndex(gjson.Parse(sample), tile.DefaultOptions(), nil)
	require.NoError(t, err)
	m := New(idx, z, x, y, "sample.geojson")
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Model)
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "left":
			msg = tea.KeyMsg{Type: tea.KeyLeft}
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestNavigation(t *testing.T) {
	m := newModel(t, 0, 0, 0)
	require.NotNil(t, m.cur)

	m = press(m, "+")
	assert.Equal(t, [3]int{1, 0, 0}, [3]int{m.z, m.x, m.y})

	m = press(m, "left")
	assert.Equal(t, 1, m.x, "x wraps")
	m = press(m, "up")
	assert.Equal(t, 0, m.y, "y is clamped")
	m = press(m, "down", "down")
	assert.Equal(t, 1, m.y)

	m = press(m, "-")
	assert.Equal(t, [3]int{0, 0, 0}, [3]int{m.z, m.x, m.y})
	m = press(m, "-")
	assert.Equal(t, 0, m.z)
}

func TestGotoPrompt(t *testing.T) {
	m := newModel(t, 0, 0, 0)

	m = press(m, "g")
	require.True(t, m.promptMode)
	m.ta.SetValue("5/19/9")
	m = press(m, "enter")
	assert.False(t, m.promptMode)
	assert.Equal(t, [3]int{5, 19, 9}, [3]int{m.z, m.x, m.y})
	require.NotNil(t, m.cur)
	assert.Len(t, m.cur.Features, 1)

	m = press(m, "g")
	m.ta.SetValue("not a tile")
	m = press(m, "enter")
	assert.True(t, m.promptMode, "prompt stays open on bad input")
	assert.Contains(t, m.status, "bad tile")
	m = press(m, "esc")
	assert.False(t, m.promptMode)
}

func TestParseTile(t *testing.T) {
	z, x, y, ok := parseTile(" 3/4/5 ")
	assert.True(t, ok)
	assert.Equal(t, [3]int{3, 4, 5}, [3]int{z, x, y})

	for _, s := range []string{"", "3/4", "3/4/5/6", "a/b/c"} {
		_, _, _, ok := parseTile(s)
		assert.False(t, ok, s)
	}
}

func TestFeatureTable(t *testing.T) {
	m := newModel(t, 0, 0, 0)
	cols, rows := featureTable(m.cur.Features)
	assert.Equal(t, []string{"#", "type", "id", "layer", "rings", "points", "name", "rank"}, cols)
	require.Len(t, rows, 2)
	assert.Equal(t, "polygon", rows[0][1])
	assert.Equal(t, "1", rows[0][2])
	assert.Equal(t, "square", rows[0][6])
	assert.Equal(t, "2", rows[0][7])
	assert.Equal(t, "line", rows[1][1])
	assert.Equal(t, "", rows[1][7])

	m = press(m, "a")
	assert.True(t, m.showAttrs)
	assert.Len(t, m.tbl.Rows(), 2)

	// an empty tile closes the table
	m = press(m, "a")
	m.goTo(3, 0, 7)
	m = press(m, "a")
	assert.False(t, m.showAttrs)
}

func TestLayerToggles(t *testing.T) {
	m := newModel(t, 0, 0, 0)
	full := m.renderTileMap(40, 20)

	m = press(m, "2", "3")
	assert.False(t, m.showLines)
	assert.False(t, m.showPolys)
	assert.NotEqual(t, full, m.renderTileMap(40, 20))
}

func TestRenderTileMap(t *testing.T) {
	m := newModel(t, 5, 19, 9)
	out := m.renderTileMap(40, 20)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 20)
	for _, l := range lines {
		assert.Equal(t, 40, len([]rune(l)))
	}

	// the polygon spans tile pixels 3072..5120, so the centre of the
	// lower right quadrant is filled
	v := newViewport(40, 20, m.idx.Options())
	mx, my := v.micro(tile.Point{X: 4000, Y: 4000})
	cell := []rune(lines[my/4])[mx/2]
	assert.NotEqual(t, ' ', cell)

	mx, my = v.micro(tile.Point{X: 1000, Y: 1000})
	assert.Equal(t, ' ', []rune(lines[my/4])[mx/2])
}

func TestViewport(t *testing.T) {
	v := newViewport(40, 20, tile.DefaultOptions())
	assert.Equal(t, 80, v.side)

	p, ok := v.tilePoint(v.micro(tile.Point{X: 2048, Y: 2048}))
	require.True(t, ok)
	assert.InDelta(t, 2048, p.X, 60)
	assert.InDelta(t, 2048, p.Y, 60)

	_, ok = v.tilePoint(-1, 0)
	assert.False(t, ok)

	lon, lat := lonLat(tile.Point{X: 2048, Y: 2048}, 0, 0, 0, 4096)
	assert.InDelta(t, 0, lon, 1e-9)
	assert.InDelta(t, 0, lat, 1e-9)
}

func TestView(t *testing.T) {
	m := newModel(t, 0, 0, 0)
	out := m.View()
	assert.Contains(t, out, "sample.geojson")
	assert.Contains(t, out, "0/0/0")

	m = press(m, "i")
	assert.Contains(t, m.inspectPopup, "tile: 0/0/0")
	assert.Contains(t, m.inspectPopup, "polygon=1")
	m = press(m, "i")
	assert.Empty(t, m.inspectPopup)

	m = press(m, "tab")
	assert.True(t, m.showSidebar)
	assert.NotEmpty(t, m.l.Items())
}

func TestHover(t *testing.T) {
	m := newModel(t, 0, 0, 0)
	ox, oy, w, h := m.mapArea()
	next, _ := m.Update(tea.MouseMsg{X: ox + w/2, Y: oy + h/2})
	m = next.(Model)
	assert.True(t, m.hoverHasGeo)
	assert.True(t, m.hovering)
	assert.InDelta(t, 0, m.hoverLon, 10)

	next, _ = m.Update(tea.MouseMsg{X: 0, Y: 0})
	m = next.(Model)
	assert.False(t, m.hoverHasGeo)
}
