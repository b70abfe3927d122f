package tui

import (
	"fmt"
	"strings"

	list "github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/paulmach/orb/maptile"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.showSidebar {
			m.l.SetSize(sidebarWidth-2, m.height-1-2)
		}
	case tea.KeyMsg:
		// a filtering list gets every key
		if m.showSidebar && m.l.FilterState() == list.Filtering {
			var cmd tea.Cmd
			m.l, cmd = m.l.Update(msg)
			return m, cmd
		}
		if m.promptMode {
			return m.updatePrompt(msg)
		}
		// up/down scroll the open list or table instead of moving tiles
		if k := msg.String(); k == "up" || k == "down" {
			var cmd tea.Cmd
			switch {
			case m.showSidebar:
				m.l, cmd = m.l.Update(msg)
				return m, cmd
			case m.showAttrs:
				m.tbl, cmd = m.tbl.Update(msg)
				return m, cmd
			}
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "1":
			m.showPoints = !m.showPoints
			m.status = fmt.Sprintf("points: %v", m.showPoints)
		case "2":
			m.showLines = !m.showLines
			m.status = fmt.Sprintf("lines: %v", m.showLines)
		case "3":
			m.showPolys = !m.showPolys
			m.status = fmt.Sprintf("polygons: %v", m.showPolys)
		case "+", "=":
			// into the child tile under the cursor, top-left otherwise
			dx, dy := 0, 0
			if m.hovering {
				ext := int64(m.idx.Options().Extent)
				if m.hoverPx.X >= ext/2 {
					dx = 1
				}
				if m.hoverPx.Y >= ext/2 {
					dy = 1
				}
			}
			m.goTo(m.z+1, m.x*2+dx, m.y*2+dy)
		case "-", "_":
			if m.z > 0 {
				m.goTo(m.z-1, m.x/2, m.y/2)
			}
		case "up":
			m.goTo(m.z, m.x, m.y-1)
		case "down":
			m.goTo(m.z, m.x, m.y+1)
		case "left":
			m.goTo(m.z, m.x-1, m.y)
		case "right":
			m.goTo(m.z, m.x+1, m.y)
		case "tab":
			m.showSidebar = !m.showSidebar
			if m.showSidebar {
				m.refreshTiles()
				m.l.SetSize(sidebarWidth-2, m.height-1-2)
			}
		case "g":
			m.promptMode = true
			m.ta.SetValue(fmt.Sprintf("%d/%d/%d", m.z, m.x, m.y))
			m.status = "goto tile"
			return m, m.ta.Focus()
		case "h":
			m.helpVisible = !m.helpVisible
		case "a":
			m.showAttrs = !m.showAttrs
			if m.showAttrs {
				m.refreshAttrs()
			}
		case "i":
			if m.inspectPopup != "" {
				m.inspectPopup = ""
			} else {
				m.inspectPopup = m.inspect()
			}
		case "enter":
			if m.showSidebar {
				if it, ok := m.l.SelectedItem().(tileItem); ok {
					m.goTo(int(it.key.Z), int(it.key.X), int(it.key.Y))
				}
			}
		case "esc":
			m.inspectPopup = ""
		}
	case tea.MouseMsg:
		m.updateHover(msg.X, msg.Y)
	}
	if m.showSidebar {
		var cmd tea.Cmd
		m.l, cmd = m.l.Update(msg)
		return m, cmd
	}
	if m.showAttrs {
		var cmd tea.Cmd
		m.tbl, cmd = m.tbl.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.promptMode = false
		m.ta.Blur()
		m.status = "goto cancelled"
		return m, nil
	case "enter":
		z, x, y, ok := parseTile(m.ta.Value())
		if !ok {
			m.status = fmt.Sprintf("bad tile %q, want z/x/y", strings.TrimSpace(m.ta.Value()))
			return m, nil
		}
		m.promptMode = false
		m.ta.Blur()
		m.goTo(z, x, y)
		return m, nil
	}
	var cmd tea.Cmd
	m.ta, cmd = m.ta.Update(msg)
	return m, cmd
}

// parseTile reads a "z/x/y" tile address.
func parseTile(s string) (z, x, y int, ok bool) {
	var rest string
	n, _ := fmt.Sscanf(strings.TrimSpace(s), "%d/%d/%d%s", &z, &x, &y, &rest)
	return z, x, y, n == 3
}

// mapArea returns the map's origin and size in cells; it must match View.
func (m Model) mapArea() (ox, oy, w, h int) {
	headerHeight, footerHeight := 1, 2
	h = max(4, m.height-headerHeight-footerHeight)
	w = max(10, m.width)
	if m.showSidebar {
		w -= sidebarWidth + 1
		ox = sidebarWidth + 1
	}
	return ox, headerHeight, max(10, w), h
}

func (m *Model) updateHover(cx, cy int) {
	ox, oy, w, h := m.mapArea()
	if cx < ox || cx >= ox+w || cy < oy || cy >= oy+h {
		m.hovering = false
		m.hoverHasGeo = false
		return
	}
	v := newViewport(w, h, m.idx.Options())
	mx, my := (cx-ox)*2, (cy-oy)*4
	p, ok := v.tilePoint(mx, my)
	m.hoverHasGeo = ok
	if ok {
		m.hoverPx = p
		m.hoverLon, m.hoverLat = lonLat(p, m.z, m.x, m.y, m.idx.Options().Extent)
	}
	_, bx, by, found := m.nearestVertex(v, mx, my)
	m.hovering = found
	m.hoverMicX, m.hoverMicY = bx, by
}

// inspect summarises the current tile for the popup.
func (m Model) inspect() string {
	b := maptile.New(uint32(m.x), uint32(m.y), maptile.Zoom(m.z)).Bound()
	lines := []string{
		fmt.Sprintf("tile: %d/%d/%d", m.z, m.x, m.y),
		fmt.Sprintf("bounds: [%.5f, %.5f, %.5f, %.5f]", b.Min.Lon(), b.Min.Lat(), b.Max.Lon(), b.Max.Lat()),
	}
	if m.cur == nil {
		return strings.Join(append(lines, "no data"), "\n")
	}
	var counts [4]int
	for _, f := range m.cur.Features {
		counts[f.Type]++
	}
	lines = append(lines,
		fmt.Sprintf("features: %d of %d source", len(m.cur.Features), m.cur.NumFeatures),
		fmt.Sprintf("points: %d kept of %d", m.cur.NumSimplified, m.cur.NumPoints),
		fmt.Sprintf("types: point=%d line=%d polygon=%d", counts[1], counts[2], counts[3]),
	)
	return strings.Join(lines, "\n")
}
