package tui

import (
	"cmp"
	"fmt"
	"slices"

	list "github.com/charmbracelet/bubbles/list"
	"github.com/paulmach/orb/maptile"
)

type tileItem struct {
	key maptile.Tile
}

func (t tileItem) Title() string       { return fmt.Sprintf("%d/%d/%d", t.key.Z, t.key.X, t.key.Y) }
func (t tileItem) Description() string { return "" }
func (t tileItem) FilterValue() string { return t.Title() }

// refreshTiles lists every tile built so far, shallow zooms first.
func (m *Model) refreshTiles() {
	keys := m.idx.Tiles()
	slices.SortStableFunc(keys, func(a, b maptile.Tile) int {
		return cmp.Or(cmp.Compare(a.Z, b.Z), cmp.Compare(a.X, b.X), cmp.Compare(a.Y, b.Y))
	})
	items := make([]list.Item, len(keys))
	for i, k := range keys {
		items[i] = tileItem{key: k}
	}
	m.l.SetItems(items)
}
