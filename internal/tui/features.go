package tui

import (
	"encoding/json"
	"fmt"
	"slices"

	table "github.com/charmbracelet/bubbles/table"

	"geovt/internal/tile"
)

var typeNames = map[tile.GeomType]string{
	tile.TypePoint:   "point",
	tile.TypeLine:    "line",
	tile.TypePolygon: "polygon",
}

// refreshAttrs rebuilds the feature table from the current tile.
func (m *Model) refreshAttrs() {
	cols, rows := featureTable(m.features())
	if len(rows) == 0 {
		m.showAttrs = false
		m.status = "no features in this tile"
		return
	}
	tcols := make([]table.Column, 0, len(cols))
	for _, c := range cols {
		tcols = append(tcols, table.Column{Title: c, Width: min(max(len(c)+2, 6), 24)})
	}
	trows := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		trows = append(trows, table.Row(r))
	}
	// clear rows first so the table never sees rows wider than its columns
	m.tbl.SetRows(nil)
	m.tbl.SetColumns(tcols)
	m.tbl.SetRows(trows)
}

// featureTable lists one row per feature: its type, id, layer and sizes,
// then the union of all tag keys in first-seen order.
func featureTable(features []*tile.Feature) ([]string, [][]string) {
	var keys []string
	seen := map[string]bool{}
	for _, f := range features {
		var fk []string
		for k := range f.Tags {
			if !seen[k] {
				seen[k] = true
				fk = append(fk, k)
			}
		}
		// map order is random; sort within a feature
		slices.Sort(fk)
		keys = append(keys, fk...)
	}

	cols := append([]string{"#", "type", "id", "layer", "rings", "points"}, keys...)
	rows := make([][]string, 0, len(features))
	for i, f := range features {
		n := 0
		for _, ring := range f.Geometry {
			n += len(ring)
		}
		row := []string{
			fmt.Sprintf("%d", i+1),
			typeNames[f.Type],
			formatValue(f.ID),
			f.Layer,
			fmt.Sprintf("%d", len(f.Geometry)),
			fmt.Sprintf("%d", n),
		}
		for _, k := range keys {
			v, ok := f.Tags[k]
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, formatValue(v))
		}
		rows = append(rows, row)
	}
	return cols, rows
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return fmt.Sprintf("%g", t)
	case int:
		return fmt.Sprintf("%d", t)
	case bool:
		return fmt.Sprintf("%t", t)
	default:
		bs, _ := json.Marshal(t)
		return string(bs)
	}
}
