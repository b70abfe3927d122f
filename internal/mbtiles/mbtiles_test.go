package mbtiles

import (
	"database/sql"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"geovt/internal/tile"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tiles.mbtiles")
	s, err := Open(path)
	require.NoError(t, err)
	return s, path
}

func TestStoreTiles(t *testing.T) {
	s, path := openTemp(t)

	require.NoError(t, s.WriteTile(3, 5, 1, []byte("a")))
	require.NoError(t, s.WriteTile(3, 5, 1, []byte("b")), "rewrite replaces")

	data, err := s.ReadTile(3, 5, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), data)

	_, err = s.ReadTile(3, 5, 2)
	assert.ErrorIs(t, err, ErrTileNotFound)

	require.NoError(t, s.WriteMetadata(map[string]string{"name": "test", "format": "json"}))
	md, err := s.Metadata()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"name": "test", "format": "json"}, md)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "closing twice is harmless")
	assert.Error(t, s.WriteTile(0, 0, 0, nil))

	// rows are stored TMS-flipped
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()
	var row int
	require.NoError(t, db.QueryRow("select tile_row from tiles where zoom_level = 3 and tile_column = 5").Scan(&row))
	assert.Equal(t, 6, row)
}

func TestStoreReopen(t *testing.T) {
	s, path := openTemp(t)
	require.NoError(t, s.WriteTile(0, 0, 0, []byte("root")))
	require.NoError(t, s.Close())

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()
	data, err := s.ReadTile(0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("root"), data)
}

func TestExport(t *testing.T) {
	doc := gjson.Parse(`{"type":"Feature","id":3,"properties":{"name":"box"},"geometry":{"type":"Polygon","coordinates":[[[-10,-10],[10,-10],[10,10],[-10,10],[-10,-10]]]}}`)
	opts := tile.DefaultOptions()
	opts.IndexMaxZoom = 1
	opts.IndexMaxPoints = 0
	idx, err := tile.NewIndex(doc, opts, nil)
	require.NoError(t, err)

	s, _ := openTemp(t)
	defer s.Close()
	log := logrus.New()
	log.SetOutput(io.Discard)

	n, err := Export(s, idx, "box", log)
	require.NoError(t, err)
	assert.Equal(t, 5, n, "root and its four children")

	data, err := s.ReadTile(1, 1, 1)
	require.NoError(t, err)
	var features []map[string]any
	require.NoError(t, json.Unmarshal(data, &features))
	require.Len(t, features, 1)
	assert.Equal(t, 3.0, features[0]["type"])
	assert.Equal(t, 3.0, features[0]["id"])
	assert.Equal(t, map[string]any{"name": "box"}, features[0]["tags"])

	md, err := s.Metadata()
	require.NoError(t, err)
	assert.Equal(t, "box", md["name"])
	assert.Equal(t, "0", md["minzoom"])
	assert.Equal(t, "1", md["maxzoom"])
	assert.Equal(t, "4096", md["extent"])
}
