// Package mbtiles stores tiles in an MBTiles-style SQLite database.
package mbtiles

import (
	"database/sql"
	"encoding/json"
	"strconv"

	"github.com/cockroachdb/errors"
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/sirupsen/logrus"

	"geovt/internal/tile"
)

// ErrTileNotFound is returned by ReadTile for tiles that were never written.
var ErrTileNotFound = errors.New("tile not found")

var schema = []string{
	"create table if not exists tiles (zoom_level integer, tile_column integer, tile_row integer, tile_data blob);",
	"create table if not exists metadata (name text, value text);",
	"create unique index if not exists name on metadata (name);",
	"create unique index if not exists tile_index on tiles (zoom_level, tile_column, tile_row);",
}

// Store is an open MBTiles database. Rows are addressed in XYZ order;
// the TMS row flip happens on the way in and out.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and sets up its tables.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	// the pragmas below are per connection and the lock is exclusive
	db.SetMaxOpenConns(1)
	stmts := append([]string{
		"PRAGMA synchronous=0",
		"PRAGMA locking_mode=EXCLUSIVE",
		"PRAGMA journal_mode=DELETE",
	}, schema...)
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "init %s", path)
		}
	}
	return &Store{db: db}, nil
}

// Close analyzes and closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	if _, err := s.db.Exec("ANALYZE;"); err != nil {
		return errors.Wrap(err, "analyze")
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func tmsRow(z, y int) int {
	return 1<<uint(z) - 1 - y
}

// WriteTile stores data for tile z/x/y, replacing any previous content.
func (s *Store) WriteTile(z, x, y int, data []byte) error {
	if s.db == nil {
		return errors.New("db is closed")
	}
	_, err := s.db.Exec("insert or replace into tiles (zoom_level, tile_column, tile_row, tile_data) values (?, ?, ?, ?);",
		z, x, tmsRow(z, y), data)
	return errors.Wrapf(err, "write tile %d/%d/%d", z, x, y)
}

// ReadTile returns the data stored for tile z/x/y.
func (s *Store) ReadTile(z, x, y int) ([]byte, error) {
	if s.db == nil {
		return nil, errors.New("db is closed")
	}
	var data []byte
	err := s.db.QueryRow("select tile_data from tiles where zoom_level = ? and tile_column = ? and tile_row = ?;",
		z, x, tmsRow(z, y)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(ErrTileNotFound, "%d/%d/%d", z, x, y)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read tile %d/%d/%d", z, x, y)
	}
	return data, nil
}

// WriteMetadata stores name/value pairs in the metadata table.
func (s *Store) WriteMetadata(md map[string]string) error {
	if s.db == nil {
		return errors.New("db is closed")
	}
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	for name, value := range md {
		if _, err := tx.Exec("insert or replace into metadata (name, value) values (?, ?);", name, value); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "write metadata %q", name)
		}
	}
	return errors.Wrap(tx.Commit(), "commit")
}

// Metadata reads back the metadata table.
func (s *Store) Metadata() (map[string]string, error) {
	if s.db == nil {
		return nil, errors.New("db is closed")
	}
	rows, err := s.db.Query("select name, value from metadata;")
	if err != nil {
		return nil, errors.Wrap(err, "read metadata")
	}
	defer rows.Close()

	md := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, errors.Wrap(err, "scan metadata")
		}
		md[name] = value
	}
	return md, errors.Wrap(rows.Err(), "read metadata")
}

// Export writes every tile idx has built so far, encoded as the JSON list
// of its features, plus zoom range and format metadata. It returns the
// number of tiles written.
func Export(s *Store, idx *tile.Index, name string, log logrus.FieldLogger) (int, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	minZoom, maxZoom := -1, -1
	n := 0
	for _, k := range idx.Tiles() {
		z, x, y := int(k.Z), int(k.X), int(k.Y)
		t, err := idx.GetTile(z, x, y)
		if err != nil {
			return n, err
		}
		if t == nil || len(t.Features) == 0 {
			continue
		}
		data, err := json.Marshal(t.Features)
		if err != nil {
			return n, errors.Wrapf(err, "encode tile %d/%d/%d", z, x, y)
		}
		if err := s.WriteTile(z, x, y, data); err != nil {
			return n, err
		}
		if minZoom < 0 || z < minZoom {
			minZoom = z
		}
		if z > maxZoom {
			maxZoom = z
		}
		n++
		log.WithFields(logrus.Fields{"z": z, "x": x, "y": y, "features": len(t.Features)}).Debug("tile written")
	}

	md := map[string]string{
		"name":    name,
		"format":  "json",
		"extent":  strconv.Itoa(idx.Options().Extent),
		"minzoom": strconv.Itoa(max(minZoom, 0)),
		"maxzoom": strconv.Itoa(max(maxZoom, 0)),
	}
	if err := s.WriteMetadata(md); err != nil {
		return n, err
	}
	return n, nil
}
