package tilestore

import (
	"context"
	"database/sql"
	"embed"
	"errors"

	"github.com/jaennil/guide_helper/backend/world/internal/geo"
	"github.com/jaennil/guide_helper/backend/world/pkg/logger"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

const versionTable = "tile_store_db_version"

type SQLiteStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewSQLiteStore(path string, l logger.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	err = db.Ping()
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStore{
		db:     db,
		logger: l,
	}

	err = s.runMigrations()
	if err != nil {
		db.Close()
		return nil, err
	}

	l.Info("sqlite tile store initialized", "path", path)

	return s, nil
}

func (s *SQLiteStore) runMigrations() error {
	goose.SetBaseFS(migrations)
	goose.SetTableName(versionTable)

	err := goose.SetDialect("sqlite3")
	if err != nil {
		return err
	}

	return goose.Up(s.db, "migrations")
}

var _ Store = (*SQLiteStore)(nil)

func (s *SQLiteStore) Get(ctx context.Context, addr geo.TileAddress) ([]byte, bool, error) {
	s.logger.Debug("sqlite tile store get", "tile", addr)

	query := `SELECT tile_data
	FROM tile_store
	WHERE x = ? AND y = ? AND z = ?`

	var tileData []byte
	err := s.db.QueryRowContext(ctx, query, addr.X, addr.Y, addr.Zoom).Scan(&tileData)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		s.logger.Error("sqlite tile store get failed", "tile", addr, "error", err)
		return nil, false, err
	}

	return tileData, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, addr geo.TileAddress, data []byte) error {
	s.logger.Debug("sqlite tile store set", "tile", addr, "size", len(data))

	query := `INSERT INTO tile_store (x, y, z, tile_data)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(x, y, z) DO UPDATE SET tile_data = excluded.tile_data`

	_, err := s.db.ExecContext(ctx, query, addr.X, addr.Y, addr.Zoom, data)
	if err != nil {
		s.logger.Error("sqlite tile store set failed", "tile", addr, "error", err)
		return err
	}

	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
