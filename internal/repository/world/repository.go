// Package world persists regions and the prims placed in them.
package world

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jaennil/guide_helper/backend/world/internal/domain"
	"github.com/jaennil/guide_helper/backend/world/internal/geo"
	"github.com/jaennil/guide_helper/backend/world/pkg/logger"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

const versionTable = "world_db_version"

var (
	ErrNotFound = errors.New("record not found")
)

type Repository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewRepository(path string, l logger.Logger) (*Repository, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open world db: %w", err)
	}

	err = db.Ping()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("ping world db: %w", err)
	}

	r := &Repository{
		db:     db,
		logger: l,
	}

	err = r.runMigrations()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate world db: %w", err)
	}

	l.Info("world store initialized", "path", path)

	return r, nil
}

func (r *Repository) runMigrations() error {
	goose.SetBaseFS(migrations)
	goose.SetTableName(versionTable)

	err := goose.SetDialect("sqlite3")
	if err != nil {
		return err
	}

	return goose.Up(r.db, "migrations")
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) LoadAllRegions(ctx context.Context) ([]domain.Region, error) {
	query := `SELECT id, name, latitude, longitude, tile_x, tile_y, tile_z, created_at, updated_at
	FROM regions
	ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query regions: %w", err)
	}
	defer rows.Close()

	var regions []domain.Region
	for rows.Next() {
		var (
			region              domain.Region
			tileX, tileY, tileZ sql.NullInt64
		)
		err := rows.Scan(
			&region.ID, &region.Name, &region.Latitude, &region.Longitude,
			&tileX, &tileY, &tileZ,
			&region.CreatedAt, &region.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan region: %w", err)
		}

		if tileX.Valid && tileY.Valid && tileZ.Valid {
			addr, err := tileFromColumns(tileX.Int64, tileY.Int64, tileZ.Int64)
			if err != nil {
				// re-anchored on the next load
				r.logger.Warn("region has invalid tile, ignoring it", "region_id", region.ID, "error", err)
			} else {
				region.Tile = &addr
			}
		}

		regions = append(regions, region)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate regions: %w", err)
	}

	r.logger.Debug("loaded regions", "count", len(regions))

	return regions, nil
}

func (r *Repository) LoadAllPrims(ctx context.Context) ([]domain.Prim, error) {
	query := `SELECT id, region_id, name, shape,
		position_x, position_y, position_z,
		rotation_x, rotation_y, rotation_z,
		scale_x, scale_y, scale_z,
		color_r, color_g, color_b,
		created_at, updated_at
	FROM prims
	ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query prims: %w", err)
	}
	defer rows.Close()

	var prims []domain.Prim
	for rows.Next() {
		var (
			p     domain.Prim
			shape string
		)
		err := rows.Scan(
			&p.ID, &p.RegionID, &p.Name, &shape,
			&p.Transform.Position.X, &p.Transform.Position.Y, &p.Transform.Position.Z,
			&p.Transform.Rotation.X, &p.Transform.Rotation.Y, &p.Transform.Rotation.Z,
			&p.Transform.Scale.X, &p.Transform.Scale.Y, &p.Transform.Scale.Z,
			&p.Color.R, &p.Color.G, &p.Color.B,
			&p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan prim: %w", err)
		}
		p.Shape = domain.ParsePrimShape(shape)

		prims = append(prims, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prims: %w", err)
	}

	r.logger.Debug("loaded prims", "count", len(prims))

	return prims, nil
}

// InsertRegion assigns the new id and timestamps to region.
func (r *Repository) InsertRegion(ctx context.Context, region *domain.Region) error {
	query := `INSERT INTO regions (name, latitude, longitude, tile_x, tile_y, tile_z, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	now := time.Now().UTC()
	tileX, tileY, tileZ := tileColumns(region.Tile)

	res, err := r.db.ExecContext(ctx, query,
		region.Name, region.Latitude, region.Longitude,
		tileX, tileY, tileZ,
		now, now,
	)
	if err != nil {
		return fmt.Errorf("insert region: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert region: %w", err)
	}

	region.ID = id
	region.CreatedAt = now
	region.UpdatedAt = now

	r.logger.Info("region inserted", "region_id", id, "name", region.Name)

	return nil
}

func (r *Repository) UpdateRegion(ctx context.Context, region *domain.Region) error {
	query := `UPDATE regions
	SET name = ?, latitude = ?, longitude = ?, tile_x = ?, tile_y = ?, tile_z = ?, updated_at = ?
	WHERE id = ?`

	now := time.Now().UTC()
	tileX, tileY, tileZ := tileColumns(region.Tile)

	res, err := r.db.ExecContext(ctx, query,
		region.Name, region.Latitude, region.Longitude,
		tileX, tileY, tileZ,
		now, region.ID,
	)
	if err != nil {
		return fmt.Errorf("update region %d: %w", region.ID, err)
	}

	if err := expectOneRow(res); err != nil {
		return fmt.Errorf("update region %d: %w", region.ID, err)
	}

	region.UpdatedAt = now

	return nil
}

// InsertPrim assigns the new id and timestamps to p.
func (r *Repository) InsertPrim(ctx context.Context, p *domain.Prim) error {
	query := `INSERT INTO prims (region_id, name, shape,
		position_x, position_y, position_z,
		rotation_x, rotation_y, rotation_z,
		scale_x, scale_y, scale_z,
		color_r, color_g, color_b,
		created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	now := time.Now().UTC()
	t := p.Transform

	res, err := r.db.ExecContext(ctx, query,
		p.RegionID, p.Name, string(p.Shape),
		t.Position.X, t.Position.Y, t.Position.Z,
		t.Rotation.X, t.Rotation.Y, t.Rotation.Z,
		t.Scale.X, t.Scale.Y, t.Scale.Z,
		p.Color.R, p.Color.G, p.Color.B,
		now, now,
	)
	if err != nil {
		return fmt.Errorf("insert prim: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert prim: %w", err)
	}

	p.ID = id
	p.CreatedAt = now
	p.UpdatedAt = now

	r.logger.Info("prim inserted", "prim_id", id, "region_id", p.RegionID, "shape", p.Shape)

	return nil
}

func (r *Repository) UpdatePrim(ctx context.Context, p *domain.Prim) error {
	query := `UPDATE prims
	SET region_id = ?, name = ?, shape = ?,
		position_x = ?, position_y = ?, position_z = ?,
		rotation_x = ?, rotation_y = ?, rotation_z = ?,
		scale_x = ?, scale_y = ?, scale_z = ?,
		color_r = ?, color_g = ?, color_b = ?,
		updated_at = ?
	WHERE id = ?`

	now := time.Now().UTC()
	t := p.Transform

	res, err := r.db.ExecContext(ctx, query,
		p.RegionID, p.Name, string(p.Shape),
		t.Position.X, t.Position.Y, t.Position.Z,
		t.Rotation.X, t.Rotation.Y, t.Rotation.Z,
		t.Scale.X, t.Scale.Y, t.Scale.Z,
		p.Color.R, p.Color.G, p.Color.B,
		now, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update prim %d: %w", p.ID, err)
	}

	if err := expectOneRow(res); err != nil {
		return fmt.Errorf("update prim %d: %w", p.ID, err)
	}

	p.UpdatedAt = now

	return nil
}

func tileColumns(addr *geo.TileAddress) (x, y, z sql.NullInt64) {
	if addr == nil {
		return
	}
	return sql.NullInt64{Int64: addr.X, Valid: true},
		sql.NullInt64{Int64: addr.Y, Valid: true},
		sql.NullInt64{Int64: int64(addr.Zoom), Valid: true}
}

func tileFromColumns(x, y, z int64) (geo.TileAddress, error) {
	if z < 0 || z > geo.MaxZoom {
		return geo.TileAddress{}, fmt.Errorf("%w: zoom %d", geo.ErrInvalidTileAddress, z)
	}
	return geo.NewTileAddress(x, y, uint32(z))
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
