package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/gridline-io/salesgrid/domains/areas/be/service"
	"github.com/gridline-io/salesgrid/platform/go/persistence"
)

// PostgresRepository reads and writes areas inside a company schema. Every
// call is routed through the company's search_path, so the same repository
// serves all tenants.
type PostgresRepository struct {
	db *persistence.CompanyDB
}

func NewPostgresRepository(db *persistence.CompanyDB) *PostgresRepository {
	if db == nil {
		panic("company db is required")
	}
	return &PostgresRepository{db: db}
}

const areaColumns = "id, name, type, area_id, region_id, zone_id, nation_id, is_active, created_at, updated_at"

func (r *PostgresRepository) Create(ctx context.Context, schemaName string, in service.NewArea) (service.Area, error) {
	var area service.Area
	err := r.db.WithCompany(ctx, schemaName, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			INSERT INTO areas (name, type, area_id, region_id, zone_id, nation_id)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING `+areaColumns,
			in.Name, in.Type, in.AreaID, in.RegionID, in.ZoneID, in.NationID)
		var scanErr error
		area, scanErr = scanArea(row)
		return scanErr
	})
	if err != nil {
		if persistence.IsForeignKeyViolation(err) {
			return service.Area{}, service.ValidationError{Field: "parent", Reason: "referenced area does not exist"}
		}
		return service.Area{}, fmt.Errorf("create area in %s: %w", schemaName, err)
	}
	return area, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, schemaName string, id int64) (service.Area, error) {
	var area service.Area
	err := r.db.WithCompany(ctx, schemaName, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+areaColumns+` FROM areas WHERE id = $1`, id)
		var scanErr error
		area, scanErr = scanArea(row)
		return scanErr
	})
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return service.Area{}, service.ErrNotFound
		}
		return service.Area{}, fmt.Errorf("get area %d in %s: %w", id, schemaName, err)
	}
	return area, nil
}

// List returns active areas, optionally restricted to one hierarchy level.
func (r *PostgresRepository) List(ctx context.Context, schemaName string, areaType string) ([]service.Area, error) {
	query := `SELECT ` + areaColumns + ` FROM areas WHERE is_active = TRUE`
	args := []any{}
	if areaType != "" {
		query += ` AND type = $1`
		args = append(args, areaType)
	}
	query += ` ORDER BY name`

	var areas []service.Area
	err := r.db.WithCompany(ctx, schemaName, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			area, err := scanArea(rows)
			if err != nil {
				return err
			}
			areas = append(areas, area)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list areas in %s: %w", schemaName, err)
	}
	return areas, nil
}

func (r *PostgresRepository) Deactivate(ctx context.Context, schemaName string, id int64) error {
	err := r.db.WithCompany(ctx, schemaName, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE areas SET is_active = FALSE, updated_at = now() WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return persistence.ErrNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return service.ErrNotFound
		}
		return fmt.Errorf("deactivate area %d in %s: %w", id, schemaName, err)
	}
	return nil
}

func scanArea(row pgx.Row) (service.Area, error) {
	var area service.Area
	err := row.Scan(&area.ID, &area.Name, &area.Type,
		&area.AreaID, &area.RegionID, &area.ZoneID, &area.NationID,
		&area.IsActive, &area.CreatedAt, &area.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return service.Area{}, persistence.ErrNotFound
	}
	if err != nil {
		return service.Area{}, err
	}
	return area, nil
}

var _ service.Repository = (*PostgresRepository)(nil)
