package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CompanyRecord is one row of the shared catalog table.
type CompanyRecord struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	GSTNo     string    `db:"gst_no"`
	CINNo     string    `db:"cin_no"`
	Address   string    `db:"address"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// CompanyListItem is the minimal projection used by listings.
type CompanyListItem struct {
	ID       uuid.UUID `db:"id"`
	Name     string    `db:"name"`
	IsActive bool      `db:"is_active"`
}

// NewCompany carries the fields required to insert a catalog row; id and
// timestamps are assigned by the database.
type NewCompany struct {
	Name    string
	GSTNo   string
	CINNo   string
	Address string
}

// CompanyUpdate carries the mutable catalog fields; nil means unchanged.
type CompanyUpdate struct {
	Name    *string
	Address *string
}

const companyColumns = "id, name, gst_no, cin_no, address, is_active, created_at, updated_at"

// CompanyStore provides access to the companies catalog table. All queries
// run through CompanyDB so the search_path targets the catalog schema
// regardless of what the pooled connection last pointed at.
type CompanyStore struct {
	db *CompanyDB
}

// NewCompanyStore creates a store; assumes bootstrap migrations already
// created the catalog table.
func NewCompanyStore(db *CompanyDB) *CompanyStore {
	if db == nil {
		panic("company store requires db")
	}
	return &CompanyStore{db: db}
}

// CreateTx inserts a catalog row using the caller's transaction, so the
// insert can share atomicity with schema creation during provisioning.
func (s *CompanyStore) CreateTx(ctx context.Context, tx pgx.Tx, in NewCompany) (CompanyRecord, error) {
	row := tx.QueryRow(ctx, `
        INSERT INTO companies (name, gst_no, cin_no, address)
        VALUES ($1, $2, $3, $4)
        RETURNING `+companyColumns,
		in.Name, in.GSTNo, in.CINNo, in.Address,
	)

	rec, err := scanCompany(row)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			return CompanyRecord{}, DuplicateError{Column: duplicateColumn(constraint)}
		}
		return CompanyRecord{}, fmt.Errorf("insert company: %w", err)
	}
	return rec, nil
}

// CreateSchemaTx issues the schema DDL on the caller's transaction so a
// later rollback also undoes the schema creation.
func (s *CompanyStore) CreateSchemaTx(ctx context.Context, tx pgx.Tx, schemaName string) error {
	if _, err := tx.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+pgx.Identifier{schemaName}.Sanitize()); err != nil {
		return fmt.Errorf("create company schema: %w", err)
	}
	return nil
}

// DropSchema removes a company schema and everything in it. Only called by
// the provisioning compensation path, never by soft delete.
func (s *CompanyStore) DropSchema(ctx context.Context, schemaName string) error {
	return s.db.WithCatalog(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "DROP SCHEMA IF EXISTS "+pgx.Identifier{schemaName}.Sanitize()+" CASCADE"); err != nil {
			return fmt.Errorf("drop company schema: %w", err)
		}
		return nil
	})
}

// GetByID fetches a company regardless of its active flag.
func (s *CompanyStore) GetByID(ctx context.Context, id uuid.UUID) (CompanyRecord, error) {
	var rec CompanyRecord
	err := s.db.WithCatalog(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id)
		var err error
		rec, err = scanCompany(row)
		return err
	})
	return rec, err
}

// GetByGST fetches an active company by GST number.
func (s *CompanyStore) GetByGST(ctx context.Context, gstNo string) (CompanyRecord, error) {
	return s.getActiveBy(ctx, "gst_no", gstNo)
}

// GetByCIN fetches an active company by CIN number.
func (s *CompanyStore) GetByCIN(ctx context.Context, cinNo string) (CompanyRecord, error) {
	return s.getActiveBy(ctx, "cin_no", cinNo)
}

func (s *CompanyStore) getActiveBy(ctx context.Context, column, value string) (CompanyRecord, error) {
	var rec CompanyRecord
	err := s.db.WithCatalog(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE `+column+` = $1 AND is_active = TRUE`, value)
		var err error
		rec, err = scanCompany(row)
		return err
	})
	return rec, err
}

// List returns the minimal projection plus the total count computed in the
// same transaction.
func (s *CompanyStore) List(ctx context.Context, isActive *bool, limit, offset int) ([]CompanyListItem, int, error) {
	var (
		items []CompanyListItem
		total int
	)
	err := s.db.WithCatalog(ctx, func(tx pgx.Tx) error {
		where := ""
		args := []any{}
		if isActive != nil {
			where = " WHERE is_active = $1"
			args = append(args, *isActive)
		}

		if err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM companies"+where, args...).Scan(&total); err != nil {
			return fmt.Errorf("count companies: %w", err)
		}

		query := fmt.Sprintf(
			"SELECT id, name, is_active FROM companies%s ORDER BY name ASC LIMIT $%d OFFSET $%d",
			where, len(args)+1, len(args)+2,
		)
		args = append(args, limit, offset)

		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("list companies: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var item CompanyListItem
			if err := rows.Scan(&item.ID, &item.Name, &item.IsActive); err != nil {
				return fmt.Errorf("scan company list item: %w", err)
			}
			items = append(items, item)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Update mutates name and/or address; business identifiers are immutable.
func (s *CompanyStore) Update(ctx context.Context, id uuid.UUID, upd CompanyUpdate) (CompanyRecord, error) {
	var rec CompanyRecord
	err := s.db.WithCatalog(ctx, func(tx pgx.Tx) error {
		sets := []string{"updated_at = now()"}
		args := []any{}
		if upd.Name != nil {
			args = append(args, *upd.Name)
			sets = append(sets, fmt.Sprintf("name = $%d", len(args)))
		}
		if upd.Address != nil {
			args = append(args, *upd.Address)
			sets = append(sets, fmt.Sprintf("address = $%d", len(args)))
		}
		args = append(args, id)

		query := fmt.Sprintf("UPDATE companies SET %s WHERE id = $%d RETURNING %s",
			strings.Join(sets, ", "), len(args), companyColumns)

		var err error
		rec, err = scanCompany(tx.QueryRow(ctx, query, args...))
		return err
	})
	return rec, err
}

// SoftDelete flips is_active to false. The company schema is deliberately
// retained for data retention; "deleted" never means "gone".
func (s *CompanyStore) SoftDelete(ctx context.Context, id uuid.UUID) (CompanyRecord, error) {
	var rec CompanyRecord
	err := s.db.WithCatalog(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
            UPDATE companies SET is_active = FALSE, updated_at = now()
            WHERE id = $1
            RETURNING `+companyColumns, id)
		var err error
		rec, err = scanCompany(row)
		return err
	})
	return rec, err
}

// HardDelete removes the catalog row. Only the provisioning compensation
// path uses this; the row was never visible as a live company.
func (s *CompanyStore) HardDelete(ctx context.Context, id uuid.UUID) error {
	return s.db.WithCatalog(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM companies WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete company: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// DB exposes the underlying router for callers that orchestrate their own
// catalog transactions (the provisioning service).
func (s *CompanyStore) DB() *CompanyDB {
	return s.db
}

func scanCompany(row pgx.Row) (CompanyRecord, error) {
	var rec CompanyRecord
	err := row.Scan(&rec.ID, &rec.Name, &rec.GSTNo, &rec.CINNo, &rec.Address, &rec.IsActive, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CompanyRecord{}, ErrNotFound
		}
		return CompanyRecord{}, err
	}
	return rec, nil
}

func duplicateColumn(constraint string) string {
	switch constraint {
	case "uniq_company_gst_no":
		return "gst_no"
	case "uniq_company_cin_no":
		return "cin_no"
	default:
		return constraint
	}
}
