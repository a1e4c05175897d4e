package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gridline-io/salesgrid/domains/companies/be/service"
	"github.com/gridline-io/salesgrid/platform/go/persistence"
)

// PostgresRepository implements the companies repository over the shared
// persistence layer, mapping persistence errors into the service taxonomy so
// no raw driver errors cross into the service.
type PostgresRepository struct {
	store *persistence.CompanyStore
}

// NewPostgresRepository constructs a repository backed by CompanyStore.
func NewPostgresRepository(store *persistence.CompanyStore) *PostgresRepository {
	if store == nil {
		panic("company store is required")
	}
	return &PostgresRepository{store: store}
}

// CreateWithSchema inserts the catalog row and creates the derived schema in
// one transaction. A failure in either statement rolls both back.
func (r *PostgresRepository) CreateWithSchema(ctx context.Context, in service.CreateInput, deriveSchema func(uuid.UUID) string) (service.Company, error) {
	var rec persistence.CompanyRecord
	err := r.store.DB().WithCatalog(ctx, func(tx pgx.Tx) error {
		var err error
		rec, err = r.store.CreateTx(ctx, tx, persistence.NewCompany{
			Name:    in.Name,
			GSTNo:   in.GSTNo,
			CINNo:   in.CINNo,
			Address: in.Address,
		})
		if err != nil {
			return err
		}
		return r.store.CreateSchemaTx(ctx, tx, deriveSchema(rec.ID))
	})
	if err != nil {
		return service.Company{}, mapError(err)
	}
	return toCompany(rec), nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (service.Company, error) {
	rec, err := r.store.GetByID(ctx, id)
	if err != nil {
		return service.Company{}, mapError(err)
	}
	return toCompany(rec), nil
}

func (r *PostgresRepository) GetByGST(ctx context.Context, gstNo string) (service.Company, error) {
	rec, err := r.store.GetByGST(ctx, gstNo)
	if err != nil {
		return service.Company{}, mapError(err)
	}
	return toCompany(rec), nil
}

func (r *PostgresRepository) GetByCIN(ctx context.Context, cinNo string) (service.Company, error) {
	rec, err := r.store.GetByCIN(ctx, cinNo)
	if err != nil {
		return service.Company{}, mapError(err)
	}
	return toCompany(rec), nil
}

func (r *PostgresRepository) List(ctx context.Context, opts service.ListOptions) (service.ListResult, error) {
	items, total, err := r.store.List(ctx, opts.IsActive, opts.Limit, opts.Offset)
	if err != nil {
		return service.ListResult{}, mapError(err)
	}

	out := make([]service.CompanyListItem, 0, len(items))
	for _, item := range items {
		out = append(out, service.CompanyListItem{ID: item.ID, Name: item.Name, IsActive: item.IsActive})
	}
	return service.ListResult{Items: out, Total: total, Limit: opts.Limit, Offset: opts.Offset}, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id uuid.UUID, in service.UpdateInput) (service.Company, error) {
	rec, err := r.store.Update(ctx, id, persistence.CompanyUpdate{Name: in.Name, Address: in.Address})
	if err != nil {
		return service.Company{}, mapError(err)
	}
	return toCompany(rec), nil
}

func (r *PostgresRepository) SoftDelete(ctx context.Context, id uuid.UUID) (service.Company, error) {
	rec, err := r.store.SoftDelete(ctx, id)
	if err != nil {
		return service.Company{}, mapError(err)
	}
	return toCompany(rec), nil
}

func (r *PostgresRepository) HardDelete(ctx context.Context, id uuid.UUID) error {
	if err := r.store.HardDelete(ctx, id); err != nil {
		return mapError(err)
	}
	return nil
}

func (r *PostgresRepository) DropSchema(ctx context.Context, schemaName string) error {
	if err := r.store.DropSchema(ctx, schemaName); err != nil {
		return service.OperationError{Op: "drop_company_schema", Err: err}
	}
	return nil
}

func toCompany(rec persistence.CompanyRecord) service.Company {
	return service.Company{
		ID:        rec.ID,
		Name:      rec.Name,
		GSTNo:     rec.GSTNo,
		CINNo:     rec.CINNo,
		Address:   rec.Address,
		IsActive:  rec.IsActive,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}

func mapError(err error) error {
	var dup persistence.DuplicateError
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return service.ErrNotFound
	case errors.As(err, &dup):
		return service.AlreadyExistsError{Field: dup.Column}
	default:
		return err
	}
}

var _ service.Repository = (*PostgresRepository)(nil)
