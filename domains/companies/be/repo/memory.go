package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gridline-io/salesgrid/domains/companies/be/service"
)

// MemoryRepository is a simple in-memory implementation suitable for tests
// and early development. It mirrors the catalog semantics: global uniqueness
// of both business identifiers and a separate set of "existing" schemas.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]service.Company
	schemas map[string]bool
}

// NewMemoryRepository constructs a MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[uuid.UUID]service.Company),
		schemas: make(map[string]bool),
	}
}

// Schemas returns the names of schemas currently "existing" in memory.
func (r *MemoryRepository) Schemas() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *MemoryRepository) CreateWithSchema(ctx context.Context, in service.CreateInput, deriveSchema func(uuid.UUID) string) (service.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.byID {
		if existing.GSTNo == in.GSTNo {
			return service.Company{}, service.AlreadyExistsError{Field: "gst_no"}
		}
		if existing.CINNo == in.CINNo {
			return service.Company{}, service.AlreadyExistsError{Field: "cin_no"}
		}
	}

	now := time.Now().UTC()
	company := service.Company{
		ID:        uuid.New(),
		Name:      in.Name,
		GSTNo:     in.GSTNo,
		CINNo:     in.CINNo,
		Address:   in.Address,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.byID[company.ID] = company
	r.schemas[deriveSchema(company.ID)] = true
	return company, nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (service.Company, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	company, ok := r.byID[id]
	if !ok {
		return service.Company{}, service.ErrNotFound
	}
	return company, nil
}

func (r *MemoryRepository) GetByGST(ctx context.Context, gstNo string) (service.Company, error) {
	return r.findActive(func(c service.Company) bool { return c.GSTNo == gstNo })
}

func (r *MemoryRepository) GetByCIN(ctx context.Context, cinNo string) (service.Company, error) {
	return r.findActive(func(c service.Company) bool { return c.CINNo == cinNo })
}

func (r *MemoryRepository) findActive(match func(service.Company) bool) (service.Company, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, company := range r.byID {
		if company.IsActive && match(company) {
			return company, nil
		}
	}
	return service.Company{}, service.ErrNotFound
}

func (r *MemoryRepository) List(ctx context.Context, opts service.ListOptions) (service.ListResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]service.Company, 0, len(r.byID))
	for _, company := range r.byID {
		if opts.IsActive != nil && company.IsActive != *opts.IsActive {
			continue
		}
		all = append(all, company)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })

	start := opts.Offset
	if start > len(all) {
		start = len(all)
	}
	end := start + opts.Limit
	if end > len(all) {
		end = len(all)
	}

	items := make([]service.CompanyListItem, 0, end-start)
	for _, company := range all[start:end] {
		items = append(items, service.CompanyListItem{ID: company.ID, Name: company.Name, IsActive: company.IsActive})
	}
	return service.ListResult{Items: items, Total: len(all), Limit: opts.Limit, Offset: opts.Offset}, nil
}

func (r *MemoryRepository) Update(ctx context.Context, id uuid.UUID, in service.UpdateInput) (service.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	company, ok := r.byID[id]
	if !ok {
		return service.Company{}, service.ErrNotFound
	}
	if in.Name != nil {
		company.Name = *in.Name
	}
	if in.Address != nil {
		company.Address = *in.Address
	}
	company.UpdatedAt = time.Now().UTC()
	r.byID[id] = company
	return company, nil
}

func (r *MemoryRepository) SoftDelete(ctx context.Context, id uuid.UUID) (service.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	company, ok := r.byID[id]
	if !ok {
		return service.Company{}, service.ErrNotFound
	}
	company.IsActive = false
	company.UpdatedAt = time.Now().UTC()
	r.byID[id] = company
	return company, nil
}

func (r *MemoryRepository) HardDelete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return service.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *MemoryRepository) DropSchema(ctx context.Context, schemaName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.schemas, schemaName)
	return nil
}

var _ service.Repository = (*MemoryRepository)(nil)
