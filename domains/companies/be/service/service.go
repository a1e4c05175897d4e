package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gridline-io/salesgrid/platform/go/tenant"
)

const (
	gstNoLength = 15
	cinNoLength = 21

	maxListLimit = 100
)

// Company is the domain model for a catalog entry.
type Company struct {
	ID        uuid.UUID
	Name      string
	GSTNo     string
	CINNo     string
	Address   string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CompanyListItem is the minimal projection returned by listings.
type CompanyListItem struct {
	ID       uuid.UUID
	Name     string
	IsActive bool
}

// CreateInput represents the request to register a company.
type CreateInput struct {
	Name    string
	GSTNo   string
	CINNo   string
	Address string
}

// UpdateInput represents the mutable fields; business identifiers are
// immutable after creation.
type UpdateInput struct {
	Name    *string
	Address *string
}

// ListOptions captures filters and pagination.
type ListOptions struct {
	IsActive *bool
	Limit    int
	Offset   int
}

// ListResult wraps a page of companies plus the total count.
type ListResult struct {
	Items  []CompanyListItem
	Total  int
	Limit  int
	Offset int
}

// Repository abstracts catalog persistence. CreateWithSchema must insert the
// catalog row and create the schema named by deriveSchema(id) in one
// transaction, so a schema-creation failure rolls the insert back.
type Repository interface {
	CreateWithSchema(ctx context.Context, in CreateInput, deriveSchema func(uuid.UUID) string) (Company, error)
	GetByID(ctx context.Context, id uuid.UUID) (Company, error)
	GetByGST(ctx context.Context, gstNo string) (Company, error)
	GetByCIN(ctx context.Context, cinNo string) (Company, error)
	List(ctx context.Context, opts ListOptions) (ListResult, error)
	Update(ctx context.Context, id uuid.UUID, in UpdateInput) (Company, error)
	SoftDelete(ctx context.Context, id uuid.UUID) (Company, error)
	HardDelete(ctx context.Context, id uuid.UUID) error
	DropSchema(ctx context.Context, schemaName string) error
}

// Migrator applies the company migration set to a named schema.
type Migrator interface {
	ApplyCompany(ctx context.Context, schemaName string) (int, error)
}

// Service provides company registry and provisioning operations.
type Service struct {
	repo     Repository
	migrator Migrator
	logger   *zap.Logger
}

// New constructs a Service with required dependencies.
func New(repo Repository, migrator Migrator, logger *zap.Logger) *Service {
	if repo == nil {
		panic("companies repo is required")
	}
	if migrator == nil {
		panic("company migrator is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, migrator: migrator, logger: logger}
}

// Create registers a company and provisions its dedicated schema.
//
// The catalog insert and CREATE SCHEMA share one transaction; migrations run
// outside it because the runner manages its own transactions per migration.
// When migrations fail, the already-committed schema and catalog row are
// compensated away (best effort, logged) and the migration error propagates.
func (s *Service) Create(ctx context.Context, input CreateInput) (Company, error) {
	in, err := normalizeCreate(input)
	if err != nil {
		return Company{}, err
	}

	company, err := s.repo.CreateWithSchema(ctx, in, tenant.SchemaName)
	if err != nil {
		return Company{}, err
	}

	schemaName := tenant.SchemaName(company.ID)
	if _, err := s.migrator.ApplyCompany(ctx, schemaName); err != nil {
		s.logger.Error("company migrations failed, compensating",
			zap.String("company_id", company.ID.String()),
			zap.String("schema", schemaName),
			zap.Error(err),
		)
		if dropErr := s.repo.DropSchema(ctx, schemaName); dropErr != nil {
			s.logger.Error("compensating schema drop failed",
				zap.String("schema", schemaName), zap.Error(dropErr))
		}
		if delErr := s.repo.HardDelete(ctx, company.ID); delErr != nil {
			s.logger.Error("compensating catalog delete failed",
				zap.String("company_id", company.ID.String()), zap.Error(delErr))
		}
		return Company{}, OperationError{Op: "apply_company_migrations", Err: err}
	}

	s.logger.Info("company provisioned",
		zap.String("company_id", company.ID.String()),
		zap.String("schema", schemaName),
	)
	return company, nil
}

// Get returns a company by id regardless of its active flag.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Company, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByGST returns an active company by GST number.
func (s *Service) GetByGST(ctx context.Context, gstNo string) (Company, error) {
	gstNo = strings.ToUpper(strings.TrimSpace(gstNo))
	if gstNo == "" {
		return Company{}, ValidationError{Field: "gst_no", Reason: "must not be empty"}
	}
	return s.repo.GetByGST(ctx, gstNo)
}

// GetByCIN returns an active company by CIN number.
func (s *Service) GetByCIN(ctx context.Context, cinNo string) (Company, error) {
	cinNo = strings.ToUpper(strings.TrimSpace(cinNo))
	if cinNo == "" {
		return Company{}, ValidationError{Field: "cin_no", Reason: "must not be empty"}
	}
	return s.repo.GetByCIN(ctx, cinNo)
}

// List returns a page of companies with the total count.
func (s *Service) List(ctx context.Context, opts ListOptions) (ListResult, error) {
	if opts.Limit < 1 || opts.Limit > maxListLimit {
		return ListResult{}, ValidationError{Field: "limit", Reason: "must be between 1 and 100"}
	}
	if opts.Offset < 0 {
		return ListResult{}, ValidationError{Field: "offset", Reason: "must not be negative"}
	}
	return s.repo.List(ctx, opts)
}

// Update mutates name and/or address. At least one field is required.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (Company, error) {
	if input.Name == nil && input.Address == nil {
		return Company{}, ValidationError{Reason: "at least one field must be provided"}
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return Company{}, ValidationError{Field: "name", Reason: "must not be empty"}
		}
		input.Name = &name
	}
	if input.Address != nil {
		address := strings.TrimSpace(*input.Address)
		if address == "" {
			return Company{}, ValidationError{Field: "address", Reason: "must not be empty"}
		}
		input.Address = &address
	}
	return s.repo.Update(ctx, id, input)
}

// Delete soft-deletes a company. Its schema is retained; only a failed
// provisioning ever drops a schema.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	company, err := s.repo.SoftDelete(ctx, id)
	if err != nil {
		return err
	}
	s.logger.Info("company soft deleted", zap.String("company_id", company.ID.String()))
	return nil
}

// SchemaName resolves the deterministic schema name for an existing company.
func (s *Service) SchemaName(ctx context.Context, id uuid.UUID) (string, error) {
	company, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return tenant.SchemaName(company.ID), nil
}

func normalizeCreate(input CreateInput) (CreateInput, error) {
	name := strings.TrimSpace(input.Name)
	gstNo := strings.ToUpper(strings.TrimSpace(input.GSTNo))
	cinNo := strings.ToUpper(strings.TrimSpace(input.CINNo))
	address := strings.TrimSpace(input.Address)

	switch {
	case name == "":
		return CreateInput{}, ValidationError{Field: "name", Reason: "must not be empty"}
	case gstNo == "":
		return CreateInput{}, ValidationError{Field: "gst_no", Reason: "must not be empty"}
	case len(gstNo) != gstNoLength:
		return CreateInput{}, ValidationError{Field: "gst_no", Reason: "must be exactly 15 characters"}
	case cinNo == "":
		return CreateInput{}, ValidationError{Field: "cin_no", Reason: "must not be empty"}
	case len(cinNo) != cinNoLength:
		return CreateInput{}, ValidationError{Field: "cin_no", Reason: "must be exactly 21 characters"}
	case address == "":
		return CreateInput{}, ValidationError{Field: "address", Reason: "must not be empty"}
	}

	return CreateInput{Name: name, GSTNo: gstNo, CINNo: cinNo, Address: address}, nil
}
