package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gridline-io/salesgrid/platform/go/tenant"
)

// ErrNotFound is returned when an area does not exist in the company schema.
var ErrNotFound = errors.New("area not found")

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Area is one node of a company's sales hierarchy.
type Area struct {
	ID        int64
	Name      string
	Type      string
	AreaID    *int64
	RegionID  *int64
	ZoneID    *int64
	NationID  *int64
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewArea carries the fields for creating an area.
type NewArea struct {
	Name     string
	Type     string
	AreaID   *int64
	RegionID *int64
	ZoneID   *int64
	NationID *int64
}

// Repository persists areas inside a given company schema.
type Repository interface {
	Create(ctx context.Context, schemaName string, in NewArea) (Area, error)
	GetByID(ctx context.Context, schemaName string, id int64) (Area, error)
	List(ctx context.Context, schemaName string, areaType string) ([]Area, error)
	Deactivate(ctx context.Context, schemaName string, id int64) error
}

var areaTypes = map[string]bool{
	"nation": true,
	"zone":   true,
	"region": true,
	"area":   true,
}

// Service validates inputs and routes area operations into the schema derived
// from the company id.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

func New(repo Repository, logger *zap.Logger) *Service {
	if repo == nil {
		panic("areas repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger}
}

func (s *Service) Create(ctx context.Context, companyID uuid.UUID, in NewArea) (Area, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Type = strings.ToLower(strings.TrimSpace(in.Type))
	if in.Name == "" {
		return Area{}, ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if !areaTypes[in.Type] {
		return Area{}, ValidationError{Field: "type", Reason: "must be one of nation, zone, region, area"}
	}

	area, err := s.repo.Create(ctx, tenant.SchemaName(companyID), in)
	if err != nil {
		return Area{}, err
	}
	s.logger.Info("area created",
		zap.String("company_id", companyID.String()),
		zap.Int64("area_id", area.ID),
		zap.String("type", area.Type))
	return area, nil
}

func (s *Service) Get(ctx context.Context, companyID uuid.UUID, id int64) (Area, error) {
	return s.repo.GetByID(ctx, tenant.SchemaName(companyID), id)
}

func (s *Service) List(ctx context.Context, companyID uuid.UUID, areaType string) ([]Area, error) {
	areaType = strings.ToLower(strings.TrimSpace(areaType))
	if areaType != "" && !areaTypes[areaType] {
		return nil, ValidationError{Field: "type", Reason: "must be one of nation, zone, region, area"}
	}
	return s.repo.List(ctx, tenant.SchemaName(companyID), areaType)
}

func (s *Service) Deactivate(ctx context.Context, companyID uuid.UUID, id int64) error {
	return s.repo.Deactivate(ctx, tenant.SchemaName(companyID), id)
}
