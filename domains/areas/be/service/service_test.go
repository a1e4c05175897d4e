package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gridline-io/salesgrid/domains/areas/be/service"
	"github.com/gridline-io/salesgrid/platform/go/tenant"
)

// memoryRepo keeps areas in per-schema slices, mirroring the isolation the
// real repository gets from search_path routing.
type memoryRepo struct {
	mu      sync.Mutex
	nextID  int64
	schemas map[string][]service.Area
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{schemas: map[string][]service.Area{}}
}

func (m *memoryRepo) Create(_ context.Context, schemaName string, in service.NewArea) (service.Area, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	area := service.Area{
		ID: m.nextID, Name: in.Name, Type: in.Type,
		AreaID: in.AreaID, RegionID: in.RegionID, ZoneID: in.ZoneID, NationID: in.NationID,
		IsActive: true, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	m.schemas[schemaName] = append(m.schemas[schemaName], area)
	return area, nil
}

func (m *memoryRepo) GetByID(_ context.Context, schemaName string, id int64) (service.Area, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, area := range m.schemas[schemaName] {
		if area.ID == id {
			return area, nil
		}
	}
	return service.Area{}, service.ErrNotFound
}

func (m *memoryRepo) List(_ context.Context, schemaName string, areaType string) ([]service.Area, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []service.Area
	for _, area := range m.schemas[schemaName] {
		if area.IsActive && (areaType == "" || area.Type == areaType) {
			out = append(out, area)
		}
	}
	return out, nil
}

func (m *memoryRepo) Deactivate(_ context.Context, schemaName string, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, area := range m.schemas[schemaName] {
		if area.ID == id {
			m.schemas[schemaName][i].IsActive = false
			return nil
		}
	}
	return service.ErrNotFound
}

func TestCreateRoutesIntoCompanySchema(t *testing.T) {
	repo := newMemoryRepo()
	svc := service.New(repo, zap.NewNop())
	companyID := uuid.New()

	area, err := svc.Create(context.Background(), companyID, service.NewArea{Name: "North", Type: "Zone"})
	require.NoError(t, err)
	require.Equal(t, "zone", area.Type)

	require.Len(t, repo.schemas[tenant.SchemaName(companyID)], 1)
	require.Empty(t, repo.schemas[tenant.SchemaName(uuid.New())])
}

func TestCreateValidation(t *testing.T) {
	svc := service.New(newMemoryRepo(), zap.NewNop())
	companyID := uuid.New()

	_, err := svc.Create(context.Background(), companyID, service.NewArea{Name: "  ", Type: "zone"})
	var verr service.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "name", verr.Field)

	_, err = svc.Create(context.Background(), companyID, service.NewArea{Name: "North", Type: "continent"})
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "type", verr.Field)
}

func TestListFiltersByType(t *testing.T) {
	repo := newMemoryRepo()
	svc := service.New(repo, zap.NewNop())
	companyID := uuid.New()
	ctx := context.Background()

	_, err := svc.Create(ctx, companyID, service.NewArea{Name: "India", Type: "nation"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, companyID, service.NewArea{Name: "North", Type: "zone"})
	require.NoError(t, err)

	zones, err := svc.List(ctx, companyID, "zone")
	require.NoError(t, err)
	require.Len(t, zones, 1)
	require.Equal(t, "North", zones[0].Name)

	_, err = svc.List(ctx, companyID, "continent")
	var verr service.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestDeactivateHidesAreaFromList(t *testing.T) {
	repo := newMemoryRepo()
	svc := service.New(repo, zap.NewNop())
	companyID := uuid.New()
	ctx := context.Background()

	area, err := svc.Create(ctx, companyID, service.NewArea{Name: "North", Type: "zone"})
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(ctx, companyID, area.ID))

	areas, err := svc.List(ctx, companyID, "")
	require.NoError(t, err)
	require.Empty(t, areas)

	require.ErrorIs(t, svc.Deactivate(ctx, companyID, area.ID+100), service.ErrNotFound)
}
