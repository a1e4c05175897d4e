package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gridline-io/salesgrid/domains/companies/be/handler"
	"github.com/gridline-io/salesgrid/domains/companies/be/repo"
	"github.com/gridline-io/salesgrid/domains/companies/be/service"
)

type stubMigrator struct {
	applied []string
	err     error
}

func (m *stubMigrator) ApplyCompany(_ context.Context, schemaName string) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.applied = append(m.applied, schemaName)
	return 1, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *repo.MemoryRepository) {
	t.Helper()

	repository := repo.NewMemoryRepository()
	svc := service.New(repository, &stubMigrator{}, zap.NewNop())

	h := handler.New(svc, zap.NewNop())
	router := chi.NewRouter()
	router.Route("/api/v1/companies", func(r chi.Router) { h.Routes(r) })

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, repository
}

func createCompany(t *testing.T, server *httptest.Server, name, gstNo, cinNo string) uuid.UUID {
	t.Helper()

	body, err := json.Marshal(map[string]string{
		"name":    name,
		"gst_no":  gstNo,
		"cin_no":  cinNo,
		"address": "12 Market Street",
	})
	require.NoError(t, err)

	resp, err := http.Post(server.URL+"/api/v1/companies", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	return created.ID
}

func TestCreateCompanyReturnsCreated(t *testing.T) {
	server, repository := newTestServer(t)

	body := []byte(`{"name":"Acme Traders","gst_no":"gstnum000000001","cin_no":"cinnum000000000000001","address":"HQ"}`)
	resp, err := http.Post(server.URL+"/api/v1/companies", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var created struct {
		ID       uuid.UUID `json:"id"`
		Name     string    `json:"name"`
		GSTNo    string    `json:"gst_no"`
		IsActive bool      `json:"is_active"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	require.NotEqual(t, uuid.Nil, created.ID)
	require.Equal(t, "Acme Traders", created.Name)
	require.Equal(t, "GSTNUM000000001", created.GSTNo)
	require.True(t, created.IsActive)
	require.Equal(t, "/api/v1/companies/"+created.ID.String(), resp.Header.Get("Location"))
	require.Len(t, repository.Schemas(), 1)
}

func TestCreateCompanyValidationFailure(t *testing.T) {
	server, _ := newTestServer(t)

	body := []byte(`{"name":"","gst_no":"GSTNUM000000001","cin_no":"CINNUM000000000000001"}`)
	resp, err := http.Post(server.URL+"/api/v1/companies", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var payload struct {
		Error struct {
			Type  string `json:"type"`
			Field string `json:"field"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Equal(t, "validation_error", payload.Error.Type)
	require.Equal(t, "name", payload.Error.Field)
}

func TestCreateCompanyDuplicateConflict(t *testing.T) {
	server, _ := newTestServer(t)
	createCompany(t, server, "Acme Traders", "GSTNUM000000001", "CINNUM000000000000001")

	body := []byte(`{"name":"Other","gst_no":"GSTNUM000000001","cin_no":"CINNUM000000000000002","address":"x"}`)
	resp, err := http.Post(server.URL+"/api/v1/companies", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusConflict, resp.StatusCode)

	var payload struct {
		Error struct {
			Type  string `json:"type"`
			Field string `json:"field"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Equal(t, "already_exists", payload.Error.Type)
	require.Equal(t, "gst_no", payload.Error.Field)
}

func TestGetCompanyByIDAndIdentifiers(t *testing.T) {
	server, _ := newTestServer(t)
	id := createCompany(t, server, "Acme Traders", "GSTNUM000000001", "CINNUM000000000000001")

	for _, path := range []string{
		"/api/v1/companies/" + id.String(),
		"/api/v1/companies/by-gst/GSTNUM000000001",
		"/api/v1/companies/by-cin/CINNUM000000000000001",
	} {
		resp, err := http.Get(server.URL + path)
		require.NoError(t, err, path)
		var got struct {
			ID uuid.UUID `json:"id"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
		require.Equal(t, id, got.ID, path)
	}
}

func TestGetCompanyNotFound(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/v1/companies/" + uuid.NewString())
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetCompanyBadID(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/v1/companies/not-a-uuid")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListCompaniesPagination(t *testing.T) {
	server, _ := newTestServer(t)
	createCompany(t, server, "Alpha", "GSTNUM000000001", "CINNUM000000000000001")
	createCompany(t, server, "Beta", "GSTNUM000000002", "CINNUM000000000000002")
	createCompany(t, server, "Gamma", "GSTNUM000000003", "CINNUM000000000000003")

	resp, err := http.Get(server.URL + "/api/v1/companies?limit=2&offset=1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page struct {
		Items []struct {
			Name string `json:"name"`
		} `json:"items"`
		Total  int `json:"total"`
		Limit  int `json:"limit"`
		Offset int `json:"offset"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	require.Equal(t, 3, page.Total)
	require.Equal(t, 2, page.Limit)
	require.Equal(t, 1, page.Offset)
	require.Len(t, page.Items, 2)
	require.Equal(t, "Beta", page.Items[0].Name)
}

func TestListCompaniesRejectsBadQuery(t *testing.T) {
	server, _ := newTestServer(t)

	for _, query := range []string{"?limit=abc", "?offset=abc", "?is_active=maybe", "?limit=0"} {
		resp, err := http.Get(server.URL + "/api/v1/companies" + query)
		require.NoError(t, err, query)
		resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode, query)
	}
}

func TestListCompaniesActiveFilter(t *testing.T) {
	server, _ := newTestServer(t)
	createCompany(t, server, "Alpha", "GSTNUM000000001", "CINNUM000000000000001")
	deleted := createCompany(t, server, "Beta", "GSTNUM000000002", "CINNUM000000000000002")

	req, err := http.NewRequest(http.MethodDelete, server.URL+"/api/v1/companies/"+deleted.String(), nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(server.URL + "/api/v1/companies?is_active=true")
	require.NoError(t, err)
	defer resp.Body.Close()

	var page struct {
		Items []struct {
			Name string `json:"name"`
		} `json:"items"`
		Total int `json:"total"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	require.Equal(t, 1, page.Total)
	require.Equal(t, "Alpha", page.Items[0].Name)
}

func TestUpdateCompany(t *testing.T) {
	server, _ := newTestServer(t)
	id := createCompany(t, server, "Acme Traders", "GSTNUM000000001", "CINNUM000000000000001")

	body := []byte(`{"name":"Acme Distribution"}`)
	req, err := http.NewRequest(http.MethodPatch, server.URL+"/api/v1/companies/"+id.String(), bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated struct {
		Name  string `json:"name"`
		GSTNo string `json:"gst_no"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&updated))
	require.Equal(t, "Acme Distribution", updated.Name)
	require.Equal(t, "GSTNUM000000001", updated.GSTNo)
}

func TestUpdateCompanyRequiresAField(t *testing.T) {
	server, _ := newTestServer(t)
	id := createCompany(t, server, "Acme Traders", "GSTNUM000000001", "CINNUM000000000000001")

	req, err := http.NewRequest(http.MethodPatch, server.URL+"/api/v1/companies/"+id.String(), bytes.NewReader([]byte(`{}`)))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSchemaNameEndpoint(t *testing.T) {
	server, _ := newTestServer(t)
	id := createCompany(t, server, "Acme Traders", "GSTNUM000000001", "CINNUM000000000000001")

	resp, err := http.Get(server.URL + "/api/v1/companies/" + id.String() + "/schema")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		SchemaName string `json:"schema_name"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Regexp(t, `^_[0-9a-f]{32}_$`, payload.SchemaName)
}

func TestProvisioningFailureReturnsInternalError(t *testing.T) {
	repository := repo.NewMemoryRepository()
	svc := service.New(repository, &stubMigrator{err: context.DeadlineExceeded}, zap.NewNop())

	h := handler.New(svc, zap.NewNop())
	router := chi.NewRouter()
	router.Route("/api/v1/companies", func(r chi.Router) { h.Routes(r) })
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	body := []byte(`{"name":"Acme","gst_no":"GSTNUM000000001","cin_no":"CINNUM000000000000001","address":"x"}`)
	resp, err := http.Post(server.URL+"/api/v1/companies", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var payload struct {
		Error struct {
			Type string `json:"type"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Equal(t, "operation_error", payload.Error.Type)
	require.Empty(t, repository.Schemas())
}
