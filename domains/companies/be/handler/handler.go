package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gridline-io/salesgrid/domains/companies/be/service"
	"github.com/gridline-io/salesgrid/platform/go/logging"
)

// Handler exposes the companies service over REST.
type Handler struct {
	svc    *service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc *service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("companies service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the companies resource on a chi router. Subresources (such
// as the per-company areas routes) are mounted inside the {companyID} subtree
// so their URL parameters resolve against the same route.
func (h *Handler) Routes(r chi.Router, subresources ...func(chi.Router)) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/by-gst/{gstNo}", h.getByGST)
	r.Get("/by-cin/{cinNo}", h.getByCIN)
	r.Route("/{companyID}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Patch("/", h.update)
		r.Delete("/", h.delete)
		r.Get("/schema", h.schemaName)
		for _, mount := range subresources {
			mount(r)
		}
	})
}

type companyResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	GSTNo     string    `json:"gst_no"`
	CINNo     string    `json:"cin_no"`
	Address   string    `json:"address"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type companyListItem struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	IsActive bool      `json:"is_active"`
}

type listResponse struct {
	Items  []companyListItem `json:"items"`
	Total  int               `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

type createRequest struct {
	Name    string `json:"name"`
	GSTNo   string `json:"gst_no"`
	CINNo   string `json:"cin_no"`
	Address string `json:"address"`
}

type updateRequest struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, service.ValidationError{Reason: "invalid request body"})
		return
	}

	company, err := h.svc.Create(r.Context(), service.CreateInput{
		Name:    req.Name,
		GSTNo:   req.GSTNo,
		CINNo:   req.CINNo,
		Address: req.Address,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/v1/companies/"+company.ID.String())
	writeJSON(w, http.StatusCreated, toResponse(company))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.companyID(w, r)
	if !ok {
		return
	}
	company, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(company))
}

func (h *Handler) getByGST(w http.ResponseWriter, r *http.Request) {
	company, err := h.svc.GetByGST(r.Context(), chi.URLParam(r, "gstNo"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(company))
}

func (h *Handler) getByCIN(w http.ResponseWriter, r *http.Request) {
	company, err := h.svc.GetByCIN(r.Context(), chi.URLParam(r, "cinNo"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(company))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	opts := service.ListOptions{Limit: 20, Offset: 0}

	query := r.URL.Query()
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, r, service.ValidationError{Field: "limit", Reason: "must be an integer"})
			return
		}
		opts.Limit = limit
	}
	if raw := query.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, r, service.ValidationError{Field: "offset", Reason: "must be an integer"})
			return
		}
		opts.Offset = offset
	}
	if raw := query.Get("is_active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			h.writeError(w, r, service.ValidationError{Field: "is_active", Reason: "must be a boolean"})
			return
		}
		opts.IsActive = &active
	}

	result, err := h.svc.List(r.Context(), opts)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	items := make([]companyListItem, 0, len(result.Items))
	for _, item := range result.Items {
		items = append(items, companyListItem{ID: item.ID, Name: item.Name, IsActive: item.IsActive})
	}
	writeJSON(w, http.StatusOK, listResponse{Items: items, Total: result.Total, Limit: result.Limit, Offset: result.Offset})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.companyID(w, r)
	if !ok {
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, service.ValidationError{Reason: "invalid request body"})
		return
	}

	company, err := h.svc.Update(r.Context(), id, service.UpdateInput{Name: req.Name, Address: req.Address})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(company))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.companyID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) schemaName(w http.ResponseWriter, r *http.Request) {
	id, ok := h.companyID(w, r)
	if !ok {
		return
	}
	name, err := h.svc.SchemaName(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"schema_name": name})
}

func (h *Handler) companyID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "companyID"))
	if err != nil {
		h.writeError(w, r, service.ValidationError{Field: "company_id", Reason: "must be a uuid"})
		return uuid.Nil, false
	}
	return id, true
}

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

// writeError maps the service taxonomy onto status codes. Internal details
// stay out of validation/not-found/conflict payloads.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr   service.ValidationError
		exists service.AlreadyExistsError
		opErr  service.OperationError
	)

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: errorPayload{
			Type: "validation_error", Message: verr.Reason, Field: verr.Field,
		}})
	case errors.As(err, &exists):
		writeJSON(w, http.StatusConflict, errorResponse{Error: errorPayload{
			Type: "already_exists", Message: exists.Error(), Field: exists.Field,
		}})
	case errors.Is(err, service.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: errorPayload{
			Type: "not_found", Message: "company not found",
		}})
	case errors.As(err, &opErr):
		logging.FromRequest(r, h.logger).Error("company operation failed",
			zap.String("operation", opErr.Op), zap.Error(opErr.Err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: errorPayload{
			Type: "operation_error", Message: "company provisioning failed",
		}})
	default:
		logging.FromRequest(r, h.logger).Error("unhandled company error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: errorPayload{
			Type: "internal_error", Message: "internal server error",
		}})
	}
}

func toResponse(company service.Company) companyResponse {
	return companyResponse{
		ID:        company.ID,
		Name:      company.Name,
		GSTNo:     company.GSTNo,
		CINNo:     company.CINNo,
		Address:   company.Address,
		IsActive:  company.IsActive,
		CreatedAt: company.CreatedAt,
		UpdatedAt: company.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
