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

	"github.com/gridline-io/salesgrid/domains/areas/be/service"
	"github.com/gridline-io/salesgrid/platform/go/logging"
)

// Handler exposes a company's sales hierarchy over REST. It is mounted under
// the company resource, so every route carries a companyID.
type Handler struct {
	svc    *service.Service
	logger *zap.Logger
}

func New(svc *service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("areas service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{areaID}", h.get)
	r.Delete("/{areaID}", h.deactivate)
}

type areaResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	AreaID    *int64    `json:"area_id,omitempty"`
	RegionID  *int64    `json:"region_id,omitempty"`
	ZoneID    *int64    `json:"zone_id,omitempty"`
	NationID  *int64    `json:"nation_id,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type createRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	AreaID   *int64 `json:"area_id"`
	RegionID *int64 `json:"region_id"`
	ZoneID   *int64 `json:"zone_id"`
	NationID *int64 `json:"nation_id"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	companyID, ok := h.companyID(w, r)
	if !ok {
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, service.ValidationError{Reason: "invalid request body"})
		return
	}

	area, err := h.svc.Create(r.Context(), companyID, service.NewArea{
		Name: req.Name, Type: req.Type,
		AreaID: req.AreaID, RegionID: req.RegionID, ZoneID: req.ZoneID, NationID: req.NationID,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toResponse(area))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	companyID, ok := h.companyID(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "areaID"), 10, 64)
	if err != nil {
		h.writeError(w, r, service.ValidationError{Field: "area_id", Reason: "must be an integer"})
		return
	}

	area, err := h.svc.Get(r.Context(), companyID, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(area))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	companyID, ok := h.companyID(w, r)
	if !ok {
		return
	}

	areas, err := h.svc.List(r.Context(), companyID, r.URL.Query().Get("type"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	items := make([]areaResponse, 0, len(areas))
	for _, area := range areas {
		items = append(items, toResponse(area))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	companyID, ok := h.companyID(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "areaID"), 10, 64)
	if err != nil {
		h.writeError(w, r, service.ValidationError{Field: "area_id", Reason: "must be an integer"})
		return
	}

	if err := h.svc.Deactivate(r.Context(), companyID, id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
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

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]errorPayload{"error": {
			Type: "validation_error", Message: verr.Reason, Field: verr.Field,
		}})
	case errors.Is(err, service.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]errorPayload{"error": {
			Type: "not_found", Message: "area not found",
		}})
	default:
		logging.FromRequest(r, h.logger).Error("unhandled area error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]errorPayload{"error": {
			Type: "internal_error", Message: "internal server error",
		}})
	}
}

func toResponse(area service.Area) areaResponse {
	return areaResponse{
		ID: area.ID, Name: area.Name, Type: area.Type,
		AreaID: area.AreaID, RegionID: area.RegionID, ZoneID: area.ZoneID, NationID: area.NationID,
		IsActive: area.IsActive, CreatedAt: area.CreatedAt, UpdatedAt: area.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
