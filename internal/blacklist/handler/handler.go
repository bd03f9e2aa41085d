package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"medboard/internal/blacklist/models"
	"medboard/internal/blacklist/service"
	blackliststore "medboard/internal/blacklist/store"
	id "medboard/pkg/domain"
	dErrors "medboard/pkg/domain-errors"
	"medboard/pkg/platform/httputil"
	"medboard/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the interface for blacklist review operations.
type Service interface {
	Get(ctx context.Context, entryID id.BlacklistEntryID) (*models.Entry, error)
	List(ctx context.Context, filter blackliststore.Filter) ([]*models.Entry, error)
	Search(ctx context.Context, term string) ([]*models.Entry, error)
	Update(ctx context.Context, entryID id.BlacklistEntryID, req service.UpdateRequest) (*models.Entry, error)
	Remove(ctx context.Context, entryID id.BlacklistEntryID, permanent bool) error
}

// Handler wires blacklist endpoints to the blacklist service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts blacklist endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/blacklist", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Get("/search", h.HandleSearch)
		r.Get("/{id}", h.HandleGet)
		r.Put("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleRemove)
	})
}

func (h *Handler) entryID(w http.ResponseWriter, r *http.Request) (id.BlacklistEntryID, bool) {
	entryID, err := id.ParseBlacklistEntryID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.BlacklistEntryID{}, false
	}
	return entryID, true
}

// HandleList handles GET /api/blacklist requests. Supports ?reason= and
// ?active=.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	filter := blackliststore.Filter{}
	if raw := r.URL.Query().Get("reason"); raw != "" {
		reason, err := models.ParseReason(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.Reason = reason
	}
	if raw := r.URL.Query().Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "active must be a boolean"))
			return
		}
		filter.Active = &active
	}

	entries, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logError(r.Context(), "listing blacklist failed", err)
		httputil.WriteError(w, err)
		return
	}
	writeEntries(w, entries)
}

// HandleSearch handles GET /api/blacklist/search?q= requests.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	writeEntries(w, entries)
}

// HandleGet handles GET /api/blacklist/{id} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	entryID, ok := h.entryID(w, r)
	if !ok {
		return
	}
	entry, err := h.service.Get(r.Context(), entryID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entry)
}

// UpdateEntryRequest is the payload for PUT /api/blacklist/{id}.
type UpdateEntryRequest struct {
	Name     *string              `json:"name"`
	Email    *string              `json:"email"`
	Phone    *string              `json:"phone"`
	Licenses *httputil.StringList `json:"licenses"`
	Reason   *string              `json:"reason"`
	IsActive *bool                `json:"is_active"`
}

// HandleUpdate handles PUT /api/blacklist/{id} requests.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entryID, ok := h.entryID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[UpdateEntryRequest](w, r, h.logger)
	if !ok {
		return
	}

	domainReq := service.UpdateRequest{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		IsActive: req.IsActive,
	}
	if req.Licenses != nil {
		licenses := []string(*req.Licenses)
		domainReq.Licenses = &licenses
	}
	if req.Reason != nil {
		reason, err := models.ParseReason(*req.Reason)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		domainReq.Reason = &reason
	}

	entry, err := h.service.Update(ctx, entryID, domainReq)
	if err != nil {
		h.logError(ctx, "updating blacklist entry failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entry)
}

// HandleRemove handles DELETE /api/blacklist/{id} requests. Deactivates by
// default; ?permanent=true deletes the row.
func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entryID, ok := h.entryID(w, r)
	if !ok {
		return
	}
	permanent := false
	if raw := r.URL.Query().Get("permanent"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "permanent must be a boolean"))
			return
		}
		permanent = parsed
	}

	if err := h.service.Remove(ctx, entryID, permanent); err != nil {
		h.logError(ctx, "removing blacklist entry failed", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeEntries(w http.ResponseWriter, entries []*models.Entry) {
	if entries == nil {
		entries = []*models.Entry{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"entries": entries, "count": len(entries)})
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	h.logger.ErrorContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
}
