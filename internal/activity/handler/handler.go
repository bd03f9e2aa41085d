package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"medboard/internal/activity"
	dErrors "medboard/pkg/domain-errors"
	"medboard/pkg/platform/httputil"
	"medboard/pkg/requestcontext"
)

const defaultListLimit = 100

// Service defines the interface for activity log access.
type Service interface {
	List(ctx context.Context, filter activity.Filter) ([]activity.Entry, error)
	Record(ctx context.Context, action activity.Action, details string) error
}

// Handler exposes the admin activity log.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts activity endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/api/activities", h.HandleList)
}

// HandleList handles GET /api/activities requests. Supports ?action= and
// ?limit= query filters.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter := activity.Filter{Limit: defaultListLimit}
	if raw := r.URL.Query().Get("action"); raw != "" {
		filter.Action = activity.Action(raw)
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a positive integer"))
			return
		}
		filter.Limit = limit
	}

	entries, err := h.service.List(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "listing activities failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	// Reading the audit log is itself audited.
	if err := h.service.Record(ctx, activity.ActionViewActivities, ""); err != nil {
		h.logger.WarnContext(ctx, "recording activity view failed", "error", err)
	}

	if entries == nil {
		entries = []activity.Entry{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"activities": entries,
		"count":      len(entries),
	})
}
