package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"medboard/internal/doctor/models"
	"medboard/internal/doctor/service"
	doctorstore "medboard/internal/doctor/store/doctor"
	id "medboard/pkg/domain"
	"medboard/pkg/platform/httputil"
	"medboard/pkg/requestcontext"
)

// Service defines the interface for doctor lifecycle operations.
type Service interface {
	Create(ctx context.Context, req service.CreateRequest) (*models.Doctor, error)
	Get(ctx context.Context, doctorID id.DoctorID) (*models.Doctor, error)
	List(ctx context.Context, filter doctorstore.Filter) ([]*models.Doctor, error)
	Update(ctx context.Context, doctorID id.DoctorID, req service.UpdateRequest) (*models.Doctor, error)
	Suspend(ctx context.Context, doctorID id.DoctorID, reason, detail string) (*service.SuspendResult, error)
	Unsuspend(ctx context.Context, doctorID id.DoctorID) (*models.Doctor, error)
	Delete(ctx context.Context, doctorID id.DoctorID) error
	ListSuspensions(ctx context.Context, doctorID id.DoctorID) ([]*models.SuspensionRecord, error)
	RevokeSuspension(ctx context.Context, suspensionID id.SuspensionID) (*models.SuspensionRecord, error)
}

// Handler wires doctor endpoints to the lifecycle service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts doctor endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/doctors", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
		r.Get("/{id}", h.HandleGet)
		r.Put("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleDelete)
		r.Post("/{id}/suspend", h.HandleSuspend)
		r.Post("/{id}/unsuspend", h.HandleUnsuspend)
		r.Get("/{id}/suspensions", h.HandleListSuspensions)
	})
	r.Post("/api/suspensions/{id}/revoke", h.HandleRevokeSuspension)
}

func (h *Handler) doctorID(w http.ResponseWriter, r *http.Request) (id.DoctorID, bool) {
	doctorID, err := id.ParseDoctorID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.DoctorID{}, false
	}
	return doctorID, true
}

// HandleList handles GET /api/doctors requests. Supports ?status= and ?q=.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter := doctorstore.Filter{Search: r.URL.Query().Get("q")}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := models.ParseStatus(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.Status = status
	}

	doctors, err := h.service.List(ctx, filter)
	if err != nil {
		h.logError(ctx, "listing doctors failed", err)
		httputil.WriteError(w, err)
		return
	}
	if doctors == nil {
		doctors = []*models.Doctor{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"doctors": doctors, "count": len(doctors)})
}

// HandleGet handles GET /api/doctors/{id} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := h.doctorID(w, r)
	if !ok {
		return
	}
	doctor, err := h.service.Get(r.Context(), doctorID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, doctor)
}

// HandleCreate handles POST /api/doctors requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[CreateDoctorRequest](w, r, h.logger)
	if !ok {
		return
	}

	doctor, err := h.service.Create(ctx, req.toService())
	if err != nil {
		h.logError(ctx, "creating doctor failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, doctor)
}

// HandleUpdate handles PUT /api/doctors/{id} requests.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	doctorID, ok := h.doctorID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[UpdateDoctorRequest](w, r, h.logger)
	if !ok {
		return
	}

	domainReq, err := req.toService()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	doctor, err := h.service.Update(ctx, doctorID, domainReq)
	if err != nil {
		h.logError(ctx, "updating doctor failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, doctor)
}

// HandleSuspend handles POST /api/doctors/{id}/suspend requests. The response
// distinguishes the strike-limit outcome: a retained doctor comes back under
// "doctor", a strike-limit deletion as {"deleted": true}.
func (h *Handler) HandleSuspend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	doctorID, ok := h.doctorID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[SuspendDoctorRequest](w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.service.Suspend(ctx, doctorID, req.Reason, req.Detail)
	if err != nil {
		h.logError(ctx, "suspending doctor failed", err)
		httputil.WriteError(w, err)
		return
	}

	if result.Deleted {
		h.logger.InfoContext(ctx, "doctor deleted on strike limit",
			"request_id", requestcontext.RequestID(ctx),
			"doctor_id", doctorID.String(),
			"strikes", result.StrikeCount,
		)
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"deleted": true,
			"strikes": result.StrikeCount,
		})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"deleted":    false,
		"strikes":    result.StrikeCount,
		"doctor":     result.Doctor,
		"suspension": result.Record,
	})
}

// HandleUnsuspend handles POST /api/doctors/{id}/unsuspend requests.
func (h *Handler) HandleUnsuspend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	doctorID, ok := h.doctorID(w, r)
	if !ok {
		return
	}
	doctor, err := h.service.Unsuspend(ctx, doctorID)
	if err != nil {
		h.logError(ctx, "unsuspending doctor failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, doctor)
}

// HandleDelete handles DELETE /api/doctors/{id} requests.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	doctorID, ok := h.doctorID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(ctx, doctorID); err != nil {
		h.logError(ctx, "deleting doctor failed", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleListSuspensions handles GET /api/doctors/{id}/suspensions requests.
func (h *Handler) HandleListSuspensions(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := h.doctorID(w, r)
	if !ok {
		return
	}
	records, err := h.service.ListSuspensions(r.Context(), doctorID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if records == nil {
		records = []*models.SuspensionRecord{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"suspensions": records, "count": len(records)})
}

// HandleRevokeSuspension handles POST /api/suspensions/{id}/revoke requests.
func (h *Handler) HandleRevokeSuspension(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	suspensionID, err := id.ParseSuspensionID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	record, err := h.service.RevokeSuspension(ctx, suspensionID)
	if err != nil {
		h.logError(ctx, "revoking suspension failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	h.logger.ErrorContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
}
