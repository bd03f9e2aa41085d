package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"medboard/internal/candidate/models"
	"medboard/internal/candidate/service"
	candidatestore "medboard/internal/candidate/store"
	doctormodels "medboard/internal/doctor/models"
	id "medboard/pkg/domain"
	"medboard/pkg/platform/httputil"
	"medboard/pkg/requestcontext"
)

// Service defines the interface for candidate intake and review.
type Service interface {
	Create(ctx context.Context, req service.CreateRequest) (*service.IntakeResult, error)
	Get(ctx context.Context, candidateID id.CandidateID) (*models.Candidate, error)
	List(ctx context.Context, filter candidatestore.Filter) ([]*models.Candidate, error)
	Approve(ctx context.Context, candidateID id.CandidateID) (*doctormodels.Doctor, error)
	Reject(ctx context.Context, candidateID id.CandidateID) (*models.Candidate, error)
}

// Handler wires candidate endpoints to the intake service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts candidate endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/candidates", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
		r.Get("/{id}", h.HandleGet)
		r.Post("/{id}/approve", h.HandleApprove)
		r.Post("/{id}/reject", h.HandleReject)
	})
}

func (h *Handler) candidateID(w http.ResponseWriter, r *http.Request) (id.CandidateID, bool) {
	candidateID, err := id.ParseCandidateID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.CandidateID{}, false
	}
	return candidateID, true
}

// StringList lets credential fields accept both a string and a list.
type StringList = httputil.StringList

// CreateCandidateRequest is the payload for POST /api/candidates. Credential
// fields accept both a string and a list of strings.
type CreateCandidateRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`

	Specializations      StringList `json:"specializations"`
	Licenses             StringList `json:"licenses"`
	Degrees              StringList `json:"degrees"`
	Residencies          StringList `json:"residencies"`
	Fellowships          StringList `json:"fellowships"`
	BoardCertifications  StringList `json:"board_certifications"`
	HospitalAffiliations StringList `json:"hospital_affiliations"`
	Memberships          StringList `json:"memberships"`
}

func (r CreateCandidateRequest) toService() service.CreateRequest {
	return service.CreateRequest{
		Name:  r.Name,
		Email: r.Email,
		Phone: r.Phone,
		Credentials: doctormodels.Credentials{
			Specializations:      r.Specializations,
			Licenses:             r.Licenses,
			Degrees:              r.Degrees,
			Residencies:          r.Residencies,
			Fellowships:          r.Fellowships,
			BoardCertifications:  r.BoardCertifications,
			HospitalAffiliations: r.HospitalAffiliations,
			Memberships:          r.Memberships,
		},
	}
}

// HandleCreate handles POST /api/candidates requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[CreateCandidateRequest](w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.service.Create(ctx, req.toService())
	if err != nil {
		h.logger.ErrorContext(ctx, "creating candidate failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"candidate":   result.Candidate,
		"blacklisted": result.Blacklisted,
	})
}

// HandleGet handles GET /api/candidates/{id} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	candidateID, ok := h.candidateID(w, r)
	if !ok {
		return
	}
	candidate, err := h.service.Get(r.Context(), candidateID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, candidate)
}

// HandleList handles GET /api/candidates requests. Supports ?status=.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	filter := candidatestore.Filter{}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := models.ParseStatus(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.Status = status
	}

	candidates, err := h.service.List(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if candidates == nil {
		candidates = []*models.Candidate{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"candidates": candidates, "count": len(candidates)})
}

// HandleApprove handles POST /api/candidates/{id}/approve requests. The
// response carries the doctor the candidate became.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	candidateID, ok := h.candidateID(w, r)
	if !ok {
		return
	}
	doctor, err := h.service.Approve(ctx, candidateID)
	if err != nil {
		h.logger.ErrorContext(ctx, "approving candidate failed",
			"request_id", requestcontext.RequestID(ctx),
			"candidate_id", candidateID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"doctor": doctor})
}

// HandleReject handles POST /api/candidates/{id}/reject requests.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	candidateID, ok := h.candidateID(w, r)
	if !ok {
		return
	}
	candidate, err := h.service.Reject(ctx, candidateID)
	if err != nil {
		h.logger.ErrorContext(ctx, "rejecting candidate failed",
			"request_id", requestcontext.RequestID(ctx),
			"candidate_id", candidateID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, candidate)
}

