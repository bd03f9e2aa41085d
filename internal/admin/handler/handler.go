package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"medboard/internal/admin/models"
	"medboard/internal/admin/service"
	id "medboard/pkg/domain"
	dErrors "medboard/pkg/domain-errors"
	"medboard/pkg/platform/httputil"
	"medboard/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the interface for admin account operations.
type Service interface {
	Create(ctx context.Context, req service.CreateRequest) (*models.Admin, error)
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	Get(ctx context.Context, adminID id.AdminID) (*models.Admin, error)
}

// Handler wires admin account endpoints to the admin service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic mounts the endpoints that must work without a token.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/api/admin/login", h.HandleLogin)
}

// Register mounts the authenticated admin endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/admins", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/me", h.HandleMe)
	})
}

// LoginRequest is the payload for POST /api/admin/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin handles POST /api/admin/login requests.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[LoginRequest](w, r, h.logger)
	if !ok {
		return
	}
	if req.Email == "" || req.Password == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "email and password are required"))
		return
	}

	result, err := h.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"access_token": result.Token,
		"token_type":   "Bearer",
		"expires_in":   int(result.ExpiresIn.Seconds()),
		"admin":        result.Admin,
	})
}

// CreateAdminRequest is the payload for POST /api/admins.
type CreateAdminRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleCreate handles POST /api/admins requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[CreateAdminRequest](w, r, h.logger)
	if !ok {
		return
	}

	admin, err := h.service.Create(ctx, service.CreateRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "creating admin failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, admin)
}

// HandleMe handles GET /api/admins/me requests, returning the account behind
// the presented token.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	adminID := requestcontext.ActorID(ctx)
	if adminID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "no authenticated admin"))
		return
	}
	admin, err := h.service.Get(ctx, adminID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, admin)
}
