package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/campusiq/campusiq/internal/audit"
	"github.com/campusiq/campusiq/internal/platform/httpx"
	"github.com/campusiq/campusiq/internal/rbac"
	"github.com/campusiq/campusiq/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router. Login and
// refresh are unauthenticated by nature; logout is mounted separately
// behind the guard pipeline.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/refresh", h.handleRefresh)
}

// MountProtectedRoutes registers routes that require a principal.
func (h *Handler) MountProtectedRoutes(r chi.Router) {
	r.Post("/logout", h.handleLogout)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         userResponse `json:"user"`
}

type userResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	CollegeID string `json:"college_id,omitempty"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	pair, user, err := h.service.Login(r.Context(), req.Email, req.Password, audit.OriginFromRequest(r))
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrAccountInactive):
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "your account has been deactivated, contact your administrator")
		case errors.Is(err, shared.ErrInvalidCredentials):
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid email or password")
		default:
			h.logger.Error("login", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		}
		return
	}

	httpx.JSON(w, http.StatusOK, loginResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User: userResponse{
			ID:        user.ID,
			Email:     user.Email,
			Name:      user.FullName,
			Role:      string(user.Role),
			CollegeID: user.CollegeID,
		},
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	access, expiresAt, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		var authErr *Error
		if errors.As(err, &authErr) {
			httpx.ProblemCode(w, http.StatusUnauthorized, "Unauthorized", authErr.Detail, authErr.Code)
			return
		}
		h.logger.Error("refresh", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"access_token": access,
		"expires_at":   expiresAt,
	})
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	// Body is optional on logout; a missing refresh token still blocks
	// the presented access credential.
	_ = httpx.DecodeJSON(r, &req)

	principal := rbac.PrincipalFromContext(r.Context())
	h.service.Logout(r.Context(), principal, BearerToken(r), req.RefreshToken, audit.OriginFromRequest(r))
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}
