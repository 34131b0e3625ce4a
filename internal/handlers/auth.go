package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/staffdesk/apiserver/internal/services"
	"github.com/staffdesk/apiserver/types"
)

// AuthHandler provides authentication and role-management endpoints.
type AuthHandler struct {
	auth *services.AuthService
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// AuthRouter registers auth routes on the given router. Role grants are
// gated behind OWNER at this boundary; the service itself performs no
// caller authorization.
func AuthRouter(r chi.Router, auth *services.AuthService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewAuthHandler(auth)

	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.Post("/refresh", handler.Refresh)
	r.Post("/seed-roles", handler.SeedRoles)

	ownerOnly := RequireRole(types.RoleOwner)
	r.With(authMiddleware, ownerOnly).Post("/make-admin", handler.MakeAdmin)
	r.With(authMiddleware, ownerOnly).Post("/make-owner", handler.MakeOwner)
}

type RegisterRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type PermissionRequest struct {
	Username string `json:"username"`
}

// AuthResponse is the result shape shared by every auth endpoint: a
// success flag, a human-readable message, and the tokens when issued.
type AuthResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

func writeAuthFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, AuthResponse{Success: false, Message: message})
}

// Register creates a new user account with the default USER role.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAuthFailure(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Password == "" {
		writeAuthFailure(w, http.StatusBadRequest, "username and password are required")
		return
	}

	_, err := h.auth.Register(r.Context(), req.Username, req.Password, req.FirstName, req.LastName, req.Email)
	if err != nil {
		var regErr *services.RegistrationError
		switch {
		case errors.Is(err, services.ErrUsernameTaken):
			writeAuthFailure(w, http.StatusConflict, "UserName Already Exists")
		case errors.As(err, &regErr):
			writeAuthFailure(w, http.StatusBadRequest, "User creation failed because: "+strings.Join(regErr.Reasons, ", "))
		default:
			writeAuthFailure(w, http.StatusInternalServerError, "failed to create user")
		}
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{Success: true, Message: "User created successfully"})
}

// Login verifies credentials and returns an access/refresh token pair.
// The failure message never reveals whether the username or the
// password was wrong.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAuthFailure(w, http.StatusBadRequest, "invalid request")
		return
	}

	result, err := h.auth.Login(r.Context(), strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			writeAuthFailure(w, http.StatusUnauthorized, "Invalid Credentials")
			return
		}
		writeAuthFailure(w, http.StatusInternalServerError, "failed to authenticate")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Success:      true,
		Message:      "Login successful",
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	})
}

// Refresh validates a refresh token and returns a new access token.
// Every validation failure yields the same generic message.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAuthFailure(w, http.StatusBadRequest, "invalid request")
		return
	}

	accessToken, err := h.auth.Refresh(r.Context(), strings.TrimSpace(req.RefreshToken))
	if err != nil {
		writeAuthFailure(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Success:     true,
		Message:     "Token refreshed successfully",
		AccessToken: accessToken,
	})
}

// SeedRoles idempotently creates the fixed role set.
func (h *AuthHandler) SeedRoles(w http.ResponseWriter, r *http.Request) {
	created, err := h.auth.SeedRoles(r.Context())
	if err != nil {
		writeAuthFailure(w, http.StatusInternalServerError, "failed to seed roles")
		return
	}

	message := "Role seeding done successfully"
	if len(created) == 0 {
		message = "Roles seeding is already done"
	}
	writeJSON(w, http.StatusOK, AuthResponse{Success: true, Message: message})
}

// MakeAdmin grants the ADMIN role to the named user.
func (h *AuthHandler) MakeAdmin(w http.ResponseWriter, r *http.Request) {
	h.grantRole(w, r, types.RoleAdmin)
}

// MakeOwner grants the OWNER role to the named user.
func (h *AuthHandler) MakeOwner(w http.ResponseWriter, r *http.Request) {
	h.grantRole(w, r, types.RoleOwner)
}

func (h *AuthHandler) grantRole(w http.ResponseWriter, r *http.Request, role types.Role) {
	var req PermissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAuthFailure(w, http.StatusBadRequest, "invalid request")
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		writeAuthFailure(w, http.StatusBadRequest, "username is required")
		return
	}

	if err := h.auth.GrantRole(r.Context(), username, role); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			writeAuthFailure(w, http.StatusNotFound, "Invalid User name")
			return
		}
		writeAuthFailure(w, http.StatusInternalServerError, "failed to update permissions")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: fmt.Sprintf("User is now an %s", role),
	})
}
