package api

import (
	"net/http"

	"github.com/phrazzld/answers-api/internal/api/shared"
	"github.com/phrazzld/answers-api/internal/service"
)

// AuthHandler handles registration and login.
type AuthHandler struct {
	users service.UserService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users service.UserService) *AuthHandler {
	return &AuthHandler{users: users}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.users.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create user")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, userToResponse(user))
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	token, user, err := h.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if MapErrorToStatusCode(err) == http.StatusUnauthorized {
			shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, "Invalid credentials", err)
			return
		}
		HandleAPIError(w, r, err, "Failed to authenticate user")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, AuthResponse{UserID: user.ID, Token: token})
}
