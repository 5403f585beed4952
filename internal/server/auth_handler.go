package server

import (
	"net/http"

	"github.com/jonathan/resume-optimizer/internal/types"
)

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	userService *UserService
	jwtService  *JWTService
	server      *Server
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(userService *UserService, jwtService *JWTService, server *Server) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		jwtService:  jwtService,
		server:      server,
	}
}

// Register handles user registration requests.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req types.CreateUserRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		h.server.errorResponse(w, r, err)
		return
	}
	if err := validateRequest(&req); err != nil {
		h.server.errorResponse(w, r, err)
		return
	}

	user, err := h.userService.Register(r.Context(), &req)
	if err != nil {
		h.server.errorResponse(w, r, err)
		return
	}
	h.respondWithToken(w, r, http.StatusCreated, user)
}

// Login handles user login requests.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		h.server.errorResponse(w, r, err)
		return
	}
	if err := validateRequest(&req); err != nil {
		h.server.errorResponse(w, r, err)
		return
	}

	user, err := h.userService.Login(r.Context(), &req)
	if err != nil {
		h.server.errorResponse(w, r, err)
		return
	}
	h.respondWithToken(w, r, http.StatusOK, user)
}

// UpdatePassword changes the authenticated user's password.
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.server.errorResponse(w, r, err)
		return
	}

	var req types.UpdatePasswordRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		h.server.errorResponse(w, r, err)
		return
	}
	if err := validateRequest(&req); err != nil {
		h.server.errorResponse(w, r, err)
		return
	}

	if err := h.userService.UpdatePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		h.server.errorResponse(w, r, err)
		return
	}
	h.server.jsonResponse(w, http.StatusOK, map[string]string{"message": "Password updated successfully"})
}

// Me returns the authenticated user's account.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.server.errorResponse(w, r, err)
		return
	}
	user, err := h.userService.Profile(r.Context(), userID)
	if err != nil {
		h.server.errorResponse(w, r, err)
		return
	}
	h.server.jsonResponse(w, http.StatusOK, user)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, r *http.Request, status int, user *types.User) {
	token, err := h.jwtService.GenerateToken(user.ID)
	if err != nil {
		h.server.errorResponse(w, r, err)
		return
	}
	h.server.jsonResponse(w, status, types.LoginResponse{User: user, Token: token})
}
