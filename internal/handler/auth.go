package handler

import (
	"net/http"

	"go.uber.org/zap"

	"movietrack/internal/httputil"
	"movietrack/internal/model"
)

// AuthHandler groups auth-related HTTP endpoints and their dependencies.
type AuthHandler struct {
	accounts AccountService
	tokens   TokenIssuer
	log      *zap.Logger
}

func NewAuthHandler(accounts AccountService, tokens TokenIssuer, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		tokens:   tokens,
		log:      log.Named("auth"),
	}
}

// Register creates an account.
// POST /register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	if _, err := h.accounts.Register(r.Context(), &req); err != nil {
		writeServiceError(w, h.log, err, "Error creating user")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "User created successfully",
	})
}

// Login exchanges email and password for a token.
// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	user, err := h.accounts.Login(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to login")
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.log.Error("issue token", zap.String("user_id", user.ID), zap.Error(err))
		httputil.WriteInternalError(w, "Failed to login")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.LoginResponse{
		Success: true,
		Token:   token,
		User:    user.Public(),
	})
}
