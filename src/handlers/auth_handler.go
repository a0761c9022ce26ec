package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/username/liquidador/src/logger"
	"github.com/username/liquidador/src/security"
	"github.com/username/liquidador/src/utils"
)

// AuthHandler manages the single-operator session: a PIN is exchanged for a
// bearer token, and Middleware guards the liquidation routes with it.
type AuthHandler struct {
	authService *security.AuthService
	pinHash     string
}

func NewAuthHandler(authService *security.AuthService, pinHash string) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		pinHash:     pinHash,
	}
}

type sessionRequest struct {
	PIN string `json:"pin"`
}

func (h *AuthHandler) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PIN == "" {
		utils.SendJSONError(w, "PIN is required", http.StatusBadRequest)
		return
	}

	if err := h.authService.ComparePIN(h.pinHash, req.PIN); err != nil {
		logger.L.Warn("Session request with invalid PIN", "remoteAddr", r.RemoteAddr)
		utils.SendJSONError(w, "Invalid PIN", http.StatusUnauthorized)
		return
	}

	token, err := h.authService.GenerateToken()
	if err != nil {
		logger.L.Error("Failed to generate session token", "error", err)
		utils.SendJSONError(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	logger.L.Info("Operator session created", "remoteAddr", r.RemoteAddr)
	utils.SendJSON(w, map[string]string{"token": token}, http.StatusOK)
}

func (h *AuthHandler) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			logger.L.Debug("Middleware: Authorization header missing", "path", r.URL.Path)
			utils.SendJSONError(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == "" {
			utils.SendJSONError(w, "Malformed token", http.StatusUnauthorized)
			return
		}

		if _, err := h.authService.ValidateToken(tokenString); err != nil {
			logger.L.Warn("Middleware: Token validation failed", "path", r.URL.Path, "error", err)
			utils.SendJSONError(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		next(w, r)
	}
}
