package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskflow-api/internal/api/shared"
	"github.com/phrazzld/taskflow-api/internal/config"
	"github.com/phrazzld/taskflow-api/internal/domain"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/service/auth"
	"github.com/phrazzld/taskflow-api/internal/store"
)

// AuthHandler handles authentication-related requests.
type AuthHandler struct {
	userStore        store.UserStore
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	authConfig       *config.AuthConfig
	logger           *slog.Logger
}

// NewAuthHandler creates a new AuthHandler with its dependencies.
func NewAuthHandler(
	userStore store.UserStore,
	jwtService auth.JWTService,
	passwordVerifier auth.PasswordVerifier,
	authConfig *config.AuthConfig,
	log *slog.Logger,
) *AuthHandler {
	if log == nil {
		log = slog.Default()
	}

	return &AuthHandler{
		userStore:        userStore,
		jwtService:       jwtService,
		passwordVerifier: passwordVerifier,
		authConfig:       authConfig,
		logger:           log.With(slog.String("component", "auth_handler")),
	}
}

// Register handles POST /api/auth/register. It creates the user and returns
// a token pair so the client is signed in immediately.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req RegisterRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	user, err := domain.NewUser(req.Email, req.Username, req.DisplayName, req.Password)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	if err := h.userStore.Create(r.Context(), user); err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Info("user registered",
		slog.String("user_id", user.ID.String()),
		slog.String("username", user.Username))

	h.respondWithTokens(w, r, user.ID, http.StatusCreated)
}

// Login handles POST /api/auth/login. The identifier may be an email address
// or a username; which one is decided by the presence of "@".
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req LoginRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	var (
		user *domain.User
		err  error
	)
	if strings.Contains(req.Identifier, "@") {
		user, err = h.userStore.GetByEmail(r.Context(), req.Identifier)
	} else {
		user, err = h.userStore.GetByUsername(r.Context(), req.Identifier)
	}
	if err != nil {
		// Same response for unknown identifier and bad password.
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if err := h.passwordVerifier.Compare(user.HashedPassword, req.Password); err != nil {
		log.Debug("login failed",
			slog.String("user_id", user.ID.String()))
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	log.Info("user logged in", slog.String("user_id", user.ID.String()))

	h.respondWithTokens(w, r, user.ID, http.StatusOK)
}

// RefreshToken handles POST /api/auth/refresh. It exchanges a valid refresh
// token for a fresh token pair.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req RefreshTokenRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid or expired refresh token")
		return
	}

	// The user may have been deleted since the token was issued.
	if _, err := h.userStore.GetByID(r.Context(), claims.UserID); err != nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid or expired refresh token")
		return
	}

	log.Debug("token refreshed", slog.String("user_id", claims.UserID.String()))

	h.respondWithTokens(w, r, claims.UserID, http.StatusOK)
}

// respondWithTokens issues an access/refresh token pair for the user and
// writes the auth response.
func (h *AuthHandler) respondWithTokens(
	w http.ResponseWriter,
	r *http.Request,
	userID uuid.UUID,
	status int,
) {
	accessToken, err := h.jwtService.GenerateToken(r.Context(), userID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			http.StatusInternalServerError, "Failed to generate token", err)
		return
	}

	refreshToken, err := h.jwtService.GenerateRefreshToken(r.Context(), userID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			http.StatusInternalServerError, "Failed to generate token", err)
		return
	}

	expiresAt := time.Now().UTC().
		Add(time.Duration(h.authConfig.TokenLifetimeMinutes) * time.Minute)

	shared.RespondWithSuccess(w, r, status, AuthResponse{
		UserID:       userID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}, "")
}
