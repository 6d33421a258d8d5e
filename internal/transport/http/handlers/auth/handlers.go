package authhandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"perftrack/internal/domain/audit"
	"perftrack/internal/domain/auth"
	"perftrack/internal/domain/notifications"
	cryptoutil "perftrack/internal/platform/crypto"
	"perftrack/internal/transport/http/api"
	"perftrack/internal/transport/http/middleware"
	"perftrack/internal/transport/http/shared"
)

const (
	sessionTTL = 7 * 24 * time.Hour
	resetTTL   = time.Hour
)

type Handler struct {
	Store    *auth.Store
	Secret   string
	TokenTTL time.Duration
	Crypto   *cryptoutil.Service
	Notifier *notifications.Service
	Audit    *audit.Service
}

func NewHandler(store *auth.Store, secret string, tokenTTL time.Duration, crypto *cryptoutil.Service, notifier *notifications.Service, auditor *audit.Service) *Handler {
	return &Handler{Store: store, Secret: secret, TokenTTL: tokenTTL, Crypto: crypto, Notifier: notifier, Audit: auditor}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Code     string `json:"code"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type mfaCodeRequest struct {
	Code string `json:"code"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	account, err := h.Store.FindUserByEmail(r.Context(), payload.Email)
	if err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", middleware.GetRequestID(r.Context()))
		return
	}
	if err := auth.CheckPassword(account.PasswordHash, payload.Password); err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", middleware.GetRequestID(r.Context()))
		return
	}
	if !account.IsActive {
		api.Fail(w, http.StatusForbidden, "account_disabled", "account is disabled", middleware.GetRequestID(r.Context()))
		return
	}

	if account.MFAEnabled {
		if payload.Code == "" {
			api.Fail(w, http.StatusUnauthorized, "mfa_required", "mfa code required", middleware.GetRequestID(r.Context()))
			return
		}
		secret := string(account.MFASecretEnc)
		if h.Crypto != nil && h.Crypto.Configured() {
			decoded, err := h.Crypto.DecryptString(account.MFASecretEnc)
			if err != nil {
				api.Fail(w, http.StatusUnauthorized, "mfa_required", "invalid mfa configuration", middleware.GetRequestID(r.Context()))
				return
			}
			secret = decoded
		}
		if secret == "" || !totp.Validate(payload.Code, secret) {
			api.Fail(w, http.StatusUnauthorized, "mfa_required", "invalid mfa code", middleware.GetRequestID(r.Context()))
			return
		}
	}

	opaque, err := auth.NewOpaqueToken()
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", middleware.GetRequestID(r.Context()))
		return
	}
	sessionID, err := h.Store.CreateSession(r.Context(), account.ID, auth.HashToken(opaque), time.Now().Add(sessionTTL))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "session_error", "failed to start session", middleware.GetRequestID(r.Context()))
		return
	}

	token, err := h.issueToken(account.ID, payload.Email, account.Role, account.EmployeeID, sessionID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Store.UpdateLastLogin(r.Context(), account.ID); err != nil {
		slog.Warn("update last_login failed", "userId", account.ID, "err", err)
	}
	if err := h.Audit.Record(r.Context(), account.ID, "auth.login", "user", account.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, nil); err != nil {
		slog.Warn("audit auth.login failed", "err", err)
	}

	api.Success(w, map[string]any{
		"token": token,
		"user": map[string]string{
			"id":         account.ID,
			"name":       account.Name,
			"email":      payload.Email,
			"role":       string(account.Role),
			"employeeId": account.EmployeeID,
		},
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	if user.SessionID == "" {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "session expired", middleware.GetRequestID(r.Context()))
		return
	}

	// Rotation: retire the current session and mint a replacement.
	if err := h.Store.RevokeSession(r.Context(), user.SessionID); err != nil {
		api.Fail(w, http.StatusInternalServerError, "session_error", "failed to rotate session", middleware.GetRequestID(r.Context()))
		return
	}
	opaque, err := auth.NewOpaqueToken()
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to rotate session", middleware.GetRequestID(r.Context()))
		return
	}
	sessionID, err := h.Store.CreateSession(r.Context(), user.UserID, auth.HashToken(opaque), time.Now().Add(sessionTTL))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "session_error", "failed to rotate session", middleware.GetRequestID(r.Context()))
		return
	}

	token, err := h.issueToken(user.UserID, user.Email, user.Role, user.EmployeeID, sessionID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"token": token}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if user, ok := middleware.GetUser(r.Context()); ok && user.SessionID != "" {
		if err := h.Store.RevokeSession(r.Context(), user.SessionID); err != nil {
			slog.Warn("logout session revoke failed", "userId", user.UserID, "err", err)
		}
	}
	api.Success(w, map[string]string{"status": "logged_out"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	current, err := h.Store.GetUser(r.Context(), user.UserID)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "not_found", "user not found", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, current, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleMFASetup(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	if !h.mfaAvailable(w, r) {
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "perftrack",
		AccountName: user.Email,
		Period:      30,
		Digits:      otp.DigitsSix,
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "mfa_setup_failed", "failed to generate mfa secret", middleware.GetRequestID(r.Context()))
		return
	}
	secret := key.Secret()
	encrypted, err := h.Crypto.EncryptString(secret)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "mfa_setup_failed", "failed to store mfa secret", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Store.UpdateMFASecret(r.Context(), user.UserID, encrypted); err != nil {
		api.Fail(w, http.StatusInternalServerError, "mfa_setup_failed", "failed to store mfa secret", middleware.GetRequestID(r.Context()))
		return
	}

	api.Success(w, map[string]string{"secret": secret, "otpauthUrl": key.URL()}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleMFAEnable(w http.ResponseWriter, r *http.Request) {
	h.handleMFAToggle(w, r, true)
}

func (h *Handler) HandleMFADisable(w http.ResponseWriter, r *http.Request) {
	h.handleMFAToggle(w, r, false)
}

func (h *Handler) handleMFAToggle(w http.ResponseWriter, r *http.Request, enable bool) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	if !h.mfaAvailable(w, r) {
		return
	}

	var payload mfaCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	secretEnc, err := h.Store.GetMFASecret(r.Context(), user.UserID)
	if err != nil || len(secretEnc) == 0 {
		api.Fail(w, http.StatusBadRequest, "mfa_missing", "mfa setup required", middleware.GetRequestID(r.Context()))
		return
	}
	secret, err := h.Crypto.DecryptString(secretEnc)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "mfa_invalid", "invalid mfa secret", middleware.GetRequestID(r.Context()))
		return
	}
	if !totp.Validate(payload.Code, secret) {
		api.Fail(w, http.StatusBadRequest, "mfa_invalid", "invalid mfa code", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Store.SetMFAEnabled(r.Context(), user.UserID, enable); err != nil {
		api.Fail(w, http.StatusInternalServerError, "mfa_update_failed", "failed to update mfa", middleware.GetRequestID(r.Context()))
		return
	}
	status := "disabled"
	if enable {
		status = "enabled"
	}
	api.Success(w, map[string]string{"status": status}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) mfaAvailable(w http.ResponseWriter, r *http.Request) bool {
	if h.Crypto == nil || !h.Crypto.Configured() {
		api.Fail(w, http.StatusServiceUnavailable, "mfa_unavailable", "mfa requires an encryption key", middleware.GetRequestID(r.Context()))
		return false
	}
	return true
}

func (h *Handler) HandleRequestReset(w http.ResponseWriter, r *http.Request) {
	var payload resetRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	// Always 200 so the endpoint cannot be used to probe for accounts.
	userID, err := h.Store.UserIDByEmail(r.Context(), payload.Email)
	if err == nil && userID != "" {
		token, err := auth.NewOpaqueToken()
		if err != nil {
			slog.Warn("password reset token generation failed", "userId", userID, "err", err)
			api.Success(w, map[string]string{"status": "reset_requested"}, middleware.GetRequestID(r.Context()))
			return
		}
		if err := h.Store.CreatePasswordReset(r.Context(), userID, auth.HashToken(token), time.Now().Add(resetTTL)); err != nil {
			slog.Warn("password reset insert failed", "userId", userID, "err", err)
		} else if err := h.Notifier.Notify(r.Context(), userID, notifications.TypePasswordReset,
			"Password reset requested",
			"Use this token to reset your password within the next hour: "+token); err != nil {
			slog.Warn("password reset notification failed", "userId", userID, "err", err)
		}
	}

	api.Success(w, map[string]string{"status": "reset_requested"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var payload resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if len(payload.NewPassword) < 8 {
		api.Fail(w, http.StatusBadRequest, "weak_password", "password must be at least 8 characters", middleware.GetRequestID(r.Context()))
		return
	}

	tokenHash := auth.HashToken(payload.Token)
	userID, err := h.Store.PasswordResetUserID(r.Context(), tokenHash)
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusBadRequest, "invalid_token", "invalid or expired token", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "reset_failed", "failed to reset password", middleware.GetRequestID(r.Context()))
		return
	}

	hash, err := auth.HashPassword(payload.NewPassword)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "hash_error", "failed to update password", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Store.UpdateUserPassword(r.Context(), userID, hash); err != nil {
		api.Fail(w, http.StatusInternalServerError, "update_failed", "failed to update password", middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Store.MarkPasswordResetUsed(r.Context(), tokenHash); err != nil {
		slog.Warn("password reset mark used failed", "err", err)
	}
	if err := h.Store.RevokeAllSessions(r.Context(), userID); err != nil {
		slog.Warn("password reset session revoke failed", "userId", userID, "err", err)
	}
	if err := h.Audit.Record(r.Context(), userID, "auth.password_reset", "user", userID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, nil); err != nil {
		slog.Warn("audit auth.password_reset failed", "err", err)
	}

	api.Success(w, map[string]string{"status": "password_reset"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) issueToken(userID, email string, role auth.Role, employeeID, sessionID string) (string, error) {
	claims := auth.Claims{
		UserID:     userID,
		Role:       role,
		EmployeeID: employeeID,
		SessionID:  sessionID,
	}
	claims.Subject = email
	return auth.GenerateToken(h.Secret, claims, h.TokenTTL)
}
