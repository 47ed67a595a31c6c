// Package handler exposes the authentication service over JSON HTTP. Every
// response carries a "success" flag; failures add an "error" message safe to
// show to the client.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/digisken/smsauth/internal/auth"
	"github.com/digisken/smsauth/internal/middleware"
)

type AuthHandler struct {
	service *auth.Service
	logger  *slog.Logger
}

func NewAuthHandler(s *auth.Service, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: s, logger: logger}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PhoneNumber string `json:"phone_number"`
		Password    string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	if req.PhoneNumber == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Phone and password required")
		return
	}

	user, err := h.service.Register(req.PhoneNumber, req.Password)
	if err != nil {
		h.writeAuthError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":      true,
		"message":      "Registration successful! 2FA is enabled by default.",
		"phone_number": user.PhoneNumber,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PhoneNumber string `json:"phone_number"`
		Password    string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	if req.PhoneNumber == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Phone and password required")
		return
	}

	res, err := h.service.Login(req.PhoneNumber, req.Password, middleware.RealIP(r), r.UserAgent())
	if err != nil {
		h.writeAuthError(w, r, err)
		return
	}

	if res.Requires2FA {
		writeJSON(w, http.StatusOK, map[string]any{
			"success":      true,
			"requires_2fa": true,
			"message":      "OTP sent to your phone",
			"phone_number": req.PhoneNumber,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"requires_2fa":  false,
		"session_token": res.SessionToken,
		"message":       "Login successful",
	})
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PhoneNumber string `json:"phone_number"`
		OTP         string `json:"otp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	if req.PhoneNumber == "" || req.OTP == "" {
		writeError(w, http.StatusBadRequest, "Phone and OTP required")
		return
	}

	token, err := h.service.VerifyOTP(req.PhoneNumber, req.OTP, middleware.RealIP(r), r.UserAgent())
	if err != nil {
		h.writeAuthError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"session_token": token,
		"message":       "2FA verification successful",
	})
}

func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PhoneNumber string `json:"phone_number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	if req.PhoneNumber == "" {
		writeError(w, http.StatusBadRequest, "Phone required")
		return
	}

	if err := h.service.ResendOTP(req.PhoneNumber); err != nil {
		h.writeAuthError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "OTP resent to your phone",
	})
}

func (h *AuthHandler) VerifySession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionToken string `json:"session_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if req.SessionToken == "" {
		writeError(w, http.StatusBadRequest, "Session token required")
		return
	}

	sess, err := h.service.VerifySession(req.SessionToken)
	if err != nil {
		h.writeAuthError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"phone_number": sess.PhoneNumber,
		"message":      "Session valid",
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionToken string `json:"session_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if req.SessionToken == "" {
		writeError(w, http.StatusBadRequest, "Session token required")
		return
	}

	if err := h.service.Logout(req.SessionToken); err != nil {
		h.writeAuthError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Logout successful",
	})
}

func (h *AuthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

// writeAuthError maps service failures to status codes. Anything outside the
// known set is an infrastructure failure: it is logged with detail and
// reported to the client as a bare 500.
func (h *AuthHandler) writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *auth.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Error())
	case errors.Is(err, auth.ErrPhoneRegistered):
		writeError(w, http.StatusBadRequest, "Phone number already registered")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, auth.ErrInvalidOTP):
		writeError(w, http.StatusUnauthorized, "Invalid OTP")
	case errors.Is(err, auth.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "Too many attempts. Try again later.")
	case errors.Is(err, auth.ErrSessionNotFound):
		writeError(w, http.StatusUnauthorized, "Invalid session")
	case errors.Is(err, auth.ErrSessionExpired):
		writeError(w, http.StatusUnauthorized, "Session expired")
	default:
		h.logger.Error("request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
