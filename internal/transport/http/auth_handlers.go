package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"veriscan/internal/domain"
	"veriscan/internal/dto"
	obsmw "veriscan/internal/observability/middleware"
	"veriscan/internal/service"
)

type AuthHandler struct {
	svc service.AuthService
}

func NewAuthHandler(svc service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

func (h *AuthHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	reqID := obsmw.RequestIDFromContext(r.Context())

	var req dto.SendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Phone) == "" {
		writeError(w, http.StatusBadRequest, "Phone number is required")
		return
	}

	if err := h.svc.RequestChallenge(r.Context(), req.Phone); err != nil {
		slog.Error("otp request failed", "error", err, "request_id", reqID)
		writeError(w, http.StatusInternalServerError, "Failed to generate OTP.")
		return
	}

	writeJSON(w, http.StatusOK, dto.SendOTPResponse{Message: "OTP sent successfully"})
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	reqID := obsmw.RequestIDFromContext(r.Context())

	var req dto.VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Phone) == "" || strings.TrimSpace(req.OTP) == "" {
		writeError(w, http.StatusBadRequest, "Phone and OTP are required")
		return
	}

	token, err := h.svc.VerifyChallenge(r.Context(), req.Phone, req.OTP)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrIdentityNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		case errors.Is(err, domain.ErrInvalidChallenge):
			writeError(w, http.StatusBadRequest, "Invalid OTP")
		case errors.Is(err, domain.ErrChallengeExpired):
			writeError(w, http.StatusBadRequest, "OTP expired")
		default:
			slog.Error("otp verification failed", "error", err, "request_id", reqID)
			writeError(w, http.StatusInternalServerError, "Verification failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.VerifyOTPResponse{
		Message: "OTP verified successfully",
		Token:   token,
	})
}
