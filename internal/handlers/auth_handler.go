package handlers

import (
	"net/http"
	"time"

	"malkhana-backend/internal/apperr"
	"malkhana-backend/internal/logger"
	"malkhana-backend/internal/middleware"
	"malkhana-backend/internal/models"
	"malkhana-backend/internal/services"
	"malkhana-backend/pkg/utils"
)

type AuthHandler struct {
	Service       *services.StaffService
	secureCookies bool
	log           *logger.Logger
}

func NewAuthHandler(s *services.StaffService, secureCookies bool, log *logger.Logger) *AuthHandler {
	return &AuthHandler{Service: s, secureCookies: secureCookies, log: log}
}

// Login handles POST /api/v1/staff/login and sets the HTTP-only access token cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.Error(w, h.log, err)
		return
	}

	resp, err := h.Service.Login(r.Context(), &req)
	if err != nil {
		utils.Error(w, h.log, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    resp.Token,
		Path:     "/",
		Expires:  resp.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
	utils.Success(w, http.StatusOK, "Login successful", resp, nil)
}

// Logout handles POST /api/v1/staff/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok && claims.ExpiresAt != nil {
		h.Service.Logout(r.Context(), claims.ID, claims.ExpiresAt.Time)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
	utils.Success(w, http.StatusOK, "Logged out successfully", nil, nil)
}

// Profile handles GET /api/v1/staff/profile.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	staff, ok := middleware.CurrentStaff(r.Context())
	if !ok {
		utils.Error(w, h.log, apperr.Unauthorized("Authentication required"))
		return
	}
	utils.OK(w, map[string]interface{}{"staff": staff})
}

// Register handles POST /api/v1/staff/register (ADMIN).
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterStaffRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.Error(w, h.log, err)
		return
	}
	staff, err := h.Service.Register(r.Context(), &req)
	if err != nil {
		utils.Error(w, h.log, err)
		return
	}
	utils.Created(w, "Staff member registered successfully", map[string]interface{}{"staff": staff})
}
