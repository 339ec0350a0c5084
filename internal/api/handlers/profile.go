package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/eventease/server/internal/api/flash"
	"github.com/eventease/server/internal/api/middleware"
	"github.com/eventease/server/internal/api/render"
	"github.com/eventease/server/internal/domain/users"
)

// ProfileHandler lets a logged-in user edit their account details.
type ProfileHandler struct {
	users    *users.Service
	renderer *render.Renderer
	logger   zerolog.Logger
}

func NewProfileHandler(userSvc *users.Service, renderer *render.Renderer, logger zerolog.Logger) *ProfileHandler {
	return &ProfileHandler{
		users:    userSvc,
		renderer: renderer,
		logger:   logger.With().Str("component", "profile_handler").Logger(),
	}
}

func (h *ProfileHandler) Show(w http.ResponseWriter, r *http.Request) {
	claims := middleware.SessionClaims(r)
	userID, err := claims.UserID()
	if err != nil {
		http.Error(w, "Session invalid", http.StatusUnauthorized)
		return
	}

	user, err := h.users.Get(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", userID).Msg("profile lookup failed")
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	}

	h.renderer.Page(w, r, "profile.html", "My Profile", map[string]any{
		"Profile": user,
	})
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := middleware.SessionClaims(r)
	userID, err := claims.UserID()
	if err != nil {
		http.Error(w, "Session invalid", http.StatusUnauthorized)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad form data", http.StatusBadRequest)
		return
	}

	err = h.users.UpdateProfile(r.Context(), userID,
		r.PostFormValue("username"),
		r.PostFormValue("email"),
		r.PostFormValue("password"))
	switch {
	case errors.Is(err, users.ErrEmailTaken):
		flash.Add(w, r, flash.CategoryDanger, "That email address is already in use.")
	case errors.Is(err, users.ErrInvalidInput):
		flash.Add(w, r, flash.CategoryDanger, "Username and a valid email are required.")
	case err != nil:
		h.logger.Error().Err(err).Int64("user_id", userID).Msg("profile update failed")
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	default:
		flash.Add(w, r, flash.CategorySuccess, "Profile updated.")
	}

	http.Redirect(w, r, "/profile", http.StatusFound)
}
