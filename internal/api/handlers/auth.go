package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/eventease/server/internal/api/flash"
	"github.com/eventease/server/internal/api/middleware"
	"github.com/eventease/server/internal/api/render"
	"github.com/eventease/server/internal/auth"
	"github.com/eventease/server/internal/domain/users"
	"github.com/eventease/server/internal/metrics"
)

// AuthHandler serves signup, login, and logout.
type AuthHandler struct {
	users        *users.Service
	sessions     *auth.SessionManager
	renderer     *render.Renderer
	cookieName   string
	secureCookie bool
	logger       zerolog.Logger
}

func NewAuthHandler(userSvc *users.Service, sessions *auth.SessionManager, renderer *render.Renderer, cookieName string, secureCookie bool, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		users:        userSvc,
		sessions:     sessions,
		renderer:     renderer,
		cookieName:   cookieName,
		secureCookie: secureCookie,
		logger:       logger.With().Str("component", "auth_handler").Logger(),
	}
}

func (h *AuthHandler) ShowSignup(w http.ResponseWriter, r *http.Request) {
	if middleware.SessionClaims(r) != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	h.renderer.Page(w, r, "signup.html", "Sign Up", nil)
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad form data", http.StatusBadRequest)
		return
	}

	_, err := h.users.Signup(r.Context(),
		r.PostFormValue("username"),
		r.PostFormValue("email"),
		r.PostFormValue("password"))
	switch {
	case errors.Is(err, users.ErrEmailTaken):
		flash.Add(w, r, flash.CategoryDanger, "That email address is already registered.")
		http.Redirect(w, r, "/auth/signup", http.StatusFound)
		return
	case errors.Is(err, users.ErrInvalidInput):
		flash.Add(w, r, flash.CategoryDanger, "Please fill in a username, a valid email, and a password.")
		http.Redirect(w, r, "/auth/signup", http.StatusFound)
		return
	case err != nil:
		h.logger.Error().Err(err).Msg("signup failed")
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	}

	flash.Add(w, r, flash.CategorySuccess, "Account created. Please log in.")
	http.Redirect(w, r, "/auth/login", http.StatusFound)
}

func (h *AuthHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	if claims := middleware.SessionClaims(r); claims != nil {
		http.Redirect(w, r, homeFor(claims), http.StatusFound)
		return
	}
	h.renderer.Page(w, r, "login.html", "Login", nil)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad form data", http.StatusBadRequest)
		return
	}

	user, err := h.users.Authenticate(r.Context(), r.PostFormValue("email"), r.PostFormValue("password"))
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
		flash.Add(w, r, flash.CategoryDanger, "Invalid email or password.")
		http.Redirect(w, r, "/auth/login", http.StatusFound)
		return
	}

	token, err := h.sessions.Issue(user.ID, user.Username, user.Role)
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", user.ID).Msg("session issue failed")
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.sessions.Expiry()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	flash.Add(w, r, flash.CategorySuccess, "Welcome back, "+user.Username+"!")

	destination := "/"
	if user.Role == auth.RoleAdmin {
		destination = "/admin/dashboard"
	}
	http.Redirect(w, r, destination, http.StatusFound)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	flash.Add(w, r, flash.CategoryInfo, "You have been logged out.")
	http.Redirect(w, r, "/", http.StatusFound)
}

func homeFor(claims *auth.Claims) string {
	if claims.IsAdmin() {
		return "/admin/dashboard"
	}
	return "/"
}
