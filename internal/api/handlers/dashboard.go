package handlers

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/eventease/server/internal/api/middleware"
	"github.com/eventease/server/internal/api/render"
	"github.com/eventease/server/internal/domain/events"
	"github.com/eventease/server/internal/domain/registrations"
)

// DashboardHandler serves the user and admin dashboards.
type DashboardHandler struct {
	registrations *registrations.Service
	events        *events.Service
	renderer      *render.Renderer
	logger        zerolog.Logger
}

func NewDashboardHandler(regSvc *registrations.Service, eventSvc *events.Service, renderer *render.Renderer, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		registrations: regSvc,
		events:        eventSvc,
		renderer:      renderer,
		logger:        logger.With().Str("component", "dashboard_handler").Logger(),
	}
}

// User renders the logged-in user's upcoming registrations. Admins get
// their own dashboard instead.
func (h *DashboardHandler) User(w http.ResponseWriter, r *http.Request) {
	claims := middleware.SessionClaims(r)
	if claims.IsAdmin() {
		http.Redirect(w, r, "/admin/dashboard", http.StatusFound)
		return
	}

	userID, err := claims.UserID()
	if err != nil {
		http.Error(w, "Session invalid", http.StatusUnauthorized)
		return
	}

	upcoming, err := h.registrations.UpcomingForUser(r.Context(), userID, time.Now())
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", userID).Msg("upcoming registrations failed")
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	}

	h.renderer.Page(w, r, "dashboard.html", "My Registrations", map[string]any{
		"Upcoming": upcoming,
	})
}

// Admin renders the event catalog and the pending-registrations queue.
func (h *DashboardHandler) Admin(w http.ResponseWriter, r *http.Request) {
	pending, err := h.registrations.PendingAll(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("pending registrations failed")
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	}

	eventList, err := h.events.List(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("event listing failed")
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	}

	h.renderer.Page(w, r, "admin_dashboard.html", "Admin Dashboard", map[string]any{
		"Pending": pending,
		"Events":  eventList,
	})
}
