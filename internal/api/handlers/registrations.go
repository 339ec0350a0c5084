package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/eventease/server/internal/api/flash"
	"github.com/eventease/server/internal/api/middleware"
	"github.com/eventease/server/internal/api/render"
	"github.com/eventease/server/internal/domain/events"
	"github.com/eventease/server/internal/domain/registrations"
	"github.com/eventease/server/internal/domain/users"
	"github.com/eventease/server/internal/metrics"
)

// RegistrationsHandler serves the attendee registration flow and the
// admin registration management pages.
type RegistrationsHandler struct {
	registrations *registrations.Service
	events        *events.Service
	users         *users.Service
	renderer      *render.Renderer
	logger        zerolog.Logger
}

func NewRegistrationsHandler(regSvc *registrations.Service, eventSvc *events.Service, userSvc *users.Service, renderer *render.Renderer, logger zerolog.Logger) *RegistrationsHandler {
	return &RegistrationsHandler{
		registrations: regSvc,
		events:        eventSvc,
		users:         userSvc,
		renderer:      renderer,
		logger:        logger.With().Str("component", "registrations_handler").Logger(),
	}
}

// ShowRegister renders the registration form for one event, prefilled
// with the logged-in user's contact details.
func (h *RegistrationsHandler) ShowRegister(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	event, err := h.events.Get(r.Context(), eventID)
	if err != nil {
		if errors.Is(err, events.ErrEventNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error().Err(err).Int64("event_id", eventID).Msg("event lookup failed")
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	}

	form := registrations.Form{}
	claims := middleware.SessionClaims(r)
	if claims != nil {
		form.Name = claims.Username
		if userID, err := claims.UserID(); err == nil {
			if user, err := h.users.Get(r.Context(), userID); err == nil {
				form.Email = user.Email
			}
		}
	}

	h.renderer.Page(w, r, "register_event.html", "Register", map[string]any{
		"Event": event,
		"Form":  form,
	})
}

// Register stores a Pending registration. Capacity and duplicates are
// enforced atomically in the store, so two racing submissions cannot
// oversell an event.
func (h *RegistrationsHandler) Register(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad form data", http.StatusBadRequest)
		return
	}

	claims := middleware.SessionClaims(r)
	userID, err := claims.UserID()
	if err != nil {
		http.Error(w, "Session invalid", http.StatusUnauthorized)
		return
	}

	form := registrations.Form{
		Name:  r.PostFormValue("name"),
		Email: r.PostFormValue("email"),
		Phone: r.PostFormValue("phone"),
	}

	_, err = h.registrations.Register(r.Context(), userID, eventID, form)
	switch {
	case errors.Is(err, registrations.ErrValidation):
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		flash.Add(w, r, flash.CategoryDanger, err.Error())
		http.Redirect(w, r, fmt.Sprintf("/register_event/%d", eventID), http.StatusFound)
		return
	case errors.Is(err, registrations.ErrAlreadyRegistered):
		metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
		flash.Add(w, r, flash.CategoryWarning, "You are already registered for this event.")
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	case errors.Is(err, registrations.ErrEventFull):
		metrics.RegistrationsTotal.WithLabelValues("event_full").Inc()
		flash.Add(w, r, flash.CategoryWarning, "This event is full.")
		http.Redirect(w, r, "/", http.StatusFound)
		return
	case errors.Is(err, events.ErrEventNotFound):
		http.NotFound(w, r)
		return
	case errors.Is(err, registrations.ErrNotificationFailed):
		// The registration stuck; only the email did not.
		metrics.RegistrationsTotal.WithLabelValues("created").Inc()
		flash.Add(w, r, flash.CategoryWarning, "Registered! We could not send your confirmation email, though.")
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	case err != nil:
		h.logger.Error().Err(err).Int64("event_id", eventID).Msg("registration failed")
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	}

	metrics.RegistrationsTotal.WithLabelValues("created").Inc()
	flash.Add(w, r, flash.CategorySuccess, "Registered successfully! Check your email for confirmation.")
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// QuickRegister handles the one-click register buttons on the event list.
// Attendee details come from the user's profile. Anonymous visitors and
// admins are bounced back to the listing without a mutation.
func (h *RegistrationsHandler) QuickRegister(w http.ResponseWriter, r *http.Request) {
	claims := middleware.SessionClaims(r)
	if claims == nil || claims.IsAdmin() {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	userID, err := claims.UserID()
	if err != nil {
		http.Error(w, "Session invalid", http.StatusUnauthorized)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad form data", http.StatusBadRequest)
		return
	}
	eventID, err := strconv.ParseInt(r.PostFormValue("event_id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	user, err := h.users.Get(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", userID).Msg("user lookup failed")
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	}

	_, err = h.registrations.QuickRegister(r.Context(), userID, eventID, user.Username, user.Email)
	switch {
	case errors.Is(err, registrations.ErrAlreadyRegistered):
		metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
		flash.Add(w, r, flash.CategoryWarning, "You are already registered for this event.")
		http.Redirect(w, r, "/", http.StatusFound)
		return
	case errors.Is(err, registrations.ErrEventFull):
		metrics.RegistrationsTotal.WithLabelValues("event_full").Inc()
		flash.Add(w, r, flash.CategoryWarning, "This event is full.")
		http.Redirect(w, r, "/", http.StatusFound)
		return
	case errors.Is(err, events.ErrEventNotFound):
		http.NotFound(w, r)
		return
	case errors.Is(err, registrations.ErrNotificationFailed):
		metrics.RegistrationsTotal.WithLabelValues("created").Inc()
		flash.Add(w, r, flash.CategoryWarning, "Registered! We could not send your confirmation email, though.")
		http.Redirect(w, r, "/", http.StatusFound)
		return
	case err != nil:
		h.logger.Error().Err(err).Int64("event_id", eventID).Msg("quick registration failed")
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	}

	metrics.RegistrationsTotal.WithLabelValues("created").Inc()
	flash.Add(w, r, flash.CategorySuccess, "You have successfully registered for the event!")
	http.Redirect(w, r, "/", http.StatusFound)
}

// List renders the admin registration listing with filters, pagination,
// and CSV export. ?export=csv streams the full filtered set.
func (h *RegistrationsHandler) List(w http.ResponseWriter, r *http.Request) {
	query := registrations.ParseQuery(r.URL.Query())

	if query.Export {
		h.writeCSV(w, r, query.Filters)
		return
	}

	rows, total, err := h.registrations.List(r.Context(), query.Filters, query.Page)
	if err != nil {
		h.logger.Error().Err(err).Msg("registration listing failed")
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	}

	eventList, err := h.events.List(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("event listing failed")
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	}

	totalPages := registrations.TotalPages(total)
	pages := make([]int, 0, totalPages)
	pageURLs := make(map[int]string, totalPages)
	for p := 1; p <= totalPages; p++ {
		pages = append(pages, p)
		pageURLs[p] = listURL(query.Filters, p, false)
	}

	selectedEvent := ""
	if query.Filters.EventID != nil {
		selectedEvent = strconv.FormatInt(*query.Filters.EventID, 10)
	}

	h.renderer.Page(w, r, "registrations.html", "Registrations", map[string]any{
		"Rows":           rows,
		"Events":         eventList,
		"SelectedEvent":  selectedEvent,
		"SelectedStatus": query.Filters.Status,
		"Search":         query.Filters.Search,
		"Page":           query.Page,
		"TotalPages":     totalPages,
		"Pages":          pages,
		"PageURLs":       pageURLs,
		"ExportURL":      listURL(query.Filters, 0, true),
	})
}

// Export streams the filtered registrations as CSV.
func (h *RegistrationsHandler) Export(w http.ResponseWriter, r *http.Request) {
	query := registrations.ParseQuery(r.URL.Query())
	h.writeCSV(w, r, query.Filters)
}

func (h *RegistrationsHandler) writeCSV(w http.ResponseWriter, r *http.Request, filters registrations.Filters) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", registrations.ExportFilename))

	if err := h.registrations.WriteCSV(r.Context(), w, filters); err != nil {
		// Headers are already out; all we can do is log.
		middleware.LoggerFromContext(r.Context()).Error().Err(err).Msg("csv export failed")
	}
}

func (h *RegistrationsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	switch err := h.registrations.Approve(r.Context(), id); {
	case errors.Is(err, registrations.ErrNotFound):
		http.NotFound(w, r)
		return
	case errors.Is(err, registrations.ErrNotificationFailed):
		metrics.RegistrationsApproved.Inc()
		flash.Add(w, r, flash.CategoryWarning, "Registration approved, but the notification email failed.")
		http.Redirect(w, r, "/registrations", http.StatusFound)
		return
	case err != nil:
		h.logger.Error().Err(err).Int64("registration_id", id).Msg("approve failed")
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	}

	metrics.RegistrationsApproved.Inc()
	flash.Add(w, r, flash.CategorySuccess, "Registration approved.")
	http.Redirect(w, r, "/registrations", http.StatusFound)
}

func (h *RegistrationsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	switch err := h.registrations.Delete(r.Context(), id); {
	case errors.Is(err, registrations.ErrNotFound):
		http.NotFound(w, r)
		return
	case err != nil:
		h.logger.Error().Err(err).Int64("registration_id", id).Msg("delete failed")
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	}

	flash.Add(w, r, flash.CategorySuccess, "Registration deleted.")
	http.Redirect(w, r, "/registrations", http.StatusFound)
}

// listURL rebuilds the listing URL for a page, keeping the active
// filters. Page 0 means "no page parameter"; export adds export=csv.
func listURL(filters registrations.Filters, page int, export bool) string {
	values := url.Values{}
	if filters.EventID != nil {
		values.Set("event_id", strconv.FormatInt(*filters.EventID, 10))
	}
	if filters.Status != "" {
		values.Set("status", filters.Status)
	}
	if filters.Search != "" {
		values.Set("search", filters.Search)
	}
	if page > 0 {
		values.Set("page", strconv.Itoa(page))
	}
	if export {
		values.Set("export", "csv")
	}

	if len(values) == 0 {
		return "/registrations"
	}
	return "/registrations?" + values.Encode()
}
