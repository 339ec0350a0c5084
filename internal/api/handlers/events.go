package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/eventease/server/internal/api/flash"
	"github.com/eventease/server/internal/api/render"
	"github.com/eventease/server/internal/domain/events"
)

// EventsHandler serves the public event listing and the admin event CRUD
// pages.
type EventsHandler struct {
	events   *events.Service
	renderer *render.Renderer
	logger   zerolog.Logger
}

func NewEventsHandler(eventSvc *events.Service, renderer *render.Renderer, logger zerolog.Logger) *EventsHandler {
	return &EventsHandler{
		events:   eventSvc,
		renderer: renderer,
		logger:   logger.With().Str("component", "events_handler").Logger(),
	}
}

// Home renders the public landing page with every event.
func (h *EventsHandler) Home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	list, err := h.events.List(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("event listing failed")
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	}

	h.renderer.Page(w, r, "home.html", "Events", map[string]any{
		"Events": list,
	})
}

func (h *EventsHandler) ShowCreate(w http.ResponseWriter, r *http.Request) {
	h.renderer.Page(w, r, "event_form.html", "Add Event", map[string]any{
		"Heading": "Add Event",
		"Action":  "/admin/add",
		"Submit":  "Create",
		"Event":   events.Event{},
	})
}

func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	input, err := parseEventForm(r)
	if err != nil {
		flash.Add(w, r, flash.CategoryDanger, err.Error())
		http.Redirect(w, r, "/admin/add", http.StatusFound)
		return
	}

	event, err := h.events.Create(r.Context(), input)
	if err != nil {
		if errors.Is(err, events.ErrInvalidInput) {
			flash.Add(w, r, flash.CategoryDanger, "Event details are invalid. Check the title, date, and capacity.")
			http.Redirect(w, r, "/admin/add", http.StatusFound)
			return
		}
		h.logger.Error().Err(err).Msg("event create failed")
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	}

	flash.Add(w, r, flash.CategorySuccess, "Event created.")
	h.logger.Info().Int64("event_id", event.ID).Str("title", event.Title).Msg("event created")
	http.Redirect(w, r, "/admin/dashboard", http.StatusFound)
}

func (h *EventsHandler) ShowEdit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	event, err := h.events.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, events.ErrEventNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error().Err(err).Int64("event_id", id).Msg("event lookup failed")
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	}

	h.renderer.Page(w, r, "event_form.html", "Edit Event", map[string]any{
		"Heading": "Edit " + event.Title,
		"Action":  fmt.Sprintf("/admin/edit/%d", event.ID),
		"Submit":  "Save",
		"Event":   event,
	})
}

func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	input, err := parseEventForm(r)
	if err != nil {
		flash.Add(w, r, flash.CategoryDanger, err.Error())
		http.Redirect(w, r, fmt.Sprintf("/admin/edit/%d", id), http.StatusFound)
		return
	}

	switch err := h.events.Update(r.Context(), id, input); {
	case errors.Is(err, events.ErrEventNotFound):
		http.NotFound(w, r)
		return
	case errors.Is(err, events.ErrInvalidInput):
		flash.Add(w, r, flash.CategoryDanger, "Event details are invalid. Check the title, date, and capacity.")
		http.Redirect(w, r, fmt.Sprintf("/admin/edit/%d", id), http.StatusFound)
		return
	case err != nil:
		h.logger.Error().Err(err).Int64("event_id", id).Msg("event update failed")
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	}

	flash.Add(w, r, flash.CategorySuccess, "Event updated.")
	http.Redirect(w, r, "/admin/dashboard", http.StatusFound)
}

func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	switch err := h.events.Delete(r.Context(), id); {
	case errors.Is(err, events.ErrEventNotFound):
		http.NotFound(w, r)
		return
	case err != nil:
		h.logger.Error().Err(err).Int64("event_id", id).Msg("event delete failed")
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	}

	flash.Add(w, r, flash.CategorySuccess, "Event deleted.")
	http.Redirect(w, r, "/admin/dashboard", http.StatusFound)
}

func parseEventForm(r *http.Request) (events.EventInput, error) {
	if err := r.ParseForm(); err != nil {
		return events.EventInput{}, errors.New("form data could not be read")
	}

	date, err := events.ParseDate(r.PostFormValue("date"))
	if err != nil {
		return events.EventInput{}, errors.New("date must be in YYYY-MM-DD format")
	}

	capacity := 0
	if raw := r.PostFormValue("capacity"); raw != "" {
		capacity, err = strconv.Atoi(raw)
		if err != nil || capacity < 0 {
			return events.EventInput{}, errors.New("capacity must be a non-negative number")
		}
	}

	return events.EventInput{
		Title:       r.PostFormValue("title"),
		Date:        date,
		Location:    r.PostFormValue("location"),
		Description: r.PostFormValue("description"),
		Capacity:    capacity,
	}, nil
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}
