package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/eventease/server/internal/sanitize"
	"github.com/rs/zerolog"
)

var (
	ErrEventNotFound = errors.New("event not found")
	ErrInvalidInput  = errors.New("invalid event input")
)

// DateFormat is the wire format for event dates in forms (HTML date input).
const DateFormat = "2006-01-02"

type Event struct {
	ID          int64
	Title       string
	Date        time.Time
	Location    string
	Description string
	Capacity    int
	ImagePath   string
	CreatedAt   time.Time
}

type EventInput struct {
	Title       string
	Date        time.Time
	Location    string
	Description string
	Capacity    int
}

type Repository interface {
	List(ctx context.Context) ([]Event, error)
	GetByID(ctx context.Context, id int64) (Event, error)
	Create(ctx context.Context, input EventInput) (Event, error)
	// Update writes the submitted fields only; image_path is left untouched
	// so an edit without a new upload never clears it.
	Update(ctx context.Context, id int64, input EventInput) error
	Delete(ctx context.Context, id int64) error
}

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("component", "events").Logger(),
	}
}

// List returns all events ordered by date ascending.
func (s *Service) List(ctx context.Context) ([]Event, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (Event, error) {
	event, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			return Event{}, ErrEventNotFound
		}
		return Event{}, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (s *Service) Create(ctx context.Context, input EventInput) (Event, error) {
	cleaned, err := cleanInput(input)
	if err != nil {
		return Event{}, err
	}

	event, err := s.repo.Create(ctx, cleaned)
	if err != nil {
		return Event{}, fmt.Errorf("create event: %w", err)
	}

	s.logger.Info().Int64("event_id", event.ID).Str("title", event.Title).Msg("event created")
	return event, nil
}

func (s *Service) Update(ctx context.Context, id int64, input EventInput) error {
	cleaned, err := cleanInput(input)
	if err != nil {
		return err
	}

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Update(ctx, id, cleaned); err != nil {
		return fmt.Errorf("update event: %w", err)
	}

	s.logger.Info().Int64("event_id", id).Msg("event updated")
	return nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}

	s.logger.Info().Int64("event_id", id).Msg("event deleted")
	return nil
}

// ParseDate parses a form-submitted event date.
func ParseDate(value string) (time.Time, error) {
	parsed, err := time.Parse(DateFormat, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	return parsed, nil
}

func cleanInput(input EventInput) (EventInput, error) {
	input.Title = sanitize.Text(strings.TrimSpace(input.Title))
	input.Location = sanitize.Text(strings.TrimSpace(input.Location))
	input.Description = sanitize.HTML(strings.TrimSpace(input.Description))

	if input.Title == "" {
		return EventInput{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if input.Date.IsZero() {
		return EventInput{}, fmt.Errorf("%w: date is required", ErrInvalidInput)
	}
	if input.Capacity < 0 {
		return EventInput{}, fmt.Errorf("%w: capacity must be zero or more", ErrInvalidInput)
	}
	return input, nil
}
