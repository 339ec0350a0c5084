package registrations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/eventease/server/internal/domain/events"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

const (
	StatusPending  = "Pending"
	StatusApproved = "Approved"
)

var (
	ErrAlreadyRegistered = errors.New("already registered for this event")
	ErrEventFull         = errors.New("event is full")
	ErrNotFound          = errors.New("registration not found")
	ErrValidation        = errors.New("invalid registration form")
	// ErrNotificationFailed is returned after a successful mutation when the
	// follow-up email could not be sent. The mutation is never reversed.
	ErrNotificationFailed = errors.New("notification email failed")
)

type Registration struct {
	ID        int64
	UserID    int64
	EventID   int64
	Name      string
	Email     string
	Phone     string
	Status    string
	CreatedAt time.Time
}

// Row is a registration joined with its user and event, as shown in the
// listing and in CSV exports.
type Row struct {
	ID         int64
	Username   string
	Email      string
	Phone      string
	EventTitle string
	Status     string
}

// UpcomingRow is a user-dashboard entry: one of the user's registrations
// for an event that has not happened yet.
type UpcomingRow struct {
	RegistrationID int64
	EventTitle     string
	EventDate      time.Time
	Status         string
}

// Form carries the attendee contact fields from the registration form.
type Form struct {
	Name  string `validate:"required"`
	Email string `validate:"required,email"`
	Phone string `validate:"required,len=10,numeric"`
}

type CreateParams struct {
	UserID  int64
	EventID int64
	Name    string
	Email   string
	Phone   string
}

type Repository interface {
	// CreateGuarded inserts a Pending registration if and only if the event
	// still has capacity and the user is not already registered. Both
	// conditions are enforced atomically in the store.
	CreateGuarded(ctx context.Context, params CreateParams) (Registration, error)

	List(ctx context.Context, filters Filters, limit, offset int) ([]Row, error)
	Count(ctx context.Context, filters Filters) (int64, error)
	// ForEach streams every row matching the filters, newest id first,
	// without buffering the full result set.
	ForEach(ctx context.Context, filters Filters, fn func(Row) error) error

	GetRow(ctx context.Context, id int64) (Row, error)
	Approve(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error

	UpcomingForUser(ctx context.Context, userID int64, from time.Time) ([]UpcomingRow, error)
	PendingAll(ctx context.Context) ([]Row, error)
}

// Notifier sends the best-effort emails attached to registration events.
type Notifier interface {
	SendRegistrationConfirmation(ctx context.Context, to, name, eventTitle string) error
	SendApprovalNotice(ctx context.Context, to, username, eventTitle string) error
}

type Service struct {
	repo     Repository
	eventSvc *events.Service
	notifier Notifier
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewService(repo Repository, eventSvc *events.Service, notifier Notifier, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		eventSvc: eventSvc,
		notifier: notifier,
		validate: validator.New(),
		logger:   logger.With().Str("component", "registrations").Logger(),
	}
}

// Register creates a Pending registration for (userID, eventID) and sends a
// confirmation email. The returned error is ErrNotificationFailed when the
// registration was stored but the email was not; callers should treat that
// as success with a warning.
func (s *Service) Register(ctx context.Context, userID, eventID int64, form Form) (Registration, error) {
	form.Name = strings.TrimSpace(form.Name)
	form.Email = strings.TrimSpace(form.Email)
	form.Phone = strings.TrimSpace(form.Phone)

	if err := s.validate.Struct(form); err != nil {
		return Registration{}, fmt.Errorf("%w: %s", ErrValidation, formMessage(err))
	}

	event, err := s.eventSvc.Get(ctx, eventID)
	if err != nil {
		return Registration{}, err
	}

	reg, err := s.repo.CreateGuarded(ctx, CreateParams{
		UserID:  userID,
		EventID: eventID,
		Name:    form.Name,
		Email:   form.Email,
		Phone:   form.Phone,
	})
	if err != nil {
		return Registration{}, err
	}

	s.logger.Info().
		Int64("registration_id", reg.ID).
		Int64("user_id", userID).
		Int64("event_id", eventID).
		Msg("registration created")

	if err := s.notifier.SendRegistrationConfirmation(ctx, form.Email, form.Name, event.Title); err != nil {
		s.logger.Warn().Err(err).Int64("registration_id", reg.ID).Msg("confirmation email failed")
		return reg, ErrNotificationFailed
	}
	return reg, nil
}

// QuickRegister registers a user for an event straight from the event list,
// with attendee details taken from their profile instead of the form. The
// duplicate and capacity rules are enforced exactly as in Register.
func (s *Service) QuickRegister(ctx context.Context, userID, eventID int64, name, email string) (Registration, error) {
	event, err := s.eventSvc.Get(ctx, eventID)
	if err != nil {
		return Registration{}, err
	}

	reg, err := s.repo.CreateGuarded(ctx, CreateParams{
		UserID:  userID,
		EventID: eventID,
		Name:    name,
		Email:   email,
	})
	if err != nil {
		return Registration{}, err
	}

	s.logger.Info().
		Int64("registration_id", reg.ID).
		Int64("user_id", userID).
		Int64("event_id", eventID).
		Msg("quick registration created")

	if err := s.notifier.SendRegistrationConfirmation(ctx, email, name, event.Title); err != nil {
		s.logger.Warn().Err(err).Int64("registration_id", reg.ID).Msg("confirmation email failed")
		return reg, ErrNotificationFailed
	}
	return reg, nil
}

// List returns one page of joined registration rows plus the total count of
// rows matching the filters. Out-of-range pages yield an empty page.
func (s *Service) List(ctx context.Context, filters Filters, page int) ([]Row, int64, error) {
	if page < 1 {
		page = 1
	}

	total, err := s.repo.Count(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("count registrations: %w", err)
	}

	rows, err := s.repo.List(ctx, filters, PageSize, (page-1)*PageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("list registrations: %w", err)
	}
	return rows, total, nil
}

// Approve transitions a registration to Approved and sends a best-effort
// approval email. ErrNotificationFailed means the approval itself stuck.
func (s *Service) Approve(ctx context.Context, id int64) error {
	if err := s.repo.Approve(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Int64("registration_id", id).Msg("registration approved")

	row, err := s.repo.GetRow(ctx, id)
	if err != nil {
		s.logger.Warn().Err(err).Int64("registration_id", id).Msg("approved registration lookup failed")
		return ErrNotificationFailed
	}

	if err := s.notifier.SendApprovalNotice(ctx, row.Email, row.Username, row.EventTitle); err != nil {
		s.logger.Warn().Err(err).Int64("registration_id", id).Msg("approval email failed")
		return ErrNotificationFailed
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("registration_id", id).Msg("registration deleted")
	return nil
}

// UpcomingForUser lists the user's registrations for events on or after
// today, soonest first.
func (s *Service) UpcomingForUser(ctx context.Context, userID int64, now time.Time) ([]UpcomingRow, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return s.repo.UpcomingForUser(ctx, userID, today)
}

// PendingAll lists every Pending registration for the admin dashboard.
func (s *Service) PendingAll(ctx context.Context) ([]Row, error) {
	return s.repo.PendingAll(ctx)
}

func formMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "all fields are required"
	}

	first := fieldErrs[0]
	switch first.Field() {
	case "Phone":
		return "phone must be a 10-digit number"
	case "Email":
		if first.Tag() == "required" {
			return "email is required"
		}
		return "email address is malformed"
	default:
		return "name is required"
	}
}
