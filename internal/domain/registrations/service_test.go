package registrations

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/eventease/server/internal/domain/events"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeEventRepo struct {
	events map[int64]events.Event
	nextID int64
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: map[int64]events.Event{}, nextID: 1}
}

func (r *fakeEventRepo) List(_ context.Context) ([]events.Event, error) {
	out := make([]events.Event, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e)
	}
	return out, nil
}

func (r *fakeEventRepo) GetByID(_ context.Context, id int64) (events.Event, error) {
	event, ok := r.events[id]
	if !ok {
		return events.Event{}, events.ErrEventNotFound
	}
	return event, nil
}

func (r *fakeEventRepo) Create(_ context.Context, input events.EventInput) (events.Event, error) {
	event := events.Event{ID: r.nextID, Title: input.Title, Date: input.Date, Capacity: input.Capacity}
	r.events[event.ID] = event
	r.nextID++
	return event, nil
}

func (r *fakeEventRepo) Update(_ context.Context, id int64, input events.EventInput) error {
	event := r.events[id]
	event.Title = input.Title
	event.Date = input.Date
	event.Capacity = input.Capacity
	r.events[id] = event
	return nil
}

func (r *fakeEventRepo) Delete(_ context.Context, id int64) error {
	delete(r.events, id)
	return nil
}

type fakeRegRepo struct {
	eventRepo *fakeEventRepo
	usernames map[int64]string
	regs      map[int64]Registration
	nextID    int64
}

func newFakeRegRepo(eventRepo *fakeEventRepo) *fakeRegRepo {
	return &fakeRegRepo{
		eventRepo: eventRepo,
		usernames: map[int64]string{},
		regs:      map[int64]Registration{},
		nextID:    1,
	}
}

func (r *fakeRegRepo) CreateGuarded(_ context.Context, params CreateParams) (Registration, error) {
	event, ok := r.eventRepo.events[params.EventID]
	if !ok {
		return Registration{}, events.ErrEventNotFound
	}

	count := 0
	for _, reg := range r.regs {
		if reg.UserID == params.UserID && reg.EventID == params.EventID {
			return Registration{}, ErrAlreadyRegistered
		}
		if reg.EventID == params.EventID {
			count++
		}
	}
	if count >= event.Capacity {
		return Registration{}, ErrEventFull
	}

	reg := Registration{
		ID:      r.nextID,
		UserID:  params.UserID,
		EventID: params.EventID,
		Name:    params.Name,
		Email:   params.Email,
		Phone:   params.Phone,
		Status:  StatusPending,
	}
	r.regs[reg.ID] = reg
	r.nextID++
	return reg, nil
}

func (r *fakeRegRepo) matching(filters Filters) []Row {
	rows := make([]Row, 0, len(r.regs))
	for _, reg := range r.regs {
		if filters.EventID != nil && reg.EventID != *filters.EventID {
			continue
		}
		if filters.Status != "" && reg.Status != filters.Status {
			continue
		}
		username := r.usernames[reg.UserID]
		if filters.Search != "" && !strings.Contains(strings.ToLower(username), strings.ToLower(filters.Search)) {
			continue
		}
		rows = append(rows, Row{
			ID:         reg.ID,
			Username:   username,
			Email:      reg.Email,
			Phone:      reg.Phone,
			EventTitle: r.eventRepo.events[reg.EventID].Title,
			Status:     reg.Status,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID > rows[j].ID })
	return rows
}

func (r *fakeRegRepo) List(_ context.Context, filters Filters, limit, offset int) ([]Row, error) {
	rows := r.matching(filters)
	if offset >= len(rows) {
		return nil, nil
	}
	rows = rows[offset:]
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (r *fakeRegRepo) Count(_ context.Context, filters Filters) (int64, error) {
	return int64(len(r.matching(filters))), nil
}

func (r *fakeRegRepo) ForEach(_ context.Context, filters Filters, fn func(Row) error) error {
	for _, row := range r.matching(filters) {
		if err := fn(row); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeRegRepo) GetRow(_ context.Context, id int64) (Row, error) {
	reg, ok := r.regs[id]
	if !ok {
		return Row{}, ErrNotFound
	}
	return Row{
		ID:         reg.ID,
		Username:   r.usernames[reg.UserID],
		Email:      reg.Email,
		Phone:      reg.Phone,
		EventTitle: r.eventRepo.events[reg.EventID].Title,
		Status:     reg.Status,
	}, nil
}

func (r *fakeRegRepo) Approve(_ context.Context, id int64) error {
	reg, ok := r.regs[id]
	if !ok {
		return ErrNotFound
	}
	reg.Status = StatusApproved
	r.regs[id] = reg
	return nil
}

func (r *fakeRegRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.regs[id]; !ok {
		return ErrNotFound
	}
	delete(r.regs, id)
	return nil
}

func (r *fakeRegRepo) UpcomingForUser(_ context.Context, userID int64, from time.Time) ([]UpcomingRow, error) {
	var rows []UpcomingRow
	for _, reg := range r.regs {
		event := r.eventRepo.events[reg.EventID]
		if reg.UserID == userID && !event.Date.Before(from) {
			rows = append(rows, UpcomingRow{
				RegistrationID: reg.ID,
				EventTitle:     event.Title,
				EventDate:      event.Date,
				Status:         reg.Status,
			})
		}
	}
	return rows, nil
}

func (r *fakeRegRepo) PendingAll(_ context.Context) ([]Row, error) {
	return r.matching(Filters{Status: StatusPending}), nil
}

type fakeNotifier struct {
	confirmations []string
	approvals     []string
	err           error
}

func (n *fakeNotifier) SendRegistrationConfirmation(_ context.Context, to, _, _ string) error {
	if n.err != nil {
		return n.err
	}
	n.confirmations = append(n.confirmations, to)
	return nil
}

func (n *fakeNotifier) SendApprovalNotice(_ context.Context, to, _, _ string) error {
	if n.err != nil {
		return n.err
	}
	n.approvals = append(n.approvals, to)
	return nil
}

type fixture struct {
	svc       *Service
	regRepo   *fakeRegRepo
	eventRepo *fakeEventRepo
	notifier  *fakeNotifier
}

func newFixture() *fixture {
	eventRepo := newFakeEventRepo()
	regRepo := newFakeRegRepo(eventRepo)
	notifier := &fakeNotifier{}
	eventSvc := events.NewService(eventRepo, zerolog.Nop())
	return &fixture{
		svc:       NewService(regRepo, eventSvc, notifier, zerolog.Nop()),
		regRepo:   regRepo,
		eventRepo: eventRepo,
		notifier:  notifier,
	}
}

func (f *fixture) addEvent(title string, capacity int, date time.Time) int64 {
	event, _ := f.eventRepo.Create(context.Background(), events.EventInput{Title: title, Date: date, Capacity: capacity})
	return event.ID
}

func validForm() Form {
	return Form{Name: "Alice Smith", Email: "alice@example.com", Phone: "5551234567"}
}

func futureDate() time.Time {
	return time.Date(2030, 1, 15, 0, 0, 0, 0, time.UTC)
}

func TestRegisterHappyPath(t *testing.T) {
	f := newFixture()
	eventID := f.addEvent("Jazz Night", 10, futureDate())

	reg, err := f.svc.Register(context.Background(), 1, eventID, validForm())
	require.NoError(t, err)
	require.Equal(t, StatusPending, reg.Status)
	require.Equal(t, []string{"alice@example.com"}, f.notifier.confirmations)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture()
	eventID := f.addEvent("Jazz Night", 10, futureDate())

	cases := []struct {
		name string
		form Form
	}{
		{"empty name", Form{Email: "a@example.com", Phone: "5551234567"}},
		{"empty email", Form{Name: "A", Phone: "5551234567"}},
		{"bad email", Form{Name: "A", Email: "not-an-email", Phone: "5551234567"}},
		{"short phone", Form{Name: "A", Email: "a@example.com", Phone: "12345"}},
		{"alpha phone", Form{Name: "A", Email: "a@example.com", Phone: "55512345ab"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Register(context.Background(), 1, eventID, tc.form)
			require.ErrorIs(t, err, ErrValidation)
		})
	}
	require.Empty(t, f.regRepo.regs)
	require.Empty(t, f.notifier.confirmations)
}

func TestRegisterDuplicate(t *testing.T) {
	f := newFixture()
	eventID := f.addEvent("Jazz Night", 10, futureDate())

	_, err := f.svc.Register(context.Background(), 1, eventID, validForm())
	require.NoError(t, err)

	_, err = f.svc.Register(context.Background(), 1, eventID, validForm())
	require.ErrorIs(t, err, ErrAlreadyRegistered)
	require.Len(t, f.regRepo.regs, 1)
}

func TestRegisterLastSlot(t *testing.T) {
	f := newFixture()
	eventID := f.addEvent("Intimate Show", 1, futureDate())

	reg, err := f.svc.Register(context.Background(), 1, eventID, validForm())
	require.NoError(t, err)
	require.Equal(t, StatusPending, reg.Status)

	_, err = f.svc.Register(context.Background(), 2, eventID, Form{
		Name: "Bob Jones", Email: "bob@example.com", Phone: "5559876543",
	})
	require.ErrorIs(t, err, ErrEventFull)
	require.Len(t, f.regRepo.regs, 1)
}

func TestRegisterMissingEvent(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Register(context.Background(), 1, 99, validForm())
	require.ErrorIs(t, err, events.ErrEventNotFound)
}

func TestQuickRegisterSkipsFormValidation(t *testing.T) {
	f := newFixture()
	eventID := f.addEvent("Jazz Night", 10, futureDate())

	reg, err := f.svc.QuickRegister(context.Background(), 1, eventID, "alice", "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, StatusPending, reg.Status)
	require.Empty(t, reg.Phone)
	require.Equal(t, []string{"alice@example.com"}, f.notifier.confirmations)
}

func TestQuickRegisterEnforcesGuards(t *testing.T) {
	f := newFixture()
	eventID := f.addEvent("Intimate Show", 1, futureDate())

	_, err := f.svc.QuickRegister(context.Background(), 1, eventID, "alice", "alice@example.com")
	require.NoError(t, err)

	_, err = f.svc.QuickRegister(context.Background(), 1, eventID, "alice", "alice@example.com")
	require.ErrorIs(t, err, ErrAlreadyRegistered)

	_, err = f.svc.QuickRegister(context.Background(), 2, eventID, "bob", "bob@example.com")
	require.ErrorIs(t, err, ErrEventFull)
	require.Len(t, f.regRepo.regs, 1)
}

func TestRegisterEmailFailureKeepsRegistration(t *testing.T) {
	f := newFixture()
	f.notifier.err = errors.New("smtp down")
	eventID := f.addEvent("Jazz Night", 10, futureDate())

	reg, err := f.svc.Register(context.Background(), 1, eventID, validForm())
	require.ErrorIs(t, err, ErrNotificationFailed)
	require.NotZero(t, reg.ID)
	require.Len(t, f.regRepo.regs, 1)
	require.Equal(t, StatusPending, f.regRepo.regs[reg.ID].Status)
}

func TestApproveTransitionsOnlyTarget(t *testing.T) {
	f := newFixture()
	eventID := f.addEvent("Jazz Night", 10, futureDate())

	first, err := f.svc.Register(context.Background(), 1, eventID, validForm())
	require.NoError(t, err)
	second, err := f.svc.Register(context.Background(), 2, eventID, Form{
		Name: "Bob Jones", Email: "bob@example.com", Phone: "5559876543",
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Approve(context.Background(), first.ID))
	require.Equal(t, StatusApproved, f.regRepo.regs[first.ID].Status)
	require.Equal(t, StatusPending, f.regRepo.regs[second.ID].Status)
	require.Len(t, f.notifier.approvals, 1)
}

func TestApproveMissing(t *testing.T) {
	f := newFixture()
	require.ErrorIs(t, f.svc.Approve(context.Background(), 99), ErrNotFound)
}

func TestApproveEmailFailureKeepsApproval(t *testing.T) {
	f := newFixture()
	eventID := f.addEvent("Jazz Night", 10, futureDate())

	reg, err := f.svc.Register(context.Background(), 1, eventID, validForm())
	require.NoError(t, err)

	f.notifier.err = errors.New("smtp down")
	err = f.svc.Approve(context.Background(), reg.ID)
	require.ErrorIs(t, err, ErrNotificationFailed)
	require.Equal(t, StatusApproved, f.regRepo.regs[reg.ID].Status)
}

func TestDeleteMissing(t *testing.T) {
	f := newFixture()
	require.ErrorIs(t, f.svc.Delete(context.Background(), 99), ErrNotFound)
}

func seedListing(t *testing.T, f *fixture, count int) int64 {
	t.Helper()
	eventID := f.addEvent("Big Conference", 100, futureDate())
	names := []string{"alice", "bob", "carol", "dave", "erin", "frank", "grace"}
	for i := 0; i < count; i++ {
		name := names[i%len(names)]
		f.regRepo.usernames[int64(i+1)] = name
		_, err := f.svc.Register(context.Background(), int64(i+1), eventID, Form{
			Name:  name,
			Email: name + "@example.com",
			Phone: "5550000000",
		})
		require.NoError(t, err)
	}
	return eventID
}

func TestListNewestFirstAndPaged(t *testing.T) {
	f := newFixture()
	seedListing(t, f, 7)

	rows, total, err := f.svc.List(context.Background(), Filters{}, 1)
	require.NoError(t, err)
	require.Equal(t, int64(7), total)
	require.Len(t, rows, PageSize)
	require.Equal(t, int64(7), rows[0].ID)
	require.Equal(t, int64(3), rows[4].ID)

	rows, _, err = f.svc.List(context.Background(), Filters{}, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, int64(2), rows[0].ID)

	// Page 3 of 7 rows is past the end: empty page, not an error.
	rows, _, err = f.svc.List(context.Background(), Filters{}, 3)
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestListStatusFilter(t *testing.T) {
	f := newFixture()
	seedListing(t, f, 3)
	require.NoError(t, f.svc.Approve(context.Background(), 1))

	rows, total, err := f.svc.List(context.Background(), Filters{Status: StatusPending}, 1)
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	for _, row := range rows {
		require.Equal(t, StatusPending, row.Status)
	}
}

func TestListSearchIsCaseInsensitiveSubstring(t *testing.T) {
	f := newFixture()
	seedListing(t, f, 7)

	rows, total, err := f.svc.List(context.Background(), Filters{Search: "ALiCe"}, 1)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "alice", rows[0].Username)
}

func TestUpcomingForUserSkipsPastEvents(t *testing.T) {
	f := newFixture()
	pastID := f.addEvent("Past Gala", 10, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	futureID := f.addEvent("Future Expo", 10, futureDate())

	_, err := f.svc.Register(context.Background(), 1, pastID, validForm())
	require.NoError(t, err)
	_, err = f.svc.Register(context.Background(), 1, futureID, validForm())
	require.NoError(t, err)

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	rows, err := f.svc.UpcomingForUser(context.Background(), 1, now)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "Future Expo", rows[0].EventTitle)
}
