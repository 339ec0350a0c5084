package events

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeEventRepo struct {
	events map[int64]Event
	nextID int64
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: map[int64]Event{}, nextID: 1}
}

func (r *fakeEventRepo) List(_ context.Context) ([]Event, error) {
	out := make([]Event, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e)
	}
	return out, nil
}

func (r *fakeEventRepo) GetByID(_ context.Context, id int64) (Event, error) {
	event, ok := r.events[id]
	if !ok {
		return Event{}, ErrEventNotFound
	}
	return event, nil
}

func (r *fakeEventRepo) Create(_ context.Context, input EventInput) (Event, error) {
	event := Event{
		ID:          r.nextID,
		Title:       input.Title,
		Date:        input.Date,
		Location:    input.Location,
		Description: input.Description,
		Capacity:    input.Capacity,
	}
	r.events[event.ID] = event
	r.nextID++
	return event, nil
}

func (r *fakeEventRepo) Update(_ context.Context, id int64, input EventInput) error {
	event, ok := r.events[id]
	if !ok {
		return ErrEventNotFound
	}
	event.Title = input.Title
	event.Date = input.Date
	event.Location = input.Location
	event.Description = input.Description
	event.Capacity = input.Capacity
	r.events[id] = event
	return nil
}

func (r *fakeEventRepo) Delete(_ context.Context, id int64) error {
	delete(r.events, id)
	return nil
}

func testDate() time.Time {
	return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
}

func TestCreateSanitizesFields(t *testing.T) {
	svc := NewService(newFakeEventRepo(), zerolog.Nop())

	event, err := svc.Create(context.Background(), EventInput{
		Title:       "<b>Jazz Night</b>",
		Date:        testDate(),
		Location:    "Main <script>alert(1)</script>Hall",
		Description: "<p>Doors at <strong>7pm</strong></p><script>x</script>",
		Capacity:    50,
	})
	require.NoError(t, err)
	require.Equal(t, "Jazz Night", event.Title)
	require.Equal(t, "Main Hall", event.Location)
	require.Contains(t, event.Description, "<strong>7pm</strong>")
	require.NotContains(t, event.Description, "script")
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newFakeEventRepo(), zerolog.Nop())

	_, err := svc.Create(context.Background(), EventInput{Date: testDate(), Capacity: 1})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(context.Background(), EventInput{Title: "x", Capacity: 1})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Create(context.Background(), EventInput{Title: "x", Date: testDate(), Capacity: -1})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateMissingEvent(t *testing.T) {
	svc := NewService(newFakeEventRepo(), zerolog.Nop())

	err := svc.Update(context.Background(), 99, EventInput{Title: "x", Date: testDate()})
	require.ErrorIs(t, err, ErrEventNotFound)
}

func TestUpdatePreservesImagePath(t *testing.T) {
	repo := newFakeEventRepo()
	svc := NewService(repo, zerolog.Nop())

	event, err := svc.Create(context.Background(), EventInput{Title: "Expo", Date: testDate(), Capacity: 10})
	require.NoError(t, err)

	// Simulate an image uploaded out-of-band.
	withImage := repo.events[event.ID]
	withImage.ImagePath = "uploads/expo.png"
	repo.events[event.ID] = withImage

	err = svc.Update(context.Background(), event.ID, EventInput{Title: "Expo 2026", Date: testDate(), Capacity: 20})
	require.NoError(t, err)
	require.Equal(t, "uploads/expo.png", repo.events[event.ID].ImagePath)
	require.Equal(t, "Expo 2026", repo.events[event.ID].Title)
}

func TestParseDate(t *testing.T) {
	parsed, err := ParseDate(" 2026-06-01 ")
	require.NoError(t, err)
	require.Equal(t, testDate(), parsed)

	_, err = ParseDate("06/01/2026")
	require.ErrorIs(t, err, ErrInvalidInput)
}
