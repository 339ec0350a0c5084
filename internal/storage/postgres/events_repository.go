package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/eventease/server/internal/domain/events"
	"github.com/eventease/server/internal/metrics"
	"github.com/jackc/pgx/v5"
)

// uniqueViolation is the PostgreSQL error code for unique constraint violations.
const uniqueViolation = "23505"

var _ events.Repository = (*EventRepository)(nil)

func (r *EventRepository) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

func (r *EventRepository) List(ctx context.Context) (items []events.Event, err error) {
	start := time.Now()
	defer func() { metrics.RecordQuery("list_events", start, err) }()

	rows, err := r.queryer().Query(ctx, `
SELECT id, title, date, location, description, capacity, image_path, created_at
  FROM events
 ORDER BY date ASC, id ASC
`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		items = append(items, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return items, nil
}

func (r *EventRepository) GetByID(ctx context.Context, id int64) (_ events.Event, err error) {
	start := time.Now()
	defer func() { metrics.RecordQuery("get_event", start, err) }()

	row := r.queryer().QueryRow(ctx, `
SELECT id, title, date, location, description, capacity, image_path, created_at
  FROM events
 WHERE id = $1
`, id)

	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return events.Event{}, events.ErrEventNotFound
		}
		return events.Event{}, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (r *EventRepository) Create(ctx context.Context, input events.EventInput) (_ events.Event, err error) {
	start := time.Now()
	defer func() { metrics.RecordQuery("insert_event", start, err) }()

	row := r.queryer().QueryRow(ctx, `
INSERT INTO events (title, date, location, description, capacity)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, title, date, location, description, capacity, image_path, created_at
`, input.Title, input.Date, input.Location, input.Description, input.Capacity)

	event, err := scanEvent(row)
	if err != nil {
		return events.Event{}, fmt.Errorf("insert event: %w", err)
	}
	return event, nil
}

// Update deliberately omits image_path so an edit without a new upload
// never clears the stored image.
func (r *EventRepository) Update(ctx context.Context, id int64, input events.EventInput) (err error) {
	start := time.Now()
	defer func() { metrics.RecordQuery("update_event", start, err) }()

	tag, err := r.queryer().Exec(ctx, `
UPDATE events
   SET title = $2, date = $3, location = $4, description = $5, capacity = $6
 WHERE id = $1
`, id, input.Title, input.Date, input.Location, input.Description, input.Capacity)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return events.ErrEventNotFound
	}
	return nil
}

func (r *EventRepository) Delete(ctx context.Context, id int64) (err error) {
	start := time.Now()
	defer func() { metrics.RecordQuery("delete_event", start, err) }()

	tag, err := r.queryer().Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return events.ErrEventNotFound
	}
	return nil
}

func scanEvent(row pgx.Row) (events.Event, error) {
	var event events.Event
	var imagePath *string
	err := row.Scan(
		&event.ID,
		&event.Title,
		&event.Date,
		&event.Location,
		&event.Description,
		&event.Capacity,
		&imagePath,
		&event.CreatedAt,
	)
	if imagePath != nil {
		event.ImagePath = *imagePath
	}
	return event, err
}

// escapeLikePattern escapes ILIKE wildcards in user-supplied search text so
// the pattern matches literally.
func escapeLikePattern(input string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(input)
}
