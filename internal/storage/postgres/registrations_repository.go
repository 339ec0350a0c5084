package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eventease/server/internal/domain/events"
	"github.com/eventease/server/internal/domain/registrations"
	"github.com/eventease/server/internal/metrics"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var _ registrations.Repository = (*RegistrationRepository)(nil)

const listColumns = `
SELECT r.id, u.username, u.email, r.phone, e.title, r.status
  FROM registrations r
  JOIN users u ON u.id = r.user_id
  JOIN events e ON e.id = r.event_id
`

// listPredicates implements the three-valued filters: an absent filter
// matches every row.
const listPredicates = `
 WHERE ($1::bigint IS NULL OR r.event_id = $1)
   AND ($2 = '' OR r.status = $2)
   AND ($3 = '' OR u.username ILIKE '%' || $3 || '%' ESCAPE '\')
`

func (r *RegistrationRepository) queryer() queryer {
	if r.repo.tx != nil {
		return r.repo.tx
	}
	return r.repo.pool
}

// CreateGuarded inserts a Pending registration inside one transaction. The
// event row is locked first, so the duplicate check, the capacity check and
// the insert cannot interleave with a concurrent registration for the same
// event; the unique index on (user_id, event_id) backs up the duplicate
// check regardless.
func (r *RegistrationRepository) CreateGuarded(ctx context.Context, params registrations.CreateParams) (reg registrations.Registration, err error) {
	start := time.Now()
	defer func() { metrics.RecordQuery("create_registration", start, err) }()

	err = r.repo.WithTx(ctx, func(ctx context.Context, repo *Repository) error {
		var txErr error
		reg, txErr = createGuarded(ctx, repo.tx, params)
		return txErr
	})
	if err != nil {
		return registrations.Registration{}, err
	}
	return reg, nil
}

func createGuarded(ctx context.Context, tx pgx.Tx, params registrations.CreateParams) (registrations.Registration, error) {
	var capacity int
	err := tx.QueryRow(ctx, `SELECT capacity FROM events WHERE id = $1 FOR UPDATE`, params.EventID).Scan(&capacity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return registrations.Registration{}, events.ErrEventNotFound
		}
		return registrations.Registration{}, fmt.Errorf("lock event: %w", err)
	}

	var exists bool
	err = tx.QueryRow(ctx, `
SELECT EXISTS (SELECT 1 FROM registrations WHERE user_id = $1 AND event_id = $2)
`, params.UserID, params.EventID).Scan(&exists)
	if err != nil {
		return registrations.Registration{}, fmt.Errorf("check duplicate registration: %w", err)
	}
	if exists {
		return registrations.Registration{}, registrations.ErrAlreadyRegistered
	}

	row := tx.QueryRow(ctx, `
INSERT INTO registrations (user_id, event_id, name, email, phone, status)
SELECT $1, $2, $3, $4, $5, 'Pending'
 WHERE (SELECT count(*) FROM registrations WHERE event_id = $2) < $6
RETURNING id, created_at
`, params.UserID, params.EventID, params.Name, params.Email, params.Phone, capacity)

	reg := registrations.Registration{
		UserID:  params.UserID,
		EventID: params.EventID,
		Name:    params.Name,
		Email:   params.Email,
		Phone:   params.Phone,
		Status:  registrations.StatusPending,
	}
	if err := row.Scan(&reg.ID, &reg.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return registrations.Registration{}, registrations.ErrEventFull
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return registrations.Registration{}, registrations.ErrAlreadyRegistered
		}
		return registrations.Registration{}, fmt.Errorf("insert registration: %w", err)
	}
	return reg, nil
}

func (r *RegistrationRepository) List(ctx context.Context, filters registrations.Filters, limit, offset int) (items []registrations.Row, err error) {
	start := time.Now()
	defer func() { metrics.RecordQuery("list_registrations", start, err) }()

	rows, err := r.queryer().Query(ctx,
		listColumns+listPredicates+`
 ORDER BY r.id DESC
 LIMIT $4 OFFSET $5
`, filters.EventID, filters.Status, escapeLikePattern(filters.Search), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	return collectRows(rows)
}

func (r *RegistrationRepository) Count(ctx context.Context, filters registrations.Filters) (total int64, err error) {
	start := time.Now()
	defer func() { metrics.RecordQuery("count_registrations", start, err) }()

	row := r.queryer().QueryRow(ctx, `
SELECT count(*)
  FROM registrations r
  JOIN users u ON u.id = r.user_id
  JOIN events e ON e.id = r.event_id
`+listPredicates, filters.EventID, filters.Status, escapeLikePattern(filters.Search))

	if err = row.Scan(&total); err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return total, nil
}

// ForEach streams the full filtered result set row by row, newest first.
func (r *RegistrationRepository) ForEach(ctx context.Context, filters registrations.Filters, fn func(registrations.Row) error) (err error) {
	start := time.Now()
	defer func() { metrics.RecordQuery("stream_registrations", start, err) }()

	rows, err := r.queryer().Query(ctx,
		listColumns+listPredicates+`
 ORDER BY r.id DESC
`, filters.EventID, filters.Status, escapeLikePattern(filters.Search))
	if err != nil {
		return fmt.Errorf("stream registrations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return fmt.Errorf("scan registration row: %w", err)
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (r *RegistrationRepository) GetRow(ctx context.Context, id int64) (result registrations.Row, err error) {
	start := time.Now()
	defer func() { metrics.RecordQuery("get_registration", start, err) }()

	row := r.queryer().QueryRow(ctx, listColumns+` WHERE r.id = $1`, id)

	result, err = scanRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return registrations.Row{}, registrations.ErrNotFound
		}
		return registrations.Row{}, fmt.Errorf("get registration row: %w", err)
	}
	return result, nil
}

func (r *RegistrationRepository) Approve(ctx context.Context, id int64) (err error) {
	start := time.Now()
	defer func() { metrics.RecordQuery("approve_registration", start, err) }()

	tag, err := r.queryer().Exec(ctx, `
UPDATE registrations SET status = 'Approved' WHERE id = $1
`, id)
	if err != nil {
		return fmt.Errorf("approve registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return registrations.ErrNotFound
	}
	return nil
}

func (r *RegistrationRepository) Delete(ctx context.Context, id int64) (err error) {
	start := time.Now()
	defer func() { metrics.RecordQuery("delete_registration", start, err) }()

	tag, err := r.queryer().Exec(ctx, `DELETE FROM registrations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return registrations.ErrNotFound
	}
	return nil
}

func (r *RegistrationRepository) UpcomingForUser(ctx context.Context, userID int64, from time.Time) (items []registrations.UpcomingRow, err error) {
	start := time.Now()
	defer func() { metrics.RecordQuery("list_upcoming_registrations", start, err) }()

	rows, err := r.queryer().Query(ctx, `
SELECT r.id, e.title, e.date, r.status
  FROM registrations r
  JOIN events e ON e.id = r.event_id
 WHERE r.user_id = $1 AND e.date >= $2
 ORDER BY e.date ASC
`, userID, from)
	if err != nil {
		return nil, fmt.Errorf("list upcoming registrations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item registrations.UpcomingRow
		if err := rows.Scan(&item.RegistrationID, &item.EventTitle, &item.EventDate, &item.Status); err != nil {
			return nil, fmt.Errorf("scan upcoming registration: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *RegistrationRepository) PendingAll(ctx context.Context) (items []registrations.Row, err error) {
	start := time.Now()
	defer func() { metrics.RecordQuery("list_pending_registrations", start, err) }()

	rows, err := r.queryer().Query(ctx, listColumns+`
 WHERE r.status = 'Pending'
 ORDER BY e.date ASC, r.id ASC
`)
	if err != nil {
		return nil, fmt.Errorf("list pending registrations: %w", err)
	}
	defer rows.Close()

	return collectRows(rows)
}

func collectRows(rows pgx.Rows) ([]registrations.Row, error) {
	var items []registrations.Row
	for rows.Next() {
		item, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration row: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanRow(row pgx.Row) (registrations.Row, error) {
	var item registrations.Row
	err := row.Scan(
		&item.ID,
		&item.Username,
		&item.Email,
		&item.Phone,
		&item.EventTitle,
		&item.Status,
	)
	return item, err
}
