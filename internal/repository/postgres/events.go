package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/tix-events/internal/domain"
	"github.com/kirinyoku/tix-events/internal/repository"
)

const eventColumns = `id, title, description, date, location, capacity, tickets_sold, ticket_price_cents`

type EventRepo struct {
	pool *pgxpool.Pool
}

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var e domain.Event
	if err := row.Scan(
		&e.ID,
		&e.Title,
		&e.Description,
		&e.Date.Time,
		&e.Location,
		&e.Capacity,
		&e.TicketsSold,
		&e.TicketPriceCents,
	); err != nil {
		return nil, err
	}
	return &e, nil
}

// Create inserts an event with zero tickets sold.
//
// Parameters:
//   - ctx: request-scoped context, may carry a transaction.
//   - in: the event fields.
//
// Returns:
//   - *domain.Event: the stored event with its generated ID.
func (r *EventRepo) Create(ctx context.Context, in domain.NewEvent) (*domain.Event, error) {
	const op = "postgres.EventRepo.Create"

	e, err := scanEvent(handle(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO events(title, description, date, location, capacity, tickets_sold, ticket_price_cents)
		 VALUES ($1, $2, $3, $4, $5, 0, $6)
		 RETURNING `+eventColumns,
		in.Title, in.Description, in.Date.Time, in.Location, in.Capacity, in.TicketPriceCents,
	))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return e, nil
}

// Get retrieves an event by its ID.
//
// Returns:
//   - *domain.Event: the event when found.
//   - error: repository.ErrNotFound if the event is not found.
func (r *EventRepo) Get(ctx context.Context, id int64) (*domain.Event, error) {
	const op = "postgres.EventRepo.Get"

	e, err := scanEvent(handle(ctx, r.pool).QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`,
		id,
	))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return e, nil
}

// GetForUpdate retrieves an event and locks its row until the surrounding
// transaction ends. Outside a transaction the lock is released immediately.
//
// Returns:
//   - error: repository.ErrNotFound if the event is not found.
func (r *EventRepo) GetForUpdate(ctx context.Context, id int64) (*domain.Event, error) {
	const op = "postgres.EventRepo.GetForUpdate"

	e, err := scanEvent(handle(ctx, r.pool).QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`,
		id,
	))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return e, nil
}

// List returns events matching the filter, in insertion order. The title
// filter is a case-insensitive substring match; date bounds are inclusive.
func (r *EventRepo) List(ctx context.Context, f domain.EventFilter) ([]domain.Event, error) {
	const op = "postgres.EventRepo.List"

	var from, to any
	if f.DateFrom != nil {
		from = f.DateFrom.Time
	}
	if f.DateTo != nil {
		to = f.DateTo.Time
	}

	rows, err := handle(ctx, r.pool).Query(ctx,
		`SELECT `+eventColumns+`
		 FROM events
		 WHERE ($1::text = '' OR strpos(lower(title), lower($1::text)) > 0)
		   AND ($2::date IS NULL OR date >= $2::date)
		   AND ($3::date IS NULL OR date <= $3::date)
		 ORDER BY id`,
		f.Title, from, to,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	out := make([]domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// Save writes every mutable field of e. tickets_sold is only written by
// Reserve, so a concurrent reservation is never overwritten here.
//
// Returns:
//   - error: repository.ErrNotFound if the event is gone.
//   - error: repository.ErrCapacityExceeded if the new capacity is below
//     the tickets already sold.
func (r *EventRepo) Save(ctx context.Context, e domain.Event) (*domain.Event, error) {
	const op = "postgres.EventRepo.Save"

	db := handle(ctx, r.pool)

	saved, err := scanEvent(db.QueryRow(ctx,
		`UPDATE events
		 SET title = $2, description = $3, date = $4, location = $5,
		     capacity = $6, ticket_price_cents = $7
		 WHERE id = $1 AND tickets_sold <= $6
		 RETURNING `+eventColumns,
		e.ID, e.Title, e.Description, e.Date.Time, e.Location, e.Capacity, e.TicketPriceCents,
	))
	if err == nil {
		return saved, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, wrapDBErr(op, err)
	}

	if _, err := r.Get(ctx, e.ID); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return nil, wrapDBErr(op, repository.ErrCapacityExceeded)
}

// Delete removes an event. Attendees referencing it are left in place.
//
// Returns:
//   - error: repository.ErrNotFound if the event is not found.
func (r *EventRepo) Delete(ctx context.Context, id int64) error {
	const op = "postgres.EventRepo.Delete"

	tag, err := handle(ctx, r.pool).Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, repository.ErrNotFound)
	}

	return nil
}

// Reserve atomically adds qty to tickets_sold when the result stays within
// capacity. The check and the increment are one statement, so concurrent
// reservations for the same event are serialized by the row lock.
//
// Returns:
//   - *domain.Event: the event after the increment.
//   - error: repository.ErrNotFound if the event is not found.
//   - error: repository.ErrCapacityExceeded if qty does not fit.
func (r *EventRepo) Reserve(ctx context.Context, id int64, qty int) (*domain.Event, error) {
	const op = "postgres.EventRepo.Reserve"

	e, err := scanEvent(handle(ctx, r.pool).QueryRow(ctx,
		`UPDATE events
		 SET tickets_sold = tickets_sold + $2
		 WHERE id = $1 AND tickets_sold + $2 <= capacity
		 RETURNING `+eventColumns,
		id, qty,
	))
	if err == nil {
		return e, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, wrapDBErr(op, err)
	}

	if _, err := r.Get(ctx, id); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return nil, wrapDBErr(op, repository.ErrCapacityExceeded)
}
