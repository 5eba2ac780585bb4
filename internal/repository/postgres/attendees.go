package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/tix-events/internal/domain"
)

type AttendeeRepo struct {
	pool *pgxpool.Pool
}

// Create inserts a single attendee.
func (r *AttendeeRepo) Create(ctx context.Context, a domain.Attendee) (*domain.Attendee, error) {
	const op = "postgres.AttendeeRepo.Create"

	out := a
	if err := handle(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO attendees(name, email, event_id)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		a.Name, a.Email, a.EventID,
	).Scan(&out.ID); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &out, nil
}

// CreateMany inserts n identical attendee rows in one round trip and returns
// them in insertion order.
func (r *AttendeeRepo) CreateMany(ctx context.Context, a domain.Attendee, n int) ([]domain.Attendee, error) {
	const op = "postgres.AttendeeRepo.CreateMany"

	batch := &pgx.Batch{}
	for range n {
		batch.Queue(
			`INSERT INTO attendees(name, email, event_id)
			 VALUES ($1, $2, $3)
			 RETURNING id`,
			a.Name, a.Email, a.EventID,
		)
	}

	br := handle(ctx, r.pool).SendBatch(ctx, batch)
	defer br.Close()

	out := make([]domain.Attendee, 0, n)
	for range n {
		att := a
		if err := br.QueryRow().Scan(&att.ID); err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, att)
	}

	if err := br.Close(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// Get retrieves an attendee by ID.
//
// Returns:
//   - error: repository.ErrNotFound if the attendee is not found.
func (r *AttendeeRepo) Get(ctx context.Context, id int64) (*domain.Attendee, error) {
	const op = "postgres.AttendeeRepo.Get"

	var a domain.Attendee
	if err := handle(ctx, r.pool).QueryRow(ctx,
		`SELECT id, name, email, event_id FROM attendees WHERE id = $1`,
		id,
	).Scan(&a.ID, &a.Name, &a.Email, &a.EventID); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &a, nil
}

// ListByEvent returns the attendees of an event in insertion order.
func (r *AttendeeRepo) ListByEvent(ctx context.Context, eventID int64) ([]domain.Attendee, error) {
	const op = "postgres.AttendeeRepo.ListByEvent"

	rows, err := handle(ctx, r.pool).Query(ctx,
		`SELECT id, name, email, event_id
		 FROM attendees
		 WHERE event_id = $1
		 ORDER BY id`,
		eventID,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	out := make([]domain.Attendee, 0)
	for rows.Next() {
		var a domain.Attendee
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.EventID); err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// Update replaces name and email of an attendee.
//
// Returns:
//   - error: repository.ErrNotFound if the attendee is not found.
func (r *AttendeeRepo) Update(ctx context.Context, id int64, name, email string) (*domain.Attendee, error) {
	const op = "postgres.AttendeeRepo.Update"

	var a domain.Attendee
	if err := handle(ctx, r.pool).QueryRow(ctx,
		`UPDATE attendees SET name = $2, email = $3
		 WHERE id = $1
		 RETURNING id, name, email, event_id`,
		id, name, email,
	).Scan(&a.ID, &a.Name, &a.Email, &a.EventID); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &a, nil
}
