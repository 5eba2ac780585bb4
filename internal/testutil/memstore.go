package testutil

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/kirinyoku/tix-events/internal/domain"
	"github.com/kirinyoku/tix-events/internal/repository"
)

type memTxKey struct{}

// MemStore is an in-memory stand-in for the Postgres store. A transaction
// holds the store lock until it ends and is rolled back by restoring a
// snapshot taken when it began.
type MemStore struct {
	mu sync.Mutex

	nextEventID    int64
	nextAttendeeID int64
	events         map[int64]domain.Event
	attendees      map[int64]domain.Attendee

	// FailAttendeeWrites, when set, is returned by every attendee insert.
	FailAttendeeWrites error
}

func NewMemStore() *MemStore {
	return &MemStore{
		events:    make(map[int64]domain.Event),
		attendees: make(map[int64]domain.Attendee),
	}
}

func (m *MemStore) RunTx(ctx context.Context, _ *pgx.TxOptions, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	events := maps.Clone(m.events)
	attendees := maps.Clone(m.attendees)
	nextEvent, nextAttendee := m.nextEventID, m.nextAttendeeID

	if err := fn(context.WithValue(ctx, memTxKey{}, true)); err != nil {
		m.events, m.attendees = events, attendees
		m.nextEventID, m.nextAttendeeID = nextEvent, nextAttendee
		return err
	}

	return nil
}

func (m *MemStore) Events() *MemEvents       { return &MemEvents{m: m} }
func (m *MemStore) Attendees() *MemAttendees { return &MemAttendees{m: m} }

// Seed stores e as is, assigning an ID when it has none.
func (m *MemStore) Seed(e domain.Event) domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e.ID == 0 {
		m.nextEventID++
		e.ID = m.nextEventID
	} else if e.ID > m.nextEventID {
		m.nextEventID = e.ID
	}
	m.events[e.ID] = e

	return e
}

// Event returns the stored event, bypassing any transaction.
func (m *MemStore) Event(id int64) (domain.Event, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.events[id]
	return e, ok
}

// AttendeeCount returns how many attendees reference eventID.
func (m *MemStore) AttendeeCount(eventID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, a := range m.attendees {
		if a.EventID == eventID {
			n++
		}
	}
	return n
}

func inTx(ctx context.Context) bool {
	return ctx.Value(memTxKey{}) != nil
}

func (m *MemStore) lock(ctx context.Context) func() {
	if inTx(ctx) {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

type MemEvents struct {
	m *MemStore
}

func (r *MemEvents) Create(ctx context.Context, in domain.NewEvent) (*domain.Event, error) {
	defer r.m.lock(ctx)()

	r.m.nextEventID++
	e := domain.Event{
		ID:               r.m.nextEventID,
		Title:            in.Title,
		Description:      in.Description,
		Date:             in.Date,
		Location:         in.Location,
		Capacity:         in.Capacity,
		TicketPriceCents: in.TicketPriceCents,
	}
	r.m.events[e.ID] = e

	return &e, nil
}

func (r *MemEvents) Get(ctx context.Context, id int64) (*domain.Event, error) {
	defer r.m.lock(ctx)()

	e, ok := r.m.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (r *MemEvents) GetForUpdate(ctx context.Context, id int64) (*domain.Event, error) {
	return r.Get(ctx, id)
}

func (r *MemEvents) List(ctx context.Context, f domain.EventFilter) ([]domain.Event, error) {
	defer r.m.lock(ctx)()

	out := make([]domain.Event, 0)
	for _, id := range slices.Sorted(maps.Keys(r.m.events)) {
		e := r.m.events[id]
		if f.Title != "" && !strings.Contains(strings.ToLower(e.Title), strings.ToLower(f.Title)) {
			continue
		}
		if f.DateFrom != nil && e.Date.Before(f.DateFrom.Time) {
			continue
		}
		if f.DateTo != nil && e.Date.After(f.DateTo.Time) {
			continue
		}
		out = append(out, e)
	}

	return out, nil
}

func (r *MemEvents) Save(ctx context.Context, e domain.Event) (*domain.Event, error) {
	defer r.m.lock(ctx)()

	cur, ok := r.m.events[e.ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if e.Capacity < cur.TicketsSold {
		return nil, repository.ErrCapacityExceeded
	}

	e.TicketsSold = cur.TicketsSold
	r.m.events[e.ID] = e

	return &e, nil
}

func (r *MemEvents) Delete(ctx context.Context, id int64) error {
	defer r.m.lock(ctx)()

	if _, ok := r.m.events[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.m.events, id)

	return nil
}

func (r *MemEvents) Reserve(ctx context.Context, id int64, qty int) (*domain.Event, error) {
	defer r.m.lock(ctx)()

	e, ok := r.m.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if qty > e.Capacity-e.TicketsSold {
		return nil, repository.ErrCapacityExceeded
	}

	e.TicketsSold += qty
	r.m.events[id] = e

	return &e, nil
}

type MemAttendees struct {
	m *MemStore
}

func (r *MemAttendees) Create(ctx context.Context, a domain.Attendee) (*domain.Attendee, error) {
	defer r.m.lock(ctx)()

	if r.m.FailAttendeeWrites != nil {
		return nil, r.m.FailAttendeeWrites
	}

	r.m.nextAttendeeID++
	a.ID = r.m.nextAttendeeID
	r.m.attendees[a.ID] = a

	return &a, nil
}

func (r *MemAttendees) CreateMany(ctx context.Context, a domain.Attendee, n int) ([]domain.Attendee, error) {
	defer r.m.lock(ctx)()

	if r.m.FailAttendeeWrites != nil {
		return nil, r.m.FailAttendeeWrites
	}

	out := make([]domain.Attendee, 0, n)
	for range n {
		r.m.nextAttendeeID++
		att := a
		att.ID = r.m.nextAttendeeID
		r.m.attendees[att.ID] = att
		out = append(out, att)
	}

	return out, nil
}

func (r *MemAttendees) Get(ctx context.Context, id int64) (*domain.Attendee, error) {
	defer r.m.lock(ctx)()

	a, ok := r.m.attendees[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (r *MemAttendees) ListByEvent(ctx context.Context, eventID int64) ([]domain.Attendee, error) {
	defer r.m.lock(ctx)()

	out := make([]domain.Attendee, 0)
	for _, id := range slices.Sorted(maps.Keys(r.m.attendees)) {
		if a := r.m.attendees[id]; a.EventID == eventID {
			out = append(out, a)
		}
	}

	return out, nil
}

func (r *MemAttendees) Update(ctx context.Context, id int64, name, email string) (*domain.Attendee, error) {
	defer r.m.lock(ctx)()

	a, ok := r.m.attendees[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	a.Name, a.Email = name, email
	r.m.attendees[id] = a

	return &a, nil
}
