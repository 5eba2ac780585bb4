package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/kirinyoku/tix-events/internal/broker"
	"github.com/kirinyoku/tix-events/internal/domain"
	"github.com/kirinyoku/tix-events/internal/repository"
	"github.com/kirinyoku/tix-events/internal/uow"
)

const (
	SourceAPI    = "api"
	SourceImport = "import"
)

type EventRepository interface {
	Create(ctx context.Context, in domain.NewEvent) (*domain.Event, error)
	Get(ctx context.Context, id int64) (*domain.Event, error)
	GetForUpdate(ctx context.Context, id int64) (*domain.Event, error)
	List(ctx context.Context, f domain.EventFilter) ([]domain.Event, error)
	Save(ctx context.Context, e domain.Event) (*domain.Event, error)
	Delete(ctx context.Context, id int64) error
	Reserve(ctx context.Context, id int64, qty int) (*domain.Event, error)
}

// Transactor runs fn in a unit of work; *uow.UoW implements it.
type Transactor interface {
	Do(ctx context.Context, fn func(ctx context.Context, after func(uow.AfterCommit)) error) error
}

type EventCache interface {
	Event(
		ctx context.Context,
		eventID int64,
		ttl time.Duration,
		loader func(ctx context.Context) (domain.Event, error),
	) (domain.Event, error)
	InvalidateEvent(ctx context.Context, eventID int64) error
}

// maxCount bounds capacities and quantities to the store's integer columns.
const maxCount = math.MaxInt32

// ChangePublisher tells other instances that an event row changed.
type ChangePublisher interface {
	PublishEventChanged(ctx context.Context, eventID int64, kind string) error
}

// Kinds of event changes sent to the ChangePublisher.
const (
	ChangeCreated  = "created"
	ChangeUpdated  = "updated"
	ChangeDeleted  = "deleted"
	ChangeReserved = "reserved"
)

type MessagePublisher interface {
	Publish(ctx context.Context, topic string, msg any) error
}

type Config struct {
	EventCacheTTL time.Duration
}

type Service struct {
	events  EventRepository
	uow     Transactor
	cache   EventCache
	changes ChangePublisher
	broker  MessagePublisher
	logger  *slog.Logger
	cfg     Config
}

type Option func(*Service)

func WithCache(c EventCache) Option {
	return func(s *Service) { s.cache = c }
}

func WithChangePublisher(p ChangePublisher) Option {
	return func(s *Service) { s.changes = p }
}

func WithBroker(b MessagePublisher) Option {
	return func(s *Service) { s.broker = b }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func New(events EventRepository, tx Transactor, cfg Config, opts ...Option) *Service {
	if cfg.EventCacheTTL <= 0 {
		cfg.EventCacheTTL = time.Minute
	}

	s := &Service{
		events: events,
		uow:    tx,
		logger: slog.Default(),
		cfg:    cfg,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Create stores a new event with zero tickets sold.
//
// Returns:
//   - error: ledger.ErrInvalidArgument if a field is out of range.
func (s *Service) Create(ctx context.Context, in domain.NewEvent) (*domain.Event, error) {
	return s.create(ctx, in, SourceAPI)
}

// CreateImported is Create for events coming from a CSV import.
func (s *Service) CreateImported(ctx context.Context, in domain.NewEvent) (*domain.Event, error) {
	return s.create(ctx, in, SourceImport)
}

func (s *Service) create(ctx context.Context, in domain.NewEvent, source string) (*domain.Event, error) {
	const op = "service.ledger.Create"

	in.Title = strings.TrimSpace(in.Title)
	if err := validate(in.Title, in.Date, in.Capacity, in.TicketPriceCents); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	var created *domain.Event

	err := s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		e, err := s.events.Create(ctx, in)
		if err != nil {
			return mapRepoErr(err)
		}

		created = e

		after(func(ctx context.Context) {
			s.notifyChanged(ctx, e.ID, ChangeCreated)
			s.publish(ctx, broker.TopicEventCreated, broker.EventCreatedMessage{
				EventID:          e.ID,
				Title:            e.Title,
				Date:             e.Date.String(),
				Capacity:         e.Capacity,
				TicketPriceCents: int64(e.TicketPriceCents),
				Source:           source,
			})
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return created, nil
}

// Get returns an event, served from the cache when one is configured.
//
// Returns:
//   - error: ledger.ErrEventNotFound if the event does not exist.
func (s *Service) Get(ctx context.Context, id int64) (*domain.Event, error) {
	const op = "service.ledger.Get"

	load := func(ctx context.Context) (domain.Event, error) {
		e, err := s.events.Get(ctx, id)
		if err != nil {
			return domain.Event{}, mapRepoErr(err)
		}
		return *e, nil
	}

	var (
		e   domain.Event
		err error
	)
	if s.cache != nil {
		e, err = s.cache.Event(ctx, id, s.cfg.EventCacheTTL, load)
	} else {
		e, err = load(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &e, nil
}

// List returns events matching f in creation order.
func (s *Service) List(ctx context.Context, f domain.EventFilter) ([]domain.Event, error) {
	const op = "service.ledger.List"

	f.Title = strings.TrimSpace(f.Title)

	events, err := s.events.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, mapRepoErr(err))
	}

	return events, nil
}

// Update applies a partial update. The event row stays locked between the
// read and the write, so a concurrent reservation cannot slip under a
// lowered capacity.
//
// Returns:
//   - error: ledger.ErrEventNotFound if the event does not exist.
//   - error: ledger.ErrInvalidArgument if a field is out of range or a
//     required field is null.
//   - error: ledger.ErrInvariantViolation if capacity would drop below the
//     tickets already sold.
func (s *Service) Update(ctx context.Context, id int64, patch domain.EventPatch) (*domain.Event, error) {
	const op = "service.ledger.Update"

	var updated *domain.Event

	err := s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		cur, err := s.events.GetForUpdate(ctx, id)
		if err != nil {
			return mapRepoErr(err)
		}

		next, err := applyPatch(*cur, patch)
		if err != nil {
			return err
		}

		if err := validate(next.Title, next.Date, next.Capacity, next.TicketPriceCents); err != nil {
			return err
		}

		if next.Capacity < next.TicketsSold {
			return ErrInvariantViolation
		}

		saved, err := s.events.Save(ctx, next)
		if err != nil {
			if errors.Is(err, repository.ErrCapacityExceeded) {
				return ErrInvariantViolation
			}
			return mapRepoErr(err)
		}

		updated = saved

		after(func(ctx context.Context) {
			s.invalidate(ctx, id, ChangeUpdated)
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return updated, nil
}

// Delete removes an event. Its attendees are kept.
//
// Returns:
//   - error: ledger.ErrEventNotFound if the event does not exist.
func (s *Service) Delete(ctx context.Context, id int64) error {
	const op = "service.ledger.Delete"

	err := s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		if err := s.events.Delete(ctx, id); err != nil {
			return mapRepoErr(err)
		}

		after(func(ctx context.Context) {
			s.invalidate(ctx, id, ChangeDeleted)
		})

		return nil
	})
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

// Reserve takes qty tickets from an event. When called inside a unit of
// work it joins it, so the reservation rolls back with the caller.
//
// Returns:
//   - *domain.Event: the event after the reservation.
//   - error: ledger.ErrEventNotFound if the event does not exist.
//   - error: ledger.ErrSoldOut if no ticket is left.
//   - error: ledger.ErrInsufficientCapacity if fewer than qty are left.
func (s *Service) Reserve(ctx context.Context, id int64, qty int) (*domain.Event, error) {
	const op = "service.ledger.Reserve"

	if qty < 1 {
		return nil, fmt.Errorf("%s:%w", op, invalid("quantity must be >= 1"))
	}
	if qty > maxCount {
		return nil, fmt.Errorf("%s:%w", op, invalid("quantity must be <= %d", maxCount))
	}

	var reserved *domain.Event

	err := s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		e, err := s.events.Reserve(ctx, id, qty)
		if err != nil {
			if errors.Is(err, repository.ErrCapacityExceeded) {
				return s.shortageErr(ctx, id)
			}
			return mapRepoErr(err)
		}

		reserved = e

		after(func(ctx context.Context) {
			s.invalidate(ctx, id, ChangeReserved)
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return reserved, nil
}

func (s *Service) shortageErr(ctx context.Context, id int64) error {
	e, err := s.events.Get(ctx, id)
	if err != nil {
		return mapRepoErr(err)
	}

	if e.Available() == 0 {
		return ErrSoldOut
	}

	return ErrInsufficientCapacity
}

func (s *Service) invalidate(ctx context.Context, id int64, kind string) {
	if s.cache != nil {
		if err := s.cache.InvalidateEvent(ctx, id); err != nil {
			s.logger.Warn("invalidate event cache", "event_id", id, "error", err)
		}
	}

	s.notifyChanged(ctx, id, kind)
}

func (s *Service) notifyChanged(ctx context.Context, id int64, kind string) {
	if s.changes == nil {
		return
	}

	if err := s.changes.PublishEventChanged(ctx, id, kind); err != nil {
		s.logger.Warn("publish event change", "event_id", id, "kind", kind, "error", err)
	}
}

func (s *Service) publish(ctx context.Context, topic string, msg any) {
	if s.broker == nil {
		return
	}

	if err := s.broker.Publish(ctx, topic, msg); err != nil {
		s.logger.Warn("publish message", "topic", topic, "error", err)
	}
}

func applyPatch(e domain.Event, p domain.EventPatch) (domain.Event, error) {
	if p.Title.Set {
		if p.Title.Null {
			return e, invalid("title must not be null")
		}
		e.Title = strings.TrimSpace(p.Title.Value)
	}

	if p.Description.Set {
		e.Description = p.Description.Value
	}

	if p.Date.Set {
		if p.Date.Null {
			return e, invalid("date must not be null")
		}
		e.Date = p.Date.Value
	}

	if p.Location.Set {
		e.Location = p.Location.Value
	}

	if p.Capacity.Set {
		if p.Capacity.Null {
			return e, invalid("capacity must not be null")
		}
		e.Capacity = p.Capacity.Value
	}

	if p.TicketPriceCents.Set {
		if p.TicketPriceCents.Null {
			return e, invalid("ticket_price_cents must not be null")
		}
		e.TicketPriceCents = p.TicketPriceCents.Value
	}

	return e, nil
}

func validate(title string, date domain.Date, capacity int, price domain.Cents) error {
	if title == "" {
		return invalid("title must not be empty")
	}

	if date.IsZero() {
		return invalid("date is required")
	}

	if capacity < 0 {
		return invalid("capacity must be >= 0")
	}
	if capacity > maxCount {
		return invalid("capacity must be <= %d", maxCount)
	}

	if price < 0 {
		return invalid("ticket_price_cents must be >= 0")
	}

	return nil
}

func mapRepoErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrEventNotFound
	case errors.Is(err, repository.ErrConflict):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	default:
		return err
	}
}
