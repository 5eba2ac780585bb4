package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirinyoku/tix-events/internal/broker"
	"github.com/kirinyoku/tix-events/internal/domain"
	"github.com/kirinyoku/tix-events/internal/repository"
	"github.com/kirinyoku/tix-events/internal/uow"
)

type AttendeeRepository interface {
	Create(ctx context.Context, a domain.Attendee) (*domain.Attendee, error)
	CreateMany(ctx context.Context, a domain.Attendee, n int) ([]domain.Attendee, error)
	Get(ctx context.Context, id int64) (*domain.Attendee, error)
	ListByEvent(ctx context.Context, eventID int64) ([]domain.Attendee, error)
	Update(ctx context.Context, id int64, name, email string) (*domain.Attendee, error)
}

// Ledger is the part of the event ledger the registry reserves tickets on.
type Ledger interface {
	Get(ctx context.Context, id int64) (*domain.Event, error)
	Reserve(ctx context.Context, id int64, qty int) (*domain.Event, error)
}

type Transactor interface {
	Do(ctx context.Context, fn func(ctx context.Context, after func(uow.AfterCommit)) error) error
}

type MessagePublisher interface {
	Publish(ctx context.Context, topic string, msg any) error
}

type Service struct {
	attendees AttendeeRepository
	ledger    Ledger
	uow       Transactor
	broker    MessagePublisher
	logger    *slog.Logger
}

type Option func(*Service)

func WithBroker(b MessagePublisher) Option {
	return func(s *Service) { s.broker = b }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func New(attendees AttendeeRepository, ledger Ledger, tx Transactor, opts ...Option) *Service {
	s := &Service{
		attendees: attendees,
		ledger:    ledger,
		uow:       tx,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// PurchaseInput describes a bulk ticket purchase by one buyer.
type PurchaseInput struct {
	EventID    int64
	BuyerName  string
	BuyerEmail string
	Quantity   int
}

// RegisterOne reserves a single ticket and records its attendee. Both writes
// commit together or not at all.
//
// Returns:
//   - error: ledger.ErrEventNotFound, ledger.ErrSoldOut or
//     ledger.ErrInsufficientCapacity from the reservation.
func (s *Service) RegisterOne(ctx context.Context, eventID int64, name, email string) (*domain.Attendee, error) {
	const op = "service.registry.RegisterOne"

	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" {
		return nil, fmt.Errorf("%s:%w", op, emptyField("name"))
	}

	var created *domain.Attendee

	err := s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		if _, err := s.ledger.Reserve(ctx, eventID, 1); err != nil {
			return err
		}

		a, err := s.attendees.Create(ctx, domain.Attendee{
			Name:    name,
			Email:   email,
			EventID: eventID,
		})
		if err != nil {
			return err
		}

		created = a

		after(func(ctx context.Context) {
			s.publish(ctx, broker.TopicAttendeeRegistered, broker.AttendeeRegisteredMessage{
				AttendeeID: a.ID,
				EventID:    a.EventID,
				Name:       a.Name,
				Email:      a.Email,
			})
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return created, nil
}

// Purchase reserves in.Quantity tickets at once and records one attendee per
// ticket, all carrying the buyer's name and email. Revenue uses the price the
// event has at the time of the purchase.
//
// Returns:
//   - error: registry.ErrInvalidQuantity if the quantity is below one.
//   - error: ledger errors from the reservation.
func (s *Service) Purchase(ctx context.Context, in PurchaseInput) (*domain.PurchaseResult, error) {
	const op = "service.registry.Purchase"

	if in.Quantity < 1 {
		return nil, fmt.Errorf("%s:%w", op, ErrInvalidQuantity)
	}

	in.BuyerName, in.BuyerEmail = strings.TrimSpace(in.BuyerName), strings.TrimSpace(in.BuyerEmail)
	if in.BuyerName == "" {
		return nil, fmt.Errorf("%s:%w", op, emptyField("buyer_name"))
	}

	var res *domain.PurchaseResult

	err := s.uow.Do(ctx, func(ctx context.Context, after func(uow.AfterCommit)) error {
		e, err := s.ledger.Reserve(ctx, in.EventID, in.Quantity)
		if err != nil {
			return err
		}

		if _, err := s.attendees.CreateMany(ctx, domain.Attendee{
			Name:    in.BuyerName,
			Email:   in.BuyerEmail,
			EventID: in.EventID,
		}, in.Quantity); err != nil {
			return err
		}

		res = &domain.PurchaseResult{
			TicketsPurchased: in.Quantity,
			RevenueCents:     e.TicketPriceCents.Mul(in.Quantity),
			TicketsSold:      e.TicketsSold,
		}

		after(func(ctx context.Context) {
			s.publish(ctx, broker.TopicTicketsPurchased, broker.TicketsPurchasedMessage{
				EventID:      in.EventID,
				BuyerName:    in.BuyerName,
				BuyerEmail:   in.BuyerEmail,
				Quantity:     in.Quantity,
				RevenueCents: int64(res.RevenueCents),
				TicketsSold:  res.TicketsSold,
			})
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return res, nil
}

// List returns the attendees of an event in registration order.
//
// Returns:
//   - error: ledger.ErrEventNotFound if the event does not exist.
func (s *Service) List(ctx context.Context, eventID int64) ([]domain.Attendee, error) {
	const op = "service.registry.List"

	if _, err := s.ledger.Get(ctx, eventID); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	out, err := s.attendees.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Attendee, error) {
	const op = "service.registry.Get"

	a, err := s.attendees.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, mapRepoErr(err))
	}

	return a, nil
}

// Update replaces the name and email of an attendee. The event it belongs
// to is not touched.
//
// Returns:
//   - error: registry.ErrAttendeeNotFound if the attendee does not exist.
func (s *Service) Update(ctx context.Context, id int64, name, email string) (*domain.Attendee, error) {
	const op = "service.registry.Update"

	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" {
		return nil, fmt.Errorf("%s:%w", op, emptyField("name"))
	}

	a, err := s.attendees.Update(ctx, id, name, email)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, mapRepoErr(err))
	}

	return a, nil
}

func (s *Service) publish(ctx context.Context, topic string, msg any) {
	if s.broker == nil {
		return
	}

	if err := s.broker.Publish(ctx, topic, msg); err != nil {
		s.logger.Warn("publish message", "topic", topic, "error", err)
	}
}

func mapRepoErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrAttendeeNotFound
	}
	return err
}
