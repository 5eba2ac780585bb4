package report

import (
	"context"
	"fmt"

	"github.com/kirinyoku/tix-events/internal/clock"
	"github.com/kirinyoku/tix-events/internal/domain"
)

type EventLister interface {
	List(ctx context.Context, f domain.EventFilter) ([]domain.Event, error)
}

type Service struct {
	events EventLister
	clock  clock.Clock
}

func New(events EventLister, clk clock.Clock) *Service {
	if clk == nil {
		clk = clock.NewSystem()
	}

	return &Service{
		events: events,
		clock:  clk,
	}
}

// Sales returns availability and revenue for every event, in creation
// order. GeneratedAt is taken once for the whole report.
func (s *Service) Sales(ctx context.Context) (*domain.SalesReport, error) {
	const op = "service.report.Sales"

	events, err := s.events.List(ctx, domain.EventFilter{})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	entries := make([]domain.SalesReportEntry, 0, len(events))
	for _, e := range events {
		entries = append(entries, domain.SalesReportEntry{
			EventID:          e.ID,
			Title:            e.Title,
			Date:             e.Date,
			Capacity:         e.Capacity,
			TicketsSold:      e.TicketsSold,
			TicketsAvailable: e.Available(),
			RevenueCents:     e.Revenue(),
		})
	}

	return &domain.SalesReport{
		Report:      entries,
		GeneratedAt: s.clock.Now(),
	}, nil
}
