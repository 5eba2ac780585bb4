package importer

import (
	"strings"

	"github.com/kirinyoku/tix-events/internal/domain"
)

// Accepted header names per field, in lookup order.
var (
	titleColumns       = []string{"Event Title", "title", "Title"}
	descriptionColumns = []string{"Description"}
	dateColumns        = []string{"Date", "date"}
	locationColumns    = []string{"Location"}
	capacityColumns    = []string{"Capacity"}
	priceColumns       = []string{"TicketPrice", "Ticket Price", "ticket_price"}
)

// row maps header names to the cells of one record. Cells missing from a
// short record are absent from the map.
type row map[string]string

// first returns the first non-empty value among names.
func (r row) first(names ...string) string {
	for _, n := range names {
		if v := r[n]; v != "" {
			return v
		}
	}
	return ""
}

// lookup returns the value of the first present column, or def when none of
// names is present.
func (r row) lookup(def string, names ...string) string {
	for _, n := range names {
		if v, ok := r[n]; ok {
			return v
		}
	}
	return def
}

func newRow(header, record []string) row {
	r := make(row, len(header))
	for i, name := range header {
		if i >= len(record) {
			break
		}
		if _, dup := r[name]; dup {
			continue
		}
		r[name] = record[i]
	}
	return r
}

// parseRow turns one CSV record into event fields.
func parseRow(r row) (domain.NewEvent, error) {
	title := r.first(titleColumns...)
	if strings.TrimSpace(title) == "" {
		return domain.NewEvent{}, RowError{Reason: "Missing title"}
	}

	rawDate := strings.TrimSpace(r.first(dateColumns...))
	if rawDate == "" {
		return domain.NewEvent{}, RowError{Reason: "Missing date"}
	}
	date, err := domain.ParseDate(rawDate)
	if err != nil {
		return domain.NewEvent{}, RowError{Reason: err.Error()}
	}

	capacity, err := domain.ParseQuantity(r.lookup("0", capacityColumns...))
	if err != nil {
		return domain.NewEvent{}, RowError{Reason: err.Error()}
	}
	if capacity < 0 {
		return domain.NewEvent{}, RowError{Reason: "capacity must be >= 0"}
	}

	price, err := domain.ParseCents(r.first(priceColumns...))
	if err != nil {
		return domain.NewEvent{}, RowError{Reason: err.Error()}
	}
	if price < 0 {
		return domain.NewEvent{}, RowError{Reason: "ticket price must be >= 0"}
	}

	return domain.NewEvent{
		Title:            strings.TrimSpace(title),
		Description:      r.lookup("", descriptionColumns...),
		Date:             date,
		Location:         r.lookup("", locationColumns...),
		Capacity:         capacity,
		TicketPriceCents: price,
	}, nil
}
