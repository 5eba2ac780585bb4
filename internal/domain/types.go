package domain

import (
	"time"
)

type Event struct {
	ID               int64  `json:"id"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	Date             Date   `json:"date"`
	Location         string `json:"location"`
	Capacity         int    `json:"capacity"`
	TicketsSold      int    `json:"tickets_sold"`
	TicketPriceCents Cents  `json:"ticket_price_cents"`
}

// Available is the number of tickets that can still be reserved.
func (e Event) Available() int {
	return Available(e.Capacity, e.TicketsSold)
}

// Revenue is the gross amount collected for the tickets sold so far.
func (e Event) Revenue() Cents {
	return e.TicketPriceCents.Mul(e.TicketsSold)
}

type NewEvent struct {
	Title            string
	Description      string
	Date             Date
	Location         string
	Capacity         int
	TicketPriceCents Cents
}

// EventPatch carries the fields of a partial event update. Fields left
// unset are not touched.
type EventPatch struct {
	Title            Optional[string] `json:"title"`
	Description      Optional[string] `json:"description"`
	Date             Optional[Date]   `json:"date"`
	Location         Optional[string] `json:"location"`
	Capacity         Optional[int]    `json:"capacity"`
	TicketPriceCents Optional[Cents]  `json:"ticket_price_cents"`
}

type EventFilter struct {
	Title    string
	DateFrom *Date
	DateTo   *Date
}

type Attendee struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	EventID int64  `json:"event_id"`
}

type PurchaseResult struct {
	TicketsPurchased int   `json:"tickets_purchased"`
	RevenueCents     Cents `json:"revenue_cents"`
	TicketsSold      int   `json:"tickets_sold"`
}

type SalesReportEntry struct {
	EventID          int64  `json:"event_id"`
	Title            string `json:"title"`
	Date             Date   `json:"date"`
	Capacity         int    `json:"capacity"`
	TicketsSold      int    `json:"tickets_sold"`
	TicketsAvailable int    `json:"tickets_available"`
	RevenueCents     Cents  `json:"revenue_cents"`
}

type SalesReport struct {
	Report      []SalesReportEntry `json:"report"`
	GeneratedAt time.Time          `json:"generated_at"`
}

type ImportCreated struct {
	Row     int    `json:"row"`
	EventID int64  `json:"event_id"`
	Title   string `json:"title"`
}

type ImportError struct {
	Row     int               `json:"row"`
	Error   string            `json:"error"`
	RowData map[string]string `json:"row_data"`
}

type ImportResult struct {
	BatchID string          `json:"batch_id"`
	Created []ImportCreated `json:"created"`
	Errors  []ImportError   `json:"errors"`
}
