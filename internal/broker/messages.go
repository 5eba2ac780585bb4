package broker

// Routing keys published on the exchange.
const (
	TopicEventCreated       = "event.created"
	TopicAttendeeRegistered = "attendee.registered"
	TopicTicketsPurchased   = "tickets.purchased"
)

// EventCreatedMessage is published when an event is created, by API or by
// CSV import.
type EventCreatedMessage struct {
	EventID          int64  `json:"event_id"`
	Title            string `json:"title"`
	Date             string `json:"date"`
	Capacity         int    `json:"capacity"`
	TicketPriceCents int64  `json:"ticket_price_cents"`
	Source           string `json:"source"`
}

// AttendeeRegisteredMessage is published after a single-ticket registration.
type AttendeeRegisteredMessage struct {
	AttendeeID int64  `json:"attendee_id"`
	EventID    int64  `json:"event_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
}

// TicketsPurchasedMessage is published after a bulk purchase.
type TicketsPurchasedMessage struct {
	EventID      int64  `json:"event_id"`
	BuyerName    string `json:"buyer_name"`
	BuyerEmail   string `json:"buyer_email"`
	Quantity     int    `json:"quantity"`
	RevenueCents int64  `json:"revenue_cents"`
	TicketsSold  int    `json:"tickets_sold"`
}
