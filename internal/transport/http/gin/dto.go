package httpgin

import (
	"github.com/kirinyoku/tix-events/internal/domain"
)

type CreateEventRequest struct {
	Title            string       `json:"title" binding:"required"`
	Description      string       `json:"description"`
	Date             *domain.Date `json:"date" binding:"required"`
	Location         string       `json:"location"`
	Capacity         int          `json:"capacity"`
	TicketPriceCents domain.Cents `json:"ticket_price_cents"`
}

func (r CreateEventRequest) toDomain() domain.NewEvent {
	return domain.NewEvent{
		Title:            r.Title,
		Description:      r.Description,
		Date:             *r.Date,
		Location:         r.Location,
		Capacity:         r.Capacity,
		TicketPriceCents: r.TicketPriceCents,
	}
}

type AttendeeRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required"`
}

// PurchaseRequest binds from either form fields or a JSON body. Quantity
// defaults to one.
type PurchaseRequest struct {
	BuyerName  string `json:"buyer_name" form:"buyer_name" binding:"required"`
	BuyerEmail string `json:"buyer_email" form:"buyer_email" binding:"required"`
	Quantity   *int   `json:"quantity" form:"quantity"`
}

func (r PurchaseRequest) quantity() int {
	if r.Quantity == nil {
		return 1
	}
	return *r.Quantity
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type DeleteResponse struct {
	OK bool `json:"ok"`
}
