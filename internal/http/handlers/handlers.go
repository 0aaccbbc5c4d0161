package handlers

import (
	"sessionbook/internal/payments"
	"sessionbook/internal/services"
)

// EventParser verifies and decodes a gateway webhook delivery.
type EventParser interface {
	ParseEvent(payload []byte, signature string) (payments.Event, error)
}

// Handlers carries the configured services. Each request works on a copy tagged with
// its request id.
type Handlers struct {
	Payments services.PaymentService
	Webhooks services.WebhookService
	Bookings services.BookingService
	Rooms    services.RoomService
	Wishlist services.WishlistService
	Docs     services.DocsService
	Events   EventParser
}
