// Package payments wraps the Stripe API behind the small surface the booking core needs:
// payment intents, refunds and signed webhook events.
package payments

import (
	"errors"
)

// ErrInvalidSignature means the webhook envelope did not verify against the shared secret.
var ErrInvalidSignature = errors.New("invalid webhook signature")

const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventRefundUpdated    = "refund.updated"
)

// Metadata keys carried on the payment intent. They are the only durable record of the
// booking intent until the payment webhook arrives.
const (
	MetaStudentID    = "studentId"
	MetaSessionID    = "sessionId"
	MetaTimeSlot     = "timeSlot"
	MetaSelectedDate = "selectedDate"
	MetaConcerns     = "concerns"
)

type IntentRequest struct {
	Amount         int64 // minor units
	Currency       string
	Metadata       map[string]string
	IdempotencyKey string
}

type Intent struct {
	ID           string
	ClientSecret string
}

type RefundRequest struct {
	PaymentID      string
	Amount         int64 // minor units
	IdempotencyKey string
}

type Refund struct {
	ID     string
	Status string
	Amount int64
}

// PaymentSucceeded is the decoded payment_intent.succeeded payload.
type PaymentSucceeded struct {
	PaymentID      string
	AmountReceived int64 // minor units
	Currency       string
	Metadata       map[string]string
}

// RefundUpdated is the decoded refund.updated payload.
type RefundUpdated struct {
	RefundID string
	Status   string
	Amount   int64 // minor units
}

// Event is a verified webhook event. Exactly one of Payment / Refund is set for the two
// consumed kinds; other kinds carry only ID and Type.
type Event struct {
	ID      string
	Type    string
	Payment *PaymentSucceeded
	Refund  *RefundUpdated
}
