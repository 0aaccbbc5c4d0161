package services

import (
	"time"

	"sessionbook/internal/domain"
)

// FullRefundNotice is how far ahead of the slot a student must cancel to get everything back.
const FullRefundNotice = 24 * time.Hour

// CalculateRefund returns the refund in the same units as amountPaid.
//
//	instructor cancels              -> all of it
//	student, slot already started   -> nothing
//	student, at least 24h before    -> all of it
//	student, less than 24h before   -> half, rounded down
func CalculateRefund(amountPaid int64, start, now time.Time, by domain.CancelledBy) int64 {
	if amountPaid <= 0 {
		return 0
	}
	if by == domain.RoleInstructor {
		return amountPaid
	}
	lead := start.Sub(now)
	switch {
	case lead <= 0:
		return 0
	case lead >= FullRefundNotice:
		return amountPaid
	default:
		return amountPaid / 2
	}
}
