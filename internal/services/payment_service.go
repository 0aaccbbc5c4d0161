package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"sessionbook/internal/domain"
	"sessionbook/internal/payments"
	"sessionbook/internal/utils"

	"go.uber.org/zap"
)

// MaxConcernsLength is the gateway's limit for one metadata value.
const MaxConcernsLength = 500

type PaymentIntentInput struct {
	StudentID    string `json:"-"`
	SessionID    string `json:"sessionId"`
	TimeSlot     string `json:"timeSlot"`
	SelectedDate string `json:"selectedDate"`
	Concerns     string `json:"concerns"`
}

// PaymentService opens a gateway payment for a slot. The booking intent lives only in the
// intent metadata until the payment webhook commits it; nothing is written locally.
type PaymentService struct {
	Sessions     SessionStore
	Availability AvailabilityService
	Gateway      PaymentGateway
	Currency     string
	MinorFactor  int64
	RequestID    string
}

// CreatePaymentIntent validates the slot against both parties and returns the client secret.
func (s PaymentService) CreatePaymentIntent(ctx context.Context, in PaymentIntentInput) (string, error) {
	in.StudentID = strings.TrimSpace(in.StudentID)
	in.SessionID = strings.TrimSpace(in.SessionID)
	in.Concerns = strings.TrimSpace(in.Concerns)
	if in.StudentID == "" {
		return "", domain.ValidationError{Field: "studentId", Msg: "required"}
	}
	if in.SessionID == "" {
		return "", domain.ValidationError{Field: "sessionId", Msg: "required"}
	}
	if utf8.RuneCountInString(in.Concerns) > MaxConcernsLength {
		return "", domain.ValidationError{Field: "concerns", Msg: fmt.Sprintf("must be at most %d characters", MaxConcernsLength)}
	}

	session, err := s.Sessions.GetByID(ctx, in.SessionID)
	if err != nil {
		return "", err
	}
	if session.IsArchived {
		return "", domain.ValidationError{Field: "sessionId", Msg: "session is archived"}
	}

	start, err := utils.ParseSlotStart(in.TimeSlot)
	if err != nil {
		return "", domain.ValidationError{Field: "timeSlot", Msg: "invalid date", Err: err}
	}
	bookedDate, err := utils.ParseDateOrInstant(in.SelectedDate)
	if err != nil {
		return "", domain.ValidationError{Field: "selectedDate", Msg: "invalid date", Err: err}
	}
	if session.DurationMinutes <= 0 {
		return "", domain.ValidationError{Field: "sessionId", Msg: "session has no duration"}
	}
	end := session.SlotEnd(start)

	busy, err := s.Availability.HasOverlap(ctx, in.StudentID, domain.RoleStudent, start, end)
	if err != nil {
		return "", err
	}
	if busy {
		return "", domain.ConflictError{Resource: "booking", Msg: "you already have a booking at this time"}
	}
	busy, err = s.Availability.HasOverlap(ctx, session.InstructorID, domain.RoleInstructor, start, end)
	if err != nil {
		return "", err
	}
	if busy {
		return "", domain.ConflictError{Resource: "booking", Msg: "instructor is unavailable at this time"}
	}

	intent, err := s.Gateway.CreatePaymentIntent(ctx, payments.IntentRequest{
		Amount:   utils.ToMinorUnits(session.Fee, s.MinorFactor),
		Currency: s.currency(),
		Metadata: map[string]string{
			payments.MetaStudentID:    in.StudentID,
			payments.MetaSessionID:    session.ID,
			payments.MetaTimeSlot:     utils.FormatInstant(start),
			payments.MetaSelectedDate: utils.FormatInstant(bookedDate),
			payments.MetaConcerns:     in.Concerns,
		},
	})
	if err != nil {
		utils.LogError(s.RequestID, "payment", "create_intent", err, zap.String("session_id", session.ID))
		return "", domain.InternalError{Msg: "payment gateway unavailable", Err: err}
	}
	utils.LogEvent(s.RequestID, "payment", "create_intent",
		fmt.Sprintf("intent=%s session_id=%s student_id=%s", intent.ID, session.ID, in.StudentID))
	return intent.ClientSecret, nil
}

func (s PaymentService) currency() string {
	if c := strings.TrimSpace(s.Currency); c != "" {
		return strings.ToLower(c)
	}
	return "inr"
}
