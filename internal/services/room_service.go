package services

import (
	"context"
	"strings"

	"sessionbook/internal/domain"
	"sessionbook/internal/utils"

	"go.uber.org/zap"
)

type RoomTokenIssuer interface {
	Issue(roomID, userID, role string) (string, error)
}

type RoomJoin struct {
	RoomID string      `json:"roomId"`
	Role   domain.Role `json:"role"`
	UserID string      `json:"userId"`
	Token  string      `json:"token"`
}

// RoomService hands out video room tokens to the two parties of a booking.
type RoomService struct {
	Bookings  BookingStore
	Tokens    RoomTokenIssuer
	RequestID string
}

func (s RoomService) Join(ctx context.Context, userID, bookingID string) (RoomJoin, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return RoomJoin{}, domain.AuthorizationError{Action: "join session"}
	}
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return RoomJoin{}, err
	}

	var role domain.Role
	switch userID {
	case b.StudentID:
		role = domain.RoleStudent
	case b.InstructorID:
		role = domain.RoleInstructor
	default:
		utils.LogWarn(s.RequestID, "room", "join", "requester is not a party",
			zap.String("booking_id", b.ID), zap.String("user_id", userID))
		return RoomJoin{}, domain.AuthorizationError{Action: "join session"}
	}
	if b.Status == domain.StatusCancelled {
		return RoomJoin{}, domain.ConflictError{Resource: "booking", Msg: "booking is cancelled"}
	}

	token, err := s.Tokens.Issue(b.MeetingID, userID, string(role))
	if err != nil {
		return RoomJoin{}, domain.InternalError{Msg: "could not issue room token", Err: err}
	}
	utils.LogEvent(s.RequestID, "room", "join", "booking_id="+b.ID+" role="+string(role))
	return RoomJoin{RoomID: b.MeetingID, Role: role, UserID: userID, Token: token}, nil
}
