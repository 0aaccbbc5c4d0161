package services

import (
	"context"
	"strings"

	"sessionbook/internal/domain"
	"sessionbook/internal/domain/models"
	"sessionbook/internal/utils"
)

type WishlistService struct {
	Sessions  SessionStore
	Wishlist  WishlistStore
	RequestID string
}

// Toggle adds or removes a session from the student's wishlist and reports the new state.
// Only live sessions can be wishlisted.
func (s WishlistService) Toggle(ctx context.Context, studentID, sessionID string) (bool, error) {
	if strings.TrimSpace(studentID) == "" {
		return false, domain.AuthorizationError{Action: "update wishlist"}
	}
	sess, err := s.Sessions.GetByID(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if sess.IsArchived {
		return false, domain.NotFoundError{Resource: "session"}
	}
	on, err := s.Wishlist.Toggle(ctx, studentID, sess.ID)
	if err != nil {
		return false, err
	}
	state := "removed"
	if on {
		state = "added"
	}
	utils.LogEvent(s.RequestID, "wishlist", "toggle", "session_id="+sess.ID+" "+state)
	return on, nil
}

// List returns the student's wishlisted sessions that are still live.
func (s WishlistService) List(ctx context.Context, studentID string) ([]models.Session, error) {
	ids, err := s.Wishlist.SessionIDs(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return s.Sessions.ListActiveByIDs(ctx, ids)
}
