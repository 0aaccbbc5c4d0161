// Package auth verifies bearer access tokens and issues video room tokens.
package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the access token minted by the identity service.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// UserID is the token subject.
func (c Claims) UserID() string { return c.Subject }

// CreateAccessToken signs an HS256 access token for sub.
func CreateAccessToken(secret []byte, sub, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{Role: role, RegisteredClaims: jwt.RegisteredClaims{
		Subject:   sub,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseAccessToken validates signature, algorithm and expiry.
func ParseAccessToken(secret []byte, tokenStr string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid || c.Subject == "" {
		return nil, ErrInvalidToken
	}
	return c, nil
}

// RoomClaims grant one user entry to one meeting room.
type RoomClaims struct {
	RoomID string `json:"room_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// RoomTokenIssuer signs room tokens for the video provider.
type RoomTokenIssuer struct {
	Secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

func (i RoomTokenIssuer) Issue(roomID, userID, role string) (string, error) {
	if len(i.Secret) == 0 {
		return "", errors.New("room token secret not configured")
	}
	now := time.Now()
	if i.Now != nil {
		now = i.Now()
	}
	ttl := i.TTL
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	claims := RoomClaims{RoomID: roomID, Role: role, RegisteredClaims: jwt.RegisteredClaims{
		Subject:   userID,
		Audience:  jwt.ClaimStrings{roomID},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.Secret)
}

// ParseRoomToken is used by the room provider side and by tests.
func ParseRoomToken(secret []byte, tokenStr string) (*RoomClaims, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &RoomClaims{}, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	c, ok := t.Claims.(*RoomClaims)
	if !ok || !t.Valid {
		return nil, ErrInvalidToken
	}
	return c, nil
}
