package services

import (
	"errors"

	"sessionbook/internal/services/servicetest"
)

type (
	memBookings = servicetest.MemBookings
	memSessions = servicetest.MemSessions
	memWishlist = servicetest.MemWishlist
	fakeGateway = servicetest.FakeGateway
)

var (
	newMemBookings = servicetest.NewMemBookings
	newMemWishlist = servicetest.NewMemWishlist
	errBoom        = errors.New("boom")
)
