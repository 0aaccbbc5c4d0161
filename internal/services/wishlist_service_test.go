package services

import (
	"context"
	"testing"

	"sessionbook/internal/domain"
	"sessionbook/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWishlistToggleAndList(t *testing.T) {
	archived := models.Session{ID: "sess-old", InstructorID: "ins-1", Title: "Old", IsArchived: true}
	sessions := memSessions{yoga.ID: yoga, archived.ID: archived}
	svc := WishlistService{Sessions: sessions, Wishlist: newMemWishlist()}
	ctx := context.Background()

	on, err := svc.Toggle(ctx, "stu-1", yoga.ID)
	require.NoError(t, err)
	assert.True(t, on)

	list, err := svc.List(ctx, "stu-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, yoga.ID, list[0].ID)

	on, err = svc.Toggle(ctx, "stu-1", yoga.ID)
	require.NoError(t, err)
	assert.False(t, on)

	list, err = svc.List(ctx, "stu-1")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.Toggle(ctx, "stu-1", archived.ID)
	assert.True(t, domain.IsNotFound(err))
	_, err = svc.Toggle(ctx, "stu-1", "missing")
	assert.True(t, domain.IsNotFound(err))
}
