package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestOwnerKey(t *testing.T) {
	assert.Equal(t, "user:u1", Owner{UserID: "u1", GuestToken: "g"}.Key())
	assert.Equal(t, "guest:g", GuestOwner(" g ").Key())
	assert.True(t, GuestOwner("g").IsGuest())
	assert.ErrorIs(t, Owner{}.Validate(), ErrInvalidOwner)
}

func TestAdd_MergesAndCaps(t *testing.T) {
	c := New("user:u1")
	_, err := c.Add(1, 10, 4, 100, now)
	require.NoError(t, err)
	item, err := c.Add(1, 10, 9, 100, now)
	require.NoError(t, err)
	assert.Equal(t, MaxQuantity, item.Quantity)
	require.Len(t, c.Items, 1)

	item, err = c.Add(2, 20, 5, 3, now)
	require.NoError(t, err)
	assert.Equal(t, 3, item.Quantity)
}

func TestAdd_Rejects(t *testing.T) {
	c := New("user:u1")
	_, err := c.Add(1, 10, 0, 5, now)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = c.Add(1, 10, 11, 50, now)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = c.Add(0, 10, 1, 5, now)
	assert.ErrorIs(t, err, ErrInvalidVariant)
	_, err = c.Add(1, 10, 1, 0, now)
	assert.ErrorIs(t, err, ErrOutOfStock)
}

func TestSet_ZeroRemoves(t *testing.T) {
	c := New("user:u1")
	_, _ = c.Add(1, 10, 2, 5, now)
	require.NoError(t, c.Set(1, 7, 5, now))
	assert.Equal(t, 5, c.Items[0].Quantity)
	require.NoError(t, c.Set(1, 0, 5, now))
	assert.Empty(t, c.Items)
	assert.ErrorIs(t, c.Set(1, 1, 5, now), ErrItemNotFound)
}

func TestMerge_SumsAndCaps(t *testing.T) {
	user := New("user:u1")
	_, _ = user.Add(1, 10, 6, 50, now)
	guest := New("guest:g")
	_, _ = guest.Add(1, 10, 7, 50, now)
	_, _ = guest.Add(2, 20, 2, 50, now)
	_, _ = guest.Add(3, 30, 2, 50, now)

	stock := map[int64]int{1: 50, 2: 1, 3: 0}
	user.Merge(guest, func(id int64) int { return stock[id] }, now)

	require.Len(t, user.Items, 2)
	assert.Equal(t, MaxQuantity, user.Items[0].Quantity)
	assert.Equal(t, 1, user.Items[1].Quantity)
}
