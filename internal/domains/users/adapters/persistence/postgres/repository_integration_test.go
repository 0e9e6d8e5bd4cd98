//go:build integration

package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aromaline/storefront/internal/domains/users/domain"
	"github.com/aromaline/storefront/internal/domains/users/ports"
	"github.com/aromaline/storefront/internal/platform/postgres/pgtest"
)

func newUser(t *testing.T, email string) *domain.User {
	t.Helper()
	u, err := domain.NewUser(email, "hash", domain.Profile{FirstName: "Jane", Locale: "fr"}, time.Now().UTC())
	require.NoError(t, err)
	return u
}

func TestRepository_CreateAndDuplicateEmail(t *testing.T) {
	db, _ := pgtest.Start(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, newUser(t, "jane@example.com"))
	require.NoError(t, err)

	_, err = repo.Create(ctx, newUser(t, "JANE@example.com"))
	require.ErrorIs(t, err, ports.ErrEmailTaken)

	loaded, err := repo.GetByEmail(ctx, " Jane@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, created.ID, loaded.ID)
	assert.Equal(t, "fr", loaded.Locale)

	phone := "+33612345678"
	require.NoError(t, loaded.ApplyProfile(domain.ProfileUpdate{Phone: &phone}, time.Now().UTC()))
	loaded.MarkPhoneVerified(phone, time.Now().UTC())
	updated, err := repo.Update(ctx, loaded)
	require.NoError(t, err)
	assert.True(t, updated.PhoneVerified)

	_, err = repo.GetByID(ctx, "00000000-0000-0000-0000-000000000000")
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestRepository_AddressBookKeepsSingleDefault(t *testing.T) {
	db, _ := pgtest.Start(t)
	repo := NewRepository(db)
	ctx := context.Background()
	user, err := repo.Create(ctx, newUser(t, "jane@example.com"))
	require.NoError(t, err)

	var first, second domain.Address
	require.NoError(t, repo.UpdateAddresses(ctx, user.ID, func(book *domain.AddressBook) error {
		var err error
		first, err = book.Add(domain.AddressInput{Country: "FR", City: "Paris", Street: "1 rue"}, time.Now().UTC())
		if err != nil {
			return err
		}
		second, err = book.Add(domain.AddressInput{Country: "FR", City: "Lyon", Street: "2 quai", MakeDefault: true}, time.Now().UTC().Add(time.Second))
		return err
	}))

	list, err := repo.ListAddresses(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	defaults := 0
	for _, a := range list {
		if a.IsDefault {
			defaults++
			assert.Equal(t, second.ID, a.ID)
		}
	}
	assert.Equal(t, 1, defaults)

	require.NoError(t, repo.UpdateAddresses(ctx, user.ID, func(book *domain.AddressBook) error {
		return book.Remove(second.ID, time.Now().UTC())
	}))
	list, err = repo.ListAddresses(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, first.ID, list[0].ID)
	assert.True(t, list[0].IsDefault)
}

func TestSessionStore_PurgeExpired(t *testing.T) {
	db, _ := pgtest.Start(t)
	ctx := context.Background()
	user, err := NewRepository(db).Create(ctx, newUser(t, "jane@example.com"))
	require.NoError(t, err)
	store := NewSessionStore(db)
	now := time.Now().UTC()

	expired := domain.NewSession(user.ID, time.Hour, now.Add(-2*time.Hour))
	live := domain.NewSession(user.ID, time.Hour, now)
	require.NoError(t, store.Save(ctx, expired))
	require.NoError(t, store.Save(ctx, live))

	purged, err := store.PurgeExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	_, err = store.Get(ctx, expired.Token)
	require.ErrorIs(t, err, ports.ErrSessionNotFound)
	got, err := store.Get(ctx, live.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.UserID)
}

func TestVerificationStore_Upsert(t *testing.T) {
	db, _ := pgtest.Start(t)
	ctx := context.Background()
	user, err := NewRepository(db).Create(ctx, newUser(t, "jane@example.com"))
	require.NoError(t, err)
	store := NewVerificationStore(db)

	missing, err := store.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, missing)

	v := domain.NewVerification(user.ID, "+33612345678", "hash-1", time.Now().UTC())
	require.NoError(t, store.Save(ctx, v))
	v.Attempts = 3
	require.NoError(t, store.Save(ctx, v))

	got, err := store.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Attempts)

	require.NoError(t, store.Delete(ctx, user.ID))
	got, err = store.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestVerificationStore_SpendAttemptIsAtomic(t *testing.T) {
	db, _ := pgtest.Start(t)
	ctx := context.Background()
	user, err := NewRepository(db).Create(ctx, newUser(t, "race@example.com"))
	require.NoError(t, err)
	store := NewVerificationStore(db)
	now := time.Now().UTC()
	require.NoError(t, store.Save(ctx, domain.NewVerification(user.ID, "+33612345678", "hash", now)))

	const callers = 20
	granted := make(chan struct{}, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := store.SpendAttempt(ctx, user.ID, "+33 6 12 34 56 78", now)
			if err == nil && v != nil {
				granted <- struct{}{}
				return
			}
			assert.ErrorIs(t, err, domain.ErrTooManyAttempts)
		}()
	}
	wg.Wait()
	assert.Len(t, granted, domain.MaxCodeAttempts)

	_, err = store.SpendAttempt(ctx, user.ID, "+33612345678", now.Add(domain.CodeTTL))
	require.ErrorIs(t, err, domain.ErrCodeExpired)
	_, err = store.SpendAttempt(ctx, user.ID, "+33699999999", now)
	require.ErrorIs(t, err, domain.ErrNoPendingVerification)
}
