package mapper

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	userdomain "github.com/aromaline/storefront/internal/domains/users/domain"
	userports "github.com/aromaline/storefront/internal/domains/users/ports"
)

func TestFromAuthResult_OmitsPasswordHash(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	result := &userports.AuthResult{
		User: &userdomain.User{
			ID:           "u1",
			Email:        "jane@example.com",
			PasswordHash: "$2a$10$secret",
			Locale:       "fr",
			CreatedAt:    now,
		},
		Session:       userdomain.Session{Token: "tok", UserID: "u1", ExpiresAt: now.Add(time.Hour)},
		ClaimedOrders: 2,
	}

	raw, err := json.Marshal(FromAuthResult(result))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "tok", decoded["token"])
	assert.EqualValues(t, 2, decoded["claimedOrders"])
	user := decoded["user"].(map[string]any)
	assert.Equal(t, "fr", user["locale"])
	assert.NotContains(t, user, "passwordHash")
}

func TestToProfileUpdate_KeepsOmittedFieldsNil(t *testing.T) {
	var in ProfileInput
	require.NoError(t, json.Unmarshal([]byte(`{"phone":"+33612345678"}`), &in))

	update := ToProfileUpdate(in)
	require.NotNil(t, update.Phone)
	assert.Equal(t, "+33612345678", *update.Phone)
	assert.Nil(t, update.FirstName)
	assert.Nil(t, update.Locale)
}

func TestToPromoteCommand_UsesRequestLocale(t *testing.T) {
	cmd := ToPromoteCommand(PromoteInput{OrderNumber: "PF-1", Email: "g@example.com", Password: "pw"}, "ru", "guest")
	assert.Equal(t, "ru", cmd.Profile.Locale)
	assert.Equal(t, "guest", cmd.GuestToken)
	assert.Equal(t, "PF-1", cmd.OrderNumber)
}

func TestToDomainAddress_MapsDefaultFlag(t *testing.T) {
	in := AddressInput{Country: "FR", City: "Paris", Street: "1 rue", IsDefault: true}
	assert.True(t, ToDomainAddress(in).MakeDefault)
	assert.Empty(t, FromDomainAddresses(nil))
}
