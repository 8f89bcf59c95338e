package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestIsActivePremium(t *testing.T) {
	dayAgo := time.Now().Add(-24 * time.Hour)
	dayAhead := time.Now().Add(24 * time.Hour)

	tests := []struct {
		name   string
		user   *User
		active bool
	}{
		{"nil user", nil, false},
		{"free user", &User{PremiumStatus: PremiumStatusFree}, false},
		{"premium forever", &User{PremiumStatus: PremiumStatusPremium}, true},
		{"premium expired", &User{PremiumStatus: PremiumStatusPremium, PremiumExpiresAt: timePtr(dayAgo)}, false},
		{"premium future", &User{PremiumStatus: PremiumStatusPremium, PremiumExpiresAt: timePtr(dayAhead)}, true},
		{"free with future expiry", &User{PremiumStatus: PremiumStatusFree, PremiumExpiresAt: timePtr(dayAhead)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.active, IsActivePremium(tt.user))
		})
	}
}

func TestIsActivePremiumValue(t *testing.T) {
	dayAgo := time.Now().Add(-24 * time.Hour)
	dayAhead := time.Now().Add(24 * time.Hour)

	assert.True(t, IsActivePremiumValue(PremiumStatusPremium, nil))
	assert.True(t, IsActivePremiumValue(PremiumStatusPremium, dayAhead))
	assert.False(t, IsActivePremiumValue(PremiumStatusPremium, dayAgo))
	assert.False(t, IsActivePremiumValue(PremiumStatusFree, nil))

	// Platform wrapper types normalize transparently.
	assert.True(t, IsActivePremiumValue(PremiumStatusPremium, primitive.NewDateTimeFromTime(dayAhead)))
	assert.False(t, IsActivePremiumValue(PremiumStatusPremium, primitive.NewDateTimeFromTime(dayAgo)))
}

func TestNormalizeExpiry(t *testing.T) {
	now := time.Now().Truncate(time.Millisecond)

	assert.Nil(t, NormalizeExpiry(nil))
	assert.Nil(t, NormalizeExpiry(time.Time{}))
	assert.Nil(t, NormalizeExpiry("not a timestamp"))

	require.NotNil(t, NormalizeExpiry(now))
	assert.True(t, NormalizeExpiry(now).Equal(now))

	ptr := NormalizeExpiry(&now)
	require.NotNil(t, ptr)
	assert.True(t, ptr.Equal(now))

	dt := NormalizeExpiry(primitive.NewDateTimeFromTime(now))
	require.NotNil(t, dt)
	assert.True(t, dt.Equal(now))

	ts := NormalizeExpiry(primitive.Timestamp{T: uint32(now.Unix())})
	require.NotNil(t, ts)
	assert.Equal(t, now.Unix(), ts.Unix())
}

func TestReferralRecordIsExpiredAt(t *testing.T) {
	expires := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	record := &ReferralRecord{ExpiresAt: expires}

	assert.False(t, record.IsExpiredAt(expires.Add(-time.Minute)))
	// The boundary instant itself still completes.
	assert.False(t, record.IsExpiredAt(expires))
	assert.True(t, record.IsExpiredAt(expires.Add(time.Nanosecond)))
	assert.True(t, record.IsExpiredAt(expires.Add(time.Minute)))
}
