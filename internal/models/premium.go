package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IsActivePremium reports whether the user currently holds an active premium
// entitlement. A nil user or a non-premium status is never active; a premium
// status with a nil expiry never expires; otherwise the expiry must be
// strictly in the future.
func IsActivePremium(u *User) bool {
	if u == nil || u.PremiumStatus != PremiumStatusPremium {
		return false
	}
	if u.PremiumExpiresAt == nil {
		return true
	}
	return time.Now().Before(*u.PremiumExpiresAt)
}

// IsActivePremiumValue evaluates the entitlement from raw document values,
// for callers holding an undecoded status and expiry. The expiry may be any
// of the timestamp representations NormalizeExpiry accepts.
func IsActivePremiumValue(status PremiumStatus, expiresAt interface{}) bool {
	if status != PremiumStatusPremium {
		return false
	}
	exp := NormalizeExpiry(expiresAt)
	if exp == nil {
		return true
	}
	return time.Now().Before(*exp)
}

// NormalizeExpiry converts the timestamp shapes that show up in raw mongo
// documents into a *time.Time: time.Time, *time.Time, primitive.DateTime and
// primitive.Timestamp are accepted; anything else normalizes to nil.
func NormalizeExpiry(v interface{}) *time.Time {
	switch t := v.(type) {
	case nil:
		return nil
	case *time.Time:
		return t
	case time.Time:
		if t.IsZero() {
			return nil
		}
		return &t
	case primitive.DateTime:
		tm := t.Time()
		return &tm
	case primitive.Timestamp:
		tm := time.Unix(int64(t.T), 0)
		return &tm
	default:
		return nil
	}
}
