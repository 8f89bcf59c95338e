package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReferralStatus string

const (
	ReferralStatusPending   ReferralStatus = "pending"
	ReferralStatusCompleted ReferralStatus = "completed"
	ReferralStatusExpired   ReferralStatus = "expired"
)

// ReferralRecord tracks a single attribution: who referred whom, and whether
// the referred user paired into a shared account inside the window. Records
// transition pending->completed or pending->expired exactly once and are
// never deleted; completed records are the audit trail for granted rewards.
type ReferralRecord struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ReferrerUserID primitive.ObjectID `json:"referrer_user_id" bson:"referrer_user_id"`
	ReferredUserID primitive.ObjectID `json:"referred_user_id" bson:"referred_user_id"`
	Status         ReferralStatus     `json:"status" bson:"status" default:"pending"`

	// CreatedAt is the authoritative clock for the attribution window;
	// ExpiresAt is computed once at creation and never recomputed.
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	ExpiresAt time.Time `json:"expires_at" bson:"expires_at"`

	CompletedAt      *time.Time          `json:"completed_at" bson:"completed_at"`
	ReferredCoupleID *primitive.ObjectID `json:"referred_couple_id" bson:"referred_couple_id"`
}

// IsExpiredAt applies the window rule: the boundary instant itself still
// completes, only now strictly past ExpiresAt counts as expired.
func (r *ReferralRecord) IsExpiredAt(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
