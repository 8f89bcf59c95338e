package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PremiumStatus string
type PremiumSource string

const (
	PremiumStatusFree    PremiumStatus = "free"
	PremiumStatusPremium PremiumStatus = "premium"

	PremiumSourceReferral      PremiumSource = "referral"
	PremiumSourceReferralBonus PremiumSource = "referral_bonus"
	PremiumSourceSubscription  PremiumSource = "subscription"
)

type User struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Email       string             `json:"email" bson:"email" validate:"required,email"`
	DisplayName string             `json:"display_name" bson:"display_name"`

	// Referral fields. ReferralCode is assigned once at creation and never
	// changes; ReferredBy/ReferredByUserID are set at signup or never.
	ReferralCode       string               `json:"referral_code" bson:"referral_code"`
	ReferredBy         *string              `json:"referred_by" bson:"referred_by"`
	ReferredByUserID   *primitive.ObjectID  `json:"referred_by_user_id" bson:"referred_by_user_id"`
	ReferralCount      int                  `json:"referral_count" bson:"referral_count"`
	ReferralsCompleted []primitive.ObjectID `json:"referrals_completed" bson:"referrals_completed"`

	// PremiumExpiresAt == nil means the entitlement never expires.
	PremiumStatus    PremiumStatus  `json:"premium_status" bson:"premium_status" default:"free"`
	PremiumSource    *PremiumSource `json:"premium_source" bson:"premium_source"`
	PremiumExpiresAt *time.Time     `json:"premium_expires_at" bson:"premium_expires_at"`

	// CoupleID is the shared account this user paired into, if any.
	CoupleID *primitive.ObjectID `json:"couple_id" bson:"couple_id"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}
