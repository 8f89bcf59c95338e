package utils

import "time"

// Application Constants
const (
	AppName    = "SplitPair"
	AppVersion = "1.0.0"

	// Default values
	DefaultLanguage = "en"
	DefaultCurrency = "USD"
	DefaultTimeZone = "UTC"

	// Referral Constants
	ReferralCodeLength       = 6
	MaxCodeAttempts          = 5
	DefaultAttributionWindow = 24 * time.Hour
	DefaultRewardDays        = 30
	DefaultReferralLinkBase  = "https://splitpair.app"

	// Response status
	StatusSuccess = "success"
	StatusError   = "error"

	// Error codes
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeInternal     = "INTERNAL_ERROR"
)
