package config

import (
	"time"
)

type ReferralConfig struct {
	// AttributionWindow bounds how long a pending referral stays claimable
	// after signup.
	AttributionWindow time.Duration `yaml:"attribution_window"`
	// RewardDays is the referred user's premium grant length.
	RewardDays      int    `yaml:"reward_days"`
	MaxCodeAttempts int    `yaml:"max_code_attempts"`
	LinkBase        string `yaml:"link_base"`
}

func loadReferralConfig() *ReferralConfig {
	return &ReferralConfig{
		AttributionWindow: getEnvAsDuration("REFERRAL_WINDOW", 24*time.Hour),
		RewardDays:        getEnvAsInt("REFERRAL_REWARD_DAYS", 30),
		MaxCodeAttempts:   getEnvAsInt("REFERRAL_MAX_CODE_ATTEMPTS", 5),
		LinkBase:          getEnv("REFERRAL_LINK_BASE", "https://splitpair.app"),
	}
}
