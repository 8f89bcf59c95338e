package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	referralsInitialized = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splitpair_referrals_initialized_total",
		Help: "Referral attributions created at signup, by outcome.",
	}, []string{"outcome"})

	referralsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "splitpair_referrals_completed_total",
		Help: "Referral records that reached completed status.",
	})

	referralsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "splitpair_referrals_expired_total",
		Help: "Referral records that expired past the attribution window.",
	})

	codeFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "splitpair_referral_code_fallbacks_total",
		Help: "Timestamp-derived codes issued after exhausting uniqueness retries.",
	})
)
