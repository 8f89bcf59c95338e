package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"splitpair/internal/config"
	"splitpair/internal/models"
	"splitpair/internal/repositories/interfaces"
	"splitpair/internal/utils"
	"splitpair/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReferralService interface {
	// Code issuance
	IssueCode(ctx context.Context, userID string) string

	// Attribution (signup path; never fails)
	InitializeReferral(ctx context.Context, userID primitive.ObjectID, referredByCode string) *InitResult

	// Completion (account-pairing path)
	CompleteReferral(ctx context.Context, coupleID, userAID, userBID primitive.ObjectID) *CompletionResult

	// Reporting
	GetStats(ctx context.Context, userID primitive.ObjectID) (*ReferralStats, error)

	// Maintenance sweep, driven by an external scheduler
	ExpireStaleReferrals(ctx context.Context) (int64, error)
}

// InitResult is the referral payload merged into a new user document at
// signup. Degraded marks a best-effort outcome where storage trouble was
// swallowed so account creation could proceed.
type InitResult struct {
	ReferralCode     string                `json:"referral_code"`
	ReferredBy       *string               `json:"referred_by"`
	ReferredByUserID *primitive.ObjectID   `json:"referred_by_user_id"`
	ReferralCount    int                   `json:"referral_count"`
	PremiumStatus    models.PremiumStatus  `json:"premium_status"`
	PremiumSource    *models.PremiumSource `json:"premium_source"`
	PremiumExpiresAt *time.Time            `json:"premium_expires_at"`
	Degraded         bool                  `json:"degraded,omitempty"`
}

type CompletionResult struct {
	Success bool   `json:"success"`
	Count   int    `json:"count"`
	Reason  string `json:"reason,omitempty"`
	Error   string `json:"error,omitempty"`
}

type ReferralStats struct {
	ReferralCode       string                   `json:"referral_code"`
	ReferralCount      int                      `json:"referral_count"`
	PremiumStatus      models.PremiumStatus     `json:"premium_status"`
	PremiumSource      *models.PremiumSource    `json:"premium_source"`
	PremiumExpiresAt   *time.Time               `json:"premium_expires_at"`
	PremiumActive      bool                     `json:"premium_active"`
	PendingReferrals   []*models.ReferralRecord `json:"pending_referrals"`
	CompletedReferrals []*models.ReferralRecord `json:"completed_referrals"`
	ReferralLink       string                   `json:"referral_link"`
}

type referralService struct {
	userRepo     interfaces.UserRepository
	referralRepo interfaces.ReferralRepository
	config       *config.ReferralConfig
	logger       *logger.Logger
}

func NewReferralService(userRepo interfaces.UserRepository, referralRepo interfaces.ReferralRepository, cfg *config.ReferralConfig, log *logger.Logger) ReferralService {
	return &referralService{
		userRepo:     userRepo,
		referralRepo: referralRepo,
		config:       cfg,
		logger:       log,
	}
}

// IssueCode returns a unique referral code for a new user. It never fails:
// a storage error during the uniqueness check assumes the code is free, and
// a run of collisions falls back to a timestamp-derived code accepted
// unchecked.
func (s *referralService) IssueCode(ctx context.Context, userID string) string {
	for attempt := 0; attempt < s.config.MaxCodeAttempts; attempt++ {
		code := utils.GenerateReferralCode(userID, attempt)

		taken, err := s.userRepo.ReferralCodeExists(ctx, code)
		if err != nil {
			s.logger.WithError(err).Warn("referral code uniqueness check failed, assuming available")
			return code
		}
		if !taken {
			return code
		}
	}

	codeFallbacks.Inc()
	code := utils.TimestampReferralCode(time.Now())
	s.logger.WithField("code", code).Warn("referral code retries exhausted, issuing timestamp fallback")
	return code
}

// InitializeReferral issues the new user's own code and, when a usable
// inbound code was supplied, records a pending attribution. Every failure
// path degrades to a usable payload; this sits on the signup path and must
// never block account creation.
func (s *referralService) InitializeReferral(ctx context.Context, userID primitive.ObjectID, referredByCode string) *InitResult {
	result := &InitResult{
		ReferralCode:  s.IssueCode(ctx, userID.Hex()),
		PremiumStatus: models.PremiumStatusFree,
	}

	code := utils.NormalizeReferralCode(referredByCode)
	if code == "" {
		referralsInitialized.WithLabelValues("no_code").Inc()
		return result
	}
	if !utils.IsValidReferralCode(code) {
		s.logger.WithField("user_id", userID.Hex()).Debug("malformed referral code ignored")
		referralsInitialized.WithLabelValues("malformed").Inc()
		return result
	}

	referrer, err := s.userRepo.GetByReferralCode(ctx, code)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			referralsInitialized.WithLabelValues("unknown_code").Inc()
			return result
		}
		s.logger.WithError(err).WithField("user_id", userID.Hex()).Warn("referrer lookup failed during signup")
		referralsInitialized.WithLabelValues("degraded").Inc()
		result.Degraded = true
		return result
	}

	if referrer.ID == userID {
		s.logger.WithField("user_id", userID.Hex()).Warn("self-referral attempt ignored")
		referralsInitialized.WithLabelValues("self_referral").Inc()
		return result
	}

	// A user can be referred at most once.
	if existing, err := s.referralRepo.GetByReferredUser(ctx, userID); err == nil && existing != nil {
		s.logger.WithField("user_id", userID.Hex()).Warn("duplicate referral attribution ignored")
		referralsInitialized.WithLabelValues("duplicate").Inc()
		return result
	}

	now := time.Now()
	record := &models.ReferralRecord{
		ReferrerUserID: referrer.ID,
		ReferredUserID: userID,
		Status:         models.ReferralStatusPending,
		CreatedAt:      now,
		ExpiresAt:      now.Add(s.config.AttributionWindow),
	}
	if err := s.referralRepo.Create(ctx, record); err != nil {
		s.logger.WithError(err).WithField("user_id", userID.Hex()).Error("referral record creation failed during signup")
		referralsInitialized.WithLabelValues("degraded").Inc()
		result.Degraded = true
		return result
	}

	result.ReferredBy = &referrer.ReferralCode
	result.ReferredByUserID = &referrer.ID
	referralsInitialized.WithLabelValues("attributed").Inc()
	return result
}

// CompleteReferral settles pending attributions when two users pair into a
// shared account. Each in-window record is committed atomically; records
// past the window are flipped to expired with no rewards. A transport-level
// commit failure stops processing and is reported, never masked as success.
func (s *referralService) CompleteReferral(ctx context.Context, coupleID, userAID, userBID primitive.ObjectID) *CompletionResult {
	if coupleID.IsZero() || userAID.IsZero() || userBID.IsZero() {
		return &CompletionResult{Success: false, Reason: "invalid_inputs"}
	}

	records, err := s.referralRepo.GetPendingForUsers(ctx, []primitive.ObjectID{userAID, userBID})
	if err != nil {
		s.logger.WithError(err).Error("pending referral lookup failed")
		return &CompletionResult{Success: false, Error: err.Error()}
	}
	if len(records) == 0 {
		return &CompletionResult{Success: true, Count: 0}
	}

	now := time.Now()
	count := 0
	for _, record := range records {
		log := s.logger.WithField("referral_id", record.ID.Hex())

		if record.IsExpiredAt(now) {
			if err := s.referralRepo.MarkExpired(ctx, record.ID); err != nil {
				log.WithError(err).Warn("failed to expire referral record")
				continue
			}
			referralsExpired.Inc()
			log.Info("referral expired past attribution window")
			continue
		}

		outcome, err := s.referralRepo.CommitCompletion(ctx, &interfaces.CompletionCommit{
			Record:      record,
			CoupleID:    coupleID,
			CompletedAt: now,
			RewardDays:  s.config.RewardDays,
		})
		if err != nil {
			log.WithError(err).Error("referral completion commit failed")
			return &CompletionResult{Success: false, Count: count, Error: err.Error()}
		}
		if !outcome.Committed {
			log.Info("referral already settled by a concurrent completion")
			continue
		}
		if outcome.ReferrerMissing {
			log.WithField("referrer_user_id", record.ReferrerUserID.Hex()).Warn("referrer document missing, completed with no referrer reward")
		}
		if outcome.ReferredMissing {
			log.WithField("referred_user_id", record.ReferredUserID.Hex()).Warn("referred user document missing, completed with no referred reward")
		}

		referralsCompleted.Inc()
		count++
		log.WithFields(map[string]interface{}{
			"couple_id":         coupleID.Hex(),
			"referrer_rewarded": outcome.ReferrerRewarded,
			"referred_rewarded": outcome.ReferredRewarded,
		}).Info("referral completed")
	}

	return &CompletionResult{Success: true, Count: count}
}

// GetStats returns the referral dashboard payload for a user, or nil when
// the user does not exist.
func (s *referralService) GetStats(ctx context.Context, userID primitive.ObjectID) (*ReferralStats, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load user for stats: %w", err)
	}

	pending, err := s.referralRepo.GetByReferrerAndStatus(ctx, userID, models.ReferralStatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending referrals: %w", err)
	}
	completed, err := s.referralRepo.GetByReferrerAndStatus(ctx, userID, models.ReferralStatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to load completed referrals: %w", err)
	}

	return &ReferralStats{
		ReferralCode:       user.ReferralCode,
		ReferralCount:      user.ReferralCount,
		PremiumStatus:      user.PremiumStatus,
		PremiumSource:      user.PremiumSource,
		PremiumExpiresAt:   user.PremiumExpiresAt,
		PremiumActive:      models.IsActivePremium(user),
		PendingReferrals:   pending,
		CompletedReferrals: completed,
		ReferralLink:       s.referralLink(user.ReferralCode),
	}, nil
}

// ExpireStaleReferrals flips pending records past their window to expired.
// Completed records are never touched. The subsystem owns no background
// goroutine; an external scheduler calls this.
func (s *referralService) ExpireStaleReferrals(ctx context.Context) (int64, error) {
	flipped, err := s.referralRepo.ExpireOlderThan(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("expiry sweep failed: %w", err)
	}
	if flipped > 0 {
		referralsExpired.Add(float64(flipped))
		s.logger.WithField("count", flipped).Info("expired stale referrals")
	}
	return flipped, nil
}

func (s *referralService) referralLink(code string) string {
	return fmt.Sprintf("%s/r/%s", strings.TrimRight(s.config.LinkBase, "/"), code)
}
