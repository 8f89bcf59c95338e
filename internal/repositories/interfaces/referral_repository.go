package interfaces

import (
	"context"
	"time"

	"splitpair/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CompletionCommit carries everything the store needs to apply one referral
// completion as a single indivisible write across the record, the referrer
// and the referred user.
type CompletionCommit struct {
	Record      *models.ReferralRecord
	CoupleID    primitive.ObjectID
	CompletedAt time.Time
	RewardDays  int
}

// CompletionOutcome reports what the commit actually changed. Committed is
// false when the record was no longer pending at write time, meaning a
// concurrent completion won the race and nothing was applied.
type CompletionOutcome struct {
	Committed        bool
	ReferrerRewarded bool
	ReferredRewarded bool
	ReferrerMissing  bool
	ReferredMissing  bool
}

type ReferralRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, record *models.ReferralRecord) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.ReferralRecord, error)

	// Attribution queries
	GetByReferredUser(ctx context.Context, userID primitive.ObjectID) (*models.ReferralRecord, error)
	GetPendingForUsers(ctx context.Context, userIDs []primitive.ObjectID) ([]*models.ReferralRecord, error)
	GetByReferrerAndStatus(ctx context.Context, referrerID primitive.ObjectID, status models.ReferralStatus) ([]*models.ReferralRecord, error)

	// Status transitions
	MarkExpired(ctx context.Context, id primitive.ObjectID) error
	ExpireOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// CommitCompletion applies the record transition and both reward updates
	// atomically, preconditioned on the record still being pending.
	CommitCompletion(ctx context.Context, commit *CompletionCommit) (*CompletionOutcome, error)
}
