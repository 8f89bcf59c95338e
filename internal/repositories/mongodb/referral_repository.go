package mongodb

import (
	"context"
	"fmt"
	"time"

	"splitpair/internal/models"
	"splitpair/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type referralRepository struct {
	collection *mongo.Collection
	users      *mongo.Collection
	client     *mongo.Client
	cache      CacheService
}

func NewReferralRepository(db *mongo.Database, cache CacheService) interfaces.ReferralRepository {
	return &referralRepository{
		collection: db.Collection("referrals"),
		users:      db.Collection("users"),
		client:     db.Client(),
		cache:      cache,
	}
}

// Basic CRUD operations
func (r *referralRepository) Create(ctx context.Context, record *models.ReferralRecord) error {
	if record.ID.IsZero() {
		record.ID = primitive.NewObjectID()
	}

	_, err := r.collection.InsertOne(ctx, record)
	if err != nil {
		return fmt.Errorf("failed to create referral record: %w", err)
	}

	return nil
}

func (r *referralRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.ReferralRecord, error) {
	var record models.ReferralRecord
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get referral record: %w", err)
	}
	return &record, nil
}

// Attribution queries
func (r *referralRepository) GetByReferredUser(ctx context.Context, userID primitive.ObjectID) (*models.ReferralRecord, error) {
	var record models.ReferralRecord
	err := r.collection.FindOne(ctx, bson.M{"referred_user_id": userID}).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get referral by referred user: %w", err)
	}
	return &record, nil
}

func (r *referralRepository) GetPendingForUsers(ctx context.Context, userIDs []primitive.ObjectID) ([]*models.ReferralRecord, error) {
	filter := bson.M{
		"status":           models.ReferralStatusPending,
		"referred_user_id": bson.M{"$in": userIDs},
	}
	return r.findRecords(ctx, filter)
}

func (r *referralRepository) GetByReferrerAndStatus(ctx context.Context, referrerID primitive.ObjectID, status models.ReferralStatus) ([]*models.ReferralRecord, error) {
	filter := bson.M{
		"referrer_user_id": referrerID,
		"status":           status,
	}
	return r.findRecords(ctx, filter)
}

// Status transitions
func (r *referralRepository) MarkExpired(ctx context.Context, id primitive.ObjectID) error {
	// Filter on pending so a concurrent completion is never overwritten.
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "status": models.ReferralStatusPending},
		bson.M{"$set": bson.M{"status": models.ReferralStatusExpired}},
	)
	if err != nil {
		return fmt.Errorf("failed to expire referral record: %w", err)
	}
	return nil
}

func (r *referralRepository) ExpireOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.collection.UpdateMany(
		ctx,
		bson.M{
			"status":     models.ReferralStatusPending,
			"expires_at": bson.M{"$lt": cutoff},
		},
		bson.M{"$set": bson.M{"status": models.ReferralStatusExpired}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to expire stale referrals: %w", err)
	}
	return result.ModifiedCount, nil
}

// CommitCompletion runs the one hard transactional write in the system: the
// record transition plus both user reward updates succeed or fail together.
// The record update is keyed on status still being pending; when a concurrent
// completion already won, nothing is applied and Committed comes back false.
func (r *referralRepository) CommitCompletion(ctx context.Context, commit *interfaces.CompletionCommit) (*interfaces.CompletionOutcome, error) {
	session, err := r.client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	result, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return r.applyCompletion(sc, commit)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to commit referral completion: %w", err)
	}

	outcome := result.(*interfaces.CompletionOutcome)
	if outcome.Committed {
		r.invalidateUsers(ctx, commit.Record.ReferrerUserID, commit.Record.ReferredUserID)
	}
	return outcome, nil
}

func (r *referralRepository) applyCompletion(sc mongo.SessionContext, commit *interfaces.CompletionCommit) (*interfaces.CompletionOutcome, error) {
	outcome := &interfaces.CompletionOutcome{}
	record := commit.Record

	res, err := r.collection.UpdateOne(sc,
		bson.M{"_id": record.ID, "status": models.ReferralStatusPending},
		bson.M{"$set": bson.M{
			"status":             models.ReferralStatusCompleted,
			"completed_at":       commit.CompletedAt,
			"referred_couple_id": commit.CoupleID,
		}},
	)
	if err != nil {
		return nil, fmt.Errorf("record update failed: %w", err)
	}
	if res.ModifiedCount == 0 {
		// Lost the race against another completion; leave everything alone.
		return outcome, nil
	}
	outcome.Committed = true

	// Count and audit fields always move. The forever-premium grant is gated
	// on the post-increment count hitting 1, read back inside the same
	// transaction, so concurrent completions for one referrer cannot both
	// see "first completion".
	var referrer models.User
	err = r.users.FindOneAndUpdate(sc,
		bson.M{"_id": record.ReferrerUserID},
		bson.M{
			"$inc":      bson.M{"referral_count": 1},
			"$addToSet": bson.M{"referrals_completed": record.ID},
			"$set":      bson.M{"updated_at": commit.CompletedAt},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&referrer)
	switch {
	case err == mongo.ErrNoDocuments:
		outcome.ReferrerMissing = true
	case err != nil:
		return nil, fmt.Errorf("referrer update failed: %w", err)
	case referrer.ReferralCount == 1 && !models.IsActivePremium(&referrer):
		_, err = r.users.UpdateOne(sc,
			bson.M{"_id": referrer.ID},
			bson.M{"$set": bson.M{
				"premium_status":     models.PremiumStatusPremium,
				"premium_source":     models.PremiumSourceReferral,
				"premium_expires_at": nil,
			}},
		)
		if err != nil {
			return nil, fmt.Errorf("referrer reward failed: %w", err)
		}
		outcome.ReferrerRewarded = true
	}

	var referred models.User
	err = r.users.FindOne(sc, bson.M{"_id": record.ReferredUserID}).Decode(&referred)
	switch {
	case err == mongo.ErrNoDocuments:
		outcome.ReferredMissing = true
	case err != nil:
		return nil, fmt.Errorf("referred user lookup failed: %w", err)
	case !models.IsActivePremium(&referred):
		expiresAt := commit.CompletedAt.AddDate(0, 0, commit.RewardDays)
		_, err = r.users.UpdateOne(sc,
			bson.M{"_id": referred.ID},
			bson.M{"$set": bson.M{
				"premium_status":     models.PremiumStatusPremium,
				"premium_source":     models.PremiumSourceReferralBonus,
				"premium_expires_at": expiresAt,
				"updated_at":         commit.CompletedAt,
			}},
		)
		if err != nil {
			return nil, fmt.Errorf("referred user reward failed: %w", err)
		}
		outcome.ReferredRewarded = true
	}

	return outcome, nil
}

// Helper methods
func (r *referralRepository) findRecords(ctx context.Context, filter bson.M) ([]*models.ReferralRecord, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find referral records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*models.ReferralRecord
	for cursor.Next(ctx) {
		var record models.ReferralRecord
		if err := cursor.Decode(&record); err != nil {
			return nil, fmt.Errorf("failed to decode referral record: %w", err)
		}
		records = append(records, &record)
	}

	return records, nil
}

func (r *referralRepository) invalidateUsers(ctx context.Context, ids ...primitive.ObjectID) {
	if r.cache == nil {
		return
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, fmt.Sprintf("user:%s", id.Hex()))
	}
	r.cache.Delete(ctx, keys...)
}
