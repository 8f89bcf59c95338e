package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"splitpair/internal/middleware"
	"splitpair/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeReferralService struct {
	issueCodeFn      func(ctx context.Context, userID string) string
	initializeFn     func(ctx context.Context, userID primitive.ObjectID, code string) *services.InitResult
	completeFn       func(ctx context.Context, coupleID, userAID, userBID primitive.ObjectID) *services.CompletionResult
	statsFn          func(ctx context.Context, userID primitive.ObjectID) (*services.ReferralStats, error)
	expireFn         func(ctx context.Context) (int64, error)
	lastInitializeID primitive.ObjectID
}

func (f *fakeReferralService) IssueCode(ctx context.Context, userID string) string {
	if f.issueCodeFn != nil {
		return f.issueCodeFn(ctx, userID)
	}
	return "ABCDEF"
}

func (f *fakeReferralService) InitializeReferral(ctx context.Context, userID primitive.ObjectID, code string) *services.InitResult {
	f.lastInitializeID = userID
	if f.initializeFn != nil {
		return f.initializeFn(ctx, userID, code)
	}
	return &services.InitResult{ReferralCode: "ABCDEF"}
}

func (f *fakeReferralService) CompleteReferral(ctx context.Context, coupleID, userAID, userBID primitive.ObjectID) *services.CompletionResult {
	if f.completeFn != nil {
		return f.completeFn(ctx, coupleID, userAID, userBID)
	}
	return &services.CompletionResult{Success: true}
}

func (f *fakeReferralService) GetStats(ctx context.Context, userID primitive.ObjectID) (*services.ReferralStats, error) {
	if f.statsFn != nil {
		return f.statsFn(ctx, userID)
	}
	return nil, nil
}

func (f *fakeReferralService) ExpireStaleReferrals(ctx context.Context) (int64, error) {
	if f.expireFn != nil {
		return f.expireFn(ctx)
	}
	return 0, nil
}

func setupRouter(svc services.ReferralService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewReferralHandler(svc)
	router := gin.New()

	router.POST("/referrals/code", handler.IssueCode)
	router.POST("/referrals/initialize", handler.InitializeReferral)
	router.POST("/referrals/complete", handler.CompleteReferral)
	router.GET("/referrals/validate/:code", handler.ValidateCode)
	router.GET("/referrals/stats", func(c *gin.Context) {
		// Stand-in for the JWT middleware.
		if hex := c.GetHeader("X-Test-User"); hex != "" {
			if id, err := primitive.ObjectIDFromHex(hex); err == nil {
				c.Set("user_id", id)
			}
		}
		handler.GetStats(c)
	})
	router.POST("/admin/referrals/expire", handler.ExpireStale)

	return router
}

func performJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var envelope map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope
}

func TestIssueCodeEndpoint(t *testing.T) {
	svc := &fakeReferralService{
		issueCodeFn: func(ctx context.Context, userID string) string { return "HJKM29" },
	}
	router := setupRouter(svc)

	w := performJSON(router, http.MethodPost, "/referrals/code", gin.H{
		"user_id": primitive.NewObjectID().Hex(),
	})

	require.Equal(t, http.StatusOK, w.Code)
	envelope := decodeEnvelope(t, w)
	assert.Equal(t, "success", envelope["status"])
	data := envelope["data"].(map[string]interface{})
	assert.Equal(t, "HJKM29", data["referral_code"])
}

func TestIssueCodeEndpointRejectsBadBody(t *testing.T) {
	router := setupRouter(&fakeReferralService{})

	w := performJSON(router, http.MethodPost, "/referrals/code", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performJSON(router, http.MethodPost, "/referrals/code", gin.H{
		"user_id": "not-an-object-id",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInitializeReferralEndpoint(t *testing.T) {
	referredBy := "FRND42"
	referrerID := primitive.NewObjectID()
	svc := &fakeReferralService{
		initializeFn: func(ctx context.Context, userID primitive.ObjectID, code string) *services.InitResult {
			assert.Equal(t, "FRND42", code)
			return &services.InitResult{
				ReferralCode:     "HJKM29",
				ReferredBy:       &referredBy,
				ReferredByUserID: &referrerID,
			}
		},
	}
	router := setupRouter(svc)
	userID := primitive.NewObjectID()

	w := performJSON(router, http.MethodPost, "/referrals/initialize", gin.H{
		"user_id":          userID.Hex(),
		"referred_by_code": "FRND42",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID, svc.lastInitializeID)

	envelope := decodeEnvelope(t, w)
	data := envelope["data"].(map[string]interface{})
	assert.Equal(t, "HJKM29", data["referral_code"])
	assert.Equal(t, "FRND42", data["referred_by"])
}

func TestCompleteReferralEndpoint(t *testing.T) {
	svc := &fakeReferralService{
		completeFn: func(ctx context.Context, coupleID, userAID, userBID primitive.ObjectID) *services.CompletionResult {
			return &services.CompletionResult{Success: true, Count: 1}
		},
	}
	router := setupRouter(svc)

	w := performJSON(router, http.MethodPost, "/referrals/complete", gin.H{
		"couple_id": primitive.NewObjectID().Hex(),
		"user_a_id": primitive.NewObjectID().Hex(),
		"user_b_id": primitive.NewObjectID().Hex(),
	})

	require.Equal(t, http.StatusOK, w.Code)
	envelope := decodeEnvelope(t, w)
	data := envelope["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["count"])
}

func TestCompleteReferralEndpointFailure(t *testing.T) {
	svc := &fakeReferralService{
		completeFn: func(ctx context.Context, coupleID, userAID, userBID primitive.ObjectID) *services.CompletionResult {
			return &services.CompletionResult{Success: false, Error: "connection reset"}
		},
	}
	router := setupRouter(svc)

	w := performJSON(router, http.MethodPost, "/referrals/complete", gin.H{
		"couple_id": primitive.NewObjectID().Hex(),
		"user_a_id": primitive.NewObjectID().Hex(),
		"user_b_id": primitive.NewObjectID().Hex(),
	})

	require.Equal(t, http.StatusInternalServerError, w.Code)
	envelope := decodeEnvelope(t, w)
	assert.Equal(t, "error", envelope["status"])
}

func TestCompleteReferralEndpointBadIDs(t *testing.T) {
	router := setupRouter(&fakeReferralService{})

	w := performJSON(router, http.MethodPost, "/referrals/complete", gin.H{
		"couple_id": "nope",
		"user_a_id": primitive.NewObjectID().Hex(),
		"user_b_id": primitive.NewObjectID().Hex(),
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidateCodeEndpoint(t *testing.T) {
	router := setupRouter(&fakeReferralService{})

	w := performJSON(router, http.MethodGet, "/referrals/validate/hjkm29", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "HJKM29", data["code"])
	assert.Equal(t, true, data["valid"])

	w = performJSON(router, http.MethodGet, "/referrals/validate/BAD0", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data = decodeEnvelope(t, w)["data"].(map[string]interface{})
	assert.Equal(t, false, data["valid"])
}

func TestGetStatsEndpoint(t *testing.T) {
	userID := primitive.NewObjectID()
	svc := &fakeReferralService{
		statsFn: func(ctx context.Context, id primitive.ObjectID) (*services.ReferralStats, error) {
			assert.Equal(t, userID, id)
			return &services.ReferralStats{
				ReferralCode:  "HJKM29",
				ReferralCount: 2,
				PremiumActive: true,
				ReferralLink:  "https://splitpair.app/r/HJKM29",
			}, nil
		},
	}
	router := setupRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/referrals/stats", nil)
	req.Header.Set("X-Test-User", userID.Hex())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "HJKM29", data["referral_code"])
	assert.Equal(t, "https://splitpair.app/r/HJKM29", data["referral_link"])
}

func TestGetStatsEndpointUnauthenticated(t *testing.T) {
	router := setupRouter(&fakeReferralService{})

	req := httptest.NewRequest(http.MethodGet, "/referrals/stats", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetStatsEndpointUnknownUser(t *testing.T) {
	router := setupRouter(&fakeReferralService{})

	req := httptest.NewRequest(http.MethodGet, "/referrals/stats", nil)
	req.Header.Set("X-Test-User", primitive.NewObjectID().Hex())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExpireStaleEndpoint(t *testing.T) {
	svc := &fakeReferralService{
		expireFn: func(ctx context.Context) (int64, error) { return 3, nil },
	}
	router := setupRouter(svc)

	w := performJSON(router, http.MethodPost, "/admin/referrals/expire", nil)

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(3), data["expired"])
}

func TestAuthMiddlewareBlocksMissingToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", middleware.AuthRequired("test-secret"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
