package routes

import (
	handlers "splitpair/internal/handlers/shared"
	"splitpair/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupReferralRoutes sets up routes for the referral engine
func SetupReferralRoutes(r *gin.RouterGroup, referralHandler *handlers.ReferralHandler, jwtSecret string) {
	// Service-to-service routes called by the account layer during signup
	// and account pairing
	referrals := r.Group("/referrals")
	{
		referrals.POST("/code", referralHandler.IssueCode)
		referrals.POST("/initialize", referralHandler.InitializeReferral)
		referrals.POST("/complete", referralHandler.CompleteReferral)
		referrals.GET("/validate/:code", referralHandler.ValidateCode)
	}

	// User-facing routes (require authentication)
	me := r.Group("/referrals")
	me.Use(middleware.AuthRequired(jwtSecret))
	{
		me.GET("/stats", referralHandler.GetStats)
	}

	// Admin routes for the expiry sweep
	admin := r.Group("/admin/referrals")
	admin.Use(middleware.AuthRequired(jwtSecret))
	{
		admin.POST("/expire", referralHandler.ExpireStale)
	}
}
