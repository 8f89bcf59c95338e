package handlers

import (
	"net/http"

	"splitpair/internal/services"
	"splitpair/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReferralHandler struct {
	referralService services.ReferralService
}

func NewReferralHandler(referralService services.ReferralService) *ReferralHandler {
	return &ReferralHandler{
		referralService: referralService,
	}
}

type IssueCodeRequest struct {
	UserID string `json:"user_id" binding:"required" validate:"required,object_id"`
}

type InitializeReferralRequest struct {
	UserID         string `json:"user_id" binding:"required" validate:"required,object_id"`
	ReferredByCode string `json:"referred_by_code"`
}

type CompleteReferralRequest struct {
	CoupleID string `json:"couple_id" binding:"required" validate:"required,object_id"`
	UserAID  string `json:"user_a_id" binding:"required" validate:"required,object_id"`
	UserBID  string `json:"user_b_id" binding:"required" validate:"required,object_id"`
}

// IssueCode issues a fresh referral code for a user being created
func (h *ReferralHandler) IssueCode(c *gin.Context) {
	var request IssueCodeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	code := h.referralService.IssueCode(c.Request.Context(), request.UserID)

	utils.SuccessResponse(c, "Referral code issued", gin.H{"referral_code": code})
}

// InitializeReferral records the referral attribution for a signup. The
// account service calls this while assembling the new user document; the
// response payload is merged into that document.
func (h *ReferralHandler) InitializeReferral(c *gin.Context) {
	var request InitializeReferralRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	userID, err := primitive.ObjectIDFromHex(request.UserID)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID")
		return
	}

	result := h.referralService.InitializeReferral(c.Request.Context(), userID, request.ReferredByCode)

	utils.SuccessResponse(c, "Referral initialized", result)
}

// CompleteReferral settles pending referrals after two users pair into a
// shared account
func (h *ReferralHandler) CompleteReferral(c *gin.Context) {
	var request CompleteReferralRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}

	coupleID, err := primitive.ObjectIDFromHex(request.CoupleID)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid couple ID")
		return
	}
	userAID, err := primitive.ObjectIDFromHex(request.UserAID)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID")
		return
	}
	userBID, err := primitive.ObjectIDFromHex(request.UserBID)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID")
		return
	}

	result := h.referralService.CompleteReferral(c.Request.Context(), coupleID, userAID, userBID)
	if !result.Success {
		if result.Reason == "invalid_inputs" {
			utils.BadRequestResponse(c, "Invalid completion inputs")
			return
		}
		utils.ErrorResponse(c, http.StatusInternalServerError, "REFERRAL_COMPLETION_FAILED", result.Error)
		return
	}

	utils.SuccessResponse(c, "Referral completion processed", result)
}

// GetStats returns the authenticated user's referral dashboard payload
func (h *ReferralHandler) GetStats(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.UnauthorizedResponse(c)
		return
	}

	userObjectID, ok := userID.(primitive.ObjectID)
	if !ok {
		utils.BadRequestResponse(c, "Invalid user ID")
		return
	}

	stats, err := h.referralService.GetStats(c.Request.Context(), userObjectID)
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to load referral stats: "+err.Error())
		return
	}
	if stats == nil {
		utils.NotFoundResponse(c, "User not found")
		return
	}

	utils.SuccessResponse(c, "Referral stats retrieved", stats)
}

// ValidateCode checks referral code format for signup forms
func (h *ReferralHandler) ValidateCode(c *gin.Context) {
	code := utils.NormalizeReferralCode(c.Param("code"))

	utils.SuccessResponse(c, "Referral code checked", gin.H{
		"code":  code,
		"valid": utils.IsValidReferralCode(code),
	})
}

// ExpireStale flips pending referrals past their window to expired; wired
// for an external scheduler
func (h *ReferralHandler) ExpireStale(c *gin.Context) {
	expired, err := h.referralService.ExpireStaleReferrals(c.Request.Context())
	if err != nil {
		utils.InternalErrorResponse(c, "Expiry sweep failed: "+err.Error())
		return
	}

	utils.SuccessResponse(c, "Expiry sweep completed", gin.H{"expired": expired})
}
