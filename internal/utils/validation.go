package utils

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Register custom validators
	validate.RegisterValidation("referral_code", validateReferralCode)
	validate.RegisterValidation("object_id", validateObjectID)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validateReferralCode(fl validator.FieldLevel) bool {
	return IsValidReferralCode(NormalizeReferralCode(fl.Field().String()))
}

func validateObjectID(fl validator.FieldLevel) bool {
	return IsValidObjectIDHex(fl.Field().String())
}

var objectIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

func IsValidObjectIDHex(id string) bool {
	return objectIDPattern.MatchString(id)
}

func IsValidEmail(email string) bool {
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	return emailRegex.MatchString(email)
}
