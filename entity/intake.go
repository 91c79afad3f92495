package entity

import (
	"net/http"
	"time"
	"vetgate/lib/validate"
)

// IntakeSubmission is the health form a pet owner fills after a successful
// check-in. Forms vary per clinic, so answers stay a free-form document.
type IntakeSubmission struct {
	Id         string                 `json:"id" bson:"id"`
	ClinicId   int64                  `json:"clinic_id" bson:"clinic_id"`
	Code       string                 `json:"code" bson:"code" validate:"required"`
	PetName    string                 `json:"pet_name" bson:"pet_name" validate:"required"`
	Species    string                 `json:"species" bson:"species"`
	OwnerName  string                 `json:"owner_name" bson:"owner_name" validate:"required"`
	OwnerEmail string                 `json:"owner_email" bson:"owner_email" validate:"required,email"`
	Reason     string                 `json:"reason" bson:"reason"`
	Answers    map[string]interface{} `json:"answers,omitempty" bson:"answers,omitempty"`
	CreatedAt  time.Time              `json:"created_at" bson:"created_at"`
}

func (i *IntakeSubmission) Bind(_ *http.Request) error {
	return validate.Struct(i)
}

// CleanupReport summarizes an on-demand sweep of stale codes and tokens.
type CleanupReport struct {
	CheckInCodes int64 `json:"checkin_codes"`
	SignupCodes  int64 `json:"signup_codes"`
	ResetTokens  int64 `json:"reset_tokens"`
}
