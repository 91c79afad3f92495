package entity

import (
	"net/http"
	"strings"
	"time"
	"vetgate/lib/validate"
)

// SignupCode is an admin-issued, one-time code pre-authorizing the creation of
// exactly one clinic account. The clinic it names does not exist yet; name and
// email are re-checked at registration so the code cannot be repurposed.
type SignupCode struct {
	Code        string    `json:"code" bson:"code" validate:"required"`
	ClinicName  string    `json:"clinic_name" bson:"clinic_name" validate:"required"`
	ClinicEmail string    `json:"clinic_email" bson:"clinic_email" validate:"required,email"`
	CreatedBy   string    `json:"created_by" bson:"created_by"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	ExpiresAt   time.Time `json:"expires_at" bson:"expires_at"`
	Used        bool      `json:"used" bson:"used"`
}

func (s *SignupCode) IsUsable(now time.Time) bool {
	return !s.Used && now.Before(s.ExpiresAt)
}

// Matches compares the registration payload against the issued name and email,
// case-insensitively.
func (s *SignupCode) Matches(clinicName, clinicEmail string) bool {
	return strings.EqualFold(strings.TrimSpace(clinicName), s.ClinicName) &&
		strings.EqualFold(strings.TrimSpace(clinicEmail), s.ClinicEmail)
}

// SignupIssueRequest is the admin form for issuing a new signup code.
type SignupIssueRequest struct {
	ClinicName  string `json:"clinic_name" validate:"required,min=2,max=128"`
	ClinicEmail string `json:"clinic_email" validate:"required,email"`
}

func (s *SignupIssueRequest) Bind(_ *http.Request) error {
	return validate.Struct(s)
}

// SignupVerifyRequest carries a code for the pre-fill step.
type SignupVerifyRequest struct {
	Code string `json:"code" validate:"required"`
}

func (s *SignupVerifyRequest) Bind(_ *http.Request) error {
	return validate.Struct(s)
}
