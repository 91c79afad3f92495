package entity

import (
	"net/http"
	"time"
	"vetgate/lib/validate"
)

// CheckInCode is a short-lived, clinic-scoped code gating the public pet
// intake form. Rotation marks the previous codes inactive instead of deleting
// them; at most one code per clinic is active by convention, not constraint.
type CheckInCode struct {
	Id        int64     `json:"id" bson:"id"`
	Code      string    `json:"code" bson:"code" validate:"required"`
	ClinicId  int64     `json:"clinic_id" bson:"clinic_id" validate:"required"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	ExpiresAt time.Time `json:"expires_at" bson:"expires_at"`
	Active    bool      `json:"active" bson:"active"`
}

// IsUsable evaluates the shared validity predicate: active and strictly
// before expiry. A code with ExpiresAt equal to now is already expired.
func (c *CheckInCode) IsUsable(now time.Time) bool {
	return c.Active && now.Before(c.ExpiresAt)
}

// CheckInAdmission is what a successful code verification exposes to the
// public intake form: just enough to scope and label the form.
type CheckInAdmission struct {
	ClinicId   int64  `json:"clinic_id"`
	ClinicName string `json:"clinic_name"`
}

// CheckInRequest carries the code entered by a pet owner.
type CheckInRequest struct {
	Code string `json:"code" validate:"required,min=4,max=16"`
}

func (c *CheckInRequest) Bind(_ *http.Request) error {
	return validate.Struct(c)
}
