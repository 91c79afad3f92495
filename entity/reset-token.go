package entity

import (
	"net/http"
	"time"
	"vetgate/lib/validate"
)

// Realm names the account family a password-reset token belongs to.
type Realm string

const (
	RealmAdmin  Realm = "admin"
	RealmClinic Realm = "clinic"
)

// ResetToken authorizes a single password change within a bounded window.
// The admin realm keeps tokens in process memory; the clinic realm persists
// them. Lifecycle is identical either way: issued, then consumed or expired,
// terminal in both cases.
type ResetToken struct {
	Id        int64     `json:"id" bson:"id"`
	Token     string    `json:"token" bson:"token" validate:"required"`
	Email     string    `json:"email" bson:"email" validate:"required,email"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	ExpiresAt time.Time `json:"expires_at" bson:"expires_at"`
	Used      bool      `json:"used" bson:"used"`
}

func (t *ResetToken) IsUsable(now time.Time) bool {
	return !t.Used && now.Before(t.ExpiresAt)
}

// ForgotRequest starts a password reset for the given address.
type ForgotRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (f *ForgotRequest) Bind(_ *http.Request) error {
	return validate.Struct(f)
}

// ResetVerifyRequest gates rendering of the reset form.
type ResetVerifyRequest struct {
	Token string `json:"token" validate:"required"`
}

func (v *ResetVerifyRequest) Bind(_ *http.Request) error {
	return validate.Struct(v)
}

// ResetApplyRequest consumes a token and sets the new password.
type ResetApplyRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

func (a *ResetApplyRequest) Bind(_ *http.Request) error {
	return validate.Struct(a)
}
