package entity

import (
	"net/http"
	"time"
	"vetgate/lib/validate"

	"github.com/biter777/countries"
)

// Clinic is a registered veterinary clinic account. Passwords are stored as
// given; hashing is out of scope for this deployment.
type Clinic struct {
	Id        int64     `json:"id" bson:"id"`
	Name      string    `json:"name" bson:"name" validate:"required"`
	Email     string    `json:"email" bson:"email" validate:"required,email"`
	Phone     string    `json:"phone" bson:"phone"`
	Address   string    `json:"address" bson:"address"`
	Country   string    `json:"country" bson:"country"`
	Password  string    `json:"-" bson:"password"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

func (c *Clinic) Bind(_ *http.Request) error {
	return validate.Struct(c)
}

// CountryCode normalizes the stored country to an ISO alpha-2 code.
// Returns empty string when the value cannot be resolved.
func (c *Clinic) CountryCode() string {
	if c.Country == "" {
		return ""
	}
	if len(c.Country) == 2 {
		return c.Country
	}
	country := countries.ByName(c.Country)
	code := country.Alpha2()
	if len(code) == 2 {
		return code
	}
	return ""
}

// ClinicRegistration is the payload consuming a signup code. Name and email
// must match the issued code; the rest seeds the clinic profile.
type ClinicRegistration struct {
	Code       string `json:"code" validate:"required"`
	ClinicName string `json:"clinic_name" validate:"required,min=2,max=128"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	Country    string `json:"country"`
	Password   string `json:"password" validate:"required,min=6"`
}

func (c *ClinicRegistration) Bind(_ *http.Request) error {
	return validate.Struct(c)
}
