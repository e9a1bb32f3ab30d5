package identity

import (
	"strings"
	"time"

	"github.com/storefront/backend/internal/domain/shared"
)

// Fallback profile values used when the backend has no profile for the shopper
const (
	FallbackEmail         = "demo@example.com"
	FallbackName          = "Demo User"
	FallbackContactNumber = "+94771234567"
	FallbackCountry       = "Sri Lanka"
	DefaultRole           = "USER"
)

// Profile is a shopper's account details
type Profile struct {
	ID            string
	Username      string
	Email         string
	Name          string
	ContactNumber string
	Country       string
	Roles         []string
	Picture       string
	CreatedAt     *time.Time
	UpdatedAt     *time.Time
}

// FallbackProfile returns the demo profile, overlaid with whatever the session knows
func FallbackProfile(s *Session) Profile {
	p := Profile{
		ID:            "demo-1",
		Username:      FallbackEmail,
		Email:         FallbackEmail,
		Name:          FallbackName,
		ContactNumber: FallbackContactNumber,
		Country:       FallbackCountry,
		Roles:         []string{DefaultRole},
	}
	if s == nil {
		return p
	}
	if s.Subject != "" {
		p.ID = s.Subject
	}
	if s.Username != "" {
		p.Username = s.Username
	}
	if s.Email != "" {
		p.Email = s.Email
	}
	if s.DisplayName != "" {
		p.Name = s.DisplayName
	}
	p.Picture = s.Picture
	return p
}

// EnsureRoles defaults an empty role list
func (p *Profile) EnsureRoles() {
	if len(p.Roles) == 0 {
		p.Roles = []string{DefaultRole}
	}
}

// Registration is the input for creating a backend account
type Registration struct {
	Username      string
	Email         string
	Password      string
	Name          string
	ContactNumber string
	Country       string
}

// Validate checks the required registration fields
func (r *Registration) Validate() error {
	var errs shared.ValidationErrors
	r.Username = strings.TrimSpace(r.Username)
	r.Email = NormalizeEmail(r.Email)
	r.Name = strings.TrimSpace(r.Name)
	if r.Username == "" {
		errs.Add("username", "Username is required")
	}
	if err := ValidateEmail(r.Email); err != nil {
		errs.Add("email", err.Error())
	}
	if err := ValidatePassword(r.Password); err != nil {
		errs.Add("password", err.Error())
	}
	if r.Name == "" {
		errs.Add("name", "Name is required")
	}
	return errs.Err()
}

// ProfilePatch is a partial profile update; nil fields are left unchanged
type ProfilePatch struct {
	Email         *string
	Name          *string
	ContactNumber *string
	Country       *string
}

// IsEmpty reports whether the patch changes nothing
func (p ProfilePatch) IsEmpty() bool {
	return p.Email == nil && p.Name == nil && p.ContactNumber == nil && p.Country == nil
}
