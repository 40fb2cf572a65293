package sdk

import "strings"

// UserType is the backend's user_type discriminator.
type UserType string

const (
	UserTypeStudent      UserType = "student"
	UserTypeUnitConvenor UserType = "unit_convenor"
	UserTypeStaff        UserType = "staff"
	UserTypeAdmin        UserType = "admin"
	UserTypeAuditor      UserType = "auditor"
	UserTypeParent       UserType = "parent"
)

// Identity is a snapshot of the current user's profile as returned by the
// current-user endpoint. Callers receive copies and must not expect changes to
// propagate back into the session store.
type Identity struct {
	ID              int64    `json:"id"`
	Email           string   `json:"email"`
	Username        string   `json:"username,omitempty"`
	FirstName       string   `json:"first_name"`
	LastName        string   `json:"last_name"`
	UserType        UserType `json:"user_type"`
	IsStaff         bool     `json:"is_staff"`
	ProfileImageURL *string  `json:"profile_image,omitempty"`
	Department      string   `json:"department,omitempty"`
	Position        string   `json:"position,omitempty"`
	Bio             string   `json:"bio,omitempty"`
}

// Clone returns a deep copy of the identity. Clone of nil is nil.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	out := *i
	if i.ProfileImageURL != nil {
		img := *i.ProfileImageURL
		out.ProfileImageURL = &img
	}
	return &out
}

// FullName joins first and last name.
func (i *Identity) FullName() string {
	return strings.TrimSpace(i.FirstName + " " + i.LastName)
}

// DisplayName prefers the full name and falls back to the email address.
func (i *Identity) DisplayName() string {
	if name := i.FullName(); name != "" {
		return name
	}
	return i.Email
}

// ProfileUpdate carries the partial profile fields accepted by the profile
// endpoint. Nil fields are omitted from the request.
type ProfileUpdate struct {
	FirstName   *string `json:"first_name,omitempty" validate:"omitempty,max=150"`
	LastName    *string `json:"last_name,omitempty" validate:"omitempty,max=150"`
	PhoneNumber *string `json:"phone_number,omitempty" validate:"omitempty,portal_phone"`
	Department  *string `json:"department,omitempty" validate:"omitempty,max=100"`
	Position    *string `json:"position,omitempty" validate:"omitempty,max=100"`
	Bio         *string `json:"bio,omitempty"`
	City        *string `json:"city,omitempty" validate:"omitempty,max=100"`
	Country     *string `json:"country,omitempty" validate:"omitempty,max=100"`
}

// Registration is the payload for creating a new portal account.
type Registration struct {
	Email           string `json:"email" validate:"required,email"`
	Username        string `json:"username" validate:"required,max=150"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
	FirstName       string `json:"first_name,omitempty" validate:"omitempty,max=150"`
	LastName        string `json:"last_name,omitempty" validate:"omitempty,max=150"`
}

// loginRequest is the body sent to the login exchange. The compatibility
// endpoint accepts either an email address or a username in the email field.
type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}
