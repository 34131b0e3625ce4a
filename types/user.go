package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is one of the fixed role names recognized by the system.
// Roles are stored and compared in their normalized (uppercase) form;
// use NormalizeRole before comparing free-form input against the set.
type Role string

// The closed role set. Every role a user can hold must be one of these.
const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
	RoleOwner Role = "OWNER"
)

// AllRoles lists every role the system recognizes, in seeding order.
var AllRoles = []Role{RoleUser, RoleAdmin, RoleOwner}

// NormalizeRole maps free-form input onto the closed role set. The second
// return value reports whether the input named a known role.
func NormalizeRole(raw string) (Role, bool) {
	role := Role(strings.ToUpper(strings.TrimSpace(raw)))
	return role, role.Valid()
}

// Valid reports whether the role belongs to the closed set.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleOwner:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// User represents an account in the system.
// It contains identity, profile, and role membership data.
type User struct {
	// ID is the unique identifier of the user.
	ID uuid.UUID `json:"id" db:"id"`

	// Username is the unique login name chosen by the user.
	Username string `json:"username" db:"username"`

	// Email is the user's email address.
	Email string `json:"email" db:"email"`

	// FirstName and LastName are profile fields carried into token claims.
	FirstName string `json:"first_name" db:"first_name"`
	LastName  string `json:"last_name" db:"last_name"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// SecurityStamp is an opaque per-user token rotated whenever the
	// account's credentials change.
	SecurityStamp string `json:"-" db:"security_stamp"`

	// Roles is the set of role names assigned to the user.
	Roles []Role `json:"roles,omitempty" db:"-"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// HasRole reports whether the user holds the given role.
func (u User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
