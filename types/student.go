package types

import (
	"time"

	"github.com/google/uuid"
)

// Student represents a student record managed through the admin portal.
type Student struct {
	// ID is the unique identifier of the student.
	ID uuid.UUID `json:"id" db:"id"`

	// Name is the student's full name.
	Name string `json:"name" db:"name"`

	// School is the school the student is enrolled in.
	School string `json:"school" db:"school"`

	// Grade is the student's current grade. Optional.
	Grade string `json:"grade,omitempty" db:"grade"`

	// CreatedAt is the timestamp when the record was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the record.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
