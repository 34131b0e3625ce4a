package types

import (
	"time"

	"github.com/google/uuid"
)

// Employee represents a staff record managed through the admin portal.
type Employee struct {
	// ID is the unique identifier of the employee.
	ID uuid.UUID `json:"id" db:"id"`

	// Name is the employee's full name.
	Name string `json:"name" db:"name"`

	// Email is the employee's contact address.
	Email string `json:"email" db:"email"`

	// Phone is the employee's contact phone number.
	Phone string `json:"phone" db:"phone"`

	// Salary is the employee's salary, in minor currency units.
	Salary int64 `json:"salary" db:"salary"`

	// CreatedAt is the timestamp when the record was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the record.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
