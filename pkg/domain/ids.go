package domain

import (
	"database/sql/driver"

	"github.com/google/uuid"
)

// SubmissionID identifies a submission across staging, errors, and progress.
type SubmissionID uuid.UUID

// NewSubmissionID returns a fresh random submission identifier.
func NewSubmissionID() SubmissionID {
	return SubmissionID(uuid.New())
}

// ParseSubmissionID constructs a SubmissionID from external input.
func ParseSubmissionID(s string) (SubmissionID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return SubmissionID{}, err
	}
	return SubmissionID(id), nil
}

// IsNil reports whether the identifier is the zero value.
func (id SubmissionID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}

// String returns the canonical UUID text form.
func (id SubmissionID) String() string {
	return uuid.UUID(id).String()
}

// Value implements driver.Valuer, storing the canonical text form.
func (id SubmissionID) Value() (driver.Value, error) {
	return id.String(), nil
}

// Scan implements sql.Scanner.
func (id *SubmissionID) Scan(src any) error {
	var u uuid.UUID
	if err := u.Scan(src); err != nil {
		return err
	}
	*id = SubmissionID(u)
	return nil
}

// LockKey derives a stable 64-bit advisory-lock key from the identifier.
// Concurrent validations of the same submission contend on this key.
func (id SubmissionID) LockKey() int64 {
	b := uuid.UUID(id)
	var key uint64
	for i := 0; i < 8; i++ {
		key = key<<8 | uint64(b[i]^b[i+8])
	}
	return int64(key)
}
