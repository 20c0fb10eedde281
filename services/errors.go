package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/cppla/caltrack/models"
)

// ValidationError reports input that breaks a field constraint.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// DuplicateDateError is returned when an entry already exists for the requested date.
type DuplicateDateError struct {
	Date time.Time
}

func (e *DuplicateDateError) Error() string {
	return fmt.Sprintf("daily calorie entry for date %s already exists", models.FormatDate(e.Date))
}

// ParentNotFoundError is returned when a food item points at an entry that does not exist.
type ParentNotFoundError struct {
	EntryID int64
}

func (e *ParentNotFoundError) Error() string {
	return fmt.Sprintf("daily calorie entry with id %d not found", e.EntryID)
}

// IsClientError reports whether err is caused by the caller's input rather than the system.
func IsClientError(err error) bool {
	var v *ValidationError
	var d *DuplicateDateError
	var p *ParentNotFoundError
	return errors.As(err, &v) || errors.As(err, &d) || errors.As(err, &p)
}
