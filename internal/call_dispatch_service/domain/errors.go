package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyDirectory indicates that no contacts were configured.
	ErrEmptyDirectory = errors.New("no contacts defined")
	// ErrInvalidPhoneNumber indicates a phone number not in international (+...) format.
	ErrInvalidPhoneNumber = errors.New("phone number must be in international format")
	// ErrInvalidTimeout indicates a negative per-contact call timeout.
	ErrInvalidTimeout = errors.New("timeout must not be negative")
	// ErrEmptyGroup indicates a contact group without members.
	ErrEmptyGroup = errors.New("contact group has no members")
	// ErrUnknownMember indicates a contact group member that is not in the contact map.
	ErrUnknownMember = errors.New("unknown contact in contact group")
)

// ValidationError describes why a Directory could not be built.
// It unwraps to one of the sentinel errors above.
type ValidationError struct {
	Err       error
	ContactID string
	GroupID   string
}

func (e *ValidationError) Error() string {
	switch {
	case e.GroupID != "" && e.ContactID != "":
		return fmt.Sprintf("directory: contact group %q: contact %q: %v", e.GroupID, e.ContactID, e.Err)
	case e.GroupID != "":
		return fmt.Sprintf("directory: contact group %q: %v", e.GroupID, e.Err)
	case e.ContactID != "":
		return fmt.Sprintf("directory: contact %q: %v", e.ContactID, e.Err)
	default:
		return fmt.Sprintf("directory: %v", e.Err)
	}
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
