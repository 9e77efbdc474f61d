package app

import (
	"errors"
	"fmt"
)

// TargetKind distinguishes single-contact and contact-group dispatches.
type TargetKind string

const (
	TargetContact      TargetKind = "contact"
	TargetContactGroup TargetKind = "contact_group"
)

// ErrTargetNotFound is wrapped by NotFoundError.
var ErrTargetNotFound = errors.New("dispatch target not found")

// NotFoundError reports an unknown contact or contact group ID.
type NotFoundError struct {
	Kind TargetKind
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrTargetNotFound }

// RenderError reports that the payload could not be rendered into a call script.
// No call is attempted when it is returned.
type RenderError struct {
	Kind TargetKind
	ID   string
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Kind, e.ID, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
