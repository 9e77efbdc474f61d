package domain

import (
	"encoding/json"
	"time"
)

// Contact is a single callable recipient.
type Contact struct {
	ID          string
	PhoneNumber string        // E.164, always starts with "+"
	Timeout     time.Duration // Ring timeout override; zero means "use the configured default"
}

// EffectiveTimeout returns the contact's override, or fallback when none is set.
func (c Contact) EffectiveTimeout(fallback time.Duration) time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return fallback
}

type contactJSON struct {
	ID          string `json:"id"`
	PhoneNumber string `json:"phone_number"`
	Timeout     int    `json:"timeout,omitempty"` // seconds
}

// MarshalJSON renders the timeout in whole seconds, as it is configured.
func (c Contact) MarshalJSON() ([]byte, error) {
	return json.Marshal(contactJSON{
		ID:          c.ID,
		PhoneNumber: c.PhoneNumber,
		Timeout:     int(c.Timeout / time.Second),
	})
}

// ContactGroup is an ordered list of contact IDs called together.
type ContactGroup struct {
	ID      string
	Members []string
}

// RawContact is a contact as read from the configuration store, before validation.
// Timeout is in seconds; nil or zero means no override.
type RawContact struct {
	PhoneNumber string `json:"phone_number"`
	Timeout     *int   `json:"timeout,omitempty"`
}
