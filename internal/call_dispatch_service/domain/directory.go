package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
)

// Directory is the validated, read-only set of contacts and contact groups.
// It is built once at startup and shared between requests without locking.
type Directory struct {
	contacts map[string]Contact
	groups   map[string]ContactGroup
}

// BuildDirectory validates the raw maps from the configuration store and returns an
// immutable Directory. Any error is a *ValidationError.
func BuildDirectory(rawContacts map[string]RawContact, rawGroups map[string][]string) (*Directory, error) {
	if len(rawContacts) == 0 {
		return nil, &ValidationError{Err: ErrEmptyDirectory}
	}

	contacts := make(map[string]Contact, len(rawContacts))
	for _, id := range sortedKeys(rawContacts) {
		raw := rawContacts[id]
		if !strings.HasPrefix(raw.PhoneNumber, "+") {
			return nil, &ValidationError{Err: ErrInvalidPhoneNumber, ContactID: id}
		}
		contact := Contact{ID: id, PhoneNumber: raw.PhoneNumber}
		if raw.Timeout != nil {
			if *raw.Timeout < 0 {
				return nil, &ValidationError{Err: ErrInvalidTimeout, ContactID: id}
			}
			contact.Timeout = time.Duration(*raw.Timeout) * time.Second
		}
		contacts[id] = contact
	}

	groups := make(map[string]ContactGroup, len(rawGroups))
	for _, id := range sortedKeys(rawGroups) {
		members := rawGroups[id]
		if len(members) == 0 {
			return nil, &ValidationError{Err: ErrEmptyGroup, GroupID: id}
		}
		for _, memberID := range members {
			if _, ok := contacts[memberID]; !ok {
				return nil, &ValidationError{Err: ErrUnknownMember, GroupID: id, ContactID: memberID}
			}
		}
		groups[id] = ContactGroup{ID: id, Members: append([]string(nil), members...)}
	}

	return &Directory{contacts: contacts, groups: groups}, nil
}

// Contact looks up a contact by ID.
func (d *Directory) Contact(id string) (Contact, bool) {
	c, ok := d.contacts[id]
	return c, ok
}

// Group looks up a contact group by ID. The returned member slice is a copy.
func (d *Directory) Group(id string) (ContactGroup, bool) {
	g, ok := d.groups[id]
	if !ok {
		return ContactGroup{}, false
	}
	return ContactGroup{ID: g.ID, Members: append([]string(nil), g.Members...)}, true
}

func (d *Directory) ContactCount() int { return len(d.contacts) }
func (d *Directory) GroupCount() int   { return len(d.groups) }

func sortedKeys[V any](m map[string]V) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}
