package repository

import (
	"context"

	"github.com/aradsms/alert_call_gateway/internal/call_dispatch_service/domain"
)

// DirectorySource loads the raw contact and contact-group maps from persistent storage.
// Semantic validation is left to domain.BuildDirectory.
type DirectorySource interface {
	LoadContacts(ctx context.Context) (map[string]domain.RawContact, error)
	LoadContactGroups(ctx context.Context) (map[string][]string, error)
}
