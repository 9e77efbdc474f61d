package repository

import (
	"context"
	"fmt"

	"github.com/aradsms/alert_call_gateway/internal/call_dispatch_service/domain"
)

// LoadDirectory reads both maps from src and builds the validated Directory.
func LoadDirectory(ctx context.Context, src DirectorySource) (*domain.Directory, error) {
	contacts, err := src.LoadContacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading contacts: %w", err)
	}
	groups, err := src.LoadContactGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading contact groups: %w", err)
	}
	return domain.BuildDirectory(contacts, groups)
}
