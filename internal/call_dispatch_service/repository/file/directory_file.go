// Package file reads the contact directory and the call script template from local files.
// Directory files may be JSON or YAML; keys keep their case.
package file

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ghodss/yaml"

	"github.com/aradsms/alert_call_gateway/internal/call_dispatch_service/domain"
)

// DirectorySource reads contacts and contact groups from two files.
type DirectorySource struct {
	contactsPath      string
	contactGroupsPath string
	logger            *slog.Logger
}

// NewDirectorySource creates a file-backed directory source.
func NewDirectorySource(contactsPath, contactGroupsPath string, logger *slog.Logger) *DirectorySource {
	return &DirectorySource{
		contactsPath:      contactsPath,
		contactGroupsPath: contactGroupsPath,
		logger:            logger.With("component", "directory_file"),
	}
}

// LoadContacts reads a map of contact id -> {phone_number, timeout}.
func (s *DirectorySource) LoadContacts(ctx context.Context) (map[string]domain.RawContact, error) {
	contacts := map[string]domain.RawContact{}
	if err := readInto(s.contactsPath, &contacts); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "Contacts loaded", "path", s.contactsPath, "count", len(contacts))
	return contacts, nil
}

// LoadContactGroups reads a map of group id -> ordered list of contact ids.
func (s *DirectorySource) LoadContactGroups(ctx context.Context) (map[string][]string, error) {
	groups := map[string][]string{}
	if err := readInto(s.contactGroupsPath, &groups); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "Contact groups loaded", "path", s.contactGroupsPath, "count", len(groups))
	return groups, nil
}

// LoadTemplate reads the call script template source.
func LoadTemplate(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading template %s: %w", path, err)
	}
	return string(b), nil
}

func readInto(path string, out interface{}) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}
