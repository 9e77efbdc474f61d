package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/aradsms/alert_call_gateway/internal/call_dispatch_service/domain"
)

// Querier is the subset of *pgxpool.Pool used here; pgxmock pools satisfy it too.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PgxDirectoryRepository reads the directory from the contacts, contact_groups
// and contact_group_members tables.
type PgxDirectoryRepository struct {
	db     Querier
	logger *slog.Logger
}

// NewPgxDirectoryRepository creates a new PgxDirectoryRepository.
func NewPgxDirectoryRepository(db Querier, logger *slog.Logger) *PgxDirectoryRepository {
	return &PgxDirectoryRepository{
		db:     db,
		logger: logger.With("component", "directory_repository_pg"),
	}
}

const selectContactsSQL = `SELECT id, phone_number, COALESCE(timeout_seconds, 0) FROM contacts ORDER BY id`

// LoadContacts reads every contact. A NULL or zero timeout_seconds means no override.
func (r *PgxDirectoryRepository) LoadContacts(ctx context.Context) (map[string]domain.RawContact, error) {
	r.logger.DebugContext(ctx, "Loading contacts", "sql", selectContactsSQL)
	rows, err := r.db.Query(ctx, selectContactsSQL)
	if err != nil {
		return nil, fmt.Errorf("querying contacts: %w", err)
	}
	defer rows.Close()

	contacts := make(map[string]domain.RawContact)
	for rows.Next() {
		var (
			id, phone string
			timeout   int32
		)
		if err := rows.Scan(&id, &phone, &timeout); err != nil {
			return nil, fmt.Errorf("scanning contact row: %w", err)
		}
		c := domain.RawContact{PhoneNumber: phone}
		if timeout != 0 {
			t := int(timeout)
			c.Timeout = &t
		}
		contacts[id] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating contact rows: %w", err)
	}
	r.logger.InfoContext(ctx, "Contacts loaded", "count", len(contacts))
	return contacts, nil
}

// Groups without members yield one row with an empty contact id.
const selectContactGroupsSQL = `SELECT g.id, COALESCE(m.contact_id, '')
FROM contact_groups g
LEFT JOIN contact_group_members m ON m.group_id = g.id
ORDER BY g.id, m.position`

// LoadContactGroups reads every group with its members in position order.
func (r *PgxDirectoryRepository) LoadContactGroups(ctx context.Context) (map[string][]string, error) {
	r.logger.DebugContext(ctx, "Loading contact groups", "sql", selectContactGroupsSQL)
	rows, err := r.db.Query(ctx, selectContactGroupsSQL)
	if err != nil {
		return nil, fmt.Errorf("querying contact groups: %w", err)
	}
	defer rows.Close()

	groups := make(map[string][]string)
	for rows.Next() {
		var groupID, contactID string
		if err := rows.Scan(&groupID, &contactID); err != nil {
			return nil, fmt.Errorf("scanning contact group row: %w", err)
		}
		if contactID == "" {
			if _, ok := groups[groupID]; !ok {
				groups[groupID] = []string{}
			}
			continue
		}
		groups[groupID] = append(groups[groupID], contactID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating contact group rows: %w", err)
	}
	r.logger.InfoContext(ctx, "Contact groups loaded", "count", len(groups))
	return groups, nil
}
