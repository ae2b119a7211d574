package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// LoadMembers reads a JSON array of {"id","name"} objects. Entries must carry
// both fields and IDs must be unique.
func LoadMembers(path string) ([]Member, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read members seed: %w", err)
	}
	var members []Member
	if err := json.Unmarshal(b, &members); err != nil {
		return nil, fmt.Errorf("decode members seed %s: %w", path, err)
	}
	seen := make(map[string]bool, len(members))
	for i, m := range members {
		if m.ID == "" || m.Name == "" {
			return nil, fmt.Errorf("members seed %s: entry %d needs id and name", path, i)
		}
		if seen[m.ID] {
			return nil, fmt.Errorf("members seed %s: duplicate id %q", path, m.ID)
		}
		seen[m.ID] = true
	}
	return members, nil
}

// SeedMembers upserts members, keeping the original created_at of rows that
// already exist so listing order is stable across restarts.
func (s *SQL) SeedMembers(ctx context.Context, members []Member) error {
	for _, m := range members {
		_, err := s.DB.ExecContext(ctx,
			`INSERT INTO members (id, name, created_at) VALUES (?, ?, ?)
			 ON DUPLICATE KEY UPDATE name = VALUES(name)`,
			m.ID, m.Name, NowISO(),
		)
		if err != nil {
			return fmt.Errorf("seed member %s: %w", m.ID, err)
		}
	}
	return nil
}
