package store

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Memory keeps members and reports in process. It backs the stub server when
// no database is configured.
type Memory struct {
	mu      sync.RWMutex
	members []Member
	reports []Report
}

func NewMemory(members ...Member) *Memory {
	return &Memory{members: slices.Clone(members)}
}

func (m *Memory) Ping(context.Context) error {
	return nil
}

func (m *Memory) ListMembers(_ context.Context, skip, limit int) ([]Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if skip >= len(m.members) {
		return []Member{}, nil
	}
	end := min(skip+limit, len(m.members))
	return slices.Clone(m.members[skip:end]), nil
}

func (m *Memory) InsertReport(_ context.Context, r Report) (Report, error) {
	r.ID = uuid.NewString()
	r.UploadedAt = NowISO()
	r.Participants = slices.Clone(r.Participants)
	if r.Participants == nil {
		r.Participants = []string{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, r)
	return r, nil
}

func (m *Memory) ListReports(context.Context) ([]Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Report, len(m.reports))
	copy(out, m.reports)
	return out, nil
}

func (m *Memory) ReportsFor(_ context.Context, participant string) ([]Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Report{}
	for _, r := range m.reports {
		if slices.Contains(r.Participants, participant) {
			out = append(out, r)
		}
	}
	return out, nil
}
