// Package memory provides an in-memory shift.Repository for tests and
// dev mode.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/trackdog111/timetrack-nz-sub001/shift"
)

// Store holds shifts in a map guarded by a RWMutex. All reads and
// writes are whole-document clones, matching the last-write-wins
// contract of shift.Repository.
type Store struct {
	mu     sync.RWMutex
	shifts map[string]*shift.Shift
}

func New() *Store {
	return &Store{shifts: make(map[string]*shift.Shift)}
}

func (m *Store) CreateShift(_ context.Context, s *shift.Shift) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shifts[s.ID] = s.Clone()
	return nil
}

func (m *Store) UpdateShift(_ context.Context, s *shift.Shift) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.shifts[s.ID]; !ok {
		return shift.ErrShiftNotFound
	}
	m.shifts[s.ID] = s.Clone()
	return nil
}

func (m *Store) GetShift(_ context.Context, id string) (*shift.Shift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.shifts[id]
	if !ok {
		return nil, shift.ErrShiftNotFound
	}
	return s.Clone(), nil
}

func (m *Store) ActiveShift(_ context.Context, userID string) (*shift.Shift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.shifts {
		if s.UserID == userID && s.Status == shift.StatusActive {
			return s.Clone(), nil
		}
	}
	return nil, nil
}

// ListShiftsInRange returns a user's shifts whose clock-in falls
// within [from, to), oldest first.
func (m *Store) ListShiftsInRange(_ context.Context, userID string, from, to time.Time) ([]*shift.Shift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*shift.Shift
	for _, s := range m.shifts {
		if s.UserID == userID && !s.ClockIn.Before(from) && s.ClockIn.Before(to) {
			out = append(out, s.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClockIn.Before(out[j].ClockIn) })
	return out, nil
}

func (m *Store) DeleteShift(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.shifts[id]; !ok {
		return shift.ErrShiftNotFound
	}
	delete(m.shifts, id)
	return nil
}
