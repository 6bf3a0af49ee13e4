// Package roster owns the team and the currently selected Pokémon.
//
// The team is an ordered, id-unique list of at most Capacity members. Every
// successful mutation replaces the whole list and writes it through the
// Store once. Store failures are logged and never undo the in-memory change:
// memory is authoritative, the persisted record is best effort.
package roster

import (
	stderrors "errors"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/hpungsan/dexteam/internal/errors"
	"github.com/hpungsan/dexteam/internal/pokemon"
	"github.com/hpungsan/dexteam/internal/storage"
)

// Capacity is the maximum team size.
const Capacity = 6

// Store persists the team record.
type Store interface {
	Load() ([]pokemon.Pokemon, error)
	Save(team []pokemon.Pokemon) error
}

// Manager holds the team and the selection. Safe for concurrent use.
type Manager struct {
	mu       sync.RWMutex
	team     []pokemon.Pokemon
	selected *pokemon.Pokemon

	store  Store
	logger *zap.Logger
}

// New creates a Manager with an empty team. Call Restore to load the
// persisted record.
func New(store Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		team:   []pokemon.Pokemon{},
		store:  store,
		logger: logger,
	}
}

// Add appends p to the team.
// Errors (checked in this order):
//   - ROSTER_FULL if the team already has Capacity members
//   - DUPLICATE_MEMBER if a member with the same id exists
func (m *Manager) Add(p pokemon.Pokemon) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.team) >= Capacity {
		return errors.NewRosterFull(Capacity)
	}
	if indexOf(m.team, p.ID) >= 0 {
		return errors.NewDuplicateMember(p.ID)
	}

	next := make([]pokemon.Pokemon, 0, len(m.team)+1)
	next = append(next, m.team...)
	next = append(next, p)
	m.team = next

	m.persist("add", zap.Int("id", p.ID))
	return nil
}

// Remove drops the member with the given id. Removing a non-member is a
// no-op for the team but the record is still written. If the selection
// refers to id it is cleared.
func (m *Manager) Remove(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := make([]pokemon.Pokemon, 0, len(m.team))
	for _, p := range m.team {
		if p.ID != id {
			next = append(next, p)
		}
	}
	m.team = next

	m.persist("remove", zap.Int("id", id))

	if m.selected != nil && m.selected.ID == id {
		m.selected = nil
	}
}

// Select sets the selection. p need not be a team member.
func (m *Manager) Select(p pokemon.Pokemon) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selected = &p
}

// Restore loads the persisted team. A missing or malformed record leaves
// the team empty; failures are logged, never returned.
//
// Records written by older versions may violate the team invariants.
// Entries that fail record validation are dropped, duplicate ids are
// dropped (first occurrence wins) and the list is cut to Capacity; a
// repaired record is written back.
func (m *Manager) Restore() {
	loaded, err := m.store.Load()
	if err != nil {
		if stderrors.Is(err, storage.ErrNoRecord) {
			m.logger.Debug("no saved team")
		} else {
			m.logger.Warn("failed to load saved team", zap.Error(err))
		}
		return
	}

	team, repaired := m.repair(loaded)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.team = team

	if repaired {
		m.logger.Warn("saved team violated invariants; repaired",
			zap.Int("loaded", len(loaded)),
			zap.Int("kept", len(team)),
		)
		m.persist("restore")
	}
	m.logger.Debug("restored team", zap.Int("size", len(team)))
}

// Members returns a copy of the team in insertion order.
func (m *Manager) Members() []pokemon.Pokemon {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.team)
}

// Selected returns a copy of the selection, or nil.
func (m *Manager) Selected() *pokemon.Pokemon {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.selected == nil {
		return nil
	}
	p := *m.selected
	return &p
}

// Member returns the team member with id.
func (m *Manager) Member(id int) (pokemon.Pokemon, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i := indexOf(m.team, id); i >= 0 {
		return m.team[i], true
	}
	return pokemon.Pokemon{}, false
}

// Contains reports whether a member with id is on the team.
func (m *Manager) Contains(id int) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return indexOf(m.team, id) >= 0
}

// Len returns the team size.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.team)
}

// Capacity returns the maximum team size.
func (m *Manager) Capacity() int {
	return Capacity
}

// persist writes the current team. Caller holds m.mu.
func (m *Manager) persist(op string, fields ...zap.Field) {
	if err := m.store.Save(m.team); err != nil {
		fields = append(fields, zap.String("op", op), zap.Error(err))
		m.logger.Warn("failed to save team", fields...)
	}
}

func indexOf(team []pokemon.Pokemon, id int) int {
	return slices.IndexFunc(team, func(p pokemon.Pokemon) bool { return p.ID == id })
}

// repair validates each record, drops duplicate ids and truncates to
// Capacity. Invalid entries are logged and dropped.
func (m *Manager) repair(loaded []pokemon.Pokemon) ([]pokemon.Pokemon, bool) {
	seen := make(map[int]bool, len(loaded))
	team := make([]pokemon.Pokemon, 0, min(len(loaded), Capacity))
	for i, p := range loaded {
		if err := pokemon.Normalize(&p); err != nil {
			m.logger.Warn("dropping invalid saved member", zap.Int("index", i), zap.Error(err))
			continue
		}
		if seen[p.ID] || len(team) == Capacity {
			continue
		}
		seen[p.ID] = true
		team = append(team, p)
	}
	return team, len(team) != len(loaded)
}
