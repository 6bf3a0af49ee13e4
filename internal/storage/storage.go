// Package storage persists the team as a single serialized record in a
// string key/value store.
package storage

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/hpungsan/dexteam/internal/errors"
	"github.com/hpungsan/dexteam/internal/pokemon"
)

// ErrNoRecord is returned by Load when nothing has been saved under the key.
var ErrNoRecord = stderrors.New("no team record")

// KV is a synchronous string-keyed, string-valued store.
type KV interface {
	// Get returns the value for key; ok is false if the key is absent.
	Get(key string) (value string, ok bool, err error)
	// Set stores value under key.
	Set(key, value string) error
}

// RosterStore reads and writes the team record under one fixed key.
type RosterStore struct {
	kv  KV
	key string
}

// NewRosterStore creates a RosterStore over kv using key.
func NewRosterStore(kv KV, key string) *RosterStore {
	return &RosterStore{kv: kv, key: key}
}

// Key returns the storage key of the team record.
func (s *RosterStore) Key() string {
	return s.key
}

// Load reads and decodes the team record.
// Returns ErrNoRecord if the key is absent, an INVALID_RECORD error if the
// content cannot be decoded, and a STORAGE error if the store fails.
func (s *RosterStore) Load() ([]pokemon.Pokemon, error) {
	raw, ok, err := s.kv.Get(s.key)
	if err != nil {
		if _, isApp := errors.As(err); isApp {
			return nil, err
		}
		return nil, errors.NewStorage("read "+s.key, err)
	}
	if !ok {
		return nil, ErrNoRecord
	}

	var team []pokemon.Pokemon
	if err := json.Unmarshal([]byte(raw), &team); err != nil {
		return nil, errors.NewInvalidRecord(fmt.Sprintf("stored team under %q is malformed", s.key), err)
	}
	if team == nil {
		team = []pokemon.Pokemon{}
	}
	return team, nil
}

// Save encodes team and writes it under the key.
func (s *RosterStore) Save(team []pokemon.Pokemon) error {
	if team == nil {
		team = []pokemon.Pokemon{}
	}
	data, err := json.Marshal(team)
	if err != nil {
		return errors.NewStorage("encode team", err)
	}
	if err := s.kv.Set(s.key, string(data)); err != nil {
		if _, isApp := errors.As(err); isApp {
			return err
		}
		return errors.NewStorage("write "+s.key, err)
	}
	return nil
}

// MemoryKV is an in-process KV used for tests and ephemeral sessions.
type MemoryKV struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryKV creates an empty MemoryKV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string]string)}
}

// Get implements KV.
func (m *MemoryKV) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

// Set implements KV.
func (m *MemoryKV) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}
