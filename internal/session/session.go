// Package session implements the search/selection controller driven by the
// CLI, web and MCP surfaces. It owns the transient input state and sequences
// "fetch, then select" against the catalog and the roster.
package session

import (
	"context"
	"math/rand/v2"
	"sync"

	"go.uber.org/zap"

	"github.com/hpungsan/dexteam/internal/pokemon"
	"github.com/hpungsan/dexteam/internal/roster"
)

// Catalog fetches Pokémon records.
type Catalog interface {
	GetByID(ctx context.Context, id int) (*pokemon.Pokemon, error)
	GetByName(ctx context.Context, name string) (*pokemon.Pokemon, error)
}

// Controller is safe for concurrent use. Its lock is never held across a
// catalog request, so overlapping fetches race and the last one to finish
// sets the selection.
type Controller struct {
	mu         sync.Mutex
	searchText string
	current    *pokemon.Pokemon // last fetched or picked; what AddToTeam adds
	loading    bool
	errMsg     string

	roster      *roster.Manager
	catalog     Catalog
	catalogSize int
	intN        func(n int) int
	logger      *zap.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithRandom replaces the random source used by FetchRandom.
// intN must return a value in [0, n).
func WithRandom(intN func(n int) int) Option {
	return func(c *Controller) {
		c.intN = intN
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// New creates a Controller. catalogSize is the highest id FetchRandom may pick.
func New(r *roster.Manager, catalog Catalog, catalogSize int, opts ...Option) *Controller {
	c := &Controller{
		roster:      r,
		catalog:     catalog,
		catalogSize: max(1, catalogSize),
		intN:        rand.IntN,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Roster returns the roster manager the controller drives.
func (c *Controller) Roster() *roster.Manager {
	return c.roster
}

// State is a read-only snapshot for rendering.
type State struct {
	SearchInput    string            `json:"search_input"`
	Loading        bool              `json:"loading"`
	Error          *string           `json:"error"`
	Selected       *pokemon.Pokemon  `json:"selected_pokemon"`
	SelectedInTeam bool              `json:"selected_in_team"`
	Team           []pokemon.Pokemon `json:"team"`
	TeamSize       int               `json:"team_size"`
	Capacity       int               `json:"capacity"`
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	s := State{
		SearchInput: c.searchText,
		Loading:     c.loading,
		Capacity:    c.roster.Capacity(),
	}
	if c.errMsg != "" {
		msg := c.errMsg
		s.Error = &msg
	}
	c.mu.Unlock()

	s.Team = c.roster.Members()
	s.TeamSize = len(s.Team)
	s.Selected = c.roster.Selected()
	if s.Selected != nil {
		s.SelectedInTeam = c.roster.Contains(s.Selected.ID)
	}
	return s
}

// Current returns the last fetched or picked Pokémon, or nil.
// Removing it from the team does not clear it.
func (c *Controller) Current() *pokemon.Pokemon {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	p := *c.current
	return &p
}
