package session

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hpungsan/dexteam/internal/errors"
	"github.com/hpungsan/dexteam/internal/pokemon"
	"github.com/hpungsan/dexteam/internal/roster"
	"github.com/hpungsan/dexteam/internal/storage"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeCatalog serves records from a map. gate, when set, blocks each
// request until a value is received from it.
type fakeCatalog struct {
	mu      sync.Mutex
	byID    map[int]pokemon.Pokemon
	err     error
	calls   []string
	gate    chan struct{}
	started chan string
	observe func()
}

func newFakeCatalog(mons ...pokemon.Pokemon) *fakeCatalog {
	f := &fakeCatalog{byID: map[int]pokemon.Pokemon{}}
	for _, p := range mons {
		f.byID[p.ID] = p
	}
	return f
}

func (f *fakeCatalog) GetByID(ctx context.Context, id int) (*pokemon.Pokemon, error) {
	return f.lookup(ctx, fmt.Sprintf("id:%d", id), func(p pokemon.Pokemon) bool { return p.ID == id })
}

func (f *fakeCatalog) GetByName(ctx context.Context, name string) (*pokemon.Pokemon, error) {
	return f.lookup(ctx, "name:"+name, func(p pokemon.Pokemon) bool { return p.Name == name })
}

func (f *fakeCatalog) lookup(ctx context.Context, call string, match func(pokemon.Pokemon) bool) (*pokemon.Pokemon, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	gate, started, observe, failErr := f.gate, f.started, f.observe, f.err
	f.mu.Unlock()

	if observe != nil {
		observe()
	}
	if started != nil {
		started <- call
	}
	if gate != nil {
		<-gate
	}
	if failErr != nil {
		return nil, failErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.byID {
		if match(p) {
			out := p
			return &out, nil
		}
	}
	return nil, errors.NewNotFound(call)
}

func (f *fakeCatalog) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func mon(id int, name string) pokemon.Pokemon {
	return pokemon.Pokemon{
		ID:      id,
		Name:    name,
		Types:   []pokemon.TypeSlot{},
		Stats:   []pokemon.Stat{},
		Sprites: pokemon.Sprites{FrontDefault: fmt.Sprintf("https://img/%d.png", id)},
	}
}

func newController(t *testing.T, cat Catalog, opts ...Option) *Controller {
	t.Helper()
	store := storage.NewRosterStore(storage.NewMemoryKV(), "pokemonTeam")
	return New(roster.New(store, nil), cat, 898, opts...)
}

func fixedRandom(n int) Option {
	return WithRandom(func(int) int { return n - 1 })
}

func TestSetSearchText_Verbatim(t *testing.T) {
	c := newController(t, newFakeCatalog())

	c.SetSearchText("  PikaChu ")
	require.Equal(t, "  PikaChu ", c.State().SearchInput)
}

func TestSubmitSearch_BlankIsNoOp(t *testing.T) {
	for _, text := range []string{"", "   ", "\t\n"} {
		t.Run(fmt.Sprintf("%q", text), func(t *testing.T) {
			cat := newFakeCatalog(mon(25, "pikachu"))
			c := newController(t, cat)
			c.SetSearchText(text)

			before := c.State()
			p, err := c.SubmitSearch(context.Background())
			require.NoError(t, err)
			require.Nil(t, p)
			require.Empty(t, cat.callLog())
			require.Equal(t, before, c.State())
		})
	}
}

func TestSubmitSearch_NormalizesAndSelects(t *testing.T) {
	cat := newFakeCatalog(mon(25, "pikachu"))
	c := newController(t, cat)
	c.SetSearchText("  PIKAchu  ")

	p, err := c.SubmitSearch(context.Background())
	require.NoError(t, err)
	require.Equal(t, 25, p.ID)
	require.Equal(t, []string{"name:pikachu"}, cat.callLog())

	s := c.State()
	require.False(t, s.Loading)
	require.Nil(t, s.Error)
	require.NotNil(t, s.Selected)
	require.Equal(t, 25, s.Selected.ID)
	require.False(t, s.SelectedInTeam)
	// Search text is kept after submit.
	require.Equal(t, "  PIKAchu  ", s.SearchInput)
}

func TestSubmitSearch_NotFoundKeepsSelection(t *testing.T) {
	cat := newFakeCatalog(mon(25, "pikachu"))
	c := newController(t, cat)

	c.SetSearchText("pikachu")
	_, err := c.SubmitSearch(context.Background())
	require.NoError(t, err)

	c.SetSearchText("missingno")
	_, err = c.SubmitSearch(context.Background())
	require.True(t, errors.Is(err, errors.ErrNotFound))

	s := c.State()
	require.False(t, s.Loading)
	require.NotNil(t, s.Error)
	require.Equal(t, "Error: Pokémon not found", *s.Error)
	require.Equal(t, 25, s.Selected.ID)
}

func TestFetchRandom_Success(t *testing.T) {
	cat := newFakeCatalog(mon(150, "mewtwo"))
	c := newController(t, cat, fixedRandom(150))

	var loadingDuring bool
	cat.observe = func() { loadingDuring = c.State().Loading }

	p, err := c.FetchRandom(context.Background())
	require.NoError(t, err)
	require.Equal(t, 150, p.ID)
	require.True(t, loadingDuring, "loading must be set while the request is in flight")

	s := c.State()
	require.False(t, s.Loading)
	require.Nil(t, s.Error)
	require.Equal(t, 150, s.Selected.ID)
	require.Equal(t, []string{"id:150"}, cat.callLog())
}

func TestFetchRandom_Failure(t *testing.T) {
	cat := newFakeCatalog(mon(25, "pikachu"))
	c := newController(t, cat, fixedRandom(25))
	_, err := c.FetchRandom(context.Background())
	require.NoError(t, err)

	cat.err = errors.NewCatalogUnavailable("Failed to fetch Pokémon", 503, nil)
	var loadingDuring bool
	cat.observe = func() { loadingDuring = c.State().Loading }

	_, err = c.FetchRandom(context.Background())
	require.True(t, errors.Is(err, errors.ErrCatalogUnavailable))
	require.True(t, loadingDuring)

	s := c.State()
	require.False(t, s.Loading)
	require.NotNil(t, s.Error)
	require.Equal(t, "Error fetching Pokémon: Failed to fetch Pokémon", *s.Error)
	require.Equal(t, 25, s.Selected.ID, "selection is untouched on failure")
}

func TestFetchRandom_RangeIsOneToCatalogSize(t *testing.T) {
	var bounds []int
	cat := newFakeCatalog()
	c := newController(t, cat, WithRandom(func(n int) int {
		bounds = append(bounds, n)
		return 0
	}))

	_, _ = c.FetchRandom(context.Background())
	require.Equal(t, []int{898}, bounds)
	require.Equal(t, []string{"id:1"}, cat.callLog())
}

func TestFetchByID(t *testing.T) {
	cat := newFakeCatalog(mon(7, "squirtle"))
	c := newController(t, cat)

	p, err := c.FetchByID(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, "squirtle", p.Name)
	require.Equal(t, 7, c.State().Selected.ID)
}

func TestFetch_ClearsErrorWhenStarting(t *testing.T) {
	cat := newFakeCatalog(mon(1, "bulbasaur"))
	c := newController(t, cat, fixedRandom(1))

	c.SetSearchText("nobody")
	_, err := c.SubmitSearch(context.Background())
	require.Error(t, err)
	require.NotNil(t, c.State().Error)

	var errDuring *string
	cat.observe = func() { errDuring = c.State().Error }
	_, err = c.FetchRandom(context.Background())
	require.NoError(t, err)
	require.Nil(t, errDuring, "error slot is cleared when the fetch begins")
}

func TestFetch_PlainErrorUsesErrorText(t *testing.T) {
	cat := newFakeCatalog()
	cat.err = fmt.Errorf("boom")
	c := newController(t, cat)

	_, err := c.FetchRandom(context.Background())
	require.Error(t, err)
	require.Equal(t, "Error fetching Pokémon: boom", *c.State().Error)
}

func TestFetch_NonOKStatusUsesFixedMessage(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		random bool
		want   string
	}{
		{"search 404", errors.NewNotFound("missingno"), false, "Error: Pokémon not found"},
		{"search 500", errors.NewCatalogUnavailable("Failed to fetch Pokémon", 500, nil), false, "Error: Pokémon not found"},
		{"random 404", errors.NewNotFound("9999"), true, "Error fetching Pokémon: Failed to fetch Pokémon"},
		{"random 500", errors.NewCatalogUnavailable("Failed to fetch Pokémon", 500, nil), true, "Error fetching Pokémon: Failed to fetch Pokémon"},
		{"search transport", errors.NewCatalogUnavailable("Failed to fetch Pokémon", 0, fmt.Errorf("dial tcp: refused")), false, "Error: Failed to fetch Pokémon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := newFakeCatalog()
			cat.err = tt.err
			c := newController(t, cat)

			var err error
			if tt.random {
				_, err = c.FetchRandom(context.Background())
			} else {
				c.SetSearchText("missingno")
				_, err = c.SubmitSearch(context.Background())
			}
			require.Error(t, err)
			require.NotNil(t, c.State().Error)
			require.Equal(t, tt.want, *c.State().Error)
		})
	}
}

func TestAddToTeam_NothingSelectedIsNoOp(t *testing.T) {
	c := newController(t, newFakeCatalog())

	require.NoError(t, c.AddToTeam())
	s := c.State()
	require.Empty(t, s.Team)
	require.Nil(t, s.Error)
}

func TestAddToTeam_AddsSelection(t *testing.T) {
	cat := newFakeCatalog(mon(25, "pikachu"))
	c := newController(t, cat)
	c.SetSearchText("pikachu")
	_, err := c.SubmitSearch(context.Background())
	require.NoError(t, err)

	require.NoError(t, c.AddToTeam())
	s := c.State()
	require.Len(t, s.Team, 1)
	require.Equal(t, 1, s.TeamSize)
	require.Equal(t, roster.Capacity, s.Capacity)
	require.True(t, s.SelectedInTeam)
}

func TestAddToTeam_DuplicateSetsError(t *testing.T) {
	cat := newFakeCatalog(mon(25, "pikachu"))
	c := newController(t, cat, fixedRandom(25))
	_, err := c.FetchRandom(context.Background())
	require.NoError(t, err)
	require.NoError(t, c.AddToTeam())

	err = c.AddToTeam()
	require.True(t, errors.Is(err, errors.ErrDuplicateMember))
	s := c.State()
	require.Len(t, s.Team, 1)
	require.Equal(t, "This Pokémon is already in your team!", *s.Error)
}

func TestAddToTeam_FullSetsError(t *testing.T) {
	var mons []pokemon.Pokemon
	for id := 1; id <= 7; id++ {
		mons = append(mons, mon(id, fmt.Sprintf("mon-%d", id)))
	}
	cat := newFakeCatalog(mons...)
	c := newController(t, cat)

	for id := 1; id <= 6; id++ {
		_, err := c.FetchByID(context.Background(), id)
		require.NoError(t, err)
		require.NoError(t, c.AddToTeam())
	}

	_, err := c.FetchByID(context.Background(), 7)
	require.NoError(t, err)
	err = c.AddToTeam()
	require.True(t, errors.Is(err, errors.ErrRosterFull))

	s := c.State()
	require.Len(t, s.Team, 6)
	require.Equal(t, "Your team can only have a maximum of 6 Pokémon!", *s.Error)
}

func TestAddToTeam_SuccessClearsError(t *testing.T) {
	cat := newFakeCatalog(mon(25, "pikachu"), mon(4, "charmander"))
	c := newController(t, cat)

	_, err := c.FetchByID(context.Background(), 25)
	require.NoError(t, err)
	require.NoError(t, c.AddToTeam())
	require.Error(t, c.AddToTeam())
	require.NotNil(t, c.State().Error)

	_, err = c.FetchByID(context.Background(), 4)
	require.NoError(t, err)
	require.NoError(t, c.AddToTeam())
	require.Nil(t, c.State().Error)
}

func TestSharedErrorSlot_MostRecentWriteWins(t *testing.T) {
	cat := newFakeCatalog(mon(25, "pikachu"))
	c := newController(t, cat)

	_, err := c.FetchByID(context.Background(), 25)
	require.NoError(t, err)
	require.NoError(t, c.AddToTeam())
	require.Error(t, c.AddToTeam())
	require.Equal(t, "This Pokémon is already in your team!", *c.State().Error)

	c.SetSearchText("nobody")
	_, err = c.SubmitSearch(context.Background())
	require.Error(t, err)
	require.Equal(t, "Error: Pokémon not found", *c.State().Error)

	require.Error(t, c.AddToTeam())
	require.Equal(t, "This Pokémon is already in your team!", *c.State().Error)
}

func TestRemoveFromTeam_ClearsMatchingSelection(t *testing.T) {
	cat := newFakeCatalog(mon(25, "pikachu"))
	c := newController(t, cat)
	_, err := c.FetchByID(context.Background(), 25)
	require.NoError(t, err)
	require.NoError(t, c.AddToTeam())

	c.RemoveFromTeam(25)
	s := c.State()
	require.Empty(t, s.Team)
	require.Nil(t, s.Selected)

	// Idempotent.
	c.RemoveFromTeam(25)
	require.Empty(t, c.State().Team)

	// The last fetched item survives removal and can be added back.
	require.NotNil(t, c.Current())
	require.NoError(t, c.AddToTeam())
	require.Len(t, c.State().Team, 1)
}

func TestSelectFromTeam(t *testing.T) {
	cat := newFakeCatalog(mon(25, "pikachu"), mon(4, "charmander"))
	c := newController(t, cat)
	_, err := c.FetchByID(context.Background(), 25)
	require.NoError(t, err)
	require.NoError(t, c.AddToTeam())
	_, err = c.FetchByID(context.Background(), 4)
	require.NoError(t, err)

	member := c.State().Team[0]
	c.SelectFromTeam(member)
	s := c.State()
	require.Equal(t, 25, s.Selected.ID)
	require.True(t, s.SelectedInTeam)
	require.Len(t, s.Team, 1, "selecting does not mutate the team")
}

func TestSelectMember(t *testing.T) {
	cat := newFakeCatalog(mon(25, "pikachu"))
	c := newController(t, cat)
	_, err := c.FetchByID(context.Background(), 25)
	require.NoError(t, err)
	require.NoError(t, c.AddToTeam())

	p, err := c.SelectMember(25)
	require.NoError(t, err)
	require.Equal(t, "pikachu", p.Name)

	_, err = c.SelectMember(999)
	require.True(t, errors.Is(err, errors.ErrNotFound))
	require.Equal(t, 25, c.State().Selected.ID)
}

func TestOverlappingFetches_LastToFinishWins(t *testing.T) {
	cat := newFakeCatalog(mon(1, "bulbasaur"), mon(4, "charmander"))
	cat.gate = make(chan struct{})
	cat.started = make(chan string, 2)
	c := newController(t, cat)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = c.FetchByID(context.Background(), 1)
	}()
	<-cat.started
	go func() {
		defer wg.Done()
		_, _ = c.FetchByID(context.Background(), 4)
	}()
	<-cat.started

	require.True(t, c.State().Loading)

	// Release one request at a time; whichever completes last sets the selection.
	cat.gate <- struct{}{}
	cat.gate <- struct{}{}
	wg.Wait()

	s := c.State()
	require.False(t, s.Loading)
	require.NotNil(t, s.Selected)
	require.Contains(t, []int{1, 4}, s.Selected.ID)
}

func TestConcurrentUse_KeepsInvariants(t *testing.T) {
	var mons []pokemon.Pokemon
	for id := 1; id <= 12; id++ {
		mons = append(mons, mon(id, fmt.Sprintf("mon-%d", id)))
	}
	cat := newFakeCatalog(mons...)
	c := newController(t, cat)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				id := (w*7+i)%12 + 1
				_, _ = c.FetchByID(context.Background(), id)
				_ = c.AddToTeam()
				if i%5 == 0 {
					c.RemoveFromTeam(id)
				}
				_ = c.State()
			}
		}(w)
	}
	wg.Wait()

	s := c.State()
	require.LessOrEqual(t, len(s.Team), roster.Capacity)
	seen := map[int]bool{}
	for _, p := range s.Team {
		require.False(t, seen[p.ID], "duplicate id %d", p.ID)
		seen[p.ID] = true
	}
	require.False(t, s.Loading)
}
