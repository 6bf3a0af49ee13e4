package session

import (
	"context"

	"github.com/hpungsan/dexteam/internal/pokemon"
)

// SetSearchText replaces the search text verbatim.
func (c *Controller) SetSearchText(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.searchText = text
}

// SearchText returns the current search text.
func (c *Controller) SearchText() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.searchText
}

// SubmitSearch fetches the Pokémon named by the search text and selects it.
// Blank search text is a no-op and returns (nil, nil). The search text is
// kept after submitting.
//
// Failures are recorded in the error slot and also returned.
func (c *Controller) SubmitSearch(ctx context.Context) (*pokemon.Pokemon, error) {
	text := c.SearchText()
	if pokemon.IsBlank(text) {
		return nil, nil
	}

	name := pokemon.NormalizeQuery(text)
	return c.fetch(ctx, "name", name, searchMessage, func(ctx context.Context) (*pokemon.Pokemon, error) {
		return c.catalog.GetByName(ctx, name)
	})
}
