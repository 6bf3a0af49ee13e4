package session

import (
	"context"
	"strconv"

	"github.com/hpungsan/dexteam/internal/pokemon"
)

// FetchRandom fetches a Pokémon with an id drawn uniformly from
// [1, catalogSize] and selects it.
// Failures are recorded in the error slot and also returned.
func (c *Controller) FetchRandom(ctx context.Context) (*pokemon.Pokemon, error) {
	id := c.intN(c.catalogSize) + 1
	return c.fetch(ctx, "random", strconv.Itoa(id), randomMessage, func(ctx context.Context) (*pokemon.Pokemon, error) {
		return c.catalog.GetByID(ctx, id)
	})
}

// FetchByID fetches a specific catalog id and selects it, with the same
// sequencing and error messages as FetchRandom.
func (c *Controller) FetchByID(ctx context.Context, id int) (*pokemon.Pokemon, error) {
	return c.fetch(ctx, "id", strconv.Itoa(id), randomMessage, func(ctx context.Context) (*pokemon.Pokemon, error) {
		return c.catalog.GetByID(ctx, id)
	})
}
