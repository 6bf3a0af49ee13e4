package session

import (
	"github.com/hpungsan/dexteam/internal/errors"
	"github.com/hpungsan/dexteam/internal/pokemon"
)

// AddToTeam adds the last fetched or picked Pokémon to the team.
// No-op if nothing has been fetched yet.
//
// A roster-full or duplicate failure is written to the error slot and
// returned; success clears the slot. Fetch errors and team errors share the
// slot, so the most recent write wins.
func (c *Controller) AddToTeam() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return nil
	}

	if err := c.roster.Add(*c.current); err != nil {
		c.errMsg = reason(err)
		return err
	}
	c.errMsg = ""
	return nil
}

// RemoveFromTeam removes the member with id; the selection is cleared if it
// pointed at that member. Removing a non-member is not an error.
func (c *Controller) RemoveFromTeam(id int) {
	c.roster.Remove(id)
}

// SelectFromTeam shows p in the detail view and makes it the Pokémon
// AddToTeam would add.
func (c *Controller) SelectFromTeam(p pokemon.Pokemon) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = &p
	c.roster.Select(p)
}

// SelectMember looks up the team member with id and selects it.
// Returns NOT_FOUND if id is not on the team.
func (c *Controller) SelectMember(id int) (pokemon.Pokemon, error) {
	p, ok := c.roster.Member(id)
	if !ok {
		return pokemon.Pokemon{}, errors.NewNotMember(id)
	}
	c.SelectFromTeam(p)
	return p, nil
}
