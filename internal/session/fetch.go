package session

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/hpungsan/dexteam/internal/errors"
	"github.com/hpungsan/dexteam/internal/pokemon"
)

// Error slot messages. Any catalog response that is not a record reads as
// the fixed miss message of its fetch kind, whatever the status.
const (
	searchErrorPrefix = "Error: "
	randomErrorPrefix = "Error fetching Pokémon: "

	searchMissReason = "Pokémon not found"
	randomMissReason = "Failed to fetch Pokémon"
)

// searchMessage is the error slot text for a failed by-name fetch.
func searchMessage(err error) string {
	if answered(err) {
		return searchErrorPrefix + searchMissReason
	}
	return searchErrorPrefix + reason(err)
}

// randomMessage is the error slot text for a failed by-id fetch.
func randomMessage(err error) string {
	if answered(err) {
		return randomErrorPrefix + randomMissReason
	}
	return randomErrorPrefix + reason(err)
}

// fetch runs one catalog request with the loading/error/select sequencing
// shared by SubmitSearch and FetchRandom:
//   - before the request: loading on, error slot cleared
//   - on success: current and selection set to the result
//   - on failure: error slot set to message(err), selection untouched
//   - loading off in both outcomes
func (c *Controller) fetch(ctx context.Context, kind, target string, message func(error) string,
	get func(context.Context) (*pokemon.Pokemon, error)) (*pokemon.Pokemon, error) {

	fetchID := ulid.Make().String()
	log := c.logger.With(zap.String("fetch_id", fetchID), zap.String("kind", kind), zap.String("target", target))

	c.mu.Lock()
	c.loading = true
	c.errMsg = ""
	c.mu.Unlock()

	start := time.Now()
	p, err := get(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false

	if err != nil {
		c.errMsg = message(err)
		log.Info("fetch failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return nil, err
	}

	c.current = p
	c.roster.Select(*p)
	log.Debug("fetched", zap.Int("id", p.ID), zap.String("name", p.Name), zap.Duration("elapsed", time.Since(start)))

	out := *p
	return &out, nil
}

// answered reports whether the catalog responded with a non-2xx status, as
// opposed to failing in transport or sending an unusable body.
func answered(err error) bool {
	appErr, ok := errors.As(err)
	if !ok {
		return false
	}
	if appErr.Code == errors.ErrNotFound {
		return true
	}
	_, hasStatus := appErr.Details["upstream_status"]
	return appErr.Code == errors.ErrCatalogUnavailable && hasStatus
}

// reason is the user-facing part of a fetch failure.
func reason(err error) string {
	if appErr, ok := errors.As(err); ok {
		return appErr.Message
	}
	return err.Error()
}
