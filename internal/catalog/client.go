// Package catalog is a read-only client for the PokeAPI pokemon endpoint.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hpungsan/dexteam/internal/config"
	"github.com/hpungsan/dexteam/internal/errors"
	"github.com/hpungsan/dexteam/internal/pokemon"
)

// maxBodyBytes caps how much of a response body is decoded.
const maxBodyBytes = 4 << 20

// Client fetches Pokémon records by id or by name.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the collection endpoint (useful for testing).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout bounds each request. Zero disables the client-side timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithUserAgent sets the User-Agent header sent with each request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a Client for the public PokeAPI with the given options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    config.DefaultCatalogBaseURL,
		userAgent:  "dexteam",
		httpClient: &http.Client{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// NewFromConfig creates a Client from application configuration.
func NewFromConfig(cfg *config.Config, version string) *Client {
	return NewClient(
		WithBaseURL(cfg.CatalogBaseURL),
		WithTimeout(time.Duration(cfg.HTTPTimeoutSeconds)*time.Second),
		WithUserAgent("dexteam/"+version),
	)
}

// GetByID fetches the record with the given catalog id.
func (c *Client) GetByID(ctx context.Context, id int) (*pokemon.Pokemon, error) {
	if id <= 0 {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("id must be a positive integer, got %d", id))
	}
	return c.get(ctx, strconv.Itoa(id))
}

// GetByName fetches the record with the given name.
// The name is trimmed and lowercased before the request.
func (c *Client) GetByName(ctx context.Context, name string) (*pokemon.Pokemon, error) {
	query := pokemon.NormalizeQuery(name)
	if query == "" {
		return nil, errors.NewInvalidRequest("name must not be empty")
	}
	return c.get(ctx, query)
}

// get requests baseURL/<identifier> and decodes the record.
// Errors:
//   - NOT_FOUND for 404
//   - CATALOG_UNAVAILABLE for transport failures and other non-2xx statuses
//   - INVALID_RECORD for bodies that do not decode into a usable record
func (c *Client) get(ctx context.Context, identifier string) (*pokemon.Pokemon, error) {
	endpoint := c.baseURL + "/" + url.PathEscape(identifier)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewCatalogUnavailable("Failed to fetch Pokémon", 0, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.NewNotFound(identifier)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, errors.NewCatalogUnavailable("Failed to fetch Pokémon", resp.StatusCode,
			fmt.Errorf("catalog returned status %d", resp.StatusCode))
	}

	var p pokemon.Pokemon
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&p); err != nil {
		return nil, errors.NewInvalidRecord("response is not a Pokémon record", err)
	}
	if err := pokemon.Normalize(&p); err != nil {
		return nil, errors.NewInvalidRecord(err.Error(), err)
	}

	return &p, nil
}
