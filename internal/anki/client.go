// Package anki is a client for the AnkiConnect JSON-over-HTTP protocol.
package anki

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/conorfennell/immerse/internal/domain"
)

const (
	DefaultEndpoint = "http://localhost:8765"
	DefaultVersion  = 6
)

// Client talks to an AnkiConnect endpoint.
type Client struct {
	endpoint string
	version  int
	http     *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient creates a Client for endpoint speaking the given protocol version.
func NewClient(endpoint string, version int, opts ...Option) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if version <= 0 {
		version = DefaultVersion
	}
	c := &Client{
		endpoint: endpoint,
		version:  version,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type request struct {
	Action  string `json:"action"`
	Version int    `json:"version"`
	Params  any    `json:"params,omitempty"`
}

type response[T any] struct {
	Result T       `json:"result"`
	Error  *string `json:"error"`
}

// call posts one action and decodes its result. A populated error field
// is returned as a *domain.RemoteError.
func call[T any](ctx context.Context, c *Client, action string, params any) (T, error) {
	var zero T

	body, err := json.Marshal(request{Action: action, Version: c.version, Params: params})
	if err != nil {
		return zero, &domain.RemoteError{Action: action, Err: fmt.Errorf("encode request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return zero, &domain.RemoteError{Action: action, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return zero, &domain.RemoteError{Action: action, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return zero, &domain.RemoteError{Action: action, Message: fmt.Sprintf("unexpected HTTP status %s", resp.Status)}
	}

	var out response[T]
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return zero, &domain.RemoteError{Action: action, Err: fmt.Errorf("decode response: %w", err)}
	}
	if out.Error != nil && *out.Error != "" {
		return zero, &domain.RemoteError{Action: action, Message: *out.Error}
	}
	return out.Result, nil
}

// Version returns the protocol version reported by the endpoint.
func (c *Client) Version(ctx context.Context) (int, error) {
	return call[int](ctx, c, "version", nil)
}

// DeckNames lists the names of all decks.
func (c *Client) DeckNames(ctx context.Context) ([]string, error) {
	return call[[]string](ctx, c, "deckNames", nil)
}

// FindCards returns the ids of the cards matching a search query.
func (c *Client) FindCards(ctx context.Context, query string) ([]int64, error) {
	return call[[]int64](ctx, c, "findCards", map[string]any{"query": query})
}

// CardsInfo returns the content of the given cards.
func (c *Client) CardsInfo(ctx context.Context, ids []int64) ([]CardInfo, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return call[[]CardInfo](ctx, c, "cardsInfo", map[string]any{"cards": ids})
}

// Field is one named field of a card.
type Field struct {
	Value string `json:"value"`
	Order int    `json:"order"`
}

// CardInfo is the content of a card as returned by cardsInfo.
type CardInfo struct {
	CardID    int64            `json:"cardId"`
	Note      int64            `json:"note"`
	DeckName  string           `json:"deckName"`
	ModelName string           `json:"modelName"`
	Interval  int              `json:"interval"`
	Fields    map[string]Field `json:"fields"`
}

// Field returns the raw value of a named field.
func (c CardInfo) Field(name string) (string, bool) {
	f, ok := c.Fields[name]
	return f.Value, ok
}

// FieldNames returns the field names in display order.
func (c CardInfo) FieldNames() []string {
	names := make([]string, 0, len(c.Fields))
	for name := range c.Fields {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		oi, oj := c.Fields[names[i]].Order, c.Fields[names[j]].Order
		if oi != oj {
			return oi < oj
		}
		return names[i] < names[j]
	})
	return names
}

// DeckQuery matches every card of a deck. Cards of its subdecks are
// excluded.
func DeckQuery(deck string) string {
	d := escape(deck)
	return `"deck:` + d + `" -"deck:` + d + `::*"`
}

// ContainsQuery matches the cards of a deck whose field contains text.
func ContainsQuery(deck, field, text string) string {
	return DeckQuery(deck) + ` "` + escape(field) + `:*` + escape(text) + `*"`
}

var escaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func escape(s string) string {
	return escaper.Replace(s)
}
