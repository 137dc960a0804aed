// Package candidate picks an example source card for a kanji across every
// configured deck.
package candidate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"golang.org/x/sync/errgroup"

	"github.com/conorfennell/immerse/internal/anki"
	"github.com/conorfennell/immerse/internal/domain"
	"github.com/conorfennell/immerse/internal/parser"
)

// DefaultFanout caps the number of in-flight deck queries.
const DefaultFanout = 4

// CardService is the part of the remote card service the selector needs.
type CardService interface {
	FindCards(ctx context.Context, query string) ([]int64, error)
	CardsInfo(ctx context.Context, ids []int64) ([]anki.CardInfo, error)
}

// Rand is a source of uniform random indexes.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Example is one source card containing a kanji, with the deck mapping
// needed to read its fields.
type Example struct {
	Kanji      rune
	CardID     int64
	Deck       domain.DeckMapping
	Card       anki.CardInfo
	Word       string
	Definition string
	Reading    string
}

// Selector finds example cards.
type Selector struct {
	service CardService
	decks   []domain.DeckMapping
	fanout  int
	rand    Rand
}

// Option configures a Selector.
type Option func(*Selector)

// WithRand replaces the randomness source.
func WithRand(r Rand) Option {
	return func(s *Selector) { s.rand = r }
}

// WithFanout sets the maximum number of concurrent deck queries.
func WithFanout(n int) Option {
	return func(s *Selector) {
		if n > 0 {
			s.fanout = n
		}
	}
}

// NewSelector creates a Selector over the given deck mappings.
func NewSelector(service CardService, decks []domain.DeckMapping, opts ...Option) *Selector {
	s := &Selector{
		service: service,
		decks:   decks,
		fanout:  DefaultFanout,
		rand:    globalRand{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type hit struct {
	cardID int64
	deck   domain.DeckMapping
}

// Select queries every deck for cards whose word field contains k, picks
// one of them uniformly at random and fetches its content. A failing deck
// only fails the lookup when no deck answered.
func (s *Selector) Select(ctx context.Context, k rune) (Example, error) {
	if len(s.decks) == 0 {
		return Example{}, fmt.Errorf("example for %q: no decks configured: %w", string(k), domain.ErrNotFound)
	}

	hits, err := s.collect(ctx, k)
	if err != nil {
		return Example{}, err
	}
	if len(hits) == 0 {
		return Example{}, fmt.Errorf("no example card contains %q: %w", string(k), domain.ErrNotFound)
	}

	pick := hits[s.rand.IntN(len(hits))]
	cards, err := s.service.CardsInfo(ctx, []int64{pick.cardID})
	if err != nil {
		return Example{}, err
	}
	if len(cards) == 0 {
		return Example{}, fmt.Errorf("card %d: %w", pick.cardID, domain.ErrNotFound)
	}
	card := cards[0]

	var values [3]string
	for i, name := range []string{pick.deck.Word, pick.deck.Definition, pick.deck.Reading} {
		v, ok := card.Field(name)
		if !ok {
			return Example{}, fmt.Errorf("card %d: field %q: %w", pick.cardID, name, domain.ErrNotFound)
		}
		values[i] = v
	}
	return Example{
		Kanji:      k,
		CardID:     pick.cardID,
		Deck:       pick.deck,
		Card:       card,
		Word:       parser.Clean(values[0]),
		Definition: parser.Clean(values[1]),
		Reading:    parser.Reading(values[2]),
	}, nil
}

// collect runs one query per deck, at most fanout at a time, and merges the
// results in deck order.
func (s *Selector) collect(ctx context.Context, k rune) ([]hit, error) {
	ids := make([][]int64, len(s.decks))
	errs := make([]error, len(s.decks))

	var g errgroup.Group
	g.SetLimit(s.fanout)
	for i, deck := range s.decks {
		g.Go(func() error {
			found, err := s.service.FindCards(ctx, anki.ContainsQuery(deck.Name, deck.Word, string(k)))
			if err != nil {
				errs[i] = fmt.Errorf("deck %q: %w", deck.Name, err)
				return nil
			}
			ids[i] = found
			return nil
		})
	}
	g.Wait()

	var (
		hits   []hit
		failed int
	)
	for i, deck := range s.decks {
		if errs[i] != nil {
			failed++
			slog.Warn("deck query failed", "deck", deck.Name, "kanji", string(k), "error", errs[i])
			continue
		}
		for _, id := range ids[i] {
			hits = append(hits, hit{cardID: id, deck: deck})
		}
	}
	if failed == len(s.decks) {
		return nil, errors.Join(errs...)
	}
	return hits, nil
}
