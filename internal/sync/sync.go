// Package sync pulls the cards of one source deck into the local store:
// every kanji of every word becomes a knowledge entry and an SRS record,
// and the word itself is kept for example lookups.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/immerse/internal/anki"
	"github.com/conorfennell/immerse/internal/domain"
	"github.com/conorfennell/immerse/internal/kanji"
	"github.com/conorfennell/immerse/internal/parser"
	"github.com/conorfennell/immerse/internal/srs"
	"github.com/conorfennell/immerse/internal/storage"
	"github.com/conorfennell/immerse/internal/words"
)

// batchSize bounds the number of cards fetched per cardsInfo call.
const batchSize = 500

// CardService is the part of the remote card service a sync needs.
type CardService interface {
	FindCards(ctx context.Context, query string) ([]int64, error)
	CardsInfo(ctx context.Context, ids []int64) ([]anki.CardInfo, error)
}

// DeckStore holds the persisted deck mappings.
type DeckStore interface {
	Deck(name string) (domain.DeckMapping, bool)
	AddDeck(m domain.DeckMapping) (bool, error)
	Save() error
}

// Report summarises one deck sync.
type Report struct {
	Deck      string `json:"deck"`
	Cards     int    `json:"cards"`
	Processed int    `json:"processed"`
	Skipped   int    `json:"skipped"`
	Kanji     int    `json:"kanji"`
	NewKanji  int    `json:"new_kanji"`
}

// Syncer imports source decks.
type Syncer struct {
	service CardService
	decks   DeckStore
	db      *storage.DB
	srs     *srs.Manager
	words   *words.Manager
	now     func() time.Time
}

// NewSyncer creates a Syncer.
func NewSyncer(service CardService, decks DeckStore, db *storage.DB, srsMgr *srs.Manager, wordsMgr *words.Manager) *Syncer {
	return &Syncer{
		service: service,
		decks:   decks,
		db:      db,
		srs:     srsMgr,
		words:   wordsMgr,
		now:     time.Now,
	}
}

// SyncDeck imports every card of deck. The field mapping comes from the
// deck store; if the deck has none, fields (word, definition, reading)
// are checked against the deck's cards and saved as its new mapping.
// Cards lacking a mapped field are skipped and counted. On failure the
// partial report is returned with the error.
func (s *Syncer) SyncDeck(ctx context.Context, deck string, fields []string) (Report, error) {
	runID := uuid.NewString()
	log := slog.With("run_id", runID, "deck", deck)
	log.Info("Starting deck sync...")

	report := Report{Deck: deck}

	cards, err := s.fetch(ctx, deck)
	if err != nil {
		return report, err
	}
	report.Cards = len(cards)

	mapping, err := s.resolve(deck, fields, cards)
	if err != nil {
		return report, err
	}
	log.Debug("resolved field mapping", "word", mapping.Word, "definition", mapping.Definition, "reading", mapping.Reading)

	now := s.now()
	seen := make(map[rune]bool)
	for _, card := range cards {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		word, okWord := card.Field(mapping.Word)
		def, okDef := card.Field(mapping.Definition)
		reading, okReading := card.Field(mapping.Reading)
		if !okWord || !okDef || !okReading {
			log.Debug("card lacks mapped fields, skipping", "card_id", card.CardID)
			report.Skipped++
			continue
		}
		if parser.Clean(word) == "" {
			log.Debug("card has an empty word, skipping", "card_id", card.CardID)
			report.Skipped++
			continue
		}

		level := kanji.RecommendedLevel(card.Interval)
		for _, k := range kanji.Extract(parser.Clean(word)) {
			if err := s.db.UpsertKanji(ctx, k, level); err != nil {
				return report, err
			}
			inserted, err := s.srs.Create(ctx, k, domain.NewCard(now), nil)
			if err != nil {
				return report, err
			}
			if inserted {
				report.NewKanji++
			}
			seen[k] = true
		}

		if err := s.words.Upsert(ctx, card.CardID, word, def, reading); err != nil {
			return report, err
		}
		report.Processed++
	}
	report.Kanji = len(seen)

	log.Info("deck sync complete",
		"cards", report.Cards,
		"processed", report.Processed,
		"skipped", report.Skipped,
		"kanji", report.Kanji,
		"new_kanji", report.NewKanji,
	)
	return report, nil
}

func (s *Syncer) fetch(ctx context.Context, deck string) ([]anki.CardInfo, error) {
	ids, err := s.service.FindCards(ctx, anki.DeckQuery(deck))
	if err != nil {
		return nil, err
	}

	cards := make([]anki.CardInfo, 0, len(ids))
	for start := 0; start < len(ids); start += batchSize {
		end := min(start+batchSize, len(ids))
		batch, err := s.service.CardsInfo(ctx, ids[start:end])
		if err != nil {
			return nil, err
		}
		cards = append(cards, batch...)
	}
	return cards, nil
}

// resolve returns the stored mapping of deck, or builds one from fields
// and persists it.
func (s *Syncer) resolve(deck string, fields []string, cards []anki.CardInfo) (domain.DeckMapping, error) {
	if m, ok := s.decks.Deck(deck); ok {
		return m, nil
	}
	if len(cards) == 0 {
		return domain.DeckMapping{}, &domain.ConfigError{Deck: deck, Err: errors.New("no field mapping and the deck has no cards")}
	}

	available := cards[0].FieldNames()
	if len(fields) != 3 {
		return domain.DeckMapping{}, &domain.ConfigError{
			Deck: deck,
			Err:  fmt.Errorf("no field mapping; give word, definition and reading fields from: %s", strings.Join(available, ", ")),
		}
	}
	for _, f := range fields {
		if _, ok := cards[0].Fields[f]; !ok {
			return domain.DeckMapping{}, &domain.ConfigError{
				Deck: deck,
				Err:  fmt.Errorf("field %q: %w; available fields: %s", f, domain.ErrNotFound, strings.Join(available, ", ")),
			}
		}
	}

	m := domain.DeckMapping{Name: deck, Word: fields[0], Definition: fields[1], Reading: fields[2]}
	if _, err := s.decks.AddDeck(m); err != nil {
		return domain.DeckMapping{}, err
	}
	if err := s.decks.Save(); err != nil {
		return domain.DeckMapping{}, err
	}
	slog.Info("saved field mapping", "deck", deck)
	return m, nil
}
