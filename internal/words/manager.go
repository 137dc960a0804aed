// Package words stores the vocabulary taken from source cards.
package words

import (
	"context"
	"fmt"

	"github.com/conorfennell/immerse/internal/domain"
	"github.com/conorfennell/immerse/internal/kanji"
	"github.com/conorfennell/immerse/internal/parser"
	"github.com/conorfennell/immerse/internal/storage"
)

// Manager is the only writer of the words table.
type Manager struct {
	db *storage.DB
}

// NewManager creates a Manager over db.
func NewManager(db *storage.DB) *Manager {
	return &Manager{db: db}
}

// Upsert stores the word of a source card, replacing any earlier record
// of the same card. Field values are cleaned of markup first.
func (m *Manager) Upsert(ctx context.Context, cardID int64, word, def, reading string) error {
	w := domain.Word{
		CardID:   cardID,
		Word:     parser.Clean(word),
		Def:      parser.Clean(def),
		Furigana: parser.Reading(reading),
	}
	if w.Word == "" {
		return fmt.Errorf("card %d: empty word", cardID)
	}
	return m.db.UpsertWord(ctx, w)
}

// Get returns the word of a source card.
func (m *Manager) Get(ctx context.Context, cardID int64) (domain.Word, error) {
	return m.db.GetWord(ctx, cardID)
}

// FindByKanji returns every word containing k.
func (m *Manager) FindByKanji(ctx context.Context, k rune) ([]domain.Word, error) {
	if !kanji.IsKanji(k) {
		return nil, fmt.Errorf("find words: %q is not a kanji", string(k))
	}
	return m.db.FindWords(ctx, string(k))
}

// Count returns the number of stored words.
func (m *Manager) Count(ctx context.Context) (int, error) {
	return m.db.CountWords(ctx)
}
