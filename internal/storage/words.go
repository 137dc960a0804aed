package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/conorfennell/immerse/internal/domain"
)

// UpsertWord inserts a word record or replaces the one with the same card id.
func (q *Queries) UpsertWord(ctx context.Context, w domain.Word) error {
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO words (id, word, def, furigana)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			word = excluded.word,
			def = excluded.def,
			furigana = excluded.furigana
	`, w.CardID, w.Word, w.Def, w.Furigana)
	if err != nil {
		return storeErr("upsert word", err)
	}
	return nil
}

// GetWord retrieves the word record of a source card.
func (q *Queries) GetWord(ctx context.Context, cardID int64) (domain.Word, error) {
	w := domain.Word{CardID: cardID}
	err := q.q.QueryRowContext(ctx, `SELECT word, def, furigana FROM words WHERE id = ?`, cardID).
		Scan(&w.Word, &w.Def, &w.Furigana)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Word{}, notFound("word for card", cardID)
		}
		return domain.Word{}, storeErr("get word", err)
	}
	return w, nil
}

// FindWords returns the word records whose text contains substr.
func (q *Queries) FindWords(ctx context.Context, substr string) ([]domain.Word, error) {
	rows, err := q.q.QueryContext(ctx, `
		SELECT id, word, def, furigana FROM words
		WHERE instr(word, ?) > 0
		ORDER BY id ASC
	`, substr)
	if err != nil {
		return nil, storeErr("find words", err)
	}
	defer rows.Close()

	var words []domain.Word
	for rows.Next() {
		var w domain.Word
		if err := rows.Scan(&w.CardID, &w.Word, &w.Def, &w.Furigana); err != nil {
			return nil, storeErr("scan word row", err)
		}
		words = append(words, w)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("find words", err)
	}
	return words, nil
}

// CountWords returns the number of stored word records.
func (q *Queries) CountWords(ctx context.Context) (int, error) {
	var n int
	if err := q.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM words`).Scan(&n); err != nil {
		return 0, storeErr("count words", err)
	}
	return n, nil
}
