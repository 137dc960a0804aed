package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/conorfennell/immerse/internal/domain"
	"github.com/conorfennell/immerse/internal/kanji"
)

// UpsertKanji records a knowledge level for a kanji. The stored level
// never decreases.
func (q *Queries) UpsertKanji(ctx context.Context, k rune, level int) error {
	if level < kanji.LevelNone || level > kanji.LevelMaster {
		return storeErr("upsert kanji "+string(k), fmt.Errorf("level %d out of range %d-%d", level, kanji.LevelNone, kanji.LevelMaster))
	}
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO kanji (kanji, level) VALUES (?, ?)
		ON CONFLICT(kanji) DO UPDATE SET level = MAX(level, excluded.level)
	`, string(k), level)
	if err != nil {
		return storeErr("upsert kanji "+string(k), err)
	}
	return nil
}

// GetKanji retrieves the knowledge entry of a kanji.
func (q *Queries) GetKanji(ctx context.Context, kanji rune) (domain.KanjiEntry, error) {
	var level int
	err := q.q.QueryRowContext(ctx, `SELECT level FROM kanji WHERE kanji = ?`, string(kanji)).Scan(&level)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.KanjiEntry{}, notFound("kanji", string(kanji))
		}
		return domain.KanjiEntry{}, storeErr("get kanji "+string(kanji), err)
	}
	return domain.KanjiEntry{Kanji: kanji, Level: level}, nil
}

// ListKanji returns all knowledge entries, highest level first.
func (q *Queries) ListKanji(ctx context.Context) ([]domain.KanjiEntry, error) {
	rows, err := q.q.QueryContext(ctx, `SELECT kanji, level FROM kanji ORDER BY level DESC, kanji ASC`)
	if err != nil {
		return nil, storeErr("list kanji", err)
	}
	defer rows.Close()

	var entries []domain.KanjiEntry
	for rows.Next() {
		var k string
		var e domain.KanjiEntry
		if err := rows.Scan(&k, &e.Level); err != nil {
			return nil, storeErr("scan kanji row", err)
		}
		if e.Kanji, err = decodeKanji("kanji.kanji", k); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list kanji", err)
	}
	return entries, nil
}

// CountKanji returns the number of kanji with a knowledge entry.
func (q *Queries) CountKanji(ctx context.Context) (int, error) {
	var n int
	if err := q.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM kanji`).Scan(&n); err != nil {
		return 0, storeErr("count kanji", err)
	}
	return n, nil
}
