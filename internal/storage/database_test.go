package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/immerse/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "immerse.db")

	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.UpsertKanji(context.Background(), '本', 2))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	entry, err := db.GetKanji(context.Background(), '本')
	require.NoError(t, err)
	assert.Equal(t, 2, entry.Level)
}

func TestUpsertKanjiNeverDecreases(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertKanji(ctx, '本', 1))
	require.NoError(t, db.UpsertKanji(ctx, '本', 3))
	require.NoError(t, db.UpsertKanji(ctx, '本', 2))

	entry, err := db.GetKanji(ctx, '本')
	require.NoError(t, err)
	assert.Equal(t, domain.KanjiEntry{Kanji: '本', Level: 3}, entry)
}

func TestUpsertKanjiRejectsLevelOutOfRange(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for _, level := range []int{-1, 6} {
		err := db.UpsertKanji(ctx, '本', level)
		var storeErr *domain.StoreError
		assert.ErrorAs(t, err, &storeErr, "level %d", level)
	}
	_, err := db.GetKanji(ctx, '本')
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = db.conn.ExecContext(ctx, `INSERT INTO kanji (kanji, level) VALUES ('本', 9)`)
	assert.Error(t, err)
}

func TestGetKanjiNotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetKanji(context.Background(), '猫')
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListAndCountKanji(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertKanji(ctx, '日', 1))
	require.NoError(t, db.UpsertKanji(ctx, '本', 3))
	require.NoError(t, db.UpsertKanji(ctx, '人', 1))

	entries, err := db.ListKanji(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, '本', entries[0].Kanji)
	assert.Equal(t, 3, entries[0].Level)

	n, err := db.CountKanji(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestInsertSrsAssignsIncreasingIDs(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	for _, k := range []rune{'日', '本', '語'} {
		inserted, err := db.InsertSrs(ctx, k, domain.NewCard(now))
		require.NoError(t, err)
		assert.True(t, inserted)
	}

	recs, err := db.SrsByState(ctx, domain.New, 0)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	for i, rec := range recs {
		assert.Equal(t, int64(i+1), rec.ID)
	}
	assert.Equal(t, '語', recs[2].Kanji)
}

func TestInsertSrsDuplicateIsIgnored(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	_, err := db.InsertSrs(ctx, '本', domain.NewCard(now))
	require.NoError(t, err)

	changed := domain.NewCard(now.Add(48 * time.Hour))
	changed.Stability = 9
	inserted, err := db.InsertSrs(ctx, '本', changed)
	require.NoError(t, err)
	assert.False(t, inserted)

	rec, err := db.GetSrs(ctx, '本')
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.ID)
	assert.True(t, rec.Card.Due.Equal(now))
	assert.Zero(t, rec.Card.Stability)
}

func TestSrsRoundTripPreservesFields(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

	_, err := db.InsertSrs(ctx, '本', domain.NewCard(now))
	require.NoError(t, err)

	card := domain.Card{
		Due:           now.Add(72 * time.Hour),
		Stability:     3.5,
		Difficulty:    5.25,
		ElapsedDays:   2,
		ScheduledDays: 3,
		Lapses:        1,
		Reps:          4,
		State:         domain.Review,
		PrevState:     domain.Learning,
		LastReview:    now,
	}
	require.NoError(t, db.UpdateSrs(ctx, '本', card))

	rec, err := db.GetSrs(ctx, '本')
	require.NoError(t, err)
	assert.Equal(t, card, rec.Card)
}

func TestNewCardHasZeroLastReview(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := db.InsertSrs(ctx, '本', domain.NewCard(time.Now()))
	require.NoError(t, err)

	rec, err := db.GetSrs(ctx, '本')
	require.NoError(t, err)
	assert.True(t, rec.Card.LastReview.IsZero())
}

func TestUpdateSrsNotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.UpdateSrs(context.Background(), '本', domain.NewCard(time.Now()))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSrsByStateRespectsLimitAndState(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, k := range "一二三四五" {
		_, err := db.InsertSrs(ctx, k, domain.NewCard(now))
		require.NoError(t, err)
	}
	reviewed := domain.NewCard(now)
	reviewed.State = domain.Review
	require.NoError(t, db.UpdateSrs(ctx, '一', reviewed))

	recs, err := db.SrsByState(ctx, domain.New, 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, '二', recs[0].Kanji)
	assert.Equal(t, '三', recs[1].Kanji)
}

func TestDueSrs(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	for _, k := range "一二三" {
		_, err := db.InsertSrs(ctx, k, domain.NewCard(now.Add(-time.Hour)))
		require.NoError(t, err)
	}
	overdue := domain.Card{Due: now.Add(-48 * time.Hour), State: domain.Review}
	due := domain.Card{Due: now.Add(-time.Hour), State: domain.Learning}
	notDue := domain.Card{Due: now.Add(time.Hour), State: domain.Review}
	require.NoError(t, db.UpdateSrs(ctx, '一', due))
	require.NoError(t, db.UpdateSrs(ctx, '二', overdue))
	require.NoError(t, db.UpdateSrs(ctx, '三', notDue))

	recs, err := db.DueSrs(ctx, now, 0)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, '二', recs[0].Kanji)
	assert.Equal(t, '一', recs[1].Kanji)
}

func TestCountSrsByState(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now()

	for _, k := range "一二三" {
		_, err := db.InsertSrs(ctx, k, domain.NewCard(now))
		require.NoError(t, err)
	}
	require.NoError(t, db.UpdateSrs(ctx, '一', domain.Card{Due: now, State: domain.Learning}))

	counts, err := db.CountSrsByState(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[domain.New])
	assert.Equal(t, 1, counts[domain.Learning])
}

func TestRevlogUpsertKeepsLatest(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	first := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, db.UpsertRevlog(ctx, domain.ReviewLog{Kanji: '本', Rating: domain.Again, State: domain.New, Reviewed: first}))
	latest := domain.ReviewLog{Kanji: '本', Rating: domain.Good, ElapsedDays: 3, ScheduledDays: 7, State: domain.Review, Reviewed: first.Add(72 * time.Hour)}
	require.NoError(t, db.UpsertRevlog(ctx, latest))

	got, err := db.GetRevlog(ctx, '本')
	require.NoError(t, err)
	assert.Equal(t, latest, got)

	_, err = db.GetRevlog(ctx, '猫')
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMalformedStateIsSerializationError(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	_, err := db.conn.Exec(`INSERT INTO srs (kanji, id, due, state) VALUES ('本', 1, 0, 9)`)
	require.NoError(t, err)

	_, err = db.GetSrs(ctx, '本')
	var serr *domain.SerializationError
	require.True(t, errors.As(err, &serr), "expected SerializationError, got %v", err)
	assert.Equal(t, "srs.state", serr.Column)
}

func TestWordUpsertOverwrites(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertWord(ctx, domain.Word{CardID: 7, Word: "本", Def: "book", Furigana: "ほん"}))
	require.NoError(t, db.UpsertWord(ctx, domain.Word{CardID: 7, Word: "本屋", Def: "bookstore", Furigana: "ほんや"}))

	n, err := db.CountWords(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	w, err := db.GetWord(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, domain.Word{CardID: 7, Word: "本屋", Def: "bookstore", Furigana: "ほんや"}, w)
}

func TestFindWordsBySubstring(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertWord(ctx, domain.Word{CardID: 1, Word: "日本", Def: "Japan", Furigana: "にほん"}))
	require.NoError(t, db.UpsertWord(ctx, domain.Word{CardID: 2, Word: "本屋", Def: "bookstore", Furigana: "ほんや"}))
	require.NoError(t, db.UpsertWord(ctx, domain.Word{CardID: 3, Word: "猫", Def: "cat", Furigana: "ねこ"}))
	require.NoError(t, db.UpsertWord(ctx, domain.Word{CardID: 4, Word: "100%", Def: "percent", Furigana: ""}))

	words, err := db.FindWords(ctx, "本")
	require.NoError(t, err)
	require.Len(t, words, 2)
	assert.Equal(t, int64(1), words[0].CardID)
	assert.Equal(t, int64(2), words[1].CardID)

	// Wildcard characters are matched literally.
	words, err = db.FindWords(ctx, "%")
	require.NoError(t, err)
	require.Len(t, words, 1)
}

func TestWipe(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertKanji(ctx, '本', 1))
	_, err := db.InsertSrs(ctx, '本', domain.NewCard(time.Now()))
	require.NoError(t, err)
	require.NoError(t, db.UpsertRevlog(ctx, domain.ReviewLog{Kanji: '本', Rating: domain.Good, Reviewed: time.Now()}))

	require.NoError(t, db.Wipe(ctx))

	_, err = db.GetSrs(ctx, '本')
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = db.GetRevlog(ctx, '本')
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = db.GetKanji(ctx, '本')
	assert.NoError(t, err, "Wipe keeps knowledge entries")

	require.NoError(t, db.WipeAll(ctx))
	_, err = db.GetKanji(ctx, '本')
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInTxRollsBack(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.InTx(ctx, func(q *Queries) error {
		if err := q.UpsertKanji(ctx, '本', 1); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = db.GetKanji(ctx, '本')
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
