package review

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/immerse/internal/candidate"
	"github.com/conorfennell/immerse/internal/domain"
	"github.com/conorfennell/immerse/internal/fsrs"
	"github.com/conorfennell/immerse/internal/srs"
	"github.com/conorfennell/immerse/internal/storage"
	"github.com/conorfennell/immerse/internal/words"
)

type fakeSelector struct {
	examples map[rune]candidate.Example
	err      error
}

func (f fakeSelector) Select(ctx context.Context, k rune) (candidate.Example, error) {
	if f.err != nil {
		return candidate.Example{}, f.err
	}
	ex, ok := f.examples[k]
	if !ok {
		return candidate.Example{}, domain.ErrNotFound
	}
	return ex, nil
}

var t0 = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func setup(t *testing.T, sel Selector, limit int) (*Service, *srs.Manager, *words.Manager) {
	t.Helper()
	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	srsMgr := srs.NewManager(db, fsrs.New(fsrs.DefaultParams()))
	wordsMgr := words.NewManager(db)
	return NewService(srsMgr, wordsMgr, sel, limit), srsMgr, wordsMgr
}

func TestQueueDueBeforeNew(t *testing.T) {
	svc, srsMgr, _ := setup(t, nil, 2)
	ctx := context.Background()

	for _, k := range "一二三四" {
		_, err := srsMgr.Create(ctx, k, domain.NewCard(t0), nil)
		require.NoError(t, err)
	}
	_, err := svc.Answer(ctx, '三', domain.Good, t0)
	require.NoError(t, err)

	later := t0.AddDate(1, 0, 0)
	q, err := svc.Queue(ctx, later)
	require.NoError(t, err)
	require.Len(t, q, 3)
	assert.Equal(t, '三', q[0].Kanji)
	assert.Equal(t, '一', q[1].Kanji)
	assert.Equal(t, '二', q[2].Kanji)

	next, err := svc.Next(ctx, later)
	require.NoError(t, err)
	assert.Equal(t, '三', next.Kanji)
}

func TestNextEmpty(t *testing.T) {
	svc, _, _ := setup(t, nil, 5)

	_, err := svc.Next(context.Background(), t0)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExample(t *testing.T) {
	sel := fakeSelector{examples: map[rune]candidate.Example{
		'本': {Kanji: '本', CardID: 7, Word: "本", Definition: "book", Reading: "ほん"},
	}}
	svc, _, wordsMgr := setup(t, sel, 5)
	ctx := context.Background()
	require.NoError(t, wordsMgr.Upsert(ctx, 7, "本", "book", "ほん"))
	require.NoError(t, wordsMgr.Upsert(ctx, 8, "猫", "cat", "ねこ"))

	ex, err := svc.Example(ctx, '本')
	require.NoError(t, err)
	require.NotNil(t, ex.Card)
	assert.Equal(t, int64(7), ex.Card.CardID)
	require.Len(t, ex.Words, 1)
	assert.Equal(t, "book", ex.Words[0].Def)

	// Local words alone are enough.
	ex, err = svc.Example(ctx, '猫')
	require.NoError(t, err)
	assert.Nil(t, ex.Card)
	assert.Len(t, ex.Words, 1)

	_, err = svc.Example(ctx, '犬')
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExampleRemoteFailure(t *testing.T) {
	svc, _, _ := setup(t, fakeSelector{err: &domain.RemoteError{Action: "findCards", Message: "down"}}, 5)

	_, err := svc.Example(context.Background(), '本')
	var remote *domain.RemoteError
	assert.ErrorAs(t, err, &remote)
}

func TestAnswerUnknownKanji(t *testing.T) {
	svc, _, _ := setup(t, nil, 5)

	_, err := svc.Answer(context.Background(), '本', domain.Good, t0)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
