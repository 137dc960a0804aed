// Package review drives a review session: which kanji to study next, an
// example word to show for it, and applying the learner's rating.
package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/conorfennell/immerse/internal/candidate"
	"github.com/conorfennell/immerse/internal/domain"
	"github.com/conorfennell/immerse/internal/srs"
	"github.com/conorfennell/immerse/internal/words"
)

// Selector picks an example source card for a kanji.
type Selector interface {
	Select(ctx context.Context, k rune) (candidate.Example, error)
}

// Service combines the SRS state, the local words and the remote examples.
type Service struct {
	srs      *srs.Manager
	words    *words.Manager
	selector Selector
	limit    int
}

// NewService creates a Service that introduces at most limit new kanji
// per queue. selector may be nil when no decks are configured.
func NewService(srsMgr *srs.Manager, wordsMgr *words.Manager, selector Selector, limit int) *Service {
	return &Service{srs: srsMgr, words: wordsMgr, selector: selector, limit: limit}
}

// Queue returns the kanji to study at now: due ones first, most overdue
// first, followed by up to limit new ones.
func (s *Service) Queue(ctx context.Context, now time.Time) ([]domain.SrsRecord, error) {
	due, err := s.srs.DueCards(ctx, now, 0)
	if err != nil {
		return nil, err
	}
	fresh, err := s.srs.NewCards(ctx, s.limit)
	if err != nil {
		return nil, err
	}
	return append(due, fresh...), nil
}

// Next returns the first kanji of the queue.
func (s *Service) Next(ctx context.Context, now time.Time) (domain.SrsRecord, error) {
	q, err := s.Queue(ctx, now)
	if err != nil {
		return domain.SrsRecord{}, err
	}
	if len(q) == 0 {
		return domain.SrsRecord{}, fmt.Errorf("nothing to review: %w", domain.ErrNotFound)
	}
	return q[0], nil
}

// Example is what is shown for a kanji under review.
type Example struct {
	Kanji rune
	// Card is a randomly chosen source card, nil if none contains the kanji.
	Card  *candidate.Example
	Words []domain.Word
}

// Example gathers a source card and the stored words containing k. It
// fails with domain.ErrNotFound only if neither exists.
func (s *Service) Example(ctx context.Context, k rune) (Example, error) {
	ex := Example{Kanji: k}

	if s.selector != nil {
		card, err := s.selector.Select(ctx, k)
		switch {
		case err == nil:
			ex.Card = &card
		case !errors.Is(err, domain.ErrNotFound):
			return Example{}, err
		}
	}

	found, err := s.words.FindByKanji(ctx, k)
	if err != nil {
		return Example{}, err
	}
	ex.Words = found

	if ex.Card == nil && len(ex.Words) == 0 {
		return Example{}, fmt.Errorf("no example contains %q: %w", string(k), domain.ErrNotFound)
	}
	return ex, nil
}

// Answer applies rating to k.
func (s *Service) Answer(ctx context.Context, k rune, rating domain.Rating, now time.Time) (domain.SrsRecord, error) {
	return s.srs.Review(ctx, k, rating, now)
}
