// Package srs manages the spaced-repetition state of individual kanji.
//
// The Manager is the only writer of the srs and revlog tables. It never
// decides state transitions itself: a Scheduler computes the next state
// for a rating and the Manager persists it.
package srs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/conorfennell/immerse/internal/domain"
	"github.com/conorfennell/immerse/internal/kanji"
	"github.com/conorfennell/immerse/internal/storage"
)

// ErrNotKanji is returned when a character outside the kanji ranges is given.
var ErrNotKanji = errors.New("not a kanji")

// Scheduler computes the next scheduling state of a card after a rating.
type Scheduler interface {
	Schedule(card domain.Card, rating domain.Rating, now time.Time) (domain.Card, domain.ReviewLog, error)
}

// Manager owns the SRS record lifecycle.
type Manager struct {
	db        *storage.DB
	scheduler Scheduler
}

// NewManager creates a Manager over db. scheduler may be nil for callers
// that never call Review.
func NewManager(db *storage.DB, scheduler Scheduler) *Manager {
	return &Manager{db: db, scheduler: scheduler}
}

// Create inserts an SRS record for k unless one already exists, in which
// case the stored record is left untouched. If log is non-nil it replaces
// any earlier review log of k. It reports whether a record was added.
func (m *Manager) Create(ctx context.Context, k rune, card domain.Card, log *domain.ReviewLog) (bool, error) {
	if !kanji.IsKanji(k) {
		return false, fmt.Errorf("create %q: %w", string(k), ErrNotKanji)
	}

	var inserted bool
	err := m.db.InTx(ctx, func(q *storage.Queries) error {
		var err error
		if inserted, err = q.InsertSrs(ctx, k, card); err != nil {
			return err
		}
		if log == nil {
			return nil
		}
		l := *log
		l.Kanji = k
		return q.UpsertRevlog(ctx, l)
	})
	if err != nil {
		return false, err
	}
	if inserted {
		slog.Debug("created srs record", "kanji", string(k), "state", card.State)
	}
	return inserted, nil
}

// Get returns the SRS record of k.
func (m *Manager) Get(ctx context.Context, k rune) (domain.SrsRecord, error) {
	return m.db.GetSrs(ctx, k)
}

// NewCards returns up to limit records still in the New state, oldest first.
func (m *Manager) NewCards(ctx context.Context, limit int) ([]domain.SrsRecord, error) {
	if limit <= 0 {
		return nil, nil
	}
	return m.db.SrsByState(ctx, domain.New, limit)
}

// DueCards returns up to limit reviewed records due before now, most
// overdue first. A non-positive limit returns all of them.
func (m *Manager) DueCards(ctx context.Context, now time.Time, limit int) ([]domain.SrsRecord, error) {
	return m.db.DueSrs(ctx, now, limit)
}

// CardsWithState returns every record in the given state.
func (m *Manager) CardsWithState(ctx context.Context, state domain.State) ([]domain.SrsRecord, error) {
	if !state.Valid() {
		return nil, fmt.Errorf("unknown state %d", int(state))
	}
	return m.db.SrsByState(ctx, state, 0)
}

// Counts returns the number of records per state.
func (m *Manager) Counts(ctx context.Context) (map[domain.State]int, error) {
	return m.db.CountSrsByState(ctx)
}

// ReviewLogFor returns the latest review log of k, or nil if k was never reviewed.
func (m *Manager) ReviewLogFor(ctx context.Context, k rune) (*domain.ReviewLog, error) {
	l, err := m.db.GetRevlog(ctx, k)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

// Review applies rating to the record of k at now and persists the state
// returned by the scheduler together with the review log.
func (m *Manager) Review(ctx context.Context, k rune, rating domain.Rating, now time.Time) (domain.SrsRecord, error) {
	if m.scheduler == nil {
		return domain.SrsRecord{}, errors.New("srs: no scheduler configured")
	}
	if !rating.Valid() {
		return domain.SrsRecord{}, fmt.Errorf("review %q: invalid rating %d", string(k), int(rating))
	}

	var rec domain.SrsRecord
	err := m.db.InTx(ctx, func(q *storage.Queries) error {
		var err error
		if rec, err = q.GetSrs(ctx, k); err != nil {
			return err
		}
		next, log, err := m.scheduler.Schedule(rec.Card, rating, now)
		if err != nil {
			return fmt.Errorf("schedule %q: %w", string(k), err)
		}
		if err := q.UpdateSrs(ctx, k, next); err != nil {
			return err
		}
		log.Kanji = k
		if err := q.UpsertRevlog(ctx, log); err != nil {
			return err
		}
		rec.Card = next
		return nil
	})
	if err != nil {
		return domain.SrsRecord{}, err
	}

	slog.Info("reviewed kanji",
		"kanji", string(k),
		"rating", rating,
		"state", rec.Card.State,
		"due", rec.Card.Due,
	)
	return rec, nil
}
