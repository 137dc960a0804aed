// Package fsrs adapts the FSRS scheduler to the kanji card model.
package fsrs

import (
	"errors"
	"fmt"
	"time"

	gofsrs "github.com/open-spaced-repetition/go-fsrs/v3"

	"github.com/conorfennell/immerse/internal/domain"
)

// ErrInvalidRating is returned for ratings outside Again..Easy.
var ErrInvalidRating = errors.New("fsrs: invalid rating")

// Params holds the tunable scheduler parameters. Zero values keep the
// FSRS defaults.
type Params struct {
	DesiredRetention float64 // desired retention rate (e.g., 0.9 for 90%)
	MaximumInterval  float64 // longest interval in days
}

// DefaultParams returns the FSRS default parameters.
func DefaultParams() Params {
	p := gofsrs.DefaultParam()
	return Params{
		DesiredRetention: p.RequestRetention,
		MaximumInterval:  p.MaximumInterval,
	}
}

// Scheduler computes the next scheduling state of a card after a rating.
type Scheduler struct {
	f *gofsrs.FSRS
}

// New creates a Scheduler with the given parameters.
func New(p Params) *Scheduler {
	param := gofsrs.DefaultParam()
	if p.DesiredRetention > 0 {
		param.RequestRetention = p.DesiredRetention
	}
	if p.MaximumInterval > 0 {
		param.MaximumInterval = p.MaximumInterval
	}
	return &Scheduler{f: gofsrs.NewFSRS(param)}
}

// Schedule applies rating to card at now and returns the next state and
// the log of this review. The previous state tag is carried in PrevState.
func (s *Scheduler) Schedule(card domain.Card, rating domain.Rating, now time.Time) (domain.Card, domain.ReviewLog, error) {
	grade, ok := grades[rating]
	if !ok {
		return domain.Card{}, domain.ReviewLog{}, fmt.Errorf("%w: %d", ErrInvalidRating, int(rating))
	}

	info := s.f.Repeat(toFSRS(card), now)[grade]

	next := fromFSRS(info.Card)
	next.PrevState = card.State

	log := domain.ReviewLog{
		Rating:        rating,
		ElapsedDays:   int64(info.ReviewLog.ElapsedDays),
		ScheduledDays: int64(info.ReviewLog.ScheduledDays),
		State:         fromState(info.ReviewLog.State),
		Reviewed:      info.ReviewLog.Review,
	}
	return next, log, nil
}

var grades = map[domain.Rating]gofsrs.Rating{
	domain.Again: gofsrs.Again,
	domain.Hard:  gofsrs.Hard,
	domain.Good:  gofsrs.Good,
	domain.Easy:  gofsrs.Easy,
}

func toFSRS(c domain.Card) gofsrs.Card {
	return gofsrs.Card{
		Due:           c.Due,
		Stability:     c.Stability,
		Difficulty:    c.Difficulty,
		ElapsedDays:   uint64(max(c.ElapsedDays, 0)),
		ScheduledDays: uint64(max(c.ScheduledDays, 0)),
		Reps:          uint64(max(c.Reps, 0)),
		Lapses:        uint64(max(c.Lapses, 0)),
		State:         toState(c.State),
		LastReview:    c.LastReview,
	}
}

func fromFSRS(c gofsrs.Card) domain.Card {
	return domain.Card{
		Due:           c.Due,
		Stability:     c.Stability,
		Difficulty:    c.Difficulty,
		ElapsedDays:   int64(c.ElapsedDays),
		ScheduledDays: int64(c.ScheduledDays),
		Reps:          int64(c.Reps),
		Lapses:        int64(c.Lapses),
		State:         fromState(c.State),
		LastReview:    c.LastReview,
	}
}

func toState(s domain.State) gofsrs.State {
	switch s {
	case domain.Learning:
		return gofsrs.Learning
	case domain.Review:
		return gofsrs.Review
	case domain.Relearning:
		return gofsrs.Relearning
	default:
		return gofsrs.New
	}
}

func fromState(s gofsrs.State) domain.State {
	switch s {
	case gofsrs.Learning:
		return domain.Learning
	case gofsrs.Review:
		return domain.Review
	case gofsrs.Relearning:
		return domain.Relearning
	default:
		return domain.New
	}
}
