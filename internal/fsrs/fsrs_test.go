package fsrs

import (
	"errors"
	"testing"
	"time"

	"github.com/conorfennell/immerse/internal/domain"
)

func TestScheduleNewCard(t *testing.T) {
	s := New(DefaultParams())
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	for _, rating := range []domain.Rating{domain.Again, domain.Hard, domain.Good, domain.Easy} {
		t.Run(rating.String(), func(t *testing.T) {
			next, log, err := s.Schedule(domain.NewCard(now), rating, now)
			if err != nil {
				t.Fatalf("Schedule returned an unexpected error: %v", err)
			}
			if next.State == domain.New {
				t.Errorf("Expected the card to leave the New state, but it did not")
			}
			if next.PrevState != domain.New {
				t.Errorf("Expected PrevState to be New, but got %s", next.PrevState)
			}
			if next.Reps != 1 {
				t.Errorf("Expected Reps to be 1, but got %d", next.Reps)
			}
			if next.Due.Before(now) {
				t.Errorf("Expected due date on or after %v, but got %v", now, next.Due)
			}
			if !next.LastReview.Equal(now) {
				t.Errorf("Expected LastReview to be %v, but got %v", now, next.LastReview)
			}
			if log.Rating != rating {
				t.Errorf("Expected log rating %s, but got %s", rating, log.Rating)
			}
			if !log.Reviewed.Equal(now) {
				t.Errorf("Expected log time %v, but got %v", now, log.Reviewed)
			}
		})
	}
}

func TestScheduleEasyGoesToReview(t *testing.T) {
	s := New(DefaultParams())
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	next, _, err := s.Schedule(domain.NewCard(now), domain.Easy, now)
	if err != nil {
		t.Fatalf("Schedule returned an unexpected error: %v", err)
	}
	if next.State != domain.Review {
		t.Errorf("Expected state Review, but got %s", next.State)
	}
	if next.ScheduledDays < 1 {
		t.Errorf("Expected at least one scheduled day, but got %d", next.ScheduledDays)
	}
}

func TestScheduleLapse(t *testing.T) {
	s := New(DefaultParams())
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	reviewed, _, err := s.Schedule(domain.NewCard(now), domain.Easy, now)
	if err != nil {
		t.Fatalf("Schedule returned an unexpected error: %v", err)
	}

	lapsed, _, err := s.Schedule(reviewed, domain.Again, reviewed.Due)
	if err != nil {
		t.Fatalf("Schedule returned an unexpected error: %v", err)
	}
	if lapsed.PrevState != domain.Review {
		t.Errorf("Expected PrevState Review, but got %s", lapsed.PrevState)
	}
	if lapsed.Lapses != 1 {
		t.Errorf("Expected 1 lapse, but got %d", lapsed.Lapses)
	}
}

func TestScheduleInvalidRating(t *testing.T) {
	s := New(DefaultParams())

	_, _, err := s.Schedule(domain.NewCard(time.Now()), domain.Rating(7), time.Now())
	if !errors.Is(err, ErrInvalidRating) {
		t.Errorf("Expected ErrInvalidRating, but got %v", err)
	}
}
