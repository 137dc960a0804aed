package domain

import (
	"fmt"
	"time"
)

// State is the scheduling state tag of a kanji's SRS card.
type State int

const (
	New State = iota
	Learning
	Review
	Relearning
)

var stateNames = [...]string{New: "New", Learning: "Learning", Review: "Review", Relearning: "Relearning"}

// Valid reports whether s is one of the four known states.
func (s State) Valid() bool {
	return s >= New && s <= Relearning
}

func (s State) String() string {
	if s.Valid() {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Rating is the learner's answer to a review.
// The values match the FSRS ratings:
// 1: Again (Incorrect)
// 2: Hard
// 3: Good
// 4: Easy
type Rating int

const (
	Again Rating = 1
	Hard  Rating = 2
	Good  Rating = 3
	Easy  Rating = 4
)

var ratingNames = [...]string{Again: "Again", Hard: "Hard", Good: "Good", Easy: "Easy"}

// Valid reports whether r is one of the four known ratings.
func (r Rating) Valid() bool {
	return r >= Again && r <= Easy
}

func (r Rating) String() string {
	if r.Valid() {
		return ratingNames[r]
	}
	return fmt.Sprintf("Rating(%d)", int(r))
}

// Card holds the scheduling parameters of one kanji.
// A zero LastReview means the kanji has never been reviewed.
type Card struct {
	Due           time.Time
	Stability     float64
	Difficulty    float64
	ElapsedDays   int64
	ScheduledDays int64
	Lapses        int64
	Reps          int64
	State         State
	PrevState     State
	LastReview    time.Time
}

// NewCard returns the initial scheduling state of an unseen kanji, due at now.
func NewCard(now time.Time) Card {
	return Card{
		Due:       now,
		State:     New,
		PrevState: New,
	}
}

// SrsRecord is the persisted SRS state of a single kanji.
type SrsRecord struct {
	Kanji rune
	ID    int64
	Card  Card
}

// ReviewLog records the most recent review of a kanji.
type ReviewLog struct {
	Kanji         rune
	Rating        Rating
	ElapsedDays   int64
	ScheduledDays int64
	State         State
	Reviewed      time.Time
}
