package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/conorfennell/immerse/internal/domain"
)

const srsColumns = `kanji, id, due, stability, difficulty, elapsed, scheduled, lapses, reps, state, last_review, prev_state`

// InsertSrs inserts the SRS state of a kanji unless one already exists.
// The identifier is assigned by the statement itself as MAX(id)+1, so
// assignment is atomic with the insert. It reports whether a row was added.
func (q *Queries) InsertSrs(ctx context.Context, kanji rune, c domain.Card) (bool, error) {
	res, err := q.q.ExecContext(ctx, `
		INSERT OR IGNORE INTO srs (`+srsColumns+`)
		SELECT ?, COALESCE(MAX(id), 0) + 1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		FROM srs
	`,
		string(kanji),
		toUnix(c.Due),
		c.Stability,
		c.Difficulty,
		c.ElapsedDays,
		c.ScheduledDays,
		c.Lapses,
		c.Reps,
		int(c.State),
		toUnix(c.LastReview),
		int(c.PrevState),
	)
	if err != nil {
		return false, storeErr("insert srs "+string(kanji), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storeErr("insert srs "+string(kanji), err)
	}
	return n > 0, nil
}

// UpdateSrs replaces the scheduling state of an existing kanji.
func (q *Queries) UpdateSrs(ctx context.Context, kanji rune, c domain.Card) error {
	res, err := q.q.ExecContext(ctx, `
		UPDATE srs
		SET due = ?, stability = ?, difficulty = ?, elapsed = ?, scheduled = ?,
		    lapses = ?, reps = ?, state = ?, last_review = ?, prev_state = ?
		WHERE kanji = ?
	`,
		toUnix(c.Due),
		c.Stability,
		c.Difficulty,
		c.ElapsedDays,
		c.ScheduledDays,
		c.Lapses,
		c.Reps,
		int(c.State),
		toUnix(c.LastReview),
		int(c.PrevState),
		string(kanji),
	)
	if err != nil {
		return storeErr("update srs "+string(kanji), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("update srs "+string(kanji), err)
	}
	if n == 0 {
		return notFound("srs record", string(kanji))
	}
	return nil
}

// GetSrs retrieves the SRS record of a kanji.
func (q *Queries) GetSrs(ctx context.Context, kanji rune) (domain.SrsRecord, error) {
	row := q.q.QueryRowContext(ctx, `SELECT `+srsColumns+` FROM srs WHERE kanji = ?`, string(kanji))
	rec, err := scanSrs(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.SrsRecord{}, notFound("srs record", string(kanji))
		}
		return domain.SrsRecord{}, err
	}
	return rec, nil
}

// SrsByState returns records in the given state in insertion order.
// A non-positive limit returns all of them.
func (q *Queries) SrsByState(ctx context.Context, state domain.State, limit int) ([]domain.SrsRecord, error) {
	rows, err := q.q.QueryContext(ctx, `
		SELECT `+srsColumns+` FROM srs
		WHERE state = ?
		ORDER BY id ASC
		LIMIT ?
	`, int(state), limitArg(limit))
	if err != nil {
		return nil, storeErr("query srs by state", err)
	}
	return collectSrs(rows)
}

// DueSrs returns reviewed records whose due time is before now, most
// overdue first.
func (q *Queries) DueSrs(ctx context.Context, now time.Time, limit int) ([]domain.SrsRecord, error) {
	rows, err := q.q.QueryContext(ctx, `
		SELECT `+srsColumns+` FROM srs
		WHERE due < ? AND state != ?
		ORDER BY due ASC, id ASC
		LIMIT ?
	`, now.Unix(), int(domain.New), limitArg(limit))
	if err != nil {
		return nil, storeErr("query due srs", err)
	}
	return collectSrs(rows)
}

// CountSrsByState returns the number of records per state tag.
func (q *Queries) CountSrsByState(ctx context.Context) (map[domain.State]int, error) {
	rows, err := q.q.QueryContext(ctx, `SELECT state, COUNT(*) FROM srs GROUP BY state`)
	if err != nil {
		return nil, storeErr("count srs", err)
	}
	defer rows.Close()

	counts := make(map[domain.State]int)
	for rows.Next() {
		var s int64
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, storeErr("scan srs count", err)
		}
		state, err := decodeState("srs.state", s)
		if err != nil {
			return nil, err
		}
		counts[state] = n
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("count srs", err)
	}
	return counts, nil
}

// UpsertRevlog stores a review log, replacing any earlier log of the same kanji.
func (q *Queries) UpsertRevlog(ctx context.Context, l domain.ReviewLog) error {
	_, err := q.q.ExecContext(ctx, `
		INSERT INTO revlog (kanji, rating, elapsed, scheduled, state, reviewed)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(kanji) DO UPDATE SET
			rating = excluded.rating,
			elapsed = excluded.elapsed,
			scheduled = excluded.scheduled,
			state = excluded.state,
			reviewed = excluded.reviewed
	`,
		string(l.Kanji),
		int(l.Rating),
		l.ElapsedDays,
		l.ScheduledDays,
		int(l.State),
		toUnix(l.Reviewed),
	)
	if err != nil {
		return storeErr("upsert revlog "+string(l.Kanji), err)
	}
	return nil
}

// GetRevlog retrieves the latest review log of a kanji.
func (q *Queries) GetRevlog(ctx context.Context, kanji rune) (domain.ReviewLog, error) {
	var rating, state, reviewed int64
	l := domain.ReviewLog{Kanji: kanji}
	err := q.q.QueryRowContext(ctx, `
		SELECT rating, elapsed, scheduled, state, reviewed
		FROM revlog WHERE kanji = ?
	`, string(kanji)).Scan(&rating, &l.ElapsedDays, &l.ScheduledDays, &state, &reviewed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ReviewLog{}, notFound("review log", string(kanji))
		}
		return domain.ReviewLog{}, storeErr("get revlog "+string(kanji), err)
	}
	if l.Rating, err = decodeRating("revlog.rating", rating); err != nil {
		return domain.ReviewLog{}, err
	}
	if l.State, err = decodeState("revlog.state", state); err != nil {
		return domain.ReviewLog{}, err
	}
	l.Reviewed = fromUnix(reviewed)
	return l, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSrs(row rowScanner) (domain.SrsRecord, error) {
	var rec domain.SrsRecord
	var k string
	var due, lastReview, state, prevState int64
	err := row.Scan(
		&k,
		&rec.ID,
		&due,
		&rec.Card.Stability,
		&rec.Card.Difficulty,
		&rec.Card.ElapsedDays,
		&rec.Card.ScheduledDays,
		&rec.Card.Lapses,
		&rec.Card.Reps,
		&state,
		&lastReview,
		&prevState,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, storeErr("scan srs row", err)
	}
	if rec.Kanji, err = decodeKanji("srs.kanji", k); err != nil {
		return rec, err
	}
	if rec.Card.State, err = decodeState("srs.state", state); err != nil {
		return rec, err
	}
	if rec.Card.PrevState, err = decodeState("srs.prev_state", prevState); err != nil {
		return rec, err
	}
	rec.Card.Due = fromUnix(due)
	rec.Card.LastReview = fromUnix(lastReview)
	return rec, nil
}

func collectSrs(rows *sql.Rows) ([]domain.SrsRecord, error) {
	defer rows.Close()

	var records []domain.SrsRecord
	for rows.Next() {
		rec, err := scanSrs(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate srs rows", err)
	}
	return records, nil
}
