package storage

const schema = `
-- The 'kanji' table stores the learner's knowledge tier for each kanji seen during sync.
CREATE TABLE IF NOT EXISTS kanji (
    kanji TEXT NOT NULL PRIMARY KEY,
    level INTEGER NOT NULL DEFAULT 0 CHECK (level BETWEEN 0 AND 5)
);

-- The 'srs' table stores one scheduling state per kanji. All timestamps are epoch seconds.
CREATE TABLE IF NOT EXISTS srs (
    kanji TEXT NOT NULL PRIMARY KEY,
    id INTEGER NOT NULL UNIQUE,
    due INTEGER NOT NULL,
    stability REAL NOT NULL DEFAULT 0,
    difficulty REAL NOT NULL DEFAULT 0,
    elapsed INTEGER NOT NULL DEFAULT 0,
    scheduled INTEGER NOT NULL DEFAULT 0,
    lapses INTEGER NOT NULL DEFAULT 0,
    reps INTEGER NOT NULL DEFAULT 0,
    state INTEGER NOT NULL DEFAULT 0, -- 0: New, 1: Learning, 2: Review, 3: Relearning
    last_review INTEGER NOT NULL DEFAULT 0,
    prev_state INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_srs_state ON srs(state, id);
CREATE INDEX IF NOT EXISTS idx_srs_due ON srs(due);

-- The 'revlog' table keeps the latest review of each kanji.
CREATE TABLE IF NOT EXISTS revlog (
    kanji TEXT NOT NULL PRIMARY KEY,
    rating INTEGER NOT NULL, -- 1: Again, 2: Hard, 3: Good, 4: Easy
    elapsed INTEGER NOT NULL DEFAULT 0,
    scheduled INTEGER NOT NULL DEFAULT 0,
    state INTEGER NOT NULL DEFAULT 0,
    reviewed INTEGER NOT NULL
);

-- The 'words' table stores vocabulary keyed by the source card id.
CREATE TABLE IF NOT EXISTS words (
    id INTEGER NOT NULL PRIMARY KEY,
    word TEXT NOT NULL,
    def TEXT NOT NULL,
    furigana TEXT NOT NULL
);
`
