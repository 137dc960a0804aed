package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/conorfennell/immerse/internal/domain"
	"github.com/conorfennell/immerse/internal/kanji"
	"github.com/conorfennell/immerse/internal/review"
	"github.com/conorfennell/immerse/internal/storage"
	"github.com/conorfennell/immerse/internal/sync"
	"github.com/conorfennell/immerse/internal/words"
)

// DeckSyncer imports a source deck.
type DeckSyncer interface {
	SyncDeck(ctx context.Context, deck string, fields []string) (sync.Report, error)
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	db     *storage.DB
	review *review.Service
	words  *words.Manager
	syncer DeckSyncer
	router *http.ServeMux
	now    func() time.Time
}

// NewServer creates and configures a new server.
func NewServer(db *storage.DB, reviewSvc *review.Service, wordsMgr *words.Manager, syncer DeckSyncer) *Server {
	s := &Server{
		db:     db,
		review: reviewSvc,
		words:  wordsMgr,
		syncer: syncer,
		router: http.NewServeMux(),
		now:    time.Now,
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	s.router.HandleFunc("GET /kanji", s.handleGetKanji())
	s.router.HandleFunc("GET /review/next", s.handleGetNextReview())
	s.router.HandleFunc("POST /review/{kanji}", s.handlePostReview())
	s.router.HandleFunc("GET /words/{kanji}", s.handleGetWords())
	s.router.HandleFunc("GET /example/{kanji}", s.handleGetExample())
	s.router.HandleFunc("POST /sync", s.handlePostSync())
}

type kanjiView struct {
	Kanji     string `json:"kanji"`
	Level     int    `json:"level"`
	LevelName string `json:"level_name"`
}

type cardView struct {
	Kanji      string     `json:"kanji"`
	ID         int64      `json:"id"`
	State      string     `json:"state"`
	Due        time.Time  `json:"due"`
	Stability  float64    `json:"stability"`
	Difficulty float64    `json:"difficulty"`
	Reps       int64      `json:"reps"`
	Lapses     int64      `json:"lapses"`
	LastReview *time.Time `json:"last_review,omitempty"`
}

func newCardView(rec domain.SrsRecord) cardView {
	v := cardView{
		Kanji:      string(rec.Kanji),
		ID:         rec.ID,
		State:      rec.Card.State.String(),
		Due:        rec.Card.Due,
		Stability:  rec.Card.Stability,
		Difficulty: rec.Card.Difficulty,
		Reps:       rec.Card.Reps,
		Lapses:     rec.Card.Lapses,
	}
	if !rec.Card.LastReview.IsZero() {
		last := rec.Card.LastReview
		v.LastReview = &last
	}
	return v
}

type wordView struct {
	CardID   int64  `json:"card_id"`
	Word     string `json:"word"`
	Def      string `json:"definition"`
	Furigana string `json:"reading"`
}

func newWordViews(ws []domain.Word) []wordView {
	out := make([]wordView, 0, len(ws))
	for _, w := range ws {
		out = append(out, wordView{CardID: w.CardID, Word: w.Word, Def: w.Def, Furigana: w.Furigana})
	}
	return out
}

type exampleCardView struct {
	CardID     int64  `json:"card_id"`
	Deck       string `json:"deck"`
	Word       string `json:"word"`
	Definition string `json:"definition"`
	Reading    string `json:"reading"`
}

type exampleView struct {
	Kanji string           `json:"kanji"`
	Card  *exampleCardView `json:"card"`
	Words []wordView       `json:"words"`
}

// handleGetKanji lists the knowledge level of every known kanji.
func (s *Server) handleGetKanji() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := s.db.ListKanji(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		out := make([]kanjiView, 0, len(entries))
		for _, e := range entries {
			out = append(out, kanjiView{Kanji: string(e.Kanji), Level: e.Level, LevelName: kanji.LevelName(e.Level)})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// handleGetNextReview returns the next kanji to study.
func (s *Server) handleGetNextReview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := s.review.Next(r.Context(), s.now())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newCardView(rec))
	}
}

// handlePostReview applies the submitted rating and returns the new state.
func (s *Server) handlePostReview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		k, ok := pathKanji(w, r)
		if !ok {
			return
		}
		n, err := strconv.Atoi(r.PostFormValue("rating"))
		if err != nil || !domain.Rating(n).Valid() {
			http.Error(w, "Invalid rating", http.StatusBadRequest)
			return
		}

		rec, err := s.review.Answer(r.Context(), k, domain.Rating(n), s.now())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newCardView(rec))
	}
}

// handleGetWords lists the stored words containing a kanji.
func (s *Server) handleGetWords() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		k, ok := pathKanji(w, r)
		if !ok {
			return
		}
		found, err := s.words.FindByKanji(r.Context(), k)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newWordViews(found))
	}
}

// handleGetExample returns a source card and the stored words for a kanji.
func (s *Server) handleGetExample() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		k, ok := pathKanji(w, r)
		if !ok {
			return
		}
		ex, err := s.review.Example(r.Context(), k)
		if err != nil {
			writeError(w, err)
			return
		}
		out := exampleView{Kanji: string(k), Words: newWordViews(ex.Words)}
		if ex.Card != nil {
			out.Card = &exampleCardView{
				CardID:     ex.Card.CardID,
				Deck:       ex.Card.Deck.Name,
				Word:       ex.Card.Word,
				Definition: ex.Card.Definition,
				Reading:    ex.Card.Reading,
			}
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// handlePostSync imports a deck in the foreground and returns its report.
func (s *Server) handlePostSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deck := r.PostFormValue("deck")
		if deck == "" {
			http.Error(w, "Deck cannot be empty", http.StatusBadRequest)
			return
		}
		var fields []string
		if word := r.PostFormValue("word"); word != "" {
			fields = []string{word, r.PostFormValue("definition"), r.PostFormValue("reading")}
		}

		report, err := s.syncer.SyncDeck(r.Context(), deck, fields)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func pathKanji(w http.ResponseWriter, r *http.Request) (rune, bool) {
	k, ok := kanji.Single(r.PathValue("kanji"))
	if !ok {
		http.Error(w, "Not a single kanji", http.StatusBadRequest)
	}
	return k, ok
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	var (
		cfgErr    *domain.ConfigError
		remoteErr *domain.RemoteError
	)
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.As(err, &cfgErr):
		status = http.StatusBadRequest
	case errors.As(err, &remoteErr):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		slog.Error("Request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
