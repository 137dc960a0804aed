package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/conorfennell/immerse/internal/anki"
	"github.com/conorfennell/immerse/internal/candidate"
	"github.com/conorfennell/immerse/internal/config"
	"github.com/conorfennell/immerse/internal/fsrs"
	"github.com/conorfennell/immerse/internal/review"
	"github.com/conorfennell/immerse/internal/srs"
	"github.com/conorfennell/immerse/internal/storage"
	"github.com/conorfennell/immerse/internal/sync"
	"github.com/conorfennell/immerse/internal/words"
)

var rootCmd = &cobra.Command{
	Use:           "immerse",
	Short:         "Learn kanji from the words of your Anki decks",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if v, _ := cmd.Flags().GetBool("verbose"); v {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return nil
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.String("config", "", "Path to the config file (overrides IMMERSE_CONFIG)")
	f.String("db", "", "Path to the SQLite database file (overrides IMMERSE_DB)")
	f.String("endpoint", anki.DefaultEndpoint, "AnkiConnect endpoint")
	f.Int("anki-version", anki.DefaultVersion, "AnkiConnect protocol version")
	f.Int("fanout", candidate.DefaultFanout, "Maximum concurrent deck queries")
	f.Int("limit", 20, "Maximum new kanji per review session")
	f.Float64("retention", 0.9, "Desired retention of reviewed kanji")
	f.Float64("max-interval", 36500, "Longest review interval in days")
	f.BoolP("verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(decksCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(kanjiCmd)
	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(dueCmd)
	rootCmd.AddCommand(wordsCmd)
	rootCmd.AddCommand(exampleCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(wipeCmd)
	rootCmd.AddCommand(strokesCmd)
	rootCmd.AddCommand(serveCmd)
}

// loadConfig resolves the configuration for cmd: defaults, file, env, flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path, cmd.Flags())
}

// app is the wired set of services a command works with.
type app struct {
	cfg      *config.Config
	db       *storage.DB
	client   *anki.Client
	srs      *srs.Manager
	words    *words.Manager
	selector *candidate.Selector
	review   *review.Service
	syncer   *sync.Syncer
}

// openApp loads the configuration, opens the database and wires the services.
func openApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	if cfg.DB != ":memory:" {
		if err := storage.EnsureDir(cfg.DB); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := storage.Open(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	slog.Debug("Database opened", "path", cfg.DB)

	client := anki.NewClient(cfg.Endpoint, cfg.Version)
	scheduler := fsrs.New(fsrs.Params{DesiredRetention: cfg.Retention, MaximumInterval: cfg.MaxInterval})
	srsMgr := srs.NewManager(db, scheduler)
	wordsMgr := words.NewManager(db)
	selector := candidate.NewSelector(client, cfg.Decks, candidate.WithFanout(cfg.Fanout))

	return &app{
		cfg:      cfg,
		db:       db,
		client:   client,
		srs:      srsMgr,
		words:    wordsMgr,
		selector: selector,
		review:   review.NewService(srsMgr, wordsMgr, selector, cfg.Limit),
		syncer:   sync.NewSyncer(client, cfg, db, srsMgr, wordsMgr),
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}
