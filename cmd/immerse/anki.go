package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conorfennell/immerse/internal/anki"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that AnkiConnect is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		v, err := anki.NewClient(cfg.Endpoint, cfg.Version).Version(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "AnkiConnect at %s speaks version %d\n", cfg.Endpoint, v)
		return nil
	},
}

var decksCmd = &cobra.Command{
	Use:   "decks",
	Short: "List Anki decks, marking the ones with a field mapping",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		names, err := anki.NewClient(cfg.Endpoint, cfg.Version).DeckNames(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, name := range names {
			if m, ok := cfg.Deck(name); ok {
				fmt.Fprintf(out, "* %s (word: %s, definition: %s, reading: %s)\n", name, m.Word, m.Definition, m.Reading)
				continue
			}
			fmt.Fprintf(out, "  %s\n", name)
		}
		return nil
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Import the kanji and words of a deck",
	RunE: func(cmd *cobra.Command, args []string) error {
		deck, _ := cmd.Flags().GetString("deck")
		word, _ := cmd.Flags().GetString("word")
		definition, _ := cmd.Flags().GetString("definition")
		reading, _ := cmd.Flags().GetString("reading")

		var fields []string
		if word != "" || definition != "" || reading != "" {
			if word == "" || definition == "" || reading == "" {
				return fmt.Errorf("--word, --definition and --reading must be given together")
			}
			fields = []string{word, definition, reading}
		}

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.syncer.SyncDeck(cmd.Context(), deck, fields)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Deck %q: %d cards, %d processed, %d skipped (missing fields).\n",
			report.Deck, report.Cards, report.Processed, report.Skipped)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%d kanji seen, %d new.\n", report.Kanji, report.NewKanji)
		return nil
	},
}

func init() {
	syncCmd.Flags().String("deck", "", "Name of the deck to import")
	syncCmd.Flags().String("word", "", "Field holding the word, for a deck without a mapping")
	syncCmd.Flags().String("definition", "", "Field holding the definition, for a deck without a mapping")
	syncCmd.Flags().String("reading", "", "Field holding the reading, for a deck without a mapping")
	syncCmd.MarkFlagRequired("deck")
}
