package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/conorfennell/immerse/internal/domain"
	"github.com/conorfennell/immerse/internal/kanji"
	"github.com/conorfennell/immerse/internal/review"
)

var kanjiCmd = &cobra.Command{
	Use:   "kanji",
	Short: "List known kanji and their knowledge level",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		if count, _ := cmd.Flags().GetBool("count"); count {
			n, err := a.db.CountKanji(ctx)
			if err != nil {
				return err
			}
			counts, err := a.srs.Counts(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%d kanji\n", n)
			for _, s := range []domain.State{domain.New, domain.Learning, domain.Review, domain.Relearning} {
				fmt.Fprintf(out, "  %-10s %d\n", s, counts[s])
			}
			return nil
		}

		entries, err := a.db.ListKanji(ctx)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Fprintf(out, "%c  %s\n", e.Kanji, kanji.LevelName(e.Level))
		}
		return nil
	},
}

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "List kanji not studied yet",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		recs, err := a.srs.NewCards(cmd.Context(), a.cfg.Limit)
		if err != nil {
			return err
		}
		printRecords(cmd.OutOrStdout(), recs)
		return nil
	},
}

var dueCmd = &cobra.Command{
	Use:   "due",
	Short: "List kanji due for review",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		recs, err := a.srs.DueCards(cmd.Context(), time.Now(), 0)
		if err != nil {
			return err
		}
		printRecords(cmd.OutOrStdout(), recs)
		return nil
	},
}

var wordsCmd = &cobra.Command{
	Use:   "words <kanji>",
	Short: "List stored words containing a kanji",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		k, err := parseKanji(args[0])
		if err != nil {
			return err
		}
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		found, err := a.words.FindByKanji(cmd.Context(), k)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(found) == 0 {
			fmt.Fprintf(out, "No stored word contains %c.\n", k)
			return nil
		}
		for _, w := range found {
			printWord(out, w)
		}
		return nil
	},
}

var exampleCmd = &cobra.Command{
	Use:   "example <kanji>",
	Short: "Show an example card and the stored words for a kanji",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		k, err := parseKanji(args[0])
		if err != nil {
			return err
		}
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ex, err := a.review.Example(cmd.Context(), k)
		if err != nil {
			return err
		}
		printExample(cmd.OutOrStdout(), ex)
		return nil
	},
}

func init() {
	kanjiCmd.Flags().Bool("count", false, "Only print counts per SRS state")
}

func parseKanji(s string) (rune, error) {
	k, ok := kanji.Single(s)
	if !ok {
		return 0, fmt.Errorf("%q is not a single kanji", s)
	}
	return k, nil
}

func printRecords(out io.Writer, recs []domain.SrsRecord) {
	if len(recs) == 0 {
		fmt.Fprintln(out, "Nothing to show.")
		return
	}
	for _, r := range recs {
		fmt.Fprintf(out, "%5d  %c  %-10s due %s\n", r.ID, r.Kanji, r.Card.State, r.Card.Due.Local().Format("2006-01-02 15:04"))
	}
}

func printWord(out io.Writer, w domain.Word) {
	fmt.Fprintf(out, "%s [%s]  %s\n", w.Word, w.Furigana, w.Def)
}

func printExample(out io.Writer, ex review.Example) {
	if ex.Card != nil {
		fmt.Fprintf(out, "From %s:\n  %s [%s]\n  %s\n", ex.Card.Deck.Name, ex.Card.Word, ex.Card.Reading, ex.Card.Definition)
	}
	if len(ex.Words) > 0 {
		fmt.Fprintf(out, "Words with %c:\n", ex.Kanji)
		for _, w := range ex.Words {
			fmt.Fprint(out, "  ")
			printWord(out, w)
		}
	}
}
