package main

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/conorfennell/immerse/internal/domain"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review due and new kanji",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		in := bufio.NewScanner(cmd.InOrStdin())

		queue, err := a.review.Queue(ctx, time.Now())
		if err != nil {
			return err
		}
		if len(queue) == 0 {
			fmt.Fprintln(out, "Nothing to review.")
			return nil
		}

		reviewed := 0
		for i, rec := range queue {
			fmt.Fprintf(out, "\n[%d/%d]  %c  (%s)\n", i+1, len(queue), rec.Kanji, rec.Card.State)

			ex, err := a.review.Example(ctx, rec.Kanji)
			switch {
			case err == nil:
				printExample(out, ex)
			case errors.Is(err, domain.ErrNotFound):
				fmt.Fprintln(out, "No example found.")
			default:
				return err
			}

			rating, quit := promptRating(cmd, in)
			if quit {
				break
			}
			next, err := a.review.Answer(ctx, rec.Kanji, rating, time.Now())
			if err != nil {
				return err
			}
			reviewed++
			fmt.Fprintf(out, "%s, next review %s\n", rating, next.Card.Due.Local().Format("2006-01-02 15:04"))
		}
		fmt.Fprintf(out, "\nReviewed %d kanji.\n", reviewed)
		return nil
	},
}

// promptRating asks until a rating 1-4 is entered. quit is true on "q" or end of input.
func promptRating(cmd *cobra.Command, in *bufio.Scanner) (rating domain.Rating, quit bool) {
	for {
		fmt.Fprint(cmd.OutOrStdout(), "Rate 1 again, 2 hard, 3 good, 4 easy (q to quit): ")
		if !in.Scan() {
			return 0, true
		}
		answer := strings.TrimSpace(in.Text())
		if answer == "q" {
			return 0, true
		}
		if n, err := strconv.Atoi(answer); err == nil && domain.Rating(n).Valid() {
			return domain.Rating(n), false
		}
	}
}

var wipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Delete all review progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if all, _ := cmd.Flags().GetBool("all"); all {
			if err := a.db.WipeAll(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Deleted all kanji, words and review progress.")
			return nil
		}
		if err := a.db.Wipe(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Deleted all review progress.")
		return nil
	},
}

func init() {
	wipeCmd.Flags().Bool("all", false, "Also delete known kanji and stored words")
}
