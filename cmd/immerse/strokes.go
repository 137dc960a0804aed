package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/conorfennell/immerse/internal/domain"
	"github.com/conorfennell/immerse/internal/kanjivg"
)

var strokesCmd = &cobra.Command{
	Use:   "strokes <kanji>",
	Short: "Print the stroke-order SVG files of a kanji",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		k, err := parseKanji(args[0])
		if err != nil {
			return err
		}
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		ix, err := kanjivg.LoadIndex(cfg.KanjiVG.Dir)
		if errors.Is(err, domain.ErrNotFound) {
			// Older checkouts have no index; fall back to the canonical name.
			fmt.Fprintln(out, filepath.Join(cfg.KanjiVG.Dir, kanjivg.FileName(k)))
			return nil
		}
		if err != nil {
			return err
		}
		files, err := ix.Files(k)
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Fprintln(out, f)
		}
		return nil
	},
}

var strokesSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Download or update the KanjiVG stroke data",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := kanjivg.Sync(cmd.Context(), cfg.KanjiVG.URL, cfg.KanjiVG.Dir, cmd.ErrOrStderr()); err != nil {
			return err
		}
		ix, err := kanjivg.LoadIndex(cfg.KanjiVG.Dir)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Stroke data for %d characters in %s\n", ix.Len(), cfg.KanjiVG.Dir)
		return nil
	},
}

func init() {
	strokesCmd.PersistentFlags().String("kanjivg-dir", "", "Directory of the KanjiVG checkout")
	strokesCmd.AddCommand(strokesSyncCmd)
}
