// Package kanjivg keeps a local copy of the KanjiVG stroke-order data and
// looks up the SVG files of a kanji.
package kanjivg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"

	"github.com/conorfennell/immerse/internal/domain"
)

// DefaultURL is the upstream KanjiVG repository.
const DefaultURL = "https://github.com/KanjiVG/kanjivg.git"

// IndexFile is the name of the index mapping kanji to their SVG files.
const IndexFile = "kvg-index.json"

// cloneDepth limits the history fetched on the first clone. Zero fetches
// everything.
var cloneDepth = 1

// Sync clones the repository at url into dir if it doesn't exist there,
// or pulls the latest changes if it does.
func Sync(ctx context.Context, url, dir string, progress io.Writer) error {
	_, err := os.Stat(dir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		slog.Info("Cloning stroke data...", "url", url, "dir", dir)
		_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
			URL:      url,
			Depth:    cloneDepth,
			Progress: progress,
		})
		if err != nil {
			return fmt.Errorf("failed to clone repo %s: %w", url, err)
		}
		slog.Info("Clone successful.")
	case err == nil:
		slog.Info("Pulling stroke data...", "dir", dir)
		repo, err := git.PlainOpen(dir)
		if err != nil {
			return fmt.Errorf("failed to open existing repo at %s: %w", dir, err)
		}

		worktree, err := repo.Worktree()
		if err != nil {
			return fmt.Errorf("failed to get worktree for repo at %s: %w", dir, err)
		}

		err = worktree.PullContext(ctx, &git.PullOptions{
			RemoteName: "origin",
			Progress:   progress,
		})
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return fmt.Errorf("failed to pull changes for repo at %s: %w", dir, err)
		}
		slog.Info("Pull successful (or already up-to-date).")
	default:
		return fmt.Errorf("error checking path %s: %w", dir, err)
	}
	return nil
}

// FileName returns the canonical SVG path of k relative to the repository root.
func FileName(k rune) string {
	return fmt.Sprintf("kanji/%05x.svg", k)
}

// Index maps each kanji to its SVG files.
type Index struct {
	dir   string
	files map[string][]string
}

// LoadIndex reads the index of the repository in dir.
func LoadIndex(dir string) (*Index, error) {
	raw, err := os.ReadFile(filepath.Join(dir, IndexFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s in %s: %w", IndexFile, dir, domain.ErrNotFound)
		}
		return nil, err
	}

	var files map[string][]string
	if err := json.Unmarshal(raw, &files); err != nil {
		return nil, fmt.Errorf("parse %s: %w", IndexFile, err)
	}
	return &Index{dir: dir, files: files}, nil
}

// Len returns the number of indexed characters.
func (ix *Index) Len() int {
	return len(ix.files)
}

// Files returns the absolute paths of the SVG files of k, main file first.
func (ix *Index) Files(k rune) ([]string, error) {
	names, ok := ix.files[string(k)]
	if !ok || len(names) == 0 {
		return nil, fmt.Errorf("stroke data for %q: %w", string(k), domain.ErrNotFound)
	}
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(ix.dir, "kanji", name))
	}
	return out, nil
}
