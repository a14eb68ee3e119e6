// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package corpus collects the Intent and Reality text sources from a
// repository checkout. It is the thin acquisition collaborator in
// front of the measurement pipeline: glob patterns select files, the
// optional exported commit log joins the reality side, and every
// source carries a stable identifier (its relative path) so repeated
// runs see the same inputs in the same order.
package corpus

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/pdiddy/drift-engine/pkg/types"
)

// Source is one text blob with a stable identifier.
type Source struct {
	// ID is the source's relative path, or "commit-log" for the
	// exported commit history.
	ID string `json:"id" yaml:"id"`

	// Text is the raw file content.
	Text string `json:"text" yaml:"text"`
}

// Corpora holds the two collected source lists.
type Corpora struct {
	Intent  []Source
	Reality []Source
}

// Collect gathers intent and reality sources per the configuration.
// Source order is deterministic: sorted by ID within each corpus. A
// file matched by both an intent and a reality glob counts on both
// sides; the extractor treats the corpora independently.
func Collect(cfg types.CorpusConfig) (Corpora, error) {
	root := cfg.RootDir
	if root == "" {
		root = "."
	}

	intent, err := collectGlobs(root, cfg.IntentGlobs)
	if err != nil {
		return Corpora{}, fmt.Errorf("collecting intent sources: %w", err)
	}

	reality, err := collectGlobs(root, cfg.RealityGlobs)
	if err != nil {
		return Corpora{}, fmt.Errorf("collecting reality sources: %w", err)
	}

	if cfg.CommitLog != "" {
		text, err := os.ReadFile(cfg.CommitLog)
		if err != nil {
			return Corpora{}, fmt.Errorf("reading commit log: %w", err)
		}
		reality = append(reality, Source{ID: "commit-log", Text: string(text)})
	}

	return Corpora{Intent: intent, Reality: reality}, nil
}

// collectGlobs resolves doublestar patterns against root and reads the
// matched files. Each file is read once even when several patterns
// match it.
func collectGlobs(root string, patterns []string) ([]Source, error) {
	fsys := os.DirFS(root)
	matched := map[string]bool{}

	for _, pattern := range patterns {
		paths, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		for _, p := range paths {
			matched[p] = true
		}
	}

	ids := make([]string, 0, len(matched))
	for p := range matched {
		ids = append(ids, p)
	}
	sort.Strings(ids)

	sources := make([]Source, 0, len(ids))
	for _, id := range ids {
		info, err := fs.Stat(fsys, id)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", id, err)
		}
		if info.IsDir() {
			continue
		}
		text, err := fs.ReadFile(fsys, id)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", filepath.Join(root, id), err)
		}
		sources = append(sources, Source{ID: id, Text: string(text)})
	}
	return sources, nil
}
