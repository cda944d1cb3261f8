// Package walk enumerates the regular files below a walk root.
package walk

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"log"
	"os"
	"path/filepath"

	"github.com/sivchari/hashscout/internal/ignore"
)

// ErrDirectoryUnreadable is returned when the walk root cannot be read.
var ErrDirectoryUnreadable = errors.New("directory unreadable")

// Walker discovers files under a root directory.
type Walker struct {
	matcher *ignore.Matcher
	verbose bool
	skipped []string
}

// Option configures a Walker.
type Option func(*Walker)

// WithMatcher excludes entries matched by m.
func WithMatcher(m *ignore.Matcher) Option {
	return func(w *Walker) {
		w.matcher = m
	}
}

// WithVerbose logs every skipped entry.
func WithVerbose(verbose bool) Option {
	return func(w *Walker) {
		w.verbose = verbose
	}
}

// New creates a walker.
func New(opts ...Option) *Walker {
	w := &Walker{
		matcher: ignore.New(),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Files yields the path of every regular file below root, joined onto root
// as given. A root that is itself a symbolic link is resolved; links below
// it are neither followed nor yielded, and other non-regular entries are
// skipped. Unreadable subdirectories are skipped with a warning; an
// unreadable root yields ErrDirectoryUnreadable and ends the sequence.
// Order follows the file system and the sequence cannot be restarted
// mid-walk.
func (w *Walker) Files(root string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		resolved, err := resolveRoot(root)
		if err != nil {
			yield("", err)

			return
		}

		stopped := false

		walkErr := filepath.WalkDir(resolved, func(path string, d fs.DirEntry, err error) error {
			if path == resolved {
				if err != nil {
					return fmt.Errorf("%w: %s: %w", ErrDirectoryUnreadable, root, err)
				}

				return nil
			}

			rel, relErr := filepath.Rel(resolved, path)
			if relErr != nil {
				return relErr
			}

			display := filepath.Join(root, rel)

			if err != nil {
				log.Printf("Warning: skipping unreadable entry %s: %v", display, err)
				w.skipped = append(w.skipped, display)

				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}

				return nil
			}

			if w.excluded(rel, d.IsDir()) {
				if w.verbose {
					log.Printf("Excluding %s", display)
				}

				if d.IsDir() {
					return filepath.SkipDir
				}

				return nil
			}

			if d.IsDir() {
				return nil
			}

			if !d.Type().IsRegular() {
				if w.verbose {
					log.Printf("Skipping non-regular file %s (%s)", display, d.Type())
				}

				w.skipped = append(w.skipped, display)

				return nil
			}

			if !yield(display, nil) {
				stopped = true

				return filepath.SkipAll
			}

			return nil
		})

		if walkErr != nil && !stopped {
			yield("", walkErr)
		}
	}
}

// resolveRoot follows a symbolic link at root and checks that the target
// is a directory.
func resolveRoot(root string) (string, error) {
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrDirectoryUnreadable, root, err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrDirectoryUnreadable, root, err)
	}

	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrDirectoryUnreadable, root)
	}

	return resolved, nil
}

// Skipped returns entries passed over during the most recent walks because
// they were unreadable or not regular files.
func (w *Walker) Skipped() []string {
	return w.skipped
}

func (w *Walker) excluded(rel string, isDir bool) bool {
	if w.matcher == nil || w.matcher.Empty() {
		return false
	}

	return w.matcher.Match(filepath.ToSlash(rel), isDir)
}
