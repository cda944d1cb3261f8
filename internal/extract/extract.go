// Package extract unpacks archives through an ordered cascade of
// extraction strategies.
//
// Each strategy either succeeds, reports a *MethodError so the cascade
// moves on to the next strategy, or returns any other error, which aborts
// the cascade. Files written by a strategy that later failed are left in
// place; the next strategy writes over them.
package extract

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrExtractionExhausted is matched by an *ExhaustedError.
	ErrExtractionExhausted = errors.New("all extraction methods failed")
	// ErrArchiveUnreadable is returned when the archive itself cannot be accessed.
	ErrArchiveUnreadable = errors.New("archive unreadable")
)

// Strategy is one extraction method of the cascade.
type Strategy interface {
	// Name identifies the method in progress output and configuration.
	Name() string
	// Extract unpacks archivePath into dest.
	Extract(archivePath, password, dest string) error
}

// MethodError reports that a strategy could not handle the archive and the
// cascade should try the next one.
type MethodError struct {
	Method string
	Err    error
}

func (e *MethodError) Error() string {
	return fmt.Sprintf("%s: %v", e.Method, e.Err)
}

func (e *MethodError) Unwrap() error {
	return e.Err
}

func methodFailed(method string, err error) error {
	return &MethodError{Method: method, Err: err}
}

// ExhaustedError is returned when every strategy failed.
type ExhaustedError struct {
	Archive  string
	Attempts []*MethodError
}

func (e *ExhaustedError) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s: %v", e.Archive, ErrExtractionExhausted)

	for _, attempt := range e.Attempts {
		fmt.Fprintf(&b, "; %v", attempt)
	}

	return b.String()
}

// Is reports whether target is ErrExtractionExhausted.
func (e *ExhaustedError) Is(target error) bool {
	return target == ErrExtractionExhausted
}

// Extractor runs the extraction cascade.
type Extractor struct {
	strategies []Strategy
	out        io.Writer
	verbose    bool
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithStrategies replaces the default cascade.
func WithStrategies(strategies ...Strategy) Option {
	return func(e *Extractor) {
		e.strategies = strategies
	}
}

// WithProgress writes one progress line per attempted method to w.
func WithProgress(w io.Writer) Option {
	return func(e *Extractor) {
		e.out = w
	}
}

// WithVerbose logs the error of every failed method.
func WithVerbose(verbose bool) Option {
	return func(e *Extractor) {
		e.verbose = verbose
	}
}

// New creates an extractor. Without WithStrategies the cascade is
// zip, archive, external (tool located on PATH or at the platform default).
func New(opts ...Option) *Extractor {
	e := &Extractor{
		strategies: []Strategy{NewZipStrategy(), NewArchiveStrategy(), NewExternalStrategy("")},
		out:        io.Discard,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Strategies returns the cascade in attempt order.
func (e *Extractor) Strategies() []Strategy {
	return e.strategies
}

// Extract unpacks archivePath into OutputDir(archivePath) and returns that
// directory. Strategies are attempted in order and exactly once each.
func (e *Extractor) Extract(archivePath, password string) (string, error) {
	if _, err := os.Stat(archivePath); err != nil {
		return "", fmt.Errorf("%w: %w", ErrArchiveUnreadable, err)
	}

	dest := OutputDir(archivePath)
	exhausted := &ExhaustedError{Archive: archivePath}

	for _, strategy := range e.strategies {
		fmt.Fprintf(e.out, "Trying %s extraction...", strategy.Name())

		err := strategy.Extract(archivePath, password, dest)
		if err == nil {
			fmt.Fprintln(e.out, "SUCCESS!")

			return dest, nil
		}

		fmt.Fprintln(e.out, "FAILED")

		var methodErr *MethodError
		if !errors.As(err, &methodErr) {
			return "", fmt.Errorf("failed to extract %s with %s: %w", archivePath, strategy.Name(), err)
		}

		if e.verbose {
			log.Printf("%s extraction of %s failed: %v", strategy.Name(), archivePath, methodErr.Err)
		}

		exhausted.Attempts = append(exhausted.Attempts, methodErr)
	}

	return "", exhausted
}

// OutputDir derives the extraction directory by stripping the final
// extension of archivePath. Archives without an extension get an
// "_extracted" suffix so the directory never collides with the archive.
func OutputDir(archivePath string) string {
	clean := filepath.Clean(archivePath)

	ext := filepath.Ext(clean)
	if ext == "" || ext == clean || strings.HasSuffix(clean, string(filepath.Separator)+ext) {
		return clean + "_extracted"
	}

	return strings.TrimSuffix(clean, ext)
}

// isFatal reports errors that no other strategy could get past.
func isFatal(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission)
}

// classify turns an error from an extraction library into a method failure
// unless it is fatal.
func classify(method string, err error) error {
	if isFatal(err) {
		return err
	}

	return methodFailed(method, err)
}
