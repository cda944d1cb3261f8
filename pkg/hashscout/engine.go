// Package hashscout provides the main API for hashing directory trees and archives.
package hashscout

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/sivchari/hashscout/internal/config"
	"github.com/sivchari/hashscout/internal/extract"
	"github.com/sivchari/hashscout/internal/hasher"
	"github.com/sivchari/hashscout/internal/ignore"
	"github.com/sivchari/hashscout/internal/report"
	"github.com/sivchari/hashscout/internal/walk"
)

// ErrInputUnreadable is returned when the input path cannot be accessed.
var ErrInputUnreadable = errors.New("input unreadable")

// HashRecord is one hashed file in discovery order.
type HashRecord = report.Record

// Result describes a completed run.
type Result struct {
	Records    []HashRecord
	WalkRoot   string
	ReportPath string
	Duration   time.Duration
}

// Engine is the main hashing engine.
type Engine struct {
	config    *config.Config
	hasher    *hasher.FileHasher
	extractor *extract.Extractor
	reporter  *report.Generator
	out       io.Writer
}

// NewEngine creates a new engine. Progress messages are written to out.
func NewEngine(cfg *config.Config, out io.Writer) (*Engine, error) {
	if out == nil {
		out = io.Discard
	}

	fileHasher, err := hasher.NewFileHasher(cfg.Algorithm)
	if err != nil {
		return nil, fmt.Errorf("failed to create hasher: %w", err)
	}

	strategies, err := extract.StrategiesByName(cfg.Extraction.Methods, cfg.Extraction.SevenZipPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create extractor: %w", err)
	}

	reporter, err := report.New(cfg.Output.Format)
	if err != nil {
		return nil, fmt.Errorf("failed to create reporter: %w", err)
	}

	return &Engine{
		config: cfg,
		hasher: fileHasher,
		extractor: extract.New(
			extract.WithStrategies(strategies...),
			extract.WithProgress(out),
			extract.WithVerbose(cfg.Verbose),
		),
		reporter: reporter,
		out:      out,
	}, nil
}

// Run hashes every file reachable from input and writes the report.
// A regular file is treated as an archive: it is hashed itself, then
// extracted, and the extracted directory is walked. A directory is walked
// directly. The report is written once, after all hashing, next to the
// walk root.
func (e *Engine) Run(input string) (*Result, error) {
	start := time.Now()

	info, err := os.Stat(input)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInputUnreadable, err)
	}

	var (
		records  []HashRecord
		walkRoot string
	)

	if info.IsDir() {
		fmt.Fprintf(e.out, "%s is a directory...\n", input)

		walkRoot = input
	} else {
		fmt.Fprintf(e.out, "%s is a file. Extracting...\n", input)

		digest, err := e.hasher.HashFile(input)
		if err != nil {
			return nil, fmt.Errorf("failed to hash archive: %w", err)
		}

		records = append(records, HashRecord{FilePath: input, Digest: digest})

		fmt.Fprintf(e.out, "\nAttempting to extract %s into %s...\n", input, extract.OutputDir(input))

		walkRoot, err = e.extractor.Extract(input, e.config.Password)
		if err != nil {
			if errors.Is(err, extract.ErrExtractionExhausted) {
				fmt.Fprintln(e.out, "NO OTHER ALTERNATIVES EXIST - EXITING...")
			}

			return nil, fmt.Errorf("failed to extract archive: %w", err)
		}

		fmt.Fprintln(e.out)
	}

	walked, err := e.hashTree(walkRoot)
	if err != nil {
		return nil, err
	}

	records = append(records, walked...)

	reportPath := e.ReportPath(walkRoot)

	fmt.Fprintln(e.out, "\nCollected hashes:")

	for _, record := range records {
		fmt.Fprintf(e.out, "%s: %s\n", record.FilePath, record.Digest)
	}

	if err := e.reporter.Write(records, reportPath); err != nil {
		return nil, fmt.Errorf("failed to generate report: %w", err)
	}

	fmt.Fprintf(e.out, "\nWrote %d hashes to %s\n", len(records), reportPath)

	if e.config.Verbose {
		log.Printf("Hashing completed in %v", time.Since(start))
	}

	return &Result{
		Records:    records,
		WalkRoot:   walkRoot,
		ReportPath: reportPath,
		Duration:   time.Since(start),
	}, nil
}

// hashTree walks root and hashes every regular file in discovery order.
func (e *Engine) hashTree(root string) ([]HashRecord, error) {
	matcher, err := e.matcher(root)
	if err != nil {
		return nil, err
	}

	walker := walk.New(walk.WithMatcher(matcher), walk.WithVerbose(e.config.Verbose))

	fmt.Fprintln(e.out, "Traversing directory...")

	var records []HashRecord

	for path, err := range walker.Files(root) {
		if err != nil {
			return nil, fmt.Errorf("failed to walk directory: %w", err)
		}

		digest, err := e.hasher.HashFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to hash file: %w", err)
		}

		fmt.Fprintf(e.out, "Found %s\n", path)

		records = append(records, HashRecord{FilePath: path, Digest: digest})
	}

	if skipped := walker.Skipped(); len(skipped) > 0 && e.config.Verbose {
		log.Printf("Skipped %d entries that were not readable regular files", len(skipped))
	}

	return records, nil
}

// matcher combines configured exclude patterns with the root's ignore file.
func (e *Engine) matcher(root string) (*ignore.Matcher, error) {
	matcher := ignore.New(e.config.Walk.Exclude...)

	if e.config.Walk.IgnoreFile != "" {
		if err := matcher.LoadFromFile(filepath.Join(root, e.config.Walk.IgnoreFile)); err != nil {
			return nil, fmt.Errorf("failed to load ignore file: %w", err)
		}
	}

	return matcher, nil
}

// ReportPath returns where the report for walkRoot is written: a sibling of
// the walk root, inside its parent directory. Relative roots such as "."
// are made absolute first so the report never lands inside the walk root.
func (e *Engine) ReportPath(walkRoot string) string {
	name := e.config.Output.FileName
	if name == "" {
		name = e.reporter.DefaultFileName()
	}

	root := filepath.Clean(walkRoot)
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}

	return filepath.Join(filepath.Dir(root), name)
}
