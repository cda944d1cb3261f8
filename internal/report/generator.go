// Package report provides hash report generation functionality.
package report

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Supported report formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// Header is the fixed column row of the CSV report.
var Header = []string{"File Path", "Hash"}

// ErrWriteFailure is returned when the report cannot be written.
var ErrWriteFailure = errors.New("report write failure")

// Record is one hashed file.
type Record struct {
	FilePath string `json:"filePath"`
	Digest   string `json:"hash"`
}

// Generator writes hash reports in one format.
type Generator struct {
	format string
}

// New creates a new report generator. An empty format selects CSV.
func New(format string) (*Generator, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatCSV
	}

	switch format {
	case FormatCSV, FormatJSON:
	default:
		return nil, fmt.Errorf("unsupported report format %q (want %s or %s)", format, FormatCSV, FormatJSON)
	}

	return &Generator{format: format}, nil
}

// Format returns the report format.
func (g *Generator) Format() string {
	return g.format
}

// DefaultFileName returns the report file name used when none is configured.
func (g *Generator) DefaultFileName() string {
	return "output." + g.format
}

// Write writes records to outputPath, replacing any existing file.
func (g *Generator) Write(records []Record, outputPath string) (err error) {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("%w: failed to create %s: %w", ErrWriteFailure, outputPath, err)
	}

	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: failed to close %s: %w", ErrWriteFailure, outputPath, cerr)
		}
	}()

	switch g.format {
	case FormatJSON:
		err = g.writeJSON(file, records)
	default:
		err = g.writeCSV(file, records)
	}

	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWriteFailure, outputPath, err)
	}

	return nil
}

func (g *Generator) writeCSV(file *os.File, records []Record) error {
	w := csv.NewWriter(file)

	if err := w.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, record := range records {
		if err := w.Write([]string{record.FilePath, record.Digest}); err != nil {
			return fmt.Errorf("failed to write row for %s: %w", record.FilePath, err)
		}
	}

	w.Flush()

	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}

	return nil
}

func (g *Generator) writeJSON(file *os.File, records []Record) error {
	if records == nil {
		records = []Record{}
	}

	buf := bufio.NewWriter(file)
	enc := json.NewEncoder(buf)
	enc.SetIndent("", "  ")

	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}

	if err := buf.Flush(); err != nil {
		return fmt.Errorf("failed to flush json: %w", err)
	}

	return nil
}

// Write writes records as CSV to outputPath.
func Write(records []Record, outputPath string) error {
	g, err := New(FormatCSV)
	if err != nil {
		return err
	}

	return g.Write(records, outputPath)
}
