package main

import (
	"errors"

	"github.com/sivchari/hashscout/internal/config"
	"github.com/sivchari/hashscout/internal/extract"
	"github.com/sivchari/hashscout/internal/hasher"
	"github.com/sivchari/hashscout/internal/report"
	"github.com/sivchari/hashscout/internal/walk"
	"github.com/sivchari/hashscout/pkg/hashscout"
)

// Process exit codes.
const (
	exitOK          = 0
	exitError       = 1
	exitUsage       = 2
	exitUnreadable  = 3
	exitExtraction  = 4
	exitWriteReport = 5
)

// exitCode maps an error returned by the command tree to a process exit code.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, extract.ErrExtractionExhausted):
		return exitExtraction
	case errors.Is(err, report.ErrWriteFailure):
		return exitWriteReport
	case errors.Is(err, hasher.ErrUnsupportedAlgorithm), errors.Is(err, config.ErrInvalid):
		return exitUsage
	case errors.Is(err, hashscout.ErrInputUnreadable),
		errors.Is(err, hasher.ErrFileUnreadable),
		errors.Is(err, walk.ErrDirectoryUnreadable),
		errors.Is(err, extract.ErrArchiveUnreadable):
		return exitUnreadable
	default:
		return exitError
	}
}
