// Package hasher provides streaming file hashing functionality.
package hasher

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
)

// chunkSize is the read buffer used when streaming a file into a digest.
const chunkSize = 8 * 1024

var (
	// ErrUnsupportedAlgorithm is returned for digest names outside the registry.
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")
	// ErrFileUnreadable is returned when a file cannot be opened or read.
	ErrFileUnreadable = errors.New("file unreadable")
)

// FileHasher provides file hashing functionality for one digest algorithm.
type FileHasher struct {
	algorithm Algorithm
}

// NewFileHasher creates a new file hasher for the named algorithm.
func NewFileHasher(name string) (*FileHasher, error) {
	algorithm, err := ParseAlgorithm(name)
	if err != nil {
		return nil, err
	}

	return &FileHasher{algorithm: algorithm}, nil
}

// Algorithm returns the canonical algorithm the hasher was created with.
func (h *FileHasher) Algorithm() Algorithm {
	return h.algorithm
}

// HashFile returns the lowercase hex digest of the file contents.
func (h *FileHasher) HashFile(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("%w: failed to open file %s: %w", ErrFileUnreadable, filePath, err)
	}
	defer file.Close()

	digest := registry[h.algorithm]()
	buf := make([]byte, chunkSize)

	if _, err := io.CopyBuffer(digest, file, buf); err != nil {
		return "", fmt.Errorf("%w: failed to hash file %s: %w", ErrFileUnreadable, filePath, err)
	}

	return hex.EncodeToString(digest.Sum(nil)), nil
}

// Hash computes the digest of filePath with the named algorithm.
func Hash(filePath, algorithm string) (string, error) {
	h, err := NewFileHasher(algorithm)
	if err != nil {
		return "", err
	}

	return h.HashFile(filePath)
}
