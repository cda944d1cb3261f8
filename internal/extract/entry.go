package extract

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// errIllegalPath marks entries that would land outside the output directory.
var errIllegalPath = errors.New("illegal entry path")

// safeJoin resolves an archive entry name below dest.
func safeJoin(dest, name string) (string, error) {
	cleaned := filepath.FromSlash(strings.ReplaceAll(name, `\`, "/"))
	if cleaned == "" || filepath.IsAbs(cleaned) || filepath.VolumeName(cleaned) != "" ||
		strings.HasPrefix(cleaned, string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", errIllegalPath, name)
	}

	target := filepath.Join(dest, cleaned)

	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", errIllegalPath, name)
	}

	return target, nil
}

// writeEntry copies r into target, creating parent directories and
// replacing any existing file. The owner always keeps read/write access so
// the extracted tree can be hashed.
func writeEntry(target string, r io.Reader, mode fs.FileMode) (err error) {
	if err := os.MkdirAll(filepath.Dir(target), 0750); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", target, err)
	}

	file, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode.Perm()|0600)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", target, err)
	}

	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", target, cerr)
		}
	}()

	if _, err := io.Copy(file, r); err != nil {
		return fmt.Errorf("failed to write %s: %w", target, err)
	}

	return nil
}

// makeDir creates an extracted directory entry.
func makeDir(target string) error {
	if err := os.MkdirAll(target, 0750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", target, err)
	}

	return nil
}
