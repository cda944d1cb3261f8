// Package ignore handles exclude patterns for the directory walk.
package ignore

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
)

// FileName is the per-directory ignore file read from the walk root.
const FileName = ".hashscoutignore"

// Matcher decides which walk entries are excluded.
type Matcher struct {
	patterns []Pattern
}

// Pattern represents an exclude pattern.
type Pattern struct {
	pattern string
	negate  bool // true if pattern starts with '!'
	dirOnly bool // true if pattern ends with '/'
}

// New creates a matcher seeded with the given patterns.
func New(patterns ...string) *Matcher {
	m := &Matcher{
		patterns: make([]Pattern, 0, len(patterns)),
	}
	m.Add(patterns...)

	return m
}

// Add appends patterns; blank lines and '#' comments are ignored.
func (m *Matcher) Add(patterns ...string) {
	for _, line := range patterns {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		p := Pattern{pattern: line}

		if strings.HasPrefix(line, "!") {
			p.pattern = strings.TrimPrefix(line, "!")
			p.negate = true
		}

		if strings.HasSuffix(p.pattern, "/") {
			p.pattern = strings.TrimSuffix(p.pattern, "/")
			p.dirOnly = true
		}

		p.pattern = strings.TrimPrefix(p.pattern, "/")
		if p.pattern == "" {
			continue
		}

		m.patterns = append(m.patterns, p)
	}
}

// LoadFromFile loads patterns from an ignore file. A missing file is not an error.
func (m *Matcher) LoadFromFile(filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return fmt.Errorf("failed to open ignore file: %w", err)
	}
	defer file.Close()

	return m.LoadFromReader(file)
}

// LoadFromReader loads patterns from a reader, one per line.
func (m *Matcher) LoadFromReader(reader io.Reader) error {
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		m.Add(scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read patterns: %w", err)
	}

	return nil
}

// Empty reports whether the matcher holds no patterns.
func (m *Matcher) Empty() bool {
	return len(m.patterns) == 0
}

// Match reports whether relPath (slash-separated, relative to the walk
// root) is excluded. Later patterns override earlier ones.
func (m *Matcher) Match(relPath string, isDir bool) bool {
	excluded := false

	for _, p := range m.patterns {
		if p.dirOnly && !isDir {
			if !underDir(p.pattern, relPath) {
				continue
			}
		} else if !matchPattern(p.pattern, relPath) {
			continue
		}

		excluded = !p.negate
	}

	return excluded
}

// Patterns returns the loaded patterns in their original textual form.
func (m *Matcher) Patterns() []string {
	out := make([]string, 0, len(m.patterns))

	for _, p := range m.patterns {
		s := p.pattern
		if p.dirOnly {
			s += "/"
		}

		if p.negate {
			s = "!" + s
		}

		out = append(out, s)
	}

	return out
}

// matchPattern checks a pattern against the full relative path and its basename.
func matchPattern(pattern, relPath string) bool {
	if pattern == relPath {
		return true
	}

	if ok, err := path.Match(pattern, path.Base(relPath)); err == nil && ok {
		return true
	}

	if ok, err := path.Match(pattern, relPath); err == nil && ok {
		return true
	}

	// "dir/file" patterns match at any depth
	if strings.Contains(pattern, "/") && strings.HasSuffix(relPath, "/"+pattern) {
		return true
	}

	return underDir(pattern, relPath)
}

// underDir reports whether relPath lives below a directory matching pattern.
func underDir(pattern, relPath string) bool {
	parts := strings.Split(relPath, "/")
	for i := 1; i < len(parts); i++ {
		dir := strings.Join(parts[:i], "/")
		if dir == pattern {
			return true
		}

		if ok, err := path.Match(pattern, parts[i-1]); err == nil && ok {
			return true
		}
	}

	return false
}
