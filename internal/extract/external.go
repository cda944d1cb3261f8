package extract

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
)

// ErrToolNotFound is returned when no 7-Zip binary can be located.
var ErrToolNotFound = errors.New("7-Zip binary not found")

// windowsToolPath is where the 7-Zip installer puts the binary.
const windowsToolPath = `C:\Program Files\7-Zip\7z.exe`

// ExternalStrategy shells out to a 7-Zip binary. The process runs without
// a timeout and its output streams are discarded.
type ExternalStrategy struct {
	toolPath string
}

// NewExternalStrategy creates the external-tool extraction method. An empty
// toolPath selects the platform default.
func NewExternalStrategy(toolPath string) *ExternalStrategy {
	return &ExternalStrategy{toolPath: toolPath}
}

// Name implements Strategy.
func (s *ExternalStrategy) Name() string {
	return "external"
}

// Extract implements Strategy. A missing tool or a non-zero exit is a
// method failure.
func (s *ExternalStrategy) Extract(archivePath, password, dest string) error {
	tool, err := s.Locate()
	if err != nil {
		return methodFailed(s.Name(), err)
	}

	cmd := exec.Command(tool, Args(archivePath, password, dest)...) //nolint:gosec // tool path comes from configuration
	if err := cmd.Run(); err != nil {
		return methodFailed(s.Name(), fmt.Errorf("%s failed: %w", tool, err))
	}

	return nil
}

// Locate resolves the binary to run.
func (s *ExternalStrategy) Locate() (string, error) {
	candidates := defaultToolCandidates()
	if s.toolPath != "" {
		candidates = []string{s.toolPath}
	}

	for _, candidate := range candidates {
		if path, err := exec.LookPath(candidate); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("%w (tried %v)", ErrToolNotFound, candidates)
}

// Args builds the 7-Zip command line: extract archivePath into dest with
// the given password, skipping files that already exist.
func Args(archivePath, password, dest string) []string {
	return []string{"e", archivePath, "-p" + password, "-o" + dest, "-aos"}
}

func defaultToolCandidates() []string {
	if runtime.GOOS == "windows" {
		return []string{windowsToolPath, "7z.exe"}
	}

	return []string{"7z", "7zz", "7za"}
}
