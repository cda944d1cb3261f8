package extract

import "fmt"

// Method names accepted in configuration.
const (
	MethodZip      = "zip"
	MethodArchive  = "archive"
	MethodExternal = "external"
)

// DefaultMethods is the cascade order used when none is configured.
func DefaultMethods() []string {
	return []string{MethodZip, MethodArchive, MethodExternal}
}

// StrategiesByName builds a cascade from method names. sevenZipPath
// configures the external method.
func StrategiesByName(names []string, sevenZipPath string) ([]Strategy, error) {
	if len(names) == 0 {
		names = DefaultMethods()
	}

	strategies := make([]Strategy, 0, len(names))
	seen := make(map[string]bool, len(names))

	for _, name := range names {
		if seen[name] {
			return nil, fmt.Errorf("extraction method %q listed twice", name)
		}

		seen[name] = true

		switch name {
		case MethodZip:
			strategies = append(strategies, NewZipStrategy())
		case MethodArchive:
			strategies = append(strategies, NewArchiveStrategy())
		case MethodExternal:
			strategies = append(strategies, NewExternalStrategy(sevenZipPath))
		default:
			return nil, fmt.Errorf("unknown extraction method %q (want %s, %s or %s)",
				name, MethodZip, MethodArchive, MethodExternal)
		}
	}

	return strategies, nil
}
