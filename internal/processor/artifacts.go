package processor

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"slices"
)

// artifacts is the release list of temporary files created during a run.
// Every tracked path is removed by release, whether or not the engine call
// that was meant to create it succeeded.
type artifacts struct {
	paths []string
}

// track registers path for removal and returns it.
func (a *artifacts) track(path string) string {
	if !slices.Contains(a.paths, path) {
		a.paths = append(a.paths, path)
	}
	return path
}

// release removes every tracked file and returns the ones that existed.
// Missing files are ignored; other failures are logged and otherwise
// ignored so a cleanup problem never masks the run's own result.
func (a *artifacts) release(logger *slog.Logger) []string {
	var removed []string
	for _, path := range a.paths {
		err := os.Remove(path)
		switch {
		case err == nil:
			removed = append(removed, path)
			logger.Debug("removed temporary file", "path", path)
		case errors.Is(err, fs.ErrNotExist):
		default:
			logger.Warn("failed to remove temporary file", "path", path, "error", err)
		}
	}
	a.paths = nil
	return removed
}
