// Package config loads and validates catat configuration.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// memoryDSN selects an in-memory SQLite database and is never expanded.
const memoryDSN = ":memory:"

// ExpandPath resolves a leading ~ and $VAR references, then cleans the
// result. Empty paths and ":memory:" pass through unchanged.
func ExpandPath(path string) string {
	if path == "" || path == memoryDSN {
		return path
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = home + strings.TrimPrefix(path, "~")
		}
	}

	return filepath.Clean(os.ExpandEnv(path))
}
