// Copyright © 2021 One Concern

package resource

import (
	"fmt"
	"os"

	"github.com/oneconcern/butleruri/pkg/uri"
)

// TestTmpEnvVar overrides where temporary local copies of remote
// resources are created. Primarily used by test harnesses.
const TestTmpEnvVar = "BUTLERURI_TEST_TMP"

// TempDir resolves the directory for temporary local copies: the
// explicit override wins, then BUTLERURI_TEST_TMP, then the system
// temp directory.
func TempDir(override string) string {
	if override != "" {
		return override
	}
	if dir := os.Getenv(TestTmpEnvVar); dir != "" {
		return dir
	}
	return os.TempDir()
}

// TempFile creates a temporary file to hold a local copy of the
// supplied URI, preserving its file extension so that consumers
// sniffing on extensions keep working.
func TempFile(u uri.URI, dir string) (*os.File, error) {
	f, err := os.CreateTemp(TempDir(dir), "butleruri-*"+u.Extension())
	if err != nil {
		return nil, fmt.Errorf("creating temporary file for %s: %w", u, err)
	}
	return f, nil
}
