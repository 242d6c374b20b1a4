package utils

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ResolveBinaryPath finds an external tool binary, checking PATH and
// expanding a tilde prefix. Unresolvable names are returned as given so
// the eventual exec failure names the missing tool.
func ResolveBinaryPath(binaryPath string) string {
	if filepath.IsAbs(binaryPath) {
		return binaryPath
	}

	if path, err := exec.LookPath(binaryPath); err == nil {
		return path
	}

	if strings.HasPrefix(binaryPath, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, binaryPath[1:])
		}
	}

	return binaryPath
}
