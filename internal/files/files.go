// Package files implements generic file tools missing from the standard library.
package files

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Exists returns true if file or directory exists.
func Exists(filePath string) bool {
	_, err := os.Stat(filePath)
	return err == nil
}

// ReplaceTildeInDir by the current user's home directory. Returns dir if it doesn't start with "~".
//
// Only the "~" and "~/..." forms are supported, "~otheruser/..." returns an error.
func ReplaceTildeInDir(dir string) (string, error) {
	if dir != "~" && !strings.HasPrefix(dir, "~/") {
		if strings.HasPrefix(dir, "~") {
			return dir, errors.Errorf("home directory of other users not supported in path %q", dir)
		}
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return dir, errors.Wrapf(err, "failed to lookup home directory for path %q", dir)
	}
	return filepath.Join(home, strings.TrimPrefix(dir, "~")), nil
}
