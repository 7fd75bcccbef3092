package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

// OwnerReadWriteExec is the mode of directories created for renio data.
const OwnerReadWriteExec = 0o700

// GetUserHomeDirectory returns the user home directory if one is set.
func GetUserHomeDirectory() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

// GetCanonicalPath returns an os-specific full path:
// - replace ~ with user's home dir path
// - expand any ${vars} or $vars
// - resolve relative paths /.../.
func GetCanonicalPath(p string) string {
	if strings.HasPrefix(p, "~/") || strings.HasPrefix(p, "~\\") {
		if home := GetUserHomeDirectory(); home != "" {
			p = home + p[1:]
		}
	}
	return filepath.Clean(os.ExpandEnv(p))
}

// ExistOrCreate creates the directory at path if it doesn't exist.
func ExistOrCreate(path string) error {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(path, OwnerReadWriteExec); err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("stat %s: %w", path, err)
	case !info.IsDir():
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}
