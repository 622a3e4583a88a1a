package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// ResolvePath anchors a relative file name in the data dir.
func ResolvePath(dataDir, name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dataDir, name)
}

// EnsureLocaleFile writes the named built-in locale to path unless a file is
// already there, so users get an editable copy on first start.
func EnsureLocaleFile(path, name string) (string, error) {
	_, err := os.Stat(path)
	if err == nil {
		return path, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", eris.Wrapf(err, "config: stat %s", path)
	}

	loc, ok := BuiltinLocale(name)
	if !ok {
		return "", eris.Errorf("config: unknown locale %q", name)
	}
	if err := SaveLocaleAtomic(path, loc); err != nil {
		return "", err
	}
	return path, nil
}
