package core

import (
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// ExceedsLen reports whether `s`, once cleaned, is longer than `max` characters.
// It matches the validator's `max` tag, which counts runes.
func ExceedsLen(s string, max int) bool {
	return utf8.RuneCountInString(CleanString(s)) > max
}

// CheckID returns ErrInvalidID unless `id` is a well-formed UUID.
func CheckID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}
	return nil
}

// NewID generates a fresh entity id.
func NewID() string {
	return uuid.New().String()
}

// Getwd finds the project root (the directory holding go.mod).
// go test runs in the package directory, so walking up is needed to find `config/`.
func Getwd() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", errors.Wrap(err, "getting working directory")
	}
	currDir := wd
	for {
		if _, err := os.Stat(filepath.Join(currDir, "go.mod")); err == nil {
			return currDir, nil
		}
		newDir := filepath.Dir(currDir)
		if newDir == string(os.PathSeparator) || newDir == currDir {
			return wd, nil
		}
		currDir = newDir
	}
}
