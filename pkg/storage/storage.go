// Package storage keeps uploaded product images. Uploads first land in a
// local upload directory; SaveFile moves them to the backing store.
package storage

import (
	"errors"
	"fmt"
	"path/filepath"
)

var (
	// ErrFileNotFound is returned when the requested object does not exist.
	ErrFileNotFound = errors.New("file not found")
	// ErrInvalidName is returned for names that are not a plain file name.
	ErrInvalidName = errors.New("invalid file name")
)

func checkName(name string) error {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		return fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	return nil
}
