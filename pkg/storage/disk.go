package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
)

// DiskStorage keeps files in a directory of an afero filesystem. It backs
// local development and tests where no bucket is available.
type DiskStorage struct {
	fs        afero.Fs
	uploadDir string
	storeDir  string
}

// NewDiskStorage creates storeDir if needed.
func NewDiskStorage(fsys afero.Fs, uploadDir, storeDir string) (*DiskStorage, error) {
	if err := fsys.MkdirAll(storeDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir %s: %w", storeDir, err)
	}
	return &DiskStorage{fs: fsys, uploadDir: uploadDir, storeDir: storeDir}, nil
}

// SaveFile moves fileName from the upload directory into the store.
func (d *DiskStorage) SaveFile(_ context.Context, fileName string) error {
	if err := checkName(fileName); err != nil {
		return err
	}

	src := filepath.Join(d.uploadDir, fileName)
	data, err := afero.ReadFile(d.fs, src)
	if err != nil {
		return fmt.Errorf("failed to read upload %s: %w", src, err)
	}
	if err := afero.WriteFile(d.fs, filepath.Join(d.storeDir, fileName), data, 0o644); err != nil {
		return fmt.Errorf("failed to store %s: %w", fileName, err)
	}
	if err := d.fs.Remove(src); err != nil {
		return fmt.Errorf("failed to remove upload %s: %w", src, err)
	}
	return nil
}

// GetFile reads a stored file by name.
func (d *DiskStorage) GetFile(_ context.Context, name string) ([]byte, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(d.fs, filepath.Join(d.storeDir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", name, ErrFileNotFound)
		}
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}
