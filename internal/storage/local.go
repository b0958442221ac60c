package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalStore keeps files under a directory on disk. It backs development
// setups without an FTP server.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) resolve(p string) (string, string, error) {
	cleaned, err := CleanPath(p)
	if err != nil {
		return "", "", err
	}
	return cleaned, filepath.Join(s.root, filepath.FromSlash(cleaned)), nil
}

// Upload removes the partial file when writing fails.
func (s *LocalStore) Upload(_ context.Context, dir, name string, r io.Reader) (rel string, err error) {
	rel, full, err := s.resolve(dir + "/" + SanitizeName(name))
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(full)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", rel, cerr)
		}
		if err != nil {
			_ = os.Remove(full)
			rel = ""
		}
	}()
	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("write %s: %w", rel, err)
	}
	return rel, nil
}

func (s *LocalStore) Delete(_ context.Context, filePath string) error {
	_, full, err := s.resolve(filePath)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *LocalStore) Open(_ context.Context, filePath string) (io.ReadCloser, error) {
	_, full, err := s.resolve(filePath)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

func (s *LocalStore) Ping(context.Context) error {
	_, err := os.Stat(s.root)
	return err
}
