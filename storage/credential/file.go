package credential

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// fileStorage keeps the credential in a single file, mode 0600.
type fileStorage struct {
	path string
}

var _ Storage = (*fileStorage)(nil)

func NewFileStorage(path string) Storage {
	return &fileStorage{path: path}
}

func (s *fileStorage) Read() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", errors.Wrap(err, "reading credential file")
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", ErrNotFound
	}
	return token, nil
}

func (s *fileStorage) Write(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.Wrap(err, "creating credential dir")
	}
	if err := os.WriteFile(s.path, []byte(token+"\n"), 0o600); err != nil {
		return errors.Wrap(err, "writing credential file")
	}
	return nil
}

func (s *fileStorage) Delete() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "deleting credential file")
	}
	return nil
}
