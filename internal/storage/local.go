package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const defaultMediaURL = "/media"

// LocalStorage - файлы на диске под basePath, раздаются по baseURL
type LocalStorage struct {
	basePath string
	baseURL  string
}

func NewLocalStorage(cfg Config) (*LocalStorage, error) {
	base := cfg.BasePath
	if base == "" {
		base = "./uploads"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root %s: %w", base, err)
	}

	url := strings.TrimRight(cfg.BaseURL, "/")
	if url == "" {
		url = defaultMediaURL
	}
	return &LocalStorage{basePath: base, baseURL: url}, nil
}

func (s *LocalStorage) resolve(p string) (string, error) {
	key, err := cleanPath(p)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.basePath, filepath.FromSlash(key)), nil
}

// Save пишет во временный файл рядом и переименовывает,
// поэтому читатель не увидит недописанный файл
func (s *LocalStorage) Save(ctx context.Context, p string, reader io.Reader, _ string) (err error) {
	target, err := s.resolve(p)
	if err != nil {
		return err
	}
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = io.Copy(tmp, reader); err != nil {
		return fmt.Errorf("write %s: %w", p, err)
	}
	if err = ctx.Err(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", p, err)
	}
	if err = os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("rename %s: %w", p, err)
	}
	return nil
}

func (s *LocalStorage) Get(_ context.Context, p string) (io.ReadCloser, error) {
	target, err := s.resolve(p)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(target)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", p, err)
	}
	return f, nil
}

// Delete отсутствующего файла не ошибка
func (s *LocalStorage) Delete(_ context.Context, p string) error {
	target, err := s.resolve(p)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", p, err)
	}
	return nil
}

func (s *LocalStorage) Exists(_ context.Context, p string) (bool, error) {
	target, err := s.resolve(p)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(target)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	}
	return false, err
}

func (s *LocalStorage) GetURL(_ context.Context, p string) (string, error) {
	key, err := cleanPath(p)
	if err != nil {
		return "", err
	}
	return s.baseURL + "/" + key, nil
}
