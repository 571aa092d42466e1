package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

var ErrInvalidPath = errors.New("invalid storage path")

// Storage - файлы пользователей (вложения чата). Пути относительные, через "/".
type Storage interface {
	Save(ctx context.Context, path string, reader io.Reader, contentType string) error
	Get(ctx context.Context, path string) (io.ReadCloser, error)
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
	// GetURL - адрес, по которому файл отдается клиенту
	GetURL(ctx context.Context, path string) (string, error)
}

type Config struct {
	Type    string // local | s3 | cloudflare_r2
	BaseURL string

	BasePath string

	// s3-совместимое хранилище
	Bucket     string
	Region     string
	AccessKey  string
	SecretKey  string
	Endpoint   string
	UseSSL     bool
	PublicRead bool
}

// NewStorage: s3 и cloudflare_r2 обслуживает один minio клиент
func NewStorage(ctx context.Context, cfg Config) (Storage, error) {
	switch cfg.Type {
	case "local", "":
		return NewLocalStorage(cfg)
	case "s3", "cloudflare_r2":
		return NewObjectStorage(ctx, cfg)
	}
	return nil, fmt.Errorf("unsupported storage type: %q", cfg.Type)
}

// RandomName - 16 hex символов
func RandomName() (string, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("random name: %w", err)
	}
	return hex.EncodeToString(buf[:]), nil
}

// cleanPath не дает выйти за корень хранилища
func cleanPath(p string) (string, error) {
	cleaned := strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(p, "\\", "/")), "/")
	if cleaned == "" {
		return "", ErrInvalidPath
	}
	return cleaned, nil
}
