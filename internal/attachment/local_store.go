package attachment

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocalStore writes files under a directory served as static content.
type LocalStore struct {
	dir     string
	baseURL string
}

func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create attachment dir: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalStore) Dir() string {
	return s.dir
}

func (s *LocalStore) Put(ctx context.Context, name, contentType string, content []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	day := time.Now().UTC().Format("2006/01/02")
	fileName := storedName(name, contentType)

	target := filepath.Join(s.dir, filepath.FromSlash(day))
	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", fmt.Errorf("create attachment dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(target, fileName), content, 0o644); err != nil {
		return "", fmt.Errorf("write attachment: %w", err)
	}
	return s.baseURL + "/" + path.Join(day, fileName), nil
}

func storedName(name, contentType string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if base == "" || base == "." {
		base = "file"
	}
	ext := Extension(contentType)
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(name))
	}
	return fmt.Sprintf("%s-%s%s", base, uuid.NewString(), ext)
}
