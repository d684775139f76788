package blobstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Local writes blobs below a root directory and links to them under a
// public base URL. The HTTP server serves the same directory.
type Local struct {
	root    string
	baseURL string
}

// NewLocal constructs a local store, creating root when needed.
func NewLocal(root, publicBaseURL string) (*Local, error) {
	if root == "" {
		return nil, errors.New("blobstore: empty root")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("blobstore: create root: %w", err)
	}
	return &Local{root: root, baseURL: strings.TrimRight(publicBaseURL, "/")}, nil
}

// Root returns the directory blobs are written to.
func (l *Local) Root() string {
	return l.root
}

// Upload writes data under a unique prefix so equal names never collide.
func (l *Local) Upload(ctx context.Context, data []byte, name, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", ErrEmptyData
	}
	clean := SanitizeName(name)
	if clean == "" {
		return "", ErrEmptyName
	}
	object := uuid.NewString()[:8] + "_" + clean
	if err := os.WriteFile(filepath.Join(l.root, object), data, 0o644); err != nil {
		return "", fmt.Errorf("blobstore: write %s: %w", object, err)
	}
	return l.baseURL + "/" + url.PathEscape(object), nil
}
