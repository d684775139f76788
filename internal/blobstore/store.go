// Package blobstore uploads generated documents and evidence images and
// returns links that can be stored with a debit note.
package blobstore

import (
	"context"
	"errors"
	"path"
	"strings"
	"unicode"
)

var (
	// ErrEmptyData is returned when uploading zero bytes.
	ErrEmptyData = errors.New("blobstore: empty data")
	// ErrEmptyName is returned when the object name sanitizes to nothing.
	ErrEmptyName = errors.New("blobstore: empty name")
)

// Store uploads a blob and returns a link to it.
type Store interface {
	Upload(ctx context.Context, data []byte, name, mimeType string) (string, error)
}

// SanitizeName reduces name to a safe base file name. Path separators and
// control characters are dropped and runs of other unsafe characters become
// a single underscore.
func SanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	var b strings.Builder
	underscore := false
	for _, r := range name {
		switch {
		case unicode.IsControl(r):
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
			underscore = false
		default:
			if !underscore {
				b.WriteByte('_')
				underscore = true
			}
		}
	}
	return strings.Trim(b.String(), "._")
}
