// Package storage keeps vehicle attachments on a file server.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

var ErrNotFound = errors.New("stored file not found")

// Store addresses files by slash separated paths relative to its root.
type Store interface {
	Upload(ctx context.Context, dir, name string, r io.Reader) (string, error)
	Delete(ctx context.Context, filePath string) error
	Open(ctx context.Context, filePath string) (io.ReadCloser, error)
	Ping(ctx context.Context) error
}

// ObjectName prefixes a file name with its upload time so repeated uploads
// never collide.
func ObjectName(now time.Time, filename string) string {
	return fmt.Sprintf("%s_%s", now.Format("20060102_150405"), SanitizeName(filename))
}

// SanitizeName drops directory components and characters that would escape
// the target directory.
func SanitizeName(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		return "file"
	}
	return name
}

// CleanPath rejects paths that climb out of the store root.
func CleanPath(p string) (string, error) {
	cleaned := path.Clean("/" + strings.TrimSpace(p))
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." {
		return "", fmt.Errorf("invalid path %q", p)
	}
	return cleaned, nil
}

// ContentType maps a file extension to the MIME type served for it. Only
// images get a specific type; PDFs and everything else are served as
// application/octet-stream.
func ContentType(filePath string) string {
	switch strings.ToLower(path.Ext(filePath)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}
