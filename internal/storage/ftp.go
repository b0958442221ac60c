package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
)

type FTPConfig struct {
	Host     string
	User     string
	Password string
	Timeout  time.Duration
}

// FTPStore opens one control connection per operation.
type FTPStore struct {
	cfg    FTPConfig
	logger *slog.Logger
}

func NewFTPStore(cfg FTPConfig, logger *slog.Logger) *FTPStore {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if !strings.Contains(cfg.Host, ":") {
		cfg.Host += ":21"
	}
	return &FTPStore{cfg: cfg, logger: logger}
}

func (s *FTPStore) connect(ctx context.Context) (*ftp.ServerConn, error) {
	conn, err := ftp.Dial(s.cfg.Host, ftp.DialWithTimeout(s.cfg.Timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("ftp dial %s: %w", s.cfg.Host, err)
	}
	if err := conn.Login(s.cfg.User, s.cfg.Password); err != nil {
		_ = conn.Quit()
		return nil, fmt.Errorf("ftp login: %w", err)
	}
	return conn, nil
}

func (s *FTPStore) Upload(ctx context.Context, dir, name string, r io.Reader) (string, error) {
	dir, err := CleanPath(dir)
	if err != nil {
		return "", err
	}
	conn, err := s.connect(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = conn.Quit() }()

	if err := s.makeDirs(conn, dir); err != nil {
		return "", err
	}

	remote := path.Join(dir, SanitizeName(name))
	if err := conn.Stor(remote, r); err != nil {
		return "", fmt.Errorf("ftp store %s: %w", remote, err)
	}
	s.logger.InfoContext(ctx, "file uploaded", "path", remote)
	return remote, nil
}

// makeDirs creates each component of dir, ignoring "already exists" replies.
func (s *FTPStore) makeDirs(conn *ftp.ServerConn, dir string) error {
	current := ""
	for _, part := range strings.Split(dir, "/") {
		current = path.Join(current, part)
		if err := conn.ChangeDir(current); err == nil {
			_ = conn.ChangeDir("/")
			continue
		}
		if err := conn.MakeDir(current); err != nil {
			return fmt.Errorf("ftp mkdir %s: %w", current, err)
		}
	}
	return nil
}

func (s *FTPStore) Delete(ctx context.Context, filePath string) error {
	filePath, err := CleanPath(filePath)
	if err != nil {
		return err
	}
	conn, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Quit() }()

	if err := conn.Delete(filePath); err != nil {
		if isNotFound(err) {
			return ErrNotFound
		}
		return fmt.Errorf("ftp delete %s: %w", filePath, err)
	}
	return nil
}

func (s *FTPStore) Open(ctx context.Context, filePath string) (io.ReadCloser, error) {
	filePath, err := CleanPath(filePath)
	if err != nil {
		return nil, err
	}
	conn, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := conn.Retr(filePath)
	if err != nil {
		_ = conn.Quit()
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ftp retrieve %s: %w", filePath, err)
	}
	return &retrieval{Response: resp, conn: conn}, nil
}

func (s *FTPStore) Ping(ctx context.Context) error {
	conn, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Quit() }()
	return conn.NoOp()
}

// retrieval closes the data connection before quitting the control one.
type retrieval struct {
	*ftp.Response
	conn *ftp.ServerConn
}

func (r *retrieval) Close() error {
	err := r.Response.Close()
	_ = r.conn.Quit()
	return err
}

func isNotFound(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "550") || strings.Contains(msg, "No such file")
}
