// Package fetch downloads remote audio into a working directory.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/RyanBlaney/sonido-timbre/logging"
)

// DefaultExtension is used when the URL path has none.
const DefaultExtension = ".mp3"

// Config configures a Downloader.
type Config struct {
	Dir       string        `json:"dir"`
	Timeout   time.Duration `json:"timeout"` // whole request, 0 disables
	UserAgent string        `json:"user_agent"`
	MaxBytes  int64         `json:"max_bytes"` // 0 means unlimited
}

// DefaultConfig returns the default download configuration.
func DefaultConfig() Config {
	return Config{
		Dir:       os.TempDir(),
		Timeout:   60 * time.Second,
		UserAgent: "sonido-timbre",
		MaxBytes:  512 << 20,
	}
}

// Downloader fetches URLs over HTTP(S).
type Downloader struct {
	cfg    Config
	client *http.Client
}

// New returns a Downloader using an http.Client with cfg.Timeout.
func New(cfg Config) *Downloader {
	if cfg.Dir == "" {
		cfg.Dir = os.TempDir()
	}
	return &Downloader{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Extension returns the file extension of the URL path, or DefaultExtension.
func Extension(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return DefaultExtension
	}
	ext := path.Ext(u.Path)
	if ext == "" || ext == "." {
		return DefaultExtension
	}
	return ext
}

// Download saves rawURL under Config.Dir with a unique name and returns the path. A
// partially written file is removed on failure.
func (d *Downloader) Download(ctx context.Context, rawURL string) (string, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "fetch",
		"function":  "Download",
		"url":       rawURL,
	})

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	if d.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", d.cfg.UserAgent)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download %s: unexpected status %s", rawURL, resp.Status)
	}

	if err := os.MkdirAll(d.cfg.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}
	dest := filepath.Join(d.cfg.Dir, uuid.NewString()+Extension(rawURL))

	written, err := d.save(resp.Body, dest)
	if err != nil {
		_ = os.Remove(dest)
		return "", err
	}

	logger.Info("Audio downloaded", logging.Fields{"path": dest, "bytes": written})
	return dest, nil
}

func (d *Downloader) save(body io.Reader, dest string) (int64, error) {
	file, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", dest, err)
	}

	if d.cfg.MaxBytes > 0 {
		body = io.LimitReader(body, d.cfg.MaxBytes+1)
	}
	written, copyErr := io.Copy(file, body)
	closeErr := file.Close()

	switch {
	case copyErr != nil:
		return 0, fmt.Errorf("write %s: %w", dest, copyErr)
	case closeErr != nil:
		return 0, fmt.Errorf("close %s: %w", dest, closeErr)
	case d.cfg.MaxBytes > 0 && written > d.cfg.MaxBytes:
		return 0, fmt.Errorf("download exceeds %d bytes", d.cfg.MaxBytes)
	case written == 0:
		return 0, errors.New("downloaded file is empty")
	}
	return written, nil
}
