package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/djherbis/times"
	"go.uber.org/zap"
)

// DefaultRetentionDays is how long an image may go unaccessed before Sweep
// removes it.
const DefaultRetentionDays = 30

// ErrNoFilename is returned when an image URL has no final path segment to
// name the local file after.
var ErrNoFilename = errors.New("image URL has no filename")

// Cache is a flat directory of downloaded images. Files are named after the
// last segment of their remote URL and expire by access time.
type Cache struct {
	dir           string
	retentionDays int
	httpClient    *http.Client
	userAgent     string
	logger        *zap.Logger
	now           func() time.Time
}

// Config holds the settings for a Cache.
type Config struct {
	// Directory holding the images. It is created on first download.
	Dir string
	// Files whose access time is more than this many whole days old are
	// removed by Sweep.
	RetentionDays int
	// Client used for downloads. Defaults to a client with a 30 second
	// timeout.
	HTTPClient *http.Client
	// User-Agent header sent with downloads.
	UserAgent string
}

// New creates a cache rooted at cfg.Dir. The directory is not touched until
// the first Save.
func New(cfg Config, logger *zap.Logger) (*Cache, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("cache directory is required")
	}
	if cfg.RetentionDays < 0 {
		return nil, fmt.Errorf("retention days must not be negative (got %d)", cfg.RetentionDays)
	}

	dir, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache directory: %w", err)
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Cache{
		dir:           dir,
		retentionDays: cfg.RetentionDays,
		httpClient:    client,
		userAgent:     cfg.UserAgent,
		logger:        logger,
		now:           time.Now,
	}, nil
}

// Dir returns the absolute cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Save downloads imageURL into the cache, replacing any file of the same
// name, and returns the absolute path of the local copy.
func (c *Cache) Save(ctx context.Context, imageURL string) (string, error) {
	name, err := FilenameFromURL(imageURL)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	if err := c.ensureDir(); err != nil {
		return "", err
	}

	imagePath := filepath.Join(c.dir, name)
	if err := writeFile(imagePath, resp.Body); err != nil {
		return "", err
	}

	c.logger.Info("saved image", zap.String("url", imageURL), zap.String("path", imagePath))

	return imagePath, nil
}

// ensureDir creates the cache directory if needed. Only the last path element
// is created (0700: owner-only access); a missing parent is an error.
func (c *Cache) ensureDir() error {
	err := os.Mkdir(c.dir, 0o700)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	info, statErr := os.Stat(c.dir)
	if statErr != nil {
		return fmt.Errorf("failed to stat cache directory: %w", statErr)
	}
	if !info.IsDir() {
		return fmt.Errorf("cache path %s exists but is not a directory", c.dir)
	}
	return nil
}

// writeFile streams r into a temporary file next to dest and renames it over
// dest once the copy is complete.
func writeFile(dest string, r io.Reader) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.part")
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write image: %w", err)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move image into place: %w", err)
	}

	return nil
}

// Sweep removes every file under the cache directory whose access time is
// more than the retention window in the past, and returns the removed paths.
// A missing cache directory, or a cache path that is not a directory, is not
// an error and removes nothing. Directories, including symlinks to
// directories, are never removed.
//
// Access times are only as good as the filesystem keeps them: with noatime
// (and to a lesser degree relatime) a file may look older or newer than its
// real last use.
func (c *Cache) Sweep() ([]string, error) {
	info, err := os.Stat(c.dir)
	if errors.Is(err, fs.ErrNotExist) {
		c.logger.Debug("cache directory does not exist, nothing to sweep", zap.String("path", c.dir))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat cache directory: %w", err)
	}
	if !info.IsDir() {
		c.logger.Warn("cache path is not a directory, nothing to sweep", zap.String("path", c.dir))
		return nil, nil
	}

	now := c.now().UTC()
	var removed []string

	err = filepath.WalkDir(c.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		// WalkDir does not follow links to directories; leave them alone.
		if d.Type()&fs.ModeSymlink != 0 {
			target, err := os.Stat(p)
			if err != nil {
				return fmt.Errorf("failed to stat %s: %w", p, err)
			}
			if target.IsDir() {
				return nil
			}
		}

		ts, err := times.Stat(p)
		if err != nil {
			return fmt.Errorf("failed to read access time of %s: %w", p, err)
		}

		age := ElapsedDays(now, ts.AccessTime())
		if age <= c.retentionDays {
			return nil
		}

		if err := os.Remove(p); err != nil {
			return fmt.Errorf("failed to remove %s: %w", p, err)
		}

		c.logger.Info("removed stale image", zap.String("path", p), zap.Int("age_days", age))
		removed = append(removed, p)
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("failed to sweep cache: %w", err)
	}

	return removed, nil
}

// ElapsedDays returns the number of whole days from then to now, rounded
// down.
func ElapsedDays(now, then time.Time) int {
	return int(math.Floor(now.Sub(then).Hours() / 24))
}

// FilenameFromURL returns the last segment of the URL path.
func FilenameFromURL(imageURL string) (string, error) {
	u, err := url.Parse(imageURL)
	if err != nil {
		return "", fmt.Errorf("invalid image URL %q: %w", imageURL, err)
	}

	name := path.Base(u.Path)
	switch name {
	case "", ".", "..", "/":
		return "", fmt.Errorf("%w: %s", ErrNoFilename, imageURL)
	}

	return name, nil
}
