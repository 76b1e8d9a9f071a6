// Package cache keeps album artwork on disk between sessions.
package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"

	"github.com/glebovdev/tunequeue/internal/config"
)

const (
	// DefaultExpiry is how long cached artwork stays valid (30 days).
	DefaultExpiry = 30 * 24 * time.Hour
	// ArtworkSubdir is the subdirectory for cached artwork.
	ArtworkSubdir = "artwork"
)

// Cache manages disk-based caching of artwork images.
type Cache struct {
	baseDir string
	expiry  time.Duration
	now     func() time.Time
}

// NewCache creates a Cache in the user cache directory with the default expiry.
func NewCache() (*Cache, error) {
	cacheDir, err := GetCacheDir()
	if err != nil {
		return nil, err
	}

	return New(cacheDir, DefaultExpiry), nil
}

// New creates a Cache rooted at baseDir.
func New(baseDir string, expiry time.Duration) *Cache {
	return &Cache{
		baseDir: baseDir,
		expiry:  expiry,
		now:     time.Now,
	}
}

// GetCacheDir returns the platform-specific cache directory for the application.
func GetCacheDir() (string, error) {
	userCacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get user cache directory")
	}

	return filepath.Join(userCacheDir, config.AppName), nil
}

func (c *Cache) artworkDir() string {
	return filepath.Join(c.baseDir, ArtworkSubdir)
}

func (c *Cache) pathFor(url string) string {
	return filepath.Join(c.artworkDir(), hashURL(url)+".png")
}

func hashURL(url string) string {
	hash := sha1.Sum([]byte(url))
	return hex.EncodeToString(hash[:])
}

// GetImage retrieves cached artwork by URL. Returns nil if missing or expired.
func (c *Cache) GetImage(url string) image.Image {
	imagePath := c.pathFor(url)

	info, err := os.Stat(imagePath)
	if err != nil {
		return nil
	}

	if c.now().Sub(info.ModTime()) > c.expiry {
		if err := os.Remove(imagePath); err != nil {
			log.Debug().Err(err).Str("file", imagePath).Msg("Failed to remove expired artwork")
		}
		return nil
	}

	file, err := os.Open(imagePath)
	if err != nil {
		return nil
	}
	defer file.Close()

	img, err := png.Decode(file)
	if err != nil {
		log.Debug().Err(err).Str("file", imagePath).Msg("Failed to decode cached artwork")
		return nil
	}

	return img
}

// SaveImage stores artwork keyed by its URL. The file appears atomically.
func (c *Cache) SaveImage(url string, img image.Image) error {
	dir := c.artworkDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "failed to create cache directory")
	}

	tmp, err := os.CreateTemp(dir, ".artwork-*.tmp")
	if err != nil {
		return errors.Wrap(err, "failed to create cache file")
	}
	tmpPath := tmp.Name()

	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Wrap(err, "failed to encode artwork")
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "failed to close cache file")
	}

	if err := os.Rename(tmpPath, c.pathFor(url)); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "failed to store cache file")
	}

	return nil
}

// CleanExpired removes artwork older than the expiry duration.
func (c *Cache) CleanExpired() error {
	dir := c.artworkDir()

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, "failed to read cache directory")
	}

	now := c.now()
	var removed, failed int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			log.Debug().Err(err).Str("file", entry.Name()).Msg("Failed to get file info")
			continue
		}

		if now.Sub(info.ModTime()) > c.expiry {
			filePath := filepath.Join(dir, entry.Name())
			if err := os.Remove(filePath); err != nil {
				log.Debug().Err(err).Str("file", filePath).Msg("Failed to remove expired artwork")
				failed++
			} else {
				removed++
			}
		}
	}

	if removed > 0 || failed > 0 {
		log.Debug().Int("removed", removed).Int("failed", failed).Msg("Artwork cleanup completed")
	}

	return nil
}
