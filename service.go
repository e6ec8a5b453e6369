package potd

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/pevans/potd/background"
	"github.com/pevans/potd/cache"
	"github.com/pevans/potd/config"
	"github.com/pevans/potd/discovery"
	"github.com/pevans/potd/sources"
	"go.uber.org/zap"
)

// ImageLocator finds the photo of the day URL for a site.
type ImageLocator interface {
	Locate(ctx context.Context, siteID string) (string, error)
}

// ImageCache stores downloaded images and prunes stale ones.
type ImageCache interface {
	Sweep() ([]string, error)
	Save(ctx context.Context, imageURL string) (string, error)
}

// BackgroundSetter applies a local image as the desktop background.
type BackgroundSetter interface {
	Set(ctx context.Context, imagePath string) error
}

// Service runs one fetch-and-set cycle.
type Service struct {
	site    string
	locator ImageLocator
	cache   ImageCache
	setter  BackgroundSetter
	logger  *zap.Logger
}

// RunResult describes what a run did.
type RunResult struct {
	RunID     string
	Removed   []string
	ImageURL  string
	ImagePath string
}

// NewService creates a service for the given site.
func NewService(
	site string,
	locator ImageLocator,
	imageCache ImageCache,
	setter BackgroundSetter,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		site:    site,
		locator: locator,
		cache:   imageCache,
		setter:  setter,
		logger:  logger,
	}
}

// NewServiceFromConfig wires the built-in site registry, an image cache and
// the background setter according to cfg.
func NewServiceFromConfig(cfg *config.Config, logger *zap.Logger) (*Service, error) {
	registry := sources.Builtin()
	if err := cfg.Validate(registry); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := &http.Client{Timeout: cfg.Timeout()}

	imageCache, err := cache.New(cache.Config{
		Dir:           cfg.CacheDir,
		RetentionDays: cfg.RetentionDays,
		HTTPClient:    client,
		UserAgent:     cfg.UserAgent,
	}, logger.Named("cache"))
	if err != nil {
		return nil, err
	}

	locator := discovery.NewLocator(registry, client, cfg.UserAgent, logger.Named("discovery"))

	setter := background.NewSetter(background.Config{
		Command: cfg.Setter.Command,
		Args:    cfg.Setter.Args,
		Strict:  cfg.Setter.Strict,
	}, logger.Named("background"))

	return NewService(cfg.Site, locator, imageCache, setter, logger), nil
}

// Run removes stale images, downloads the current photo of the day and sets
// it as the background. The first failing stage aborts the run; nothing is
// retried or rolled back.
func (s *Service) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{RunID: uuid.NewString()}
	logger := s.logger.With(zap.String("run_id", result.RunID), zap.String("site", s.site))

	logger.Info("run started")

	removed, err := s.cache.Sweep()
	result.Removed = removed
	if err != nil {
		return result, fmt.Errorf("cleanup failed: %w", err)
	}

	imageURL, err := s.locator.Locate(ctx, s.site)
	if err != nil {
		return result, fmt.Errorf("failed to locate image: %w", err)
	}
	result.ImageURL = imageURL

	imagePath, err := s.cache.Save(ctx, imageURL)
	if err != nil {
		return result, fmt.Errorf("failed to save image: %w", err)
	}
	result.ImagePath = imagePath

	if err := s.setter.Set(ctx, imagePath); err != nil {
		return result, fmt.Errorf("failed to set background: %w", err)
	}

	logger.Info("run finished",
		zap.String("url", imageURL),
		zap.String("path", imagePath),
		zap.Int("removed", len(removed)),
	)

	return result, nil
}
