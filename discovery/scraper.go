package discovery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/potd/sources"
	"go.uber.org/zap"
)

// ErrNoImageFound is returned when a page was fetched but its extraction rule
// matched nothing, which usually means the site markup changed.
var ErrNoImageFound = errors.New("no image found")

// DefaultUserAgent identifies potd to the sites it scrapes.
const DefaultUserAgent = "potd/1.0 (+photo of the day background fetcher)"

// Locator finds the photo of the day URL for registered sites.
type Locator struct {
	registry   *sources.Registry
	httpClient *http.Client
	userAgent  string
	logger     *zap.Logger
}

// NewLocator creates a locator over the given registry. A nil client gets a
// 30 second timeout; a nil logger discards output.
func NewLocator(registry *sources.Registry, client *http.Client, userAgent string, logger *zap.Logger) *Locator {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Locator{
		registry:   registry,
		httpClient: client,
		userAgent:  userAgent,
		logger:     logger,
	}
}

// Locate fetches the page of the given site and returns the absolute URL of
// its photo.
func (l *Locator) Locate(ctx context.Context, siteID string) (string, error) {
	source, err := l.registry.Lookup(siteID)
	if err != nil {
		return "", err
	}

	l.logger.Debug("fetching source page", zap.String("site", source.ID), zap.String("url", source.PageURL))

	doc, err := FetchHTML(ctx, l.httpClient, source.PageURL, l.userAgent)
	if err != nil {
		return "", fmt.Errorf("failed to fetch HTML: %w", err)
	}

	raw, ok := source.Rule.Extract(doc)
	if !ok {
		return "", fmt.Errorf("%w: %q matched nothing on %s", ErrNoImageFound, source.Rule.Selector, source.PageURL)
	}

	imageURL, err := NormalizeImageURL(source.PageURL, raw)
	if err != nil {
		return "", err
	}

	l.logger.Info("located image", zap.String("site", source.ID), zap.String("url", imageURL))

	return imageURL, nil
}

// FetchHTML fetches and parses the HTML page at pageURL.
func FetchHTML(ctx context.Context, client *http.Client, pageURL, userAgent string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	return doc, nil
}

// NormalizeImageURL turns an extracted attribute value into an absolute URL.
// Scheme-relative values ("//host/pic.jpg") get "http:" prepended, values
// with a scheme are kept as they are, and anything else is resolved against
// the page URL.
func NormalizeImageURL(pageURL, raw string) (string, error) {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "//") {
		return "http:" + raw, nil
	}

	ref, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid image URL %q: %w", raw, err)
	}
	if ref.Scheme != "" {
		return raw, nil
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("invalid page URL %q: %w", pageURL, err)
	}

	return base.ResolveReference(ref).String(), nil
}
