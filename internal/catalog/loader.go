package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"ashaworks/internal/cache"
	"ashaworks/internal/core"
	"ashaworks/internal/log"
)

// ErrCatalogUnavailable is returned when every configured source failed.
var ErrCatalogUnavailable = errors.New("no catalog source could be loaded")

const (
	fetchTimeout  = 10 * time.Second
	cacheTTL      = 5 * time.Minute
	cacheMaxItems = 8
)

// Loader tries a list of candidate sources in order and returns the first
// catalog that decodes. A source is a local file path or an http(s) URL.
// Remote payloads are cached briefly so a reload does not hammer a source
// that just answered.
type Loader struct {
	sources []string
	client  *http.Client
	cache   *cache.LRU[[]byte]
	logger  *log.Logger
}

func NewLoader(sources []string, logger *log.Logger) *Loader {
	return &Loader{
		sources: sources,
		client:  &http.Client{Timeout: fetchTimeout},
		cache:   cache.New[[]byte](cacheMaxItems, cacheTTL),
		logger:  logger.WithComponent(log.ComponentCatalog),
	}
}

// Load returns the first catalog that loads and decodes. When every source
// fails the error wraps ErrCatalogUnavailable and lists per-source failures.
func (l *Loader) Load(ctx context.Context) (*core.Catalog, error) {
	var failures []string
	for _, source := range l.sources {
		data, err := l.fetch(ctx, source)
		if err != nil {
			l.logger.Warn("catalog source failed", log.FieldSource, source, log.FieldError, err.Error())
			failures = append(failures, fmt.Sprintf("%s: %v", source, err))
			continue
		}
		cat, err := Decode(data)
		if err != nil {
			l.logger.Warn("catalog source undecodable", log.FieldSource, source, log.FieldError, err.Error())
			failures = append(failures, fmt.Sprintf("%s: %v", source, err))
			continue
		}
		l.logger.Info("catalog loaded",
			log.FieldSource, source,
			"version", cat.Version,
			"categories", len(cat.Categories),
			"codes", cat.TotalCodes())
		return cat, nil
	}
	if len(failures) == 0 {
		return nil, fmt.Errorf("%w: no sources configured", ErrCatalogUnavailable)
	}
	return nil, fmt.Errorf("%w: %s", ErrCatalogUnavailable, strings.Join(failures, "; "))
}

// LoadOrFallback loads from the configured sources, falling back to the
// built-in catalog when nothing answers. The second return reports whether
// the fallback was used.
func (l *Loader) LoadOrFallback(ctx context.Context) (*core.Catalog, bool) {
	cat, err := l.Load(ctx)
	if err != nil {
		l.logger.Warn("falling back to built-in catalog", log.FieldError, err.Error())
		return Fallback(), true
	}
	return cat, false
}

func (l *Loader) fetch(ctx context.Context, source string) ([]byte, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return l.fetchRemote(ctx, source)
	}
	return os.ReadFile(source)
}

func (l *Loader) fetchRemote(ctx context.Context, url string) ([]byte, error) {
	if data, ok := l.cache.Get(url); ok {
		return data, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	l.cache.Set(url, data)
	return data, nil
}
