// Package http provides the XML document loader: the single I/O boundary
// for reading METS manifests and ALTO page resources from local paths or
// HTTP(S) URLs.
package http

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/beevik/etree"
	"github.com/tbruckner/metsalto"
	"golang.org/x/time/rate"
)

// DefaultTimeout bounds each remote fetch. Matches the archive servers'
// tolerated request budget.
const DefaultTimeout = 20 * time.Second

// Ensure Loader implements metsalto.Loader at compile time.
var _ metsalto.Loader = (*Loader)(nil)

// Loader loads XML documents from local paths or remote URLs. Nothing is
// cached: repeated loads of the same address re-fetch or re-read.
type Loader struct {
	client  *http.Client
	timeout time.Duration
	limiter *hostLimiter
}

// Option configures a Loader.
type Option func(*Loader)

// WithTimeout sets the timeout for remote fetches.
// Defaults to DefaultTimeout (20s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(l *Loader) {
		l.timeout = d
	}
}

// WithRateLimit caps remote fetches at rps requests per second per host.
// Zero or negative leaves fetching unlimited.
func WithRateLimit(rps float64) Option {
	return func(l *Loader) {
		if rps > 0 {
			l.limiter = newHostLimiter(rps)
		}
	}
}

// NewLoader creates a new Loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(l)
	}

	l.client = &http.Client{
		Timeout: l.timeout,
	}

	return l
}

// Load retrieves the XML document at source and parses it into a tree.
func (l *Loader) Load(ctx context.Context, source string) (*etree.Document, error) {
	if source == "" {
		return nil, metsalto.Errorf(metsalto.EINVALID, "source address required")
	}

	var data []byte
	var err error
	if IsRemote(source) {
		data, err = l.fetch(ctx, source)
	} else {
		data, err = readFile(source)
	}
	if err != nil {
		return nil, err
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, metsalto.Errorf(metsalto.EINVALID, "parsing XML from %s: %v", source, err)
	}
	if doc.Root() == nil {
		return nil, metsalto.Errorf(metsalto.EINVALID, "no XML root element in %s", source)
	}

	return doc, nil
}

// IsRemote reports whether source names an HTTP(S) resource rather than a
// local path.
func IsRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func (l *Loader) fetch(ctx context.Context, source string) ([]byte, error) {
	if l.limiter != nil {
		if err := l.limiter.wait(ctx, source); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, metsalto.Errorf(metsalto.EINVALID, "invalid URL %s: %v", source, err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, metsalto.Errorf(metsalto.EUNAVAILABLE, "fetching %s: %v", source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, metsalto.Errorf(metsalto.EUNAVAILABLE, "HTTP %d for %s", resp.StatusCode, source)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, metsalto.Errorf(metsalto.EUNAVAILABLE, "reading %s: %v", source, err)
	}

	return data, nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, metsalto.Errorf(metsalto.ENOTFOUND, "file not found: %s", path)
	} else if err != nil {
		return nil, metsalto.Errorf(metsalto.EINTERNAL, "reading %s: %v", path, err)
	}
	return data, nil
}

// hostLimiter provides per-host rate limiting using token buckets, so
// concurrent page fetches stay polite towards a single archive server
// while different hosts proceed independently.
type hostLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      float64
}

func newHostLimiter(rps float64) *hostLimiter {
	return &hostLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
	}
}

// wait blocks until the host's limiter allows a request or ctx is done.
func (h *hostLimiter) wait(ctx context.Context, source string) error {
	host := source
	if u, err := url.Parse(source); err == nil && u.Host != "" {
		host = u.Host
	}

	h.mu.Lock()
	limiter, ok := h.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(h.rps), 1)
		h.limiters[host] = limiter
	}
	h.mu.Unlock()

	return limiter.Wait(ctx)
}
