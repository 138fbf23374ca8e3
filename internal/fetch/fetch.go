// Default HTTP transport for the scraper core. Applies headers, proxy and
// politeness delay so the core only sees page content or a typed error.

package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go-upwork-scraper/internal/scraper"
	"go-upwork-scraper/utils"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

const (
	KindTimeout = "timeout"
	KindBlocked = "blocked"
	KindStatus  = "status"
	KindNetwork = "network"
)

type TransportError struct {
	Kind   string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("transport %s: HTTP %d", e.Kind, e.Status)
	}
	return fmt.Sprintf("transport %s: %v", e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

type Options struct {
	Timeout      time.Duration
	RequestDelay time.Duration // politeness delay between requests, +-50% jitter
	Proxy        string
	UserAgent    string
}

type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	delay     time.Duration
	fetched   bool
}

func NewHTTPFetcher(opts Options) (*HTTPFetcher, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.Proxy != "" {
		proxyURL, err := url.Parse(opts.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	return &HTTPFetcher{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		userAgent: opts.UserAgent,
		delay:     opts.RequestDelay,
	}, nil
}

func (f *HTTPFetcher) Fetch(ctx context.Context, req scraper.PageRequest) (string, error) {
	if f.fetched && f.delay > 0 {
		utils.RandomDelay(f.delay/2, f.delay*3/2)
	}
	f.fetched = true

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return "", &TransportError{Kind: KindNetwork, Err: err}
	}
	httpReq.Header.Set("User-Agent", f.userAgent)
	httpReq.Header.Set("Accept-Language", "en-US,en;q=0.9")
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(httpReq)
	if err != nil {
		kind := KindNetwork
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			kind = KindTimeout
		}
		return "", &TransportError{Kind: kind, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
		return "", &TransportError{Kind: KindBlocked, Status: resp.StatusCode}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return "", &TransportError{Kind: KindStatus, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{Kind: KindNetwork, Err: err}
	}
	return string(body), nil
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
