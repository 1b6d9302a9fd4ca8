package books

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/billmal071/booksearch/internal/logger"
)

const (
	// DefaultConnectTimeout bounds establishing the connection
	DefaultConnectTimeout = 15 * time.Second
	// DefaultReadTimeout bounds every read on an established connection
	DefaultReadTimeout = 10 * time.Second
)

// FetcherOptions configures a Fetcher
type FetcherOptions struct {
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	UserAgent      string
}

// Fetcher performs single blocking GET requests
type Fetcher struct {
	http      *http.Client
	userAgent string
}

// NewFetcher creates a new fetcher
func NewFetcher(opts FetcherOptions) *Fetcher {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}

	dialer := &net.Dialer{Timeout: opts.ConnectTimeout}
	readTimeout := opts.ReadTimeout

	return &Fetcher{
		http: &http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
					conn, err := dialer.DialContext(ctx, network, addr)
					if err != nil {
						return nil, err
					}
					return &readDeadlineConn{Conn: conn, timeout: readTimeout}, nil
				},
				TLSHandshakeTimeout:   opts.ConnectTimeout,
				ResponseHeaderTimeout: readTimeout,
				DisableKeepAlives:     true,
			},
		},
		userAgent: opts.UserAgent,
	}
}

// Fetch GETs rawURL and returns the body and status code. The body is only
// read for 200 responses. Failures are logged and reported as an empty body;
// the status code is 0 when no response was received.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, int) {
	log := logger.WithComponent("fetcher")

	u, err := parseRequestURL(rawURL)
	if err != nil {
		log.Error().Err(err).Str("url", rawURL).Msg("Error creating URL")
		return "", 0
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		log.Error().Err(err).Str("url", rawURL).Msg("Error creating request")
		return "", 0
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.http.Do(req)
	if errors.Is(err, context.Canceled) {
		log.Debug().Str("url", rawURL).Msg("Request cancelled")
		return "", 0
	}
	if err != nil {
		log.Error().Err(err).Str("url", rawURL).Msg("Problem retrieving the book JSON results")
		return "", 0
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn().Int("status", resp.StatusCode).Str("url", rawURL).Msg("Error response code")
		return "", resp.StatusCode
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error().Err(err).Str("url", rawURL).Msg("Problem reading the response body")
		return "", resp.StatusCode
	}

	log.Debug().Int("bytes", len(body)).Str("url", rawURL).Msg("Fetched book JSON")
	return string(body), resp.StatusCode
}

func parseRequestURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("missing host")
	}
	return u, nil
}

// readDeadlineConn arms a fresh read deadline before every Read, so a
// stalled server trips the timeout while a slow but steady one does not.
type readDeadlineConn struct {
	net.Conn
	timeout time.Duration
}

func (c *readDeadlineConn) Read(p []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Read(p)
}
