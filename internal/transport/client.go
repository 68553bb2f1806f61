package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/crmx/internal/shared"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "http://127.0.0.1:3000"

// CacheBustParam is the query parameter carrying the uniqueness token of a bypassing request.
const CacheBustParam = "_"

// Options configures a [Client].
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *log.Logger
	Timeout    time.Duration // zero leaves requests outstanding until cancelled
	RateLimit  float64       // requests per second, zero disables pacing
	Burst      int
	CacheTTL   time.Duration // zero disables the response cache
	Token      string        // bearer token for the session
	Session    *shared.SessionHeaders
}

// Request describes one API call.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Body        any
	BypassCache bool
}

// Client issues API requests and classifies their outcomes.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
	timeout    time.Duration
	limiter    *rate.Limiter
	cache      *Cache
	session    *shared.SessionHeaders
	newToken   func() string
}

// New creates a Client from opts.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}

	httpClient := opts.HTTPClient
	if opts.Token != "" {
		base := httpClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		authed := *httpClient
		authed.Transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token, TokenType: "Bearer"}),
			Base:   base,
		}
		httpClient = &authed
	}

	c := &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: httpClient,
		logger:     shared.WithLogger(opts.Logger, "component", "transport"),
		timeout:    opts.Timeout,
		session:    opts.Session,
		newToken:   uuid.NewString,
	}
	if opts.RateLimit > 0 {
		burst := max(opts.Burst, 1)
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	if opts.CacheTTL > 0 {
		c.cache = NewCache(opts.CacheTTL)
	}
	return c
}

// FromConfig builds a Client from the [shared.Config] api section.
func FromConfig(cfg *shared.Config, httpClient *http.Client, logger *log.Logger) (*Client, error) {
	var session *shared.SessionHeaders
	if cfg.API.SessionCurl != "" {
		s, err := shared.ParseCurlFile(cfg.API.SessionCurl)
		if err != nil {
			return nil, fmt.Errorf("failed to load session headers: %w", err)
		}
		session = s
	}

	return New(Options{
		BaseURL:    cfg.API.BaseURL,
		HTTPClient: httpClient,
		Logger:     logger,
		Timeout:    cfg.API.Timeout.Duration,
		RateLimit:  cfg.API.RateLimit,
		Burst:      cfg.API.Burst,
		CacheTTL:   cfg.API.CacheTTL.Duration,
		Token:      cfg.API.Token,
		Session:    session,
	}), nil
}

// Cache returns the response cache, or nil when caching is disabled.
func (c *Client) Cache() *Cache { return c.cache }

// Do performs req and decodes a JSON success body into out (which may be nil).
//
// The returned error is nil or a [*Failure].
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	if err := ctx.Err(); err != nil {
		return aborted(err)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	canonical, full := c.urls(req)

	if method == http.MethodGet && !req.BypassCache && c.cache != nil {
		if body, ok := c.cache.Get(canonical); ok {
			c.logger.Debug("cache hit", "url", canonical)
			return decode(body, out)
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return c.classify(ctx, err)
		}
	}

	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return &Failure{Kind: KindParse, Message: "failed to encode request body", Err: err}
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(callCtx, method, full, body)
	if err != nil {
		return &Failure{Kind: KindNetwork, Message: "failed to create request", Err: err}
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.BypassCache {
		httpReq.Header.Set("Cache-Control", "no-store, no-cache")
		httpReq.Header.Set("Pragma", "no-cache")
	}
	c.session.Apply(httpReq.Header)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return c.classify(ctx, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.classify(ctx, err)
	}

	c.logger.Debug("request", "method", method, "url", full, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		f := httpFailure(resp.StatusCode, data)
		c.logger.Warn("request failed", "method", method, "url", canonical, "status", resp.StatusCode, "message", f.Message)
		return f
	}

	if method != http.MethodGet && c.cache != nil {
		c.cache.Invalidate("")
	}

	if isEmpty(resp, data) {
		return nil
	}

	if err := decode(data, out); err != nil {
		c.logger.Warn("malformed response", "url", canonical, "err", err)
		return err
	}

	if method == http.MethodGet && c.cache != nil {
		c.cache.Put(canonical, data)
	}
	return nil
}

// urls returns the cache key (without the bust token) and the URL actually requested.
func (c *Client) urls(req Request) (canonical, full string) {
	q := url.Values{}
	for k, v := range req.Query {
		q[k] = append([]string(nil), v...)
	}

	canonical = c.baseURL + req.Path
	if enc := q.Encode(); enc != "" {
		canonical += "?" + enc
	}

	if !req.BypassCache {
		return canonical, canonical
	}

	q.Set(CacheBustParam, c.newToken())
	return canonical, c.baseURL + req.Path + "?" + q.Encode()
}

// classify maps transport-level errors; the caller's ctx decides between aborted and timed out.
func (c *Client) classify(ctx context.Context, err error) *Failure {
	switch {
	case errors.Is(ctx.Err(), context.Canceled), errors.Is(err, context.Canceled):
		c.logger.Debug("request aborted", "err", err)
		return aborted(err)
	case errors.Is(err, context.DeadlineExceeded):
		return &Failure{Kind: KindNetwork, Message: shared.ErrTimeout.Error(), Err: err}
	default:
		c.logger.Warn("network failure", "err", err)
		return &Failure{Kind: KindNetwork, Message: "network request failed", Err: err}
	}
}

// isEmpty reports bodies that must be treated as "{}".
func isEmpty(resp *http.Response, body []byte) bool {
	if resp.StatusCode == http.StatusNoContent || resp.ContentLength == 0 {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || !strings.HasSuffix(mediaType, "json") {
		return true
	}
	return len(bytes.TrimSpace(body)) == 0
}

func decode(body []byte, out any) error {
	if out == nil {
		if !json.Valid(body) {
			return &Failure{Kind: KindParse, Message: "failed to parse response"}
		}
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Failure{Kind: KindParse, Message: fmt.Sprintf("failed to parse response: %v", err), Err: err}
	}
	return nil
}
