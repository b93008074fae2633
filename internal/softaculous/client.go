package softaculous

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// maxBodyBytes caps how much of a reply is read; installation lists on busy
// accounts run to a few hundred KB.
const maxBodyBytes = 16 << 20

// Timeouts bounds each HTTP exchange. Connect applies to dialing, the others
// to a whole exchange including the body read.
type Timeouts struct {
	Connect time.Duration
	Request time.Duration
	Login   time.Duration
	Heavy   time.Duration
}

// DefaultTimeouts are sized for shared hosting panels that can take well over
// a minute to finish an install.
var DefaultTimeouts = Timeouts{
	Connect: 15 * time.Second,
	Request: 30 * time.Second,
	Login:   60 * time.Second,
	Heavy:   120 * time.Second,
}

// Client speaks the Softaculous API on behalf of one hosting account.
type Client struct {
	desc       Descriptor
	httpClient *http.Client
	logger     zerolog.Logger
	themePaths []string
	timeouts   Timeouts
}

type Option func(*Client)

// WithHTTPClient replaces the base HTTP client. DirectAdmin calls copy it and
// attach a per-call cookie jar, so the client passed in is never mutated.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithThemePaths overrides the ordered cPanel path candidates.
func WithThemePaths(paths ...string) Option {
	return func(c *Client) { c.themePaths = append([]string(nil), paths...) }
}

func WithTimeouts(t Timeouts) Option {
	return func(c *Client) { c.timeouts = t }
}

func NewClient(desc Descriptor, opts ...Option) *Client {
	c := &Client{
		desc:       desc,
		logger:     zerolog.Nop(),
		themePaths: CPanelThemePaths,
		timeouts:   DefaultTimeouts,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = NewHTTPClient(c.timeouts.Connect)
	}
	return c
}

// NewHTTPClient returns a client for hosting panels. Certificate checks are
// off: panels almost always serve self-signed certificates on their admin ports.
func NewHTTPClient(connectTimeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   connectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig:       &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // self-signed panel certs
		TLSHandshakeTimeout:   connectTimeout,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	return &http.Client{Transport: transport}
}

// Descriptor returns the connection the client is bound to.
func (c *Client) Descriptor() Descriptor { return c.desc }

// Do executes one action against the bound backend and returns the decoded
// reply. Action methods build on it; it is exported for operator tooling.
func (c *Client) Do(ctx context.Context, req *ActionRequest) (any, error) {
	if req == nil || req.Action == "" {
		return nil, validationError("action")
	}
	logger := c.logger.With().
		Str("call_id", uuid.NewString()).
		Str("backend", string(c.desc.Kind)).
		Str("host", c.desc.Host).
		Str("action", req.Action).
		Logger()
	ctx = logger.WithContext(ctx)

	var (
		reply any
		err   error
	)
	switch c.desc.Kind {
	case BackendCPanel:
		reply, err = c.doCPanel(ctx, req)
	case BackendDirectAdmin:
		reply, err = c.doDirectAdmin(ctx, req)
	default:
		return nil, newError(KindValidation, "unsupported backend kind %q", c.desc.Kind)
	}
	if err != nil {
		logger.Warn().Err(err).Msg("softaculous call failed")
		return nil, err
	}
	return reply, nil
}

func (c *Client) timeoutFor(req *ActionRequest) time.Duration {
	if req.Heavy {
		return c.timeouts.Heavy
	}
	return c.timeouts.Request
}

// roundTrip performs one HTTP exchange against path and decodes the reply.
func (c *Client) roundTrip(ctx context.Context, hc *http.Client, req *ActionRequest, path string, basicAuth bool) (any, error) {
	payload, contentType, err := req.body()
	if err != nil {
		return nil, &Error{Kind: KindValidation, Message: "encode request body", Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeoutFor(req))
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method(), c.desc.baseURL()+req.target(path), body)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Message: "build request", Err: err}
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if basicAuth {
		httpReq.SetBasicAuth(c.desc.Username, c.desc.Password)
	}

	start := time.Now()
	reply, status, err := c.send(hc, httpReq)
	observeExchange(c.desc.Kind, req.Action, start, err)

	zerolog.Ctx(ctx).Debug().
		Str("method", httpReq.Method).
		Str("path", path).
		Int("status", status).
		Dur("duration", time.Since(start)).
		Err(err).
		Msg("softaculous exchange")
	return reply, err
}

func (c *Client) send(hc *http.Client, httpReq *http.Request) (any, int, error) {
	resp, err := hc.Do(httpReq)
	if err != nil {
		return nil, 0, &Error{Kind: KindTransport, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, &Error{Kind: KindTransport, Message: "read response", Err: err}
	}
	reply, err := decodeResponse(resp.StatusCode, data)
	return reply, resp.StatusCode, err
}
