package jointspace

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/icholy/digest"
	"github.com/rs/zerolog"
)

const (
	DefaultPort       = 1926
	DefaultAPIVersion = 6

	defaultAttempts  = 3
	defaultTimeout   = 500 * time.Millisecond
	defaultWakeDelay = 500 * time.Millisecond
	defaultUserAgent = "philipstv/0.1"
	maxResponseBytes = 4 << 20
)

// Credential is the digest username/secret pair issued by pairing.
type Credential struct {
	Username string
	Secret   string
}

// Endpoint identifies the TV a Client talks to. An empty Host means no
// endpoint is configured.
type Endpoint struct {
	Host            string
	HardwareAddress string
	Credential      *Credential
}

// RetryPolicy controls the timeout/wake escalation of a request. Timeout and
// wake delay double after every timed out attempt.
type RetryPolicy struct {
	Attempts      int
	BaseTimeout   time.Duration
	BaseWakeDelay time.Duration
}

// DefaultRetryPolicy returns 3 attempts starting at 500ms timeout and 500ms wake delay.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: defaultAttempts, BaseTimeout: defaultTimeout, BaseWakeDelay: defaultWakeDelay}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.Attempts < 1 {
		p.Attempts = defaultAttempts
	}
	if p.BaseTimeout <= 0 {
		p.BaseTimeout = defaultTimeout
	}
	if p.BaseWakeDelay < 0 {
		p.BaseWakeDelay = 0
	}
	return p
}

// Waker revives a sleeping device given its hardware address. *wol.Sender
// satisfies it.
type Waker interface {
	Send(ctx context.Context, hardwareAddress string) error
}

// Options configure a Client.
type Options struct {
	Endpoint   Endpoint
	Retry      RetryPolicy
	Port       int // zero uses DefaultPort
	APIVersion int // zero uses DefaultAPIVersion

	// InsecureSkipVerify disables TLS certificate verification. Philips TVs
	// serve a self-signed certificate with no authority behind it, so real
	// devices need this set. Leaving it false makes every request fail with
	// ErrUnreachable unless the certificate is trusted by the host.
	InsecureSkipVerify bool

	Device DeviceInfo  // pairing descriptor; zero fields get defaults
	Signer GrantSigner // nil sends the stub signature
	Waker  Waker       // nil disables Wake-on-LAN
	Logger *zerolog.Logger

	// Sleep pauses between a wake and the next attempt. Nil uses a
	// context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
	// Transport replaces the default TLS transport.
	Transport http.RoundTripper
	// LookupHost resolves the configured host for NetworkDevice. Nil uses net.DefaultResolver.
	LookupHost func(ctx context.Context, host string) ([]string, error)
}

// Client executes JointSpace requests against one TV.
type Client struct {
	mu       sync.RWMutex
	endpoint Endpoint
	authCred Credential
	authHTTP *http.Client

	transport  http.RoundTripper
	baseHTTP   *http.Client
	retry      RetryPolicy
	port       int
	apiVersion int
	device     DeviceInfo
	signer     GrantSigner
	waker      Waker
	sleep      func(ctx context.Context, d time.Duration) error
	lookupHost func(ctx context.Context, host string) ([]string, error)
	log        zerolog.Logger
	userAgent  string
}

// NewClient builds a Client from opts.
func NewClient(opts Options) *Client {
	transport := opts.Transport
	if transport == nil {
		transport = newTransport(opts.InsecureSkipVerify)
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "jointspace").Logger()
	}
	port := opts.Port
	if port <= 0 {
		port = DefaultPort
	}
	apiVersion := opts.APIVersion
	if apiVersion <= 0 {
		apiVersion = DefaultAPIVersion
	}
	signer := opts.Signer
	if signer == nil {
		signer = StubSigner{}
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	lookup := opts.LookupHost
	if lookup == nil {
		lookup = net.DefaultResolver.LookupHost
	}

	return &Client{
		endpoint:   cloneEndpoint(opts.Endpoint),
		transport:  transport,
		baseHTTP:   &http.Client{Transport: transport},
		retry:      opts.Retry.normalized(),
		port:       port,
		apiVersion: apiVersion,
		device:     opts.Device.withDefaults(),
		signer:     signer,
		waker:      opts.Waker,
		sleep:      sleep,
		lookupHost: lookup,
		log:        logger,
		userAgent:  defaultUserAgent,
	}
}

func newTransport(insecure bool) *http.Transport {
	return &http.Transport{
		DialContext: (&net.Dialer{KeepAlive: 30 * time.Second}).DialContext,
		// Self-signed device certificate, see Options.InsecureSkipVerify.
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: insecure}, //nolint:gosec
		MaxConnsPerHost:     1,
		MaxIdleConnsPerHost: 1,
		IdleConnTimeout:     30 * time.Second,
	}
}

// Endpoint returns a copy of the current endpoint.
func (c *Client) Endpoint() Endpoint {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneEndpoint(c.endpoint)
}

// SetEndpoint replaces the endpoint.
func (c *Client) SetEndpoint(e Endpoint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endpoint = cloneEndpoint(e)
}

// SetHost points the client at a different TV. The hardware address and
// credential belong to the previous device and are cleared.
func (c *Client) SetHost(host string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endpoint = Endpoint{Host: strings.TrimSpace(host)}
}

// SetHardwareAddress sets the address used for Wake-on-LAN.
func (c *Client) SetHardwareAddress(mac string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endpoint.HardwareAddress = strings.TrimSpace(mac)
}

// SetCredential replaces the stored credential; nil clears it.
func (c *Client) SetCredential(cred *Credential) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cred == nil {
		c.endpoint.Credential = nil
		return
	}
	dup := *cred
	c.endpoint.Credential = &dup
}

// RequestOption adjusts a single Execute call.
type RequestOption func(*requestConfig)

type requestConfig struct {
	noAuth     bool
	timeout    time.Duration
	credential *Credential
}

// WithoutAuth sends the request without digest authentication.
func WithoutAuth() RequestOption {
	return func(rc *requestConfig) { rc.noAuth = true }
}

// WithTimeout overrides the timeout of the first attempt. Later attempts still double it.
func WithTimeout(d time.Duration) RequestOption {
	return func(rc *requestConfig) { rc.timeout = d }
}

func withCredential(cred Credential) RequestOption {
	return func(rc *requestConfig) { rc.credential = &cred }
}

// attemptState is the retry loop's state. A timeout moves it to next(),
// which is the only place timeout and wake delay escalate.
type attemptState struct {
	attempt   int
	timeout   time.Duration
	wakeDelay time.Duration
}

func (s attemptState) next() attemptState {
	return attemptState{attempt: s.attempt + 1, timeout: s.timeout * 2, wakeDelay: s.wakeDelay * 2}
}

// Execute sends one logical command to the TV and returns the raw JSON body.
// A 200 response with an empty body yields a nil result and no error.
func (c *Client) Execute(ctx context.Context, method, path string, body any, opts ...RequestOption) (json.RawMessage, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var rc requestConfig
	for _, opt := range opts {
		opt(&rc)
	}

	endpoint := c.Endpoint()
	if strings.TrimSpace(endpoint.Host) == "" {
		return nil, ErrNoEndpoint
	}

	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		payload = encoded
	}

	httpClient := c.httpClientFor(endpoint, rc)
	target := c.targetURL(endpoint.Host, path)

	state := attemptState{attempt: 1, timeout: c.retry.BaseTimeout, wakeDelay: c.retry.BaseWakeDelay}
	if rc.timeout > 0 {
		state.timeout = rc.timeout
	}

	for {
		c.log.Debug().
			Str("method", method).
			Str("path", path).
			Int("attempt", state.attempt).
			Dur("timeout", state.timeout).
			Msg("device request")

		status, respBody, err := c.attempt(ctx, httpClient, method, target, payload, state.timeout)
		if err == nil {
			return c.interpret(path, status, respBody)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if !isTimeout(err) {
			return nil, fmt.Errorf("%w: %s %s: %w", ErrUnreachable, method, path, err)
		}
		if state.attempt >= c.retry.Attempts {
			c.log.Warn().Str("path", path).Int("attempts", state.attempt).Msg("device request timed out, giving up")
			return nil, fmt.Errorf("%w: %s %s timed out after %d attempts: %w", ErrUnreachable, method, path, state.attempt, err)
		}

		c.log.Warn().Str("path", path).Int("attempt", state.attempt).Dur("timeout", state.timeout).Msg("device request timed out")
		if err := c.wake(ctx, endpoint.HardwareAddress, state.wakeDelay); err != nil {
			return nil, err
		}
		state = state.next()
	}
}

func (c *Client) attempt(ctx context.Context, httpClient *http.Client, method, target string, payload []byte, timeout time.Duration) (int, []byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(attemptCtx, method, target, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		// The digest transport returns a challenge-less 401 with its body
		// already drained and closed.
		if resp.StatusCode == http.StatusUnauthorized {
			return resp.StatusCode, nil, nil
		}
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

func (c *Client) interpret(path string, status int, body []byte) (json.RawMessage, error) {
	switch status {
	case http.StatusOK:
		trimmed := bytes.TrimSpace(body)
		if len(trimmed) == 0 {
			return nil, nil
		}
		if !json.Valid(trimmed) {
			return nil, &DeviceError{Status: status, Path: path, Body: string(body), Err: errors.New("invalid JSON")}
		}
		return json.RawMessage(trimmed), nil
	case http.StatusUnauthorized:
		return nil, fmt.Errorf("%s: %w", path, ErrUnauthorized)
	default:
		return nil, &DeviceError{Status: status, Path: path, Body: string(body)}
	}
}

func (c *Client) wake(ctx context.Context, hardwareAddress string, delay time.Duration) error {
	if strings.TrimSpace(hardwareAddress) == "" || c.waker == nil {
		return nil
	}
	c.log.Info().Str("mac", hardwareAddress).Dur("wake_delay", delay).Msg("sending wake-on-lan")
	if err := c.waker.Send(ctx, hardwareAddress); err != nil {
		return fmt.Errorf("wake %s: %w", hardwareAddress, err)
	}
	return c.sleep(ctx, delay)
}

func (c *Client) httpClientFor(endpoint Endpoint, rc requestConfig) *http.Client {
	if rc.noAuth {
		return c.baseHTTP
	}
	if rc.credential != nil {
		return c.digestClient(*rc.credential)
	}
	if endpoint.Credential == nil {
		return c.baseHTTP
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.authHTTP == nil || c.authCred != *endpoint.Credential {
		c.authCred = *endpoint.Credential
		c.authHTTP = c.digestClient(c.authCred)
	}
	return c.authHTTP
}

func (c *Client) digestClient(cred Credential) *http.Client {
	return &http.Client{
		Transport: &digest.Transport{
			Username:  cred.Username,
			Password:  cred.Secret,
			Transport: c.transport,
		},
	}
}

func (c *Client) targetURL(host, path string) string {
	u := url.URL{
		Scheme: "https",
		Host:   net.JoinHostPort(strings.TrimSpace(host), strconv.Itoa(c.port)),
		Path:   "/" + strconv.Itoa(c.apiVersion) + "/" + strings.TrimPrefix(path, "/"),
	}
	return u.String()
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func cloneEndpoint(e Endpoint) Endpoint {
	out := Endpoint{Host: strings.TrimSpace(e.Host), HardwareAddress: strings.TrimSpace(e.HardwareAddress)}
	if e.Credential != nil {
		cred := *e.Credential
		out.Credential = &cred
	}
	return out
}

// DeviceInfo describes this remote to the TV during pairing.
type DeviceInfo struct {
	Name    string `json:"device_name"`
	OS      string `json:"device_os"`
	AppID   string `json:"app_id"`
	AppName string `json:"app_name"`
	Type    string `json:"type"`
	ID      string `json:"id"`
}

func (d DeviceInfo) withDefaults() DeviceInfo {
	if strings.TrimSpace(d.Name) == "" {
		d.Name = "philipstv"
	}
	if strings.TrimSpace(d.OS) == "" {
		d.OS = runtime.GOOS
	}
	if strings.TrimSpace(d.AppID) == "" {
		d.AppID = "app.id"
	}
	if strings.TrimSpace(d.AppName) == "" {
		d.AppName = "PhilipsTV Remote"
	}
	if strings.TrimSpace(d.Type) == "" {
		d.Type = "native"
	}
	return d
}
