package jointspace

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

const testChallenge = `Digest realm="XTV", nonce="dcd98b7102dd2f0e8b11d0f600bfb0c093", qop="auth", opaque="5ccc069c403ebaf9f0171e9517f40e41", algorithm=MD5`

var digestUsername = regexp.MustCompile(`username="([^"]*)"`)

// requireDigest answers with a digest challenge when the request carries no
// digest authorization and returns the username otherwise.
func requireDigest(w http.ResponseWriter, r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Digest ") {
		w.Header().Set("WWW-Authenticate", testChallenge)
		w.WriteHeader(http.StatusUnauthorized)
		return "", false
	}
	m := digestUsername.FindStringSubmatch(header)
	if m == nil {
		w.WriteHeader(http.StatusBadRequest)
		return "", false
	}
	return m[1], true
}

// newTLSClient starts a TLS test server and returns a Client aimed at it.
func newTLSClient(t *testing.T, handler http.Handler, opts Options) *Client {
	t.Helper()
	server := httptest.NewTLSServer(handler)
	t.Cleanup(server.Close)

	u, err := url.Parse(server.URL)
	if err != nil {
		t.Fatalf("parse server url: %v", err)
	}
	host, portStr, err := net.SplitHostPort(u.Host)
	if err != nil {
		t.Fatalf("split host port: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("parse port: %v", err)
	}
	opts.Endpoint.Host = host
	opts.Port = port
	opts.InsecureSkipVerify = true
	return NewClient(opts)
}

func decodeBody(t *testing.T, r *http.Request, dest any) {
	t.Helper()
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		t.Errorf("decode request body: %v", err)
	}
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

// scriptedTransport replays canned outcomes and records the per-attempt
// timeout each request was sent with.
type scriptedTransport struct {
	mu        sync.Mutex
	steps     []func(*http.Request) (*http.Response, error)
	timeouts  []time.Duration
	paths     []string
	callCount int
}

func (s *scriptedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if deadline, ok := req.Context().Deadline(); ok {
		s.timeouts = append(s.timeouts, time.Until(deadline))
	}
	s.paths = append(s.paths, req.URL.Path)
	idx := s.callCount
	if idx >= len(s.steps) {
		idx = len(s.steps) - 1
	}
	s.callCount++
	return s.steps[idx](req)
}

func (s *scriptedTransport) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callCount
}

func timeoutStep(*http.Request) (*http.Response, error) {
	return nil, timeoutError{}
}

func statusStep(status int, body string) func(*http.Request) (*http.Response, error) {
	return func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: status,
			Header:     make(http.Header),
			Body:       io.NopCloser(strings.NewReader(body)),
			Request:    req,
		}, nil
	}
}

type countingWaker struct {
	mu    sync.Mutex
	addrs []string
	err   error
}

func (w *countingWaker) Send(_ context.Context, addr string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.addrs = append(w.addrs, addr)
	return w.err
}

func (w *countingWaker) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.addrs)
}

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	return nil
}

// scriptedClient returns a Client wired to transport with recorded wakes and pauses.
func scriptedClient(transport http.RoundTripper, mac string, policy RetryPolicy) (*Client, *countingWaker, *sleepRecorder) {
	waker := &countingWaker{}
	sleeper := &sleepRecorder{}
	client := NewClient(Options{
		Endpoint:  Endpoint{Host: "192.0.2.10", HardwareAddress: mac},
		Retry:     policy,
		Transport: transport,
		Waker:     waker,
		Sleep:     sleeper.sleep,
	})
	return client, waker, sleeper
}
