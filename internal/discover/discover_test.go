package discover

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"
)

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) record(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) snapshot() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event(nil), l.events...)
}

func TestRegistryApply(t *testing.T) {
	var reg Registry
	var log eventLog
	reg.Subscribe(log.record)

	reg.Apply(Event{Kind: Added, Device: Device{Name: "Living room", Address: "10.0.0.5"}})
	reg.Apply(Event{Kind: Added, Device: Device{Name: "Living room", Address: " 10.0.0.5 "}})
	reg.Apply(Event{Kind: Added, Device: Device{Name: "Bedroom", Address: "10.0.0.9"}})
	reg.Apply(Event{Kind: Removed, Device: Device{Address: "10.0.0.77"}})
	reg.Apply(Event{Kind: Removed, Device: Device{Address: "10.0.0.5"}})

	events := log.snapshot()
	if len(events) != 3 {
		t.Fatalf("events = %+v, want 3", events)
	}
	if events[2].Kind != Removed || events[2].Device.Name != "Living room" {
		t.Fatalf("last event = %+v, want removal of Living room", events[2])
	}

	snap := reg.Snapshot()
	if len(snap) != 1 || snap[0].Address != "10.0.0.9" {
		t.Fatalf("snapshot = %+v", snap)
	}
	if _, ok := reg.Lookup("10.0.0.5"); ok {
		t.Fatalf("removed device still found")
	}
}

func TestRegistrySnapshotSorted(t *testing.T) {
	var reg Registry
	reg.Apply(Event{Kind: Added, Device: Device{Name: "b", Address: "10.0.0.2"}})
	reg.Apply(Event{Kind: Added, Device: Device{Name: "a", Address: "10.0.0.3"}})
	reg.Apply(Event{Kind: Added, Device: Device{Name: "a", Address: "10.0.0.1"}})

	snap := reg.Snapshot()
	want := []string{"10.0.0.1", "10.0.0.3", "10.0.0.2"}
	for i, addr := range want {
		if snap[i].Address != addr {
			t.Fatalf("snapshot[%d] = %s, want %s", i, snap[i].Address, addr)
		}
	}
}

func TestDeviceLabel(t *testing.T) {
	if got := (Device{Address: "10.0.0.1"}).Label(); got != "10.0.0.1" {
		t.Fatalf("Label = %q", got)
	}
	if got := (Device{Name: "TV", Address: "10.0.0.1"}).Label(); got != "TV (10.0.0.1)" {
		t.Fatalf("Label = %q", got)
	}
}

// fakeNetwork announces a fixed set of entries per service.
type fakeNetwork struct {
	mu      sync.Mutex
	entries map[string][]Entry
	err     error
}

func (n *fakeNetwork) set(service string, entries ...Entry) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.entries[service] = entries
}

func (n *fakeNetwork) browse(_ context.Context, service string, found func(Entry)) error {
	n.mu.Lock()
	entries := append([]Entry(nil), n.entries[service]...)
	err := n.err
	n.mu.Unlock()
	if err != nil {
		return err
	}
	for _, e := range entries {
		found(e)
	}
	return nil
}

func TestCycleAddsAndRemoves(t *testing.T) {
	network := &fakeNetwork{entries: map[string][]Entry{}}
	network.set("_androidtvremote2._tcp",
		Entry{Instance: "PhilipsTV", Address: "10.0.0.5", Port: 6466},
		Entry{Instance: "OtherBrand", Address: "10.0.0.6", Port: 6466},
	)
	network.set("_androidtvremote._tcp", Entry{Instance: "PhilipsTV", Address: "10.0.0.5", Port: 6466})

	probes := 0
	probe := func(_ context.Context, address string) (string, error) {
		probes++
		if address == "10.0.0.6" {
			return "", errors.New("connection refused")
		}
		return "55OLED806", nil
	}

	var reg Registry
	var log eventLog
	reg.Subscribe(log.record)
	b := NewBrowser(&reg, BrowserOptions{Browse: network.browse, Probe: probe, BrowseWindow: 10 * time.Millisecond})

	if err := b.Cycle(context.Background()); err != nil {
		t.Fatalf("Cycle returned error: %v", err)
	}
	snap := reg.Snapshot()
	if len(snap) != 1 || snap[0].Name != "55OLED806" || snap[0].Port != 6466 {
		t.Fatalf("snapshot = %+v", snap)
	}

	if err := b.Cycle(context.Background()); err != nil {
		t.Fatalf("second Cycle returned error: %v", err)
	}
	if probes != 3 {
		t.Fatalf("probes = %d, want 3 (known tv probed once)", probes)
	}

	network.set("_androidtvremote2._tcp")
	network.set("_androidtvremote._tcp")
	if err := b.Cycle(context.Background()); err != nil {
		t.Fatalf("third Cycle returned error: %v", err)
	}
	if len(reg.Snapshot()) != 0 {
		t.Fatalf("snapshot = %+v, want empty", reg.Snapshot())
	}

	events := log.snapshot()
	if len(events) != 2 || events[0].Kind != Added || events[1].Kind != Removed {
		t.Fatalf("events = %+v, want added then removed", events)
	}
}

func TestCycleKeepsDevicesWhenBrowsingFails(t *testing.T) {
	network := &fakeNetwork{entries: map[string][]Entry{}}
	var reg Registry
	reg.Apply(Event{Kind: Added, Device: Device{Name: "TV", Address: "10.0.0.5"}})
	network.err = errors.New("no multicast interface")

	b := NewBrowser(&reg, BrowserOptions{Browse: network.browse})
	if err := b.Cycle(context.Background()); err == nil {
		t.Fatalf("Cycle returned nil error")
	}
	if len(reg.Snapshot()) != 1 {
		t.Fatalf("device removed after a failed browse")
	}
}

func TestCycleWithoutProbeUsesInstanceName(t *testing.T) {
	network := &fakeNetwork{entries: map[string][]Entry{}}
	network.set("_androidtvremote2._tcp", Entry{Instance: "Kitchen", Address: "10.0.0.8"})

	var reg Registry
	b := NewBrowser(&reg, BrowserOptions{Browse: network.browse})
	if err := b.Cycle(context.Background()); err != nil {
		t.Fatalf("Cycle returned error: %v", err)
	}
	dev, ok := reg.Lookup("10.0.0.8")
	if !ok || dev.Name != "Kitchen" || dev.Service != "_androidtvremote2._tcp" {
		t.Fatalf("device = %+v, %v", dev, ok)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	network := &fakeNetwork{entries: map[string][]Entry{}}
	var reg Registry
	b := NewBrowser(&reg, BrowserOptions{Browse: network.browse, Interval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}

func TestSystemProbe(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/6/system" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "" {
			t.Errorf("probe sent credentials")
		}
		_, _ = w.Write([]byte(`{"name":"55OLED806","api_version":{"Major":6}}`))
	}))
	t.Cleanup(server.Close)

	u, _ := url.Parse(server.URL)
	host, portStr, _ := net.SplitHostPort(u.Host)
	port, _ := strconv.Atoi(portStr)

	name, err := SystemProbe(port, 6, true)(context.Background(), host)
	if err != nil {
		t.Fatalf("probe returned error: %v", err)
	}
	if name != "55OLED806" {
		t.Fatalf("name = %q, want 55OLED806", name)
	}
}

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second},
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}
