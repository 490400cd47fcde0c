package discover

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// EventKind says whether a TV appeared or went away.
type EventKind int

const (
	Added EventKind = iota
	Removed
)

func (k EventKind) String() string {
	if k == Removed {
		return "removed"
	}
	return "added"
}

// Device is a TV found on the network.
type Device struct {
	Name     string
	Address  string
	Port     int
	Service  string
	LastSeen time.Time
}

// Label is the text shown for the device in lists.
func (d Device) Label() string {
	if strings.TrimSpace(d.Name) == "" {
		return d.Address
	}
	return d.Name + " (" + d.Address + ")"
}

// Event is one change to the set of known devices.
type Event struct {
	Kind   EventKind
	Device Device
}

// Registry keeps the devices currently visible on the network, keyed by
// address, and fans changes out to subscribers. The zero value is ready to use.
type Registry struct {
	mu          sync.RWMutex
	devices     map[string]Device
	subscribers []func(Event)
}

// Subscribe registers fn to receive every applied event. fn runs on the
// goroutine that called Apply and must not block.
func (r *Registry) Subscribe(fn func(Event)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribers = append(r.subscribers, fn)
}

// Apply records an event. Re-adding a known device only refreshes it and
// removing an unknown one is ignored; neither notifies subscribers.
func (r *Registry) Apply(ev Event) {
	addr := strings.TrimSpace(ev.Device.Address)
	if addr == "" {
		return
	}
	ev.Device.Address = addr

	r.mu.Lock()
	if r.devices == nil {
		r.devices = make(map[string]Device)
	}
	_, known := r.devices[addr]
	notify := false
	switch ev.Kind {
	case Added:
		if ev.Device.LastSeen.IsZero() {
			ev.Device.LastSeen = time.Now()
		}
		r.devices[addr] = ev.Device
		notify = !known
	case Removed:
		if known {
			ev.Device = r.devices[addr]
			delete(r.devices, addr)
			notify = true
		}
	}
	subs := append([]func(Event){}, r.subscribers...)
	r.mu.Unlock()

	if !notify {
		return
	}
	for _, fn := range subs {
		fn(ev)
	}
}

// Lookup returns the device at address.
func (r *Registry) Lookup(address string) (Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	dev, ok := r.devices[strings.TrimSpace(address)]
	return dev, ok
}

// Snapshot returns the known devices sorted by name, then address.
func (r *Registry) Snapshot() []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Device, 0, len(r.devices))
	for _, dev := range r.devices {
		out = append(out, dev)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Address < out[j].Address
	})
	return out
}
