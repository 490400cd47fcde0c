package discover

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
	"github.com/rs/zerolog"

	"github.com/macdems/philipstv/internal/jointspace"
)

// Services are the mDNS service types announced by Philips Android TVs.
var Services = []string{"_androidtvremote._tcp", "_androidtvremote2._tcp"}

const (
	defaultInterval     = 30 * time.Second
	defaultBrowseWindow = 3 * time.Second
	failureBackoffBase  = 2 * time.Second
	maxBackoff          = 30 * time.Second
	probeTimeout        = time.Second
)

// Entry is one resolved mDNS announcement.
type Entry struct {
	Instance string
	Address  string
	Port     int
	Service  string
}

// BrowseFunc reports every entry announced for service until ctx ends.
type BrowseFunc func(ctx context.Context, service string, found func(Entry)) error

// ProbeFunc checks that address answers the JointSpace API and returns the
// TV's name.
type ProbeFunc func(ctx context.Context, address string) (string, error)

// BrowserOptions configure a Browser.
type BrowserOptions struct {
	Interval     time.Duration // time between successful cycles
	BrowseWindow time.Duration // how long each service is browsed per cycle
	Services     []string
	Browse       BrowseFunc // nil uses mDNS via zeroconf
	Probe        ProbeFunc  // nil accepts every address, named after its mDNS instance
	Logger       *zerolog.Logger
}

// Browser periodically browses mDNS and keeps a Registry in sync with the
// TVs that answer.
type Browser struct {
	registry *Registry
	interval time.Duration
	window   time.Duration
	services []string
	browse   BrowseFunc
	probe    ProbeFunc
	log      zerolog.Logger
}

// NewBrowser builds a Browser feeding registry.
func NewBrowser(registry *Registry, opts BrowserOptions) *Browser {
	b := &Browser{
		registry: registry,
		interval: opts.Interval,
		window:   opts.BrowseWindow,
		services: opts.Services,
		browse:   opts.Browse,
		probe:    opts.Probe,
		log:      zerolog.Nop(),
	}
	if b.interval <= 0 {
		b.interval = defaultInterval
	}
	if b.window <= 0 {
		b.window = defaultBrowseWindow
	}
	if len(b.services) == 0 {
		b.services = Services
	}
	if b.browse == nil {
		b.browse = browseZeroconf
	}
	if opts.Logger != nil {
		b.log = opts.Logger.With().Str("component", "discover").Logger()
	}
	return b
}

// Run browses until ctx is cancelled. Failed cycles back off exponentially.
func (b *Browser) Run(ctx context.Context) {
	failures := 0
	for {
		wait := b.interval
		if err := b.Cycle(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			wait = calculateBackoff(failures, failureBackoffBase)
			failures++
			b.log.Warn().Err(err).Dur("retry_in", wait).Msg("discovery cycle failed")
		} else {
			failures = 0
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// Cycle performs one full browse over every service. Newly seen TVs that
// pass the probe are added; known TVs not seen in this cycle are removed.
// Removals are skipped when every service failed to browse.
func (b *Browser) Cycle(ctx context.Context) error {
	seen := make(map[string]Entry)
	var errs []error
	for _, service := range b.services {
		browseCtx, cancel := context.WithTimeout(ctx, b.window)
		err := b.browse(browseCtx, service, func(e Entry) {
			e.Address = strings.TrimSpace(e.Address)
			if e.Address == "" {
				return
			}
			if e.Service == "" {
				e.Service = service
			}
			if _, dup := seen[e.Address]; !dup {
				seen[e.Address] = e
			}
		})
		cancel()
		if err != nil {
			errs = append(errs, fmt.Errorf("browse %s: %w", service, err))
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	if len(errs) == len(b.services) {
		return errors.Join(errs...)
	}

	now := time.Now()
	for addr, entry := range seen {
		if dev, known := b.registry.Lookup(addr); known {
			dev.LastSeen = now
			b.registry.Apply(Event{Kind: Added, Device: dev})
			continue
		}
		name, err := b.identify(ctx, entry)
		if err != nil {
			b.log.Debug().Err(err).Str("address", addr).Msg("ignoring device that failed the probe")
			delete(seen, addr)
			continue
		}
		b.log.Info().Str("name", name).Str("address", addr).Msg("tv discovered")
		b.registry.Apply(Event{Kind: Added, Device: Device{
			Name:     name,
			Address:  addr,
			Port:     entry.Port,
			Service:  entry.Service,
			LastSeen: now,
		}})
	}

	for _, dev := range b.registry.Snapshot() {
		if _, ok := seen[dev.Address]; !ok {
			b.log.Info().Str("name", dev.Name).Str("address", dev.Address).Msg("tv gone")
			b.registry.Apply(Event{Kind: Removed, Device: dev})
		}
	}
	return errors.Join(errs...)
}

func (b *Browser) identify(ctx context.Context, entry Entry) (string, error) {
	if b.probe == nil {
		return entry.Instance, nil
	}
	name, err := b.probe(ctx, entry.Address)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(name) == "" {
		name = entry.Instance
	}
	return name, nil
}

// SystemProbe returns a ProbeFunc that reads the system node without
// authentication in a single short attempt.
func SystemProbe(port, apiVersion int, insecureSkipVerify bool) ProbeFunc {
	return func(ctx context.Context, address string) (string, error) {
		client := jointspace.NewClient(jointspace.Options{
			Endpoint:           jointspace.Endpoint{Host: address},
			Retry:              jointspace.RetryPolicy{Attempts: 1, BaseTimeout: probeTimeout},
			Port:               port,
			APIVersion:         apiVersion,
			InsecureSkipVerify: insecureSkipVerify,
		})
		info, err := client.System(ctx, jointspace.WithoutAuth())
		if err != nil {
			return "", err
		}
		return info.Name, nil
	}
}

func browseZeroconf(ctx context.Context, service string, found func(Entry)) error {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return fmt.Errorf("create resolver: %w", err)
	}
	entries := make(chan *zeroconf.ServiceEntry)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range entries {
			if len(e.AddrIPv4) == 0 {
				continue
			}
			found(Entry{Instance: e.Instance, Address: e.AddrIPv4[0].String(), Port: e.Port, Service: service})
		}
	}()
	if err := resolver.Browse(ctx, service, "local.", entries); err != nil {
		<-done
		return err
	}
	<-ctx.Done()
	<-done
	return nil
}

// calculateBackoff doubles base for every consecutive failure, capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	backoff := base
	for i := 0; i < failures; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}
