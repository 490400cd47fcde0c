package app

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/macdems/philipstv/internal/config"
	"github.com/macdems/philipstv/internal/jointspace"
	"github.com/macdems/philipstv/internal/logging"
)

type endpointTarget interface {
	SetEndpoint(ep jointspace.Endpoint)
	SetHardwareAddress(mac string)
}

type credentialSource interface {
	Credential(host string) (jointspace.Credential, error)
	LoadEndpoint() (jointspace.Endpoint, error)
}

// retargeter follows tv.host and tv.mac across config reloads. Only values
// that changed since the previous revision are applied, so a TV picked in the
// UI stays selected when unrelated settings are edited.
type retargeter struct {
	mu    sync.Mutex
	host  string
	mac   string
	tv    endpointTarget
	creds credentialSource
	log   *zerolog.Logger
}

func newRetargeter(cfg config.Config, tv endpointTarget, creds credentialSource, log *zerolog.Logger) *retargeter {
	return &retargeter{
		host:  strings.TrimSpace(cfg.TV.Host),
		mac:   strings.TrimSpace(cfg.TV.MAC),
		tv:    tv,
		creds: creds,
		log:   log,
	}
}

func (r *retargeter) apply(cfg config.Config) {
	host := strings.TrimSpace(cfg.TV.Host)
	mac := strings.TrimSpace(cfg.TV.MAC)

	r.mu.Lock()
	defer r.mu.Unlock()

	if host != r.host {
		r.host, r.mac = host, mac
		if host == "" {
			return
		}
		ep := jointspace.Endpoint{Host: host, HardwareAddress: mac}
		if mac == "" {
			if saved, err := r.creds.LoadEndpoint(); err == nil && saved.Host == host {
				ep.HardwareAddress = saved.HardwareAddress
			}
		}
		if cred, err := r.creds.Credential(host); err == nil {
			ep.Credential = &cred
		}
		r.tv.SetEndpoint(ep)
		r.log.Info().Str("host", host).Bool("paired", ep.Credential != nil).Msg("tv host changed")
		return
	}
	if mac != r.mac {
		r.mac = mac
		if mac != "" {
			r.tv.SetHardwareAddress(mac)
			r.log.Info().Str("mac", mac).Msg("tv hardware address changed")
		}
	}
}

// watchConfig retargets the client when the config file changes. The
// returned func stops watching. Failing to watch is not fatal.
func watchConfig(ctx context.Context, e *env, path string) func() {
	log := logging.Component(e.log, "app")
	r := newRetargeter(e.cfg, e.client, e.store, log)
	w, err := config.Watch(ctx, path, &e.log, r.apply)
	if err != nil {
		log.Warn().Err(err).Msg("config changes will not be picked up")
		return func() {}
	}
	return func() { _ = w.Close() }
}
