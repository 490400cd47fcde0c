package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/macdems/philipstv/internal/jointspace"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state", "test.db"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenLockedFile(t *testing.T) {
	old := lockTimeout
	lockTimeout = 50 * time.Millisecond
	t.Cleanup(func() { lockTimeout = old })

	path := filepath.Join(t.TempDir(), "state.db")
	first, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}

	if _, err := Open(path); !errors.Is(err, ErrLocked) {
		t.Fatalf("second Open error = %v, want ErrLocked", err)
	}

	if err := first.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	second, err := Open(path)
	if err != nil {
		t.Fatalf("Open after Close returned error: %v", err)
	}
	_ = second.Close()
}

func TestLoadEndpointEmpty(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.LoadEndpoint(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("LoadEndpoint error = %v, want ErrNotFound", err)
	}
}

func TestSaveAndLoadEndpoint(t *testing.T) {
	s := newTestStore(t)

	err := s.SaveEndpoint(jointspace.Endpoint{
		Host:            " 192.168.1.20 ",
		HardwareAddress: "AA:BB:CC:DD:EE:FF",
		Credential:      &jointspace.Credential{Username: "user", Secret: "secret"},
	})
	if err != nil {
		t.Fatalf("SaveEndpoint returned error: %v", err)
	}

	ep, err := s.LoadEndpoint()
	if err != nil {
		t.Fatalf("LoadEndpoint returned error: %v", err)
	}
	if ep.Host != "192.168.1.20" || ep.HardwareAddress != "AA:BB:CC:DD:EE:FF" {
		t.Fatalf("endpoint = %+v", ep)
	}
	if ep.Credential == nil || ep.Credential.Username != "user" || ep.Credential.Secret != "secret" {
		t.Fatalf("credential = %+v", ep.Credential)
	}
}

func TestSwitchingHostKeepsCredentialsPerHost(t *testing.T) {
	s := newTestStore(t)

	if err := s.SaveCredential("tv-a", jointspace.Credential{Username: "a", Secret: "1"}); err != nil {
		t.Fatalf("SaveCredential returned error: %v", err)
	}
	if err := s.SaveEndpoint(jointspace.Endpoint{Host: "tv-b"}); err != nil {
		t.Fatalf("SaveEndpoint returned error: %v", err)
	}

	ep, err := s.LoadEndpoint()
	if err != nil {
		t.Fatalf("LoadEndpoint returned error: %v", err)
	}
	if ep.Credential != nil {
		t.Fatalf("tv-b credential = %+v, want none", ep.Credential)
	}

	if err := s.SaveEndpoint(jointspace.Endpoint{Host: "tv-a"}); err != nil {
		t.Fatalf("SaveEndpoint returned error: %v", err)
	}
	ep, _ = s.LoadEndpoint()
	if ep.Credential == nil || ep.Credential.Username != "a" {
		t.Fatalf("tv-a credential = %+v, want a", ep.Credential)
	}

	hosts, err := s.Hosts()
	if err != nil || len(hosts) != 1 || hosts[0] != "tv-a" {
		t.Fatalf("Hosts = %v, %v", hosts, err)
	}
}

func TestDeleteCredential(t *testing.T) {
	s := newTestStore(t)

	if err := s.SaveCredential("tv", jointspace.Credential{Username: "u", Secret: "s"}); err != nil {
		t.Fatalf("SaveCredential returned error: %v", err)
	}
	if err := s.DeleteCredential("tv"); err != nil {
		t.Fatalf("DeleteCredential returned error: %v", err)
	}
	if _, err := s.Credential("tv"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Credential error = %v, want ErrNotFound", err)
	}
	if err := s.DeleteCredential("never-paired"); err != nil {
		t.Fatalf("DeleteCredential of missing host returned error: %v", err)
	}
}

func TestSaveEndpointRequiresHost(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveEndpoint(jointspace.Endpoint{HardwareAddress: "AA:BB:CC:DD:EE:FF"}); err == nil {
		t.Fatalf("SaveEndpoint returned nil error for empty host")
	}
}

func TestInstanceIDIsStable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	first, err := s.InstanceID()
	if err != nil {
		t.Fatalf("InstanceID returned error: %v", err)
	}
	if _, err := uuid.Parse(first); err != nil {
		t.Fatalf("InstanceID %q is not a uuid: %v", first, err)
	}
	_ = s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	defer s.Close()
	second, _ := s.InstanceID()
	if second != first {
		t.Fatalf("InstanceID after reopen = %q, want %q", second, first)
	}
}

func TestTheme(t *testing.T) {
	s := newTestStore(t)

	theme, err := s.Theme()
	if err != nil || theme != "" {
		t.Fatalf("Theme = %q, %v; want empty", theme, err)
	}
	if err := s.SaveTheme("Kanagawa"); err != nil {
		t.Fatalf("SaveTheme returned error: %v", err)
	}
	if theme, _ := s.Theme(); theme != "Kanagawa" {
		t.Fatalf("Theme = %q, want Kanagawa", theme)
	}
}
