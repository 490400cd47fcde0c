// Package store persists the remote's state between runs in a bbolt file:
// the selected TV, the credential issued by each TV it has paired with, and
// a few client preferences.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/macdems/philipstv/internal/jointspace"
)

var (
	// ErrNotFound is returned when a key has never been written.
	ErrNotFound = errors.New("not found")
	// ErrLocked is returned by Open when another process holds the file,
	// usually a running TUI.
	ErrLocked = errors.New("state file is in use by another philipstv process")
)

// lockTimeout bounds the wait for the file lock.
var lockTimeout = time.Second

var (
	bucketEndpoint    = []byte("endpoint")
	bucketCredentials = []byte("credentials")
	bucketMeta        = []byte("meta")

	keyCurrent    = []byte("current")
	keyInstanceID = []byte("instance_id")
	keyTheme      = []byte("theme")
)

// Store is a bbolt-backed state file. It is safe for concurrent use.
type Store struct {
	db *bolt.DB
}

type endpointRecord struct {
	Host      string    `json:"host"`
	MAC       string    `json:"mac,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

type credentialRecord struct {
	Username string    `json:"username"`
	Secret   string    `json:"secret"`
	PairedAt time.Time `json:"paired_at"`
}

// Open opens or creates the state file at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("state path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: lockTimeout})
	if errors.Is(err, bolt.ErrTimeout) {
		return nil, fmt.Errorf("open %s: %w", path, ErrLocked)
	}
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketEndpoint, bucketCredentials, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the file lock.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadEndpoint returns the last selected TV together with the credential
// stored for its host, if any.
func (s *Store) LoadEndpoint() (jointspace.Endpoint, error) {
	var ep jointspace.Endpoint
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketEndpoint).Get(keyCurrent)
		if data == nil {
			return fmt.Errorf("endpoint: %w", ErrNotFound)
		}
		var rec endpointRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("decode endpoint: %w", err)
		}
		ep.Host = rec.Host
		ep.HardwareAddress = rec.MAC

		cred, err := readCredential(tx, rec.Host)
		if err == nil {
			ep.Credential = &cred
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		return nil
	})
	return ep, err
}

// SaveEndpoint records host and MAC as the selected TV. A non-nil
// credential is stored for the host as well.
func (s *Store) SaveEndpoint(ep jointspace.Endpoint) error {
	host := strings.TrimSpace(ep.Host)
	if host == "" {
		return fmt.Errorf("endpoint host is empty")
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(endpointRecord{Host: host, MAC: strings.TrimSpace(ep.HardwareAddress), UpdatedAt: time.Now().UTC()})
		if err != nil {
			return err
		}
		if err := tx.Bucket(bucketEndpoint).Put(keyCurrent, data); err != nil {
			return err
		}
		if ep.Credential != nil {
			return writeCredential(tx, host, *ep.Credential)
		}
		return nil
	})
}

// Credential returns the credential paired with host.
func (s *Store) Credential(host string) (jointspace.Credential, error) {
	var cred jointspace.Credential
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		cred, err = readCredential(tx, host)
		return err
	})
	return cred, err
}

// SaveCredential stores the credential paired with host, replacing any
// earlier one.
func (s *Store) SaveCredential(host string, cred jointspace.Credential) error {
	if strings.TrimSpace(host) == "" {
		return fmt.Errorf("credential host is empty")
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return writeCredential(tx, host, cred)
	})
}

// DeleteCredential forgets the credential of host. Deleting a missing one is not an error.
func (s *Store) DeleteCredential(host string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketCredentials).Delete([]byte(strings.TrimSpace(host)))
	})
}

// Hosts lists every host with a stored credential.
func (s *Store) Hosts() ([]string, error) {
	var hosts []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketCredentials).ForEach(func(k, _ []byte) error {
			hosts = append(hosts, string(k))
			return nil
		})
	})
	return hosts, err
}

// InstanceID returns a stable identifier for this installation, generating
// it on first use.
func (s *Store) InstanceID() (string, error) {
	var id string
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketMeta)
		if data := b.Get(keyInstanceID); data != nil {
			id = string(data)
			return nil
		}
		id = uuid.NewString()
		return b.Put(keyInstanceID, []byte(id))
	})
	return id, err
}

// Theme returns the saved UI theme name, or "" when none was saved.
func (s *Store) Theme() (string, error) {
	var theme string
	err := s.db.View(func(tx *bolt.Tx) error {
		theme = string(tx.Bucket(bucketMeta).Get(keyTheme))
		return nil
	})
	return theme, err
}

// SaveTheme records the UI theme name.
func (s *Store) SaveTheme(name string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMeta).Put(keyTheme, []byte(strings.TrimSpace(name)))
	})
}

func readCredential(tx *bolt.Tx, host string) (jointspace.Credential, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return jointspace.Credential{}, fmt.Errorf("credential: %w", ErrNotFound)
	}
	data := tx.Bucket(bucketCredentials).Get([]byte(host))
	if data == nil {
		return jointspace.Credential{}, fmt.Errorf("credential for %s: %w", host, ErrNotFound)
	}
	var rec credentialRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return jointspace.Credential{}, fmt.Errorf("decode credential for %s: %w", host, err)
	}
	return jointspace.Credential{Username: rec.Username, Secret: rec.Secret}, nil
}

func writeCredential(tx *bolt.Tx, host string, cred jointspace.Credential) error {
	data, err := json.Marshal(credentialRecord{Username: cred.Username, Secret: cred.Secret, PairedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	return tx.Bucket(bucketCredentials).Put([]byte(strings.TrimSpace(host)), data)
}
