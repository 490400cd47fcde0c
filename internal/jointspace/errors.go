package jointspace

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoEndpoint is returned before any network activity when no host is configured.
	ErrNoEndpoint = errors.New("no host configured, set the IP of your TV")
	// ErrUnreachable covers refused connections and exhausted timeout retries.
	ErrUnreachable = errors.New("cannot reach TV, check the IP and that Wake-on-LAN is enabled on the TV")
	// ErrUnauthorized means the stored credential was rejected; pair again.
	ErrUnauthorized = errors.New("remote not authorized, pair again")
	// ErrPairingFailed is any pairing outcome other than success or an invalid PIN.
	ErrPairingFailed = errors.New("pairing failed")
	// ErrInvalidPIN is reported by the TV when the entered PIN does not match.
	ErrInvalidPIN = errors.New("invalid pairing PIN")
)

// DeviceError reports an unexpected HTTP status or a response body that does
// not match the expected shape.
type DeviceError struct {
	Status int
	Path   string
	Body   string
	Err    error // set when a 200 body failed to decode
}

func (e *DeviceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("device %s: malformed response: %v", e.Path, e.Err)
	}
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	if body == "" {
		return fmt.Sprintf("device %s returned status %d", e.Path, e.Status)
	}
	return fmt.Sprintf("device %s returned status %d: %s", e.Path, e.Status, body)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}
