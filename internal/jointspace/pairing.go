package jointspace

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"strings"
)

const (
	pairingSuccess    = "SUCCESS"
	pairingInvalidPIN = "INVALID_PIN"
	usernameLength    = 16
	usernameAlphabet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789abcdefghijklmnopqrstuvwxyz"
	stubSignature     = "authsignature"
)

var pairingScope = []string{"read", "write", "control"}

// PairingState is the position of a pairing handshake.
type PairingState int

const (
	Unpaired PairingState = iota
	AwaitingPIN
	Paired
)

func (s PairingState) String() string {
	switch s {
	case AwaitingPIN:
		return "awaiting-pin"
	case Paired:
		return "paired"
	default:
		return "unpaired"
	}
}

// PairingSession carries the ephemeral credential between RequestPairing and
// GrantPairing. A session is used exactly once.
type PairingSession struct {
	Device    DeviceInfo
	Username  string
	Secret    string
	Timestamp int64
	state     PairingState
}

// State reports where the session is in the handshake.
func (s *PairingSession) State() PairingState {
	if s == nil {
		return Unpaired
	}
	return s.state
}

// GrantSigner produces the auth_signature of a pairing grant.
type GrantSigner interface {
	Sign(timestamp int64, pin string) string
}

// StubSigner sends a fixed placeholder signature.
type StubSigner struct{}

func (StubSigner) Sign(int64, string) string { return stubSignature }

// HMACSigner signs timestamp||pin with HMAC-SHA1 under the vendor key.
type HMACSigner struct {
	key []byte
}

// NewHMACSigner decodes a base64 key. The key is not distributed with this program.
func NewHMACSigner(encodedKey string) (HMACSigner, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encodedKey))
	if err != nil {
		return HMACSigner{}, fmt.Errorf("decode signing key: %w", err)
	}
	if len(key) == 0 {
		return HMACSigner{}, fmt.Errorf("signing key is empty")
	}
	return HMACSigner{key: key}, nil
}

func (s HMACSigner) Sign(timestamp int64, pin string) string {
	mac := hmac.New(sha1.New, s.key)
	mac.Write([]byte(strconv.FormatInt(timestamp, 10) + pin))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

type pairRequest struct {
	Scope  []string   `json:"scope"`
	Device DeviceInfo `json:"device"`
}

type pairGrant struct {
	Auth   grantAuth  `json:"auth"`
	Device DeviceInfo `json:"device"`
}

type grantAuth struct {
	AppID     string `json:"auth_AppId"`
	PIN       string `json:"pin"`
	Timestamp int64  `json:"auth_timestamp"`
	Signature string `json:"auth_signature"`
}

type pairResponse struct {
	ErrorID   string `json:"error_id"`
	ErrorText string `json:"error_text"`
	AuthKey   string `json:"auth_key"`
	Timestamp int64  `json:"timestamp"`
}

// RequestPairing starts the handshake. The TV shows a PIN on screen and the
// returned session waits for it in GrantPairing.
func (c *Client) RequestPairing(ctx context.Context) (*PairingSession, error) {
	username, err := randomUsername(usernameLength)
	if err != nil {
		return nil, fmt.Errorf("%w: generate username: %w", ErrPairingFailed, err)
	}
	device := c.device
	device.ID = username

	raw, err := c.Execute(ctx, http.MethodPost, "pair/request", pairRequest{Scope: pairingScope, Device: device}, WithoutAuth())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPairingFailed, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: empty response", ErrPairingFailed)
	}
	var resp pairResponse
	if err := decode("pair/request", raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPairingFailed, err)
	}
	if resp.ErrorID != pairingSuccess {
		return nil, fmt.Errorf("%w: device answered %s", ErrPairingFailed, describePairing(resp))
	}

	c.log.Info().Str("username", username).Msg("pairing requested, waiting for pin")
	return &PairingSession{
		Device:    device,
		Username:  username,
		Secret:    resp.AuthKey,
		Timestamp: resp.Timestamp,
		state:     AwaitingPIN,
	}, nil
}

// GrantPairing completes the handshake with the PIN shown on the TV. On
// success the session credential becomes the client's credential. The session
// is consumed whatever the outcome; ErrInvalidPIN means start over with a new
// RequestPairing and ask for the PIN again.
func (c *Client) GrantPairing(ctx context.Context, session *PairingSession, pin string) error {
	if session == nil || session.state != AwaitingPIN {
		return fmt.Errorf("%w: session is %s, not awaiting a pin", ErrPairingFailed, session.State())
	}
	session.state = Unpaired

	pin = strings.TrimSpace(pin)
	grant := pairGrant{
		Auth: grantAuth{
			AppID:     "1",
			PIN:       pin,
			Timestamp: session.Timestamp,
			Signature: c.signer.Sign(session.Timestamp, pin),
		},
		Device: session.Device,
	}
	cred := Credential{Username: session.Username, Secret: session.Secret}

	raw, err := c.Execute(ctx, http.MethodPost, "pair/grant", grant, withCredential(cred))
	if err != nil {
		var devErr *DeviceError
		if errors.As(err, &devErr) && grantErrorID(devErr.Body) == pairingInvalidPIN {
			return ErrInvalidPIN
		}
		return fmt.Errorf("%w: %w", ErrPairingFailed, err)
	}
	if raw != nil {
		var resp pairResponse
		if err := decode("pair/grant", raw, &resp); err != nil {
			return fmt.Errorf("%w: %w", ErrPairingFailed, err)
		}
		switch resp.ErrorID {
		case "", pairingSuccess:
		case pairingInvalidPIN:
			return ErrInvalidPIN
		default:
			return fmt.Errorf("%w: device answered %s", ErrPairingFailed, describePairing(resp))
		}
	}

	c.SetCredential(&cred)
	session.state = Paired
	c.log.Info().Str("username", cred.Username).Msg("pairing granted")
	return nil
}

func grantErrorID(body string) string {
	var resp pairResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return ""
	}
	return resp.ErrorID
}

func describePairing(resp pairResponse) string {
	id := resp.ErrorID
	if id == "" {
		id = "no error_id"
	}
	if resp.ErrorText != "" {
		return id + " (" + resp.ErrorText + ")"
	}
	return id
}

func randomUsername(n int) (string, error) {
	limit := big.NewInt(int64(len(usernameAlphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		out[i] = usernameAlphabet[idx.Int64()]
	}
	return string(out), nil
}
