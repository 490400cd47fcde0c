// Package jointspace provides a client for the JointSpace API of Philips
// Android TVs.
//
// # Overview
//
// The TV serves a JSON API over HTTPS on port 1926 with a self-signed
// certificate. Most endpoints require HTTP digest authentication with a
// credential obtained through a pairing handshake. Sleeping TVs drop
// requests on the floor, so every request runs through a retry loop that
// wakes the TV with a Wake-on-LAN packet between attempts.
//
// # Architecture
//
//   - client.go: Client, Endpoint, RetryPolicy and the Execute loop
//   - pairing.go: RequestPairing/GrantPairing and grant signers
//   - remote.go: Remote interface, keys, settings, apps, network devices
//   - ambilight.go: ambilight power, style, colour and levels
//   - keys.go: the documented input/key names
//   - errors.go: sentinel errors and DeviceError
//
// # Request Handling
//
// Execute sends one logical command. For each attempt:
//
//  1. The request is sent with a per-attempt timeout
//  2. A response is interpreted and returned, whatever the status
//  3. A refused or reset connection fails at once with ErrUnreachable
//  4. A timeout sends Wake-on-LAN (when a hardware address and Waker are
//     configured), waits the wake delay, doubles timeout and wake delay,
//     and tries again
//
// After the last timed out attempt Execute returns ErrUnreachable. With the
// default policy the attempts use 500ms, 1s and 2s timeouts.
//
// A 200 response with an empty body yields a nil result. 401 maps to
// ErrUnauthorized. Any other status, and any 200 body that is not valid
// JSON, yields a *DeviceError.
//
// # Pairing
//
//	session, err := client.RequestPairing(ctx)
//	if err != nil {
//		return err
//	}
//	// the TV now shows a PIN
//	if err := client.GrantPairing(ctx, session, pin); err != nil {
//		if errors.Is(err, jointspace.ErrInvalidPIN) {
//			// start over with RequestPairing
//		}
//		return err
//	}
//	cred := client.Endpoint().Credential // persist this
//
// A session is consumed by GrantPairing whatever the outcome. On success the
// session's credential replaces the client's credential, so the next request
// authenticates as the new user.
//
// # Error Handling
//
//   - ErrNoEndpoint: no host configured, nothing was sent
//   - ErrUnreachable: connection refused or all attempts timed out
//   - ErrUnauthorized: the credential was rejected, pair again
//   - ErrPairingFailed: pairing rejected for a reason other than the PIN
//   - ErrInvalidPIN: the PIN did not match
//   - *DeviceError: unexpected status or malformed body
//
// Errors are wrapped with fmt.Errorf; use errors.Is and errors.As.
//
// # Thread Safety
//
// Client is safe for concurrent use. The endpoint is guarded by a
// readers-writer lock and every Execute call works on a snapshot of it taken
// when the call starts.
package jointspace
