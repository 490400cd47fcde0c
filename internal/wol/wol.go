package wol

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// ErrInvalidAddress reports a hardware address that does not reduce to 12 hex digits.
var ErrInvalidAddress = errors.New("invalid hardware address")

const (
	DefaultBroadcast = "255.255.255.255"
	DefaultPort      = 9

	// PacketSize is the length of a magic packet: 6 sync bytes plus 16 copies of the address.
	PacketSize = 6 + 16*6
)

// ParseHardwareAddress accepts "AABBCCDDEEFF", "AA:BB:CC:DD:EE:FF" or
// "AA-BB-CC-DD-EE-FF" and returns the raw address bytes.
func ParseHardwareAddress(s string) ([6]byte, error) {
	var addr [6]byte
	normalized := strings.TrimSpace(s)
	if len(normalized) == 17 {
		sep := normalized[2]
		if sep != ':' && sep != '-' {
			return addr, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
		}
		normalized = strings.ReplaceAll(normalized, string(sep), "")
	}
	if len(normalized) != 12 {
		return addr, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	raw, err := hex.DecodeString(normalized)
	if err != nil {
		return addr, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	copy(addr[:], raw)
	return addr, nil
}

// MagicPacket builds the Wake-on-LAN payload for hardwareAddress.
func MagicPacket(hardwareAddress string) ([]byte, error) {
	addr, err := ParseHardwareAddress(hardwareAddress)
	if err != nil {
		return nil, err
	}
	packet := make([]byte, 0, PacketSize)
	for i := 0; i < 6; i++ {
		packet = append(packet, 0xFF)
	}
	for i := 0; i < 16; i++ {
		packet = append(packet, addr[:]...)
	}
	return packet, nil
}

// Sender broadcasts magic packets over UDP.
type Sender struct {
	Broadcast string // empty uses DefaultBroadcast
	Port      int    // zero uses DefaultPort
}

// Send transmits one magic packet for hardwareAddress. A nil error means the
// datagram was handed to the network stack; nothing confirms the device woke.
func (s Sender) Send(ctx context.Context, hardwareAddress string) error {
	packet, err := MagicPacket(hardwareAddress)
	if err != nil {
		return err
	}

	broadcast := strings.TrimSpace(s.Broadcast)
	if broadcast == "" {
		broadcast = DefaultBroadcast
	}
	port := s.Port
	if port <= 0 {
		port = DefaultPort
	}

	dialer := net.Dialer{Control: enableBroadcast}
	conn, err := dialer.DialContext(ctx, "udp4", net.JoinHostPort(broadcast, strconv.Itoa(port)))
	if err != nil {
		return fmt.Errorf("dial broadcast: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if _, err := conn.Write(packet); err != nil {
		return fmt.Errorf("send magic packet: %w", err)
	}
	return nil
}
