package wol

import (
	"bytes"
	"context"
	"errors"
	"net"
	"testing"
	"time"
)

func TestParseHardwareAddress_AcceptsSupportedForms(t *testing.T) {
	want := [6]byte{0xAA, 0xBB, 0xCC, 0x01, 0x02, 0x03}
	for _, input := range []string{
		"AABBCC010203",
		"aabbcc010203",
		"AA:BB:CC:01:02:03",
		"aa-bb-cc-01-02-03",
		"  AA:BB:CC:01:02:03 ",
	} {
		got, err := ParseHardwareAddress(input)
		if err != nil {
			t.Fatalf("ParseHardwareAddress(%q) returned error: %v", input, err)
		}
		if got != want {
			t.Fatalf("ParseHardwareAddress(%q) = %X, want %X", input, got, want)
		}
	}
}

func TestParseHardwareAddress_RejectsMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"too short", "AABBCC0102"},
		{"too long", "AABBCC01020304"},
		{"mixed separators", "AA:BB-CC:01:02:03"},
		{"dot separator", "AA.BB.CC.01.02.03"},
		{"non hex", "GGBBCC010203"},
		{"non hex grouped", "AA:BB:CC:01:02:0Z"},
		{"cisco style", "aabb.cc01.0203"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseHardwareAddress(tt.input)
			if !errors.Is(err, ErrInvalidAddress) {
				t.Fatalf("ParseHardwareAddress(%q) error = %v, want ErrInvalidAddress", tt.input, err)
			}
		})
	}
}

func TestMagicPacket_Layout(t *testing.T) {
	for _, input := range []string{"00:11:22:33:44:55", "00-11-22-33-44-55", "001122334455"} {
		packet, err := MagicPacket(input)
		if err != nil {
			t.Fatalf("MagicPacket(%q) returned error: %v", input, err)
		}
		if len(packet) != PacketSize || PacketSize != 102 {
			t.Fatalf("len(packet) = %d, want 102", len(packet))
		}
		if !bytes.Equal(packet[:6], bytes.Repeat([]byte{0xFF}, 6)) {
			t.Fatalf("sync stream = % X, want six 0xFF", packet[:6])
		}
		addr := []byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
		for i := 0; i < 16; i++ {
			chunk := packet[6+i*6 : 12+i*6]
			if !bytes.Equal(chunk, addr) {
				t.Fatalf("repetition %d = % X, want % X", i, chunk, addr)
			}
		}
	}
}

func TestMagicPacket_InvalidAddress(t *testing.T) {
	if _, err := MagicPacket("not-a-mac"); !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("MagicPacket error = %v, want ErrInvalidAddress", err)
	}
}

func TestSender_SendDeliversPacket(t *testing.T) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("ListenUDP: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	sender := Sender{Broadcast: "127.0.0.1", Port: conn.LocalAddr().(*net.UDPAddr).Port}
	if err := sender.Send(context.Background(), "00:11:22:33:44:55"); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 512)
	n, _, err := conn.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("ReadFromUDP: %v", err)
	}
	want, _ := MagicPacket("001122334455")
	if !bytes.Equal(buf[:n], want) {
		t.Fatalf("received % X, want % X", buf[:n], want)
	}
}

func TestSender_SendRejectsInvalidAddressWithoutNetwork(t *testing.T) {
	sender := Sender{Broadcast: "127.0.0.1", Port: 1}
	if err := sender.Send(context.Background(), "xx"); !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("Send error = %v, want ErrInvalidAddress", err)
	}
}
