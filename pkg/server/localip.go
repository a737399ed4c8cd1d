package server

import (
	"fmt"
	"net"
	"net/netip"
	"strings"
)

// LocalIP returns the address of the interface that carries the default
// route, falling back to 127.0.0.1. No packet is sent: dialing UDP only
// selects a route.
func LocalIP() string {
	conn, err := net.Dial("udp4", "8.8.8.8:1")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()

	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok && addr.IP != nil && !addr.IP.IsUnspecified() {
		return addr.IP.String()
	}
	return "127.0.0.1"
}

// ValidateAddress checks that addr is a host:port string with a literal IP
// host and a numeric port.
func ValidateAddress(addr string) error {
	host, port, err := net.SplitHostPort(strings.TrimSpace(addr))
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
	}
	if _, err := netip.ParseAddr(host); err != nil {
		return fmt.Errorf("%w: %q: bad host", ErrInvalidAddress, addr)
	}
	if _, err := netip.ParseAddrPort(net.JoinHostPort(host, port)); err != nil {
		return fmt.Errorf("%w: %q: bad port", ErrInvalidAddress, addr)
	}
	return nil
}

// hostOnly strips the port from a host:port string.
func hostOnly(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
