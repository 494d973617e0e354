package server

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// netParseIPv4 parses host as an IPv4 dotted-quad, returning nil if it is
// not one. IPv6 is explicitly out of scope for the core.
func netParseIPv4(host string) []byte {
	ip := net.ParseIP(host)
	if ip == nil {
		return nil
	}
	return ip.To4()
}

// formatSockaddr renders a unix.Sockaddr as a host:port string for
// logging. Falls back to a generic placeholder for anything unexpected.
func formatSockaddr(sa unix.Sockaddr) string {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return fmt.Sprintf("%d.%d.%d.%d:%d", a.Addr[0], a.Addr[1], a.Addr[2], a.Addr[3], a.Port)
	default:
		return "unknown"
	}
}
