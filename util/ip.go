package util

import (
	"net"
	"net/netip"
)

// OutboundIPv4 returns the local address used to reach the internet, or
// loopback when there is no route. No packet is sent.
func OutboundIPv4() netip.Addr {
	conn, err := net.Dial("udp4", "1.1.1.1:53")
	if err != nil {
		return netip.AddrFrom4([4]byte{127, 0, 0, 1})
	}
	defer conn.Close()

	addr, ok := netip.AddrFromSlice(conn.LocalAddr().(*net.UDPAddr).IP.To4())
	if !ok {
		return netip.AddrFrom4([4]byte{127, 0, 0, 1})
	}
	return addr
}
