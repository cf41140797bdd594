package domain

import (
	"net"
	"net/netip"
)

// Endpoint is the address a session's client listens on for relayed traffic.
// It is comparable so the registry can key sessions by it.
type Endpoint struct {
	Addr netip.Addr
	Port uint16
}

func NewEndpoint(addr netip.Addr, port uint16) Endpoint {
	return Endpoint{Addr: addr.Unmap(), Port: port}
}

// EndpointFromUDPAddr converts a datagram source address.
func EndpointFromUDPAddr(a *net.UDPAddr) (Endpoint, bool) {
	addr, ok := netip.AddrFromSlice(a.IP)
	if !ok {
		return Endpoint{}, false
	}
	return NewEndpoint(addr, uint16(a.Port)), true
}

func (e Endpoint) UDPAddr() *net.UDPAddr {
	return net.UDPAddrFromAddrPort(netip.AddrPortFrom(e.Addr, e.Port))
}

func (e Endpoint) IsValid() bool { return e.Addr.IsValid() && e.Port != 0 }

func (e Endpoint) String() string {
	return netip.AddrPortFrom(e.Addr, e.Port).String()
}
