package protocol

import (
	"encoding/json"
	"fmt"
	"net/netip"
	"strconv"
)

// Address is the identity of a ring participant: where to reach it, and where it sits on the ring.
// The zero value is not a valid address.
type Address struct {
	host netip.Addr
	port uint16
	id   uint64
}

func NewAddress(host netip.Addr, port uint16, id uint64) Address {
	return Address{
		host: host,
		port: port,
		id:   id,
	}
}

// ParseAddress parses "ip:port" into an Address. Only IPv4 endpoints are accepted.
func ParseAddress(hostPort string, id uint64) (Address, error) {
	ap, err := netip.ParseAddrPort(hostPort)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if !ap.Addr().Is4() {
		return Address{}, fmt.Errorf("%w: %s is not an IPv4 endpoint", ErrInvalidAddress, hostPort)
	}
	return NewAddress(ap.Addr(), ap.Port(), id), nil
}

func (a Address) Host() netip.Addr {
	return a.host
}

func (a Address) Port() uint16 {
	return a.port
}

func (a Address) ID() uint64 {
	return a.id
}

func (a Address) IsValid() bool {
	return a.host.IsValid()
}

// Equal compares id, host and port.
func (a Address) Equal(other Address) bool {
	return a == other
}

// SameEndpoint compares host and port only. Used when the sender of a request
// did not know the ring id of its target.
func (a Address) SameEndpoint(other Address) bool {
	return a.host == other.host && a.port == other.port
}

// WithID returns a copy of the address with a different ring id.
func (a Address) WithID(id uint64) Address {
	a.id = id
	return a
}

func (a Address) HostPort() string {
	return netip.AddrPortFrom(a.host, a.port).String()
}

func (a Address) String() string {
	return a.HostPort() + "/" + strconv.FormatUint(a.id, 10)
}

type wireAddress struct {
	ID   *uint64 `json:"id"`
	Host *string `json:"host"`
	Port *uint16 `json:"port"`
}

var (
	_ json.Marshaler   = Address{}
	_ json.Unmarshaler = (*Address)(nil)
)

func (a Address) MarshalJSON() ([]byte, error) {
	if !a.IsValid() {
		return nil, ErrInvalidAddress
	}
	host := a.host.String()
	return json.Marshal(wireAddress{
		ID:   &a.id,
		Host: &host,
		Port: &a.port,
	})
}

func (a *Address) UnmarshalJSON(b []byte) error {
	var w wireAddress
	if err := json.Unmarshal(b, &w); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if w.ID == nil || w.Host == nil || w.Port == nil {
		return fmt.Errorf("%w: address requires id, host and port", ErrInvalidAddress)
	}
	host, err := netip.ParseAddr(*w.Host)
	if err != nil || !host.Is4() {
		return fmt.Errorf("%w: host %q is not an IPv4 address", ErrInvalidAddress, *w.Host)
	}
	*a = NewAddress(host, *w.Port, *w.ID)
	return nil
}
