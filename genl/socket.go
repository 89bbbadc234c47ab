package genl

import (
	"fmt"
	"reflect"
	"time"

	"golang.org/x/sys/unix"
)

// A Socket sends and receives whole netlink datagrams.
type Socket interface {
	Send(b []byte) error
	Receive(b []byte) (int, error)
}

// NetlinkSocket is a Socket bound to a netlink protocol, talking to
// the kernel.
type NetlinkSocket struct {
	fd   int
	addr *unix.SockaddrNetlink
}

func OpenNetlinkSocket(protocol int) (*NetlinkSocket, error) {
	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_RAW|unix.SOCK_CLOEXEC, protocol)
	if err != nil {
		return nil, err
	}

	addr := unix.SockaddrNetlink{Family: unix.AF_NETLINK}
	if err := unix.Bind(fd, &addr); err != nil {
		unix.Close(fd)
		return nil, err
	}

	localaddr, err := unix.Getsockname(fd)
	if err != nil {
		unix.Close(fd)
		return nil, err
	}

	switch nladdr := localaddr.(type) {
	case *unix.SockaddrNetlink:
		return &NetlinkSocket{fd: fd, addr: nladdr}, nil

	default:
		unix.Close(fd)
		return nil, fmt.Errorf("expected netlink sockaddr, got %s", reflect.TypeOf(localaddr))
	}
}

// PortId is the netlink port id the kernel assigned to the socket.
func (s *NetlinkSocket) PortId() uint32 {
	return s.addr.Pid
}

// SetReceiveTimeout bounds every blocking Receive.  Zero means block
// forever.
func (s *NetlinkSocket) SetReceiveTimeout(d time.Duration) error {
	tv := unix.NsecToTimeval(d.Nanoseconds())
	return unix.SetsockoptTimeval(s.fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv)
}

func (s *NetlinkSocket) Close() error {
	return unix.Close(s.fd)
}

func (s *NetlinkSocket) Send(b []byte) error {
	sa := unix.SockaddrNetlink{
		Family: unix.AF_NETLINK,
		Pid:    0,
		Groups: 0,
	}

	return unix.Sendto(s.fd, b, 0, &sa)
}

func (s *NetlinkSocket) Receive(b []byte) (int, error) {
	nr, from, err := unix.Recvfrom(s.fd, b, 0)
	if err != nil {
		return 0, err
	}

	switch nlfrom := from.(type) {
	case *unix.SockaddrNetlink:
		if nlfrom.Pid != 0 {
			return 0, fmt.Errorf("wrong netlink peer pid (expected 0, got %d)", nlfrom.Pid)
		}

		return nr, nil

	default:
		return 0, fmt.Errorf("expected netlink sockaddr, got %s", reflect.TypeOf(from))
	}
}
