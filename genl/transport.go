package genl

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/mdlayher/netlink"
	"github.com/mdlayher/netlink/nlenc"
	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

// DefaultBufferSize is large enough for any single family description.
// Replies spanning several datagrams are read datagram by datagram,
// but a single netlink message is never reassembled across them.
const DefaultBufferSize = 8192

// A Conn runs request/response exchanges over a Socket.  Exchanges
// are strictly one at a time: a Conn is not safe for concurrent use.
type Conn struct {
	sock     Socket
	dispatch Dispatcher
	bufSize  int
	log      zerolog.Logger
}

type Option func(*Conn)

func WithLogger(l zerolog.Logger) Option {
	return func(c *Conn) { c.log = l }
}

func WithBufferSize(n int) Option {
	return func(c *Conn) { c.bufSize = n }
}

// NewConn wraps sock.  The control family is registered from the start;
// other families are added with Register once resolved.
func NewConn(sock Socket, opts ...Option) *Conn {
	c := &Conn{
		sock:     sock,
		dispatch: Dispatcher{GENL_ID_CTRL: ControlCommands()},
		bufSize:  DefaultBufferSize,
		log:      zerolog.Nop(),
	}

	for _, o := range opts {
		o(c)
	}

	return c
}

// Dial opens a NETLINK_GENERIC socket and wraps it.
func Dial(opts ...Option) (*Conn, error) {
	sock, err := OpenNetlinkSocket(unix.NETLINK_GENERIC)
	if err != nil {
		return nil, err
	}

	return NewConn(sock, opts...), nil
}

// Socket returns the underlying socket, e.g. to set a receive timeout.
func (c *Conn) Socket() Socket {
	return c.sock
}

// Register makes replies with message type typ decodable.
func (c *Conn) Register(typ uint16, cmds Commands) {
	c.dispatch[typ] = cmds
}

func (c *Conn) Close() error {
	if cl, ok := c.sock.(io.Closer); ok {
		return cl.Close()
	}

	return nil
}

var nextSeqNo uint32

// Exchange sends m and collects the decoded replies.  It receives
// until one of:
//
//   - a zero length receive;
//   - NLMSG_DONE, ending a dump;
//   - NLMSG_ERROR, either an ack or a kernel error (returned as a
//     NetlinkError);
//   - the first reply, if m asked for neither an ack nor a dump.
//
// Replies carrying another sequence number are left over from an
// earlier, interrupted exchange and are skipped.
func (c *Conn) Exchange(ctx context.Context, m netlink.Message) ([]Message, error) {
	seq := atomic.AddUint32(&nextSeqNo, 1)
	m.Header.Sequence = seq

	b, err := m.MarshalBinary()
	if err != nil {
		return nil, err
	}

	c.log.Debug().Uint16("type", uint16(m.Header.Type)).Uint32("seq", seq).Int("len", len(b)).Msg("netlink send")
	if err := c.sock.Send(b); err != nil {
		return nil, fmt.Errorf("netlink send: %w", err)
	}

	single := m.Header.Flags&(netlink.Acknowledge|netlink.Dump) == 0

	var res []Message
	buf := make([]byte, c.bufSize)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, err := c.sock.Receive(buf)
		if err != nil {
			return nil, fmt.Errorf("netlink receive: %w", err)
		}

		c.log.Debug().Uint32("seq", seq).Int("len", n).Msg("netlink receive")
		if n == 0 {
			return res, nil
		}

		done, err := c.consume(buf[:n], seq, &res)
		if err != nil {
			return nil, err
		}

		if done || (single && len(res) > 0) {
			return res, nil
		}
	}
}

// consume decodes every netlink message in one datagram.
func (c *Conn) consume(b []byte, seq uint32, res *[]Message) (bool, error) {
	for len(b) > 0 {
		if len(b) < unix.NLMSG_HDRLEN {
			return false, truncatedf("netlink message header (have %d bytes, expected %d)", len(b), unix.NLMSG_HDRLEN)
		}

		l := int(nlenc.Uint32(b[0:4]))
		if l < unix.NLMSG_HDRLEN || l > len(b) {
			return false, truncatedf("netlink message (have %d bytes, expected %d)", len(b), l)
		}

		var m netlink.Message
		if err := m.UnmarshalBinary(b[:l]); err != nil {
			return false, &DecodeError{Context: "netlink message", Err: err}
		}

		next := (l + unix.NLMSG_ALIGNTO - 1) & -unix.NLMSG_ALIGNTO
		if next > len(b) {
			next = len(b)
		}
		b = b[next:]

		if m.Header.Sequence != seq {
			c.log.Warn().Uint32("got", m.Header.Sequence).Uint32("expected", seq).Msg("netlink reply sequence number mismatch")
			continue
		}

		switch m.Header.Type {
		case netlink.Done:
			return true, nil

		case netlink.Error:
			if len(m.Data) < 4 {
				return false, truncatedf("netlink error message")
			}

			if code := int32(nlenc.Uint32(m.Data[0:4])); code != 0 {
				return false, NetlinkError(-code)
			}

			// an error code of 0 means the error is an ack
			return true, nil

		default:
			msg, err := c.dispatch.Deserialize(m.Header, m.Data)
			if err != nil {
				return false, err
			}

			*res = append(*res, msg)
		}
	}

	return false, nil
}
