package genl

import (
	"github.com/mdlayher/netlink"
	"golang.org/x/sys/unix"
)

// A Message is the body of a generic netlink message: the generic
// header plus whatever the attributes carry.  Requests and decoded
// replies are both Messages.
type Message interface {
	Header() GenlMsghdr
}

// A Request is a Message that can be emitted.  Reply-only messages
// such as NewFamily deliberately do not implement it.
type Request interface {
	Message
	Attributes() []Attribute
}

// Some generic netlink operations always return a reply message (e.g
// *_GET), others don't by default (e.g. *_NEW).  With Acknowledge the
// kernel also follows the reply with an ack, which tells the transport
// loop the exchange is complete.
const RequestFlags = netlink.Request | netlink.Acknowledge

const DumpFlags = netlink.Request | netlink.Dump

// Encode lays out the generic header followed by the attributes of req.
func Encode(req Request) ([]byte, error) {
	attrs := req.Attributes()
	b := make([]byte, SizeofGenlMsghdr+attrsLen(attrs))

	h := req.Header()
	b[0] = h.Cmd
	b[1] = h.Version
	// b[2:4] reserved, left zero

	if err := emitAttributes(b[SizeofGenlMsghdr:], attrs); err != nil {
		return nil, err
	}

	return b, nil
}

// Serialize frames req as the payload of a netlink message of type
// typ: GENL_ID_CTRL for the control family, or a resolved family id.
func Serialize(typ uint16, flags netlink.HeaderFlags, req Request) (netlink.Message, error) {
	data, err := Encode(req)
	if err != nil {
		return netlink.Message{}, err
	}

	return netlink.Message{
		Header: netlink.Header{
			Length: uint32(unix.NLMSG_HDRLEN + len(data)),
			Type:   netlink.HeaderType(typ),
			Flags:  flags,
		},
		Data: data,
	}, nil
}

// A Decoder builds a Message from the attributes following the
// generic header.
type Decoder func(h GenlMsghdr, attrs []byte) (Message, error)

// Commands maps the command byte of one family to its decoders.
type Commands map[uint8]Decoder

// A Dispatcher maps a netlink message type to the commands of the
// family using it.
type Dispatcher map[uint16]Commands

// Deserialize decodes the payload of a message with header h.  The
// message type selects the family, the command byte the variant.
func (d Dispatcher) Deserialize(h netlink.Header, payload []byte) (Message, error) {
	cmds, ok := d[uint16(h.Type)]
	if !ok {
		return nil, decodeErrorf(ErrUnsupportedType, "message type %d", h.Type)
	}

	if len(payload) < SizeofGenlMsghdr {
		return nil, truncatedf("generic netlink header (have %d bytes, expected %d)", len(payload), SizeofGenlMsghdr)
	}

	gh := GenlMsghdr{Cmd: payload[0], Version: payload[1]}
	decode, ok := cmds[gh.Cmd]
	if !ok {
		return nil, decodeErrorf(ErrUnsupportedCommand, "message type %d: command %d", h.Type, gh.Cmd)
	}

	return decode(gh, payload[SizeofGenlMsghdr:])
}
