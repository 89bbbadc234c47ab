package genl

import (
	"context"
	"fmt"
	"net"

	"github.com/mdlayher/netlink"
)

type InterfaceIndex uint32
type InterfaceName string
type WiphyIndex uint32
type InterfaceType uint32
type WirelessDevice uint64

var (
	ifindexAttr = Uint[InterfaceIndex](NL80211_ATTR_IFINDEX)
	ifnameAttr  = NulString[InterfaceName](NL80211_ATTR_IFNAME)
	wiphyAttr   = Uint[WiphyIndex](NL80211_ATTR_WIPHY)
	iftypeAttr  = Uint[InterfaceType](NL80211_ATTR_IFTYPE)
	wdevAttr    = Uint[WirelessDevice](NL80211_ATTR_WDEV)
)

// InterfaceIndexByName looks up the kernel index of a network interface.
func InterfaceIndexByName(name string) (InterfaceIndex, error) {
	ifi, err := net.InterfaceByName(name)
	if err != nil {
		return 0, err
	}

	return InterfaceIndex(ifi.Index), nil
}

// GetInterface asks nl80211 to describe one wireless interface.
type GetInterface struct {
	Index InterfaceIndex
}

func (GetInterface) Header() GenlMsghdr {
	return GenlMsghdr{Cmd: NL80211_CMD_GET_INTERFACE, Version: 0}
}

func (g GetInterface) Attributes() []Attribute {
	return []Attribute{ifindexAttr.Attribute(g.Index)}
}

// NewInterface is nl80211's description of a wireless interface.
//
// The kernel sends dozens of attributes with it, varying between
// kernel versions, so unlike the control family records it is not
// parsed against a strict schema: the attributes are kept as they
// came and the well known ones picked out.
type NewInterface struct {
	Index InterfaceIndex
	Name  InterfaceName
	Wiphy WiphyIndex
	Type  InterfaceType
	Wdev  WirelessDevice
	Attrs []Attribute
}

func (NewInterface) Header() GenlMsghdr {
	return GenlMsghdr{Cmd: NL80211_CMD_NEW_INTERFACE}
}

func ParseNewInterface(b []byte) (NewInterface, error) {
	attrs, err := ParseAttributes(b)
	if err != nil {
		return NewInterface{}, &DecodeError{Context: "new interface", Err: err}
	}

	ifi := NewInterface{Attrs: attrs}
	for _, a := range attrs {
		switch a.Type {
		case NL80211_ATTR_IFINDEX:
			ifi.Index, err = ifindexAttr.Parse(a)
		case NL80211_ATTR_IFNAME:
			ifi.Name, err = ifnameAttr.Parse(a)
		case NL80211_ATTR_WIPHY:
			ifi.Wiphy, err = wiphyAttr.Parse(a)
		case NL80211_ATTR_IFTYPE:
			ifi.Type, err = iftypeAttr.Parse(a)
		case NL80211_ATTR_WDEV:
			ifi.Wdev, err = wdevAttr.Parse(a)
		}

		if err != nil {
			return NewInterface{}, &DecodeError{Context: "new interface", Err: err}
		}
	}

	return ifi, nil
}

func nl80211Commands() Commands {
	return Commands{
		NL80211_CMD_NEW_INTERFACE: func(_ GenlMsghdr, attrs []byte) (Message, error) {
			ifi, err := ParseNewInterface(attrs)
			if err != nil {
				return nil, err
			}

			return ifi, nil
		},
	}
}

// Nl80211 addresses the wireless configuration family through its
// resolved id.
type Nl80211 struct {
	conn   *Conn
	family Family
}

// NewNl80211 registers the family's replies on conn.
func NewNl80211(conn *Conn, family Family) *Nl80211 {
	conn.Register(family.ID, nl80211Commands())
	return &Nl80211{conn: conn, family: family}
}

func (n *Nl80211) Family() Family {
	return n.family
}

// GetInterface requests the description of the interface with the
// given index.
func (n *Nl80211) GetInterface(ctx context.Context, index InterfaceIndex) (NewInterface, error) {
	req, err := n.family.Message(netlink.Request, GetInterface{Index: index})
	if err != nil {
		return NewInterface{}, err
	}

	msgs, err := n.conn.Exchange(ctx, req)
	if err != nil {
		return NewInterface{}, err
	}

	for _, m := range msgs {
		if ifi, ok := m.(NewInterface); ok {
			return ifi, nil
		}
	}

	return NewInterface{}, fmt.Errorf("nl80211: no interface description for index %d", index)
}
