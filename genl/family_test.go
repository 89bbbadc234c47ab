package genl

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mdlayher/netlink"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func nl80211Interface(t *testing.T, index InterfaceIndex) []byte {
	attrs := encode(t, []Attribute{
		ifindexAttr.Attribute(index),
		ifnameAttr.Attribute("wlan0"),
		wiphyAttr.Attribute(0),
		iftypeAttr.Attribute(2),
		wdevAttr.Attribute(1),
		{Type: 0x2e, Value: []byte{1, 0, 0, 0}},
	})

	return append([]byte{NL80211_CMD_NEW_INTERFACE, 0, 0, 0}, attrs...)
}

func TestResolveAndGetInterface(t *testing.T) {
	sock := newFakeSocket(t, func(req netlink.Message) [][]byte {
		switch req.Header.Type {
		case GENL_ID_CTRL:
			return [][]byte{datagram(
				newFamilyMessage(t, req.Header.Sequence, 0x13, "nl80211"),
				ackMessage(t, req),
			)}
		case 0x13:
			return [][]byte{message(t, 0x13, req.Header.Sequence, nl80211Interface(t, 13))}
		default:
			return [][]byte{errorMessage(t, req, -int32(unix.EINVAL))}
		}
	})
	conn := NewConn(sock)

	r := NewResolver(conn)
	require.Equal(t, Unresolved, r.State())
	_, ok := r.Family()
	require.False(t, ok)

	family, err := r.Resolve(context.Background(), NL80211_GENL_NAME)
	require.NoError(t, err)
	require.Equal(t, uint16(0x13), family.ID)
	require.Equal(t, Resolved, r.State())
	require.Equal(t, "resolved", r.State().String())

	req := sock.last()
	require.Equal(t, netlink.HeaderType(GENL_ID_CTRL), req.Header.Type)
	require.Equal(t, netlink.Request|netlink.Acknowledge, req.Header.Flags)
	require.Equal(t, byte(CTRL_CMD_GETFAMILY), req.Data[0])

	attrs, err := ParseAttributes(req.Data[SizeofGenlMsghdr:])
	require.NoError(t, err)
	require.Len(t, attrs, 1)
	require.Equal(t, uint16(CTRL_ATTR_FAMILY_NAME), attrs[0].Type)
	require.Equal(t, []byte("nl80211\x00"), attrs[0].Value)

	nl := NewNl80211(conn, family)
	ifi, err := nl.GetInterface(context.Background(), 13)
	require.NoError(t, err)
	require.Equal(t, InterfaceIndex(13), ifi.Index)
	require.Equal(t, InterfaceName("wlan0"), ifi.Name)
	require.Equal(t, InterfaceType(2), ifi.Type)
	require.Equal(t, WirelessDevice(1), ifi.Wdev)

	req = sock.last()
	require.Equal(t, netlink.HeaderType(0x13), req.Header.Type)
	require.Equal(t, []byte{NL80211_CMD_GET_INTERFACE, 0, 0, 0}, req.Data[0:4])

	attrs, err = ParseAttributes(req.Data[SizeofGenlMsghdr:])
	require.NoError(t, err)
	require.Len(t, attrs, 1)
	require.Equal(t, uint16(NL80211_ATTR_IFINDEX), attrs[0].Type)

	index, err := ifindexAttr.Parse(attrs[0])
	require.NoError(t, err)
	require.Equal(t, InterfaceIndex(13), index)
}

func TestResolveNotFound(t *testing.T) {
	sock := newFakeSocket(t, func(req netlink.Message) [][]byte {
		return [][]byte{errorMessage(t, req, -int32(unix.ENOENT))}
	})
	conn := NewConn(sock)

	r := NewResolver(conn)
	_, err := r.Resolve(context.Background(), "nosuch")
	require.ErrorIs(t, err, ErrFamilyNotFound)
	require.ErrorIs(t, err, unix.ENOENT)
	require.Equal(t, Unresolved, r.State())
}

func TestResolveKernelError(t *testing.T) {
	sock := newFakeSocket(t, func(req netlink.Message) [][]byte {
		return [][]byte{errorMessage(t, req, -int32(unix.EPERM))}
	})

	_, err := LookupFamily(context.Background(), NewConn(sock), "nl80211")
	require.ErrorIs(t, err, unix.EPERM)
	require.NotErrorIs(t, err, ErrFamilyNotFound)
}

func TestResolveNoDescription(t *testing.T) {
	sock := newFakeSocket(t, func(req netlink.Message) [][]byte {
		return [][]byte{ackMessage(t, req)}
	})

	r := NewResolver(NewConn(sock))
	_, err := r.Resolve(context.Background(), "nl80211")
	require.Error(t, err)
	require.Equal(t, Unresolved, r.State())
}

func TestResolveMalformedReply(t *testing.T) {
	sock := newFakeSocket(t, func(req netlink.Message) [][]byte {
		// no multicast group list
		attrs := encode(t, []Attribute{
			familyNameAttr.Attribute("nl80211"),
			familyIDAttr.Attribute(0x13),
			versionAttr.Attribute(1),
			headerSizeAttr.Attribute(0),
			maxAttributesAttr.Attribute(0),
			Nest(CTRL_ATTR_OPS),
		})
		payload := append([]byte{CTRL_CMD_NEWFAMILY, CTRL_VERSION, 0, 0}, attrs...)
		return [][]byte{message(t, GENL_ID_CTRL, req.Header.Sequence, payload)}
	})

	r := NewResolver(NewConn(sock))
	_, err := r.Resolve(context.Background(), "nl80211")
	require.ErrorIs(t, err, ErrMissingAttribute)
	require.Contains(t, err.Error(), "multicast groups")
	require.Equal(t, Unresolved, r.State())
}

func TestFamilyDescription(t *testing.T) {
	ops := []Operation{
		{ID: NL80211_CMD_GET_INTERFACE, Flags: GENL_CMD_CAP_DO | GENL_CMD_CAP_DUMP},
		{ID: NL80211_CMD_SET_INTERFACE, Flags: GENL_ADMIN_PERM | GENL_CMD_CAP_DO},
	}
	groups := []MulticastGroup{
		{ID: 4, Name: "config"},
		{ID: 5, Name: "scan"},
	}

	sock := newFakeSocket(t, func(req netlink.Message) [][]byte {
		return [][]byte{datagram(
			message(t, GENL_ID_CTRL, req.Header.Sequence, newFamilyPayload(t, 0x13, "nl80211", ops, groups)),
			ackMessage(t, req),
		)}
	})

	family, err := LookupFamily(context.Background(), NewConn(sock), "nl80211")
	require.NoError(t, err)
	require.Equal(t, OperationList(ops), family.Info.Operations)
	require.Equal(t, MulticastGroupList(groups), family.Info.MulticastGroups)

	id, err := family.MulticastGroup("scan")
	require.NoError(t, err)
	require.Equal(t, uint32(5), id)

	_, err = family.MulticastGroup("mlme")
	require.Error(t, err)

	flags, ok := family.Supports(NL80211_CMD_SET_INTERFACE)
	require.True(t, ok)
	require.Equal(t, OperationFlags(GENL_ADMIN_PERM|GENL_CMD_CAP_DO), flags)

	_, ok = family.Supports(NL80211_CMD_DEL_INTERFACE)
	require.False(t, ok)
}

func TestListFamilies(t *testing.T) {
	sock := newFakeSocket(t, func(req netlink.Message) [][]byte {
		seq := req.Header.Sequence
		return [][]byte{datagram(
			newFamilyMessage(t, seq, GENL_ID_CTRL, "nlctrl"),
			newFamilyMessage(t, seq, 0x13, "nl80211"),
			doneMessage(t, req),
		)}
	})

	families, err := ListFamilies(context.Background(), NewConn(sock))
	require.NoError(t, err)
	require.Len(t, families, 2)
	require.Equal(t, uint16(GENL_ID_CTRL), families[0].ID)
	require.Equal(t, FamilyName("nl80211"), families[1].Info.Name)

	req := sock.last()
	require.Equal(t, netlink.Request|netlink.Dump, req.Header.Flags)
	require.Len(t, req.Data, SizeofGenlMsghdr)
}

func TestLookupControlFamily(t *testing.T) {
	conn, err := Dial()
	if err != nil {
		t.Skipf("no generic netlink socket: %s", err)
	}
	defer conn.Close()

	require.NoError(t, conn.Socket().(*NetlinkSocket).SetReceiveTimeout(time.Second))

	family, err := LookupFamily(context.Background(), conn, "nlctrl")
	var derr *DecodeError
	if err != nil && !errors.As(err, &derr) {
		t.Skipf("generic netlink unavailable: %s", err)
	}
	require.NoError(t, err)
	require.Equal(t, uint16(GENL_ID_CTRL), family.ID)
}

func TestResolveNameWithoutTerminator(t *testing.T) {
	sock := newFakeSocket(t, func(req netlink.Message) [][]byte {
		attrs := encode(t, []Attribute{
			{Type: CTRL_ATTR_FAMILY_NAME, Value: []byte("nl80211")},
			familyIDAttr.Attribute(0x13),
			versionAttr.Attribute(1),
			headerSizeAttr.Attribute(0),
			maxAttributesAttr.Attribute(0),
			Nest(CTRL_ATTR_OPS),
			Nest(CTRL_ATTR_MCAST_GROUPS, Nest(1,
				Attribute{Type: CTRL_ATTR_MCAST_GRP_NAME, Value: []byte("scan")},
				mcastGroupIDAttr.Attribute(5))),
		})
		payload := append([]byte{CTRL_CMD_NEWFAMILY, CTRL_VERSION, 0, 0}, attrs...)
		return [][]byte{datagram(
			message(t, GENL_ID_CTRL, req.Header.Sequence, payload),
			ackMessage(t, req),
		)}
	})

	family, err := LookupFamily(context.Background(), NewConn(sock), "nl80211")
	require.NoError(t, err)
	require.Equal(t, uint16(0x13), family.ID)
	require.Equal(t, FamilyName("nl80211"), family.Info.Name)

	id, err := family.MulticastGroup("scan")
	require.NoError(t, err)
	require.Equal(t, uint32(5), id)
}

func TestResolveFailureForgetsEarlierFamily(t *testing.T) {
	known := true
	sock := newFakeSocket(t, func(req netlink.Message) [][]byte {
		if known {
			return [][]byte{datagram(
				newFamilyMessage(t, req.Header.Sequence, 0x13, "nl80211"),
				ackMessage(t, req),
			)}
		}
		return [][]byte{errorMessage(t, req, -int32(unix.ENOENT))}
	})

	r := NewResolver(NewConn(sock))
	_, err := r.Resolve(context.Background(), "nl80211")
	require.NoError(t, err)
	require.Equal(t, Resolved, r.State())

	known = false
	_, err = r.Resolve(context.Background(), "nl80211")
	require.ErrorIs(t, err, ErrFamilyNotFound)
	require.Equal(t, Unresolved, r.State())

	family, ok := r.Family()
	require.False(t, ok)
	require.Equal(t, Family{}, family)
}
