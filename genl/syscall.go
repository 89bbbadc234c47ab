package genl

type GenlMsghdr struct {
	Cmd      uint8
	Version  uint8
	Reserved uint16
}

const SizeofGenlMsghdr = 4

// reserved static generic netlink identifiers:
const (
	GENL_ID_GENERATE  = 0
	GENL_ID_CTRL      = 0x10
	GENL_ID_VFS_DQUOT = GENL_ID_CTRL + 1
	GENL_ID_PMCRAID   = GENL_ID_CTRL + 2
)

const CTRL_VERSION = 2

const (
	CTRL_CMD_UNSPEC       = 0
	CTRL_CMD_NEWFAMILY    = 1
	CTRL_CMD_DELFAMILY    = 2
	CTRL_CMD_GETFAMILY    = 3
	CTRL_CMD_NEWOPS       = 4
	CTRL_CMD_DELOPS       = 5
	CTRL_CMD_GETOPS       = 6
	CTRL_CMD_NEWMCAST_GRP = 7
	CTRL_CMD_DELMCAST_GRP = 8
	CTRL_CMD_GETMCAST_GRP = 9
	CTRL_CMD_GETPOLICY    = 10
)

const (
	CTRL_ATTR_UNSPEC       = 0
	CTRL_ATTR_FAMILY_ID    = 1
	CTRL_ATTR_FAMILY_NAME  = 2
	CTRL_ATTR_VERSION      = 3
	CTRL_ATTR_HDRSIZE      = 4
	CTRL_ATTR_MAXATTR      = 5
	CTRL_ATTR_OPS          = 6
	CTRL_ATTR_MCAST_GROUPS = 7
)

const (
	CTRL_ATTR_OP_UNSPEC = 0
	CTRL_ATTR_OP_ID     = 1
	CTRL_ATTR_OP_FLAGS  = 2
)

const (
	CTRL_ATTR_MCAST_GRP_UNSPEC = 0
	CTRL_ATTR_MCAST_GRP_NAME   = 1
	CTRL_ATTR_MCAST_GRP_ID     = 2
)

// Operation flags reported in CTRL_ATTR_OP_FLAGS.
const (
	GENL_ADMIN_PERM     = 0x01
	GENL_CMD_CAP_DO     = 0x02
	GENL_CMD_CAP_DUMP   = 0x04
	GENL_CMD_CAP_HASPOL = 0x08
	GENL_UNS_ADMIN_PERM = 0x10
)

const NL80211_GENL_NAME = "nl80211"

const ( // nl80211_commands
	NL80211_CMD_GET_INTERFACE = 5
	NL80211_CMD_SET_INTERFACE = 6
	NL80211_CMD_NEW_INTERFACE = 7
	NL80211_CMD_DEL_INTERFACE = 8
)

const ( // nl80211_attrs
	NL80211_ATTR_WIPHY   = 1
	NL80211_ATTR_IFINDEX = 3
	NL80211_ATTR_IFNAME  = 4
	NL80211_ATTR_IFTYPE  = 5
	NL80211_ATTR_WDEV    = 0x99
)
