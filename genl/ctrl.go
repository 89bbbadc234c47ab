package genl

// The nlctrl family: resolving family names to ids.

type FamilyID uint16
type FamilyName string
type Version uint32
type HeaderSize uint32
type MaxAttributes uint32
type OperationID uint32
type OperationFlags uint32
type MulticastGroupID uint32
type MulticastGroupName string

var (
	familyIDAttr      = Uint[FamilyID](CTRL_ATTR_FAMILY_ID)
	familyNameAttr    = NulString[FamilyName](CTRL_ATTR_FAMILY_NAME)
	versionAttr       = Uint[Version](CTRL_ATTR_VERSION)
	headerSizeAttr    = Uint[HeaderSize](CTRL_ATTR_HDRSIZE)
	maxAttributesAttr = Uint[MaxAttributes](CTRL_ATTR_MAXATTR)

	operationIDAttr    = Uint[OperationID](CTRL_ATTR_OP_ID)
	operationFlagsAttr = Uint[OperationFlags](CTRL_ATTR_OP_FLAGS)

	mcastGroupNameAttr = NulString[MulticastGroupName](CTRL_ATTR_MCAST_GRP_NAME)
	mcastGroupIDAttr   = Uint[MulticastGroupID](CTRL_ATTR_MCAST_GRP_ID)
)

type Operation struct {
	ID    OperationID
	Flags OperationFlags
}

var operationSchema = Schema[Operation]{
	Name: "operation",
	Fields: []Field[Operation]{
		Scalar("id", operationIDAttr, func(o *Operation) *OperationID { return &o.ID }),
		Scalar("flags", operationFlagsAttr, func(o *Operation) *OperationFlags { return &o.Flags }),
	},
}

type MulticastGroup struct {
	ID   MulticastGroupID
	Name MulticastGroupName
}

var multicastGroupSchema = Schema[MulticastGroup]{
	Name: "multicast group",
	Fields: []Field[MulticastGroup]{
		Scalar("name", mcastGroupNameAttr, func(g *MulticastGroup) *MulticastGroupName { return &g.Name }),
		Scalar("id", mcastGroupIDAttr, func(g *MulticastGroup) *MulticastGroupID { return &g.ID }),
	},
}

type OperationList []Operation

type MulticastGroupList []MulticastGroup

// NewFamily is the control family's description of a family, sent in
// reply to GetFamily.
type NewFamily struct {
	ID              FamilyID
	Name            FamilyName
	Version         Version
	HeaderSize      HeaderSize
	MaxAttributes   MaxAttributes
	Operations      OperationList
	MulticastGroups MulticastGroupList
}

var newFamilySchema = Schema[NewFamily]{
	Name: "new family",
	Fields: []Field[NewFamily]{
		Scalar("name", familyNameAttr, func(f *NewFamily) *FamilyName { return &f.Name }),
		Scalar("id", familyIDAttr, func(f *NewFamily) *FamilyID { return &f.ID }),
		Scalar("version", versionAttr, func(f *NewFamily) *Version { return &f.Version }),
		Scalar("header size", headerSizeAttr, func(f *NewFamily) *HeaderSize { return &f.HeaderSize }),
		Scalar("max attributes", maxAttributesAttr, func(f *NewFamily) *MaxAttributes { return &f.MaxAttributes }),
		List("operations", CTRL_ATTR_OPS, operationSchema, func(f *NewFamily) *OperationList { return &f.Operations }),
		List("multicast groups", CTRL_ATTR_MCAST_GROUPS, multicastGroupSchema, func(f *NewFamily) *MulticastGroupList { return &f.MulticastGroups }),
	},
}

func (NewFamily) Header() GenlMsghdr {
	return GenlMsghdr{Cmd: CTRL_CMD_NEWFAMILY, Version: CTRL_VERSION}
}

func ParseNewFamily(attrs []byte) (NewFamily, error) {
	return newFamilySchema.Parse(attrs)
}

// GetFamily asks the control family to describe the named family.
type GetFamily struct {
	Name FamilyName
}

func (GetFamily) Header() GenlMsghdr {
	return GenlMsghdr{Cmd: CTRL_CMD_GETFAMILY, Version: 1}
}

func (g GetFamily) Attributes() []Attribute {
	return []Attribute{familyNameAttr.Attribute(g.Name)}
}

// DumpFamilies is GetFamily without a name, sent with DumpFlags to
// have every registered family described.
type DumpFamilies struct{}

func (DumpFamilies) Header() GenlMsghdr {
	return GenlMsghdr{Cmd: CTRL_CMD_GETFAMILY, Version: 1}
}

func (DumpFamilies) Attributes() []Attribute {
	return nil
}

// ControlCommands are the replies of the control family this package
// understands.
func ControlCommands() Commands {
	return Commands{
		CTRL_CMD_NEWFAMILY: func(_ GenlMsghdr, attrs []byte) (Message, error) {
			f, err := ParseNewFamily(attrs)
			if err != nil {
				return nil, err
			}

			return f, nil
		},
	}
}
