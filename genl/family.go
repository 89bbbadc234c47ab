package genl

import (
	"context"
	"errors"
	"fmt"

	"github.com/mdlayher/netlink"
	"golang.org/x/sys/unix"
)

// A Family is a resolved generic netlink family: the numeric id that
// addresses its requests, and the control family's description of it.
type Family struct {
	ID   uint16
	Info NewFamily
}

// Message frames req for this family.
func (f Family) Message(flags netlink.HeaderFlags, req Request) (netlink.Message, error) {
	return Serialize(f.ID, flags, req)
}

// MulticastGroup returns the id of the named multicast group.
func (f Family) MulticastGroup(name string) (uint32, error) {
	for _, g := range f.Info.MulticastGroups {
		if string(g.Name) == name {
			return uint32(g.ID), nil
		}
	}

	return 0, fmt.Errorf("no genl multicast group %s in family %s", name, f.Info.Name)
}

// Supports reports whether the family declares the command, and with
// which capability flags.
func (f Family) Supports(cmd uint8) (OperationFlags, bool) {
	for _, op := range f.Info.Operations {
		if op.ID == OperationID(cmd) {
			return op.Flags, true
		}
	}

	return 0, false
}

type ResolverState int

const (
	Unresolved ResolverState = iota
	Resolved
)

func (s ResolverState) String() string {
	switch s {
	case Unresolved:
		return "unresolved"
	case Resolved:
		return "resolved"
	default:
		return fmt.Sprintf("ResolverState(%d)", int(s))
	}
}

// A Resolver turns a family name into a Family by asking the control
// family.  It stays Unresolved until a well formed reply arrives; no
// retries are made.
type Resolver struct {
	conn   *Conn
	state  ResolverState
	family Family
}

func NewResolver(conn *Conn) *Resolver {
	return &Resolver{conn: conn}
}

func (r *Resolver) State() ResolverState {
	return r.state
}

// Family returns the resolved family, if any.
func (r *Resolver) Family() (Family, bool) {
	return r.family, r.state == Resolved
}

// Resolve performs the GetFamily exchange for name.  Any earlier
// result is discarded first, so on failure the resolver is Unresolved.
func (r *Resolver) Resolve(ctx context.Context, name string) (Family, error) {
	r.state = Unresolved
	r.family = Family{}

	req, err := Serialize(GENL_ID_CTRL, RequestFlags, GetFamily{Name: FamilyName(name)})
	if err != nil {
		return Family{}, fmt.Errorf("generic netlink family %q: %w", name, err)
	}

	msgs, err := r.conn.Exchange(ctx, req)
	if err != nil {
		if errors.Is(err, unix.ENOENT) {
			return Family{}, fmt.Errorf("generic netlink family %q: %w (%w)", name, ErrFamilyNotFound, err)
		}

		return Family{}, fmt.Errorf("generic netlink family %q: %w", name, err)
	}

	for _, m := range msgs {
		if nf, ok := m.(NewFamily); ok {
			r.family = Family{ID: uint16(nf.ID), Info: nf}
			r.state = Resolved
			r.conn.log.Debug().Str("family", name).Uint16("id", r.family.ID).Msg("resolved generic netlink family")
			return r.family, nil
		}
	}

	return Family{}, fmt.Errorf("generic netlink family %q: no family description in reply", name)
}

// LookupFamily resolves name with a fresh Resolver.
func LookupFamily(ctx context.Context, conn *Conn, name string) (Family, error) {
	return NewResolver(conn).Resolve(ctx, name)
}

// ListFamilies describes every family registered with the kernel.
//
// Family descriptions are parsed strictly, and the kernel omits the
// operation and multicast group lists of a family that has none.  A
// dump that includes such a family fails with ErrMissingAttribute.
func ListFamilies(ctx context.Context, conn *Conn) ([]Family, error) {
	req, err := Serialize(GENL_ID_CTRL, DumpFlags, DumpFamilies{})
	if err != nil {
		return nil, err
	}

	msgs, err := conn.Exchange(ctx, req)
	if err != nil {
		return nil, err
	}

	res := make([]Family, 0, len(msgs))
	for _, m := range msgs {
		if nf, ok := m.(NewFamily); ok {
			res = append(res, Family{ID: uint16(nf.ID), Info: nf})
		}
	}

	return res, nil
}
