package genl

// A Field describes how one attribute populates a field of record R.
type Field[R any] struct {
	Name  string
	Type  uint16
	parse func(r *R, a Attribute) error
}

// Scalar maps a typed attribute onto the record field returned by
// field.
func Scalar[R, T any](name string, attr Typed[T], field func(*R) *T) Field[R] {
	return Field[R]{
		Name: name,
		Type: attr.Type,
		parse: func(r *R, a Attribute) (err error) {
			*field(r), err = attr.Parse(a)
			return
		},
	}
}

// List maps a container attribute, whose value is a concatenation
// of per-element attributes, onto a slice of records parsed by elem.
// The tags of the element attributes are element indices and are
// not checked.
func List[R any, L ~[]E, E any](name string, typ uint16, elem Schema[E], field func(*R) *L) Field[R] {
	return Field[R]{
		Name: name,
		Type: typ,
		parse: func(r *R, a Attribute) error {
			children, err := a.Children()
			if err != nil {
				return err
			}

			l := make(L, 0, len(children))
			for _, c := range children {
				e, err := elem.Parse(c.Value)
				if err != nil {
					return err
				}
				l = append(l, e)
			}

			*field(r) = l
			return nil
		},
	}
}

// A Schema maps attribute tags to the fields of record R.  Parsing is
// strict: every field must be present exactly once, and an attribute
// with a tag not in the schema is rejected.
type Schema[R any] struct {
	Name   string
	Fields []Field[R]
}

func (s Schema[R]) field(typ uint16) int {
	for i := range s.Fields {
		if s.Fields[i].Type == typ {
			return i
		}
	}

	return -1
}

// Parse builds a record from the sibling attributes in b.  Their order
// is irrelevant.
func (s Schema[R]) Parse(b []byte) (R, error) {
	var r R

	attrs, err := ParseAttributes(b)
	if err != nil {
		return r, &DecodeError{Context: s.Name, Err: err}
	}

	seen := make([]bool, len(s.Fields))
	for _, a := range attrs {
		i := s.field(a.Type)
		if i < 0 {
			return r, decodeErrorf(ErrUnknownAttribute, "%s: attribute %d", s.Name, a.Type)
		}

		f := &s.Fields[i]
		if seen[i] {
			return r, decodeErrorf(ErrDuplicateAttribute, "%s: field %s (attribute %d)", s.Name, f.Name, f.Type)
		}

		if err := f.parse(&r, a); err != nil {
			return r, decodeErrorf(err, "%s: field %s", s.Name, f.Name)
		}

		seen[i] = true
	}

	for i, ok := range seen {
		if !ok {
			f := &s.Fields[i]
			return r, decodeErrorf(ErrMissingAttribute, "%s: field %s (attribute %d)", s.Name, f.Name, f.Type)
		}
	}

	return r, nil
}
