package genl

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Causes carried by a DecodeError.  Test for them with errors.Is.
var (
	ErrTruncated          = errors.New("truncated")
	ErrUnknownAttribute   = errors.New("unknown attribute")
	ErrMissingAttribute   = errors.New("missing attribute")
	ErrDuplicateAttribute = errors.New("duplicate attribute")
	ErrInvalidValue       = errors.New("invalid attribute value")
	ErrUnsupportedType    = errors.New("unsupported message type")
	ErrUnsupportedCommand = errors.New("unsupported command")
)

var ErrAttributeTooLong = errors.New("attribute too long")

var ErrFamilyNotFound = errors.New("generic netlink family not found")

// A DecodeError is returned for any message or attribute that could
// not be parsed.  Context names the thing being parsed; nested
// DecodeErrors build up the path to the offending attribute.
type DecodeError struct {
	Context string
	Err     error
}

func (e *DecodeError) Error() string {
	return e.Context + ": " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func decodeErrorf(err error, format string, a ...interface{}) error {
	return &DecodeError{Context: fmt.Sprintf(format, a...), Err: err}
}

func truncatedf(format string, a ...interface{}) error {
	return &DecodeError{Context: fmt.Sprintf(format, a...), Err: ErrTruncated}
}

// NetlinkError is an error code carried by an NLMSG_ERROR reply.
type NetlinkError unix.Errno

func (err NetlinkError) Error() string {
	return fmt.Sprintf("netlink error response: %s", unix.Errno(err))
}

func (err NetlinkError) Unwrap() error {
	return unix.Errno(err)
}
