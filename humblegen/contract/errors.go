package contract

import (
	"errors"
	"fmt"
)

// Compile errors. Compile wraps these with the location and names involved.
var (
	ErrUnresolvedTypeReference = errors.New("unresolved type reference")
	ErrDuplicateDefinition     = errors.New("duplicate definition")
	ErrInvalidMapKey           = errors.New("invalid map key")
	ErrInvalidQueryType        = errors.New("invalid query type")
	ErrInvalidRouteParam       = errors.New("invalid route parameter")
	ErrDuplicateRouteParam     = errors.New("duplicate route parameter")
	ErrDuplicateRouteName      = errors.New("duplicate route name")
	ErrUnresolvedEmbed         = errors.New("embed left unresolved")
)

// Codec errors.
var (
	ErrDeserialization = errors.New("deserialization failed")
	ErrSerialization   = errors.New("serialization failed")
)

// DecodeError reports a value that does not match its declared type.
// Path locates the value inside the document, e.g. "monsters[2].name".
type DecodeError struct {
	Path string
	Msg  string
}

func (e *DecodeError) Error() string {
	if e.Path == "" {
		return e.Msg
	}
	return e.Path + ": " + e.Msg
}

func (e *DecodeError) Unwrap() error { return ErrDeserialization }

func decodeErrorf(path, format string, args ...any) *DecodeError {
	return &DecodeError{Path: path, Msg: fmt.Sprintf(format, args...)}
}

// EncodeError reports a Go value that cannot be written as its declared type.
type EncodeError struct {
	Path string
	Msg  string
}

func (e *EncodeError) Error() string {
	if e.Path == "" {
		return e.Msg
	}
	return e.Path + ": " + e.Msg
}

func (e *EncodeError) Unwrap() error { return ErrSerialization }

func encodeErrorf(path, format string, args ...any) *EncodeError {
	return &EncodeError{Path: path, Msg: fmt.Sprintf(format, args...)}
}

func fieldPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

func indexPath(parent string, i int) string {
	return fmt.Sprintf("%s[%d]", parent, i)
}

func keyPath(parent, key string) string {
	return fmt.Sprintf("%s[%q]", parent, key)
}
