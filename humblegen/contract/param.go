package contract

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/broady/humble/humblegen/ast"
)

var validate = validator.New()

// ParseParam parses a path parameter or query field of the given atom type.
// Strings are taken verbatim, numbers are decimal, booleans are "true" or
// "false", datetimes RFC 3339, dates YYYY-MM-DD and bytes standard base64.
// Errors are *DecodeError.
func ParseParam(atom ast.AtomType, raw string) (any, error) {
	switch atom {
	case ast.Str:
		return raw, nil
	case ast.I32:
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return nil, numError(atom, raw, err)
		}
		return int32(n), nil
	case ast.U32:
		n, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return nil, numError(atom, raw, err)
		}
		return uint32(n), nil
	case ast.U8:
		n, err := strconv.ParseUint(raw, 10, 8)
		if err != nil {
			return nil, numError(atom, raw, err)
		}
		return uint8(n), nil
	case ast.F64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, decodeErrorf("", "invalid f64 %q", raw)
		}
		return f, nil
	case ast.Bool:
		switch raw {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, decodeErrorf("", "invalid bool %q, want true or false", raw)
	case ast.DateTime:
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, decodeErrorf("", "invalid datetime %q, want RFC 3339", raw)
		}
		return t, nil
	case ast.Date:
		d, err := ParseDate(raw)
		if err != nil {
			return nil, decodeErrorf("", "invalid date %q, want YYYY-MM-DD", raw)
		}
		return d, nil
	case ast.Uuid:
		return parseUUID(raw)
	case ast.Bytes:
		b, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return nil, decodeErrorf("", "invalid base64: %v", err)
		}
		return b, nil
	}
	return nil, decodeErrorf("", "%s cannot be parsed from text", atom)
}

func numError(atom ast.AtomType, raw string, err error) *DecodeError {
	if ne, ok := err.(*strconv.NumError); ok && errors.Is(ne.Err, strconv.ErrRange) {
		return decodeErrorf("", "%s out of range for %s", raw, atom)
	}
	return decodeErrorf("", "invalid %s %q", atom, raw)
}

func parseUUID(raw string) (string, error) {
	u := strings.ToLower(raw)
	if err := validate.Var(u, "required,uuid"); err != nil {
		return "", decodeErrorf("", "invalid uuid %q", raw)
	}
	return u, nil
}

// FormatParam is the inverse of ParseParam. It accepts the Go value model of
// the atom and any integer or float kind for numeric atoms. Floats are
// written as encoding/json writes them: plain decimals between 1e-6 and 1e21,
// exponent form outside.
// Errors are *EncodeError.
func FormatParam(atom ast.AtomType, v any) (string, error) {
	v = deref(v)
	switch atom {
	case ast.Str:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case ast.I32, ast.U32, ast.U8:
		return formatInt(atom, v)
	case ast.F64:
		f, ok := toFloat64(v)
		if !ok {
			break
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return "", encodeErrorf("", "f64 %v is not representable", f)
		}
		b, err := json.Marshal(f)
		if err != nil {
			return "", encodeErrorf("", "f64 %v is not representable", f)
		}
		return string(b), nil
	case ast.Bool:
		if b, ok := v.(bool); ok {
			return strconv.FormatBool(b), nil
		}
	case ast.DateTime:
		if t, ok := v.(time.Time); ok {
			return t.UTC().Format(time.RFC3339Nano), nil
		}
	case ast.Date:
		switch d := v.(type) {
		case Date:
			return d.String(), nil
		case time.Time:
			return DateOf(d).String(), nil
		}
	case ast.Uuid:
		s, ok := v.(string)
		if !ok {
			if st, isStringer := v.(fmt.Stringer); isStringer {
				s, ok = st.String(), true
			}
		}
		if ok {
			u, err := parseUUID(s)
			if err != nil {
				return "", encodeErrorf("", "invalid uuid %q", s)
			}
			return u, nil
		}
	case ast.Bytes:
		if b, ok := v.([]byte); ok {
			return base64.StdEncoding.EncodeToString(b), nil
		}
	default:
		return "", encodeErrorf("", "%s cannot be written as text", atom)
	}
	return "", encodeErrorf("", "cannot write %T as %s", v, atom)
}

func formatInt(atom ast.AtomType, v any) (string, error) {
	n, ok := toInt64(v)
	if !ok {
		if _, isNum := toFloat64(v); !isNum {
			return "", encodeErrorf("", "cannot write %T as %s", v, atom)
		}
		return "", encodeErrorf("", "%v is not a valid %s", v, atom)
	}
	var lo, hi int64
	switch atom {
	case ast.I32:
		lo, hi = math.MinInt32, math.MaxInt32
	case ast.U32:
		lo, hi = 0, math.MaxUint32
	default:
		lo, hi = 0, math.MaxUint8
	}
	if n < lo || n > hi {
		return "", encodeErrorf("", "%d out of range for %s", n, atom)
	}
	return strconv.FormatInt(n, 10), nil
}
