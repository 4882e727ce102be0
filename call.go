package humble

import (
	"encoding/json"
	"net/url"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"

	"github.com/broady/humble/humblegen/contract"
)

var (
	validate      = validator.New()
	schemaDecoder = schema.NewDecoder()
)

func init() {
	schemaDecoder.IgnoreUnknownKeys(true)
}

// Call carries the decoded inputs of a request into a handler.
// Values follow the contract value model (see package contract).
type Call struct {
	Route *contract.Route

	// Params holds the path parameters by name.
	Params map[string]any

	// Query is nil when the route takes no query or the request had no
	// query string.
	Query any

	// Body is nil for routes without a request body.
	Body any

	rawBody  []byte
	rawQuery url.Values
}

// Param returns the path parameter with the given name, or nil.
func (c *Call) Param(name string) any {
	return c.Params[name]
}

// BindBody decodes the request body into v with encoding/json and validates
// the result with `validate` struct tags. The body has already been checked
// against the route's body type.
func (c *Call) BindBody(v any) error {
	if len(c.rawBody) == 0 {
		return NewError(CodeInvalidArgument, "request has no body")
	}
	if err := json.Unmarshal(c.rawBody, v); err != nil {
		return Errorf(CodeInvalidArgument, "failed to decode body: %v", err)
	}
	return validateStruct(v)
}

// BindQuery decodes the query string into the struct pointed to by v with
// gorilla/schema (`schema` tags) and validates it. Unknown keys are ignored.
// Slice fields bind from repeated keys, following gorilla/schema; that is a
// convenience for handlers and not the wire form of the route's query, which
// carries every non-atom field as one canonical JSON value and has already
// been checked into Call.Query.
func (c *Call) BindQuery(v any) error {
	if err := schemaDecoder.Decode(v, c.rawQuery); err != nil {
		return Errorf(CodeInvalidArgument, "failed to decode query: %v", err)
	}
	return validateStruct(v)
}

func validateStruct(v any) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	return validate.Struct(v)
}
