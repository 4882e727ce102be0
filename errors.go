package humble

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrorKind tells which dispatch stage produced an error.
type ErrorKind string

const (
	// KindRouting errors mean no unique route matched the request.
	KindRouting ErrorKind = "routing"
	// KindRequest errors mean the path parameters, query or body did not decode.
	KindRequest ErrorKind = "request"
	// KindService errors come from the interceptor, the handler or the response encoder.
	KindService ErrorKind = "service"
)

// ErrorCode represents a machine-readable error code.
type ErrorCode string

const (
	CodeNoServiceMounted         ErrorCode = "no_service_mounted"
	CodeServiceMountsAmbiguous   ErrorCode = "service_mounts_ambiguous"
	CodeNoRouteMountedInService  ErrorCode = "no_route_mounted_in_service"
	CodeRouteMountsAmbiguous     ErrorCode = "route_mounts_ambiguous"
	CodeRouteParamInvalid        ErrorCode = "route_param_invalid"
	CodeQueryInvalid             ErrorCode = "query_invalid"
	CodePostBodyInvalid          ErrorCode = "post_body_invalid"
	CodeAuthentication           ErrorCode = "authentication"
	CodeAuthorization            ErrorCode = "authorization"
	CodeInternal                 ErrorCode = "internal"
	CodeSerializeHandlerResponse ErrorCode = "serialize_handler_response"
	CodeNotImplemented           ErrorCode = "not_implemented"
	CodeInvalidArgument          ErrorCode = "invalid_argument"

	// Codes for handlers to report domain failures.
	CodeNotFound          ErrorCode = "not_found"
	CodeConflict          ErrorCode = "conflict"
	CodeResourceExhausted ErrorCode = "resource_exhausted"
	CodeCanceled          ErrorCode = "canceled"
	CodeUnavailable       ErrorCode = "unavailable"
	CodeDeadlineExceeded  ErrorCode = "deadline_exceeded"
)

// Sentinels an Interceptor or handler wraps to reject a request.
var (
	ErrAuthentication = errors.New("authentication required")
	ErrAuthorization  = errors.New("not authorized")
)

// Error is the standard JSON error envelope.
type Error struct {
	Kind    ErrorKind      `json:"kind"`
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError creates a new service error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Kind:    code.kind(),
		Code:    code,
		Message: message,
	}
}

// Errorf creates a new service error with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return NewError(code, fmt.Sprintf(format, args...))
}

// WithDetail returns a new Error with the key-value pair added to details.
func (e *Error) WithDetail(key string, value any) *Error {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &Error{
		Kind:    e.Kind,
		Code:    e.Code,
		Message: e.Message,
		Details: details,
	}
}

// WithDetails returns a new Error with the provided map merged into details.
func (e *Error) WithDetails(details map[string]any) *Error {
	if len(details) == 0 {
		return e
	}
	merged := make(map[string]any, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &Error{
		Kind:    e.Kind,
		Code:    e.Code,
		Message: e.Message,
		Details: merged,
	}
}

func (c ErrorCode) kind() ErrorKind {
	switch c {
	case CodeNoServiceMounted, CodeServiceMountsAmbiguous, CodeNoRouteMountedInService, CodeRouteMountsAmbiguous:
		return KindRouting
	case CodeRouteParamInvalid, CodeQueryInvalid, CodePostBodyInvalid:
		return KindRequest
	default:
		return KindService
	}
}

// ErrorTransformer is a function that maps an application error to a service error.
// If it returns nil, the default transformer logic should be applied.
type ErrorTransformer func(error) *Error

// DefaultErrorTransformer maps standard Go errors to service errors.
func DefaultErrorTransformer(err error) *Error {
	if err == nil {
		return nil
	}

	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr
	}

	if errors.Is(err, ErrAuthentication) {
		return NewError(CodeAuthentication, err.Error())
	}

	if errors.Is(err, ErrAuthorization) {
		return NewError(CodeAuthorization, err.Error())
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewError(CodeDeadlineExceeded, "request timeout")
	}

	if errors.Is(err, context.Canceled) {
		return NewError(CodeCanceled, "context canceled")
	}

	var valErrs validator.ValidationErrors
	if errors.As(err, &valErrs) {
		details := make(map[string]any)
		messages := make([]string, 0, len(valErrs))
		for _, ve := range valErrs {
			msg := formatValidationError(ve)
			details[ve.Field()] = msg
			messages = append(messages, ve.Field()+": "+msg)
		}
		return &Error{
			Kind:    KindService,
			Code:    CodeInvalidArgument,
			Message: strings.Join(messages, "; "),
			Details: details,
		}
	}

	// errors.Join: the first error picks the code, all messages are kept.
	if u, ok := err.(interface{ Unwrap() []error }); ok {
		errs := u.Unwrap()
		if len(errs) > 0 {
			firstMapped := DefaultErrorTransformer(errs[0])
			msgs := make([]string, len(errs))
			for i, e := range errs {
				msgs[i] = e.Error()
			}
			return &Error{
				Kind:    firstMapped.Kind,
				Code:    firstMapped.Code,
				Message: strings.Join(msgs, "; "),
				Details: firstMapped.Details,
			}
		}
	}

	return NewError(CodeInternal, fmt.Sprintf("%+v", err))
}

// HTTPStatus maps an ErrorCode to an HTTP status code.
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case CodeNoServiceMounted, CodeNoRouteMountedInService, CodeNotFound:
		return http.StatusNotFound
	case CodeRouteParamInvalid, CodeQueryInvalid, CodePostBodyInvalid, CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeAuthentication:
		return http.StatusUnauthorized
	case CodeAuthorization:
		return http.StatusForbidden
	case CodeConflict:
		return http.StatusConflict
	case CodeResourceExhausted:
		return http.StatusTooManyRequests
	case CodeCanceled:
		return 499 // Client Closed Request (Nginx standard)
	case CodeNotImplemented:
		return http.StatusNotImplemented
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	case CodeDeadlineExceeded:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// formatValidationError converts a validator.FieldError to a human-readable message.
func formatValidationError(ve validator.FieldError) string {
	switch ve.Tag() {
	case "required":
		return "required"
	case "min":
		return fmt.Sprintf("must be at least %s", ve.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", ve.Param())
	case "len":
		return fmt.Sprintf("must have length %s", ve.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", ve.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", ve.Param())
	case "lt":
		return fmt.Sprintf("must be less than %s", ve.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", ve.Param())
	case "email":
		return "must be a valid email address"
	case "uuid":
		return "must be a valid UUID"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", ve.Param())
	default:
		if ve.Param() != "" {
			return fmt.Sprintf("failed %s=%s validation", ve.Tag(), ve.Param())
		}
		return fmt.Sprintf("failed %s validation", ve.Tag())
	}
}

// writeError writes the error document. A missing kind is derived from the code.
func writeError(w http.ResponseWriter, svcErr *Error, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	if svcErr.Kind == "" {
		withKind := *svcErr
		withKind.Kind = svcErr.Code.kind()
		svcErr = &withKind
	}
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(svcErr.Code.HTTPStatus())
	if err := encodeErrorResponse(w, svcErr); err != nil {
		logger.Error("failed to encode error response",
			slog.String("code", string(svcErr.Code)),
			slog.String("message", svcErr.Message),
			slog.Any("error", err))
	}
}
