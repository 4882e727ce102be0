package humble

import "encoding/json"

const contentTypeJSON = "application/json"

// errorResponse wraps an error in an {"error": {...}} document.
// Successful responses are written unwrapped.
type errorResponse struct {
	Error *Error `json:"error"`
}

// encodeErrorResponse writes an error response to the ResponseWriter.
func encodeErrorResponse(w jsonWriter, err *Error) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(errorResponse{Error: err})
}

// jsonWriter is satisfied by http.ResponseWriter and allows testing.
type jsonWriter interface {
	Write([]byte) (int, error)
}
