// Package testutil provides testing helpers for humble HTTP handlers.
// It does not import the humble package, so it can be used from any package.
package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
)

// RequestBuilder helps construct test HTTP requests with fluent API.
type RequestBuilder struct {
	method      string
	path        string
	body        []byte
	headers     map[string]string
	queryParams url.Values
	rawQuery    string
}

// NewRequest creates a new request builder for GET /.
func NewRequest() *RequestBuilder {
	return &RequestBuilder{
		method:      http.MethodGet,
		path:        "/",
		headers:     make(map[string]string),
		queryParams: url.Values{},
	}
}

// GET sets the HTTP method to GET.
func (b *RequestBuilder) GET(path string) *RequestBuilder {
	return b.Method(http.MethodGet, path)
}

// POST sets the HTTP method to POST.
func (b *RequestBuilder) POST(path string) *RequestBuilder {
	return b.Method(http.MethodPost, path)
}

// PUT sets the HTTP method to PUT.
func (b *RequestBuilder) PUT(path string) *RequestBuilder {
	return b.Method(http.MethodPut, path)
}

// PATCH sets the HTTP method to PATCH.
func (b *RequestBuilder) PATCH(path string) *RequestBuilder {
	return b.Method(http.MethodPatch, path)
}

// DELETE sets the HTTP method to DELETE.
func (b *RequestBuilder) DELETE(path string) *RequestBuilder {
	return b.Method(http.MethodDelete, path)
}

// Method sets an arbitrary HTTP method and path.
func (b *RequestBuilder) Method(method, path string) *RequestBuilder {
	b.method = method
	b.path = path
	return b
}

// WithJSON sets the request body as JSON.
func (b *RequestBuilder) WithJSON(v any) *RequestBuilder {
	data, _ := json.Marshal(v)
	b.body = data
	b.headers["Content-Type"] = "application/json"
	return b
}

// WithBody sets the raw request body.
func (b *RequestBuilder) WithBody(body string) *RequestBuilder {
	b.body = []byte(body)
	return b
}

// WithHeader adds a header to the request.
func (b *RequestBuilder) WithHeader(key, value string) *RequestBuilder {
	b.headers[key] = value
	return b
}

// WithQuery adds a query parameter. Repeated calls with the same key add values.
func (b *RequestBuilder) WithQuery(key, value string) *RequestBuilder {
	b.queryParams.Add(key, value)
	return b
}

// WithRawQuery sets the query string verbatim, replacing WithQuery values.
func (b *RequestBuilder) WithRawQuery(raw string) *RequestBuilder {
	b.rawQuery = raw
	b.queryParams = url.Values{}
	return b
}

// Build creates the HTTP request and ResponseRecorder.
func (b *RequestBuilder) Build() (*http.Request, *httptest.ResponseRecorder) {
	path := b.path
	switch {
	case b.rawQuery != "":
		path += "?" + b.rawQuery
	case len(b.queryParams) > 0:
		path += "?" + b.queryParams.Encode()
	}

	var req *http.Request
	if len(b.body) > 0 {
		req = httptest.NewRequest(b.method, path, bytes.NewReader(b.body))
	} else {
		req = httptest.NewRequest(b.method, path, nil)
	}

	for k, v := range b.headers {
		req.Header.Set(k, v)
	}

	return req, httptest.NewRecorder()
}

// Do builds the request and serves it with h.
func (b *RequestBuilder) Do(h http.Handler) *httptest.ResponseRecorder {
	req, w := b.Build()
	h.ServeHTTP(w, req)
	return w
}

// AssertStatus checks that the response has the expected status code.
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int) {
	t.Helper()
	if w.Code != expectedStatus {
		t.Errorf("expected status %d, got %d\nBody: %s", expectedStatus, w.Code, w.Body.String())
	}
}

// AssertJSONResponse compares the response body with the JSON encoding of expected.
// A string or []byte expected value is taken as JSON text.
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expected any) {
	t.Helper()

	contentType := w.Header().Get("Content-Type")
	if !strings.Contains(contentType, "application/json") {
		t.Errorf("expected Content-Type to contain application/json, got %s", contentType)
	}

	var expectedJSON []byte
	switch e := expected.(type) {
	case string:
		expectedJSON = []byte(e)
	case []byte:
		expectedJSON = e
	default:
		expectedJSON, _ = json.Marshal(expected)
	}

	// Compare as JSON to ignore formatting differences
	var expectedData, actualData any
	if err := json.Unmarshal(expectedJSON, &expectedData); err != nil {
		t.Fatalf("expected value is not JSON: %v", err)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &actualData); err != nil {
		t.Fatalf("response is not JSON: %v\nBody: %s", err, w.Body.String())
	}

	expectedStr, _ := json.MarshalIndent(expectedData, "", "  ")
	actualStr, _ := json.MarshalIndent(actualData, "", "  ")

	if string(expectedStr) != string(actualStr) {
		t.Errorf("response mismatch:\nExpected:\n%s\nActual:\n%s", expectedStr, actualStr)
	}
}

// ErrorResponse is the body of the {"error": {...}} document.
type ErrorResponse struct {
	Kind    string         `json:"kind"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// AssertJSONError checks that the response carries an error document with the expected code.
func AssertJSONError(t *testing.T, w *httptest.ResponseRecorder, expectedCode string) *ErrorResponse {
	t.Helper()

	var doc struct {
		Error *ErrorResponse `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("failed to decode error response: %v\nBody: %s", err, w.Body.String())
	}
	if doc.Error == nil {
		t.Fatalf("response has no error document\nBody: %s", w.Body.String())
	}

	if doc.Error.Code != expectedCode {
		t.Errorf("expected error code %s, got %s (message: %s)", expectedCode, doc.Error.Code, doc.Error.Message)
	}

	return doc.Error
}

// AssertHeader checks that a response header has the expected value.
func AssertHeader(t *testing.T, w *httptest.ResponseRecorder, key, expectedValue string) {
	t.Helper()
	actual := w.Header().Get(key)
	if actual != expectedValue {
		t.Errorf("expected header %s=%s, got %s", key, expectedValue, actual)
	}
}

var requestIDPattern = regexp.MustCompile(`^[A-Za-z0-9]{30}$`)

// AssertRequestID checks that the response carries a well-formed Request-ID
// header and returns it.
func AssertRequestID(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	id := w.Header().Get("Request-ID")
	if !requestIDPattern.MatchString(id) {
		t.Errorf("expected 30 alphanumeric Request-ID, got %q", id)
	}
	return id
}

// DecodeJSON decodes the response body into the provided value.
func DecodeJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v\nBody: %s", err, w.Body.String())
	}
}
