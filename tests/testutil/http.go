package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/rsjrcat/invoice-server-main-hd/internal/interfaces/http/dto"
	"github.com/stretchr/testify/require"
)

// Client issues requests against an http.Handler on behalf of one tenant
type Client struct {
	Handler  http.Handler
	TenantID uuid.UUID
}

// NewClient creates a client for tenantID
func NewClient(handler http.Handler, tenantID uuid.UUID) *Client {
	return &Client{Handler: handler, TenantID: tenantID}
}

// Do sends body as JSON. A string body is sent verbatim. headers are
// alternating name, value pairs.
func (c *Client) Do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	require.Zero(t, len(headers)%2, "headers must be name/value pairs")

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err, "Failed to marshal request body")
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.TenantID != uuid.Nil {
		req.Header.Set("X-Tenant-ID", c.TenantID.String())
	}
	for i := 0; i < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	c.Handler.ServeHTTP(w, req)
	return w
}

// Envelope is a decoded API response whose data is kept raw
type Envelope struct {
	Success  bool            `json:"success"`
	Data     json.RawMessage `json:"data"`
	Message  string          `json:"message"`
	Warnings []string        `json:"warnings"`
	Error    *dto.ErrorInfo  `json:"error"`
	Meta     *dto.Meta       `json:"meta"`
}

// Decode parses the response envelope
func Decode(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "Response is not JSON: %s", w.Body.String())
	return env
}

// DecodeData parses the envelope and its data into T, requiring the
// expected status code
func DecodeData[T any](t *testing.T, w *httptest.ResponseRecorder, wantStatus int) T {
	t.Helper()
	require.Equal(t, wantStatus, w.Code, "Unexpected status, body: %s", w.Body.String())

	var out T
	env := Decode(t, w)
	require.NoError(t, json.Unmarshal(env.Data, &out), "Failed to decode data")
	return out
}

// DecodeError parses an error envelope, requiring the expected status code
func DecodeError(t *testing.T, w *httptest.ResponseRecorder, wantStatus int) dto.ErrorInfo {
	t.Helper()
	require.Equal(t, wantStatus, w.Code, "Unexpected status, body: %s", w.Body.String())

	env := Decode(t, w)
	require.False(t, env.Success)
	require.NotNil(t, env.Error, "Response carries no error")
	return *env.Error
}
