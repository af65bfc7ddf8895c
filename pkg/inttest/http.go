package inttest

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/harryhq/mail-manager/internal/handler"
	"github.com/harryhq/mail-manager/internal/server"
	"github.com/stretchr/testify/require"
)

// SetupHTTPServer starts an HTTP server around our Gin engine. f registers the routes under
// test. The returned client talks to the started server.
func SetupHTTPServer(t *testing.T, f func(engine *gin.Engine)) *HTTPClient {
	t.Helper()

	err := handler.RegisterValidation()
	require.NoError(t, err, "failed to register validation")
	gin.SetMode(gin.TestMode)

	engine := server.GetEngine(newTestLogger(), "")
	f(engine)

	server := httptest.NewServer(engine.Handler())
	client := server.Client()
	t.Cleanup(func() {
		client.CloseIdleConnections()
		server.Close()
	})

	return &HTTPClient{Client: client, ServerURL: server.URL}
}

// HTTPClient makes requests the way our handlers expect them and fails the test on anything
// unexpected. Reach for the embedded http.Client where these defaults don't fit.
type HTTPClient struct {
	Client    *http.Client
	ServerURL string
}

// WithHeader adds a header to the request.
func WithHeader(key string, value string) func(http.Header) {
	return func(header http.Header) {
		header.Add(key, value)
	}
}

// WithBasicAuth adds a basic auth Authorization header to the request.
func WithBasicAuth(user string, password string) func(http.Header) {
	return func(header http.Header) {
		header.Add("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(user+":"+password)))
	}
}

// WithAuthToken adds a bearer token Authorization header to the request.
func WithAuthToken(token string) func(http.Header) {
	return func(header http.Header) {
		header.Add("Authorization", "Bearer "+token)
	}
}

// Get sends a GET request and requires a 200 response.
func (hc *HTTPClient) Get(t *testing.T, path string, headers ...func(http.Header)) []byte {
	t.Helper()
	return hc.Do(t, http.MethodGet, path, nil, http.StatusOK, headers...)
}

// Post sends a POST request and requires a 201 response.
func (hc *HTTPClient) Post(t *testing.T, path string, requestBody io.Reader, headers ...func(http.Header)) []byte {
	t.Helper()
	return hc.Do(t, http.MethodPost, path, requestBody, http.StatusCreated, headers...)
}

// Put sends a PUT request and requires a 200 response.
func (hc *HTTPClient) Put(t *testing.T, path string, requestBody io.Reader, headers ...func(http.Header)) []byte {
	t.Helper()
	return hc.Do(t, http.MethodPut, path, requestBody, http.StatusOK, headers...)
}

// Delete sends a DELETE request and requires a 202 response.
func (hc *HTTPClient) Delete(t *testing.T, path string, headers ...func(http.Header)) []byte {
	t.Helper()
	return hc.Do(t, http.MethodDelete, path, nil, http.StatusAccepted, headers...)
}

// Do sends a request with the given method, requires the expected status and returns the
// response body as is.
func (hc *HTTPClient) Do(t *testing.T, method, path string, requestBody io.Reader, expectedStatus int, headers ...func(http.Header)) []byte {
	t.Helper()

	errMsg := fmt.Sprintf("failed %s %q", method, path)

	req, err := http.NewRequest(method, hc.ServerURL+path, requestBody)
	require.NoError(t, err, errMsg+": failed to create request")
	for _, f := range headers {
		f(req.Header)
	}

	res, err := hc.Client.Do(req)
	require.NoError(t, err, errMsg+": HTTP request failed")
	defer func() {
		require.NoError(t, res.Body.Close(), errMsg+": failed to close HTTP response body")
	}()

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err, errMsg+": failed to read HTTP response body")
	require.Equalf(t, expectedStatus, res.StatusCode, errMsg+": HTTP status mismatch: body %q", body)
	return body
}

// GetJSON sends a GET request, requires a 200 response and unmarshals the JSON response body.
func (hc *HTTPClient) GetJSON(t *testing.T, path string, responseBody any, headers ...func(http.Header)) {
	t.Helper()

	body := hc.Get(t, path, headers...)
	unmarshal(t, http.MethodGet, path, body, responseBody)
}

// PostJSON sends a POST request with a JSON body, requires a 201 response and unmarshals the
// JSON response body.
func (hc *HTTPClient) PostJSON(t *testing.T, path string, requestBody io.Reader, responseBody any, headers ...func(http.Header)) {
	t.Helper()

	if requestBody != nil {
		headers = append(headers, WithHeader("Content-Type", "application/json"))
	}
	body := hc.Post(t, path, requestBody, headers...)
	unmarshal(t, http.MethodPost, path, body, responseBody)
}

// PutJSON sends a PUT request with a JSON body, requires a 200 response and unmarshals the
// JSON response body.
func (hc *HTTPClient) PutJSON(t *testing.T, path string, requestBody io.Reader, responseBody any, headers ...func(http.Header)) {
	t.Helper()

	if requestBody != nil {
		headers = append(headers, WithHeader("Content-Type", "application/json"))
	}
	body := hc.Put(t, path, requestBody, headers...)
	unmarshal(t, http.MethodPut, path, body, responseBody)
}

func unmarshal(t *testing.T, method, path string, body []byte, out any) {
	t.Helper()

	err := json.Unmarshal(body, out)
	require.NoErrorf(t, err, "failed %s %q: failed to unmarshal response body %q", method, path, body)
}
