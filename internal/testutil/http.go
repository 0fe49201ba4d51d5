package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// HTTPResult captures HTTP response details for test assertions
type HTTPResult struct {
	Code    int
	Error   error
	Headers http.Header
	Body    []byte
}

// Header is one request header
type Header struct {
	Key   string
	Value string
}

// Bearer returns an Authorization header carrying token
func Bearer(token string) Header {
	return Header{Key: "Authorization", Value: "Bearer " + token}
}

// ExpectStatus fails the test unless result has the expected status
func ExpectStatus(
	t *testing.T,
	expected int,
	result HTTPResult,
) {
	t.Helper()
	if result.Error != nil {
		t.Fatalf("request error: %v", result.Error)
	}
	if result.Code != expected {
		t.Fatalf("expected status %d, got %d. Body: %s", expected, result.Code, string(result.Body))
	}
}

// ExpectError checks the status and the {"error": ...} message
func ExpectError(
	t *testing.T,
	expected int,
	message string,
	result HTTPResult,
) {
	t.Helper()
	ExpectStatus(t, expected, result)
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(result.Body, &body); err != nil {
		t.Fatalf("error body is not JSON: %v. Body: %s", err, string(result.Body))
	}
	if body.Error != message {
		t.Fatalf("expected error %q, got %q", message, body.Error)
	}
}

// Get sends a GET through router, decoding a JSON reply into response
// when it is non-nil
func Get(
	router http.Handler,
	url string,
	response any,
	headers ...Header,
) HTTPResult {
	return serve(router, http.MethodGet, url, nil, response, headers)
}

// PostJSON sends body as a JSON POST through router
func PostJSON(
	router http.Handler,
	url string,
	body string,
	response any,
	headers ...Header,
) HTTPResult {
	headers = append([]Header{{Key: "Content-Type", Value: "application/json"}}, headers...)
	return serve(router, http.MethodPost, url, strings.NewReader(body), response, headers)
}

func serve(
	router http.Handler,
	method string,
	url string,
	body io.Reader,
	response any,
	headers []Header,
) HTTPResult {
	req := httptest.NewRequest(method, url, body)
	for _, h := range headers {
		req.Header.Set(h.Key, h.Value)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	result := HTTPResult{Code: rec.Code, Headers: rec.Header(), Body: rec.Body.Bytes()}
	if response != nil && rec.Body.Len() > 0 {
		if err := json.Unmarshal(result.Body, response); err != nil {
			result.Error = fmt.Errorf("failed to decode JSON: %v\n%s", err, rec.Body.String())
		}
	}
	return result
}
