package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// HTTPTestContext provides utilities for HTTP testing
type HTTPTestContext struct {
	Router *gin.Engine
	t      *testing.T
}

// NewHTTPTestContext creates a new HTTP test context
func NewHTTPTestContext(t *testing.T) *HTTPTestContext {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	return &HTTPTestContext{
		Router: router,
		t:      t,
	}
}

// HTTPTestRequest represents a test HTTP request
type HTTPTestRequest struct {
	Method      string
	Path        string
	Body        interface{}
	Headers     map[string]string
	QueryParams map[string]string
}

// HTTPTestResponse represents a test HTTP response
type HTTPTestResponse struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// MakeRequest makes an HTTP request and returns the response
func (ctx *HTTPTestContext) MakeRequest(req HTTPTestRequest) *HTTPTestResponse {
	var body io.Reader

	// Prepare request body
	if req.Body != nil {
		if str, ok := req.Body.(string); ok {
			body = strings.NewReader(str)
		} else {
			bodyBytes, err := json.Marshal(req.Body)
			require.NoError(ctx.t, err)
			body = bytes.NewReader(bodyBytes)
		}
	}

	// Create HTTP request
	httpReq := httptest.NewRequest(req.Method, req.Path, body)

	// Add query parameters
	if req.QueryParams != nil {
		q := httpReq.URL.Query()
		for key, value := range req.QueryParams {
			q.Add(key, value)
		}
		httpReq.URL.RawQuery = q.Encode()
	}

	// Add headers
	if req.Headers != nil {
		for key, value := range req.Headers {
			httpReq.Header.Set(key, value)
		}
	}

	// Set default content type for JSON requests
	if req.Body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	// Create response recorder
	w := httptest.NewRecorder()

	// Make the request
	ctx.Router.ServeHTTP(w, httpReq)

	// Return response
	return &HTTPTestResponse{
		StatusCode: w.Code,
		Body:       w.Body.Bytes(),
		Headers:    w.Header(),
	}
}

// AssertJSONResponse asserts that the response is JSON and matches expected status
func (ctx *HTTPTestContext) AssertJSONResponse(resp *HTTPTestResponse, expectedStatus int, target interface{}) {
	require.Equal(ctx.t, expectedStatus, resp.StatusCode)
	require.Equal(ctx.t, "application/json; charset=utf-8", resp.Headers.Get("Content-Type"))

	if target != nil {
		err := json.Unmarshal(resp.Body, target)
		require.NoError(ctx.t, err, "Failed to unmarshal JSON response: %s", string(resp.Body))
	}
}

// AssertErrorResponse asserts that the response contains an error
func (ctx *HTTPTestContext) AssertErrorResponse(resp *HTTPTestResponse, expectedStatus int, expectedMessage string) {
	require.Equal(ctx.t, expectedStatus, resp.StatusCode)

	var errorResp map[string]interface{}
	err := json.Unmarshal(resp.Body, &errorResp)
	require.NoError(ctx.t, err)

	require.Contains(ctx.t, errorResp, "error")
	if expectedMessage != "" {
		require.Contains(ctx.t, errorResp["error"].(string), expectedMessage)
	}
}

// GetJSONField extracts a field from JSON response
func (ctx *HTTPTestContext) GetJSONField(resp *HTTPTestResponse, field string) interface{} {
	var data map[string]interface{}
	err := json.Unmarshal(resp.Body, &data)
	require.NoError(ctx.t, err)

	return data[field]
}

// GetResponseString returns the response body as string
func (resp *HTTPTestResponse) GetResponseString() string {
	return string(resp.Body)
}
