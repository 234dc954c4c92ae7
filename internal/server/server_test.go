package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sjafferali/searcharr/internal/config"
	"github.com/sjafferali/searcharr/internal/database"
	"github.com/sjafferali/searcharr/internal/indexers"
	"github.com/sjafferali/searcharr/internal/models"
	"github.com/sjafferali/searcharr/internal/services"
	"github.com/sjafferali/searcharr/internal/testutil"
)

// newTestHarness wires the full router over an in-memory database and
// the in-process status store. The background monitor is never started,
// so handlers that probe do so on demand only.
func newTestHarness(t *testing.T) *testutil.HTTPTestContext {
	t.Helper()

	cfg := &config.Config{Environment: "production"}
	cfg.Log.Level = "error"
	cfg.Search.TimeoutSeconds = 5
	cfg.Search.RateLimitRequests = 100
	cfg.Search.RateLimitWindow = 1
	cfg.Health.CheckIntervalSeconds = 60
	cfg.Health.ProbeTimeoutSeconds = 2
	cfg.Health.StatusTTLSeconds = 90
	cfg.Dispatch.TimeoutSeconds = 5
	cfg.Dispatch.FreshnessSeconds = 30

	db := &database.DB{DB: testutil.SetupInMemoryDB(t)}
	container := services.NewContainer(db, indexers.NewMemoryStatusStore(), cfg)

	harness := testutil.NewHTTPTestContext(t)
	harness.Router = NewHTTPServer(cfg, container).router
	return harness
}

func TestHealthEndpoints(t *testing.T) {
	harness := newTestHarness(t)

	resp := harness.MakeRequest(testutil.HTTPTestRequest{Method: http.MethodGet, Path: "/health"})
	var health map[string]interface{}
	harness.AssertJSONResponse(resp, http.StatusOK, &health)
	assert.Equal(t, "healthy", health["status"])

	resp = harness.MakeRequest(testutil.HTTPTestRequest{Method: http.MethodGet, Path: "/health/ready"})
	var ready map[string]interface{}
	harness.AssertJSONResponse(resp, http.StatusOK, &ready)
	assert.Equal(t, true, ready["ready"])
}

func TestSearchValidation(t *testing.T) {
	harness := newTestHarness(t)

	resp := harness.MakeRequest(testutil.HTTPTestRequest{Method: http.MethodGet, Path: "/api/v1/search"})
	harness.AssertErrorResponse(resp, http.StatusBadRequest, "Query parameter 'q' is required")

	resp = harness.MakeRequest(testutil.HTTPTestRequest{
		Method: http.MethodGet, Path: "/api/v1/search",
		QueryParams: map[string]string{"q": "ubuntu", "category": "Cooking"},
	})
	harness.AssertErrorResponse(resp, http.StatusBadRequest, "Unknown category")

	resp = harness.MakeRequest(testutil.HTTPTestRequest{
		Method: http.MethodGet, Path: "/api/v1/search",
		QueryParams: map[string]string{"q": "ubuntu", "sort_by": "popularity"},
	})
	harness.AssertErrorResponse(resp, http.StatusBadRequest, "Invalid sort_by")
}

func TestSearchWithoutInstances(t *testing.T) {
	harness := newTestHarness(t)

	resp := harness.MakeRequest(testutil.HTTPTestRequest{
		Method: http.MethodGet, Path: "/api/v1/search",
		QueryParams: map[string]string{"q": "ubuntu"},
	})

	var body models.SearchResponse
	harness.AssertJSONResponse(resp, http.StatusOK, &body)
	assert.Equal(t, 0, body.TotalResults)
	assert.Equal(t, 0, body.SourcesQueried)
	assert.Equal(t, []string{"No instances configured"}, body.Errors)
}

func TestSearchCategoriesEndpoint(t *testing.T) {
	harness := newTestHarness(t)

	resp := harness.MakeRequest(testutil.HTTPTestRequest{Method: http.MethodGet, Path: "/api/v1/search/categories"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	categories, ok := harness.GetJSONField(resp, "categories").([]interface{})
	require.True(t, ok)
	assert.Contains(t, categories, "All")
	assert.Contains(t, categories, "Movies")
	assert.Contains(t, categories, "Anime")
}

func TestDownloadValidation(t *testing.T) {
	harness := newTestHarness(t)

	// A request carrying neither link form is rejected before any
	// client lookup happens.
	resp := harness.MakeRequest(testutil.HTTPTestRequest{
		Method: http.MethodPost, Path: "/api/v1/download",
		Body: map[string]interface{}{"client_id": 1},
	})
	harness.AssertErrorResponse(resp, http.StatusBadRequest, "Either magnet_link or torrent_url is required")

	resp = harness.MakeRequest(testutil.HTTPTestRequest{
		Method: http.MethodPost, Path: "/api/v1/download",
		Body: map[string]interface{}{"client_id": 999, "magnet_link": "magnet:?xt=urn:btih:abc"},
	})
	harness.AssertErrorResponse(resp, http.StatusNotFound, "")
}

func TestInstanceLifecycleOverHTTP(t *testing.T) {
	harness := newTestHarness(t)

	resp := harness.MakeRequest(testutil.HTTPTestRequest{
		Method: http.MethodPost, Path: "/api/v1/instances/jackett",
		Body: map[string]string{
			"name":    "main",
			"url":     "http://jackett.local:9117",
			"api_key": "0123456789abcdef",
		},
	})
	var created models.InstanceResponse
	harness.AssertJSONResponse(resp, http.StatusCreated, &created)
	assert.Equal(t, models.InstanceKindJackett, created.Kind)
	assert.Equal(t, "0123...cdef", created.APIKeyMasked)

	// Duplicate names are rejected per family.
	resp = harness.MakeRequest(testutil.HTTPTestRequest{
		Method: http.MethodPost, Path: "/api/v1/instances/jackett",
		Body: map[string]string{"name": "main", "url": "http://other:9117", "api_key": "k"},
	})
	harness.AssertErrorResponse(resp, http.StatusConflict, "already exists")

	resp = harness.MakeRequest(testutil.HTTPTestRequest{Method: http.MethodGet, Path: "/api/v1/instances/jackett"})
	var listed []models.InstanceResponse
	harness.AssertJSONResponse(resp, http.StatusOK, &listed)
	require.Len(t, listed, 1)

	resp = harness.MakeRequest(testutil.HTTPTestRequest{
		Method: http.MethodPut, Path: "/api/v1/instances/jackett/1",
		Body: map[string]string{"name": "renamed"},
	})
	var updated models.InstanceResponse
	harness.AssertJSONResponse(resp, http.StatusOK, &updated)
	assert.Equal(t, "renamed", updated.Name)
	assert.Equal(t, "0123...cdef", updated.APIKeyMasked)

	resp = harness.MakeRequest(testutil.HTTPTestRequest{Method: http.MethodDelete, Path: "/api/v1/instances/jackett/1"})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = harness.MakeRequest(testutil.HTTPTestRequest{Method: http.MethodGet, Path: "/api/v1/instances/jackett/1"})
	harness.AssertErrorResponse(resp, http.StatusNotFound, "Instance not found")
}

func TestInstanceStatusesEmpty(t *testing.T) {
	harness := newTestHarness(t)

	resp := harness.MakeRequest(testutil.HTTPTestRequest{Method: http.MethodGet, Path: "/api/v1/instances/status"})
	var statuses models.AllInstancesStatus
	harness.AssertJSONResponse(resp, http.StatusOK, &statuses)
	assert.Equal(t, 0, statuses.TotalOnline)
	assert.Empty(t, statuses.Jackett)
	assert.Empty(t, statuses.Prowlarr)
}

func TestClientCreateAndListOverHTTP(t *testing.T) {
	harness := newTestHarness(t)

	resp := harness.MakeRequest(testutil.HTTPTestRequest{
		Method: http.MethodPost, Path: "/api/v1/clients",
		Body: map[string]string{
			"name":     "seedbox",
			"url":      "http://qbit.local:8080",
			"username": "admin",
			"password": "hunter2",
		},
	})
	var created models.ClientResponse
	harness.AssertJSONResponse(resp, http.StatusCreated, &created)
	assert.Equal(t, models.ClientKindQBittorrent, created.Kind)

	// Credentials never appear in read representations.
	assert.NotContains(t, resp.GetResponseString(), "hunter2")
	assert.NotContains(t, resp.GetResponseString(), "admin")

	resp = harness.MakeRequest(testutil.HTTPTestRequest{Method: http.MethodGet, Path: "/api/v1/clients"})
	var listed []models.ClientResponse
	harness.AssertJSONResponse(resp, http.StatusOK, &listed)
	require.Len(t, listed, 1)
	assert.Equal(t, "seedbox", listed[0].Name)
}
