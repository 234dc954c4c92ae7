package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sjafferali/searcharr/internal/indexers"
	"github.com/sjafferali/searcharr/internal/models"
)

type fakeInstanceRepo struct {
	kind      models.InstanceKind
	instances []*models.Instance
	listErr   error
}

func (r *fakeInstanceRepo) Create(ctx context.Context, payload *models.InstanceCreate) (*models.Instance, error) {
	return nil, fmt.Errorf("not implemented")
}

func (r *fakeInstanceRepo) GetByID(ctx context.Context, id int64) (*models.Instance, error) {
	for _, inst := range r.instances {
		if inst.ID == id {
			return inst, nil
		}
	}
	return nil, models.ErrInstanceNotFound
}

func (r *fakeInstanceRepo) Update(ctx context.Context, id int64, payload *models.InstanceUpdate) (*models.Instance, error) {
	return nil, fmt.Errorf("not implemented")
}

func (r *fakeInstanceRepo) Delete(ctx context.Context, id int64) error {
	return fmt.Errorf("not implemented")
}

func (r *fakeInstanceRepo) List(ctx context.Context) ([]*models.Instance, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.instances, nil
}

func (r *fakeInstanceRepo) Kind() models.InstanceKind {
	return r.kind
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func torznabResponse(titles ...string) string {
	items := ""
	for i, title := range titles {
		items += fmt.Sprintf(`
		<item>
			<title>%s</title>
			<link>http://example.com/dl/%d.torrent</link>
			<guid>http://example.com/details/%d</guid>
			<size>1073741824</size>
			<category>Movies</category>
			<jackettindexer>TestIndexer</jackettindexer>
			<torznab:attr name="seeders" value="42"/>
			<torznab:attr name="peers" value="50"/>
		</item>`, title, i, i)
	}
	return `<?xml version="1.0" encoding="UTF-8"?>
<rss xmlns:torznab="http://torznab.com/schemas/2015/feed">
	<channel>` + items + `
	</channel>
</rss>`
}

func prowlarrResponse(titles ...string) string {
	body := "["
	for i, title := range titles {
		if i > 0 {
			body += ","
		}
		body += fmt.Sprintf(`{
			"title": %q,
			"guid": "guid-%d",
			"size": 536870912,
			"seeders": 7,
			"leechers": 3,
			"indexer": "ProwlarrIndexer",
			"categories": [{"name": "Movies"}],
			"downloadUrl": "http://example.com/dl/%d"
		}`, title, i, i)
	}
	return body + "]"
}

func newTestAggregator(jackettRepo, prowlarrRepo *fakeInstanceRepo, monitor *indexers.HealthMonitor, timeout time.Duration) *Aggregator {
	logger := testLogger()
	return NewAggregator(
		jackettRepo, prowlarrRepo,
		indexers.NewJackettClient(10*time.Second, 100, 1, logger),
		indexers.NewProwlarrClient(10*time.Second, 100, 1, logger),
		monitor,
		timeout,
		logger,
	)
}

func jackettInstance(id int64, name, url string) *models.Instance {
	return &models.Instance{ID: id, Name: name, Kind: models.InstanceKindJackett, URL: url, APIKey: "key"}
}

func prowlarrInstance(id int64, name, url string) *models.Instance {
	return &models.Instance{ID: id, Name: name, Kind: models.InstanceKindProwlarr, URL: url, APIKey: "key"}
}

func TestSearch_MergesBothFamiliesInSelectionOrder(t *testing.T) {
	jackettSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, torznabResponse("jackett result"))
	}))
	defer jackettSrv.Close()

	prowlarrSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, prowlarrResponse("prowlarr result"))
	}))
	defer prowlarrSrv.Close()

	jackettRepo := &fakeInstanceRepo{kind: models.InstanceKindJackett, instances: []*models.Instance{
		jackettInstance(1, "jack-one", jackettSrv.URL),
	}}
	prowlarrRepo := &fakeInstanceRepo{kind: models.InstanceKindProwlarr, instances: []*models.Instance{
		prowlarrInstance(1, "prowl-one", prowlarrSrv.URL),
	}}

	agg := newTestAggregator(jackettRepo, prowlarrRepo, nil, 10*time.Second)

	resp, err := agg.Search(context.Background(), &models.SearchRequest{
		Query:     "ubuntu",
		SortBy:    models.SortBySeeders,
		SortOrder: models.SortOrderDesc,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, resp.SourcesQueried)
	assert.Empty(t, resp.Errors)
	require.Equal(t, 2, resp.TotalResults)
	assert.Equal(t, "jackett result", resp.Results[0].Title)
	assert.Equal(t, 42, resp.Results[0].Seeders)
	assert.Equal(t, "prowlarr result", resp.Results[1].Title)
	assert.Equal(t, "ProwlarrIndexer", resp.Results[1].IndexerName)
}

func TestSearch_SourceFailureDoesNotFailQuery(t *testing.T) {
	okSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, torznabResponse("good"))
	}))
	defer okSrv.Close()

	brokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer brokenSrv.Close()

	jackettRepo := &fakeInstanceRepo{kind: models.InstanceKindJackett, instances: []*models.Instance{
		jackettInstance(1, "healthy", okSrv.URL),
		jackettInstance(2, "broken", brokenSrv.URL),
	}}
	prowlarrRepo := &fakeInstanceRepo{kind: models.InstanceKindProwlarr}

	agg := newTestAggregator(jackettRepo, prowlarrRepo, nil, 10*time.Second)

	resp, err := agg.Search(context.Background(), &models.SearchRequest{Query: "ubuntu"})
	require.NoError(t, err)

	assert.Equal(t, 2, resp.SourcesQueried)
	assert.Equal(t, 1, resp.TotalResults)
	assert.Equal(t, "good", resp.Results[0].Title)
	require.Len(t, resp.Errors, 1)
	assert.Contains(t, resp.Errors[0], "Error searching broken")
}

func TestSearch_NoInstancesConfigured(t *testing.T) {
	agg := newTestAggregator(
		&fakeInstanceRepo{kind: models.InstanceKindJackett},
		&fakeInstanceRepo{kind: models.InstanceKindProwlarr},
		nil, 10*time.Second,
	)

	resp, err := agg.Search(context.Background(), &models.SearchRequest{Query: "ubuntu"})
	require.NoError(t, err)

	assert.Equal(t, 0, resp.SourcesQueried)
	assert.Equal(t, 0, resp.TotalResults)
	assert.NotNil(t, resp.Results)
	assert.Equal(t, []string{"No instances configured"}, resp.Errors)
}

func TestSearch_ExclusiveFilterOmitsUnlistedFamilies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, torznabResponse("jackett result"))
	}))
	defer srv.Close()

	jackettRepo := &fakeInstanceRepo{kind: models.InstanceKindJackett, instances: []*models.Instance{
		jackettInstance(1, "jack-one", srv.URL),
	}}
	prowlarrRepo := &fakeInstanceRepo{kind: models.InstanceKindProwlarr, instances: []*models.Instance{
		prowlarrInstance(1, "prowl-one", "http://127.0.0.1:1"),
	}}

	agg := newTestAggregator(jackettRepo, prowlarrRepo, nil, 10*time.Second)

	resp, err := agg.Search(context.Background(), &models.SearchRequest{
		Query:      "ubuntu",
		JackettIDs: []int64{1},
		Exclusive:  true,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, resp.SourcesQueried)
	assert.Empty(t, resp.Errors)
	assert.Equal(t, 1, resp.TotalResults)
}

func TestSearch_IDSelectionPicksSubset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, torznabResponse("result"))
	}))
	defer srv.Close()

	jackettRepo := &fakeInstanceRepo{kind: models.InstanceKindJackett, instances: []*models.Instance{
		jackettInstance(1, "first", srv.URL),
		jackettInstance(2, "second", srv.URL),
		jackettInstance(3, "third", srv.URL),
	}}
	prowlarrRepo := &fakeInstanceRepo{kind: models.InstanceKindProwlarr}

	agg := newTestAggregator(jackettRepo, prowlarrRepo, nil, 10*time.Second)

	resp, err := agg.Search(context.Background(), &models.SearchRequest{
		Query:      "ubuntu",
		JackettIDs: []int64{1, 3},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, resp.SourcesQueried)
}

func TestSearch_SlowSourceTimesOutOthersSurvive(t *testing.T) {
	fastSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, torznabResponse("fast"))
	}))
	defer fastSrv.Close()

	slowSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer slowSrv.Close()

	jackettRepo := &fakeInstanceRepo{kind: models.InstanceKindJackett, instances: []*models.Instance{
		jackettInstance(1, "fast", fastSrv.URL),
		jackettInstance(2, "slow", slowSrv.URL),
	}}
	prowlarrRepo := &fakeInstanceRepo{kind: models.InstanceKindProwlarr}

	agg := newTestAggregator(jackettRepo, prowlarrRepo, nil, 300*time.Millisecond)

	start := time.Now()
	resp, err := agg.Search(context.Background(), &models.SearchRequest{Query: "ubuntu"})
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 3*time.Second)
	assert.Equal(t, 2, resp.SourcesQueried)
	assert.Equal(t, 1, resp.TotalResults)
	require.Len(t, resp.Errors, 1)
	assert.Contains(t, resp.Errors[0], "slow")
	assert.Contains(t, resp.Errors[0], "timed out")
}

func TestSearch_KnownOfflineSourceIsSkipped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, torznabResponse("online result"))
	}))
	defer srv.Close()

	jackettRepo := &fakeInstanceRepo{kind: models.InstanceKindJackett, instances: []*models.Instance{
		jackettInstance(1, "online", srv.URL),
		jackettInstance(2, "down", "http://127.0.0.1:1"),
	}}
	prowlarrRepo := &fakeInstanceRepo{kind: models.InstanceKindProwlarr}

	logger := testLogger()
	store := indexers.NewMemoryStatusStore()
	store.Set(context.Background(), "jackett:2", &models.Status{
		Online:    false,
		Message:   "Connection refused",
		CheckedAt: time.Now(),
	}, time.Minute)

	monitor := indexers.NewHealthMonitor(
		jackettRepo, prowlarrRepo, nil,
		indexers.NewJackettClient(time.Second, 100, 1, logger),
		indexers.NewProwlarrClient(time.Second, 100, 1, logger),
		nil, store,
		time.Minute, time.Second, time.Minute,
		logger,
	)

	agg := newTestAggregator(jackettRepo, prowlarrRepo, monitor, 10*time.Second)

	resp, err := agg.Search(context.Background(), &models.SearchRequest{Query: "ubuntu"})
	require.NoError(t, err)

	assert.Equal(t, 1, resp.SourcesQueried)
	assert.Equal(t, 1, resp.TotalResults)
	require.Len(t, resp.Errors, 1)
	assert.Contains(t, resp.Errors[0], "Skipped down")
	assert.Contains(t, resp.Errors[0], "Connection refused")
}
