package indexers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/sjafferali/searcharr/internal/models"
)

// ProwlarrClient talks to Prowlarr instances over their JSON API.
type ProwlarrClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logrus.Logger
}

// NewProwlarrClient creates a new Prowlarr adapter
func NewProwlarrClient(timeout time.Duration, rateLimitRequests, rateLimitWindow int, logger *logrus.Logger) *ProwlarrClient {
	limiter := rate.NewLimiter(
		rate.Every(time.Duration(rateLimitWindow)*time.Second/time.Duration(rateLimitRequests)),
		rateLimitRequests,
	)

	return &ProwlarrClient{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		logger:     logger,
	}
}

type prowlarrItem struct {
	Title       string `json:"title"`
	Size        int64  `json:"size"`
	Seeders     int    `json:"seeders"`
	Leechers    int    `json:"leechers"`
	PublishDate string `json:"publishDate"`
	Categories  []struct {
		Name string `json:"name"`
	} `json:"categories"`
	Indexer     string `json:"indexer"`
	MagnetURL   string `json:"magnetUrl"`
	DownloadURL string `json:"downloadUrl"`
	InfoURL     string `json:"infoUrl"`
	GUID        string `json:"guid"`
}

// Search runs one query against a Prowlarr instance and converts each
// item into a canonical result.
func (c *ProwlarrClient) Search(ctx context.Context, instance *models.Instance, query, category string) ([]models.SearchResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("type", "search")
	for _, id := range CategoryIDs(category) {
		params.Add("categories", strconv.Itoa(id))
	}

	req, err := c.createRequest(ctx, instance, "/api/v1/search?"+params.Encode())
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search failed with HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var items []prowlarrItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	results := make([]models.SearchResult, 0, len(items))
	for _, item := range items {
		result, ok := c.convertItem(instance, &item)
		if !ok {
			c.logger.Debugf("Skipping unparseable prowlarr item from %s", instance.Name)
			continue
		}
		results = append(results, *result)
	}

	c.logger.Debugf("Prowlarr instance %s returned %d results for %q", instance.Name, len(results), query)
	return results, nil
}

func (c *ProwlarrClient) convertItem(instance *models.Instance, item *prowlarrItem) (*models.SearchResult, bool) {
	if item.Title == "" {
		return nil, false
	}

	var publishedAt *time.Time
	if item.PublishDate != "" {
		if t, err := time.Parse(time.RFC3339, item.PublishDate); err == nil {
			publishedAt = &t
		}
	}

	category := "Other"
	if len(item.Categories) > 0 && item.Categories[0].Name != "" {
		category = item.Categories[0].Name
	}

	indexer := item.Indexer
	if indexer == "" {
		indexer = "Unknown"
	}

	var magnetLink, torrentURL, infoURL *string
	if item.MagnetURL != "" {
		magnetLink = &item.MagnetURL
	}
	if item.DownloadURL != "" {
		torrentURL = &item.DownloadURL
	}
	if item.InfoURL != "" {
		infoURL = &item.InfoURL
	} else if item.GUID != "" {
		infoURL = &item.GUID
	}

	leechers := item.Leechers
	if leechers < 0 {
		leechers = 0
	}

	return &models.SearchResult{
		ID:            resultID(instance.Name, indexer, item.GUID, item.Title),
		Title:         item.Title,
		InstanceID:    instance.ID,
		InstanceKind:  string(models.InstanceKindProwlarr),
		InstanceName:  instance.Name,
		IndexerName:   indexer,
		SizeBytes:     item.Size,
		SizeFormatted: models.FormatSize(item.Size),
		Seeders:       item.Seeders,
		Leechers:      leechers,
		PublishedAt:   publishedAt,
		Category:      category,
		MagnetLink:    magnetLink,
		TorrentURL:    torrentURL,
		InfoURL:       infoURL,
	}, true
}

// Probe checks connectivity via the system status endpoint. A 401 means
// the server is reachable but the key is wrong; both read as offline.
func (c *ProwlarrClient) Probe(ctx context.Context, instance *models.Instance) *models.Status {
	if err := c.limiter.Wait(ctx); err != nil {
		return offline(err.Error())
	}

	req, err := c.createRequest(ctx, instance, "/api/v1/system/status")
	if err != nil {
		return offline(err.Error())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return offline(probeFailureMessage(err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return offline("Invalid API key")
	case resp.StatusCode != http.StatusOK:
		return offline(fmt.Sprintf("Connection failed: HTTP %d", resp.StatusCode))
	}

	return online("Connection successful", c.indexerCount(ctx, instance))
}

// indexerCount returns the number of enabled indexers, or nil when the
// listing endpoint is unavailable.
func (c *ProwlarrClient) indexerCount(ctx context.Context, instance *models.Instance) *int {
	req, err := c.createRequest(ctx, instance, "/api/v1/indexer")
	if err != nil {
		return nil
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var indexers []struct {
		Enable bool `json:"enable"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&indexers); err != nil {
		return nil
	}

	count := 0
	for _, idx := range indexers {
		if idx.Enable {
			count++
		}
	}
	return &count
}

// createRequest creates an HTTP request with the API key header set
func (c *ProwlarrClient) createRequest(ctx context.Context, instance *models.Instance, path string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(instance.URL, "/")+path, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("X-Api-Key", instance.APIKey)
	req.Header.Set("User-Agent", "Searcharr/1.0")
	return req, nil
}
