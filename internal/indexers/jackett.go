package indexers

import (
	"context"
	"encoding/json"
	"encoding/xml"
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

// JackettClient talks to Jackett instances over the Torznab API. One
// client serves every registered instance of the family; the instance
// record supplies base URL and API key per call.
type JackettClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logrus.Logger
}

// NewJackettClient creates a new Jackett adapter
func NewJackettClient(timeout time.Duration, rateLimitRequests, rateLimitWindow int, logger *logrus.Logger) *JackettClient {
	limiter := rate.NewLimiter(
		rate.Every(time.Duration(rateLimitWindow)*time.Second/time.Duration(rateLimitRequests)),
		rateLimitRequests,
	)

	return &JackettClient{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		logger:     logger,
	}
}

// torznabFeed models the RSS envelope of a Torznab search response.
type torznabFeed struct {
	Channel struct {
		Items []torznabItem `xml:"item"`
	} `xml:"channel"`
}

type torznabItem struct {
	Title    string        `xml:"title"`
	Link     string        `xml:"link"`
	GUID     string        `xml:"guid"`
	Comments string        `xml:"comments"`
	PubDate  string        `xml:"pubDate"`
	Size     string        `xml:"size"`
	Category string        `xml:"category"`
	Indexer  string        `xml:"jackettindexer"`
	Attrs    []torznabAttr `xml:"attr"`
}

type torznabAttr struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

func (i *torznabItem) attr(name string) (string, bool) {
	for _, a := range i.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// pubDateFormats are tried in order when parsing a Torznab pubDate.
var pubDateFormats = []string{
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
}

// Search runs one query against a Jackett instance's aggregate Torznab
// endpoint and converts each RSS item into a canonical result.
func (c *JackettClient) Search(ctx context.Context, instance *models.Instance, query, category string) ([]models.SearchResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("apikey", instance.APIKey)
	params.Set("t", "search")
	params.Set("q", query)
	if cat := categoryIDParam(category); cat != "" {
		params.Set("cat", cat)
	}

	req, err := c.createRequest(ctx, instance, "/api/v2.0/indexers/all/results/torznab/api?"+params.Encode())
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

	var feed torznabFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("failed to parse torznab response: %w", err)
	}

	results := make([]models.SearchResult, 0, len(feed.Channel.Items))
	for _, item := range feed.Channel.Items {
		result, ok := c.convertItem(instance, &item)
		if !ok {
			c.logger.Debugf("Skipping unparseable torznab item from %s", instance.Name)
			continue
		}
		results = append(results, *result)
	}

	c.logger.Debugf("Jackett instance %s returned %d results for %q", instance.Name, len(results), query)
	return results, nil
}

// convertItem maps one RSS item to a canonical result. Items without a
// title are dropped; every other field degrades to a zero value.
func (c *JackettClient) convertItem(instance *models.Instance, item *torznabItem) (*models.SearchResult, bool) {
	if item.Title == "" {
		return nil, false
	}

	var size int64
	if item.Size != "" {
		size, _ = strconv.ParseInt(strings.TrimSpace(item.Size), 10, 64)
	}
	if size == 0 {
		if v, ok := item.attr("size"); ok {
			size, _ = strconv.ParseInt(v, 10, 64)
		}
	}

	seeders := 0
	leechers := 0
	if v, ok := item.attr("seeders"); ok {
		seeders, _ = strconv.Atoi(v)
	}
	if v, ok := item.attr("peers"); ok {
		if peers, err := strconv.Atoi(v); err == nil && peers > seeders {
			leechers = peers - seeders
		}
	}

	var publishedAt *time.Time
	if s := strings.TrimSpace(item.PubDate); s != "" {
		for _, layout := range pubDateFormats {
			if t, err := time.Parse(layout, s); err == nil {
				publishedAt = &t
				break
			}
		}
	}

	category := "Other"
	if item.Category != "" {
		category = item.Category
	}

	indexer := item.Indexer
	if indexer == "" {
		indexer = "Unknown"
	}

	var magnetLink *string
	if v, ok := item.attr("magneturl"); ok && v != "" {
		magnetLink = &v
	}

	var torrentURL *string
	if item.Link != "" {
		link := item.Link
		torrentURL = &link
	}

	var infoURL *string
	if item.Comments != "" {
		infoURL = &item.Comments
	} else if item.GUID != "" {
		infoURL = &item.GUID
	}

	return &models.SearchResult{
		ID:            resultID(instance.Name, indexer, item.Title, strconv.FormatInt(size, 10)),
		Title:         item.Title,
		InstanceID:    instance.ID,
		InstanceKind:  string(models.InstanceKindJackett),
		InstanceName:  instance.Name,
		IndexerName:   indexer,
		SizeBytes:     size,
		SizeFormatted: models.FormatSize(size),
		Seeders:       seeders,
		Leechers:      leechers,
		PublishedAt:   publishedAt,
		Category:      category,
		MagnetLink:    magnetLink,
		TorrentURL:    torrentURL,
		InfoURL:       infoURL,
	}, true
}

// Probe checks connectivity with a Torznab caps call. All failure modes
// come back as an offline status, never as an error.
func (c *JackettClient) Probe(ctx context.Context, instance *models.Instance) *models.Status {
	if err := c.limiter.Wait(ctx); err != nil {
		return offline(err.Error())
	}

	params := url.Values{}
	params.Set("apikey", instance.APIKey)
	params.Set("t", "caps")

	req, err := c.createRequest(ctx, instance, "/api/v2.0/indexers/all/results/torznab/api?"+params.Encode())
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

// indexerCount returns the number of configured indexers, or nil when
// the listing endpoint is unavailable.
func (c *JackettClient) indexerCount(ctx context.Context, instance *models.Instance) *int {
	req, err := c.createRequest(ctx, instance, "/api/v2.0/indexers?apikey="+url.QueryEscape(instance.APIKey))
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
		Configured bool `json:"configured"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&indexers); err != nil {
		return nil
	}

	count := 0
	for _, idx := range indexers {
		if idx.Configured {
			count++
		}
	}
	return &count
}

// createRequest creates an HTTP request with proper headers
func (c *JackettClient) createRequest(ctx context.Context, instance *models.Instance, path string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(instance.URL, "/")+path, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", "Searcharr/1.0")
	return req, nil
}

// probeFailureMessage collapses transport errors into the short messages
// shown on status pages.
func probeFailureMessage(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "context deadline exceeded"), strings.Contains(msg, "Client.Timeout"):
		return "Connection timed out"
	case strings.Contains(msg, "connection refused"), strings.Contains(msg, "no such host"):
		return "Could not connect to server"
	default:
		return "Connection error: " + msg
	}
}
