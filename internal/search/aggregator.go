package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sjafferali/searcharr/internal/fanout"
	"github.com/sjafferali/searcharr/internal/indexers"
	"github.com/sjafferali/searcharr/internal/models"
	"github.com/sjafferali/searcharr/internal/repositories"
)

// Aggregator fans a query out across every selected indexer instance,
// collecting results and per-source errors independently so one broken
// instance never fails the whole search.
type Aggregator struct {
	jackettRepo  repositories.InstanceRepository
	prowlarrRepo repositories.InstanceRepository
	jackett      indexers.Adapter
	prowlarr     indexers.Adapter
	monitor      *indexers.HealthMonitor
	timeout      time.Duration
	logger       *logrus.Logger
}

func NewAggregator(
	jackettRepo, prowlarrRepo repositories.InstanceRepository,
	jackett, prowlarr indexers.Adapter,
	monitor *indexers.HealthMonitor,
	timeout time.Duration,
	logger *logrus.Logger,
) *Aggregator {
	return &Aggregator{
		jackettRepo:  jackettRepo,
		prowlarrRepo: prowlarrRepo,
		jackett:      jackett,
		prowlarr:     prowlarr,
		monitor:      monitor,
		timeout:      timeout,
		logger:       logger,
	}
}

// source pairs an instance with the adapter that speaks its protocol.
type source struct {
	instance *models.Instance
	adapter  indexers.Adapter
}

// Search runs the query against every selected instance under a shared
// deadline and returns the concatenated results in source selection
// order, filtered and sorted per the request. It never returns an error
// for source failures; those surface as entries in the response Errors
// slice.
func (a *Aggregator) Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error) {
	resp := &models.SearchResponse{
		Query:    req.Query,
		Category: req.Category,
		Results:  []models.SearchResult{},
		Errors:   []string{},
	}

	sources, selectErrs, err := a.selectSources(ctx, req)
	if err != nil {
		return nil, err
	}
	resp.Errors = append(resp.Errors, selectErrs...)

	if len(sources) == 0 {
		if len(resp.Errors) == 0 {
			resp.Errors = append(resp.Errors, "No instances configured")
		}
		return resp, nil
	}

	resp.SourcesQueried = len(sources)

	searchCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	outcomes := fanout.Collect(searchCtx, len(sources), func(taskCtx context.Context, i int) ([]models.SearchResult, error) {
		src := sources[i]
		a.logger.Debugf("Searching %s instance %s for %q", src.instance.Kind, src.instance.Name, req.Query)
		return src.adapter.Search(taskCtx, src.instance, req.Query, req.Category)
	})

	for i, outcome := range outcomes {
		name := sources[i].instance.Name
		if outcome.Err != nil {
			if errors.Is(outcome.Err, context.DeadlineExceeded) {
				resp.Errors = append(resp.Errors, fmt.Sprintf("Error searching %s: timed out", name))
			} else {
				resp.Errors = append(resp.Errors, fmt.Sprintf("Error searching %s: %v", name, outcome.Err))
			}
			a.logger.Warnf("Search against %s failed: %v", name, outcome.Err)
			continue
		}
		resp.Results = append(resp.Results, outcome.Value...)
	}

	resp.Results = ApplyFilters(resp.Results, req.Category, req.MinSeeders, req.MaxSize)
	SortResults(resp.Results, req.SortBy, req.SortOrder)
	resp.TotalResults = len(resp.Results)
	return resp, nil
}

// selectSources resolves the request's instance selection against both
// families. Instances the health monitor knows to be offline are skipped
// up front, each contributing an error entry instead of a query. Listing
// repositories is the only fallible step; it returns an error because a
// failing database is not a per-source condition.
func (a *Aggregator) selectSources(ctx context.Context, req *models.SearchRequest) ([]source, []string, error) {
	var sources []source
	var errs []string

	jackett, err := a.pickInstances(ctx, a.jackettRepo, req.JackettIDs, req.Exclusive)
	if err != nil {
		return nil, nil, fmt.Errorf("listing jackett instances: %w", err)
	}
	prowlarr, err := a.pickInstances(ctx, a.prowlarrRepo, req.ProwlarrIDs, req.Exclusive)
	if err != nil {
		return nil, nil, fmt.Errorf("listing prowlarr instances: %w", err)
	}

	for _, inst := range jackett {
		if msg, offline := a.knownOffline(ctx, inst); offline {
			errs = append(errs, fmt.Sprintf("Skipped %s: %s", inst.Name, msg))
			continue
		}
		sources = append(sources, source{instance: inst, adapter: a.jackett})
	}
	for _, inst := range prowlarr {
		if msg, offline := a.knownOffline(ctx, inst); offline {
			errs = append(errs, fmt.Sprintf("Skipped %s: %s", inst.Name, msg))
			continue
		}
		sources = append(sources, source{instance: inst, adapter: a.prowlarr})
	}
	return sources, errs, nil
}

// pickInstances applies the selection semantics for one family. With
// exclusive off, a nil id list means every instance; with exclusive on,
// a nil list means none at all.
func (a *Aggregator) pickInstances(ctx context.Context, repo repositories.InstanceRepository, ids []int64, exclusive bool) ([]*models.Instance, error) {
	if ids == nil && exclusive {
		return nil, nil
	}
	all, err := repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		return all, nil
	}
	wanted := make(map[int64]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	picked := make([]*models.Instance, 0, len(ids))
	for _, inst := range all {
		if wanted[inst.ID] {
			picked = append(picked, inst)
		}
	}
	return picked, nil
}

// knownOffline consults the cached status only. An unknown or expired
// status does not disqualify a source; the query itself will find out.
func (a *Aggregator) knownOffline(ctx context.Context, inst *models.Instance) (string, bool) {
	if a.monitor == nil {
		return "", false
	}
	status, ok := a.monitor.CachedInstanceStatus(ctx, inst.Kind, inst.ID)
	if !ok || status.Online {
		return "", false
	}
	msg := status.Message
	if msg == "" {
		msg = "instance is offline"
	}
	return msg, true
}
