package indexers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sjafferali/searcharr/internal/fanout"
	"github.com/sjafferali/searcharr/internal/models"
	"github.com/sjafferali/searcharr/internal/repositories"
)

// ClientProber probes a download client backend. Implemented by the
// download client adapters; declared here so the monitor can cover both
// record families and clients without depending on their package.
type ClientProber interface {
	Probe(ctx context.Context, client *models.DownloadClient) *models.Status
}

// StatusBroadcaster receives online/offline transitions. Implemented by
// the websocket hub.
type StatusBroadcaster interface {
	BroadcastStatusChange(kind string, id int64, name string, status *models.Status)
}

// HealthMonitor derives online/offline statuses for every registered
// instance and download client. Statuses live in a TTL store and are
// recomputed on every probe; nothing here is the source of truth beyond
// the TTL window.
type HealthMonitor struct {
	jackettRepo  repositories.InstanceRepository
	prowlarrRepo repositories.InstanceRepository
	clientRepo   repositories.ClientRepository

	jackett      Adapter
	prowlarr     Adapter
	clientProber ClientProber

	store         StatusStore
	checkInterval time.Duration
	probeTimeout  time.Duration
	statusTTL     time.Duration

	broadcaster StatusBroadcaster

	logger   *logrus.Logger
	stopChan chan struct{}
	wg       sync.WaitGroup
	mu       sync.RWMutex
}

// NewHealthMonitor creates a new health monitor
func NewHealthMonitor(
	jackettRepo, prowlarrRepo repositories.InstanceRepository,
	clientRepo repositories.ClientRepository,
	jackett, prowlarr Adapter,
	clientProber ClientProber,
	store StatusStore,
	checkInterval, probeTimeout, statusTTL time.Duration,
	logger *logrus.Logger,
) *HealthMonitor {
	return &HealthMonitor{
		jackettRepo:   jackettRepo,
		prowlarrRepo:  prowlarrRepo,
		clientRepo:    clientRepo,
		jackett:       jackett,
		prowlarr:      prowlarr,
		clientProber:  clientProber,
		store:         store,
		checkInterval: checkInterval,
		probeTimeout:  probeTimeout,
		statusTTL:     statusTTL,
		logger:        logger,
		stopChan:      make(chan struct{}),
	}
}

// SetBroadcaster attaches a listener for status transitions
func (hm *HealthMonitor) SetBroadcaster(b StatusBroadcaster) {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	hm.broadcaster = b
}

// Start begins the periodic background probe loop
func (hm *HealthMonitor) Start(ctx context.Context) {
	hm.logger.Info("Starting health monitoring")

	hm.wg.Add(1)
	go hm.monitorLoop(ctx)
}

// Stop stops the background probe loop
func (hm *HealthMonitor) Stop() {
	hm.logger.Info("Stopping health monitoring")
	close(hm.stopChan)
	hm.wg.Wait()
}

func statusKey(kind string, id int64) string {
	return fmt.Sprintf("%s:%d", kind, id)
}

// ProbeInstance probes one indexer instance and caches the outcome. It
// never fails; every failure mode reads as offline.
func (hm *HealthMonitor) ProbeInstance(ctx context.Context, instance *models.Instance) *models.Status {
	probeCtx, cancel := context.WithTimeout(ctx, hm.probeTimeout)
	defer cancel()

	var status *models.Status
	switch instance.Kind {
	case models.InstanceKindJackett:
		status = hm.jackett.Probe(probeCtx, instance)
	case models.InstanceKindProwlarr:
		status = hm.prowlarr.Probe(probeCtx, instance)
	default:
		status = offline(fmt.Sprintf("unknown instance kind %q", instance.Kind))
	}

	hm.record(ctx, string(instance.Kind), instance.ID, instance.Name, status)
	return status
}

// ProbeClient probes one download client and caches the outcome.
func (hm *HealthMonitor) ProbeClient(ctx context.Context, client *models.DownloadClient) *models.Status {
	probeCtx, cancel := context.WithTimeout(ctx, hm.probeTimeout)
	defer cancel()

	status := hm.clientProber.Probe(probeCtx, client)
	hm.record(ctx, "client", client.ID, client.Name, status)
	return status
}

// record stores a probe outcome and notifies the broadcaster on
// online/offline transitions.
func (hm *HealthMonitor) record(ctx context.Context, kind string, id int64, name string, status *models.Status) {
	key := statusKey(kind, id)
	previous, had := hm.store.Get(ctx, key)
	hm.store.Set(ctx, key, status, hm.statusTTL)

	if !status.Online {
		hm.logger.Warnf("%s %q is offline: %s", kind, name, status.Message)
	} else {
		hm.logger.Debugf("%s %q is online", kind, name)
	}

	hm.mu.RLock()
	broadcaster := hm.broadcaster
	hm.mu.RUnlock()
	if broadcaster != nil && (!had || previous.Online != status.Online) {
		broadcaster.BroadcastStatusChange(kind, id, name, status)
	}
}

// CachedInstanceStatus returns the cached status of an instance without
// probing. False means no status younger than the TTL exists.
func (hm *HealthMonitor) CachedInstanceStatus(ctx context.Context, kind models.InstanceKind, id int64) (*models.Status, bool) {
	return hm.store.Get(ctx, statusKey(string(kind), id))
}

// CachedClientStatus returns the cached status of a download client.
func (hm *HealthMonitor) CachedClientStatus(ctx context.Context, id int64) (*models.Status, bool) {
	return hm.store.Get(ctx, statusKey("client", id))
}

// FreshClientStatus returns a status no older than maxAge, re-probing
// when the cached one is missing or too stale. Dispatch decisions go
// through here so they never trust indefinitely stale data.
func (hm *HealthMonitor) FreshClientStatus(ctx context.Context, client *models.DownloadClient, maxAge time.Duration) *models.Status {
	if status, ok := hm.CachedClientStatus(ctx, client.ID); ok && time.Since(status.CheckedAt) <= maxAge {
		return status
	}
	return hm.ProbeClient(ctx, client)
}

// RefreshAll probes every registered instance and client concurrently.
// Each probe is bounded by its own timeout; one hung backend cannot
// delay the rest.
func (hm *HealthMonitor) RefreshAll(ctx context.Context) {
	type probe func(ctx context.Context)

	var probes []probe

	for _, repo := range []repositories.InstanceRepository{hm.jackettRepo, hm.prowlarrRepo} {
		instances, err := repo.List(ctx)
		if err != nil {
			hm.logger.Errorf("Failed to list %s instances for health check: %v", repo.Kind(), err)
			continue
		}
		for _, instance := range instances {
			instance := instance
			probes = append(probes, func(ctx context.Context) { hm.ProbeInstance(ctx, instance) })
		}
	}

	clients, err := hm.clientRepo.List(ctx)
	if err != nil {
		hm.logger.Errorf("Failed to list download clients for health check: %v", err)
	} else {
		for _, client := range clients {
			client := client
			probes = append(probes, func(ctx context.Context) { hm.ProbeClient(ctx, client) })
		}
	}

	collectCtx, cancel := context.WithTimeout(ctx, hm.probeTimeout+2*time.Second)
	defer cancel()

	fanout.Collect(collectCtx, len(probes), func(ctx context.Context, i int) (struct{}, error) {
		probes[i](ctx)
		return struct{}{}, nil
	})

	hm.logger.Debugf("Completed health checks for %d targets", len(probes))
}

// InstanceStatuses returns the status of every registered instance of
// both families. Cached statuses are used where available; the rest are
// probed concurrently.
func (hm *HealthMonitor) InstanceStatuses(ctx context.Context) (*models.AllInstancesStatus, error) {
	jackett, err := hm.statusesForFamily(ctx, hm.jackettRepo)
	if err != nil {
		return nil, err
	}
	prowlarr, err := hm.statusesForFamily(ctx, hm.prowlarrRepo)
	if err != nil {
		return nil, err
	}

	totalOnline := 0
	for _, s := range jackett {
		if s.Status.Online {
			totalOnline++
		}
	}
	for _, s := range prowlarr {
		if s.Status.Online {
			totalOnline++
		}
	}

	return &models.AllInstancesStatus{
		Jackett:     jackett,
		Prowlarr:    prowlarr,
		TotalOnline: totalOnline,
	}, nil
}

func (hm *HealthMonitor) statusesForFamily(ctx context.Context, repo repositories.InstanceRepository) ([]models.InstanceStatus, error) {
	instances, err := repo.List(ctx)
	if err != nil {
		return nil, err
	}

	collectCtx, cancel := context.WithTimeout(ctx, hm.probeTimeout+2*time.Second)
	defer cancel()

	results := fanout.Collect(collectCtx, len(instances), func(ctx context.Context, i int) (*models.Status, error) {
		if status, ok := hm.CachedInstanceStatus(ctx, instances[i].Kind, instances[i].ID); ok {
			return status, nil
		}
		return hm.ProbeInstance(ctx, instances[i]), nil
	})

	statuses := make([]models.InstanceStatus, len(instances))
	for i, instance := range instances {
		status := results[i].Value
		if results[i].Err != nil || status == nil {
			status = offline("Status check timed out")
		}
		statuses[i] = models.InstanceStatus{ID: instance.ID, Name: instance.Name, Status: *status}
	}
	return statuses, nil
}

// ClientStatuses returns the status of every registered download client.
func (hm *HealthMonitor) ClientStatuses(ctx context.Context) ([]models.ClientStatus, error) {
	clients, err := hm.clientRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	collectCtx, cancel := context.WithTimeout(ctx, hm.probeTimeout+2*time.Second)
	defer cancel()

	results := fanout.Collect(collectCtx, len(clients), func(ctx context.Context, i int) (*models.Status, error) {
		if status, ok := hm.CachedClientStatus(ctx, clients[i].ID); ok {
			return status, nil
		}
		return hm.ProbeClient(ctx, clients[i]), nil
	})

	statuses := make([]models.ClientStatus, len(clients))
	for i, client := range clients {
		status := results[i].Value
		if results[i].Err != nil || status == nil {
			status = offline("Status check timed out")
		}
		statuses[i] = models.ClientStatus{ID: client.ID, Name: client.Name, Status: *status}
	}
	return statuses, nil
}

// monitorLoop runs the periodic health check loop
func (hm *HealthMonitor) monitorLoop(ctx context.Context) {
	defer hm.wg.Done()

	ticker := time.NewTicker(hm.checkInterval)
	defer ticker.Stop()

	hm.RefreshAll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hm.stopChan:
			return
		case <-ticker.C:
			hm.RefreshAll(ctx)
		}
	}
}
