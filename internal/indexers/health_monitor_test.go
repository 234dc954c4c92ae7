package indexers

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sjafferali/searcharr/internal/models"
	"github.com/sjafferali/searcharr/internal/repositories"
)

type stubInstanceRepo struct {
	kind      models.InstanceKind
	instances []*models.Instance
}

func (r *stubInstanceRepo) Create(ctx context.Context, payload *models.InstanceCreate) (*models.Instance, error) {
	return nil, fmt.Errorf("not implemented")
}

func (r *stubInstanceRepo) GetByID(ctx context.Context, id int64) (*models.Instance, error) {
	for _, inst := range r.instances {
		if inst.ID == id {
			return inst, nil
		}
	}
	return nil, models.ErrInstanceNotFound
}

func (r *stubInstanceRepo) Update(ctx context.Context, id int64, payload *models.InstanceUpdate) (*models.Instance, error) {
	return nil, fmt.Errorf("not implemented")
}

func (r *stubInstanceRepo) Delete(ctx context.Context, id int64) error {
	return fmt.Errorf("not implemented")
}

func (r *stubInstanceRepo) List(ctx context.Context) ([]*models.Instance, error) {
	return r.instances, nil
}

func (r *stubInstanceRepo) Kind() models.InstanceKind {
	return r.kind
}

type stubClientRepo struct {
	clients []*models.DownloadClient
}

func (r *stubClientRepo) Create(ctx context.Context, payload *models.ClientCreate) (*models.DownloadClient, error) {
	return nil, fmt.Errorf("not implemented")
}

func (r *stubClientRepo) GetByID(ctx context.Context, id int64) (*models.DownloadClient, error) {
	for _, c := range r.clients {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, models.ErrClientNotFound
}

func (r *stubClientRepo) Update(ctx context.Context, id int64, payload *models.ClientUpdate) (*models.DownloadClient, error) {
	return nil, fmt.Errorf("not implemented")
}

func (r *stubClientRepo) Delete(ctx context.Context, id int64) error {
	return fmt.Errorf("not implemented")
}

func (r *stubClientRepo) List(ctx context.Context) ([]*models.DownloadClient, error) {
	return r.clients, nil
}

// stubAdapter serves as both instance adapter and client prober
type stubAdapter struct {
	mu          sync.Mutex
	online      bool
	message     string
	probeCalls  int
	searchCalls int
}

func (a *stubAdapter) Search(ctx context.Context, instance *models.Instance, query, category string) ([]models.SearchResult, error) {
	a.mu.Lock()
	a.searchCalls++
	a.mu.Unlock()
	return nil, nil
}

func (a *stubAdapter) Probe(ctx context.Context, instance *models.Instance) *models.Status {
	a.mu.Lock()
	a.probeCalls++
	a.mu.Unlock()
	return &models.Status{Online: a.online, Message: a.message, CheckedAt: time.Now()}
}

func (a *stubAdapter) ProbeClient(ctx context.Context, client *models.DownloadClient) *models.Status {
	return a.Probe(ctx, nil)
}

func (a *stubAdapter) probes() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.probeCalls
}

// clientProberFunc adapts a function to the ClientProber interface
type clientProberFunc func(ctx context.Context, client *models.DownloadClient) *models.Status

func (f clientProberFunc) Probe(ctx context.Context, client *models.DownloadClient) *models.Status {
	return f(ctx, client)
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []string
}

func (b *recordingBroadcaster) BroadcastStatusChange(kind string, id int64, name string, status *models.Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, fmt.Sprintf("%s:%d:%v", kind, id, status.Online))
}

func (b *recordingBroadcaster) all() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.events...)
}

func newTestMonitor(jackettRepo, prowlarrRepo repositories.InstanceRepository, clientRepo repositories.ClientRepository, adapter *stubAdapter, prober ClientProber) *HealthMonitor {
	if prober == nil {
		prober = clientProberFunc(adapter.ProbeClient)
	}
	return NewHealthMonitor(
		jackettRepo, prowlarrRepo, clientRepo,
		adapter, adapter,
		prober,
		NewMemoryStatusStore(),
		time.Minute, time.Second, time.Minute,
		testLogger(),
	)
}

func TestProbeInstance_CachesStatus(t *testing.T) {
	adapter := &stubAdapter{online: true, message: "ok"}
	jackettRepo := &stubInstanceRepo{kind: models.InstanceKindJackett}
	monitor := newTestMonitor(jackettRepo, &stubInstanceRepo{kind: models.InstanceKindProwlarr}, &stubClientRepo{}, adapter, nil)

	instance := &models.Instance{ID: 7, Name: "home", Kind: models.InstanceKindJackett}
	status := monitor.ProbeInstance(context.Background(), instance)
	assert.True(t, status.Online)

	cached, ok := monitor.CachedInstanceStatus(context.Background(), models.InstanceKindJackett, 7)
	require.True(t, ok)
	assert.True(t, cached.Online)
	assert.Equal(t, "ok", cached.Message)
}

func TestBroadcastOnlyOnTransition(t *testing.T) {
	adapter := &stubAdapter{online: true, message: "ok"}
	monitor := newTestMonitor(&stubInstanceRepo{kind: models.InstanceKindJackett}, &stubInstanceRepo{kind: models.InstanceKindProwlarr}, &stubClientRepo{}, adapter, nil)

	broadcaster := &recordingBroadcaster{}
	monitor.SetBroadcaster(broadcaster)

	instance := &models.Instance{ID: 1, Name: "home", Kind: models.InstanceKindJackett}
	ctx := context.Background()

	// First probe always broadcasts, repeat with same outcome does not
	monitor.ProbeInstance(ctx, instance)
	monitor.ProbeInstance(ctx, instance)
	assert.Equal(t, []string{"jackett:1:true"}, broadcaster.all())

	// Transition to offline broadcasts again
	adapter.online = false
	adapter.message = "down"
	monitor.ProbeInstance(ctx, instance)
	assert.Equal(t, []string{"jackett:1:true", "jackett:1:false"}, broadcaster.all())
}

func TestFreshClientStatus_UsesCacheWithinWindow(t *testing.T) {
	probeCount := 0
	prober := clientProberFunc(func(ctx context.Context, client *models.DownloadClient) *models.Status {
		probeCount++
		return &models.Status{Online: true, Message: "ok", CheckedAt: time.Now()}
	})

	adapter := &stubAdapter{online: true}
	monitor := newTestMonitor(&stubInstanceRepo{kind: models.InstanceKindJackett}, &stubInstanceRepo{kind: models.InstanceKindProwlarr}, &stubClientRepo{}, adapter, prober)

	client := &models.DownloadClient{ID: 3, Name: "qbt"}
	ctx := context.Background()

	monitor.FreshClientStatus(ctx, client, 30*time.Second)
	monitor.FreshClientStatus(ctx, client, 30*time.Second)
	assert.Equal(t, 1, probeCount)

	// A zero freshness window forces a re-probe
	monitor.FreshClientStatus(ctx, client, 0)
	assert.Equal(t, 2, probeCount)
}

func TestRefreshAll_ProbesEverything(t *testing.T) {
	adapter := &stubAdapter{online: true, message: "ok"}
	jackettRepo := &stubInstanceRepo{kind: models.InstanceKindJackett, instances: []*models.Instance{
		{ID: 1, Name: "j1", Kind: models.InstanceKindJackett},
		{ID: 2, Name: "j2", Kind: models.InstanceKindJackett},
	}}
	prowlarrRepo := &stubInstanceRepo{kind: models.InstanceKindProwlarr, instances: []*models.Instance{
		{ID: 1, Name: "p1", Kind: models.InstanceKindProwlarr},
	}}
	clientRepo := &stubClientRepo{clients: []*models.DownloadClient{
		{ID: 1, Name: "qbt"},
	}}

	monitor := newTestMonitor(jackettRepo, prowlarrRepo, clientRepo, adapter, nil)
	monitor.RefreshAll(context.Background())

	for _, key := range []struct {
		kind models.InstanceKind
		id   int64
	}{
		{models.InstanceKindJackett, 1},
		{models.InstanceKindJackett, 2},
		{models.InstanceKindProwlarr, 1},
	} {
		_, ok := monitor.CachedInstanceStatus(context.Background(), key.kind, key.id)
		assert.True(t, ok, "expected cached status for %s:%d", key.kind, key.id)
	}

	_, ok := monitor.CachedClientStatus(context.Background(), 1)
	assert.True(t, ok)
}

func TestInstanceStatuses_CountsOnline(t *testing.T) {
	adapter := &stubAdapter{online: true, message: "ok"}
	jackettRepo := &stubInstanceRepo{kind: models.InstanceKindJackett, instances: []*models.Instance{
		{ID: 1, Name: "j1", Kind: models.InstanceKindJackett},
	}}
	prowlarrRepo := &stubInstanceRepo{kind: models.InstanceKindProwlarr, instances: []*models.Instance{
		{ID: 1, Name: "p1", Kind: models.InstanceKindProwlarr},
		{ID: 2, Name: "p2", Kind: models.InstanceKindProwlarr},
	}}

	monitor := newTestMonitor(jackettRepo, prowlarrRepo, &stubClientRepo{}, adapter, nil)

	statuses, err := monitor.InstanceStatuses(context.Background())
	require.NoError(t, err)

	assert.Len(t, statuses.Jackett, 1)
	assert.Len(t, statuses.Prowlarr, 2)
	assert.Equal(t, 3, statuses.TotalOnline)
}
