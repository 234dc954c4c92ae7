package downloadclients

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sjafferali/searcharr/internal/indexers"
	"github.com/sjafferali/searcharr/internal/models"
	"github.com/sjafferali/searcharr/internal/repositories"
)

// Dispatcher validates and routes download requests to the target
// client. Every attempt terminates in exactly one outcome; there is no
// retry queue, a failed dispatch is simply re-initiated by the user.
type Dispatcher struct {
	clientRepo repositories.ClientRepository
	adapter    Adapter
	monitor    *indexers.HealthMonitor
	freshness  time.Duration
	logger     *logrus.Logger
}

func NewDispatcher(
	clientRepo repositories.ClientRepository,
	adapter Adapter,
	monitor *indexers.HealthMonitor,
	freshness time.Duration,
	logger *logrus.Logger,
) *Dispatcher {
	return &Dispatcher{
		clientRepo: clientRepo,
		adapter:    adapter,
		monitor:    monitor,
		freshness:  freshness,
		logger:     logger,
	}
}

// Send routes one download request. The magnet link wins when both link
// forms are present. The target client's status is re-validated before
// contact; a client known to be offline fails fast without touching the
// adapter. Validation errors (no link, unknown client) return an error;
// everything past validation resolves into the outcome.
func (d *Dispatcher) Send(ctx context.Context, req *models.DownloadRequest) (*models.DispatchOutcome, error) {
	link := ""
	switch {
	case req.MagnetLink != nil && *req.MagnetLink != "":
		link = *req.MagnetLink
	case req.TorrentURL != nil && *req.TorrentURL != "":
		link = *req.TorrentURL
	default:
		return nil, models.ErrNothingToDispatch
	}

	client, err := d.clientRepo.GetByID(ctx, req.ClientID)
	if err != nil {
		return nil, err
	}

	status := d.monitor.FreshClientStatus(ctx, client, d.freshness)
	if !status.Online {
		d.logger.Warnf("Refusing dispatch to offline client %s: %s", client.Name, status.Message)
		return &models.DispatchOutcome{
			Success:    false,
			Message:    fmt.Sprintf("Client is offline: %s", status.Message),
			ClientName: client.Name,
		}, nil
	}

	category := ""
	if client.Category != nil {
		category = *client.Category
	}
	if req.Category != nil && *req.Category != "" {
		category = *req.Category
	}

	if err := d.adapter.AddTorrent(ctx, client, link, category); err != nil {
		d.logger.Warnf("Dispatch to %s failed: %v", client.Name, err)
		return &models.DispatchOutcome{
			Success:    false,
			Message:    err.Error(),
			ClientName: client.Name,
		}, nil
	}

	return &models.DispatchOutcome{
		Success:    true,
		Message:    "Torrent sent to download client",
		ClientName: client.Name,
	}, nil
}
