package downloadclients

import (
	"context"
	"fmt"
	"strings"
	"time"

	qbt "github.com/autobrr/go-qbittorrent"
	"github.com/sirupsen/logrus"

	"github.com/sjafferali/searcharr/internal/models"
)

// QBittorrentAdapter drives qBittorrent's WebUI API. A new session is
// established per operation so stale cookies never linger between calls.
type QBittorrentAdapter struct {
	timeout time.Duration
	logger  *logrus.Logger
}

func NewQBittorrentAdapter(timeout time.Duration, logger *logrus.Logger) *QBittorrentAdapter {
	return &QBittorrentAdapter{
		timeout: timeout,
		logger:  logger,
	}
}

func (a *QBittorrentAdapter) newSession(client *models.DownloadClient) *qbt.Client {
	return qbt.NewClient(qbt.Config{
		Host:     client.URL,
		Username: client.Username,
		Password: client.Password,
		Timeout:  int(a.timeout.Seconds()),
	})
}

// AddTorrent logs in and submits the link, tagging it with the category
// when one is given.
func (a *QBittorrentAdapter) AddTorrent(ctx context.Context, client *models.DownloadClient, link string, category string) error {
	session := a.newSession(client)

	if err := session.LoginCtx(ctx); err != nil {
		return loginError(err)
	}

	options := map[string]string{}
	if category != "" {
		options["category"] = category
	}

	if err := session.AddTorrentFromUrlCtx(ctx, link, options); err != nil {
		return fmt.Errorf("failed to add torrent: %w", err)
	}

	a.logger.Infof("Sent torrent to qBittorrent client %s", client.Name)
	return nil
}

// Probe verifies the client is reachable and the credentials work.
func (a *QBittorrentAdapter) Probe(ctx context.Context, client *models.DownloadClient) *models.Status {
	session := a.newSession(client)

	if err := session.LoginCtx(ctx); err != nil {
		return &models.Status{
			Online:    false,
			Message:   loginError(err).Error(),
			CheckedAt: time.Now(),
		}
	}

	version, err := session.GetWebAPIVersionCtx(ctx)
	if err != nil {
		return &models.Status{
			Online:    false,
			Message:   fmt.Sprintf("Connection failed: %v", err),
			CheckedAt: time.Now(),
		}
	}

	return &models.Status{
		Online:    true,
		Message:   fmt.Sprintf("Connected to qBittorrent (WebAPI v%s)", version),
		CheckedAt: time.Now(),
	}
}

// loginError separates bad credentials from transport failures. The
// client library reports auth rejection as a plain error, so the text is
// all there is to go on.
func loginError(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "credentials") || strings.Contains(msg, "forbidden") || strings.Contains(msg, "unauthorized") {
		return fmt.Errorf("invalid username or password")
	}
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline") {
		return fmt.Errorf("connection timed out")
	}
	if strings.Contains(msg, "connection refused") {
		return fmt.Errorf("connection refused")
	}
	return fmt.Errorf("login failed: %w", err)
}
