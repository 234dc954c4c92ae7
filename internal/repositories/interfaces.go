package repositories

import (
	"context"

	"github.com/sjafferali/searcharr/internal/models"
)

// InstanceRepository defines the interface for indexer instance records
// of one family (jackett or prowlarr).
type InstanceRepository interface {
	Create(ctx context.Context, payload *models.InstanceCreate) (*models.Instance, error)
	GetByID(ctx context.Context, id int64) (*models.Instance, error)
	Update(ctx context.Context, id int64, payload *models.InstanceUpdate) (*models.Instance, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*models.Instance, error)
	Kind() models.InstanceKind
}

// ClientRepository defines the interface for download client records
type ClientRepository interface {
	Create(ctx context.Context, payload *models.ClientCreate) (*models.DownloadClient, error)
	GetByID(ctx context.Context, id int64) (*models.DownloadClient, error)
	Update(ctx context.Context, id int64, payload *models.ClientUpdate) (*models.DownloadClient, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*models.DownloadClient, error)
}
