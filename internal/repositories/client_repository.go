package repositories

import (
	"context"
	"database/sql"
	"strings"

	"github.com/sjafferali/searcharr/internal/models"
)

// SQLiteClientRepository implements ClientRepository using SQLite
type SQLiteClientRepository struct {
	db *sql.DB
}

// NewClientRepository creates a new SQLite-based download client repository
func NewClientRepository(db *sql.DB) ClientRepository {
	return &SQLiteClientRepository{db: db}
}

// Create inserts a new download client record
func (r *SQLiteClientRepository) Create(ctx context.Context, payload *models.ClientCreate) (*models.DownloadClient, error) {
	kind := payload.Kind
	if kind == "" {
		kind = string(models.ClientKindQBittorrent)
	}

	query := `
		INSERT INTO download_clients (name, kind, url, username, password, category, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, datetime('now'), datetime('now'))
	`

	result, err := r.db.ExecContext(ctx, query,
		payload.Name, kind, strings.TrimRight(payload.URL, "/"),
		payload.Username, payload.Password, payload.Category)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, models.ErrDuplicateName
		}
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

// GetByID retrieves a download client by ID
func (r *SQLiteClientRepository) GetByID(ctx context.Context, id int64) (*models.DownloadClient, error) {
	query := `
		SELECT id, name, kind, url, username, password, category, created_at, updated_at
		FROM download_clients WHERE id = ?
	`

	var client models.DownloadClient
	var category sql.NullString

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&client.ID, &client.Name, &client.Kind, &client.URL,
		&client.Username, &client.Password, &category,
		&client.CreatedAt, &client.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrClientNotFound
		}
		return nil, err
	}

	if category.Valid {
		client.Category = &category.String
	}

	return &client, nil
}

// Update applies a partial update. Empty credential fields keep the
// stored value. Category is special: nil keeps, empty string clears.
func (r *SQLiteClientRepository) Update(ctx context.Context, id int64, payload *models.ClientUpdate) (*models.DownloadClient, error) {
	sets := []string{"updated_at = datetime('now')"}
	args := []interface{}{}

	if payload.Name != "" {
		sets = append(sets, "name = ?")
		args = append(args, payload.Name)
	}
	if payload.URL != "" {
		sets = append(sets, "url = ?")
		args = append(args, strings.TrimRight(payload.URL, "/"))
	}
	if payload.Username != "" {
		sets = append(sets, "username = ?")
		args = append(args, payload.Username)
	}
	if payload.Password != "" {
		sets = append(sets, "password = ?")
		args = append(args, payload.Password)
	}
	if payload.Category != nil {
		if *payload.Category == "" {
			sets = append(sets, "category = NULL")
		} else {
			sets = append(sets, "category = ?")
			args = append(args, *payload.Category)
		}
	}

	query := "UPDATE download_clients SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	args = append(args, id)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, models.ErrDuplicateName
		}
		return nil, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, models.ErrClientNotFound
	}

	return r.GetByID(ctx, id)
}

// Delete removes a download client by ID
func (r *SQLiteClientRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM download_clients WHERE id = ?", id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrClientNotFound
	}
	return nil
}

// List returns all download clients ordered by id
func (r *SQLiteClientRepository) List(ctx context.Context) ([]*models.DownloadClient, error) {
	query := `
		SELECT id, name, kind, url, username, password, category, created_at, updated_at
		FROM download_clients ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []*models.DownloadClient
	for rows.Next() {
		var client models.DownloadClient
		var category sql.NullString

		err := rows.Scan(
			&client.ID, &client.Name, &client.Kind, &client.URL,
			&client.Username, &client.Password, &category,
			&client.CreatedAt, &client.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		if category.Valid {
			client.Category = &category.String
		}

		clients = append(clients, &client)
	}

	return clients, rows.Err()
}
