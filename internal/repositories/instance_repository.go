package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sjafferali/searcharr/internal/models"
)

// SQLiteInstanceRepository implements InstanceRepository using SQLite.
// The same implementation serves both families; only the table differs.
type SQLiteInstanceRepository struct {
	db    *sql.DB
	table string
	kind  models.InstanceKind
}

// NewJackettInstanceRepository creates a repository over jackett_instances
func NewJackettInstanceRepository(db *sql.DB) InstanceRepository {
	return &SQLiteInstanceRepository{db: db, table: "jackett_instances", kind: models.InstanceKindJackett}
}

// NewProwlarrInstanceRepository creates a repository over prowlarr_instances
func NewProwlarrInstanceRepository(db *sql.DB) InstanceRepository {
	return &SQLiteInstanceRepository{db: db, table: "prowlarr_instances", kind: models.InstanceKindProwlarr}
}

// Kind returns the instance family this repository stores
func (r *SQLiteInstanceRepository) Kind() models.InstanceKind {
	return r.kind
}

// Create inserts a new instance record
func (r *SQLiteInstanceRepository) Create(ctx context.Context, payload *models.InstanceCreate) (*models.Instance, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (name, url, api_key, created_at, updated_at)
		VALUES (?, ?, ?, datetime('now'), datetime('now'))
	`, r.table)

	result, err := r.db.ExecContext(ctx, query, payload.Name, strings.TrimRight(payload.URL, "/"), payload.APIKey)
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

// GetByID retrieves an instance by ID
func (r *SQLiteInstanceRepository) GetByID(ctx context.Context, id int64) (*models.Instance, error) {
	query := fmt.Sprintf(`
		SELECT id, name, url, api_key, created_at, updated_at
		FROM %s WHERE id = ?
	`, r.table)

	instance := models.Instance{Kind: r.kind}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&instance.ID, &instance.Name, &instance.URL, &instance.APIKey,
		&instance.CreatedAt, &instance.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrInstanceNotFound
		}
		return nil, err
	}

	return &instance, nil
}

// Update applies a partial update. Empty fields keep the stored value,
// so an omitted api_key never erases a working secret.
func (r *SQLiteInstanceRepository) Update(ctx context.Context, id int64, payload *models.InstanceUpdate) (*models.Instance, error) {
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
	if payload.APIKey != "" {
		sets = append(sets, "api_key = ?")
		args = append(args, payload.APIKey)
	}

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", r.table, strings.Join(sets, ", "))
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
		return nil, models.ErrInstanceNotFound
	}

	return r.GetByID(ctx, id)
}

// Delete removes an instance by ID
func (r *SQLiteInstanceRepository) Delete(ctx context.Context, id int64) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", r.table)
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return models.ErrInstanceNotFound
	}
	return nil
}

// List returns all instances of this family ordered by id, which is also
// the order searches fan out over them.
func (r *SQLiteInstanceRepository) List(ctx context.Context) ([]*models.Instance, error) {
	query := fmt.Sprintf(`
		SELECT id, name, url, api_key, created_at, updated_at
		FROM %s ORDER BY id ASC
	`, r.table)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var instances []*models.Instance
	for rows.Next() {
		instance := models.Instance{Kind: r.kind}
		var createdAt, updatedAt time.Time
		if err := rows.Scan(&instance.ID, &instance.Name, &instance.URL, &instance.APIKey, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		instance.CreatedAt = createdAt
		instance.UpdatedAt = updatedAt
		instances = append(instances, &instance)
	}

	return instances, rows.Err()
}
