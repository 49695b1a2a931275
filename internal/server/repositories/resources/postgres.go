package resources

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophview/internal/common"
	"github.com/dmitrijs2005/gophview/internal/dbx"
	"github.com/dmitrijs2005/gophview/internal/server/models"
	"github.com/google/uuid"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, res *models.Resource) (*models.Resource, error) {
	if res.ID == "" {
		res.ID = uuid.NewString()
	}

	query := `
		INSERT INTO resources (id, name, declared_type, storage_key, link_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		res.ID, res.Name, res.DeclaredType, res.StorageKey, res.LinkURL).Scan(&res.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return res, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Resource, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}

	query := `
		SELECT id, name, declared_type, storage_key, link_url, created_at
		FROM resources
		WHERE id = $1
	`
	res := &models.Resource{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&res.ID, &res.Name, &res.DeclaredType, &res.StorageKey, &res.LinkURL, &res.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return res, nil
}
