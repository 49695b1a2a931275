// Package resources stores the metadata of previewable resources.
package resources

import (
	"context"

	"github.com/dmitrijs2005/gophview/internal/server/models"
)

// Repository persists resource metadata.
type Repository interface {
	// Create inserts r, assigning an ID when r.ID is empty, and returns the
	// stored row.
	Create(ctx context.Context, r *models.Resource) (*models.Resource, error)

	// GetByID returns common.ErrorNotFound when no resource has the id.
	GetByID(ctx context.Context, id string) (*models.Resource, error)
}
