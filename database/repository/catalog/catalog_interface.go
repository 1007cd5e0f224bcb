package catalogRepo

import (
	"context"

	"masu/models"
)

// CatalogRepository defines the interface for treatment catalogue access.
type CatalogRepository interface {
	GetByID(ctx context.Context, id string) (*models.Treatment, error)
	ListActive(ctx context.Context) ([]models.Treatment, error)
	Upsert(ctx context.Context, treatment *models.Treatment) error
}
