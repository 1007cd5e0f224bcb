package catalog

import (
	"context"

	catalogRepo "masu/database/repository/catalog"
	"masu/models"
)

// DefaultCatalogService exposes the treatment catalogue to the wizard.
type DefaultCatalogService struct {
	Repo catalogRepo.CatalogRepository
}

func NewDefaultCatalogService(repo catalogRepo.CatalogRepository) *DefaultCatalogService {
	return &DefaultCatalogService{Repo: repo}
}

func (s *DefaultCatalogService) GetTreatment(ctx context.Context, id string) (*models.Treatment, error) {
	return s.Repo.GetByID(ctx, id)
}

func (s *DefaultCatalogService) ListActiveTreatments(ctx context.Context) ([]models.Treatment, error) {
	return s.Repo.ListActive(ctx)
}
