package repositories

import (
	"context"

	"github.com/4DevsO/qtut-b4a/internal/domain/entities"
	"github.com/4DevsO/qtut-b4a/internal/domain/filter"
)

// SaleRepository reads return sales with products, main product and user expanded.
type SaleRepository interface {
	Create(ctx context.Context, sale *entities.Sale) (*entities.Sale, error)
	FindById(ctx context.Context, id string) (*entities.Sale, error)
	FindByFilter(ctx context.Context, f filter.Filter) ([]*entities.Sale, error)
	// FindNear returns sales within radiusKm of center, boundary included,
	// nearest first.
	FindNear(ctx context.Context, center entities.GeoPoint, radiusKm float64) ([]*entities.Sale, error)
	Update(ctx context.Context, sale *entities.Sale) (*entities.Sale, error)
	Delete(ctx context.Context, id string) error
}
