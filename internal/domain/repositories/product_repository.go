package repositories

import (
	"context"

	"github.com/4DevsO/qtut-b4a/internal/domain/entities"
	"github.com/4DevsO/qtut-b4a/internal/domain/filter"
)

type ProductRepository interface {
	Create(ctx context.Context, product *entities.Product) (*entities.Product, error)
	FindById(ctx context.Context, id string) (*entities.Product, error)
	// FindByIds returns the products that exist, in no particular order.
	FindByIds(ctx context.Context, ids []string) ([]*entities.Product, error)
	FindByFilter(ctx context.Context, f filter.Filter) ([]*entities.Product, error)
	Update(ctx context.Context, product *entities.Product) (*entities.Product, error)
	Delete(ctx context.Context, id string) error
}
