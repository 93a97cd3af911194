package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/4DevsO/qtut-b4a/internal/domain/entities"
	"github.com/4DevsO/qtut-b4a/internal/domain/filter"
	"github.com/4DevsO/qtut-b4a/internal/domain/repositories"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) repositories.ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Create(ctx context.Context, product *entities.Product) (*entities.Product, error) {
	if err := r.db.WithContext(ctx).Create(productToModel(product)).Error; err != nil {
		return nil, translateError(err)
	}
	return r.FindById(ctx, product.Id)
}

func (r *ProductRepository) FindById(ctx context.Context, id string) (*entities.Product, error) {
	var productModel ProductModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&productModel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translateError(err)
	}
	return productToEntity(&productModel), nil
}

func (r *ProductRepository) FindByIds(ctx context.Context, ids []string) ([]*entities.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var productModels []ProductModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&productModels).Error; err != nil {
		return nil, translateError(err)
	}
	return mapProducts(productModels), nil
}

func (r *ProductRepository) FindByFilter(ctx context.Context, f filter.Filter) ([]*entities.Product, error) {
	q := compile(r.db.WithContext(ctx).Model(&ProductModel{}), productColumns, f)
	if q.empty {
		return nil, nil
	}

	var productModels []ProductModel
	if err := q.tx.Order("created_at, id").Find(&productModels).Error; err != nil {
		return nil, translateError(err)
	}

	products := make([]*entities.Product, 0, len(productModels))
	for _, p := range mapProducts(productModels) {
		if q.residual.MatchAll(productListField(p)) {
			products = append(products, p)
		}
	}
	return products, nil
}

func (r *ProductRepository) Update(ctx context.Context, product *entities.Product) (*entities.Product, error) {
	if err := r.db.WithContext(ctx).Save(productToModel(product)).Error; err != nil {
		return nil, translateError(err)
	}
	return r.FindById(ctx, product.Id)
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	return translateError(r.db.WithContext(ctx).Delete(&ProductModel{}, "id = ?", id).Error)
}

func mapProducts(models []ProductModel) []*entities.Product {
	products := make([]*entities.Product, len(models))
	for i := range models {
		products[i] = productToEntity(&models[i])
	}
	return products
}

// productListField exposes the JSON list columns to residual predicates.
func productListField(p *entities.Product) func(string) (any, bool) {
	return func(field string) (any, bool) {
		switch field {
		case "pictures":
			return p.Pictures, true
		case "tags":
			return p.Tags, true
		}
		return nil, false
	}
}
