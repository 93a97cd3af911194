package postgres

import (
	"context"
	"errors"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/4DevsO/qtut-b4a/internal/domain/entities"
	"github.com/4DevsO/qtut-b4a/internal/domain/filter"
	"github.com/4DevsO/qtut-b4a/internal/domain/repositories"
)

// boxMargin widens the geo prefilter so points on the radius are not lost to
// rounding before the exact distance check.
const boxMargin = 1.001

type SaleRepository struct {
	db *gorm.DB
}

func NewSaleRepository(db *gorm.DB) repositories.SaleRepository {
	return &SaleRepository{db: db}
}

func (r *SaleRepository) Create(ctx context.Context, sale *entities.Sale) (*entities.Sale, error) {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(saleToModel(sale)).Error; err != nil {
		return nil, translateError(err)
	}
	return r.FindById(ctx, sale.Id)
}

func (r *SaleRepository) FindById(ctx context.Context, id string) (*entities.Sale, error) {
	var saleModel SaleModel
	if err := r.expanded(ctx).Where("id = ?", id).First(&saleModel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translateError(err)
	}
	sales, err := r.expandProducts(ctx, []SaleModel{saleModel})
	if err != nil {
		return nil, err
	}
	return sales[0], nil
}

func (r *SaleRepository) FindByFilter(ctx context.Context, f filter.Filter) ([]*entities.Sale, error) {
	q := compile(r.expanded(ctx), saleColumns, f)
	if q.empty {
		return nil, nil
	}

	var saleModels []SaleModel
	if err := q.tx.Order("created_at, id").Find(&saleModels).Error; err != nil {
		return nil, translateError(err)
	}
	sales, err := r.expandProducts(ctx, saleModels)
	if err != nil {
		return nil, err
	}

	matched := make([]*entities.Sale, 0, len(sales))
	for _, s := range sales {
		if q.residual.MatchAll(func(field string) (any, bool) {
			if field == "products" {
				return s.ProductIds, true
			}
			return nil, false
		}) {
			matched = append(matched, s)
		}
	}
	return matched, nil
}

// FindNear narrows candidates with a bounding box in SQL, then keeps the
// sales whose haversine distance is within the radius.
func (r *SaleRepository) FindNear(ctx context.Context, center entities.GeoPoint, radiusKm float64) ([]*entities.Sale, error) {
	minLat, maxLat, minLng, maxLng, wraps := center.BoundingBox(radiusKm * boxMargin)

	tx := r.expanded(ctx).Where("latitude BETWEEN ? AND ?", minLat, maxLat)
	if !wraps {
		tx = tx.Where("longitude BETWEEN ? AND ?", minLng, maxLng)
	}

	var saleModels []SaleModel
	if err := tx.Find(&saleModels).Error; err != nil {
		return nil, translateError(err)
	}

	type candidate struct {
		model    SaleModel
		distance float64
	}
	candidates := make([]candidate, 0, len(saleModels))
	for _, m := range saleModels {
		d := center.DistanceKm(entities.GeoPoint{Latitude: m.Latitude, Longitude: m.Longitude})
		if d <= radiusKm {
			candidates = append(candidates, candidate{model: m, distance: d})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})

	nearest := make([]SaleModel, len(candidates))
	for i, c := range candidates {
		nearest[i] = c.model
	}
	return r.expandProducts(ctx, nearest)
}

func (r *SaleRepository) Update(ctx context.Context, sale *entities.Sale) (*entities.Sale, error) {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(saleToModel(sale)).Error; err != nil {
		return nil, translateError(err)
	}
	return r.FindById(ctx, sale.Id)
}

func (r *SaleRepository) Delete(ctx context.Context, id string) error {
	return translateError(r.db.WithContext(ctx).Delete(&SaleModel{}, "id = ?", id).Error)
}

func (r *SaleRepository) expanded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&SaleModel{}).Preload("MainProduct").Preload("User")
}

// expandProducts loads every referenced product with one query and attaches
// them to their sales in list order. Ids whose product is gone are skipped.
func (r *SaleRepository) expandProducts(ctx context.Context, models []SaleModel) ([]*entities.Sale, error) {
	seen := make(map[string]struct{})
	var ids []string
	for _, m := range models {
		for _, id := range m.ProductIds {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}

	byId := make(map[string]*entities.Product, len(ids))
	if len(ids) > 0 {
		var productModels []ProductModel
		if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&productModels).Error; err != nil {
			return nil, translateError(err)
		}
		for i := range productModels {
			byId[productModels[i].Id] = productToEntity(&productModels[i])
		}
	}

	sales := make([]*entities.Sale, len(models))
	for i := range models {
		s := saleToEntity(&models[i])
		s.Products = make([]*entities.Product, 0, len(s.ProductIds))
		for _, id := range s.ProductIds {
			if p, ok := byId[id]; ok {
				s.Products = append(s.Products, p)
			}
		}
		sales[i] = s
	}
	return sales, nil
}
