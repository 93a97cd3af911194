package mongodb

import (
	"context"
	"errors"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/4DevsO/qtut-b4a/internal/domain/entities"
	"github.com/4DevsO/qtut-b4a/internal/domain/filter"
	"github.com/4DevsO/qtut-b4a/internal/domain/repositories"
)

// sphereMargin widens the $centerSphere query so points on the radius are
// not lost to rounding before the exact distance check.
const sphereMargin = 1.001

type SaleRepository struct {
	sales    *mongo.Collection
	products *mongo.Collection
	users    *mongo.Collection
}

func NewSaleRepository(db *mongo.Database) repositories.SaleRepository {
	return &SaleRepository{
		sales:    db.Collection(salesCollection),
		products: db.Collection(productsCollection),
		users:    db.Collection(usersCollection),
	}
}

func (r *SaleRepository) Create(ctx context.Context, sale *entities.Sale) (*entities.Sale, error) {
	if _, err := r.sales.InsertOne(ctx, newSaleDocument(sale)); err != nil {
		return nil, translateError(err)
	}
	return r.FindById(ctx, sale.Id)
}

func (r *SaleRepository) FindById(ctx context.Context, id string) (*entities.Sale, error) {
	var doc saleDocument
	if err := r.sales.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, translateError(err)
	}
	sales, err := r.expand(ctx, []saleDocument{doc})
	if err != nil {
		return nil, err
	}
	return sales[0], nil
}

func (r *SaleRepository) FindByFilter(ctx context.Context, f filter.Filter) ([]*entities.Sale, error) {
	query, ok := compile(saleFields, noFallback, f)
	if !ok {
		return nil, nil
	}
	docs, err := r.find(ctx, query, options.Find().SetSort(creationOrder))
	if err != nil {
		return nil, err
	}
	return r.expand(ctx, docs)
}

func (r *SaleRepository) FindNear(ctx context.Context, center entities.GeoPoint, radiusKm float64) ([]*entities.Sale, error) {
	query := bson.M{"location": bson.M{"$geoWithin": bson.M{
		"$centerSphere": bson.A{
			bson.A{center.Longitude, center.Latitude},
			radiusKm * sphereMargin / entities.EarthRadiusKm,
		},
	}}}
	docs, err := r.find(ctx, query)
	if err != nil {
		return nil, err
	}

	type candidate struct {
		doc      saleDocument
		distance float64
	}
	candidates := make([]candidate, 0, len(docs))
	for _, d := range docs {
		if dist := center.DistanceKm(d.point()); dist <= radiusKm {
			candidates = append(candidates, candidate{doc: d, distance: dist})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})

	nearest := make([]saleDocument, len(candidates))
	for i, c := range candidates {
		nearest[i] = c.doc
	}
	return r.expand(ctx, nearest)
}

func (r *SaleRepository) Update(ctx context.Context, sale *entities.Sale) (*entities.Sale, error) {
	if _, err := r.sales.ReplaceOne(ctx, bson.M{"_id": sale.Id}, newSaleDocument(sale)); err != nil {
		return nil, translateError(err)
	}
	return r.FindById(ctx, sale.Id)
}

func (r *SaleRepository) Delete(ctx context.Context, id string) error {
	_, err := r.sales.DeleteOne(ctx, bson.M{"_id": id})
	return translateError(err)
}

func (r *SaleRepository) find(ctx context.Context, query bson.M, opts ...*options.FindOptions) ([]saleDocument, error) {
	cursor, err := r.sales.Find(ctx, query, opts...)
	if err != nil {
		return nil, translateError(err)
	}
	var docs []saleDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, translateError(err)
	}
	return docs, nil
}

// expand resolves product, main product and user references with one query
// per collection. References to missing documents are left empty.
func (r *SaleRepository) expand(ctx context.Context, docs []saleDocument) ([]*entities.Sale, error) {
	productIds := make(map[string]struct{})
	userIds := make(map[string]struct{})
	for _, d := range docs {
		for _, id := range d.ProductIds {
			productIds[id] = struct{}{}
		}
		if d.MainProductId != "" {
			productIds[d.MainProductId] = struct{}{}
		}
		if d.UserId != "" {
			userIds[d.UserId] = struct{}{}
		}
	}

	products := make(map[string]*entities.Product, len(productIds))
	if len(productIds) > 0 {
		var productDocs []productDocument
		if err := findIn(ctx, r.products, productIds, &productDocs); err != nil {
			return nil, err
		}
		for i := range productDocs {
			products[productDocs[i].Id] = productDocs[i].entity()
		}
	}

	users := make(map[string]*entities.User, len(userIds))
	if len(userIds) > 0 {
		var userDocs []userDocument
		if err := findIn(ctx, r.users, userIds, &userDocs); err != nil {
			return nil, err
		}
		for i := range userDocs {
			users[userDocs[i].Id] = userDocs[i].entity()
		}
	}

	sales := make([]*entities.Sale, len(docs))
	for i := range docs {
		s := docs[i].entity()
		s.Products = make([]*entities.Product, 0, len(s.ProductIds))
		for _, id := range s.ProductIds {
			if p, ok := products[id]; ok {
				s.Products = append(s.Products, p)
			}
		}
		s.MainProduct = products[s.MainProductId]
		s.User = users[s.UserId]
		sales[i] = s
	}
	return sales, nil
}

func findIn(ctx context.Context, c *mongo.Collection, ids map[string]struct{}, out any) error {
	in := make(bson.A, 0, len(ids))
	for id := range ids {
		in = append(in, id)
	}
	cursor, err := c.Find(ctx, bson.M{"_id": bson.M{"$in": in}})
	if err != nil {
		return translateError(err)
	}
	return translateError(cursor.All(ctx, out))
}
