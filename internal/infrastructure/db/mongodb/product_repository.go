package mongodb

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/4DevsO/qtut-b4a/internal/domain/entities"
	"github.com/4DevsO/qtut-b4a/internal/domain/filter"
	"github.com/4DevsO/qtut-b4a/internal/domain/repositories"
)

type ProductRepository struct {
	collection *mongo.Collection
}

func NewProductRepository(db *mongo.Database) repositories.ProductRepository {
	return &ProductRepository{collection: db.Collection(productsCollection)}
}

func (r *ProductRepository) Create(ctx context.Context, product *entities.Product) (*entities.Product, error) {
	if _, err := r.collection.InsertOne(ctx, newProductDocument(product)); err != nil {
		return nil, translateError(err)
	}
	return r.FindById(ctx, product.Id)
}

func (r *ProductRepository) FindById(ctx context.Context, id string) (*entities.Product, error) {
	var doc productDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, translateError(err)
	}
	return doc.entity(), nil
}

func (r *ProductRepository) FindByIds(ctx context.Context, ids []string) ([]*entities.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *ProductRepository) FindByFilter(ctx context.Context, f filter.Filter) ([]*entities.Product, error) {
	query, ok := compile(productFields, noFallback, f)
	if !ok {
		return nil, nil
	}
	return r.find(ctx, query)
}

func (r *ProductRepository) find(ctx context.Context, query bson.M) ([]*entities.Product, error) {
	cursor, err := r.collection.Find(ctx, query, options.Find().SetSort(creationOrder))
	if err != nil {
		return nil, translateError(err)
	}
	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, translateError(err)
	}
	products := make([]*entities.Product, len(docs))
	for i := range docs {
		products[i] = docs[i].entity()
	}
	return products, nil
}

func (r *ProductRepository) Update(ctx context.Context, product *entities.Product) (*entities.Product, error) {
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": product.Id}, newProductDocument(product)); err != nil {
		return nil, translateError(err)
	}
	return r.FindById(ctx, product.Id)
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return translateError(err)
}
