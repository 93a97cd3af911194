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

type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) repositories.UserRepository {
	return &UserRepository{collection: db.Collection(usersCollection)}
}

func (r *UserRepository) Create(ctx context.Context, user *entities.ValidatedUser) (*entities.User, error) {
	userEntity := user.GetUser()
	if err := userEntity.HashPassword(); err != nil {
		return nil, err
	}
	if _, err := r.collection.InsertOne(ctx, newUserDocument(userEntity)); err != nil {
		return nil, translateError(err)
	}
	return r.FindById(ctx, userEntity.Id)
}

func (r *UserRepository) FindById(ctx context.Context, id string) (*entities.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entities.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) findOne(ctx context.Context, query bson.M) (*entities.User, error) {
	var doc userDocument
	if err := r.collection.FindOne(ctx, query).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, translateError(err)
	}
	return doc.entity(), nil
}

// FindByFilter looks fields outside the user schema up in the attributes.
func (r *UserRepository) FindByFilter(ctx context.Context, f filter.Filter) ([]*entities.User, error) {
	query, ok := compile(userFields, attributeFallback, f)
	if !ok {
		return nil, nil
	}
	cursor, err := r.collection.Find(ctx, query, options.Find().SetSort(creationOrder))
	if err != nil {
		return nil, translateError(err)
	}
	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, translateError(err)
	}
	users := make([]*entities.User, len(docs))
	for i := range docs {
		users[i] = docs[i].entity()
	}
	return users, nil
}

func (r *UserRepository) Update(ctx context.Context, user *entities.User) (*entities.User, error) {
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": user.Id}, newUserDocument(user)); err != nil {
		return nil, translateError(err)
	}
	return r.FindById(ctx, user.Id)
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return translateError(err)
}

var creationOrder = bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}
