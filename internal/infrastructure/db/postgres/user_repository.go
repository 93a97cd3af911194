package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/4DevsO/qtut-b4a/internal/domain/entities"
	"github.com/4DevsO/qtut-b4a/internal/domain/filter"
	"github.com/4DevsO/qtut-b4a/internal/domain/repositories"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) repositories.UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *entities.ValidatedUser) (*entities.User, error) {
	userEntity := user.GetUser()

	// Hash password before saving
	if err := userEntity.HashPassword(); err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).Create(userToModel(userEntity)).Error; err != nil {
		return nil, translateError(err)
	}

	// Read back the created user to ensure data integrity
	return r.FindById(ctx, userEntity.Id)
}

func (r *UserRepository) FindById(ctx context.Context, id string) (*entities.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entities.User, error) {
	return r.findOne(ctx, "username = ?", username)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *UserRepository) findOne(ctx context.Context, where string, arg any) (*entities.User, error) {
	var userModel UserModel
	if err := r.db.WithContext(ctx).Where(where, arg).First(&userModel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translateError(err)
	}
	return userToEntity(&userModel), nil
}

// FindByFilter matches fields that are not columns against the user's
// additional attributes.
func (r *UserRepository) FindByFilter(ctx context.Context, f filter.Filter) ([]*entities.User, error) {
	q := compile(r.db.WithContext(ctx).Model(&UserModel{}), userColumns, f)
	if q.empty {
		return nil, nil
	}

	var userModels []UserModel
	if err := q.tx.Order("created_at, id").Find(&userModels).Error; err != nil {
		return nil, translateError(err)
	}

	users := make([]*entities.User, 0, len(userModels))
	for i := range userModels {
		u := userToEntity(&userModels[i])
		if q.residual.MatchAll(func(field string) (any, bool) {
			v, ok := u.Attributes[field]
			return v, ok
		}) {
			users = append(users, u)
		}
	}
	return users, nil
}

func (r *UserRepository) Update(ctx context.Context, user *entities.User) (*entities.User, error) {
	if err := r.db.WithContext(ctx).Save(userToModel(user)).Error; err != nil {
		return nil, translateError(err)
	}

	// Read back the updated user to ensure data integrity
	return r.FindById(ctx, user.Id)
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	return translateError(r.db.WithContext(ctx).Delete(&UserModel{}, "id = ?", id).Error)
}
