package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"github.com/4DevsO/qtut-b4a/internal/config"
	"github.com/4DevsO/qtut-b4a/internal/domain/repositories"
	"github.com/4DevsO/qtut-b4a/internal/infrastructure/db/mongodb"
	"github.com/4DevsO/qtut-b4a/internal/infrastructure/db/postgres"
)

// stores bundles the repositories of whichever backend is configured.
type stores struct {
	users    repositories.UserRepository
	products repositories.ProductRepository
	sales    repositories.SaleRepository
	ping     func(ctx context.Context) error
	close    func(ctx context.Context) error
	migrate  func(ctx context.Context) error
}

func openStores(ctx context.Context, cfg config.DatabaseConfig, log zerolog.Logger) (*stores, error) {
	switch cfg.Driver {
	case config.DriverMongoDB:
		db, err := mongodb.Connect(ctx, cfg.DSN, cfg.Name)
		if err != nil {
			return nil, err
		}
		return mongoStores(db), nil
	case config.DriverPostgres, config.DriverSQLite:
		db, err := postgres.Open(cfg.Driver, cfg.DSN, log)
		if err != nil {
			return nil, err
		}
		return gormStores(db)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func mongoStores(db *mongo.Database) *stores {
	return &stores{
		users:    mongodb.NewUserRepository(db),
		products: mongodb.NewProductRepository(db),
		sales:    mongodb.NewSaleRepository(db),
		ping: func(ctx context.Context) error {
			return db.Client().Ping(ctx, nil)
		},
		close: func(ctx context.Context) error {
			return db.Client().Disconnect(ctx)
		},
		migrate: func(ctx context.Context) error {
			return mongodb.EnsureIndexes(ctx, db)
		},
	}
}

func gormStores(db *gorm.DB) (*stores, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	return &stores{
		users:    postgres.NewUserRepository(db),
		products: postgres.NewProductRepository(db),
		sales:    postgres.NewSaleRepository(db),
		ping:     sqlDB.PingContext,
		close: func(context.Context) error {
			return sqlDB.Close()
		},
		migrate: func(ctx context.Context) error {
			return postgres.Migrate(db.WithContext(ctx))
		},
	}, nil
}
