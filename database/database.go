package database

import (
	"context"

	"github.com/rpupo63/foodgram-backend/models"
	"gorm.io/gorm"
)

type Database struct {
	db               *gorm.DB
	userRepo         *UserRepo
	ingredientRepo   *IngredientRepo
	tagRepo          *TagRepo
	recipeRepo       *RecipeRepo
	favoriteRepo     *FavoriteRepo
	shoppingCartRepo *ShoppingCartRepo
	subscriptionRepo *SubscriptionRepo
	revokedTokenRepo *RevokedTokenRepo
}

// New initializes a new Database struct with each repository using a shared GORM database instance
func New(db *gorm.DB) Database {
	return Database{
		db:               db,
		userRepo:         NewUserRepo(db),
		ingredientRepo:   NewIngredientRepo(db),
		tagRepo:          NewTagRepo(db),
		recipeRepo:       NewRecipeRepo(db),
		favoriteRepo:     NewFavoriteRepo(db),
		shoppingCartRepo: NewShoppingCartRepo(db),
		subscriptionRepo: NewSubscriptionRepo(db),
		revokedTokenRepo: NewRevokedTokenRepo(db),
	}
}

// Accessor methods for each repository

func (d Database) UserRepo() *UserRepo {
	return d.userRepo
}

func (d Database) IngredientRepo() *IngredientRepo {
	return d.ingredientRepo
}

func (d Database) TagRepo() *TagRepo {
	return d.tagRepo
}

func (d Database) RecipeRepo() *RecipeRepo {
	return d.recipeRepo
}

func (d Database) FavoriteRepo() *FavoriteRepo {
	return d.favoriteRepo
}

func (d Database) ShoppingCartRepo() *ShoppingCartRepo {
	return d.shoppingCartRepo
}

func (d Database) SubscriptionRepo() *SubscriptionRepo {
	return d.subscriptionRepo
}

func (d Database) RevokedTokenRepo() *RevokedTokenRepo {
	return d.revokedTokenRepo
}

// GormDB exposes the shared connection for maintenance tasks such as schema reports
func (d Database) GormDB() *gorm.DB {
	return d.db
}

// Migrate brings the schema in line with the models.
func (d Database) Migrate() error {
	return models.Migrate(d.db)
}

// Ping checks that the underlying connection pool can reach the server.
func (d Database) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func (d Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
