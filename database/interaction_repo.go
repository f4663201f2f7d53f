package database

import (
	"context"
	"time"

	"github.com/rpupo63/foodgram-backend/models"
	"gorm.io/gorm"
)

type FavoriteRepo struct {
	db *gorm.DB
}

func NewFavoriteRepo(db *gorm.DB) *FavoriteRepo {
	return &FavoriteRepo{db}
}

// Exists reports whether userID has favorited recipeID
func (r *FavoriteRepo) Exists(ctx context.Context, userID, recipeID uint) (bool, error) {
	return rowExists(ctx, r.db, &models.FavoriteRecipe{}, "user_id = ? AND recipe_id = ?", userID, recipeID)
}

// Add inserts a favorite. A concurrent duplicate fails with gorm.ErrDuplicatedKey.
func (r *FavoriteRepo) Add(ctx context.Context, userID, recipeID uint) error {
	return r.db.WithContext(ctx).
		Omit("User", "Recipe").
		Create(&models.FavoriteRecipe{UserID: userID, RecipeID: recipeID}).Error
}

// Delete removes a favorite and reports whether one existed
func (r *FavoriteRepo) Delete(ctx context.Context, userID, recipeID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&models.FavoriteRecipe{})
	return result.RowsAffected > 0, result.Error
}

type ShoppingCartRepo struct {
	db *gorm.DB
}

func NewShoppingCartRepo(db *gorm.DB) *ShoppingCartRepo {
	return &ShoppingCartRepo{db}
}

// ShoppingCartLine is one ingredient line item of a recipe in a user's cart
type ShoppingCartLine struct {
	RecipeID        uint
	Name            string
	MeasurementUnit models.MeasurementUnit
	Amount          int
}

// Exists reports whether recipeID is in userID's cart
func (r *ShoppingCartRepo) Exists(ctx context.Context, userID, recipeID uint) (bool, error) {
	return rowExists(ctx, r.db, &models.ShoppingCartRecipe{}, "user_id = ? AND recipe_id = ?", userID, recipeID)
}

// Add puts a recipe in the cart. A concurrent duplicate fails with gorm.ErrDuplicatedKey.
func (r *ShoppingCartRepo) Add(ctx context.Context, userID, recipeID uint) error {
	return r.db.WithContext(ctx).
		Omit("User", "Recipe").
		Create(&models.ShoppingCartRecipe{UserID: userID, RecipeID: recipeID}).Error
}

// Delete removes a recipe from the cart and reports whether it was there
func (r *ShoppingCartRepo) Delete(ctx context.Context, userID, recipeID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&models.ShoppingCartRecipe{})
	return result.RowsAffected > 0, result.Error
}

// Lines returns every line item of every recipe in userID's cart, in the order
// recipes were added to the cart and then line-item order.
func (r *ShoppingCartRepo) Lines(ctx context.Context, userID uint) ([]ShoppingCartLine, error) {
	var lines []ShoppingCartLine
	err := r.db.WithContext(ctx).
		Table("shopping_cart_recipes AS sc").
		Select("sc.recipe_id, ingredients.name, ingredients.measurement_unit, ria.amount").
		Joins("JOIN recipe_ingredient_amounts AS ria ON ria.recipe_id = sc.recipe_id").
		Joins("JOIN ingredients ON ingredients.id = ria.ingredient_id").
		Where("sc.user_id = ?", userID).
		Order("sc.id").
		Order("ria.id").
		Scan(&lines).Error
	return lines, err
}

type SubscriptionRepo struct {
	db *gorm.DB
}

func NewSubscriptionRepo(db *gorm.DB) *SubscriptionRepo {
	return &SubscriptionRepo{db}
}

// Exists reports whether subscriberID follows userID
func (r *SubscriptionRepo) Exists(ctx context.Context, userID, subscriberID uint) (bool, error) {
	return rowExists(ctx, r.db, &models.Subscription{}, "user_id = ? AND subscriber_id = ?", userID, subscriberID)
}

// Add makes subscriberID follow userID
func (r *SubscriptionRepo) Add(ctx context.Context, userID, subscriberID uint) error {
	return r.db.WithContext(ctx).
		Omit("User", "Subscriber").
		Create(&models.Subscription{UserID: userID, SubscriberID: subscriberID}).Error
}

// Delete removes a subscription and reports whether one existed
func (r *SubscriptionRepo) Delete(ctx context.Context, userID, subscriberID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND subscriber_id = ?", userID, subscriberID).
		Delete(&models.Subscription{})
	return result.RowsAffected > 0, result.Error
}

// FollowedAmong returns which of authorIDs subscriberID follows
func (r *SubscriptionRepo) FollowedAmong(ctx context.Context, subscriberID uint, authorIDs []uint) (map[uint]bool, error) {
	followed := make(map[uint]bool, len(authorIDs))
	if subscriberID == 0 || len(authorIDs) == 0 {
		return followed, nil
	}

	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("subscriber_id = ? AND user_id IN ?", subscriberID, authorIDs).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		followed[id] = true
	}
	return followed, nil
}

// FindAuthors returns one page of the users subscriberID follows, in the
// order they were followed, and the total number followed.
func (r *SubscriptionRepo) FindAuthors(ctx context.Context, subscriberID uint, page Page) ([]*models.User, int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("subscriber_id = ?", subscriberID).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var users []*models.User
	err = r.db.WithContext(ctx).
		Joins("JOIN subscriptions ON subscriptions.user_id = users.id").
		Where("subscriptions.subscriber_id = ?", subscriberID).
		Order("subscriptions.id").
		Limit(page.Size).
		Offset(page.Offset()).
		Find(&users).Error
	return users, total, err
}

type RevokedTokenRepo struct {
	db *gorm.DB
}

func NewRevokedTokenRepo(db *gorm.DB) *RevokedTokenRepo {
	return &RevokedTokenRepo{db}
}

// Revoke blacklists jti until expiresAt. Revoking twice is not an error.
func (r *RevokedTokenRepo) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	exists, err := rowExists(ctx, r.db, &models.RevokedToken{}, "jti = ?", jti)
	if err != nil || exists {
		return err
	}
	return r.db.WithContext(ctx).Create(&models.RevokedToken{JTI: jti, ExpiresAt: expiresAt}).Error
}

// IsRevoked reports whether jti has been blacklisted
func (r *RevokedTokenRepo) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return rowExists(ctx, r.db, &models.RevokedToken{}, "jti = ?", jti)
}

// PurgeExpired drops entries for tokens that can no longer be presented anyway
func (r *RevokedTokenRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&models.RevokedToken{})
	return result.RowsAffected, result.Error
}

func rowExists(ctx context.Context, db *gorm.DB, model any, query string, args ...any) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Model(model).Where(query, args...).Limit(1).Count(&count).Error
	return count > 0, err
}
