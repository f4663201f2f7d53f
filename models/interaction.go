package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrSelfSubscription = errors.New("users cannot subscribe to themselves")

// FavoriteRecipe records that a user marked a recipe as a favorite
type FavoriteRecipe struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_favorite_user_recipe"`
	RecipeID  uint      `gorm:"not null;uniqueIndex:idx_favorite_user_recipe;index:idx_favorite_recipe_id"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	User   User   `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	Recipe Recipe `gorm:"foreignKey:RecipeID;references:ID;constraint:OnDelete:CASCADE"`
}

// ShoppingCartRecipe records that a recipe is in a user's shopping cart
type ShoppingCartRecipe struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_cart_user_recipe"`
	RecipeID  uint      `gorm:"not null;uniqueIndex:idx_cart_user_recipe;index:idx_cart_recipe_id"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	User   User   `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	Recipe Recipe `gorm:"foreignKey:RecipeID;references:ID;constraint:OnDelete:CASCADE"`
}

// Subscription records that Subscriber follows the recipes of User
type Subscription struct {
	ID           uint      `gorm:"primaryKey"`
	UserID       uint      `gorm:"not null;uniqueIndex:idx_subscription_user_subscriber;check:chk_subscription_not_self,user_id <> subscriber_id"`
	SubscriberID uint      `gorm:"not null;uniqueIndex:idx_subscription_user_subscriber;index:idx_subscription_subscriber_id"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`

	User       User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	Subscriber User `gorm:"foreignKey:SubscriberID;references:ID;constraint:OnDelete:CASCADE"`
}

func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	if s.UserID == s.SubscriberID {
		return ErrSelfSubscription
	}
	return nil
}

// RevokedToken blacklists an access token until it would have expired anyway
type RevokedToken struct {
	JTI       string    `gorm:"type:varchar(64);primaryKey"`
	ExpiresAt time.Time `gorm:"not null;index:idx_revoked_token_expires_at"`
}
