package models

import "time"

const (
	MinCookingTime      = 1
	MinIngredientAmount = 1
)

// Recipe is a user-authored dish composed of tagged ingredient line items.
// IsFavorited and IsInShoppingCart are never stored; they are filled in by
// queries that annotate a recipe for a specific requester.
type Recipe struct {
	ID                uint                     `json:"id" gorm:"primaryKey"`
	AuthorID          uint                     `json:"author_id" gorm:"not null;index:idx_recipe_author_id"`
	Name              string                   `json:"name" gorm:"type:varchar(256);not null"`
	Image             string                   `json:"image" gorm:"type:text;not null"`
	Text              string                   `json:"text" gorm:"type:text;not null;default:''"`
	CookingTime       int                      `json:"cooking_time" gorm:"not null;check:chk_recipe_cooking_time,cooking_time >= 1"`
	CreatedAt         time.Time                `json:"created_at" gorm:"autoCreateTime"`
	Author            User                     `json:"author" gorm:"foreignKey:AuthorID;references:ID;constraint:OnDelete:CASCADE"`
	Tags              []Tag                    `json:"tags" gorm:"many2many:recipe_tags;constraint:OnDelete:CASCADE"`
	IngredientAmounts []RecipeIngredientAmount `json:"ingredients" gorm:"foreignKey:RecipeID;references:ID;constraint:OnDelete:CASCADE"`

	IsFavorited      bool `json:"is_favorited" gorm:"->;-:migration"`
	IsInShoppingCart bool `json:"is_in_shopping_cart" gorm:"->;-:migration"`
}

// RecipeIngredientAmount is one line item: how much of an ingredient a recipe uses
type RecipeIngredientAmount struct {
	ID           uint       `json:"-" gorm:"primaryKey"`
	RecipeID     uint       `json:"-" gorm:"not null;uniqueIndex:idx_recipe_ingredient_unique"`
	IngredientID uint       `json:"id" gorm:"not null;uniqueIndex:idx_recipe_ingredient_unique;index:idx_recipe_ingredient_ingredient_id"`
	Amount       int        `json:"amount" gorm:"not null;check:chk_recipe_ingredient_amount,amount >= 1"`
	Ingredient   Ingredient `json:"ingredient" gorm:"foreignKey:IngredientID;references:ID;constraint:OnDelete:CASCADE"`
}
