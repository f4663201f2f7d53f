package api

import (
	"net/http"

	"github.com/rpupo63/foodgram-backend/models"
	"github.com/rpupo63/foodgram-backend/services"
)

// ErrorResponse represents an error response from the API
// @Description Error response structure
type ErrorResponse struct {
	Error   string            `json:"error" example:"Internal Server Error"`
	Status  string            `json:"status" example:"error"`
	Field   string            `json:"field,omitempty" example:"name"`
	Details string            `json:"details,omitempty" example:"Additional error details"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type TokenResponse struct {
	AuthToken string `json:"auth_token"`
}

// UserCreatedResponse is returned once, right after registration
type UserCreatedResponse struct {
	Email     string `json:"email"`
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type UserResponse struct {
	Email        string `json:"email"`
	ID           uint   `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

// SubscriptionResponse is a followed author with a preview of their recipes
type SubscriptionResponse struct {
	UserResponse
	Recipes      []RecipeShortResponse `json:"recipes"`
	RecipesCount int64                 `json:"recipes_count"`
}

type RecipeIngredientResponse struct {
	ID              uint                   `json:"id"`
	Name            string                 `json:"name"`
	MeasurementUnit models.MeasurementUnit `json:"measurement_unit"`
	Amount          int                    `json:"amount"`
}

type RecipeResponse struct {
	ID               uint                       `json:"id"`
	Tags             []models.Tag               `json:"tags"`
	Author           UserResponse               `json:"author"`
	Ingredients      []RecipeIngredientResponse `json:"ingredients"`
	IsFavorited      bool                       `json:"is_favorited"`
	IsInShoppingCart bool                       `json:"is_in_shopping_cart"`
	Name             string                     `json:"name"`
	Image            string                     `json:"image"`
	Text             string                     `json:"text"`
	CookingTime      int                        `json:"cooking_time"`
}

// RecipeShortResponse is the compact form used in toggles and subscriptions
type RecipeShortResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Uptime   string `json:"uptime"`
}

// presenter turns models into response bodies. Image keys are resolved through
// the image store and made absolute against the request host.
type presenter struct {
	images services.ImageStore
}

func (p presenter) user(user *models.User, subscribed bool) UserResponse {
	return UserResponse{
		Email:        user.Email,
		ID:           user.ID,
		Username:     user.Username,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		IsSubscribed: subscribed,
	}
}

func (p presenter) imageURL(r *http.Request, key string) string {
	if key == "" || p.images == nil {
		return key
	}
	return absoluteURL(r, p.images.URL(key))
}

func (p presenter) recipe(r *http.Request, recipe *models.Recipe, authorFollowed bool) RecipeResponse {
	tags := recipe.Tags
	if tags == nil {
		tags = []models.Tag{}
	}

	ingredients := make([]RecipeIngredientResponse, 0, len(recipe.IngredientAmounts))
	for _, item := range recipe.IngredientAmounts {
		ingredients = append(ingredients, RecipeIngredientResponse{
			ID:              item.IngredientID,
			Name:            item.Ingredient.Name,
			MeasurementUnit: item.Ingredient.MeasurementUnit,
			Amount:          item.Amount,
		})
	}

	return RecipeResponse{
		ID:               recipe.ID,
		Tags:             tags,
		Author:           p.user(&recipe.Author, authorFollowed),
		Ingredients:      ingredients,
		IsFavorited:      recipe.IsFavorited,
		IsInShoppingCart: recipe.IsInShoppingCart,
		Name:             recipe.Name,
		Image:            p.imageURL(r, recipe.Image),
		Text:             recipe.Text,
		CookingTime:      recipe.CookingTime,
	}
}

func (p presenter) recipeShort(r *http.Request, recipe *models.Recipe) RecipeShortResponse {
	return RecipeShortResponse{
		ID:          recipe.ID,
		Name:        recipe.Name,
		Image:       p.imageURL(r, recipe.Image),
		CookingTime: recipe.CookingTime,
	}
}

func (p presenter) subscription(r *http.Request, author *models.User, recipes []*models.Recipe, total int64) SubscriptionResponse {
	short := make([]RecipeShortResponse, 0, len(recipes))
	for _, recipe := range recipes {
		short = append(short, p.recipeShort(r, recipe))
	}
	return SubscriptionResponse{
		UserResponse: p.user(author, true),
		Recipes:      short,
		RecipesCount: total,
	}
}
