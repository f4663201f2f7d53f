package api

import (
	"github.com/rpupo63/foodgram-backend/database"
)

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(database database.Database, router router) *routeHandlers {
	present := presenter{images: router.images}

	return &routeHandlers{
		authHandler:        newAuthHandler(router.tokens, database.UserRepo(), database.RevokedTokenRepo()),
		userHandler:        newUserHandler(present, database.UserRepo(), database.RecipeRepo(), database.SubscriptionRepo()),
		catalogHandler:     newCatalogHandler(database.IngredientRepo(), database.TagRepo()),
		recipeHandler:      newRecipeHandler(present, router.images, database),
		interactionHandler: newInteractionHandler(present, router.renderer, database),
		healthHandler:      newHealthHandler(database, router.startupTime),
	}
}

// routeHandlers contains all the handlers for different route types
type routeHandlers struct {
	authHandler        authHandler
	userHandler        userHandler
	catalogHandler     catalogHandler
	recipeHandler      recipeHandler
	interactionHandler interactionHandler
	healthHandler      healthHandler
}
