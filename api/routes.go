package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRoutes mounts the API under /api. Reads are open to anonymous users,
// writes and per-user views need a token.
func setupRoutes(r chi.Router, handlers *routeHandlers, authMiddleware authMiddleware, loginLimiter func(http.Handler) http.Handler, mediaRoot string) {
	r.Get("/health", handlers.healthHandler.getHealth())
	r.Handle("/metrics", promhttp.Handler())
	if mediaRoot != "" {
		r.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(http.Dir(mediaRoot))))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.identify)

		r.With(loginLimiter).Post("/auth/token/login", handlers.authHandler.login())

		// Catalog endpoints
		r.Get("/ingredients", handlers.catalogHandler.getIngredients())
		r.Get("/ingredients/{ingredientID}", handlers.catalogHandler.getIngredient())
		r.Get("/tags", handlers.catalogHandler.getAllTags())
		r.Get("/tags/{tagID}", handlers.catalogHandler.getTag())

		// Public user endpoints
		r.Get("/users", handlers.userHandler.getAllUsers())
		r.Post("/users", handlers.userHandler.createUser())
		r.Get("/users/{userID}", handlers.userHandler.getUser())

		// Public recipe endpoints
		r.Get("/recipes", handlers.recipeHandler.getAllRecipes())
		r.Get("/recipes/{recipeID}", handlers.recipeHandler.getRecipe())

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.authenticate)

			r.Post("/auth/token/logout", handlers.authHandler.logout())

			r.Get("/users/me", handlers.userHandler.getMe())
			r.Post("/users/set_password", handlers.userHandler.setPassword())
			r.Get("/users/subscriptions", handlers.userHandler.getSubscriptions())
			r.Post("/users/{userID}/subscribe", handlers.userHandler.subscribe())
			r.Delete("/users/{userID}/subscribe", handlers.userHandler.unsubscribe())

			r.Post("/recipes", handlers.recipeHandler.createRecipe())
			r.Patch("/recipes/{recipeID}", handlers.recipeHandler.updateRecipe())
			r.Delete("/recipes/{recipeID}", handlers.recipeHandler.deleteRecipe())

			r.Get("/recipes/download_shopping_cart", handlers.interactionHandler.downloadShoppingCart())
			r.Post("/recipes/{recipeID}/favorite", handlers.interactionHandler.addFavorite())
			r.Delete("/recipes/{recipeID}/favorite", handlers.interactionHandler.removeFavorite())
			r.Post("/recipes/{recipeID}/shopping_cart", handlers.interactionHandler.addToShoppingCart())
			r.Delete("/recipes/{recipeID}/shopping_cart", handlers.interactionHandler.removeFromShoppingCart())
		})
	})
}
