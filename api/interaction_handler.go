package api

import (
	"bytes"
	"context"
	"net/http"
	"strconv"

	"github.com/rpupo63/foodgram-backend/database"
	"github.com/rpupo63/foodgram-backend/errs"
	"github.com/rpupo63/foodgram-backend/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// recipeRelation is a per-user set of recipes, such as favorites or the cart
type recipeRelation interface {
	Exists(ctx context.Context, userID, recipeID uint) (bool, error)
	Add(ctx context.Context, userID, recipeID uint) error
	Delete(ctx context.Context, userID, recipeID uint) (bool, error)
}

type interactionHandler struct {
	responder    Responder
	logger       zerolog.Logger
	present      presenter
	renderer     services.ShoppingListRenderer
	recipeRepo   *database.RecipeRepo
	favoriteRepo *database.FavoriteRepo
	cartRepo     *database.ShoppingCartRepo
}

func newInteractionHandler(present presenter, renderer services.ShoppingListRenderer, db database.Database) interactionHandler {
	logger := log.With().Str("handlerName", "interactionHandler").Logger()

	return interactionHandler{
		responder:    NewResponder(logger),
		logger:       logger,
		present:      present,
		renderer:     renderer,
		recipeRepo:   db.RecipeRepo(),
		favoriteRepo: db.FavoriteRepo(),
		cartRepo:     db.ShoppingCartRepo(),
	}
}

// addFavorite marks a recipe as a favorite
// @Summary Add favorite
// @Tags Favorites
// @Produce json
// @Param recipeID path int true "Recipe ID"
// @Success 201 {object} RecipeShortResponse
// @Failure 400 {object} ErrorResponse "Bad Request - Already a favorite"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 404 {object} ErrorResponse "Not Found - Recipe not found"
// @Router /recipes/{recipeID}/favorite/ [post]
func (h interactionHandler) addFavorite() http.HandlerFunc {
	return h.add(h.favoriteRepo, "favorite")
}

// removeFavorite unmarks a favorite
// @Summary Remove favorite
// @Tags Favorites
// @Param recipeID path int true "Recipe ID"
// @Success 204 "Removed"
// @Failure 400 {object} ErrorResponse "Bad Request - Not a favorite"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 404 {object} ErrorResponse "Not Found - Recipe not found"
// @Router /recipes/{recipeID}/favorite/ [delete]
func (h interactionHandler) removeFavorite() http.HandlerFunc {
	return h.remove(h.favoriteRepo, "favorite")
}

// addToShoppingCart puts a recipe in the cart
// @Summary Add to shopping cart
// @Tags Shopping cart
// @Produce json
// @Param recipeID path int true "Recipe ID"
// @Success 201 {object} RecipeShortResponse
// @Failure 400 {object} ErrorResponse "Bad Request - Already in the cart"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 404 {object} ErrorResponse "Not Found - Recipe not found"
// @Router /recipes/{recipeID}/shopping_cart/ [post]
func (h interactionHandler) addToShoppingCart() http.HandlerFunc {
	return h.add(h.cartRepo, "shopping cart entry")
}

// removeFromShoppingCart takes a recipe out of the cart
// @Summary Remove from shopping cart
// @Tags Shopping cart
// @Param recipeID path int true "Recipe ID"
// @Success 204 "Removed"
// @Failure 400 {object} ErrorResponse "Bad Request - Not in the cart"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 404 {object} ErrorResponse "Not Found - Recipe not found"
// @Router /recipes/{recipeID}/shopping_cart/ [delete]
func (h interactionHandler) removeFromShoppingCart() http.HandlerFunc {
	return h.remove(h.cartRepo, "shopping cart entry")
}

func (h interactionHandler) add(relation recipeRelation, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recipeID, err := parseIDParam(r, "recipeID", "recipe")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		recipe, err := h.recipeRepo.FindBare(r.Context(), recipeID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "recipe", err))
			return
		}

		userID := ctxGetViewerID(r.Context())
		exists, err := relation.Exists(r.Context(), userID, recipe.ID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", name, err))
			return
		}
		if exists {
			h.responder.WriteError(w, errs.NewAlreadyExistsError(name))
			return
		}

		// A concurrent duplicate loses on the unique index and maps to 400 as well
		if err := relation.Add(r.Context(), userID, recipe.ID); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("create", name, err))
			return
		}

		h.responder.WriteCreated(w, h.present.recipeShort(r, recipe))
	}
}

func (h interactionHandler) remove(relation recipeRelation, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recipeID, err := parseIDParam(r, "recipeID", "recipe")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		recipe, err := h.recipeRepo.FindBare(r.Context(), recipeID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "recipe", err))
			return
		}

		removed, err := relation.Delete(r.Context(), ctxGetViewerID(r.Context()), recipe.ID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("delete", name, err))
			return
		}
		if !removed {
			h.responder.WriteError(w, errs.NewNotPresentError(name))
			return
		}

		h.responder.WriteNoContent(w)
	}
}

// downloadShoppingCart renders the consolidated shopping list
// @Summary Download shopping list
// @Description Sums the ingredients of every recipe in the cart and returns them as a PDF
// @Tags Shopping cart
// @Produce application/pdf
// @Success 200 {file} file "shopping_list.pdf"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /recipes/download_shopping_cart/ [get]
func (h interactionHandler) downloadShoppingCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lines, err := h.cartRepo.Lines(r.Context(), ctxGetViewerID(r.Context()))
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "shopping cart", err))
			return
		}
		items := services.AggregateShoppingList(lines)

		var buf bytes.Buffer
		if err := h.renderer.Render(&buf, items); err != nil {
			h.responder.WriteError(w, errs.NewInternalErrorWithCause("render shopping list", err))
			return
		}
		ShoppingListsRendered.WithLabelValues(strconv.FormatBool(len(items) == 0)).Inc()

		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="`+services.ShoppingListFilename+`"`)
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.WriteHeader(http.StatusOK)
		if _, err := buf.WriteTo(w); err != nil {
			h.logger.Error().Err(err).Msg("error writing shopping list")
		}
	}
}
