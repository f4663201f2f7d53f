package api

import (
	"net/http"

	"github.com/rpupo63/foodgram-backend/database"
	"github.com/rpupo63/foodgram-backend/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// catalogHandler serves the read-only ingredient and tag reference data
type catalogHandler struct {
	responder      Responder
	logger         zerolog.Logger
	ingredientRepo *database.IngredientRepo
	tagRepo        *database.TagRepo
}

func newCatalogHandler(ingredientRepo *database.IngredientRepo, tagRepo *database.TagRepo) catalogHandler {
	logger := log.With().Str("handlerName", "catalogHandler").Logger()

	return catalogHandler{
		responder:      NewResponder(logger),
		logger:         logger,
		ingredientRepo: ingredientRepo,
		tagRepo:        tagRepo,
	}
}

// getIngredients searches ingredients by name prefix
// @Summary List ingredients
// @Description Case-insensitive prefix search on the ingredient name, not paginated
// @Tags Ingredients
// @Produce json
// @Param name query string false "Name prefix"
// @Success 200 {array} models.Ingredient
// @Router /ingredients/ [get]
func (h catalogHandler) getIngredients() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ingredients, err := h.ingredientRepo.Search(r.Context(), r.URL.Query().Get("name"))
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "ingredients", err))
			return
		}
		if ingredients == nil {
			ingredients = []*models.Ingredient{}
		}
		h.responder.WriteJSON(w, ingredients)
	}
}

// getIngredient returns one ingredient
// @Summary Get ingredient
// @Tags Ingredients
// @Produce json
// @Param ingredientID path int true "Ingredient ID"
// @Success 200 {object} models.Ingredient
// @Failure 404 {object} ErrorResponse "Not Found - Ingredient not found"
// @Router /ingredients/{ingredientID}/ [get]
func (h catalogHandler) getIngredient() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIDParam(r, "ingredientID", "ingredient")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		ingredient, err := h.ingredientRepo.FindByID(r.Context(), id)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "ingredient", err))
			return
		}
		h.responder.WriteJSON(w, ingredient)
	}
}

// getAllTags lists every tag
// @Summary List tags
// @Tags Tags
// @Produce json
// @Success 200 {array} models.Tag
// @Router /tags/ [get]
func (h catalogHandler) getAllTags() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tags, err := h.tagRepo.FindAll(r.Context())
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "tags", err))
			return
		}
		if tags == nil {
			tags = []*models.Tag{}
		}
		h.responder.WriteJSON(w, tags)
	}
}

// getTag returns one tag
// @Summary Get tag
// @Tags Tags
// @Produce json
// @Param tagID path int true "Tag ID"
// @Success 200 {object} models.Tag
// @Failure 404 {object} ErrorResponse "Not Found - Tag not found"
// @Router /tags/{tagID}/ [get]
func (h catalogHandler) getTag() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIDParam(r, "tagID", "tag")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		tag, err := h.tagRepo.FindByID(r.Context(), id)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "tag", err))
			return
		}
		h.responder.WriteJSON(w, tag)
	}
}
