package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rpupo63/foodgram-backend/database"
	"github.com/rpupo63/foodgram-backend/errs"
	"github.com/rpupo63/foodgram-backend/models"
	"github.com/rpupo63/foodgram-backend/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type recipeHandler struct {
	responder        Responder
	logger           zerolog.Logger
	present          presenter
	images           services.ImageStore
	recipeRepo       *database.RecipeRepo
	userRepo         *database.UserRepo
	ingredientRepo   *database.IngredientRepo
	tagRepo          *database.TagRepo
	subscriptionRepo *database.SubscriptionRepo
}

func newRecipeHandler(present presenter, images services.ImageStore, db database.Database) recipeHandler {
	logger := log.With().Str("handlerName", "recipeHandler").Logger()

	return recipeHandler{
		responder:        NewResponder(logger),
		logger:           logger,
		present:          present,
		images:           images,
		recipeRepo:       db.RecipeRepo(),
		userRepo:         db.UserRepo(),
		ingredientRepo:   db.IngredientRepo(),
		tagRepo:          db.TagRepo(),
		subscriptionRepo: db.SubscriptionRepo(),
	}
}

type ingredientAmountRequest struct {
	ID     uint `json:"id" validate:"required"`
	Amount int  `json:"amount" validate:"gte=1"`
}

type recipeWriteRequest struct {
	Tags        []uint                    `json:"tags" validate:"required,min=1,unique,dive,required"`
	Ingredients []ingredientAmountRequest `json:"ingredients" validate:"required,min=1,unique=ID,dive"`
	Name        string                    `json:"name" validate:"required,max=256"`
	Image       string                    `json:"image" validate:"required"`
	Text        string                    `json:"text" validate:"required"`
	CookingTime int                       `json:"cooking_time" validate:"gte=1"`
}

// recipePatchRequest leaves absent fields untouched; tags and ingredients,
// when sent, replace the current ones and may not be empty.
type recipePatchRequest struct {
	Tags        *[]uint                    `json:"tags" validate:"omitnil,min=1,unique,dive,required"`
	Ingredients *[]ingredientAmountRequest `json:"ingredients" validate:"omitnil,min=1,unique=ID,dive"`
	Name        *string                    `json:"name" validate:"omitnil,min=1,max=256"`
	Image       *string                    `json:"image" validate:"omitnil,min=1"`
	Text        *string                    `json:"text" validate:"omitnil,min=1"`
	CookingTime *int                       `json:"cooking_time" validate:"omitnil,gte=1"`
}

// getAllRecipes lists recipes newest first
// @Summary List recipes
// @Tags Recipes
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param author query int false "Author ID"
// @Param tags query []string false "Tag slugs, any of" collectionFormat(multi)
// @Param is_favorited query int false "1 to show favorites only"
// @Param is_in_shopping_cart query int false "1 to show the cart only"
// @Success 200 {object} PaginatedResponse[RecipeResponse]
// @Failure 404 {object} ErrorResponse "Not Found - Invalid page or unknown author"
// @Router /recipes/ [get]
func (h recipeHandler) getAllRecipes() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := parsePage(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		query := r.URL.Query()
		filter := database.RecipeFilter{
			ViewerID:           ctxGetViewerID(r.Context()),
			TagSlugs:           query["tags"],
			OnlyFavorited:      query.Get("is_favorited") == "1",
			OnlyInShoppingCart: query.Get("is_in_shopping_cart") == "1",
		}
		if raw := query.Get("author"); raw != "" {
			authorID, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				h.responder.WriteError(w, errs.NewNotFoundError("author not found"))
				return
			}
			author, err := h.userRepo.FindByID(r.Context(), uint(authorID))
			if err != nil {
				h.responder.WriteError(w, wrapDatabaseError("find", "author", err))
				return
			}
			filter.AuthorID = author.ID
		}

		recipes, total, err := h.recipeRepo.List(r.Context(), filter, page)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "recipes", err))
			return
		}

		results, err := h.presentRecipes(r, recipes)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		response, err := newPaginatedResponse(r, page, total, results)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, response)
	}
}

// getRecipe returns one recipe
// @Summary Get recipe
// @Tags Recipes
// @Produce json
// @Param recipeID path int true "Recipe ID"
// @Success 200 {object} RecipeResponse
// @Failure 404 {object} ErrorResponse "Not Found - Recipe not found"
// @Router /recipes/{recipeID}/ [get]
func (h recipeHandler) getRecipe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recipeID, err := parseIDParam(r, "recipeID", "recipe")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		recipe, err := h.recipeRepo.FindByID(r.Context(), recipeID, ctxGetViewerID(r.Context()))
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "recipe", err))
			return
		}

		response, err := h.presentRecipe(r, recipe)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, response)
	}
}

// createRecipe publishes a recipe authored by the requester
// @Summary Create recipe
// @Tags Recipes
// @Accept json
// @Produce json
// @Param body body recipeWriteRequest true "Recipe"
// @Success 201 {object} RecipeResponse
// @Failure 400 {object} ErrorResponse "Bad Request - Validation failed"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 404 {object} ErrorResponse "Not Found - Unknown tag or ingredient"
// @Router /recipes/ [post]
func (h recipeHandler) createRecipe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var request recipeWriteRequest
		if err := decodeJSON(r, &request); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		ctx := r.Context()
		if err := h.checkTags(ctx, request.Tags); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		items, err := h.lineItems(ctx, request.Ingredients)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		imageKey, err := h.storeImage(ctx, request.Image)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		author := ctxGetUser(ctx)
		recipe := models.Recipe{
			AuthorID:    author.ID,
			Name:        request.Name,
			Image:       imageKey,
			Text:        request.Text,
			CookingTime: request.CookingTime,
		}
		if err := h.recipeRepo.Create(ctx, &recipe, request.Tags, items); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("create", "recipe", err))
			return
		}
		h.logger.Info().Uint("recipeID", recipe.ID).Uint("authorID", author.ID).Msg("recipe created")

		h.writeFresh(w, r, recipe.ID, http.StatusCreated)
	}
}

// updateRecipe changes a recipe owned by the requester
// @Summary Update recipe
// @Tags Recipes
// @Accept json
// @Produce json
// @Param recipeID path int true "Recipe ID"
// @Param body body recipePatchRequest true "Fields to change"
// @Success 200 {object} RecipeResponse
// @Failure 400 {object} ErrorResponse "Bad Request - Validation failed"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 403 {object} ErrorResponse "Forbidden - Not the author"
// @Failure 404 {object} ErrorResponse "Not Found - Recipe, tag or ingredient not found"
// @Router /recipes/{recipeID}/ [patch]
func (h recipeHandler) updateRecipe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recipe, ok := h.ownRecipe(w, r)
		if !ok {
			return
		}

		var request recipePatchRequest
		if err := decodeJSON(r, &request); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		ctx := r.Context()
		var tagIDs []uint
		if request.Tags != nil {
			tagIDs = *request.Tags
			if err := h.checkTags(ctx, tagIDs); err != nil {
				h.responder.WriteError(w, err)
				return
			}
		}
		var items []models.RecipeIngredientAmount
		if request.Ingredients != nil {
			var err error
			if items, err = h.lineItems(ctx, *request.Ingredients); err != nil {
				h.responder.WriteError(w, err)
				return
			}
		}
		if request.Image != nil {
			imageKey, err := h.storeImage(ctx, *request.Image)
			if err != nil {
				h.responder.WriteError(w, err)
				return
			}
			recipe.Image = imageKey
		}
		if request.Name != nil {
			recipe.Name = *request.Name
		}
		if request.Text != nil {
			recipe.Text = *request.Text
		}
		if request.CookingTime != nil {
			recipe.CookingTime = *request.CookingTime
		}

		if err := h.recipeRepo.Update(ctx, recipe, tagIDs, items); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("update", "recipe", err))
			return
		}

		h.writeFresh(w, r, recipe.ID, http.StatusOK)
	}
}

// deleteRecipe removes a recipe owned by the requester
// @Summary Delete recipe
// @Tags Recipes
// @Param recipeID path int true "Recipe ID"
// @Success 204 "Recipe deleted"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 403 {object} ErrorResponse "Forbidden - Not the author"
// @Failure 404 {object} ErrorResponse "Not Found - Recipe not found"
// @Router /recipes/{recipeID}/ [delete]
func (h recipeHandler) deleteRecipe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recipe, ok := h.ownRecipe(w, r)
		if !ok {
			return
		}

		if err := h.recipeRepo.Delete(r.Context(), recipe.ID); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("delete", "recipe", err))
			return
		}
		h.logger.Info().Uint("recipeID", recipe.ID).Msg("recipe deleted")

		h.responder.WriteNoContent(w)
	}
}

// ownRecipe loads the recipe named in the URL and checks the requester wrote it
func (h recipeHandler) ownRecipe(w http.ResponseWriter, r *http.Request) (*models.Recipe, bool) {
	recipeID, err := parseIDParam(r, "recipeID", "recipe")
	if err != nil {
		h.responder.WriteError(w, err)
		return nil, false
	}

	recipe, err := h.recipeRepo.FindBare(r.Context(), recipeID)
	if err != nil {
		h.responder.WriteError(w, wrapDatabaseError("find", "recipe", err))
		return nil, false
	}
	if recipe.AuthorID != ctxGetViewerID(r.Context()) {
		h.responder.WriteError(w, errs.NewNotAuthorError("recipe"))
		return nil, false
	}
	return recipe, true
}

func (h recipeHandler) checkTags(ctx context.Context, ids []uint) error {
	found, err := h.tagRepo.FindByIDs(ctx, ids)
	if err != nil {
		return wrapDatabaseError("find", "tags", err)
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return errs.NewNotFoundError(fmt.Sprintf("tag %d not found", id))
		}
	}
	return nil
}

func (h recipeHandler) lineItems(ctx context.Context, requested []ingredientAmountRequest) ([]models.RecipeIngredientAmount, error) {
	ids := make([]uint, 0, len(requested))
	for _, item := range requested {
		ids = append(ids, item.ID)
	}
	found, err := h.ingredientRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, wrapDatabaseError("find", "ingredients", err)
	}

	items := make([]models.RecipeIngredientAmount, 0, len(requested))
	for _, item := range requested {
		if _, ok := found[item.ID]; !ok {
			return nil, errs.NewNotFoundError(fmt.Sprintf("ingredient %d not found", item.ID))
		}
		items = append(items, models.RecipeIngredientAmount{IngredientID: item.ID, Amount: item.Amount})
	}
	return items, nil
}

func (h recipeHandler) storeImage(ctx context.Context, dataURL string) (string, error) {
	img, err := services.DecodeDataURL(dataURL)
	if err != nil {
		ImagesStored.WithLabelValues("rejected").Inc()
		return "", errs.NewInvalidFieldError("image", err.Error())
	}
	key, err := h.images.Save(ctx, img)
	if err != nil {
		ImagesStored.WithLabelValues("failed").Inc()
		return "", errs.NewInternalErrorWithCause("store image", err)
	}
	ImagesStored.WithLabelValues("stored").Inc()
	return key, nil
}

// writeFresh reads a just-written recipe back from the primary and writes it
func (h recipeHandler) writeFresh(w http.ResponseWriter, r *http.Request, recipeID uint, status int) {
	recipe, err := h.recipeRepo.FindFresh(r.Context(), recipeID, ctxGetViewerID(r.Context()))
	if err != nil {
		h.responder.WriteError(w, wrapDatabaseError("find", "recipe", err))
		return
	}
	response, err := h.presentRecipe(r, recipe)
	if err != nil {
		h.responder.WriteError(w, err)
		return
	}
	h.responder.WriteJSONStatus(w, status, response)
}

func (h recipeHandler) presentRecipe(r *http.Request, recipe *models.Recipe) (RecipeResponse, error) {
	responses, err := h.presentRecipes(r, []*models.Recipe{recipe})
	if err != nil {
		return RecipeResponse{}, err
	}
	return responses[0], nil
}

// presentRecipes fetches the requester's subscriptions to every author on the
// page in one query.
func (h recipeHandler) presentRecipes(r *http.Request, recipes []*models.Recipe) ([]RecipeResponse, error) {
	authorIDs := make([]uint, 0, len(recipes))
	for _, recipe := range recipes {
		authorIDs = append(authorIDs, recipe.AuthorID)
	}
	followed, err := h.subscriptionRepo.FollowedAmong(r.Context(), ctxGetViewerID(r.Context()), authorIDs)
	if err != nil {
		return nil, wrapDatabaseError("find", "subscriptions", err)
	}

	responses := make([]RecipeResponse, 0, len(recipes))
	for _, recipe := range recipes {
		responses = append(responses, h.present.recipe(r, recipe, followed[recipe.AuthorID]))
	}
	return responses, nil
}
