package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/rpupo63/foodgram-backend/database"
	"github.com/rpupo63/foodgram-backend/errs"
	"github.com/rpupo63/foodgram-backend/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type userHandler struct {
	responder        Responder
	logger           zerolog.Logger
	present          presenter
	userRepo         *database.UserRepo
	recipeRepo       *database.RecipeRepo
	subscriptionRepo *database.SubscriptionRepo
}

func newUserHandler(present presenter, userRepo *database.UserRepo, recipeRepo *database.RecipeRepo, subscriptionRepo *database.SubscriptionRepo) userHandler {
	logger := log.With().Str("handlerName", "userHandler").Logger()

	return userHandler{
		responder:        NewResponder(logger),
		logger:           logger,
		present:          present,
		userRepo:         userRepo,
		recipeRepo:       recipeRepo,
		subscriptionRepo: subscriptionRepo,
	}
}

type userCreateRequest struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Username  string `json:"username" validate:"required,max=150,username"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
	Password  string `json:"password" validate:"required,max=128"`
}

type setPasswordRequest struct {
	NewPassword     string `json:"new_password" validate:"required,max=128"`
	CurrentPassword string `json:"current_password" validate:"required"`
}

// getAllUsers lists users with the requester's subscription flag
// @Summary List users
// @Tags Users
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} PaginatedResponse[UserResponse]
// @Failure 404 {object} ErrorResponse "Not Found - Invalid page"
// @Router /users/ [get]
func (h userHandler) getAllUsers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := parsePage(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		users, total, err := h.userRepo.FindAll(r.Context(), page)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "users", err))
			return
		}

		ids := make([]uint, 0, len(users))
		for _, user := range users {
			ids = append(ids, user.ID)
		}
		followed, err := h.subscriptionRepo.FollowedAmong(r.Context(), ctxGetViewerID(r.Context()), ids)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "subscriptions", err))
			return
		}

		results := make([]UserResponse, 0, len(users))
		for _, user := range users {
			results = append(results, h.present.user(user, followed[user.ID]))
		}

		response, err := newPaginatedResponse(r, page, total, results)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, response)
	}
}

// createUser registers a new account
// @Summary Register
// @Tags Users
// @Accept json
// @Produce json
// @Param body body userCreateRequest true "New account"
// @Success 201 {object} UserCreatedResponse
// @Failure 400 {object} ErrorResponse "Bad Request - Validation failed or email/username taken"
// @Router /users/ [post]
func (h userHandler) createUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var request userCreateRequest
		if err := decodeJSON(r, &request); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		taken := make(map[string]string)
		if _, err := h.userRepo.FindByEmail(r.Context(), request.Email); err == nil {
			taken["email"] = "A user with that email already exists."
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			h.responder.WriteError(w, wrapDatabaseError("find", "user", err))
			return
		}
		if _, err := h.userRepo.FindByUsername(r.Context(), request.Username); err == nil {
			taken["username"] = "A user with that username already exists."
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			h.responder.WriteError(w, wrapDatabaseError("find", "user", err))
			return
		}
		if len(taken) > 0 {
			h.responder.WriteError(w, errs.NewValidationError(taken))
			return
		}

		user := models.User{
			Email:     request.Email,
			Username:  request.Username,
			FirstName: request.FirstName,
			LastName:  request.LastName,
		}
		if err := user.SetPassword(request.Password); err != nil {
			h.responder.WriteError(w, errs.NewInvalidFieldError("password", err.Error()))
			return
		}

		if err := h.userRepo.Add(r.Context(), &user); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("create", "user", err))
			return
		}

		h.logger.Info().Uint("userID", user.ID).Msg("user registered")
		h.responder.WriteCreated(w, UserCreatedResponse{
			Email:     user.Email,
			ID:        user.ID,
			Username:  user.Username,
			FirstName: user.FirstName,
			LastName:  user.LastName,
		})
	}
}

// getMe returns the authenticated user
// @Summary Current user
// @Tags Users
// @Produce json
// @Success 200 {object} UserResponse
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /users/me/ [get]
func (h userHandler) getMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.responder.WriteJSON(w, h.present.user(ctxGetUser(r.Context()), false))
	}
}

// setPassword changes the authenticated user's password
// @Summary Change password
// @Tags Users
// @Accept json
// @Param body body setPasswordRequest true "Passwords"
// @Success 204 "Password changed"
// @Failure 400 {object} ErrorResponse "Bad Request - Wrong current password"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /users/set_password/ [post]
func (h userHandler) setPassword() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var request setPasswordRequest
		if err := decodeJSON(r, &request); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		user := ctxGetUser(r.Context())
		if !user.CheckPassword(request.CurrentPassword) {
			h.responder.WriteError(w, errs.NewInvalidFieldError("current_password", "password is incorrect"))
			return
		}

		updated := *user
		if err := updated.SetPassword(request.NewPassword); err != nil {
			h.responder.WriteError(w, errs.NewInvalidFieldError("new_password", err.Error()))
			return
		}
		if err := h.userRepo.UpdatePassword(r.Context(), user.ID, updated.PasswordHash); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("update", "user", err))
			return
		}

		h.responder.WriteNoContent(w)
	}
}

// getUser returns one user
// @Summary Get user
// @Tags Users
// @Produce json
// @Param userID path int true "User ID"
// @Success 200 {object} UserResponse
// @Failure 404 {object} ErrorResponse "Not Found - User not found"
// @Router /users/{userID}/ [get]
func (h userHandler) getUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := parseIDParam(r, "userID", "user")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		user, err := h.userRepo.FindByID(r.Context(), userID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "user", err))
			return
		}

		subscribed := false
		if viewerID := ctxGetViewerID(r.Context()); viewerID != 0 {
			subscribed, err = h.subscriptionRepo.Exists(r.Context(), user.ID, viewerID)
			if err != nil {
				h.responder.WriteError(w, wrapDatabaseError("find", "subscription", err))
				return
			}
		}

		h.responder.WriteJSON(w, h.present.user(user, subscribed))
	}
}

// getSubscriptions lists the authors the requester follows with their recipes
// @Summary List subscriptions
// @Tags Users
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param recipes_limit query int false "Recipes shown per author"
// @Success 200 {object} PaginatedResponse[SubscriptionResponse]
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /users/subscriptions/ [get]
func (h userHandler) getSubscriptions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := parsePage(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		authors, total, err := h.subscriptionRepo.FindAuthors(r.Context(), ctxGetViewerID(r.Context()), page)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "subscriptions", err))
			return
		}

		results := make([]SubscriptionResponse, 0, len(authors))
		for _, author := range authors {
			subscription, err := h.subscriptionFor(r, author)
			if err != nil {
				h.responder.WriteError(w, err)
				return
			}
			results = append(results, subscription)
		}

		response, err := newPaginatedResponse(r, page, total, results)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteJSON(w, response)
	}
}

// subscribe makes the requester follow an author
// @Summary Subscribe
// @Tags Users
// @Produce json
// @Param userID path int true "Author ID"
// @Param recipes_limit query int false "Recipes shown"
// @Success 201 {object} SubscriptionResponse
// @Failure 400 {object} ErrorResponse "Bad Request - Already subscribed or self-subscription"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 404 {object} ErrorResponse "Not Found - User not found"
// @Router /users/{userID}/subscribe/ [post]
func (h userHandler) subscribe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		author, ok := h.targetAuthor(w, r)
		if !ok {
			return
		}

		subscriberID := ctxGetViewerID(r.Context())
		if author.ID == subscriberID {
			h.responder.WriteError(w, errs.NewSelfReferenceError("subscription"))
			return
		}

		exists, err := h.subscriptionRepo.Exists(r.Context(), author.ID, subscriberID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "subscription", err))
			return
		}
		if exists {
			h.responder.WriteError(w, errs.NewAlreadyExistsError("subscription"))
			return
		}

		if err := h.subscriptionRepo.Add(r.Context(), author.ID, subscriberID); err != nil {
			if errors.Is(err, models.ErrSelfSubscription) {
				h.responder.WriteError(w, errs.NewSelfReferenceError("subscription"))
				return
			}
			h.responder.WriteError(w, wrapDatabaseError("create", "subscription", err))
			return
		}

		subscription, err := h.subscriptionFor(r, author)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		h.responder.WriteCreated(w, subscription)
	}
}

// unsubscribe stops following an author
// @Summary Unsubscribe
// @Tags Users
// @Param userID path int true "Author ID"
// @Success 204 "Unsubscribed"
// @Failure 400 {object} ErrorResponse "Bad Request - Not subscribed"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 404 {object} ErrorResponse "Not Found - User not found"
// @Router /users/{userID}/subscribe/ [delete]
func (h userHandler) unsubscribe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		author, ok := h.targetAuthor(w, r)
		if !ok {
			return
		}

		removed, err := h.subscriptionRepo.Delete(r.Context(), author.ID, ctxGetViewerID(r.Context()))
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("delete", "subscription", err))
			return
		}
		if !removed {
			h.responder.WriteError(w, errs.NewNotPresentError("subscription"))
			return
		}

		h.responder.WriteNoContent(w)
	}
}

func (h userHandler) targetAuthor(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	authorID, err := parseIDParam(r, "userID", "user")
	if err != nil {
		h.responder.WriteError(w, err)
		return nil, false
	}
	author, err := h.userRepo.FindByID(r.Context(), authorID)
	if err != nil {
		h.responder.WriteError(w, wrapDatabaseError("find", "user", err))
		return nil, false
	}
	return author, true
}

// subscriptionFor loads an author's newest recipes, limited by the
// recipes_limit query parameter, and their recipe count.
func (h userHandler) subscriptionFor(r *http.Request, author *models.User) (SubscriptionResponse, error) {
	recipes, err := h.recipeRepo.FindByAuthor(r.Context(), author.ID, recipesLimit(r))
	if err != nil {
		return SubscriptionResponse{}, wrapDatabaseError("find", "recipes", err)
	}
	counts, err := h.recipeRepo.CountByAuthors(r.Context(), []uint{author.ID})
	if err != nil {
		return SubscriptionResponse{}, wrapDatabaseError("count", "recipes", err)
	}
	return h.present.subscription(r, author, recipes, counts[author.ID]), nil
}

// recipesLimit returns the recipes_limit query parameter, or zero for no limit
func recipesLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("recipes_limit"))
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}
