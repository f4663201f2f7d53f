package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/rpupo63/foodgram-backend/database"
	"github.com/rpupo63/foodgram-backend/errs"
	"github.com/rpupo63/foodgram-backend/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type authHandler struct {
	responder   Responder
	logger      zerolog.Logger
	tokens      services.TokenIssuer
	userRepo    *database.UserRepo
	revokedRepo *database.RevokedTokenRepo
}

func newAuthHandler(tokens services.TokenIssuer, userRepo *database.UserRepo, revokedRepo *database.RevokedTokenRepo) authHandler {
	logger := log.With().Str("handlerName", "authHandler").Logger()

	return authHandler{
		responder:   NewResponder(logger),
		logger:      logger,
		tokens:      tokens,
		userRepo:    userRepo,
		revokedRepo: revokedRepo,
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// login exchanges credentials for an access token
// @Summary Obtain token
// @Description Authenticates by email and password and returns an access token
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body loginRequest true "Credentials"
// @Success 200 {object} TokenResponse "Access token"
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid credentials"
// @Failure 429 {object} ErrorResponse "Too Many Requests"
// @Router /auth/token/login/ [post]
func (h authHandler) login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var request loginRequest
		if err := decodeJSON(r, &request); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		user, err := h.userRepo.FindByEmail(r.Context(), request.Email)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.responder.WriteError(w, errs.NewInvalidCredentialsError())
			return
		}
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "user", err))
			return
		}
		if !user.CheckPassword(request.Password) {
			h.responder.WriteError(w, errs.NewInvalidCredentialsError())
			return
		}

		token, _, err := h.tokens.Issue(user.ID)
		if err != nil {
			h.responder.WriteError(w, errs.NewInternalErrorWithCause("issue token", err))
			return
		}

		h.logger.Info().Uint("userID", user.ID).Msg("token issued")
		h.responder.WriteJSON(w, TokenResponse{AuthToken: token})
	}
}

// logout revokes the token used for this request
// @Summary Revoke token
// @Description Revokes the access token presented with the request
// @Tags Auth
// @Success 204 "Token revoked"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /auth/token/logout/ [post]
func (h authHandler) logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ctxGetClaims(r.Context())
		if !ok {
			h.responder.WriteError(w, errs.Unauthorized)
			return
		}

		if err := h.revokedRepo.Revoke(r.Context(), claims.JTI, claims.Expiry); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("revoke", "token", err))
			return
		}

		// Revoked entries are only needed until the token would have expired
		if purged, err := h.revokedRepo.PurgeExpired(r.Context(), time.Now()); err != nil {
			h.logger.Warn().Err(err).Msg("failed to purge expired revocations")
		} else if purged > 0 {
			h.logger.Debug().Int64("purged", purged).Msg("purged expired revocations")
		}

		h.responder.WriteNoContent(w)
	}
}
