package api

import (
	"context"

	"github.com/rpupo63/foodgram-backend/models"
	"github.com/rpupo63/foodgram-backend/services"
)

type keyType string

const (
	userKey   keyType = "user"
	claimsKey keyType = "tokenClaims"
)

// ctxWithUser adds the authenticated user and the token it presented to the context
func ctxWithUser(ctx context.Context, user *models.User, claims services.TokenClaims) context.Context {
	ctx = context.WithValue(ctx, userKey, user)
	return context.WithValue(ctx, claimsKey, claims)
}

// ctxGetUser returns the authenticated user, or nil for an anonymous request
func ctxGetUser(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey).(*models.User)
	return user
}

// ctxGetViewerID returns the authenticated user's id, or zero
func ctxGetViewerID(ctx context.Context) uint {
	if user := ctxGetUser(ctx); user != nil {
		return user.ID
	}
	return 0
}

func ctxGetClaims(ctx context.Context) (services.TokenClaims, bool) {
	claims, ok := ctx.Value(claimsKey).(services.TokenClaims)
	return claims, ok
}
