package handler

import (
	"context"
	"errors"

	"github.com/harryhq/mail-manager/pkg/model"
)

// GetUserFromContext returns the authenticated user. The authentication middleware puts the user
// on the request context so every handler behind it can rely on the user being there.
func GetUserFromContext(ctx context.Context) (*model.User, error) {
	user, ok := model.GetUserFromContext(ctx)
	if !ok {
		return nil, errors.New("user not found on context")
	}
	return user, nil
}
