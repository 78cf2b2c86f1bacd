package auth

import (
	"context"

	"github.com/fekuna/omnipos-restaurant-service/internal/model"
)

type Repository interface {
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	Count(ctx context.Context) (int, error)
}
