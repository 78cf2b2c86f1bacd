package auth

import (
	"context"

	"github.com/fekuna/omnipos-restaurant-service/internal/auth/dto"
	"github.com/fekuna/omnipos-restaurant-service/internal/model"
)

type UseCase interface {
	Login(ctx context.Context, input *dto.LoginInput) (*dto.Session, error)
	// Authorize resolves a session token to its caller. Missing, expired or forged
	// tokens resolve to Anonymous rather than an error.
	Authorize(ctx context.Context, token string) UserContext
	CreateUser(ctx context.Context, input *dto.CreateUserInput) (*model.User, error)
}
