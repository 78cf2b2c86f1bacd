package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-restaurant-service/internal/apperror"
	"github.com/fekuna/omnipos-restaurant-service/internal/auth"
	"github.com/fekuna/omnipos-restaurant-service/internal/auth/dto"
	"github.com/fekuna/omnipos-restaurant-service/internal/model"
	"github.com/fekuna/omnipos-restaurant-service/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const issuer = "restaurant-pos"

type SessionClaims struct {
	jwt.RegisteredClaims
	Role model.Role `json:"role"`
}

type authUseCase struct {
	repo   auth.Repository
	secret []byte
	ttl    time.Duration
	logger logger.ZapLogger
	now    func() time.Time
}

func NewAuthUseCase(repo auth.Repository, secret string, ttl time.Duration, log logger.ZapLogger) auth.UseCase {
	return &authUseCase{
		repo:   repo,
		secret: []byte(secret),
		ttl:    ttl,
		logger: log.Named("auth"),
		now:    time.Now,
	}
}

func (uc *authUseCase) Login(ctx context.Context, input *dto.LoginInput) (*dto.Session, error) {
	user, err := uc.repo.FindByUsername(ctx, strings.TrimSpace(input.Username))
	if err != nil {
		return nil, apperror.Internal(err, "load user")
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)) != nil {
		uc.logger.Info("login rejected", zap.String("username", input.Username))
		return nil, apperror.New(apperror.KindUnauthenticated, "invalid username or password")
	}

	now := uc.now()
	expiresAt := now.Add(uc.ttl)
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Role: user.Role,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(uc.secret)
	if err != nil {
		return nil, apperror.Internal(err, "sign session token")
	}

	return &dto.Session{Token: token, Username: user.Username, Role: user.Role, ExpiresAt: expiresAt}, nil
}

func (uc *authUseCase) Authorize(_ context.Context, token string) auth.UserContext {
	if token == "" {
		return auth.Anonymous
	}

	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return uc.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(uc.now))
	if err != nil || !parsed.Valid || !claims.Role.Valid() {
		return auth.Anonymous
	}
	return auth.UserContext{Username: claims.Subject, Role: claims.Role}
}

func (uc *authUseCase) CreateUser(ctx context.Context, input *dto.CreateUserInput) (*model.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return nil, apperror.New(apperror.KindValidation, "username and password are required")
	}
	if !input.Role.Valid() {
		return nil, apperror.New(apperror.KindValidation, "unknown role %q", input.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Internal(err, "hash password")
	}
	user := &model.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         input.Role,
		CreatedAt:    uc.now().UTC(),
	}
	if err := uc.repo.Create(ctx, user); err != nil {
		return nil, apperror.Internal(err, "create user")
	}
	return user, nil
}
