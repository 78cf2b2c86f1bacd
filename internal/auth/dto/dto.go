package dto

import (
	"time"

	"github.com/fekuna/omnipos-restaurant-service/internal/model"
)

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CreateUserInput struct {
	Username string     `yaml:"username"`
	Password string     `yaml:"password"`
	Role     model.Role `yaml:"role"`
}

type Session struct {
	Token     string     `json:"token"`
	Username  string     `json:"username"`
	Role      model.Role `json:"role"`
	ExpiresAt time.Time  `json:"expires_at"`
}
