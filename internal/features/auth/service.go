package auth

import (
	"context"
	"crypto/subtle"
	"errors"

	"byov-backend/internal/config"
	"byov-backend/pkg/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type AuthService interface {
	Login(ctx context.Context, username, password string) (string, error)
}

type AuthServiceImpl struct {
	Config *config.Config
}

func NewAuthService(cfg *config.Config) AuthService {
	utils.SetSecret(cfg.JWTSecret)
	return &AuthServiceImpl{
		Config: cfg,
	}
}

// Login checks the configured admin credentials and mints a JWT. Login is
// disabled entirely while no admin password is configured.
func (s *AuthServiceImpl) Login(ctx context.Context, username, password string) (string, error) {
	if s.Config.AdminPassword == "" {
		return "", ErrInvalidCredentials
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.Config.AdminUser)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.Config.AdminPassword)) == 1
	if !userOK || !passOK {
		return "", ErrInvalidCredentials
	}

	return utils.GenerateToken(primitive.NewObjectID(), []string{"admin"})
}
