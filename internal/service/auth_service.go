package service

import (
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/PesaGate/pesa_api/internal/config"
	"github.com/PesaGate/pesa_api/internal/utils"
)

// AuthService authenticates the admin operator against the configured
// credentials and issues API tokens.
type AuthService struct {
	username     string
	passwordHash string
}

// NewAuthService constructs an AuthService from the admin config.
func NewAuthService(cfg *config.AdminConfig) *AuthService {
	return &AuthService{username: cfg.Username, passwordHash: cfg.PasswordHash}
}

// Login verifies credentials and returns a signed JWT.
func (s *AuthService) Login(username, password string) (string, error) {
	if username != s.username {
		return "", utils.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)); err != nil {
		return "", utils.ErrInvalidCredentials
	}

	token, err := utils.GenerateJWT(username)
	if err != nil {
		log.Error().Err(err).Msg("Failed to sign token")
		return "", err
	}
	return token, nil
}
