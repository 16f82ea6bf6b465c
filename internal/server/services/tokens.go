package services

import (
	"fmt"
	"time"

	"github.com/p1nk23/TgBot/internal/common"
	"github.com/p1nk23/TgBot/internal/server/auth"
	"github.com/p1nk23/TgBot/internal/server/config"
)

// TokenService mints and verifies access tokens. Owners are provisioned
// out of band: an operator issues a token for an owner id and hands it to
// the client.
type TokenService struct {
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
}

// NewTokenService constructs a TokenService from server config.
func NewTokenService(cfg *config.Config) *TokenService {
	return &TokenService{
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
	}
}

// Issue returns a signed access token for ownerID.
func (s *TokenService) Issue(ownerID int64) (string, error) {
	if ownerID <= 0 {
		return "", fmt.Errorf("owner id must be positive: %w", common.ErrValidation)
	}
	return auth.GenerateToken(ownerID, s.jwtSecret, s.accessTokenValidityDuration)
}

// OwnerID verifies token and returns the owner it was issued for.
func (s *TokenService) OwnerID(token string) (int64, error) {
	return auth.GetOwnerIDFromToken(token, s.jwtSecret)
}
