package services

import (
	"errors"
	"testing"
	"time"

	"github.com/p1nk23/TgBot/internal/common"
	"github.com/p1nk23/TgBot/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_IssueAndVerify(t *testing.T) {
	s := NewTokenService(&config.Config{SecretKey: "k", AccessTokenValidityDuration: time.Hour})

	tok, err := s.Issue(77)
	require.NoError(t, err)

	owner, err := s.OwnerID(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(77), owner)
}

func TestTokenService_RejectsNonPositiveOwner(t *testing.T) {
	s := NewTokenService(&config.Config{SecretKey: "k", AccessTokenValidityDuration: time.Hour})

	_, err := s.Issue(0)
	assert.True(t, errors.Is(err, common.ErrValidation))
}

func TestTokenService_Expired(t *testing.T) {
	s := NewTokenService(&config.Config{SecretKey: "k", AccessTokenValidityDuration: -time.Second})

	tok, err := s.Issue(1)
	require.NoError(t, err)

	_, err = s.OwnerID(tok)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}
