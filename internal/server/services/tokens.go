package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophview/internal/common"
	"github.com/dmitrijs2005/gophview/internal/dbx"
	"github.com/dmitrijs2005/gophview/internal/server/auth"
	"github.com/dmitrijs2005/gophview/internal/server/models"
)

func (s *PreviewService) issueTokens(ctx context.Context, db dbx.DBTX, resourceID string) (*models.TokenPair, error) {
	now := s.now()

	access, accessExpiry, err := auth.GenerateToken(resourceID, s.jwtSecret, now, s.accessTokenValidityDuration)
	if err != nil {
		return nil, err
	}

	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, err
	}
	refreshExpiry := now.Add(s.refreshTokenValidityDuration)

	if err := s.repomanager.RefreshTokens(db).Create(ctx, resourceID, refresh, refreshExpiry); err != nil {
		return nil, err
	}

	return &models.TokenPair{
		AccessToken:   access,
		TokenExpiry:   accessExpiry,
		RefreshToken:  refresh,
		RefreshExpiry: refreshExpiry,
	}, nil
}

// RefreshToken rotates a refresh token: the old token is deleted and a new
// pair is stored in the same transaction. Unknown tokens yield
// common.ErrInvalidToken, expired ones common.ErrRefreshTokenExpired.
func (s *PreviewService) RefreshToken(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	token, err := s.repomanager.RefreshTokens(s.db).Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}

	if !token.Expires.After(s.now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	var pair *models.TokenPair

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.RefreshTokens(tx).Delete(ctx, refreshToken); err != nil {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}

		var err error
		pair, err = s.issueTokens(ctx, tx, token.ResourceID)
		if err != nil {
			return fmt.Errorf("error generating token pair: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return pair, nil
}

// PurgeExpiredTokens removes refresh tokens that can no longer be exchanged.
func (s *PreviewService) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	return s.repomanager.RefreshTokens(s.db).DeleteExpired(ctx, s.now())
}
