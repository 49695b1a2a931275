// Package services implements the preview backend's business logic: resource
// registration, descriptor issuance, and preview token rotation.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophview/internal/common"
	"github.com/dmitrijs2005/gophview/internal/format"
	sc "github.com/dmitrijs2005/gophview/internal/server/config"
	"github.com/dmitrijs2005/gophview/internal/server/models"
	"github.com/dmitrijs2005/gophview/internal/server/repositories/repomanager"
)

// PreviewService issues preview descriptors for stored resources.
type PreviewService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	signer                       URLSigner
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	editorEnabled                bool
	now                          func() time.Time
}

func NewPreviewService(db *sql.DB, m repomanager.RepositoryManager, signer URLSigner, cfg *sc.Config) *PreviewService {
	return &PreviewService{
		db:                           db,
		repomanager:                  m,
		signer:                       signer,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		editorEnabled:                cfg.EditorEnabled,
		now:                          time.Now,
	}
}

// StrategyHint picks the hint advertised for a resource class.
func StrategyHint(class format.Class, editorEnabled bool) string {
	switch class {
	case format.Office:
		if editorEnabled {
			return models.HintExternalEditor
		}
		return models.HintDownload
	case format.PDF:
		return models.HintPDF
	case format.Image, format.Video, format.Hyperlink:
		return models.HintDirect
	default:
		return models.HintDownload
	}
}

// Register validates and stores resource metadata. Hyperlinks need an
// absolute http(s) LinkURL; everything else needs a StorageKey.
func (s *PreviewService) Register(ctx context.Context, r *models.Resource) (*models.Resource, error) {
	r.Name = strings.TrimSpace(r.Name)
	r.DeclaredType = strings.TrimSpace(r.DeclaredType)

	if r.Name == "" && r.DeclaredType == "" {
		return nil, fmt.Errorf("%w: name or declared type is required", common.ErrorInvalidArgument)
	}

	if format.Classify(r.DeclaredType, r.Name) == format.Hyperlink {
		u, err := url.Parse(r.LinkURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("%w: hyperlink needs an absolute http(s) url", common.ErrorInvalidArgument)
		}
	} else if r.StorageKey == "" {
		return nil, fmt.Errorf("%w: storage key is required", common.ErrorInvalidArgument)
	}

	res, err := s.repomanager.Resources(s.db).Create(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("error creating resource: %w", err)
	}
	return res, nil
}

// Describe builds the preview descriptor for resource id. It returns
// common.ErrorNotFound for unknown resources.
func (s *PreviewService) Describe(ctx context.Context, id string) (*models.PreviewDescriptor, error) {
	res, err := s.repomanager.Resources(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error loading resource: %w", err)
	}

	class := format.Classify(res.DeclaredType, res.Name)
	d := &models.PreviewDescriptor{
		StrategyHint: StrategyHint(class, s.editorEnabled),
		ResourceType: res.DeclaredType,
	}

	if class == format.Hyperlink {
		d.PreviewURL = res.LinkURL
		d.DownloadURL = res.LinkURL
		return d, nil
	}

	if d.PreviewURL, err = s.signer.PresignGet(ctx, res.StorageKey, DispositionInline, res.Name); err != nil {
		return nil, fmt.Errorf("error presigning preview url: %w", err)
	}
	if d.DownloadURL, err = s.signer.PresignGet(ctx, res.StorageKey, DispositionAttachment, res.Name); err != nil {
		return nil, fmt.Errorf("error presigning download url: %w", err)
	}

	if d.StrategyHint == models.HintExternalEditor {
		pair, err := s.issueTokens(ctx, s.db, res.ID)
		if err != nil {
			return nil, fmt.Errorf("error issuing preview tokens: %w", err)
		}
		d.AccessToken = pair.AccessToken
		d.TokenExpiry = &pair.TokenExpiry
		d.RefreshToken = pair.RefreshToken
		d.RefreshExpiry = &pair.RefreshExpiry
	}

	return d, nil
}
