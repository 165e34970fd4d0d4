package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/dataroom-api/internal/drive"
	"github.com/noah-isme/dataroom-api/internal/models"
	"github.com/noah-isme/dataroom-api/internal/repository"
	appErrors "github.com/noah-isme/dataroom-api/pkg/errors"
)

type driveCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type cacheObserver interface {
	RecordCacheOperation(hit bool)
}

// DriveService lists the caller's remote documents, caching pages briefly so
// repeated browsing does not hammer the provider.
type DriveService struct {
	tokens    importTokenRepository
	cache     driveCache
	metrics   cacheObserver
	logger    *zap.Logger
	newClient ContentClientFactory
	cacheTTL  time.Duration
}

// NewDriveService constructs a DriveService instance. metrics may be nil.
func NewDriveService(tokens importTokenRepository, cache driveCache, metrics cacheObserver, logger *zap.Logger, newClient ContentClientFactory, cacheTTL time.Duration) *DriveService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &DriveService{
		tokens:    tokens,
		cache:     cache,
		metrics:   metrics,
		logger:    logger,
		newClient: newClient,
		cacheTTL:  cacheTTL,
	}
}

// List returns one page of the caller's remote documents.
func (s *DriveService) List(ctx context.Context, actor *models.User, query, pageToken string) (*drive.ListPage, error) {
	if actor == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required")
	}

	key := repository.DriveListKey(actor.ID, query, pageToken)
	cached := &drive.ListPage{}
	if err := s.cache.Get(ctx, key, cached); err == nil {
		if s.metrics != nil {
			s.metrics.RecordCacheOperation(true)
		}
		return cached, nil
	}
	if s.metrics != nil {
		s.metrics.RecordCacheOperation(false)
	}

	token, err := s.tokens.FindByUserAndProvider(ctx, actor.ID, models.ProviderGoogle)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "no connected google account")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load provider token")
	}

	bundle := drive.TokenBundle{AccessToken: token.AccessToken}
	if token.RefreshToken != nil {
		bundle.RefreshToken = *token.RefreshToken
	}
	client := s.newClient(bundle)

	page, err := client.List(ctx, query, pageToken)
	if err != nil {
		if errors.Is(err, drive.ErrUnauthorized) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "google authorization expired; reconnect your account")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "drive listing failed")
	}

	if client.Refreshed() {
		if err := s.tokens.UpdateAccessToken(ctx, actor.ID, models.ProviderGoogle, client.AccessToken()); err != nil {
			s.logger.Warn("failed to persist refreshed access token",
				zap.String("user_id", actor.ID),
				zap.Error(err))
		}
	}

	if err := s.cache.Set(ctx, key, page, s.cacheTTL); err != nil {
		s.logger.Debug("failed to cache drive listing", zap.Error(err))
	}

	return page, nil
}
