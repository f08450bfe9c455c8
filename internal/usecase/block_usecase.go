package usecase

import (
	"context"

	"sewahome/internal/domain/entity"
	"sewahome/internal/domain/repository"
	"sewahome/internal/infrastructure/ratelimit"
	"sewahome/pkg/errors"
	"sewahome/pkg/logger"
)

// BlockUseCase owns the pairwise block relation. A block is directional, but
// IsBlockedEitherWay checks both directions: the "cannot talk" experience is
// symmetric.
type BlockUseCase struct {
	blockRepo   repository.BlockRepository
	userRepo    repository.UserRepository
	rateLimiter *ratelimit.RateLimiter
}

func NewBlockUseCase(blockRepo repository.BlockRepository, userRepo repository.UserRepository, rateLimiter *ratelimit.RateLimiter) *BlockUseCase {
	return &BlockUseCase{
		blockRepo:   blockRepo,
		userRepo:    userRepo,
		rateLimiter: rateLimiter,
	}
}

func (uc *BlockUseCase) Block(ctx context.Context, blockerID, blockedID string) error {
	if blockedID == "" {
		return errors.Validation("blocked user id is required", nil)
	}
	if blockerID == blockedID {
		return errors.BadRequest("You cannot block yourself", nil)
	}

	if uc.rateLimiter != nil {
		if allowed, waitTime := uc.rateLimiter.Allow(blockerID, "block"); !allowed {
			logger.Warn("Block rate limited: user %s must wait %v", blockerID, waitTime)
			return errors.TooManyRequests("Too many block changes. Please wait before trying again", waitTime)
		}
	}

	if _, err := uc.userRepo.GetByID(ctx, blockedID); err != nil {
		return err
	}

	// Creating an existing block is a no-op rewrite, so retried requests
	// stay idempotent.
	return uc.blockRepo.Create(ctx, &entity.BlockRelation{
		BlockerID: blockerID,
		BlockedID: blockedID,
	})
}

func (uc *BlockUseCase) Unblock(ctx context.Context, blockerID, blockedID string) error {
	if blockedID == "" {
		return errors.Validation("blocked user id is required", nil)
	}
	return uc.blockRepo.Delete(ctx, blockerID, blockedID)
}

// IsBlockedEitherWay is the single gate consulted by both the send path and
// the dispatch path.
func (uc *BlockUseCase) IsBlockedEitherWay(ctx context.Context, a, b string) (bool, error) {
	blocked, err := uc.blockRepo.Exists(ctx, a, b)
	if err != nil {
		return false, err
	}
	if blocked {
		return true, nil
	}
	return uc.blockRepo.Exists(ctx, b, a)
}

func (uc *BlockUseCase) ListBlocks(ctx context.Context, blockerID string) ([]*entity.BlockRelation, error) {
	return uc.blockRepo.ListByBlocker(ctx, blockerID)
}
