package repository

import (
	"context"

	"sewahome/internal/domain/entity"
)

type BlockRepository interface {
	Create(ctx context.Context, block *entity.BlockRelation) error
	Delete(ctx context.Context, blockerID, blockedID string) error
	Exists(ctx context.Context, blockerID, blockedID string) (bool, error)
	ListByBlocker(ctx context.Context, blockerID string) ([]*entity.BlockRelation, error)
}
