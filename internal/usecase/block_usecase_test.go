package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sewahome/pkg/errors"
)

func newBlockFixture(t *testing.T) (*BlockUseCase, *fakeBlockRepo) {
	t.Helper()
	blockRepo := newFakeBlockRepo()
	userRepo := newFakeUserRepo("anita", "bram")
	return NewBlockUseCase(blockRepo, userRepo, nil), blockRepo
}

func TestBlockRejectsSelfAndUnknownUsers(t *testing.T) {
	uc, _ := newBlockFixture(t)
	ctx := context.Background()

	err := uc.Block(ctx, "anita", "anita")
	require.Error(t, err)
	assert.True(t, errors.Is(err, "BAD_REQUEST"))

	err = uc.Block(ctx, "anita", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, "VALIDATION_ERROR"))

	err = uc.Block(ctx, "anita", "ghost")
	require.Error(t, err)
	assert.True(t, errors.Is(err, "NOT_FOUND"))
}

func TestBlockIsIdempotent(t *testing.T) {
	uc, _ := newBlockFixture(t)
	ctx := context.Background()

	require.NoError(t, uc.Block(ctx, "anita", "bram"))
	require.NoError(t, uc.Block(ctx, "anita", "bram"))

	blocks, err := uc.ListBlocks(ctx, "anita")
	require.NoError(t, err)
	assert.Len(t, blocks, 1)
}

func TestIsBlockedEitherWayChecksBothDirections(t *testing.T) {
	uc, _ := newBlockFixture(t)
	ctx := context.Background()

	blocked, err := uc.IsBlockedEitherWay(ctx, "anita", "bram")
	require.NoError(t, err)
	assert.False(t, blocked)

	require.NoError(t, uc.Block(ctx, "anita", "bram"))

	blocked, err = uc.IsBlockedEitherWay(ctx, "anita", "bram")
	require.NoError(t, err)
	assert.True(t, blocked)

	// Arguments reversed: the gate is symmetric.
	blocked, err = uc.IsBlockedEitherWay(ctx, "bram", "anita")
	require.NoError(t, err)
	assert.True(t, blocked)

	require.NoError(t, uc.Unblock(ctx, "anita", "bram"))
	blocked, err = uc.IsBlockedEitherWay(ctx, "bram", "anita")
	require.NoError(t, err)
	assert.False(t, blocked)
}
