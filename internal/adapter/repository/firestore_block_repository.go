package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"sewahome/internal/domain/entity"
	"sewahome/internal/domain/repository"
	"sewahome/pkg/errors"
)

type firestoreBlockRepository struct {
	client *firestore.Client
}

func NewFirestoreBlockRepository(client *firestore.Client) repository.BlockRepository {
	return &firestoreBlockRepository{
		client: client,
	}
}

// Block documents are keyed blocker_blocked so create/delete/exists are all
// single-document operations.
func blockDocID(blockerID, blockedID string) string {
	return blockerID + "_" + blockedID
}

func (r *firestoreBlockRepository) Create(ctx context.Context, block *entity.BlockRelation) error {
	block.CreatedAt = time.Now()

	docID := blockDocID(block.BlockerID, block.BlockedID)
	if _, err := r.client.Collection("blocks").Doc(docID).Set(ctx, block); err != nil {
		return errors.Internal("Failed to create block", err)
	}
	return nil
}

func (r *firestoreBlockRepository) Delete(ctx context.Context, blockerID, blockedID string) error {
	docID := blockDocID(blockerID, blockedID)
	if _, err := r.client.Collection("blocks").Doc(docID).Delete(ctx); err != nil {
		return errors.Internal("Failed to delete block", err)
	}
	return nil
}

func (r *firestoreBlockRepository) Exists(ctx context.Context, blockerID, blockedID string) (bool, error) {
	docID := blockDocID(blockerID, blockedID)
	_, err := r.client.Collection("blocks").Doc(docID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, errors.Internal("Failed to check block", err)
	}
	return true, nil
}

func (r *firestoreBlockRepository) ListByBlocker(ctx context.Context, blockerID string) ([]*entity.BlockRelation, error) {
	query := r.client.Collection("blocks").
		Where("blockerId", "==", blockerID).
		OrderBy("createdAt", firestore.Desc)

	iter := query.Documents(ctx)
	defer iter.Stop()

	var blocks []*entity.BlockRelation
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate blocks", err)
		}

		var block entity.BlockRelation
		if err := doc.DataTo(&block); err != nil {
			return nil, errors.Internal("Failed to parse block data", err)
		}
		blocks = append(blocks, &block)
	}

	return blocks, nil
}
