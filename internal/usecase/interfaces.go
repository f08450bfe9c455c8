package usecase

import (
	"context"

	"sewahome/internal/domain/entity"
)

// Dispatcher is the outbound side of the live channel. Implementations must
// never fail a caller: live delivery is best effort once persistence
// succeeded.
type Dispatcher interface {
	DeliverMessage(ctx context.Context, msg *entity.Message, originConnID, tempID string)
	PublishReadReceipt(conversationKey, readerID, peerID, uptoMessageID string)
}
