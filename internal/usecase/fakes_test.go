package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"sewahome/internal/domain/entity"
	"sewahome/pkg/errors"
)

// In-memory fakes for the repository and dispatcher ports.

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages map[string][]*entity.Message // conversation key -> ascending
	seq      int
	now      time.Time
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{
		messages: make(map[string][]*entity.Message),
		now:      time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
	}
}

func (r *fakeMessageRepo) Append(ctx context.Context, message *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	r.now = r.now.Add(time.Second)
	message.ID = fmt.Sprintf("m%d", r.seq)
	message.CreatedAt = r.now
	r.messages[message.ConversationKey] = append(r.messages[message.ConversationKey], message)
	return nil
}

func (r *fakeMessageRepo) ListSince(ctx context.Context, conversationKey, cursor string, limit int) ([]*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := r.messages[conversationKey]
	start := 0
	if cursor != "" {
		for i, m := range all {
			if m.ID == cursor {
				start = i + 1
				break
			}
		}
	}

	out := make([]*entity.Message, 0, limit)
	for _, m := range all[start:] {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *fakeMessageRepo) MarkRead(ctx context.Context, conversationKey, readerID, uptoMessageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var upto time.Time
	for _, m := range r.messages[conversationKey] {
		if m.ID == uptoMessageID {
			upto = m.CreatedAt
			break
		}
	}
	if upto.IsZero() {
		return errors.NotFound("Message", nil)
	}

	for _, m := range r.messages[conversationKey] {
		if m.CreatedAt.After(upto) || m.SenderID == readerID || m.ReadByUser(readerID) {
			continue
		}
		m.ReadBy = append(m.ReadBy, entity.ReadReceipt{UserID: readerID, ReadAt: r.now})
	}
	return nil
}

func (r *fakeMessageRepo) GetConversation(ctx context.Context, conversationKey string) (*entity.Conversation, error) {
	return nil, errors.NotFound("Conversation", nil)
}

func (r *fakeMessageRepo) ListConversations(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*entity.Conversation
	for key, msgs := range r.messages {
		if len(msgs) == 0 {
			continue
		}
		last := msgs[len(msgs)-1]
		if last.SenderID != userID && last.RecipientID != userID {
			continue
		}
		out = append(out, &entity.Conversation{
			Key:           key,
			Participants:  []string{last.SenderID, last.RecipientID},
			ListingID:     last.ListingID,
			LastMessage:   last.Content,
			LastMessageAt: last.CreatedAt,
			LastSenderID:  last.SenderID,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastMessageAt.After(out[j].LastMessageAt) })
	return out, nil
}

type fakeUserRepo struct {
	users map[string]*entity.User
}

func newFakeUserRepo(ids ...string) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*entity.User)}
	for _, id := range ids {
		r.users[id] = &entity.User{ID: id, Username: id}
	}
	return r
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	return user, nil
}

type fakeListingRepo struct {
	listings map[string]*entity.Listing
}

func newFakeListingRepo(ids ...string) *fakeListingRepo {
	r := &fakeListingRepo{listings: make(map[string]*entity.Listing)}
	for _, id := range ids {
		r.listings[id] = &entity.Listing{ID: id, Title: "Listing " + id}
	}
	return r
}

func (r *fakeListingRepo) GetByID(ctx context.Context, id string) (*entity.Listing, error) {
	listing, ok := r.listings[id]
	if !ok {
		return nil, errors.NotFound("Listing", nil)
	}
	return listing, nil
}

type fakeBlockRepo struct {
	mu     sync.Mutex
	blocks map[string]*entity.BlockRelation
}

func newFakeBlockRepo() *fakeBlockRepo {
	return &fakeBlockRepo{blocks: make(map[string]*entity.BlockRelation)}
}

func blockKey(blockerID, blockedID string) string {
	return blockerID + "|" + blockedID
}

func (r *fakeBlockRepo) Create(ctx context.Context, block *entity.BlockRelation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blocks[blockKey(block.BlockerID, block.BlockedID)] = block
	return nil
}

func (r *fakeBlockRepo) Delete(ctx context.Context, blockerID, blockedID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.blocks, blockKey(blockerID, blockedID))
	return nil
}

func (r *fakeBlockRepo) Exists(ctx context.Context, blockerID, blockedID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.blocks[blockKey(blockerID, blockedID)]
	return ok, nil
}

func (r *fakeBlockRepo) ListByBlocker(ctx context.Context, blockerID string) ([]*entity.BlockRelation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.BlockRelation
	for _, b := range r.blocks {
		if b.BlockerID == blockerID {
			out = append(out, b)
		}
	}
	return out, nil
}

type deliveredMessage struct {
	msg          *entity.Message
	originConnID string
	tempID       string
}

type publishedReceipt struct {
	conversationKey string
	readerID        string
	peerID          string
	uptoMessageID   string
}

type fakeDispatcher struct {
	mu        sync.Mutex
	delivered []deliveredMessage
	receipts  []publishedReceipt
}

func (d *fakeDispatcher) DeliverMessage(ctx context.Context, msg *entity.Message, originConnID, tempID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.delivered = append(d.delivered, deliveredMessage{msg: msg, originConnID: originConnID, tempID: tempID})
}

func (d *fakeDispatcher) PublishReadReceipt(conversationKey, readerID, peerID, uptoMessageID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.receipts = append(d.receipts, publishedReceipt{conversationKey, readerID, peerID, uptoMessageID})
}
