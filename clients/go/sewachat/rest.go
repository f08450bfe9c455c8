package sewachat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
}

// APIError is an error returned by the REST surface.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("sewahome error %s: %s", e.Code, e.Message)
}

// HistoryPage is one page of conversation history, oldest first.
type HistoryPage struct {
	Items      []Message `json:"items"`
	Total      int64     `json:"total"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

// ConversationEntry is a conversation summary with the peer and listing
// embedded when available.
type ConversationEntry struct {
	Conversation
	OtherUser *struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"other_user,omitempty"`
	Listing *struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	} `json:"listing,omitempty"`
}

// SendMessageREST sends a message over HTTP. Use it when durability matters
// more than latency, for example when tearing down a session with sends
// still pending. dedupKey is optional and is echoed to the sender's live
// sessions so an optimistic entry can be reconciled.
func (s *Session) SendMessageREST(recipientID, listingID, content, dedupKey string) (*Message, error) {
	body := map[string]string{
		"recipient_id": recipientID,
		"content":      content,
	}
	if listingID != "" {
		body["listing_id"] = listingID
	}
	if dedupKey != "" {
		body["dedup_key"] = dedupKey
	}

	var msg Message
	if err := s.doJSON("POST", "/v1/messages", body, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// History fetches a page of messages exchanged with peerID, oldest first.
// Pass the previous page's NextCursor to continue; an empty cursor starts
// from the beginning.
func (s *Session) History(peerID, listingID, cursor string, limit int) (*HistoryPage, error) {
	q := url.Values{}
	if listingID != "" {
		q.Set("listing_id", listingID)
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	path := "/v1/conversations/" + url.PathEscape(peerID) + "/messages"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var page HistoryPage
	if err := s.doJSON("GET", path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Conversations lists the caller's conversations, most recent first.
func (s *Session) Conversations() ([]ConversationEntry, error) {
	var entries []ConversationEntry
	if err := s.doJSON("GET", "/v1/conversations", nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// MarkReadREST marks the conversation with peerID read over HTTP.
func (s *Session) MarkReadREST(peerID, listingID, uptoMessageID string) error {
	body := map[string]string{"upto_message_id": uptoMessageID}
	if listingID != "" {
		body["listing_id"] = listingID
	}
	return s.doJSON("PUT", "/v1/conversations/"+url.PathEscape(peerID)+"/read", body, nil)
}

// Block blocks userID from messaging the caller.
func (s *Session) Block(userID string) error {
	return s.doJSON("POST", "/v1/blocks", map[string]string{"user_id": userID}, nil)
}

// Unblock removes a block previously placed on userID.
func (s *Session) Unblock(userID string) error {
	return s.doJSON("DELETE", "/v1/blocks/"+url.PathEscape(userID), nil, nil)
}

func (s *Session) doJSON(method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, s.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("sewahome: unexpected response (%d): %w", resp.StatusCode, err)
	}

	if !envelope.Success {
		if envelope.Error != nil {
			envelope.Error.Status = resp.StatusCode
			return envelope.Error
		}
		return fmt.Errorf("sewahome error %d", resp.StatusCode)
	}

	if out != nil && len(envelope.Data) > 0 {
		return json.Unmarshal(envelope.Data, out)
	}
	return nil
}
