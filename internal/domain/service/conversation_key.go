package service

import (
	"sort"
	"strings"

	"sewahome/pkg/errors"
)

// ResolveConversationKey maps a participant pair (and optional listing
// context) to the canonical conversation key. The key is commutative in
// participant order: sorted ids joined by "_", with "_<listingID>" appended
// when the thread is anchored to a listing. Two users therefore share exactly
// one listing-less thread and at most one thread per listing.
//
// Participant ids must be non-empty, distinct and underscore-free (the
// underscore is the key separator).
func ResolveConversationKey(participantA, participantB, listingID string) (string, error) {
	if err := validateParticipant(participantA); err != nil {
		return "", err
	}
	if err := validateParticipant(participantB); err != nil {
		return "", err
	}
	if participantA == participantB {
		return "", errors.InvalidParticipants("You cannot start a conversation with yourself")
	}
	if strings.Contains(listingID, "_") {
		return "", errors.InvalidParticipants("Malformed listing id")
	}

	pair := []string{participantA, participantB}
	sort.Strings(pair)

	key := pair[0] + "_" + pair[1]
	if listingID != "" {
		key = key + "_" + listingID
	}
	return key, nil
}

// ParticipantsFromKey is the inverse of ResolveConversationKey. It returns
// the sorted participant pair and the listing id ("" when absent).
func ParticipantsFromKey(key string) (participantA, participantB, listingID string, err error) {
	parts := strings.Split(key, "_")
	switch len(parts) {
	case 2:
		participantA, participantB = parts[0], parts[1]
	case 3:
		participantA, participantB, listingID = parts[0], parts[1], parts[2]
	default:
		return "", "", "", errors.BadRequest("Malformed conversation key", nil)
	}
	if participantA == "" || participantB == "" || participantA == participantB {
		return "", "", "", errors.BadRequest("Malformed conversation key", nil)
	}
	return participantA, participantB, listingID, nil
}

// IsParticipant reports whether userID is one of the two parties in key.
func IsParticipant(key, userID string) bool {
	a, b, _, err := ParticipantsFromKey(key)
	if err != nil {
		return false
	}
	return userID == a || userID == b
}

func validateParticipant(id string) error {
	if id == "" {
		return errors.InvalidParticipants("Participant id is required")
	}
	if strings.Contains(id, "_") {
		return errors.InvalidParticipants("Malformed participant id")
	}
	return nil
}
