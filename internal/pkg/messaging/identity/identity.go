// Package identity derives canonical conversation identifiers for 1:1 threads.
//
// A conversation id is symmetric: both participants derive the same id
// regardless of argument order, so the gateway and both clients agree on the
// room key without any coordination.
package identity

import (
	"errors"
	"regexp"
	"strings"
)

const (
	// Namespace is the prefix of every well-formed conversation id.
	Namespace = "conv"
	separator = "_"
)

// ErrEmptyParticipant is returned when either participant id is empty.
var ErrEmptyParticipant = errors.New("identity: participant id is empty")

// wellFormed matches the strict conv_<a>_<b> two-segment shape. Ids containing
// the separator character fail the check and fall back to re-derivation.
var wellFormed = regexp.MustCompile(`^conv_[^_]+_[^_]+$`)

// DeriveConversationID returns the canonical id for the pair (idA, idB).
// It is commutative: DeriveConversationID(a, b) == DeriveConversationID(b, a).
func DeriveConversationID(idA, idB string) (string, error) {
	if idA == "" || idB == "" {
		return "", ErrEmptyParticipant
	}
	lo, hi := idA, idB
	if strings.Compare(lo, hi) > 0 {
		lo, hi = hi, lo
	}
	return Namespace + separator + lo + separator + hi, nil
}

// IsWellFormed validates the namespace+separator+two-segment shape of a
// candidate id. It decides whether a peer-supplied id can be trusted verbatim.
func IsWellFormed(candidate string) bool {
	return wellFormed.MatchString(candidate)
}

// Resolve returns candidate when it passes the shape check, otherwise it
// recomputes the id from the two known participant ids. A malformed id from a
// peer is never trusted verbatim.
func Resolve(candidate, idA, idB string) (string, error) {
	if IsWellFormed(candidate) {
		return candidate, nil
	}
	return DeriveConversationID(idA, idB)
}
