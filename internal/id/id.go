package id

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// New returns a fresh time-ordered transaction ID.
func New() string {
	return uuid.Must(uuid.NewV7()).String()
}

// IsUUID reports whether s is a well-formed UUID of any version.
func IsUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// Sequence hands out predictable IDs like "txn-001", "txn-002".
// Safe for concurrent use.
type Sequence struct {
	mu     sync.Mutex
	prefix string
	next   int
}

// NewSequence creates a Sequence starting at 1.
func NewSequence(prefix string) *Sequence {
	return &Sequence{prefix: prefix, next: 1}
}

// Next returns the next ID in the sequence.
func (s *Sequence) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := FormatSeqID(s.prefix, s.next)
	s.next++
	return out
}

// FormatSeqID returns an ID like "txn-001".
func FormatSeqID(prefix string, seq int) string {
	return fmt.Sprintf("%s-%03d", prefix, seq)
}

// ParseSeqID splits "txn-001" into its prefix and sequence number.
func ParseSeqID(id string) (prefix string, seq int, err error) {
	i := strings.LastIndex(id, "-")
	if i <= 0 || i == len(id)-1 {
		return "", 0, fmt.Errorf("invalid sequence ID format: %q", id)
	}
	seq, err = strconv.Atoi(id[i+1:])
	if err != nil {
		return "", 0, fmt.Errorf("invalid sequence in ID %q: %w", id, err)
	}
	return id[:i], seq, nil
}
