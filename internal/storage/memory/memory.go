// Package memory provides an in-process cart.Storage.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/xenking/swag-kart/internal/domain/cart"
)

var _ cart.Storage = (*Storage)(nil)

// Storage keeps encoded cart slots in memory. Slots go through the same codec
// as the durable backends.
type Storage struct {
	mu    sync.RWMutex
	slots map[string][]byte
	saves int
}

// New returns an empty Storage.
func New() *Storage {
	return &Storage{slots: make(map[string][]byte)}
}

// Load decodes the lines stored in slot.
func (s *Storage) Load(_ context.Context, slot string) ([]cart.LineItem, error) {
	raw, ok := s.Raw(slot)
	if !ok {
		return nil, cart.ErrNoSavedCart
	}
	return cart.DecodeLines(raw)
}

// Save encodes lines into slot.
func (s *Storage) Save(_ context.Context, slot string, lines []cart.LineItem) error {
	s.Put(slot, cart.EncodeLines(lines))
	return nil
}

// Raw returns a copy of the encoded contents of slot.
func (s *Storage) Raw(slot string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, ok := s.slots[slot]
	return slices.Clone(raw), ok
}

// Put stores raw bytes in slot as-is.
func (s *Storage) Put(slot string, raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.slots[slot] = slices.Clone(raw)
	s.saves++
}

// Saves returns how many writes the storage has received.
func (s *Storage) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.saves
}

// Ping always succeeds.
func (s *Storage) Ping(context.Context) error {
	return nil
}
