package cart

import (
	"sync"

	"github.com/xenking/swag-kart/internal/domain/catalog"
)

// Listener observes the store after each command. It runs while the store is
// locked and must not call back into the store.
type Listener func(cmd Command, next State)

// Store owns a cart state and applies commands to it one at a time.
type Store struct {
	mu        sync.Mutex
	state     State
	listeners []Listener
}

// NewStore creates a Store holding an empty cart.
func NewStore() *Store {
	return &Store{state: NewState(nil)}
}

// Subscribe registers l to be called after every command.
func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listeners = append(s.listeners, l)
}

// Dispatch applies cmd and returns a snapshot of the resulting state.
func (s *Store) Dispatch(cmd Command) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = Reduce(s.state, cmd)
	for _, l := range s.listeners {
		l(cmd, s.state.Clone())
	}
	return s.state.Clone()
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state.Clone()
}

// AddItem adds quantity units of item with the given variant selection.
// It fails with *InvalidQuantityError when quantity is not positive or exceeds
// MaxQuantity. Item availability is the caller's concern.
func (s *Store) AddItem(item catalog.Item, quantity int, color, size string) (State, error) {
	if quantity <= 0 || quantity > MaxQuantity {
		return s.Snapshot(), &InvalidQuantityError{ItemID: item.ID, Quantity: quantity}
	}
	return s.Dispatch(AddItem{Item: item, Quantity: quantity, Color: color, Size: size}), nil
}

// UpdateQuantity sets the quantity of the lines of catalog item id and
// re-prices them. A non-positive quantity removes them; larger than
// MaxQuantity is clamped.
func (s *Store) UpdateQuantity(id, quantity int) State {
	return s.Dispatch(UpdateQuantity{ID: id, Quantity: quantity})
}

// RemoveItem drops the lines of catalog item id.
func (s *Store) RemoveItem(id int) State {
	return s.Dispatch(RemoveItem{ID: id})
}

// Clear empties the cart.
func (s *Store) Clear() State {
	return s.Dispatch(Clear{})
}

// LoadFrom replaces the cart contents with lines.
func (s *Store) LoadFrom(lines []LineItem) State {
	return s.Dispatch(Load{Lines: lines})
}
