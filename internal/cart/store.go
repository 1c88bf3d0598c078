package cart

import "sync"

// Store keeps one cart per signed-in session. Carts never leave memory.
//
// Each session has its own lock, so a checkout in progress holds that
// session's cart while other sessions keep working.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	mu      sync.Mutex
	cart    Cart
	dropped bool
}

func NewStore() *Store {
	return &Store{entries: make(map[string]*entry)}
}

// acquire returns the session's entry with its lock held.
func (s *Store) acquire(sessionID string) *entry {
	for {
		s.mu.Lock()
		e, ok := s.entries[sessionID]
		if !ok {
			e = &entry{cart: Cart{Lines: []Line{}}}
			s.entries[sessionID] = e
		}
		s.mu.Unlock()

		e.mu.Lock()
		if !e.dropped {
			return e
		}
		// removed while we waited, start over with a fresh cart
		e.mu.Unlock()
	}
}

// drop must be called with e.mu held.
func (s *Store) drop(sessionID string, e *entry) {
	s.mu.Lock()
	if s.entries[sessionID] == e {
		delete(s.entries, sessionID)
	}
	s.mu.Unlock()
	e.dropped = true
}

// Get returns a copy of the session's cart (empty if none).
func (s *Store) Get(sessionID string) Cart {
	s.mu.Lock()
	e, ok := s.entries[sessionID]
	s.mu.Unlock()
	if !ok {
		return Cart{Lines: []Line{}}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dropped {
		return Cart{Lines: []Line{}}
	}
	return e.cart.Clone()
}

// Update runs fn against the session's cart. On error the cart is left as it was.
func (s *Store) Update(sessionID string, fn func(c *Cart) error) (Cart, error) {
	e := s.acquire(sessionID)
	defer e.mu.Unlock()

	working := e.cart.Clone()
	if err := fn(&working); err != nil {
		return e.cart.Clone(), err
	}
	e.cart = working
	return working.Clone(), nil
}

// Checkout hands fn a copy of the session's cart and keeps the cart locked
// until fn returns. The cart is removed only when fn succeeds, so a second
// checkout of the same session waits and then sees an empty cart.
func (s *Store) Checkout(sessionID string, fn func(c Cart) error) error {
	e := s.acquire(sessionID)
	defer e.mu.Unlock()

	if err := fn(e.cart.Clone()); err != nil {
		return err
	}
	s.drop(sessionID, e)
	return nil
}

func (s *Store) Clear(sessionID string) {
	e := s.acquire(sessionID)
	defer e.mu.Unlock()
	s.drop(sessionID, e)
}
