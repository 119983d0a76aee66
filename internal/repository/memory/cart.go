package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	apperrors "github.com/utafrali/grocify/pkg/errors"

	"github.com/utafrali/grocify/internal/domain"
)

// CartRepository keeps carts in process memory, encoded the same way the
// Redis store encodes them.
type CartRepository struct {
	mu    sync.Mutex
	carts map[string][]byte
}

// NewCartRepository creates an empty in-memory cart repository.
func NewCartRepository() *CartRepository {
	return &CartRepository{carts: make(map[string][]byte)}
}

// Get returns the session's cart.
func (r *CartRepository) Get(_ context.Context, sessionID string) (*domain.Cart, error) {
	r.mu.Lock()
	data, ok := r.carts[sessionID]
	r.mu.Unlock()

	if !ok {
		return nil, apperrors.NotFound("cart", sessionID)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}
	return &cart, nil
}

// Save overwrites the session's cart.
func (r *CartRepository) Save(_ context.Context, sessionID string, cart *domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}

	r.mu.Lock()
	r.carts[sessionID] = data
	r.mu.Unlock()
	return nil
}

// Delete drops the session's cart.
func (r *CartRepository) Delete(_ context.Context, sessionID string) error {
	r.mu.Lock()
	delete(r.carts, sessionID)
	r.mu.Unlock()
	return nil
}
