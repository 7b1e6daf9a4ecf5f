package service

import (
	"context"
	"errors"
	"strings"

	"storefront-service/internal/entity"
	"storefront-service/internal/repository"

	"github.com/google/uuid"
)

// CartService owns the persisted side of the per-user cart.
type CartService struct {
	carts CartStore
}

func NewCartService(carts CartStore) *CartService {
	return &CartService{carts: carts}
}

// GetCart returns userID's cart, creating an empty one when none exists.
func (s *CartService) GetCart(ctx context.Context, userID string) (*entity.Cart, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingUser
	}
	cart, err := s.carts.FindOrCreate(ctx, userID)
	if err != nil {
		logger.Error().Err(err).Msgf("Error loading cart for user %s", userID)
		return nil, err
	}
	if cart.Items == nil {
		cart.Items = []entity.CartLine{}
	}
	return cart, nil
}

// SaveCart replaces the whole item list of userID's cart. Lines without an id
// get a fresh one. A non-zero version must be newer than the stored version
// or ErrStaleCart is returned and nothing is written.
func (s *CartService) SaveCart(ctx context.Context, userID string, items []entity.CartLine, version int64) (*entity.Cart, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingUser
	}
	lines, err := normalizeLines(items)
	if err != nil {
		return nil, err
	}

	cart, err := s.carts.Save(ctx, userID, lines, version)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			logger.Warn().Msgf("Rejected stale cart save for user %s at version %d", userID, version)
			return nil, ErrStaleCart
		}
		logger.Error().Err(err).Msgf("Error saving cart for user %s", userID)
		return nil, err
	}
	return cart, nil
}

// ClearCart empties userID's cart.
func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrMissingUser
	}
	if err := s.carts.Clear(ctx, userID); err != nil {
		logger.Error().Err(err).Msgf("Error clearing cart for user %s", userID)
		return err
	}
	return nil
}

func normalizeLines(items []entity.CartLine) ([]entity.CartLine, error) {
	lines := make([]entity.CartLine, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.ProductID) == "" {
			return nil, ErrMissingProduct
		}
		if item.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
		if item.CartItemID == "" {
			item.CartItemID = uuid.NewString()
		}
		lines = append(lines, item)
	}
	return lines, nil
}
