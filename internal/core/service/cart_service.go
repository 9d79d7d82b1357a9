package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/petstore-orders/internal/core/domain"
	"github.com/rl1809/petstore-orders/internal/observability"
	"github.com/rl1809/petstore-orders/internal/port"
)

// CartService owns a member's cart lines and checks them against the catalog.
type CartService struct {
	db     port.DatabaseRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewCartService(db port.DatabaseRepository, logger *zap.Logger) *CartService {
	return &CartService{
		db:     db,
		logger: observability.OrDefault(logger),
		now:    time.Now,
	}
}

func (s *CartService) GetCart(ctx context.Context, memberID int64) (domain.Cart, error) {
	items, err := s.db.Carts().ListByMember(ctx, memberID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("list cart items: %w", err)
	}
	return domain.NewCart(memberID, items), nil
}

// AddItem captures the product's current effective price. Adding a product that is
// already in the cart merges the quantities into the existing line.
func (s *CartService) AddItem(ctx context.Context, memberID, productID int64, quantity int) (domain.Cart, error) {
	if quantity < 1 {
		return domain.Cart{}, domain.ErrInvalidQuantity
	}

	err := s.db.WithinTx(ctx, func(ctx context.Context, tx port.Store) error {
		product, err := tx.Products().FindByID(ctx, productID)
		if err != nil {
			return err
		}

		now := s.now()
		existing, err := tx.Carts().FindByMemberAndProduct(ctx, memberID, productID)
		switch {
		case errors.Is(err, domain.ErrCartItemNotFound):
			if quantity > product.StockQuantity {
				return fmt.Errorf("%w: product %d has %d left", domain.ErrInsufficientStock, productID, product.StockQuantity)
			}
			return tx.Carts().Insert(ctx, &domain.CartItem{
				MemberID:  memberID,
				ProductID: productID,
				Quantity:  quantity,
				UnitPrice: product.EffectivePrice(),
				CreatedAt: now,
				UpdatedAt: now,
			})
		case err != nil:
			return err
		}

		total := existing.Quantity + quantity
		if total > product.StockQuantity {
			return fmt.Errorf("%w: product %d has %d left", domain.ErrInsufficientStock, productID, product.StockQuantity)
		}
		existing.Quantity = total
		existing.UnitPrice = product.EffectivePrice()
		existing.UpdatedAt = now
		return tx.Carts().Update(ctx, *existing)
	})
	if err != nil {
		return domain.Cart{}, err
	}

	s.logger.Info("cart item added",
		zap.Int64("member_id", memberID),
		zap.Int64("product_id", productID),
		zap.Int("quantity", quantity),
	)
	return s.GetCart(ctx, memberID)
}

// UpdateQuantity sets the quantity of an existing line. The captured price is kept.
func (s *CartService) UpdateQuantity(ctx context.Context, memberID, productID int64, quantity int) (domain.Cart, error) {
	if quantity < 1 {
		return domain.Cart{}, domain.ErrInvalidQuantity
	}

	err := s.db.WithinTx(ctx, func(ctx context.Context, tx port.Store) error {
		item, err := tx.Carts().FindByMemberAndProduct(ctx, memberID, productID)
		if err != nil {
			return err
		}
		product, err := tx.Products().FindByID(ctx, productID)
		if err != nil {
			return err
		}
		if quantity > product.StockQuantity {
			return fmt.Errorf("%w: product %d has %d left", domain.ErrInsufficientStock, productID, product.StockQuantity)
		}
		if item.Quantity == quantity {
			return nil
		}

		item.Quantity = quantity
		item.UpdatedAt = s.now()
		return tx.Carts().Update(ctx, *item)
	})
	if err != nil {
		return domain.Cart{}, err
	}
	return s.GetCart(ctx, memberID)
}

func (s *CartService) RemoveItem(ctx context.Context, memberID, productID int64) (domain.Cart, error) {
	removed, err := s.db.Carts().Delete(ctx, memberID, productID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("remove cart item: %w", err)
	}
	if !removed {
		return domain.Cart{}, domain.ErrCartItemNotFound
	}
	return s.GetCart(ctx, memberID)
}

func (s *CartService) ClearCart(ctx context.Context, memberID int64) error {
	if err := s.db.Carts().DeleteByMember(ctx, memberID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// Validate compares every line with the live catalog and collects all mismatches.
// It never writes.
func (s *CartService) Validate(ctx context.Context, memberID int64) (domain.ValidationResult, error) {
	items, err := s.db.Carts().ListByMember(ctx, memberID)
	if err != nil {
		return domain.ValidationResult{}, fmt.Errorf("list cart items: %w", err)
	}
	return validateItems(ctx, s.db.Products(), items)
}

// ValidateStock reports whether every line can be fulfilled from current stock.
func (s *CartService) ValidateStock(ctx context.Context, memberID int64) (bool, error) {
	result, err := s.Validate(ctx, memberID)
	if err != nil {
		return false, err
	}
	return !result.HasOutOfStock(), nil
}

// RefreshPrices rewrites stale captured prices with the current effective price.
// Lines that are already correct are not written, so their UpdatedAt is preserved.
func (s *CartService) RefreshPrices(ctx context.Context, memberID int64) (int, error) {
	var refreshed int

	err := s.db.WithinTx(ctx, func(ctx context.Context, tx port.Store) error {
		refreshed = 0
		items, err := tx.Carts().ListByMember(ctx, memberID)
		if err != nil {
			return fmt.Errorf("list cart items: %w", err)
		}

		now := s.now()
		for _, item := range items {
			product, err := tx.Products().FindByID(ctx, item.ProductID)
			if errors.Is(err, domain.ErrProductNotFound) {
				continue
			}
			if err != nil {
				return err
			}

			price := product.EffectivePrice()
			if item.UnitPrice.Equal(price) {
				continue
			}
			item.UnitPrice = price
			item.UpdatedAt = now
			if err := tx.Carts().Update(ctx, item); err != nil {
				return fmt.Errorf("update cart item price: %w", err)
			}
			refreshed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if refreshed > 0 {
		s.logger.Info("cart prices refreshed", zap.Int64("member_id", memberID), zap.Int("items", refreshed))
	}
	return refreshed, nil
}

// validateItems is shared by the cart endpoints and checkout. A product that no
// longer exists is reported as out of stock.
func validateItems(ctx context.Context, products port.ProductRepository, items []domain.CartItem) (domain.ValidationResult, error) {
	result := domain.ValidationResult{Errors: []domain.ValidationError{}}

	for _, item := range items {
		product, err := products.FindByID(ctx, item.ProductID)
		if errors.Is(err, domain.ErrProductNotFound) {
			result.Errors = append(result.Errors, domain.ValidationError{
				Type:      domain.ValidationOutOfStock,
				ProductID: item.ProductID,
				Details:   "product is no longer available",
			})
			continue
		}
		if err != nil {
			return domain.ValidationResult{}, fmt.Errorf("load product %d: %w", item.ProductID, err)
		}

		if item.Quantity > product.StockQuantity {
			result.Errors = append(result.Errors, domain.ValidationError{
				Type:      domain.ValidationOutOfStock,
				ProductID: item.ProductID,
				Details:   fmt.Sprintf("requested %d, available %d", item.Quantity, product.StockQuantity),
			})
		}

		if price := product.EffectivePrice(); !item.UnitPrice.Equal(price) {
			result.Errors = append(result.Errors, domain.ValidationError{
				Type:      domain.ValidationPriceChanged,
				ProductID: item.ProductID,
				Details:   fmt.Sprintf("cart price %s, current price %s", item.UnitPrice.String(), price.String()),
			})
		}
	}

	result.Valid = len(result.Errors) == 0
	return result, nil
}
