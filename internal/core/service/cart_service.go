package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

// CartView is a reconciled cart ready for rendering.
type CartView struct {
	Cart domain.Cart
	Totals
}

func (v *CartView) Lines() []domain.LineItem {
	return v.Cart.Items()
}

func (v *CartView) IsEmpty() bool {
	return len(v.Cart) == 0
}

// CartService operates on session carts. Every operation reads the cart, changes
// it in memory and writes it back; concurrent requests for the same visitor are
// not serialized and the last write wins.
type CartService struct {
	carts   port.CartRepository
	catalog port.CatalogRepository
	pricing Pricing
	logger  *zap.Logger
}

func NewCartService(carts port.CartRepository, catalog port.CatalogRepository, pricing Pricing, logger *zap.Logger) *CartService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartService{
		carts:   carts,
		catalog: catalog,
		pricing: pricing,
		logger:  logger,
	}
}

// Add puts one unit of the variant into the visitor's cart and returns the
// resulting line item.
func (s *CartService) Add(ctx context.Context, visitorID string, productID, variantID int64) (domain.LineItem, error) {
	if visitorID == "" {
		return domain.LineItem{}, ErrMissingVisitor
	}

	product, err := s.catalog.FindProduct(ctx, productID)
	if err != nil {
		return domain.LineItem{}, fmt.Errorf("find product %d: %w", productID, err)
	}
	if product == nil {
		return domain.LineItem{}, ErrProductNotFound
	}

	cart, err := s.carts.GetCart(ctx, visitorID)
	if err != nil {
		return domain.LineItem{}, fmt.Errorf("get cart: %w", err)
	}

	item, err := addToCart(cart, product, variantID)
	if err != nil {
		return domain.LineItem{}, err
	}

	if err := s.carts.PutCart(ctx, visitorID, cart); err != nil {
		return domain.LineItem{}, fmt.Errorf("put cart: %w", err)
	}

	s.logger.Debug("item added to cart",
		zap.String("item_key", item.Key().String()),
		zap.Int("quantity", item.Quantity),
	)
	return item, nil
}

// Count returns the number of units in the stored cart for the header badge.
// It neither refreshes nor writes the cart.
func (s *CartService) Count(ctx context.Context, visitorID string) (int, error) {
	if visitorID == "" {
		return 0, ErrMissingVisitor
	}
	stored, err := s.carts.GetCart(ctx, visitorID)
	if err != nil {
		return 0, fmt.Errorf("get cart: %w", err)
	}
	return stored.TotalQuantity(), nil
}

// Reconcile refreshes every stored line item from the catalog, writes the
// refreshed cart back to the store and prices it. Viewing a cart therefore
// always updates what is stored.
func (s *CartService) Reconcile(ctx context.Context, visitorID string) (*CartView, error) {
	if visitorID == "" {
		return nil, ErrMissingVisitor
	}

	stored, err := s.carts.GetCart(ctx, visitorID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	products := make(map[int64]*domain.Product)
	reconciled := make(domain.Cart, len(stored))

	for key, item := range stored {
		product, seen := products[item.ProductID]
		if !seen {
			product, err = s.catalog.FindProduct(ctx, item.ProductID)
			if err != nil {
				return nil, fmt.Errorf("find product %d: %w", item.ProductID, err)
			}
			products[item.ProductID] = product
		}

		if product == nil {
			s.logger.Debug("keeping stale cart item",
				zap.String("item_key", key.String()),
				zap.Int64("product_id", item.ProductID),
			)
		}
		reconciled[key] = refreshItem(item, product)
	}

	if err := s.carts.PutCart(ctx, visitorID, reconciled); err != nil {
		return nil, fmt.Errorf("put cart: %w", err)
	}

	return &CartView{
		Cart:   reconciled,
		Totals: s.pricing.Price(reconciled),
	}, nil
}

// UpdateQuantity sets the quantity of an existing item from untrusted input.
// Zero or negative input removes the item. Unknown keys are ignored. Unlike Add
// the new quantity is not checked against stock.
func (s *CartService) UpdateQuantity(ctx context.Context, visitorID string, key domain.ItemKey, rawQuantity string) error {
	if visitorID == "" {
		return ErrMissingVisitor
	}

	quantity, err := ParseQuantity(rawQuantity)
	if err != nil {
		return err
	}

	cart, err := s.carts.GetCart(ctx, visitorID)
	if err != nil {
		return fmt.Errorf("get cart: %w", err)
	}

	setQuantity(cart, key, quantity)

	if err := s.carts.PutCart(ctx, visitorID, cart); err != nil {
		return fmt.Errorf("put cart: %w", err)
	}
	return nil
}

// Remove deletes the item if present.
func (s *CartService) Remove(ctx context.Context, visitorID string, key domain.ItemKey) error {
	if visitorID == "" {
		return ErrMissingVisitor
	}

	cart, err := s.carts.GetCart(ctx, visitorID)
	if err != nil {
		return fmt.Errorf("get cart: %w", err)
	}

	delete(cart, key)

	if err := s.carts.PutCart(ctx, visitorID, cart); err != nil {
		return fmt.Errorf("put cart: %w", err)
	}
	return nil
}

// ParseQuantity reads a requested quantity. Negative values become 0 and values
// above domain.MaxRequestedQuantity are rejected.
func ParseQuantity(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidQuantity)
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidQuantity, raw)
	}
	if n > domain.MaxRequestedQuantity {
		return 0, fmt.Errorf("%w: %d exceeds %d", ErrInvalidQuantity, n, domain.MaxRequestedQuantity)
	}
	return max(0, n), nil
}

// ParseItemKey converts a key taken from a URL into an ItemKey.
func ParseItemKey(raw string) (domain.ItemKey, error) {
	key, err := domain.ParseItemKey(raw)
	if err != nil {
		return domain.ItemKey{}, fmt.Errorf("%w: %w", ErrInvalidItemKey, err)
	}
	return key, nil
}

func addToCart(cart domain.Cart, product *domain.Product, variantID int64) (domain.LineItem, error) {
	variant, ok := product.FindVariant(variantID)
	if !ok {
		return domain.LineItem{}, ErrInvalidVariant
	}

	key := domain.NewItemKey(product.ID, variant.ID)

	if item, exists := cart[key]; exists {
		if item.Quantity >= domain.QuantityCap(variant.Stock) {
			return domain.LineItem{}, ErrStockLimitReached
		}
		item.Quantity++
		cart[key] = item
		return item, nil
	}

	item := domain.LineItem{
		ProductID: product.ID,
		VariantID: variant.ID,
		Name:      product.Name,
		PhotoURL:  product.FirstPhoto(),
		Price:     variant.Price,
		Quantity:  1,
		Variant:   variant.Name,
		Ukuran:    variant.Size,
		MaxStock:  variant.Stock,
	}
	cart[key] = item
	return item, nil
}

// refreshItem applies current catalog data to a stored item. A nil product
// keeps the stored item as is. A missing variant refreshes only the product
// level fields. Quantity always comes from the stored item.
func refreshItem(item domain.LineItem, product *domain.Product) domain.LineItem {
	if product == nil {
		return item
	}

	item.Name = product.Name
	item.PhotoURL = product.FirstPhoto()

	variant, ok := product.FindVariant(item.VariantID)
	if !ok {
		return item
	}

	item.Price = variant.Price
	item.Variant = variant.Name
	item.Ukuran = variant.Size
	item.MaxStock = variant.Stock
	return item
}

func setQuantity(cart domain.Cart, key domain.ItemKey, quantity int) {
	item, ok := cart[key]
	if !ok {
		return
	}
	if quantity == 0 {
		delete(cart, key)
		return
	}
	item.Quantity = quantity
	cart[key] = item
}
