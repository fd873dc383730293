package domain

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	// MaxQuantityPerItem caps how many units of one variant a cart may hold.
	MaxQuantityPerItem = 99

	// MaxRequestedQuantity bounds a quantity typed in by a visitor. Updates are
	// not checked against stock, so this keeps line totals far from overflow.
	MaxRequestedQuantity = 9999

	// DefaultMaxStock is assumed for persisted items that predate the max_stock field.
	DefaultMaxStock = 99

	itemKeySeparator = "_"
)

var ErrMalformedItemKey = errors.New("malformed item key")

// ItemKey identifies one product variant inside a cart.
type ItemKey struct {
	ProductID int64
	VariantID int64
}

func NewItemKey(productID, variantID int64) ItemKey {
	return ItemKey{ProductID: productID, VariantID: variantID}
}

// ParseItemKey accepts exactly "<productID>_<variantID>" with base-10 ids.
func ParseItemKey(s string) (ItemKey, error) {
	left, right, ok := strings.Cut(s, itemKeySeparator)
	if !ok {
		return ItemKey{}, fmt.Errorf("%w: %q", ErrMalformedItemKey, s)
	}
	productID, err := strconv.ParseInt(left, 10, 64)
	if err != nil {
		return ItemKey{}, fmt.Errorf("%w: %q", ErrMalformedItemKey, s)
	}
	variantID, err := strconv.ParseInt(right, 10, 64)
	if err != nil {
		return ItemKey{}, fmt.Errorf("%w: %q", ErrMalformedItemKey, s)
	}
	return ItemKey{ProductID: productID, VariantID: variantID}, nil
}

func (k ItemKey) String() string {
	return strconv.FormatInt(k.ProductID, 10) + itemKeySeparator + strconv.FormatInt(k.VariantID, 10)
}

func (k ItemKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *ItemKey) UnmarshalText(text []byte) error {
	parsed, err := ParseItemKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// LineItem is one product variant in a cart together with a display snapshot
// taken from the catalog the last time the cart was refreshed.
type LineItem struct {
	ProductID int64
	VariantID int64
	Name      string
	PhotoURL  *string
	Price     Money
	Quantity  int
	Variant   string
	Ukuran    string
	MaxStock  int
}

func (li LineItem) Key() ItemKey {
	return ItemKey{ProductID: li.ProductID, VariantID: li.VariantID}
}

func (li LineItem) LineTotal() Money {
	return li.Price * Money(li.Quantity)
}

// Cart maps item keys to line items. The zero value is not usable; use NewCart
// or let the cart store return one.
type Cart map[ItemKey]LineItem

func NewCart() Cart {
	return make(Cart)
}

func (c Cart) Clone() Cart {
	out := make(Cart, len(c))
	for k, v := range c {
		if v.PhotoURL != nil {
			photo := *v.PhotoURL
			v.PhotoURL = &photo
		}
		out[k] = v
	}
	return out
}

// Keys returns the cart keys ordered by product then variant.
func (c Cart) Keys() []ItemKey {
	keys := make([]ItemKey, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].ProductID != keys[j].ProductID {
			return keys[i].ProductID < keys[j].ProductID
		}
		return keys[i].VariantID < keys[j].VariantID
	})
	return keys
}

// Items returns the line items in Keys order.
func (c Cart) Items() []LineItem {
	keys := c.Keys()
	items := make([]LineItem, 0, len(keys))
	for _, k := range keys {
		items = append(items, c[k])
	}
	return items
}

func (c Cart) TotalQuantity() int {
	n := 0
	for _, item := range c {
		n += item.Quantity
	}
	return n
}

// QuantityCap is the most units an add operation may bring a variant up to.
func QuantityCap(stock int) int {
	return min(MaxQuantityPerItem, stock)
}

// DefaultLineItem is the shape assumed for fields missing from a persisted item
// written by an older schema: ids absent, empty strings, zero price and quantity,
// and a max stock of DefaultMaxStock.
func DefaultLineItem() LineItem {
	return LineItem{MaxStock: DefaultMaxStock}
}
