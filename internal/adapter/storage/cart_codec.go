package storage

import (
	"encoding/json"
	"fmt"

	"github.com/rl1809/storefront/internal/core/domain"
)

// lineItemRecord is the persisted shape of a line item. Every field is a
// pointer so that records written before a field existed decode with
// domain.DefaultLineItem values instead of Go zero values.
type lineItemRecord struct {
	ProductID *int64  `json:"product_id"`
	VariantID *int64  `json:"variant_id"`
	Name      *string `json:"name"`
	PhotoURL  *string `json:"photo_url"`
	Price     *int64  `json:"price"`
	Quantity  *int    `json:"quantity"`
	Variant   *string `json:"variant"`
	Ukuran    *string `json:"ukuran"`
	MaxStock  *int    `json:"max_stock"`
}

func encodeCart(cart domain.Cart) ([]byte, error) {
	records := make(map[domain.ItemKey]lineItemRecord, len(cart))
	for key, item := range cart {
		price := int64(item.Price)
		records[key] = lineItemRecord{
			ProductID: &item.ProductID,
			VariantID: &item.VariantID,
			Name:      &item.Name,
			PhotoURL:  item.PhotoURL,
			Price:     &price,
			Quantity:  &item.Quantity,
			Variant:   &item.Variant,
			Ukuran:    &item.Ukuran,
			MaxStock:  &item.MaxStock,
		}
	}
	return json.Marshal(records)
}

func decodeCart(data []byte) (domain.Cart, error) {
	var records map[domain.ItemKey]lineItemRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}

	cart := make(domain.Cart, len(records))
	for key, rec := range records {
		cart[key] = rec.toLineItem()
	}
	return cart, nil
}

func (r lineItemRecord) toLineItem() domain.LineItem {
	item := domain.DefaultLineItem()
	if r.ProductID != nil {
		item.ProductID = *r.ProductID
	}
	if r.VariantID != nil {
		item.VariantID = *r.VariantID
	}
	if r.Name != nil {
		item.Name = *r.Name
	}
	item.PhotoURL = r.PhotoURL
	if r.Price != nil {
		item.Price = domain.Money(*r.Price)
	}
	if r.Quantity != nil {
		item.Quantity = *r.Quantity
	}
	if r.Variant != nil {
		item.Variant = *r.Variant
	}
	if r.Ukuran != nil {
		item.Ukuran = *r.Ukuran
	}
	if r.MaxStock != nil {
		item.MaxStock = *r.MaxStock
	}
	return item
}
