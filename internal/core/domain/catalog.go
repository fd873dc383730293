package domain

type Product struct {
	ID       int64
	Name     string
	Photos   []string
	Variants []Variant
}

type Variant struct {
	ID    int64
	Name  string
	Price Money
	Stock int
	Size  string
}

// FirstPhoto returns the product's primary photo, or nil when it has none.
func (p *Product) FirstPhoto() *string {
	if len(p.Photos) == 0 {
		return nil
	}
	photo := p.Photos[0]
	return &photo
}

func (p *Product) FindVariant(variantID int64) (Variant, bool) {
	for _, v := range p.Variants {
		if v.ID == variantID {
			return v, true
		}
	}
	return Variant{}, false
}

// LowestPrice is shown on listing pages; zero when the product has no variants.
func (p *Product) LowestPrice() Money {
	var lowest Money
	for i, v := range p.Variants {
		if i == 0 || v.Price < lowest {
			lowest = v.Price
		}
	}
	return lowest
}
