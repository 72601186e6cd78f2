package domain

import "github.com/shopspring/decimal"

// PrintSize — неизменяемая позиция каталога форматов печати.
type PrintSize struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Dimensions string          `json:"dimensions"`
	Price      decimal.Decimal `json:"price"`
}

// Catalog — упорядоченный фиксированный список форматов печати.
type Catalog struct {
	currency string
	sizes    []PrintSize
}

// NewCatalog создаёт каталог. Срез копируется, поэтому изменить каталог после создания нельзя.
func NewCatalog(currency string, sizes ...PrintSize) Catalog {
	cp := make([]PrintSize, len(sizes))
	copy(cp, sizes)
	return Catalog{currency: currency, sizes: cp}
}

// DefaultCatalog возвращает стандартные форматы 4x6, 5x7 и 8x10.
func DefaultCatalog(currency string) Catalog {
	return NewCatalog(currency,
		PrintSize{ID: "4x6", Name: "4x6", Dimensions: "4×6 inches", Price: decimal.RequireFromString("1.5")},
		PrintSize{ID: "5x7", Name: "5x7", Dimensions: "5×7 inches", Price: decimal.NewFromInt(3)},
		PrintSize{ID: "8x10", Name: "8x10", Dimensions: "8×10 inches", Price: decimal.NewFromInt(5)},
	)
}

func (c Catalog) Currency() string {
	return c.currency
}

// Sizes возвращает копию списка форматов в исходном порядке.
func (c Catalog) Sizes() []PrintSize {
	cp := make([]PrintSize, len(c.sizes))
	copy(cp, c.sizes)
	return cp
}

// Lookup ищет формат по ID.
func (c Catalog) Lookup(id string) (PrintSize, bool) {
	for _, s := range c.sizes {
		if s.ID == id {
			return s, true
		}
	}
	return PrintSize{}, false
}
