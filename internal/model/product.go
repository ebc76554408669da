package model

import "github.com/google/uuid"

// Product is a catalog entry. A product is addressable only by its code:
// the code is caller-assigned before creation, and image uploads are keyed
// by it rather than by a backend record id. Whether codes are globally
// unique is a backend assumption that is never verified on this side.
type Product struct {
	Code        string      `json:"product_code"`
	Name        string      `json:"product_name"`
	Description string      `json:"description,omitempty"`
	Price       float64     `json:"price"`
	Quantity    int         `json:"quantity"`
	Category    string      `json:"category,omitempty"`
	Unit        string      `json:"unit,omitempty"`
	Shelf       string      `json:"shelf,omitempty"`
	ImageIDs    []uuid.UUID `json:"image_id"`
}

// ProductFields holds the metadata of a product without its image list.
type ProductFields struct {
	Code        string
	Name        string
	Description string
	Price       float64
	Quantity    int
	Category    string
	Unit        string
	Shelf       string
}

// Product returns a Product with the given fields and an empty image list.
func (f ProductFields) Product() Product {
	return Product{
		Code:        f.Code,
		Name:        f.Name,
		Description: f.Description,
		Price:       f.Price,
		Quantity:    f.Quantity,
		Category:    f.Category,
		Unit:        f.Unit,
		Shelf:       f.Shelf,
		ImageIDs:    []uuid.UUID{},
	}
}

// PendingUpload is a staged, not-yet-persisted image blob. It lives in
// memory only for the duration of a creation or edit workflow invocation
// and has no identifier until the upload call succeeds.
type PendingUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

type LowStockProduct struct {
	Code     string `json:"product_code"`
	Name     string `json:"product_name"`
	Quantity int    `json:"quantity"`
}

type Statistics struct {
	TotalProducts    int               `json:"total_products"`
	TotalQuantity    int               `json:"total_quantity"`
	TotalCategories  int               `json:"total_categories"`
	LowStockProducts []LowStockProduct `json:"low_stock_products"`
}
