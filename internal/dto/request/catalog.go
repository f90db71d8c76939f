package request

import "github.com/shopspring/decimal"

type CategoryRequest struct {
	Name     string  `json:"name" validate:"required,notblank,max=20"`
	Order    int     `json:"order" validate:"gte=0,max=32767"`
	ParentID *string `json:"parent_id,omitempty" validate:"omitempty,uuid"`
}

// ProductRequest is the complete editable state of a product. Images is
// the full additional-image set and replaces whatever was stored before.
type ProductRequest struct {
	CategoryID   string          `json:"category_id" validate:"required,uuid"`
	Title        string          `json:"title" validate:"required,notblank,max=40"`
	Content      string          `json:"content" validate:"required,notblank"`
	Price        decimal.Decimal `json:"price"`
	Manufacturer string          `json:"manufacturer" validate:"required,notblank,max=50"`
	Image        *string         `json:"image,omitempty" validate:"omitempty,max=2048"`
	IsActive     bool            `json:"is_active"`
	Images       []string        `json:"images" validate:"omitempty,max=20,dive,max=2048"`
}

type ByCategoryRequest struct {
	Keyword string `json:"keyword"`
	Page    int    `json:"page"`
}
