package entity

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	Base
	CategoryID   uuid.UUID       `db:"category_id"`
	Title        string          `db:"title"`
	Content      string          `db:"content"`
	Price        decimal.Decimal `db:"price"`
	Manufacturer string          `db:"manufacturer"`
	Image        *string         `db:"image"`
	SellerID     uuid.UUID       `db:"seller_id"`
	IsActive     bool            `db:"is_active"`
}

// AdditionalImage is a supplementary product image
type AdditionalImage struct {
	BaseSimple
	ProductID uuid.UUID `db:"product_id"`
	Image     string    `db:"image"`
}
