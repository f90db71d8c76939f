package entity

import "github.com/google/uuid"

// Comment author is free text so guests can comment
type Comment struct {
	BaseSimple
	ProductID uuid.UUID `db:"product_id"`
	Author    string    `db:"author"`
	Content   string    `db:"content"`
	IsActive  bool      `db:"is_active"`
}
