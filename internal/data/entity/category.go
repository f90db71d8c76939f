package entity

import "github.com/google/uuid"

// Category is either top-level (no parent) or a subcategory of a
// top-level category. Products attach to subcategories only.
type Category struct {
	Base
	Name     string     `db:"name"`
	Order    int        `db:"order"`
	ParentID *uuid.UUID `db:"parent_id"`

	// joined, only filled by subcategory queries
	Parent *Category `db:"-"`
}

func (c *Category) IsTopLevel() bool {
	return c.ParentID == nil
}

func (c *Category) IsSubcategory() bool {
	return c.ParentID != nil
}
