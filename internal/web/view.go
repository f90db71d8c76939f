package web

import (
	"storefront/internal/data/entity"
)

// CurrentUser is the signed-in visitor as the layout sees it
type CurrentUser struct {
	ID       string
	Username string
	IsAdmin  bool
}

// NavGroup is a top-level category with its subcategories
type NavGroup struct {
	Parent   *entity.Category
	Children []*entity.Category
}

// View is the data every page template receives
type View struct {
	Title   string
	User    *CurrentUser
	Nav     []NavGroup
	Keyword string
	Errors  map[string]string
	Form    map[string]string
	Data    any
}

// Error returns the message for a form field
func (v *View) Error(field string) string {
	return v.Errors[field]
}

// Value returns the submitted value for a form field
func (v *View) Value(field string) string {
	return v.Form[field]
}

// GroupSubcategories folds a parent-ordered subcategory list into nav groups
func GroupSubcategories(subcategories []*entity.Category) []NavGroup {
	var groups []NavGroup
	for _, c := range subcategories {
		if c.Parent == nil {
			continue
		}
		if n := len(groups); n == 0 || groups[n-1].Parent.ID != c.Parent.ID {
			groups = append(groups, NavGroup{Parent: c.Parent})
		}
		groups[len(groups)-1].Children = append(groups[len(groups)-1].Children, c)
	}
	return groups
}
