package response

import (
	"time"

	"storefront/internal/data/entity"

	"github.com/shopspring/decimal"
)

type CategoryResponse struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Order    int               `json:"order"`
	ParentID *string           `json:"parent_id"`
	Parent   *CategoryResponse `json:"parent,omitempty"`
}

type ProductResponse struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Content   string          `json:"content"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt time.Time       `json:"created_at"`
	SellerID  string          `json:"seller"`
}

type ProductDetailResponse struct {
	ProductResponse
	CategoryID   string   `json:"category_id"`
	Manufacturer string   `json:"manufacturer"`
	Image        *string  `json:"image"`
	IsActive     bool     `json:"is_active"`
	Images       []string `json:"images"`
}

// ProductDetail bundles a product with everything its page shows
type ProductDetail struct {
	Product  *entity.Product
	Category *entity.Category
	Images   []*entity.AdditionalImage
	Comments []*entity.Comment
}

// CategoryPage is one page of a category listing. Without a keyword the
// listing is paginated; with a keyword every match is returned at once.
type CategoryPage struct {
	Category   *entity.Category
	Products   []*entity.Product
	Keyword    string
	Page       int
	TotalPages int
	Total      int64
	Paginated  bool
}

func (p CategoryPage) HasPrevious() bool { return p.Paginated && p.Page > 1 }
func (p CategoryPage) HasNext() bool     { return p.Paginated && p.Page < p.TotalPages }
func (p CategoryPage) PreviousPage() int { return p.Page - 1 }
func (p CategoryPage) NextPage() int     { return p.Page + 1 }

// Profile is the owner's view of their account
type Profile struct {
	User     *entity.User
	Products []*entity.Product
}

func CategoryToResponse(category *entity.Category) CategoryResponse {
	resp := CategoryResponse{
		ID:    category.ID.String(),
		Name:  category.Name,
		Order: category.Order,
	}
	if category.ParentID != nil {
		parentID := category.ParentID.String()
		resp.ParentID = &parentID
	}
	if category.Parent != nil {
		parent := CategoryToResponse(category.Parent)
		resp.Parent = &parent
	}
	return resp
}

func CategoriesToResponse(categories []*entity.Category) []CategoryResponse {
	resp := make([]CategoryResponse, 0, len(categories))
	for _, c := range categories {
		resp = append(resp, CategoryToResponse(c))
	}
	return resp
}

func ProductToResponse(product *entity.Product) ProductResponse {
	return ProductResponse{
		ID:        product.ID.String(),
		Title:     product.Title,
		Content:   product.Content,
		Price:     product.Price,
		CreatedAt: product.CreatedAt,
		SellerID:  product.SellerID.String(),
	}
}

func ProductsToResponse(products []*entity.Product) []ProductResponse {
	resp := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, ProductToResponse(p))
	}
	return resp
}

func ProductDetailToResponse(detail *ProductDetail) ProductDetailResponse {
	images := make([]string, 0, len(detail.Images))
	for _, img := range detail.Images {
		images = append(images, img.Image)
	}

	return ProductDetailResponse{
		ProductResponse: ProductToResponse(detail.Product),
		CategoryID:      detail.Product.CategoryID.String(),
		Manufacturer:    detail.Product.Manufacturer,
		Image:           detail.Product.Image,
		IsActive:        detail.Product.IsActive,
		Images:          images,
	}
}
