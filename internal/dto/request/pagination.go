package request

const (
	defaultPerPage = 10
	maxPerPage     = 100
)

// PaginatedRequest is embedded by admin list requests. Page is clamped by the
// service once the total is known.
type PaginatedRequest struct {
	Page    int `json:"page" validate:"min=1"`
	PerPage int `json:"per_page" validate:"min=1,max=100"`
}

// Limit is PerPage bounded to [1, 100], defaulting to 10
func (p PaginatedRequest) Limit() int {
	switch {
	case p.PerPage < 1:
		return defaultPerPage
	case p.PerPage > maxPerPage:
		return maxPerPage
	}
	return p.PerPage
}
