package utils

func CalculateTotalPages(total int64, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}

func CalculateOffset(page, perPage int) int {
	if page < 1 {
		return 0
	}
	return (page - 1) * perPage
}

// ClampPage keeps a requested page inside [1, last page]. An empty result set
// still has one (empty) page.
func ClampPage(page int, total int64, perPage int) int {
	if page < 1 {
		return 1
	}
	last := CalculateTotalPages(total, perPage)
	if last < 1 {
		last = 1
	}
	if page > last {
		return last
	}
	return page
}
