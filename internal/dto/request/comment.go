package request

type CommentRequest struct {
	Author        string `json:"author" validate:"max=40"`
	Content       string `json:"content" validate:"required,notblank"`
	CaptchaID     string `json:"captcha_id"`
	CaptchaAnswer string `json:"captcha"`
}

type ModerateCommentRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

type ListCommentsRequest struct {
	PaginatedRequest
	ProductID string `json:"product_id" validate:"omitempty,uuid"`
}
