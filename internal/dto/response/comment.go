package response

import (
	"time"

	"storefront/internal/data/entity"
)

type CommentResponse struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Captcha is a pending challenge; Image is a PNG data URI of the digits to type back
type Captcha struct {
	ID    string `json:"id"`
	Image string `json:"image"`
}

func CommentToResponse(comment *entity.Comment) CommentResponse {
	return CommentResponse{
		ID:        comment.ID.String(),
		ProductID: comment.ProductID.String(),
		Author:    comment.Author,
		Content:   comment.Content,
		IsActive:  comment.IsActive,
		CreatedAt: comment.CreatedAt,
	}
}

func CommentsToResponse(comments []*entity.Comment) []CommentResponse {
	resp := make([]CommentResponse, 0, len(comments))
	for _, c := range comments {
		resp = append(resp, CommentToResponse(c))
	}
	return resp
}
