package dto

import "time"

// CreateCommentRequest represents the request to comment on a business
type CreateCommentRequest struct {
	UserID     uint    `json:"-"`
	BusinessID uint    `json:"business_id" validate:"required"`
	Text       string  `json:"text" validate:"required,min=1,max=1000"`
	Rating     float64 `json:"rating" validate:"required,min=1,max=5"`
}

// CreateCommentResponse represents the response to a new comment
type CreateCommentResponse struct {
	Message        string    `json:"message"`
	CommentID      uint      `json:"comment_id"`
	BusinessRating *float64  `json:"business_rating,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
