package models

// ReviewResponse is the workshop's public reply to a review.
type ReviewResponse struct {
	Author  string `json:"admin"`
	Comment string `json:"comment"`
	Date    string `json:"date"`
}

// Review is one customer feedback entry.
type Review struct {
	ID       int64           `json:"id"`
	Customer string          `json:"customer"`
	Vehicle  string          `json:"vehicle"`
	Date     string          `json:"date"`
	Rating   int             `json:"rating"` // 1..5
	Comment  string          `json:"comment"`
	Service  string          `json:"service"`
	Response *ReviewResponse `json:"response,omitempty"`
	Likes    int             `json:"likes"`
	Dislikes int             `json:"dislikes"`
	Verified bool            `json:"verified"`
}
