package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"garagedesk/internal/domain"
	"garagedesk/internal/models"

	"github.com/rs/zerolog"
)

var (
	ErrEmptyComment     = errors.New("response comment must not be empty")
	ErrAlreadyResponded = errors.New("review already has a response")
)

// ReviewStats summarizes the feedback page header: average rating and the
// per-star distribution.
type ReviewStats struct {
	Count        int
	Average      float64
	Distribution [5]int // index 0 = one star
}

// ReviewService reads customer feedback and posts the workshop's replies.
type ReviewService struct {
	api    domain.ReviewAPI
	logger zerolog.Logger
}

func NewReviewService(api domain.ReviewAPI, logger zerolog.Logger) *ReviewService {
	return &ReviewService{api: api, logger: logger}
}

func (s *ReviewService) Reviews(ctx context.Context) ([]models.Review, error) {
	reviews, err := s.api.ListReviews(ctx)
	if err != nil {
		return nil, fmt.Errorf("load reviews: %w", err)
	}
	return reviews, nil
}

// Respond posts a reply to a review. A review carries at most one workshop
// response; the caller passes the review as currently rendered so a stale
// double-submit is caught locally.
func (s *ReviewService) Respond(ctx context.Context, review models.Review, comment string) error {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return fmt.Errorf("respond to review %d: %w", review.ID, ErrEmptyComment)
	}
	if review.Response != nil {
		return fmt.Errorf("respond to review %d: %w", review.ID, ErrAlreadyResponded)
	}
	if err := s.api.RespondToReview(ctx, review.ID, comment); err != nil {
		return fmt.Errorf("respond to review %d: %w", review.ID, err)
	}
	s.logger.Info().Int64("review_id", review.ID).Msg("review response posted")
	return nil
}

// FilterReviews applies a minimum-rating bound and a free-text search over
// customer, vehicle, service and comment. Pure; input order is preserved.
func FilterReviews(reviews []models.Review, term string, minRating int) []models.Review {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]models.Review, 0, len(reviews))
	for _, r := range reviews {
		if r.Rating < minRating {
			continue
		}
		if term != "" && !reviewMatches(r, term) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func reviewMatches(r models.Review, term string) bool {
	for _, field := range []string{r.Customer, r.Vehicle, r.Service, r.Comment} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// Stats computes the header numbers. Ratings outside 1..5 are ignored.
func Stats(reviews []models.Review) ReviewStats {
	var stats ReviewStats
	var sum int
	for _, r := range reviews {
		if r.Rating < 1 || r.Rating > 5 {
			continue
		}
		stats.Count++
		sum += r.Rating
		stats.Distribution[r.Rating-1]++
	}
	if stats.Count > 0 {
		stats.Average = float64(sum) / float64(stats.Count)
	}
	return stats
}
