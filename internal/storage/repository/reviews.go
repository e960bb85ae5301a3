package repository

import (
	"context"
	"fmt"

	"github.com/decorent/decorent/internal/models"
)

// CreateReview inserts a review. The (service_id, user_id) unique
// constraint makes a second review by the same user ErrConflict even when
// two requests race past the existence check.
func (s *Storage) CreateReview(ctx context.Context, r models.Review) (int64, error) {
	const op = "storage.CreateReview"

	query := `INSERT INTO reviews (service_id, user_id, stars, comment)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id`
	var newID int64
	err := s.DB.QueryRowContext(ctx, query, r.ServiceID, r.UserID, r.Stars, r.Comment).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, translate(err))
	}
	return newID, nil
}

// HasReview reports whether the user already reviewed the service.
func (s *Storage) HasReview(ctx context.Context, serviceID, userID int64) (bool, error) {
	const op = "storage.HasReview"

	var exists bool
	err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM reviews WHERE service_id = $1 AND user_id = $2)`,
		serviceID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// ListReviews returns a service's reviews, newest first, with the
// reviewer's display name.
func (s *Storage) ListReviews(ctx context.Context, serviceID int64) ([]*models.Review, error) {
	const op = "storage.ListReviews"

	rows, err := s.DB.QueryContext(ctx,
		`SELECT r.id, r.service_id, r.user_id, u.full_name, r.stars, r.comment, r.created_at
		 FROM reviews r
		 JOIN users u ON u.id = r.user_id
		 WHERE r.service_id = $1
		 ORDER BY r.created_at DESC`, serviceID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	var result []*models.Review
	for rows.Next() {
		r := &models.Review{}
		if err := rows.Scan(&r.ID, &r.ServiceID, &r.UserID, &r.UserName,
			&r.Stars, &r.Comment, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// RecomputeServiceRating recalculates the running average from all stored
// reviews, rounds it to two decimals and writes it back on the service row.
// With no reviews the average is 0.
func (s *Storage) RecomputeServiceRating(ctx context.Context, serviceID int64) (float64, error) {
	const op = "storage.RecomputeServiceRating"

	var avg float64
	err := s.DB.QueryRowContext(ctx,
		`UPDATE services
		 SET average_rating = ROUND(COALESCE(
		     (SELECT AVG(stars) FROM reviews WHERE service_id = $1), 0), 2)
		 WHERE id = $1
		 RETURNING average_rating`, serviceID).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, translate(err))
	}
	return avg, nil
}
