// Package review handles service ratings. One review per user per service;
// the running average on the service row is recomputed on every insert.
package review

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/decorent/decorent/internal/lib/sl"
	"github.com/decorent/decorent/internal/models"
	"github.com/decorent/decorent/internal/services/catalog"
)

type Repository interface {
	CreateReview(ctx context.Context, r models.Review) (int64, error)
	HasReview(ctx context.Context, serviceID, userID int64) (bool, error)
	ListReviews(ctx context.Context, serviceID int64) ([]*models.Review, error)
	RecomputeServiceRating(ctx context.Context, serviceID int64) (float64, error)
	GetService(ctx context.Context, id int64) (*models.Service, error)
	GetUserByUID(ctx context.Context, uid string) (*models.User, error)
	MarkRateServiceRead(ctx context.Context, userID, serviceID int64) error
}

type Cache interface {
	Invalidate(ctx context.Context, key string) error
}

// Service is the review business logic.
type Service struct {
	repo  Repository
	cache Cache
	log   *slog.Logger
}

func New(repo Repository, cache Cache, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// Create stores the caller's review, recomputes the service's average and
// retires the review reminder. Returns the new average. A second review by
// the same user is ErrConflict.
func (s *Service) Create(ctx context.Context, userUID string, serviceID int64, dto models.CreateReviewDTO) (float64, error) {
	const op = "review.Create"

	user, err := s.repo.GetUserByUID(ctx, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := s.repo.GetService(ctx, serviceID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	exists, err := s.repo.HasReview(ctx, serviceID, user.ID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return 0, fmt.Errorf("%s: service already reviewed: %w", op, models.ErrConflict)
	}

	// The unique constraint still backs this up if two requests race past
	// the check above.
	if _, err := s.repo.CreateReview(ctx, models.Review{
		ServiceID: serviceID,
		UserID:    user.ID,
		Stars:     dto.Stars,
		Comment:   dto.Comment,
	}); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	avg, err := s.repo.RecomputeServiceRating(ctx, serviceID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.MarkRateServiceRead(ctx, user.ID, serviceID); err != nil {
		s.log.Warn("review reminder not retired",
			"user_id", user.ID, "service_id", serviceID, sl.Err(err))
	}
	// The cached detail view carries the old average until it is dropped.
	if err := s.cache.Invalidate(ctx, catalog.DetailKey(serviceID)); err != nil {
		s.log.Warn("detail cache not invalidated", "service_id", serviceID, sl.Err(err))
	}

	s.log.Info("review created",
		"service_id", serviceID, "stars", dto.Stars, "average", avg)
	return avg, nil
}

// List returns a service's reviews, newest first.
func (s *Service) List(ctx context.Context, serviceID int64) ([]*models.Review, error) {
	return s.repo.ListReviews(ctx, serviceID)
}
