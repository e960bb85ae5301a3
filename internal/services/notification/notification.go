// Package notification manages the in-app notification center and fans the
// same events out to the email worker through the message broker. A broker
// outage never fails the triggering operation: the in-app row is the source
// of truth, email is best effort.
package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/decorent/decorent/internal/lib/sl"
	"github.com/decorent/decorent/internal/models"
)

type Repository interface {
	CreateNotification(ctx context.Context, n models.Notification) (int64, error)
	ListNotifications(ctx context.Context, userID int64) ([]*models.Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID int64) (bool, error)
	MarkRequestNotificationsRead(ctx context.Context, requestID int64, kind string) error
	MarkRateServiceRead(ctx context.Context, userID, serviceID int64) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByUID(ctx context.Context, uid string) (*models.User, error)
}

// Publisher sends an event to the email queue.
type Publisher interface {
	Publish(event models.NotificationEvent) error
}

// Service writes notification rows and forwards them to the broker.
type Service struct {
	repo      Repository
	publisher Publisher
	log       *slog.Logger
}

func New(repo Repository, publisher Publisher, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		log:       log,
	}
}

// Notify stores an unread notification for the user and publishes the
// matching email event. A publish failure is logged and swallowed.
func (s *Service) Notify(ctx context.Context, userID int64, requestID *int64, kind, message string) error {
	const op = "notification.Notify"

	_, err := s.repo.CreateNotification(ctx, models.Notification{
		UserID:    userID,
		RequestID: requestID,
		Kind:      kind,
		Message:   message,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		s.log.Warn("notification stored but recipient lookup failed",
			"user_id", userID, sl.Err(err))
		return nil
	}
	event := models.NotificationEvent{
		Email:    user.Email,
		FullName: user.FullName,
		Kind:     kind,
		Message:  message,
	}
	if err := s.publisher.Publish(event); err != nil {
		s.log.Warn("notification stored but email event not published",
			"user_id", userID, "kind", kind, sl.Err(err))
	}
	return nil
}

// List returns the caller's notification center, unread entries first.
func (s *Service) List(ctx context.Context, userUID string) ([]*models.Notification, error) {
	const op = "notification.List"

	user, err := s.repo.GetUserByUID(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.repo.ListNotifications(ctx, user.ID)
}

// MarkRead marks one of the caller's notifications as read. A notification
// that belongs to someone else is reported as not found.
func (s *Service) MarkRead(ctx context.Context, userUID string, notificationID int64) error {
	const op = "notification.MarkRead"

	user, err := s.repo.GetUserByUID(ctx, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	ok, err := s.repo.MarkNotificationRead(ctx, notificationID, user.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return nil
}

// Retire marks all unread notifications of one kind on a request as read.
// The workflow calls it on every transition so a stale call to action does
// not linger after the step it pointed at is already resolved.
func (s *Service) Retire(ctx context.Context, requestID int64, kind string) error {
	return s.repo.MarkRequestNotificationsRead(ctx, requestID, kind)
}

// RetireRateService marks a user's pending review reminders for a service
// as read once the review exists.
func (s *Service) RetireRateService(ctx context.Context, userID, serviceID int64) error {
	return s.repo.MarkRateServiceRead(ctx, userID, serviceID)
}
