package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/decorent/decorent/internal/models"
)

// CreateNotification inserts an unread notification.
func (s *Storage) CreateNotification(ctx context.Context, n models.Notification) (int64, error) {
	const op = "storage.CreateNotification"

	query := `INSERT INTO notifications (user_id, request_id, kind, message)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id`
	var requestID sql.NullInt64
	if n.RequestID != nil {
		requestID = sql.NullInt64{Int64: *n.RequestID, Valid: true}
	}
	var newID int64
	err := s.DB.QueryRowContext(ctx, query, n.UserID, requestID, n.Kind, n.Message).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListNotifications returns a user's notifications, unread first, newest
// first inside each group.
func (s *Storage) ListNotifications(ctx context.Context, userID int64) ([]*models.Notification, error) {
	const op = "storage.ListNotifications"

	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, user_id, request_id, kind, message, created_at, read
		 FROM notifications
		 WHERE user_id = $1
		 ORDER BY read, created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	var result []*models.Notification
	for rows.Next() {
		n := &models.Notification{}
		var requestID sql.NullInt64
		if err := rows.Scan(&n.ID, &n.UserID, &requestID, &n.Kind, &n.Message,
			&n.CreatedAt, &n.Read); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if requestID.Valid {
			n.RequestID = &requestID.Int64
		}
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// MarkNotificationRead marks one notification read, scoped to its owner so
// a user cannot touch someone else's notifications. Returns false when no
// row matched.
func (s *Storage) MarkNotificationRead(ctx context.Context, id, userID int64) (bool, error) {
	const op = "storage.MarkNotificationRead"

	res, err := s.DB.ExecContext(ctx,
		`UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return affected > 0, nil
}

// MarkRequestNotificationsRead marks all unread notifications of one kind
// attached to a request as read. The workflow uses it to retire the
// previous step's notification on every transition.
func (s *Storage) MarkRequestNotificationsRead(ctx context.Context, requestID int64, kind string) error {
	const op = "storage.MarkRequestNotificationsRead"

	_, err := s.DB.ExecContext(ctx,
		`UPDATE notifications SET read = TRUE
		 WHERE request_id = $1 AND kind = $2 AND NOT read`, requestID, kind)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// MarkRateServiceRead marks a user's pending rate_service notifications for
// any of their requests on the given service as read, once the review is in.
func (s *Storage) MarkRateServiceRead(ctx context.Context, userID, serviceID int64) error {
	const op = "storage.MarkRateServiceRead"

	_, err := s.DB.ExecContext(ctx,
		`UPDATE notifications SET read = TRUE
		 WHERE user_id = $1 AND kind = $2 AND NOT read
		   AND request_id IN (SELECT id FROM budget_requests WHERE service_id = $3)`,
		userID, models.NotificationRateService, serviceID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
