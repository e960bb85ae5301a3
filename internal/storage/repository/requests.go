package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/decorent/decorent/internal/models"
)

const requestColumns = `id, client_id, provider_id, service_id, event_type, event_date,
			  duration_hours, attendees, street, exterior_number, interior_number,
			  neighborhood, postal_code, status, price_cents, created_at`

func scanRequest(scan func(dest ...any) error) (*models.BudgetRequest, error) {
	r := &models.BudgetRequest{}
	var price sql.NullInt64
	err := scan(&r.ID, &r.ClientID, &r.ProviderID, &r.ServiceID, &r.EventType, &r.EventDate,
		&r.DurationHours, &r.Attendees,
		&r.Address.Street, &r.Address.ExteriorNumber, &r.Address.InteriorNumber,
		&r.Address.Neighborhood, &r.Address.PostalCode,
		&r.Status, &price, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	if price.Valid {
		r.PriceCents = &price.Int64
	}
	return r, nil
}

// CreateRequest inserts a budget request with status pending.
func (s *Storage) CreateRequest(ctx context.Context, r models.BudgetRequest) (int64, error) {
	const op = "storage.CreateRequest"

	query := `INSERT INTO budget_requests (client_id, provider_id, service_id, event_type,
			      event_date, duration_hours, attendees, street, exterior_number,
			      interior_number, neighborhood, postal_code, status)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			  RETURNING id`
	var newID int64
	err := s.DB.QueryRowContext(ctx, query,
		r.ClientID, r.ProviderID, r.ServiceID, r.EventType, r.EventDate,
		r.DurationHours, r.Attendees,
		r.Address.Street, r.Address.ExteriorNumber, r.Address.InteriorNumber,
		r.Address.Neighborhood, r.Address.PostalCode,
		models.RequestStatusPending).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetRequest returns one budget request by id.
func (s *Storage) GetRequest(ctx context.Context, id int64) (*models.BudgetRequest, error) {
	const op = "storage.GetRequest"

	row := s.DB.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM budget_requests WHERE id = $1`, id)
	r, err := scanRequest(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translate(err))
	}
	return r, nil
}

// ListRequestsByProvider returns a provider's requests, newest first.
func (s *Storage) ListRequestsByProvider(ctx context.Context, providerID int64) ([]*models.BudgetRequest, error) {
	const op = "storage.ListRequestsByProvider"
	return s.listRequests(ctx, op, `provider_id`, providerID)
}

// ListRequestsByClient returns a client's requests, newest first.
func (s *Storage) ListRequestsByClient(ctx context.Context, clientID int64) ([]*models.BudgetRequest, error) {
	const op = "storage.ListRequestsByClient"
	return s.listRequests(ctx, op, `client_id`, clientID)
}

func (s *Storage) listRequests(ctx context.Context, op, column string, id int64) ([]*models.BudgetRequest, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+requestColumns+` FROM budget_requests WHERE `+column+` = $1 ORDER BY created_at DESC`, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	var result []*models.BudgetRequest
	for rows.Next() {
		r, err := scanRequest(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// AcceptRequest moves a pending request to accepted and stores the quoted
// price in the same statement, keeping the price-iff-accepted invariant.
// Returns false when the request was not pending anymore.
func (s *Storage) AcceptRequest(ctx context.Context, id int64, priceCents int64) (bool, error) {
	const op = "storage.AcceptRequest"

	res, err := s.DB.ExecContext(ctx,
		`UPDATE budget_requests SET status = $1, price_cents = $2
		 WHERE id = $3 AND status = $4`,
		models.RequestStatusAccepted, priceCents, id, models.RequestStatusPending)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return affected > 0, nil
}

// RejectRequest moves a request to rejected and clears any stored price.
func (s *Storage) RejectRequest(ctx context.Context, id int64) error {
	const op = "storage.RejectRequest"

	res, err := s.DB.ExecContext(ctx,
		`UPDATE budget_requests SET status = $1, price_cents = NULL WHERE id = $2`,
		models.RequestStatusRejected, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return nil
}
