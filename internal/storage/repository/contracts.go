package repository

import (
	"context"
	"fmt"

	"github.com/decorent/decorent/internal/models"
)

// CreateContract inserts a contract row. The unique constraint on
// checkout_session_id turns a replayed payment callback into ErrConflict,
// which the payment service resolves to the already stored contract.
func (s *Storage) CreateContract(ctx context.Context, c models.Contract) (int64, error) {
	const op = "storage.CreateContract"

	query := `INSERT INTO contracts (client_id, service_id, price_cents, status,
			      contract_date, checkout_session_id)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id`
	var newID int64
	err := s.DB.QueryRowContext(ctx, query,
		c.ClientID, c.ServiceID, c.PriceCents, c.Status, c.ContractDate,
		c.CheckoutSessionID).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, translate(err))
	}
	return newID, nil
}

// GetContractBySessionID returns the contract recorded for a checkout
// session, or ErrNotFound.
func (s *Storage) GetContractBySessionID(ctx context.Context, sessionID string) (*models.Contract, error) {
	const op = "storage.GetContractBySessionID"

	c := &models.Contract{}
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, client_id, service_id, price_cents, status, contract_date, checkout_session_id
		 FROM contracts WHERE checkout_session_id = $1`, sessionID).
		Scan(&c.ID, &c.ClientID, &c.ServiceID, &c.PriceCents, &c.Status,
			&c.ContractDate, &c.CheckoutSessionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translate(err))
	}
	return c, nil
}

// CountContractsBySessionID reports how many contract rows reference the
// session. Used by tests to assert at-most-once processing.
func (s *Storage) CountContractsBySessionID(ctx context.Context, sessionID string) (int, error) {
	const op = "storage.CountContractsBySessionID"

	var n int
	err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM contracts WHERE checkout_session_id = $1`, sessionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
