package repository

import (
	"context"
	"fmt"

	"github.com/decorent/decorent/internal/models"
)

const serviceColumns = `id, provider_id, name, category, street, exterior_number,
			  interior_number, neighborhood, postal_code, city,
			  min_price_cents, max_price_cents, description, average_rating`

func scanService(scan func(dest ...any) error) (*models.Service, error) {
	svc := &models.Service{}
	err := scan(&svc.ID, &svc.ProviderID, &svc.Name, &svc.Category,
		&svc.Address.Street, &svc.Address.ExteriorNumber, &svc.Address.InteriorNumber,
		&svc.Address.Neighborhood, &svc.Address.PostalCode, &svc.Address.City,
		&svc.MinPriceCents, &svc.MaxPriceCents, &svc.Description, &svc.AverageRating)
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// CreateService inserts the service row and all its image rows in one
// transaction, so a failure never leaves a service without its images.
func (s *Storage) CreateService(ctx context.Context, svc models.Service, imagePaths []string) (int64, error) {
	const op = "storage.CreateService"

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `INSERT INTO services (provider_id, name, category, street, exterior_number,
			      interior_number, neighborhood, postal_code, city,
			      min_price_cents, max_price_cents, description)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			  RETURNING id`
	var newID int64
	if err := tx.QueryRowContext(ctx, query,
		svc.ProviderID, svc.Name, svc.Category,
		svc.Address.Street, svc.Address.ExteriorNumber, svc.Address.InteriorNumber,
		svc.Address.Neighborhood, svc.Address.PostalCode, svc.Address.City,
		svc.MinPriceCents, svc.MaxPriceCents, svc.Description).Scan(&newID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	for _, path := range imagePaths {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO service_images (service_id, path) VALUES ($1, $2)`, newID, path); err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetService returns one service by id.
func (s *Storage) GetService(ctx context.Context, id int64) (*models.Service, error) {
	const op = "storage.GetService"

	row := s.DB.QueryRowContext(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = $1`, id)
	svc, err := scanService(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translate(err))
	}
	return svc, nil
}

// ListServices returns all services, optionally filtered by category.
func (s *Storage) ListServices(ctx context.Context, category string) ([]*models.Service, error) {
	const op = "storage.ListServices"

	query := `SELECT ` + serviceColumns + ` FROM services`
	args := []any{}
	if category != "" {
		query += ` WHERE category = $1`
		args = append(args, category)
	}
	query += ` ORDER BY id`

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	var result []*models.Service
	for rows.Next() {
		svc, err := scanService(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, svc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListCategories returns the distinct categories in use, for the filter
// combobox.
func (s *Storage) ListCategories(ctx context.Context) ([]string, error) {
	const op = "storage.ListCategories"

	rows, err := s.DB.QueryContext(ctx, `SELECT DISTINCT category FROM services ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	var result []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListServiceImages returns the image rows of a service in insertion order.
func (s *Storage) ListServiceImages(ctx context.Context, serviceID int64) ([]*models.ServiceImage, error) {
	const op = "storage.ListServiceImages"

	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, service_id, path FROM service_images WHERE service_id = $1 ORDER BY id`, serviceID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	var result []*models.ServiceImage
	for rows.Next() {
		img := &models.ServiceImage{}
		if err := rows.Scan(&img.ID, &img.ServiceID, &img.Path); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateService updates the editable fields of a service.
func (s *Storage) UpdateService(ctx context.Context, svc models.Service) error {
	const op = "storage.UpdateService"

	res, err := s.DB.ExecContext(ctx,
		`UPDATE services
		 SET name = $1, category = $2, street = $3, exterior_number = $4,
		     interior_number = $5, neighborhood = $6, postal_code = $7, city = $8,
		     min_price_cents = $9, max_price_cents = $10, description = $11
		 WHERE id = $12`,
		svc.Name, svc.Category,
		svc.Address.Street, svc.Address.ExteriorNumber, svc.Address.InteriorNumber,
		svc.Address.Neighborhood, svc.Address.PostalCode, svc.Address.City,
		svc.MinPriceCents, svc.MaxPriceCents, svc.Description, svc.ID)
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

// ReplaceServiceImages deletes all image rows of the service and inserts
// the new set, in one transaction. The catalog service removes the old
// files from disk separately.
func (s *Storage) ReplaceServiceImages(ctx context.Context, serviceID int64, paths []string) error {
	const op = "storage.ReplaceServiceImages"

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM service_images WHERE service_id = $1`, serviceID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	for _, path := range paths {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO service_images (service_id, path) VALUES ($1, $2)`, serviceID, path); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeleteService removes the service row; image rows go with it via cascade.
func (s *Storage) DeleteService(ctx context.Context, id int64) error {
	const op = "storage.DeleteService"

	res, err := s.DB.ExecContext(ctx, `DELETE FROM services WHERE id = $1`, id)
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
