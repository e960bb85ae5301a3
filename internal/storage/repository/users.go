package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/decorent/decorent/internal/models"
)

const userColumns = `id, uid, full_name, email, password_hash, is_client, is_provider,
			  google_signup, facebook_signup, ios_signup, created_at`

func scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.UID, &u.FullName, &u.Email, &u.PasswordHash,
		&u.IsClient, &u.IsProvider, &u.GoogleSignup, &u.FacebookSignup,
		&u.IOSSignup, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// RegisterClient inserts the user and its client profile in one transaction
// and returns the stored user. A duplicate email surfaces as ErrConflict.
func (s *Storage) RegisterClient(ctx context.Context, user models.User) (*models.User, error) {
	const op = "storage.RegisterClient"

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `INSERT INTO users (full_name, email, password_hash, is_client)
			  VALUES ($1, $2, $3, TRUE)
			  RETURNING ` + userColumns
	u := &models.User{}
	if err := tx.QueryRowContext(ctx, query, user.FullName, user.Email, user.PasswordHash).
		Scan(&u.ID, &u.UID, &u.FullName, &u.Email, &u.PasswordHash,
			&u.IsClient, &u.IsProvider, &u.GoogleSignup, &u.FacebookSignup,
			&u.IOSSignup, &u.CreatedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, translate(err))
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO clients (user_id) VALUES ($1)`, u.ID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// RegisterProvider inserts the user and its provider profile in one
// transaction. Nothing is persisted before this call: the identity
// verification gate runs first and only a verified registration reaches
// the database.
func (s *Storage) RegisterProvider(ctx context.Context, user models.User, provider models.Provider) (*models.User, error) {
	const op = "storage.RegisterProvider"

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `INSERT INTO users (full_name, email, password_hash, is_provider)
			  VALUES ($1, $2, $3, TRUE)
			  RETURNING ` + userColumns
	u := &models.User{}
	if err := tx.QueryRowContext(ctx, query, user.FullName, user.Email, user.PasswordHash).
		Scan(&u.ID, &u.UID, &u.FullName, &u.Email, &u.PasswordHash,
			&u.IsClient, &u.IsProvider, &u.GoogleSignup, &u.FacebookSignup,
			&u.IOSSignup, &u.CreatedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, translate(err))
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO providers (user_id, company_name, bank_clabe) VALUES ($1, $2, $3)`,
		u.ID, provider.CompanyName, provider.BankCLABE); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByEmail returns the user with the given login email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translate(err))
	}
	return u, nil
}

// GetUserByUID returns the user identified by the uid carried in JWT claims.
func (s *Storage) GetUserByUID(ctx context.Context, uid string) (*models.User, error) {
	const op = "storage.GetUserByUID"

	query := `SELECT ` + userColumns + ` FROM users WHERE uid = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, uid))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translate(err))
	}
	return u, nil
}

// GetUserByID returns the user by primary key.
func (s *Storage) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	const op = "storage.GetUserByID"

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translate(err))
	}
	return u, nil
}

// GetClientByUserID returns the client profile of a user.
func (s *Storage) GetClientByUserID(ctx context.Context, userID int64) (*models.Client, error) {
	const op = "storage.GetClientByUserID"

	c := &models.Client{}
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, user_id FROM clients WHERE user_id = $1`, userID).
		Scan(&c.ID, &c.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translate(err))
	}
	return c, nil
}

// GetClientByID returns the client profile by primary key.
func (s *Storage) GetClientByID(ctx context.Context, id int64) (*models.Client, error) {
	const op = "storage.GetClientByID"

	c := &models.Client{}
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, user_id FROM clients WHERE id = $1`, id).
		Scan(&c.ID, &c.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translate(err))
	}
	return c, nil
}

func scanProvider(row *sql.Row) (*models.Provider, error) {
	p := &models.Provider{}
	var account sql.NullString
	if err := row.Scan(&p.ID, &p.UserID, &p.CompanyName, &p.BankCLABE, &account); err != nil {
		return nil, err
	}
	if account.Valid {
		p.CheckoutAccountID = account.String
	}
	return p, nil
}

// GetProviderByUserID returns the provider profile of a user.
func (s *Storage) GetProviderByUserID(ctx context.Context, userID int64) (*models.Provider, error) {
	const op = "storage.GetProviderByUserID"

	p, err := scanProvider(s.DB.QueryRowContext(ctx,
		`SELECT id, user_id, company_name, bank_clabe, checkout_account_id
		 FROM providers WHERE user_id = $1`, userID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translate(err))
	}
	return p, nil
}

// GetProviderByID returns the provider profile by primary key.
func (s *Storage) GetProviderByID(ctx context.Context, id int64) (*models.Provider, error) {
	const op = "storage.GetProviderByID"

	p, err := scanProvider(s.DB.QueryRowContext(ctx,
		`SELECT id, user_id, company_name, bank_clabe, checkout_account_id
		 FROM providers WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translate(err))
	}
	return p, nil
}

// SetProviderCheckoutAccount stores the connected payment-account id once
// onboarding completes.
func (s *Storage) SetProviderCheckoutAccount(ctx context.Context, providerID int64, accountID string) error {
	const op = "storage.SetProviderCheckoutAccount"

	res, err := s.DB.ExecContext(ctx,
		`UPDATE providers SET checkout_account_id = $1 WHERE id = $2`, accountID, providerID)
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
