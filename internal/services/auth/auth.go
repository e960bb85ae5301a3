// Package auth implements registration and login. Clients sign up directly;
// providers pass an identity gate first: the registration is parked under a
// short-lived token and only becomes an account after the face on the
// uploaded ID matches a live capture. A failed or expired verification
// leaves no trace.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/decorent/decorent/internal/facematch"
	"github.com/decorent/decorent/internal/lib/jwt"
	"github.com/decorent/decorent/internal/lib/password"
	"github.com/decorent/decorent/internal/lib/sl"
	"github.com/decorent/decorent/internal/models"
)

// pendingTTL bounds how long a provider registration may sit unverified.
const pendingTTL = 15 * time.Minute

const identityPhotoDir = "identity"

type Repository interface {
	RegisterClient(ctx context.Context, user models.User) (*models.User, error)
	RegisterProvider(ctx context.Context, user models.User, provider models.Provider) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// TokenStore parks pending registrations under a one-shot token that
// expires on its own.
type TokenStore interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Take(ctx context.Context, key string, result any) (bool, error)
}

type FileStore interface {
	Save(dir, name string, data []byte) (string, error)
	Read(rel string) ([]byte, error)
	Delete(rel string) error
}

type FaceMatcher interface {
	Compare(ctx context.Context, sourceImage, targetImage []byte, threshold float64) (*facematch.CompareResult, error)
}

// pendingRegistration is the parked provider sign-up, stored in Redis until
// verification or expiry. The password is already hashed here.
type pendingRegistration struct {
	FullName     string `json:"full_name"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
	CompanyName  string `json:"company_name"`
	BankCLABE    string `json:"bank_clabe"`
	PhotoPath    string `json:"photo_path"`
}

// Service handles both registration flows and login.
type Service struct {
	repo      Repository
	tokens    TokenStore
	files     FileStore
	matcher   FaceMatcher
	jwtMaker  jwt.Maker
	threshold float64
	log       *slog.Logger
}

func New(repo Repository, tokens TokenStore, files FileStore, matcher FaceMatcher,
	jwtMaker jwt.Maker, threshold float64, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		tokens:    tokens,
		files:     files,
		matcher:   matcher,
		jwtMaker:  jwtMaker,
		threshold: threshold,
		log:       log,
	}
}

// RegisterClient creates a client account and returns it with a session
// token. A duplicate email surfaces as ErrConflict.
func (s *Service) RegisterClient(ctx context.Context, req models.RegisterClientRequest) (*models.User, string, error) {
	const op = "auth.RegisterClient"

	hashed, err := password.GetHash(req.Password)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	user, err := s.repo.RegisterClient(ctx, models.User{
		FullName:     req.FullName,
		Email:        req.Email,
		PasswordHash: hashed,
	})
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.jwtMaker.GenerateToken(user.UID, user.Email, user.IsClient, user.IsProvider)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	return user, token, nil
}

// BeginProviderRegistration parks the sign-up and the ID photo and returns
// the verification token. Nothing reaches the database here.
func (s *Service) BeginProviderRegistration(ctx context.Context, req models.RegisterProviderRequest, idPhoto models.ImageUpload) (string, error) {
	const op = "auth.BeginProviderRegistration"

	if _, err := s.repo.GetUserByEmail(ctx, req.Email); err == nil {
		return "", fmt.Errorf("%s: email already registered: %w", op, models.ErrConflict)
	}

	hashed, err := password.GetHash(req.Password)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	token := uuid.NewString()
	photoName := token + filepath.Ext(idPhoto.Filename)
	photoPath, err := s.files.Save(identityPhotoDir, photoName, idPhoto.Data)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	pending := pendingRegistration{
		FullName:     req.FullName,
		Email:        req.Email,
		PasswordHash: hashed,
		CompanyName:  req.CompanyName,
		BankCLABE:    req.BankCLABE,
		PhotoPath:    photoPath,
	}
	if err := s.tokens.Set(ctx, pendingKey(token), pending, pendingTTL); err != nil {
		_ = s.files.Delete(photoPath)
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("provider registration parked", "email", req.Email)
	return token, nil
}

// VerifyIdentity compares the live capture against the parked ID photo.
// On a match the account is created and logged in; on a mismatch or an
// expired token the parked data and photo are discarded.
func (s *Service) VerifyIdentity(ctx context.Context, token string, livePhoto []byte) (*models.User, string, error) {
	const op = "auth.VerifyIdentity"

	var pending pendingRegistration
	found, err := s.tokens.Take(ctx, pendingKey(token), &pending)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return nil, "", fmt.Errorf("%s: registration expired or unknown: %w", op, models.ErrValidation)
	}

	idPhoto, err := s.files.Read(pending.PhotoPath)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	result, err := s.matcher.Compare(ctx, idPhoto, livePhoto, s.threshold)
	if err != nil {
		// Comparison did not run; the photo is gone with the token either
		// way, the applicant has to start over.
		_ = s.files.Delete(pending.PhotoPath)
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	if !result.Match {
		_ = s.files.Delete(pending.PhotoPath)
		s.log.Info("identity verification failed",
			"email", pending.Email, "similarity", result.Similarity)
		return nil, "", fmt.Errorf("%s: identity verification failed: %w", op, models.ErrValidation)
	}

	user, err := s.repo.RegisterProvider(ctx, models.User{
		FullName:     pending.FullName,
		Email:        pending.Email,
		PasswordHash: pending.PasswordHash,
	}, models.Provider{
		CompanyName: pending.CompanyName,
		BankCLABE:   pending.BankCLABE,
	})
	if err != nil {
		_ = s.files.Delete(pending.PhotoPath)
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	if err := s.files.Delete(pending.PhotoPath); err != nil {
		s.log.Warn("verified id photo not removed", "path", pending.PhotoPath, sl.Err(err))
	}

	sessionToken, err := s.jwtMaker.GenerateToken(user.UID, user.Email, user.IsClient, user.IsProvider)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("provider registered", "email", user.Email, "similarity", result.Similarity)
	return user, sessionToken, nil
}

// Login authenticates by email and password. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.User, string, error) {
	const op = "auth.Login"

	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, "", fmt.Errorf("%s: invalid credentials: %w", op, models.ErrPermissionDenied)
	}
	if err := password.CompareHash(user.PasswordHash, req.Password); err != nil {
		return nil, "", fmt.Errorf("%s: invalid credentials: %w", op, models.ErrPermissionDenied)
	}

	token, err := s.jwtMaker.GenerateToken(user.UID, user.Email, user.IsClient, user.IsProvider)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	return user, token, nil
}

func pendingKey(token string) string {
	return "pending_provider:" + token
}
