package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/decorent/decorent/internal/facematch"
	"github.com/decorent/decorent/internal/lib/jwt"
	"github.com/decorent/decorent/internal/lib/password"
	"github.com/decorent/decorent/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) RegisterClient(ctx context.Context, user models.User) (*models.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *RepoMock) RegisterProvider(ctx context.Context, user models.User, provider models.Provider) (*models.User, error) {
	args := m.Called(ctx, user, provider)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *RepoMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type TokenStoreMock struct{ mock.Mock }

func (m *TokenStoreMock) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return m.Called(ctx, key, value, expiration).Error(0)
}
func (m *TokenStoreMock) Take(ctx context.Context, key string, result any) (bool, error) {
	args := m.Called(ctx, key, result)
	return args.Bool(0), args.Error(1)
}

type FileStoreMock struct{ mock.Mock }

func (m *FileStoreMock) Save(dir, name string, data []byte) (string, error) {
	args := m.Called(dir, name, data)
	return args.String(0), args.Error(1)
}
func (m *FileStoreMock) Read(rel string) ([]byte, error) {
	args := m.Called(rel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
func (m *FileStoreMock) Delete(rel string) error {
	return m.Called(rel).Error(0)
}

type MatcherMock struct{ mock.Mock }

func (m *MatcherMock) Compare(ctx context.Context, source, target []byte, threshold float64) (*facematch.CompareResult, error) {
	args := m.Called(ctx, source, target, threshold)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*facematch.CompareResult), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newService(repo *RepoMock, tokens *TokenStoreMock, files *FileStoreMock, matcher *MatcherMock) *Service {
	maker := jwt.NewMaker("test-secret", time.Hour)
	return New(repo, tokens, files, matcher, maker, 90, newNoopLogger())
}

func TestLogin(t *testing.T) {
	hash, err := password.GetHash("correct-horse")
	require.NoError(t, err)
	stored := &models.User{ID: 1, UID: "uid-1", Email: "c@example.com", PasswordHash: hash, IsClient: true}

	tests := []struct {
		name     string
		password string
		lookup   func(r *RepoMock)
		wantErr  error
	}{
		{
			name:     "valid credentials",
			password: "correct-horse",
			lookup: func(r *RepoMock) {
				r.On("GetUserByEmail", mock.Anything, "c@example.com").Return(stored, nil).Once()
			},
		},
		{
			name:     "wrong password",
			password: "battery-staple",
			lookup: func(r *RepoMock) {
				r.On("GetUserByEmail", mock.Anything, "c@example.com").Return(stored, nil).Once()
			},
			wantErr: models.ErrPermissionDenied,
		},
		{
			name:     "unknown email",
			password: "correct-horse",
			lookup: func(r *RepoMock) {
				r.On("GetUserByEmail", mock.Anything, "c@example.com").
					Return(nil, models.ErrNotFound).Once()
			},
			wantErr: models.ErrPermissionDenied,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.lookup(repo)
			svc := newService(repo, new(TokenStoreMock), new(FileStoreMock), new(MatcherMock))

			user, token, err := svc.Login(context.Background(),
				models.LoginRequest{Email: "c@example.com", Password: tt.password})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, token)
			} else {
				assert.NoError(t, err)
				assert.NotEmpty(t, token)
				assert.Equal(t, stored.UID, user.UID)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestRegisterClient(t *testing.T) {
	repo := new(RepoMock)
	repo.On("RegisterClient", mock.Anything, mock.MatchedBy(func(u models.User) bool {
		return u.Email == "c@example.com" && u.PasswordHash != "" && u.PasswordHash != "hunter2hunter2"
	})).Return(&models.User{ID: 1, UID: "uid-1", Email: "c@example.com", IsClient: true}, nil).Once()

	svc := newService(repo, new(TokenStoreMock), new(FileStoreMock), new(MatcherMock))
	user, token, err := svc.RegisterClient(context.Background(), models.RegisterClientRequest{
		FullName: "Casey", Email: "c@example.com", Password: "hunter2hunter2",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, user.IsClient)
	repo.AssertExpectations(t)
}

func TestBeginProviderRegistration(t *testing.T) {
	t.Run("parks record and photo", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetUserByEmail", mock.Anything, "p@example.com").
			Return(nil, models.ErrNotFound).Once()
		files := new(FileStoreMock)
		files.On("Save", identityPhotoDir, mock.Anything, []byte("id-bytes")).
			Return("identity/tok.jpg", nil).Once()
		tokens := new(TokenStoreMock)
		tokens.On("Set", mock.Anything, mock.Anything, mock.MatchedBy(func(p pendingRegistration) bool {
			return p.Email == "p@example.com" && p.PhotoPath == "identity/tok.jpg" &&
				p.PasswordHash != "hunter2hunter2"
		}), pendingTTL).Return(nil).Once()

		svc := newService(repo, tokens, files, new(MatcherMock))
		token, err := svc.BeginProviderRegistration(context.Background(), models.RegisterProviderRequest{
			FullName: "Pat", Email: "p@example.com", Password: "hunter2hunter2",
			CompanyName: "Deco SA", BankCLABE: "002010077777777771",
		}, models.ImageUpload{Filename: "ine.jpg", Data: []byte("id-bytes")})

		require.NoError(t, err)
		assert.NotEmpty(t, token)
		repo.AssertExpectations(t)
		files.AssertExpectations(t)
		tokens.AssertExpectations(t)
	})

	t.Run("duplicate email rejected before anything is stored", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetUserByEmail", mock.Anything, "p@example.com").
			Return(&models.User{ID: 9, Email: "p@example.com"}, nil).Once()
		files := new(FileStoreMock)

		svc := newService(repo, new(TokenStoreMock), files, new(MatcherMock))
		_, err := svc.BeginProviderRegistration(context.Background(), models.RegisterProviderRequest{
			FullName: "Pat", Email: "p@example.com", Password: "hunter2hunter2",
			CompanyName: "Deco SA", BankCLABE: "002010077777777771",
		}, models.ImageUpload{Filename: "ine.jpg", Data: []byte("id-bytes")})

		assert.ErrorIs(t, err, models.ErrConflict)
		files.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestVerifyIdentity(t *testing.T) {
	pending := pendingRegistration{
		FullName: "Pat", Email: "p@example.com", PasswordHash: "$2a$10$hash",
		CompanyName: "Deco SA", BankCLABE: "002010077777777771",
		PhotoPath: "identity/tok.jpg",
	}
	takeReturning := func(tokens *TokenStoreMock) {
		tokens.On("Take", mock.Anything, pendingKey("tok"), mock.Anything).
			Run(func(args mock.Arguments) {
				*args.Get(2).(*pendingRegistration) = pending
			}).Return(true, nil).Once()
	}

	t.Run("match creates the account", func(t *testing.T) {
		tokens := new(TokenStoreMock)
		takeReturning(tokens)
		files := new(FileStoreMock)
		files.On("Read", "identity/tok.jpg").Return([]byte("id-bytes"), nil).Once()
		files.On("Delete", "identity/tok.jpg").Return(nil).Once()
		matcher := new(MatcherMock)
		matcher.On("Compare", mock.Anything, []byte("id-bytes"), []byte("live-bytes"), float64(90)).
			Return(&facematch.CompareResult{Match: true, Similarity: 97.4}, nil).Once()
		repo := new(RepoMock)
		repo.On("RegisterProvider", mock.Anything,
			mock.MatchedBy(func(u models.User) bool { return u.Email == "p@example.com" }),
			mock.MatchedBy(func(p models.Provider) bool { return p.CompanyName == "Deco SA" })).
			Return(&models.User{ID: 2, UID: "uid-2", Email: "p@example.com", IsProvider: true}, nil).Once()

		svc := newService(repo, tokens, files, matcher)
		user, token, err := svc.VerifyIdentity(context.Background(), "tok", []byte("live-bytes"))

		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.True(t, user.IsProvider)
		repo.AssertExpectations(t)
		files.AssertExpectations(t)
	})

	t.Run("mismatch discards everything", func(t *testing.T) {
		tokens := new(TokenStoreMock)
		takeReturning(tokens)
		files := new(FileStoreMock)
		files.On("Read", "identity/tok.jpg").Return([]byte("id-bytes"), nil).Once()
		files.On("Delete", "identity/tok.jpg").Return(nil).Once()
		matcher := new(MatcherMock)
		matcher.On("Compare", mock.Anything, mock.Anything, mock.Anything, float64(90)).
			Return(&facematch.CompareResult{Match: false, Similarity: 41.2}, nil).Once()
		repo := new(RepoMock)

		svc := newService(repo, tokens, files, matcher)
		_, _, err := svc.VerifyIdentity(context.Background(), "tok", []byte("live-bytes"))

		assert.ErrorIs(t, err, models.ErrValidation)
		repo.AssertNotCalled(t, "RegisterProvider", mock.Anything, mock.Anything, mock.Anything)
		files.AssertExpectations(t)
	})

	t.Run("expired token", func(t *testing.T) {
		tokens := new(TokenStoreMock)
		tokens.On("Take", mock.Anything, pendingKey("gone"), mock.Anything).
			Return(false, nil).Once()
		repo := new(RepoMock)

		svc := newService(repo, tokens, new(FileStoreMock), new(MatcherMock))
		_, _, err := svc.VerifyIdentity(context.Background(), "gone", []byte("live-bytes"))

		assert.ErrorIs(t, err, models.ErrValidation)
		repo.AssertNotCalled(t, "RegisterProvider", mock.Anything, mock.Anything, mock.Anything)
	})
}
