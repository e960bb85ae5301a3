package payment

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/decorent/decorent/internal/checkout"
	"github.com/decorent/decorent/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetRequest(ctx context.Context, id int64) (*models.BudgetRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BudgetRequest), args.Error(1)
}
func (m *RepoMock) GetService(ctx context.Context, id int64) (*models.Service, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Service), args.Error(1)
}
func (m *RepoMock) GetUserByUID(ctx context.Context, uid string) (*models.User, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *RepoMock) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *RepoMock) GetClientByUserID(ctx context.Context, userID int64) (*models.Client, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}
func (m *RepoMock) GetClientByID(ctx context.Context, id int64) (*models.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}
func (m *RepoMock) GetProviderByUserID(ctx context.Context, userID int64) (*models.Provider, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Provider), args.Error(1)
}
func (m *RepoMock) GetProviderByID(ctx context.Context, id int64) (*models.Provider, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Provider), args.Error(1)
}
func (m *RepoMock) SetProviderCheckoutAccount(ctx context.Context, providerID int64, accountID string) error {
	return m.Called(ctx, providerID, accountID).Error(0)
}
func (m *RepoMock) CreateContract(ctx context.Context, c models.Contract) (int64, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(int64), args.Error(1)
}
func (m *RepoMock) GetContractBySessionID(ctx context.Context, sessionID string) (*models.Contract, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Contract), args.Error(1)
}

type CheckoutMock struct{ mock.Mock }

func (m *CheckoutMock) CreateAccount(ctx context.Context, req checkout.CreateAccountRequest) (*checkout.Account, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*checkout.Account), args.Error(1)
}
func (m *CheckoutMock) CreateAccountLink(ctx context.Context, req checkout.CreateAccountLinkRequest) (*checkout.Link, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*checkout.Link), args.Error(1)
}
func (m *CheckoutMock) CreateLoginLink(ctx context.Context, accountID string) (*checkout.Link, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*checkout.Link), args.Error(1)
}
func (m *CheckoutMock) CreateSession(ctx context.Context, req checkout.CreateSessionRequest) (*checkout.Session, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*checkout.Session), args.Error(1)
}
func (m *CheckoutMock) GetSession(ctx context.Context, sessionID string) (*checkout.Session, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*checkout.Session), args.Error(1)
}

type TokenStoreMock struct{ mock.Mock }

func (m *TokenStoreMock) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return m.Called(ctx, key, value, expiration).Error(0)
}
func (m *TokenStoreMock) Take(ctx context.Context, key string, result any) (bool, error) {
	args := m.Called(ctx, key, result)
	return args.Bool(0), args.Error(1)
}

type NotifierMock struct{ mock.Mock }

func (m *NotifierMock) Notify(ctx context.Context, userID int64, requestID *int64, kind, message string) error {
	return m.Called(ctx, userID, requestID, kind, message).Error(0)
}
func (m *NotifierMock) Retire(ctx context.Context, requestID int64, kind string) error {
	return m.Called(ctx, requestID, kind).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

const baseURL = "https://decorent.example.com"

func TestSurchargeMath(t *testing.T) {
	// A $5,000.00 quote is charged at $5,400.00; the platform keeps $540.00.
	gross := GrossCents(500000)
	assert.Equal(t, int64(540000), gross)
	assert.Equal(t, int64(54000), FeeCents(gross))

	assert.Equal(t, int64(108), GrossCents(100))
	assert.Equal(t, int64(0), GrossCents(0))
}

func acceptedRequest() *models.BudgetRequest {
	price := int64(500000)
	return &models.BudgetRequest{
		ID: 33, ClientID: 10, ProviderID: 20, ServiceID: 7,
		Status: models.RequestStatusAccepted, PriceCents: &price,
	}
}

func clientLookup(r *RepoMock) {
	r.On("GetUserByUID", mock.Anything, "uid-client").
		Return(&models.User{ID: 1, UID: "uid-client", IsClient: true}, nil)
	r.On("GetClientByUserID", mock.Anything, int64(1)).
		Return(&models.Client{ID: 10, UserID: 1}, nil)
}

func TestCreateCheckout(t *testing.T) {
	t.Run("builds the session from the accepted quote", func(t *testing.T) {
		repo := new(RepoMock)
		clientLookup(repo)
		repo.On("GetRequest", mock.Anything, int64(33)).Return(acceptedRequest(), nil).Once()
		repo.On("GetProviderByID", mock.Anything, int64(20)).
			Return(&models.Provider{ID: 20, UserID: 2, CheckoutAccountID: "acct_123"}, nil).Once()
		repo.On("GetService", mock.Anything, int64(7)).
			Return(&models.Service{ID: 7, Name: "Mesas vintage"}, nil).Once()
		client := new(CheckoutMock)
		client.On("CreateSession", mock.Anything, mock.MatchedBy(func(req checkout.CreateSessionRequest) bool {
			return req.UnitAmountCents == 540000 &&
				req.ApplicationFeeCents == 54000 &&
				req.TransferDestination == "acct_123" &&
				req.Metadata["request_id"] == "33" &&
				req.SuccessURL == baseURL+"/api/v1/payments/success?session_id={CHECKOUT_SESSION_ID}"
		})).Return(&checkout.Session{ID: "cs_1", URL: "https://pay.example.com/cs_1"}, nil).Once()

		svc := New(repo, client, new(TokenStoreMock), new(NotifierMock), baseURL, newNoopLogger())
		url, err := svc.CreateCheckout(context.Background(), "uid-client", 33)

		require.NoError(t, err)
		assert.Equal(t, "https://pay.example.com/cs_1", url)
		client.AssertExpectations(t)
	})

	t.Run("provider without linked account blocks checkout", func(t *testing.T) {
		repo := new(RepoMock)
		clientLookup(repo)
		repo.On("GetRequest", mock.Anything, int64(33)).Return(acceptedRequest(), nil).Once()
		repo.On("GetProviderByID", mock.Anything, int64(20)).
			Return(&models.Provider{ID: 20, UserID: 2}, nil).Once()
		client := new(CheckoutMock)

		svc := New(repo, client, new(TokenStoreMock), new(NotifierMock), baseURL, newNoopLogger())
		_, err := svc.CreateCheckout(context.Background(), "uid-client", 33)

		assert.ErrorIs(t, err, models.ErrProviderNotOnboarded)
		client.AssertNotCalled(t, "CreateSession", mock.Anything, mock.Anything)
	})

	t.Run("pending request cannot be paid", func(t *testing.T) {
		repo := new(RepoMock)
		clientLookup(repo)
		repo.On("GetRequest", mock.Anything, int64(33)).
			Return(&models.BudgetRequest{ID: 33, ClientID: 10, ProviderID: 20,
				Status: models.RequestStatusPending}, nil).Once()

		svc := New(repo, new(CheckoutMock), new(TokenStoreMock), new(NotifierMock), baseURL, newNoopLogger())
		_, err := svc.CreateCheckout(context.Background(), "uid-client", 33)
		assert.ErrorIs(t, err, models.ErrConflict)
	})
}

func TestCompletePayment(t *testing.T) {
	paidSession := &checkout.Session{
		ID: "cs_1", Status: "complete", AmountTotal: 540000,
		Metadata: map[string]string{"request_id": "33"},
	}

	t.Run("first callback records contract and notifies everyone once", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetContractBySessionID", mock.Anything, "cs_1").
			Return(nil, models.ErrNotFound).Once()
		repo.On("GetRequest", mock.Anything, int64(33)).Return(acceptedRequest(), nil).Once()
		repo.On("CreateContract", mock.Anything, mock.MatchedBy(func(c models.Contract) bool {
			return c.CheckoutSessionID == "cs_1" && c.PriceCents == 540000 &&
				c.Status == models.ContractStatusCompleted && c.ClientID == 10
		})).Return(int64(88), nil).Once()
		repo.On("GetService", mock.Anything, int64(7)).
			Return(&models.Service{ID: 7, Name: "Mesas vintage"}, nil).Once()
		repo.On("GetClientByID", mock.Anything, int64(10)).
			Return(&models.Client{ID: 10, UserID: 1}, nil).Once()
		repo.On("GetProviderByID", mock.Anything, int64(20)).
			Return(&models.Provider{ID: 20, UserID: 2}, nil).Once()
		client := new(CheckoutMock)
		client.On("GetSession", mock.Anything, "cs_1").Return(paidSession, nil).Once()
		notifier := new(NotifierMock)
		notifier.On("Retire", mock.Anything, int64(33), models.NotificationRequestAnswered).
			Return(nil).Once()
		notifier.On("Notify", mock.Anything, int64(1), mock.Anything,
			models.NotificationPaymentConfirmed, mock.Anything).Return(nil).Once()
		notifier.On("Notify", mock.Anything, int64(1), mock.Anything,
			models.NotificationRateService, mock.Anything).Return(nil).Once()
		notifier.On("Notify", mock.Anything, int64(2), mock.Anything,
			models.NotificationPaymentConfirmed, mock.Anything).Return(nil).Once()

		svc := New(repo, client, new(TokenStoreMock), notifier, baseURL, newNoopLogger())
		contract, already, err := svc.CompletePayment(context.Background(), "cs_1")

		require.NoError(t, err)
		assert.False(t, already)
		assert.Equal(t, int64(88), contract.ID)
		repo.AssertExpectations(t)
		notifier.AssertExpectations(t)
	})

	t.Run("replayed callback returns the stored contract untouched", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetContractBySessionID", mock.Anything, "cs_1").
			Return(&models.Contract{ID: 88, CheckoutSessionID: "cs_1"}, nil).Once()
		client := new(CheckoutMock)
		notifier := new(NotifierMock)

		svc := New(repo, client, new(TokenStoreMock), notifier, baseURL, newNoopLogger())
		contract, already, err := svc.CompletePayment(context.Background(), "cs_1")

		require.NoError(t, err)
		assert.True(t, already)
		assert.Equal(t, int64(88), contract.ID)
		repo.AssertNotCalled(t, "CreateContract", mock.Anything, mock.Anything)
		client.AssertNotCalled(t, "GetSession", mock.Anything, mock.Anything)
		notifier.AssertNotCalled(t, "Notify",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("losing the insert race resolves to the winner's contract", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetContractBySessionID", mock.Anything, "cs_1").
			Return(nil, models.ErrNotFound).Once()
		repo.On("GetRequest", mock.Anything, int64(33)).Return(acceptedRequest(), nil).Once()
		repo.On("CreateContract", mock.Anything, mock.Anything).
			Return(int64(0), models.ErrConflict).Once()
		repo.On("GetContractBySessionID", mock.Anything, "cs_1").
			Return(&models.Contract{ID: 88, CheckoutSessionID: "cs_1"}, nil).Once()
		client := new(CheckoutMock)
		client.On("GetSession", mock.Anything, "cs_1").Return(paidSession, nil).Once()
		notifier := new(NotifierMock)

		svc := New(repo, client, new(TokenStoreMock), notifier, baseURL, newNoopLogger())
		contract, already, err := svc.CompletePayment(context.Background(), "cs_1")

		require.NoError(t, err)
		assert.True(t, already)
		assert.Equal(t, int64(88), contract.ID)
		notifier.AssertNotCalled(t, "Notify",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("session without a request id cannot be resolved", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetContractBySessionID", mock.Anything, "cs_3").
			Return(nil, models.ErrNotFound).Once()
		client := new(CheckoutMock)
		client.On("GetSession", mock.Anything, "cs_3").
			Return(&checkout.Session{ID: "cs_3", Status: "complete", AmountTotal: 540000}, nil).Once()

		svc := New(repo, client, new(TokenStoreMock), new(NotifierMock), baseURL, newNoopLogger())
		_, _, err := svc.CompletePayment(context.Background(), "cs_3")

		assert.ErrorIs(t, err, models.ErrNotFound)
		repo.AssertNotCalled(t, "CreateContract", mock.Anything, mock.Anything)
	})

	t.Run("session unknown to the provider is not found", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetContractBySessionID", mock.Anything, "cs_missing").
			Return(nil, models.ErrNotFound).Once()
		client := new(CheckoutMock)
		client.On("GetSession", mock.Anything, "cs_missing").
			Return(nil, fmt.Errorf("404 Not Found: %w", models.ErrNotFound)).Once()

		svc := New(repo, client, new(TokenStoreMock), new(NotifierMock), baseURL, newNoopLogger())
		_, _, err := svc.CompletePayment(context.Background(), "cs_missing")

		assert.ErrorIs(t, err, models.ErrNotFound)
		repo.AssertNotCalled(t, "CreateContract", mock.Anything, mock.Anything)
	})

	t.Run("unpaid session is rejected", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetContractBySessionID", mock.Anything, "cs_2").
			Return(nil, models.ErrNotFound).Once()
		client := new(CheckoutMock)
		client.On("GetSession", mock.Anything, "cs_2").
			Return(&checkout.Session{ID: "cs_2", Status: "open",
				Metadata: map[string]string{"request_id": "33"}}, nil).Once()

		svc := New(repo, client, new(TokenStoreMock), new(NotifierMock), baseURL, newNoopLogger())
		_, _, err := svc.CompletePayment(context.Background(), "cs_2")

		assert.ErrorIs(t, err, models.ErrValidation)
		repo.AssertNotCalled(t, "CreateContract", mock.Anything, mock.Anything)
	})
}

func TestOnboarding(t *testing.T) {
	t.Run("begin parks the account under the return token", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetUserByUID", mock.Anything, "uid-provider").
			Return(&models.User{ID: 2, UID: "uid-provider", Email: "p@example.com", IsProvider: true}, nil).Once()
		repo.On("GetProviderByUserID", mock.Anything, int64(2)).
			Return(&models.Provider{ID: 20, UserID: 2}, nil).Once()
		client := new(CheckoutMock)
		client.On("CreateAccount", mock.Anything, mock.MatchedBy(func(req checkout.CreateAccountRequest) bool {
			return req.Email == "p@example.com" && req.Type == "express"
		})).Return(&checkout.Account{ID: "acct_123"}, nil).Once()
		tokens := new(TokenStoreMock)
		tokens.On("Set", mock.Anything, mock.Anything, mock.MatchedBy(func(p pendingOnboarding) bool {
			return p.ProviderID == 20 && p.AccountID == "acct_123"
		}), onboardingTTL).Return(nil).Once()
		client.On("CreateAccountLink", mock.Anything, mock.MatchedBy(func(req checkout.CreateAccountLinkRequest) bool {
			return req.Account == "acct_123"
		})).Return(&checkout.Link{URL: "https://onboard.example.com/x"}, nil).Once()

		svc := New(repo, client, tokens, new(NotifierMock), baseURL, newNoopLogger())
		url, err := svc.BeginOnboarding(context.Background(), "uid-provider")

		require.NoError(t, err)
		assert.Equal(t, "https://onboard.example.com/x", url)
		tokens.AssertExpectations(t)
	})

	t.Run("complete links the parked account", func(t *testing.T) {
		tokens := new(TokenStoreMock)
		tokens.On("Take", mock.Anything, onboardingKey("tok"), mock.Anything).
			Run(func(args mock.Arguments) {
				*args.Get(2).(*pendingOnboarding) = pendingOnboarding{ProviderID: 20, AccountID: "acct_123"}
			}).Return(true, nil).Once()
		repo := new(RepoMock)
		repo.On("SetProviderCheckoutAccount", mock.Anything, int64(20), "acct_123").
			Return(nil).Once()

		svc := New(repo, new(CheckoutMock), tokens, new(NotifierMock), baseURL, newNoopLogger())
		require.NoError(t, svc.CompleteOnboarding(context.Background(), "tok"))
		repo.AssertExpectations(t)
	})

	t.Run("expired token fails validation", func(t *testing.T) {
		tokens := new(TokenStoreMock)
		tokens.On("Take", mock.Anything, onboardingKey("gone"), mock.Anything).
			Return(false, nil).Once()
		repo := new(RepoMock)

		svc := New(repo, new(CheckoutMock), tokens, new(NotifierMock), baseURL, newNoopLogger())
		err := svc.CompleteOnboarding(context.Background(), "gone")

		assert.ErrorIs(t, err, models.ErrValidation)
		repo.AssertNotCalled(t, "SetProviderCheckoutAccount", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDashboardLink(t *testing.T) {
	repo := new(RepoMock)
	repo.On("GetUserByUID", mock.Anything, "uid-provider").
		Return(&models.User{ID: 2, UID: "uid-provider", IsProvider: true}, nil).Once()
	repo.On("GetProviderByUserID", mock.Anything, int64(2)).
		Return(&models.Provider{ID: 20, UserID: 2}, nil).Once()

	svc := New(repo, new(CheckoutMock), new(TokenStoreMock), new(NotifierMock), baseURL, newNoopLogger())
	_, err := svc.DashboardLink(context.Background(), "uid-provider")
	assert.ErrorIs(t, err, models.ErrProviderNotOnboarded)
}
