// Package payment takes an accepted budget request through hosted checkout
// and records the resulting contract. Tax is added on top of the quote and
// the platform keeps a ten percent fee; the rest is routed to the
// provider's connected account. Success callbacks are processed at most
// once per checkout session.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/decorent/decorent/internal/checkout"
	"github.com/decorent/decorent/internal/lib/sl"
	"github.com/decorent/decorent/internal/models"
)

// Integer cent math for the surcharges: 8 percent tax on the quote,
// then a 10 percent platform fee on the taxed total.
const (
	taxPercent = 8
	feePercent = 10
)

const (
	currency      = "mxn"
	onboardingTTL = time.Hour
)

type Repository interface {
	GetRequest(ctx context.Context, id int64) (*models.BudgetRequest, error)
	GetService(ctx context.Context, id int64) (*models.Service, error)
	GetUserByUID(ctx context.Context, uid string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetClientByUserID(ctx context.Context, userID int64) (*models.Client, error)
	GetClientByID(ctx context.Context, id int64) (*models.Client, error)
	GetProviderByUserID(ctx context.Context, userID int64) (*models.Provider, error)
	GetProviderByID(ctx context.Context, id int64) (*models.Provider, error)
	SetProviderCheckoutAccount(ctx context.Context, providerID int64, accountID string) error
	CreateContract(ctx context.Context, c models.Contract) (int64, error)
	GetContractBySessionID(ctx context.Context, sessionID string) (*models.Contract, error)
}

// CheckoutClient is the payment-provider API surface the workflow needs.
type CheckoutClient interface {
	CreateAccount(ctx context.Context, req checkout.CreateAccountRequest) (*checkout.Account, error)
	CreateAccountLink(ctx context.Context, req checkout.CreateAccountLinkRequest) (*checkout.Link, error)
	CreateLoginLink(ctx context.Context, accountID string) (*checkout.Link, error)
	CreateSession(ctx context.Context, req checkout.CreateSessionRequest) (*checkout.Session, error)
	GetSession(ctx context.Context, sessionID string) (*checkout.Session, error)
}

// TokenStore parks in-flight onboardings under a one-shot token.
type TokenStore interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Take(ctx context.Context, key string, result any) (bool, error)
}

type Notifier interface {
	Notify(ctx context.Context, userID int64, requestID *int64, kind, message string) error
	Retire(ctx context.Context, requestID int64, kind string) error
}

// pendingOnboarding ties the account created at the payment provider back
// to the provider row once the onboarding return URL is hit.
type pendingOnboarding struct {
	ProviderID int64  `json:"provider_id"`
	AccountID  string `json:"account_id"`
}

// Service is the payment workflow.
type Service struct {
	repo          Repository
	client        CheckoutClient
	tokens        TokenStore
	notifier      Notifier
	publicBaseURL string
	log           *slog.Logger
}

func New(repo Repository, client CheckoutClient, tokens TokenStore, notifier Notifier,
	publicBaseURL string, log *slog.Logger) *Service {
	return &Service{
		repo:          repo,
		client:        client,
		tokens:        tokens,
		notifier:      notifier,
		publicBaseURL: publicBaseURL,
		log:           log,
	}
}

// GrossCents returns the quoted price with tax added on top.
func GrossCents(priceCents int64) int64 {
	return priceCents * (100 + taxPercent) / 100
}

// FeeCents returns the platform's cut of the taxed total.
func FeeCents(grossCents int64) int64 {
	return grossCents * feePercent / 100
}

// CreateCheckout builds a hosted checkout session for an accepted request
// of the calling client and returns the redirect URL. The session carries
// the request id in its metadata so the success callback can find its way
// back without trusting the browser.
func (s *Service) CreateCheckout(ctx context.Context, userUID string, requestID int64) (string, error) {
	const op = "payment.CreateCheckout"

	user, err := s.repo.GetUserByUID(ctx, userUID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	client, err := s.repo.GetClientByUserID(ctx, user.ID)
	if err != nil {
		return "", fmt.Errorf("%s: caller is not a client: %w", op, models.ErrPermissionDenied)
	}
	req, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if req.ClientID != client.ID {
		return "", fmt.Errorf("%s: not this client's request: %w", op, models.ErrPermissionDenied)
	}
	if req.Status != models.RequestStatusAccepted || req.PriceCents == nil {
		return "", fmt.Errorf("%s: request has no accepted quote: %w", op, models.ErrConflict)
	}

	provider, err := s.repo.GetProviderByID(ctx, req.ProviderID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if provider.CheckoutAccountID == "" {
		return "", fmt.Errorf("%s: %w", op, models.ErrProviderNotOnboarded)
	}
	svc, err := s.repo.GetService(ctx, req.ServiceID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	gross := GrossCents(*req.PriceCents)
	session, err := s.client.CreateSession(ctx, checkout.CreateSessionRequest{
		Currency:            currency,
		ProductName:         svc.Name,
		UnitAmountCents:     gross,
		Quantity:            1,
		SuccessURL:          s.publicBaseURL + "/api/v1/payments/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:           s.publicBaseURL + "/api/v1/payments/cancel",
		ApplicationFeeCents: FeeCents(gross),
		TransferDestination: provider.CheckoutAccountID,
		Metadata:            map[string]string{"request_id": strconv.FormatInt(requestID, 10)},
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("checkout session created",
		"request_id", requestID, "session_id", session.ID, "gross_cents", gross)
	return session.URL, nil
}

// CompletePayment handles the success callback. It re-reads the session
// from the payment provider, records the contract and sends the closing
// notifications. The second return value is true when the session was
// already processed; the stored contract is returned unchanged and nothing
// is sent twice.
func (s *Service) CompletePayment(ctx context.Context, sessionID string) (*models.Contract, bool, error) {
	const op = "payment.CompletePayment"

	if existing, err := s.repo.GetContractBySessionID(ctx, sessionID); err == nil {
		return existing, true, nil
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	session, err := s.client.GetSession(ctx, sessionID)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	if session.Status != "complete" {
		return nil, false, fmt.Errorf("%s: session not paid: %w", op, models.ErrValidation)
	}
	requestID, err := strconv.ParseInt(session.Metadata["request_id"], 10, 64)
	if err != nil {
		// A session without a request id cannot be correlated to anything
		// on our side.
		return nil, false, fmt.Errorf("%s: session has no request id: %w", op, models.ErrNotFound)
	}
	req, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	contract := models.Contract{
		ClientID:          req.ClientID,
		ServiceID:         req.ServiceID,
		PriceCents:        session.AmountTotal,
		Status:            models.ContractStatusCompleted,
		ContractDate:      time.Now().UTC(),
		CheckoutSessionID: sessionID,
	}
	id, err := s.repo.CreateContract(ctx, contract)
	if errors.Is(err, models.ErrConflict) {
		// Lost the race against a concurrent callback for the same session.
		stored, err := s.repo.GetContractBySessionID(ctx, sessionID)
		if err != nil {
			return nil, false, fmt.Errorf("%s: %w", op, err)
		}
		return stored, true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	contract.ID = id

	s.closeOutRequest(ctx, req, session.AmountTotal)
	s.log.Info("payment recorded",
		"contract_id", id, "request_id", requestID, "session_id", sessionID)
	return &contract, false, nil
}

// closeOutRequest retires the quote notification and fans out the payment
// confirmations plus the review reminder. Failures here are logged only;
// the contract is already recorded.
func (s *Service) closeOutRequest(ctx context.Context, req *models.BudgetRequest, amountCents int64) {
	if err := s.notifier.Retire(ctx, req.ID, models.NotificationRequestAnswered); err != nil {
		s.log.Warn("stale notifications not retired", "request_id", req.ID, sl.Err(err))
	}

	svc, err := s.repo.GetService(ctx, req.ServiceID)
	serviceName := "the service"
	if err == nil {
		serviceName = svc.Name
	}
	amount := float64(amountCents) / 100

	if client, err := s.repo.GetClientByID(ctx, req.ClientID); err == nil {
		msgPaid := fmt.Sprintf("Your payment of $%.2f for %s was received.", amount, serviceName)
		if err := s.notifier.Notify(ctx, client.UserID, &req.ID,
			models.NotificationPaymentConfirmed, msgPaid); err != nil {
			s.log.Warn("client not notified", "request_id", req.ID, sl.Err(err))
		}
		msgRate := fmt.Sprintf("How was %s? Leave a review.", serviceName)
		if err := s.notifier.Notify(ctx, client.UserID, &req.ID,
			models.NotificationRateService, msgRate); err != nil {
			s.log.Warn("client not notified", "request_id", req.ID, sl.Err(err))
		}
	} else {
		s.log.Warn("client not notified", "request_id", req.ID, sl.Err(err))
	}

	if provider, err := s.repo.GetProviderByID(ctx, req.ProviderID); err == nil {
		msg := fmt.Sprintf("You received a payment of $%.2f for %s.", amount, serviceName)
		if err := s.notifier.Notify(ctx, provider.UserID, &req.ID,
			models.NotificationPaymentConfirmed, msg); err != nil {
			s.log.Warn("provider not notified", "request_id", req.ID, sl.Err(err))
		}
	} else {
		s.log.Warn("provider not notified", "request_id", req.ID, sl.Err(err))
	}
}

// BeginOnboarding creates a connected account for the calling provider and
// returns the hosted onboarding URL. The account id is parked under a
// one-shot token carried in the return URL.
func (s *Service) BeginOnboarding(ctx context.Context, userUID string) (string, error) {
	const op = "payment.BeginOnboarding"

	user, err := s.repo.GetUserByUID(ctx, userUID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	provider, err := s.repo.GetProviderByUserID(ctx, user.ID)
	if err != nil {
		return "", fmt.Errorf("%s: caller is not a provider: %w", op, models.ErrPermissionDenied)
	}

	account, err := s.client.CreateAccount(ctx, checkout.CreateAccountRequest{
		Type:         "express",
		Country:      "MX",
		Email:        user.Email,
		BusinessType: "individual",
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	token := uuid.NewString()
	pending := pendingOnboarding{ProviderID: provider.ID, AccountID: account.ID}
	if err := s.tokens.Set(ctx, onboardingKey(token), pending, onboardingTTL); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	link, err := s.client.CreateAccountLink(ctx, checkout.CreateAccountLinkRequest{
		Account:    account.ID,
		RefreshURL: s.publicBaseURL + "/api/v1/payments/onboard",
		ReturnURL:  s.publicBaseURL + "/api/v1/payments/onboard/complete?token=" + token,
		Type:       "account_onboarding",
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("onboarding started", "provider_id", provider.ID, "account_id", account.ID)
	return link.URL, nil
}

// CompleteOnboarding consumes the return-URL token and links the connected
// account to the provider row. A reused or expired token fails validation.
func (s *Service) CompleteOnboarding(ctx context.Context, token string) error {
	const op = "payment.CompleteOnboarding"

	var pending pendingOnboarding
	found, err := s.tokens.Take(ctx, onboardingKey(token), &pending)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return fmt.Errorf("%s: onboarding token expired or unknown: %w", op, models.ErrValidation)
	}
	if err := s.repo.SetProviderCheckoutAccount(ctx, pending.ProviderID, pending.AccountID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("onboarding completed",
		"provider_id", pending.ProviderID, "account_id", pending.AccountID)
	return nil
}

// DashboardLink returns a one-time login URL into the provider's express
// dashboard.
func (s *Service) DashboardLink(ctx context.Context, userUID string) (string, error) {
	const op = "payment.DashboardLink"

	user, err := s.repo.GetUserByUID(ctx, userUID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	provider, err := s.repo.GetProviderByUserID(ctx, user.ID)
	if err != nil {
		return "", fmt.Errorf("%s: caller is not a provider: %w", op, models.ErrPermissionDenied)
	}
	if provider.CheckoutAccountID == "" {
		return "", fmt.Errorf("%s: %w", op, models.ErrProviderNotOnboarded)
	}

	link, err := s.client.CreateLoginLink(ctx, provider.CheckoutAccountID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return link.URL, nil
}

func onboardingKey(token string) string {
	return "onboarding:" + token
}
