// Package request runs the budget-request workflow between clients and
// providers: create, quote, reject, and the client's rejection of a quote.
// Rejected is terminal; a price exists exactly while a request is accepted.
package request

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/decorent/decorent/internal/lib/sl"
	"github.com/decorent/decorent/internal/models"
)

type Repository interface {
	CreateRequest(ctx context.Context, r models.BudgetRequest) (int64, error)
	GetRequest(ctx context.Context, id int64) (*models.BudgetRequest, error)
	ListRequestsByProvider(ctx context.Context, providerID int64) ([]*models.BudgetRequest, error)
	ListRequestsByClient(ctx context.Context, clientID int64) ([]*models.BudgetRequest, error)
	AcceptRequest(ctx context.Context, id int64, priceCents int64) (bool, error)
	RejectRequest(ctx context.Context, id int64) error
	GetService(ctx context.Context, id int64) (*models.Service, error)
	GetUserByUID(ctx context.Context, uid string) (*models.User, error)
	GetClientByUserID(ctx context.Context, userID int64) (*models.Client, error)
	GetClientByID(ctx context.Context, id int64) (*models.Client, error)
	GetProviderByUserID(ctx context.Context, userID int64) (*models.Provider, error)
	GetProviderByID(ctx context.Context, id int64) (*models.Provider, error)
}

// Notifier is the slice of the notification service the workflow uses.
type Notifier interface {
	Notify(ctx context.Context, userID int64, requestID *int64, kind, message string) error
	Retire(ctx context.Context, requestID int64, kind string) error
}

// Service is the budget-request workflow.
type Service struct {
	repo     Repository
	notifier Notifier
	log      *slog.Logger
}

func New(repo Repository, notifier Notifier, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		notifier: notifier,
		log:      log,
	}
}

// Create files a pending request from the calling client against a service
// and notifies the service's provider.
func (s *Service) Create(ctx context.Context, userUID string, serviceID int64, dto models.CreateRequestDTO) (int64, error) {
	const op = "request.Create"

	user, err := s.repo.GetUserByUID(ctx, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if !user.IsClient {
		return 0, fmt.Errorf("%s: only clients request budgets: %w", op, models.ErrPermissionDenied)
	}
	client, err := s.repo.GetClientByUserID(ctx, user.ID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	svc, err := s.repo.GetService(ctx, serviceID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	eventDate, err := time.Parse("2006-01-02", dto.EventDate)
	if err != nil {
		return 0, fmt.Errorf("%s: bad event date: %w", op, models.ErrValidation)
	}

	id, err := s.repo.CreateRequest(ctx, models.BudgetRequest{
		ClientID:      client.ID,
		ProviderID:    svc.ProviderID,
		ServiceID:     serviceID,
		EventType:     dto.EventType,
		EventDate:     eventDate,
		DurationHours: dto.DurationHours,
		Attendees:     dto.Attendees,
		Address: models.Address{
			Street:         dto.Street,
			ExteriorNumber: dto.ExteriorNumber,
			InteriorNumber: dto.InteriorNumber,
			Neighborhood:   dto.Neighborhood,
			PostalCode:     dto.PostalCode,
		},
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	s.notifyProvider(ctx, svc.ProviderID, id, models.NotificationRequestCreated,
		fmt.Sprintf("New budget request for %s from %s.", svc.Name, user.FullName))
	s.log.Info("budget request created", "request_id", id, "service_id", serviceID)
	return id, nil
}

// Respond records the calling provider's quote on a pending request,
// moving it to accepted. Answering an already answered request is a
// conflict, not a second answer.
func (s *Service) Respond(ctx context.Context, userUID string, requestID int64, price float64) error {
	const op = "request.Respond"

	req, err := s.requestForProvider(ctx, userUID, requestID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	ok, err := s.repo.AcceptRequest(ctx, requestID, models.Cents(price))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return fmt.Errorf("%s: request already answered: %w", op, models.ErrConflict)
	}

	if err := s.notifier.Retire(ctx, requestID, models.NotificationRequestCreated); err != nil {
		s.log.Warn("stale notifications not retired", "request_id", requestID, sl.Err(err))
	}
	s.notifyClient(ctx, req.ClientID, requestID, models.NotificationRequestAnswered,
		fmt.Sprintf("Your budget request was answered with a quote of $%.2f.", price))
	s.log.Info("budget request answered", "request_id", requestID)
	return nil
}

// Reject declines a pending request on the provider side. The client is
// told the request was answered; the answer happens to be no.
func (s *Service) Reject(ctx context.Context, userUID string, requestID int64) error {
	const op = "request.Reject"

	req, err := s.requestForProvider(ctx, userUID, requestID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	// Rejecting twice is a no-op, not an error.
	if req.Status == models.RequestStatusRejected {
		return nil
	}
	if req.Status != models.RequestStatusPending {
		return fmt.Errorf("%s: request already answered: %w", op, models.ErrConflict)
	}
	if err := s.repo.RejectRequest(ctx, requestID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.notifier.Retire(ctx, requestID, models.NotificationRequestCreated); err != nil {
		s.log.Warn("stale notifications not retired", "request_id", requestID, sl.Err(err))
	}
	s.notifyClient(ctx, req.ClientID, requestID, models.NotificationRequestAnswered,
		"Your budget request was declined by the provider.")
	s.log.Info("budget request rejected by provider", "request_id", requestID)
	return nil
}

// RejectResponse lets the client turn down an accepted quote. The request
// moves to rejected and stays there; the stored price goes with it.
func (s *Service) RejectResponse(ctx context.Context, userUID string, requestID int64) error {
	const op = "request.RejectResponse"

	req, err := s.requestForClient(ctx, userUID, requestID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	// Rejecting twice is a no-op, not an error.
	if req.Status == models.RequestStatusRejected {
		return nil
	}
	if req.Status != models.RequestStatusAccepted {
		return fmt.Errorf("%s: no quote to reject: %w", op, models.ErrConflict)
	}
	if err := s.repo.RejectRequest(ctx, requestID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.notifier.Retire(ctx, requestID, models.NotificationRequestAnswered); err != nil {
		s.log.Warn("stale notifications not retired", "request_id", requestID, sl.Err(err))
	}
	s.log.Info("quote rejected by client", "request_id", requestID)
	return nil
}

// Get returns one request to its client or its provider, nobody else.
func (s *Service) Get(ctx context.Context, userUID string, requestID int64) (*models.BudgetRequest, error) {
	const op = "request.Get"

	user, err := s.repo.GetUserByUID(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if user.IsClient {
		client, err := s.repo.GetClientByUserID(ctx, user.ID)
		if err == nil && client.ID == req.ClientID {
			return req, nil
		}
	}
	if user.IsProvider {
		provider, err := s.repo.GetProviderByUserID(ctx, user.ID)
		if err == nil && provider.ID == req.ProviderID {
			return req, nil
		}
	}
	return nil, fmt.Errorf("%s: not a party to this request: %w", op, models.ErrPermissionDenied)
}

// ListMine returns the caller's requests: the ones they filed as a client
// or the ones addressed to them as a provider.
func (s *Service) ListMine(ctx context.Context, userUID string) ([]*models.BudgetRequest, error) {
	const op = "request.ListMine"

	user, err := s.repo.GetUserByUID(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if user.IsProvider {
		provider, err := s.repo.GetProviderByUserID(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return s.repo.ListRequestsByProvider(ctx, provider.ID)
	}
	client, err := s.repo.GetClientByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.repo.ListRequestsByClient(ctx, client.ID)
}

func (s *Service) requestForProvider(ctx context.Context, userUID string, requestID int64) (*models.BudgetRequest, error) {
	user, err := s.repo.GetUserByUID(ctx, userUID)
	if err != nil {
		return nil, err
	}
	provider, err := s.repo.GetProviderByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("caller is not a provider: %w", models.ErrPermissionDenied)
	}
	req, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.ProviderID != provider.ID {
		return nil, fmt.Errorf("not addressed to this provider: %w", models.ErrPermissionDenied)
	}
	return req, nil
}

func (s *Service) requestForClient(ctx context.Context, userUID string, requestID int64) (*models.BudgetRequest, error) {
	user, err := s.repo.GetUserByUID(ctx, userUID)
	if err != nil {
		return nil, err
	}
	client, err := s.repo.GetClientByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("caller is not a client: %w", models.ErrPermissionDenied)
	}
	req, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.ClientID != client.ID {
		return nil, fmt.Errorf("not this client's request: %w", models.ErrPermissionDenied)
	}
	return req, nil
}

// notifyProvider resolves the provider profile to its user and notifies
// that user. Notification failures never fail the workflow step.
func (s *Service) notifyProvider(ctx context.Context, providerID, requestID int64, kind, message string) {
	provider, err := s.repo.GetProviderByID(ctx, providerID)
	if err != nil {
		s.log.Warn("provider not notified", "provider_id", providerID, sl.Err(err))
		return
	}
	if err := s.notifier.Notify(ctx, provider.UserID, &requestID, kind, message); err != nil {
		s.log.Warn("provider not notified", "provider_id", providerID, sl.Err(err))
	}
}

func (s *Service) notifyClient(ctx context.Context, clientID, requestID int64, kind, message string) {
	client, err := s.repo.GetClientByID(ctx, clientID)
	if err != nil {
		s.log.Warn("client not notified", "client_id", clientID, sl.Err(err))
		return
	}
	if err := s.notifier.Notify(ctx, client.UserID, &requestID, kind, message); err != nil {
		s.log.Warn("client not notified", "client_id", clientID, sl.Err(err))
	}
}
