package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/decorent/decorent/internal/migrations"
	"github.com/decorent/decorent/internal/models"
)

func setupTestDatabase(t *testing.T) (*Storage, func()) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.Run(ctx, "postgres:15-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort(nat.Port("5432/tcp")),
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(3*time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err, "failed to get host")
	port, err := pgContainer.MappedPort(ctx, nat.Port("5432/tcp"))
	require.NoError(t, err, "failed to get port")

	connStr := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())

	var storage *Storage
	for range 10 {
		storage, err = New(connStr)
		if err == nil {
			if err = storage.DB.Ping(); err == nil {
				break
			}
		}
		time.Sleep(1 * time.Second)
	}
	require.NoError(t, err, "failed to connect after retries")

	require.NoError(t, migrations.Run(storage.DB, "../../../migrations"), "failed to apply migrations")

	cleanup := func() {
		if storage != nil && storage.DB != nil {
			_ = storage.DB.Close()
		}
		_ = pgContainer.Terminate(ctx)
	}
	return storage, cleanup
}

func registerTestClient(t *testing.T, s *Storage, email string) (*models.User, *models.Client) {
	t.Helper()
	user, err := s.RegisterClient(context.Background(), models.User{
		FullName:     "Ana Torres",
		Email:        email,
		PasswordHash: "hashedpassword",
	})
	require.NoError(t, err)
	client, err := s.GetClientByUserID(context.Background(), user.ID)
	require.NoError(t, err)
	return user, client
}

func registerTestProvider(t *testing.T, s *Storage, email string) (*models.User, *models.Provider) {
	t.Helper()
	user, err := s.RegisterProvider(context.Background(), models.User{
		FullName:     "Luis Mendez",
		Email:        email,
		PasswordHash: "hashedpassword",
	}, models.Provider{
		CompanyName: "Decoraciones Mendez",
		BankCLABE:   "002010077777777771",
	})
	require.NoError(t, err)
	provider, err := s.GetProviderByUserID(context.Background(), user.ID)
	require.NoError(t, err)
	return user, provider
}

func createTestService(t *testing.T, s *Storage, providerID int64) int64 {
	t.Helper()
	id, err := s.CreateService(context.Background(), models.Service{
		ProviderID: providerID,
		Name:       "Balloon arches",
		Category:   "decoration",
		Address: models.Address{
			Street:         "Reforma",
			ExteriorNumber: "10",
			Neighborhood:   "Centro",
			PostalCode:     "06000",
		},
		MinPriceCents: 100000,
		MaxPriceCents: 500000,
		Description:   "Arches in any color combination",
	}, []string{"services/a.jpg", "services/b.jpg"})
	require.NoError(t, err)
	return id
}

func TestStorage_RegisterClient(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	user, client := registerTestClient(t, storage, "ana@example.com")
	assert.True(t, user.IsClient)
	assert.False(t, user.IsProvider)
	assert.NotEmpty(t, user.UID)
	assert.Equal(t, user.ID, client.UserID)

	byEmail, err := storage.GetUserByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	byUID, err := storage.GetUserByUID(ctx, user.UID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, byUID.ID)

	_, err = storage.RegisterClient(ctx, models.User{
		FullName:     "Second Ana",
		Email:        "ana@example.com",
		PasswordHash: "otherhash",
	})
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestStorage_ProviderOnboardingAccount(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	user, provider := registerTestProvider(t, storage, "luis@example.com")
	assert.True(t, user.IsProvider)
	assert.Empty(t, provider.CheckoutAccountID)

	require.NoError(t, storage.SetProviderCheckoutAccount(ctx, provider.ID, "acct_123"))

	updated, err := storage.GetProviderByID(ctx, provider.ID)
	require.NoError(t, err)
	assert.Equal(t, "acct_123", updated.CheckoutAccountID)

	err = storage.SetProviderCheckoutAccount(ctx, provider.ID+1000, "acct_456")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestStorage_RequestLifecycle(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	_, client := registerTestClient(t, storage, "ana@example.com")
	_, provider := registerTestProvider(t, storage, "luis@example.com")
	serviceID := createTestService(t, storage, provider.ID)

	requestID, err := storage.CreateRequest(ctx, models.BudgetRequest{
		ClientID:      client.ID,
		ProviderID:    provider.ID,
		ServiceID:     serviceID,
		EventType:     "wedding",
		EventDate:     time.Date(2026, 10, 3, 0, 0, 0, 0, time.UTC),
		DurationHours: 6,
		Attendees:     120,
		Address: models.Address{
			Street:         "Juarez",
			ExteriorNumber: "45",
			Neighborhood:   "Roma",
			PostalCode:     "06700",
		},
	})
	require.NoError(t, err)

	created, err := storage.GetRequest(ctx, requestID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, created.Status)
	assert.Nil(t, created.PriceCents)

	accepted, err := storage.AcceptRequest(ctx, requestID, 500000)
	require.NoError(t, err)
	assert.True(t, accepted)

	answered, err := storage.GetRequest(ctx, requestID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusAccepted, answered.Status)
	require.NotNil(t, answered.PriceCents)
	assert.Equal(t, int64(500000), *answered.PriceCents)

	// A second accept must not overwrite the stored quote.
	accepted, err = storage.AcceptRequest(ctx, requestID, 999999)
	require.NoError(t, err)
	assert.False(t, accepted)

	require.NoError(t, storage.RejectRequest(ctx, requestID))
	rejected, err := storage.GetRequest(ctx, requestID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusRejected, rejected.Status)
	assert.Nil(t, rejected.PriceCents)

	byProvider, err := storage.ListRequestsByProvider(ctx, provider.ID)
	require.NoError(t, err)
	assert.Len(t, byProvider, 1)
}

func TestStorage_ContractSessionUnique(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	_, client := registerTestClient(t, storage, "ana@example.com")
	_, provider := registerTestProvider(t, storage, "luis@example.com")
	serviceID := createTestService(t, storage, provider.ID)

	contract := models.Contract{
		ClientID:          client.ID,
		ServiceID:         serviceID,
		PriceCents:        540000,
		Status:            models.ContractStatusCompleted,
		ContractDate:      time.Now().UTC(),
		CheckoutSessionID: "cs_test_1",
	}

	id, err := storage.CreateContract(ctx, contract)
	require.NoError(t, err)

	stored, err := storage.GetContractBySessionID(ctx, "cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, id, stored.ID)
	assert.Equal(t, int64(540000), stored.PriceCents)

	_, err = storage.CreateContract(ctx, contract)
	assert.True(t, errors.Is(err, models.ErrConflict), "replayed session must not create a second contract")

	count, err := storage.CountContractsBySessionID(ctx, "cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStorage_ReviewsRecomputeRating(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	first, _ := registerTestClient(t, storage, "ana@example.com")
	second, _ := registerTestClient(t, storage, "maria@example.com")
	_, provider := registerTestProvider(t, storage, "luis@example.com")
	serviceID := createTestService(t, storage, provider.ID)

	_, err := storage.CreateReview(ctx, models.Review{
		ServiceID: serviceID,
		UserID:    first.ID,
		Stars:     5,
		Comment:   "beautiful setup",
	})
	require.NoError(t, err)

	avg, err := storage.RecomputeServiceRating(ctx, serviceID)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, avg, 0.001)

	_, err = storage.CreateReview(ctx, models.Review{
		ServiceID: serviceID,
		UserID:    second.ID,
		Stars:     4,
	})
	require.NoError(t, err)

	avg, err = storage.RecomputeServiceRating(ctx, serviceID)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, avg, 0.001)

	svc, err := storage.GetService(ctx, serviceID)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, svc.AverageRating, 0.001)

	_, err = storage.CreateReview(ctx, models.Review{
		ServiceID: serviceID,
		UserID:    first.ID,
		Stars:     1,
	})
	assert.ErrorIs(t, err, models.ErrConflict)

	reviews, err := storage.ListReviews(ctx, serviceID)
	require.NoError(t, err)
	assert.Len(t, reviews, 2)
}
