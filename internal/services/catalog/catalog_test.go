package catalog

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

	"github.com/decorent/decorent/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateService(ctx context.Context, svc models.Service, imagePaths []string) (int64, error) {
	args := m.Called(ctx, svc, imagePaths)
	return args.Get(0).(int64), args.Error(1)
}
func (m *RepoMock) GetService(ctx context.Context, id int64) (*models.Service, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Service), args.Error(1)
}
func (m *RepoMock) ListServices(ctx context.Context, category string) ([]*models.Service, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Service), args.Error(1)
}
func (m *RepoMock) ListCategories(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
func (m *RepoMock) ListServiceImages(ctx context.Context, serviceID int64) ([]*models.ServiceImage, error) {
	args := m.Called(ctx, serviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ServiceImage), args.Error(1)
}
func (m *RepoMock) UpdateService(ctx context.Context, svc models.Service) error {
	return m.Called(ctx, svc).Error(0)
}
func (m *RepoMock) ReplaceServiceImages(ctx context.Context, serviceID int64, paths []string) error {
	return m.Called(ctx, serviceID, paths).Error(0)
}
func (m *RepoMock) DeleteService(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}
func (m *RepoMock) GetUserByUID(ctx context.Context, uid string) (*models.User, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *RepoMock) GetProviderByUserID(ctx context.Context, userID int64) (*models.Provider, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Provider), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(ctx context.Context, key string, result any) (bool, error) {
	args := m.Called(ctx, key, result)
	return args.Bool(0), args.Error(1)
}
func (m *CacheMock) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return m.Called(ctx, key, value, expiration).Error(0)
}
func (m *CacheMock) Invalidate(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type FileStoreMock struct{ mock.Mock }

func (m *FileStoreMock) Save(dir, name string, data []byte) (string, error) {
	args := m.Called(dir, name, data)
	return args.String(0), args.Error(1)
}
func (m *FileStoreMock) Delete(rel string) error {
	return m.Called(rel).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

// Real magic bytes so the payload sniff sees actual image types.
var (
	pngBytes  = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 13}
	jpegBytes = []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F'}
)

func providerLookup(r *RepoMock) {
	r.On("GetUserByUID", mock.Anything, "uid-2").
		Return(&models.User{ID: 2, UID: "uid-2", IsProvider: true}, nil)
	r.On("GetProviderByUserID", mock.Anything, int64(2)).
		Return(&models.Provider{ID: 20, UserID: 2}, nil)
}

func TestValidateImages(t *testing.T) {
	tests := []struct {
		name    string
		uploads []models.ImageUpload
		wantErr string
	}{
		{
			name: "valid batch",
			uploads: []models.ImageUpload{
				{Filename: "front.png", Data: pngBytes},
				{Filename: "back.JPG", Data: jpegBytes},
			},
		},
		{
			name: "six images rejected",
			uploads: []models.ImageUpload{
				{Filename: "1.png", Data: pngBytes}, {Filename: "2.png", Data: pngBytes},
				{Filename: "3.png", Data: pngBytes}, {Filename: "4.png", Data: pngBytes},
				{Filename: "5.png", Data: pngBytes}, {Filename: "6.png", Data: pngBytes},
			},
			wantErr: "at most 5 images",
		},
		{
			name: "executable extension names the file",
			uploads: []models.ImageUpload{
				{Filename: "ok.png", Data: pngBytes},
				{Filename: "malware.exe", Data: pngBytes},
			},
			wantErr: `"malware.exe"`,
		},
		{
			name: "image extension with non-image payload",
			uploads: []models.ImageUpload{
				{Filename: "fake.jpg", Data: []byte("#!/bin/sh\nrm -rf /")},
			},
			wantErr: `"fake.jpg" is not an image`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateImages(tt.uploads)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.ErrorIs(t, err, models.ErrValidation)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestPublish(t *testing.T) {
	dto := models.ServiceUpsert{
		Name: "Mesas vintage", Category: "mobiliario",
		Street: "Reforma", ExteriorNumber: "10", Neighborhood: "Centro",
		PostalCode: "06000", MinPrice: 100, MaxPrice: 500, Description: "d",
	}

	t.Run("saves files then creates row", func(t *testing.T) {
		repo := new(RepoMock)
		providerLookup(repo)
		files := new(FileStoreMock)
		files.On("Save", serviceImageDir, mock.Anything, pngBytes).
			Return("services/a.png", nil).Once()
		repo.On("CreateService", mock.Anything, mock.MatchedBy(func(svc models.Service) bool {
			return svc.ProviderID == 20 && svc.MinPriceCents == 10000 && svc.MaxPriceCents == 50000
		}), []string{"services/a.png"}).Return(int64(7), nil).Once()

		svc := New(repo, new(CacheMock), files, newNoopLogger())
		id, err := svc.Publish(context.Background(), "uid-2", dto,
			[]models.ImageUpload{{Filename: "a.png", Data: pngBytes}})

		require.NoError(t, err)
		assert.Equal(t, int64(7), id)
		repo.AssertExpectations(t)
		files.AssertExpectations(t)
	})

	t.Run("invalid image persists nothing", func(t *testing.T) {
		repo := new(RepoMock)
		providerLookup(repo)
		files := new(FileStoreMock)

		svc := New(repo, new(CacheMock), files, newNoopLogger())
		_, err := svc.Publish(context.Background(), "uid-2", dto,
			[]models.ImageUpload{{Filename: "evil.exe", Data: pngBytes}})

		assert.ErrorIs(t, err, models.ErrValidation)
		files.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
		repo.AssertNotCalled(t, "CreateService", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("client cannot publish", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetUserByUID", mock.Anything, "uid-9").
			Return(&models.User{ID: 9, UID: "uid-9", IsClient: true}, nil)

		svc := New(repo, new(CacheMock), new(FileStoreMock), newNoopLogger())
		_, err := svc.Publish(context.Background(), "uid-9", dto, nil)
		assert.ErrorIs(t, err, models.ErrPermissionDenied)
	})
}

func TestEditOwnership(t *testing.T) {
	repo := new(RepoMock)
	providerLookup(repo)
	repo.On("GetService", mock.Anything, int64(7)).
		Return(&models.Service{ID: 7, ProviderID: 999}, nil).Once()

	svc := New(repo, new(CacheMock), new(FileStoreMock), newNoopLogger())
	err := svc.Edit(context.Background(), "uid-2", 7, models.ServiceUpsert{
		Name: "x", Category: "c", Street: "s", ExteriorNumber: "1",
		Neighborhood: "n", PostalCode: "06000", MinPrice: 1, MaxPrice: 2, Description: "d",
	}, nil)

	assert.ErrorIs(t, err, models.ErrPermissionDenied)
	repo.AssertNotCalled(t, "UpdateService", mock.Anything, mock.Anything)
}

func TestDelete(t *testing.T) {
	repo := new(RepoMock)
	providerLookup(repo)
	repo.On("GetService", mock.Anything, int64(7)).
		Return(&models.Service{ID: 7, ProviderID: 20}, nil).Once()
	repo.On("ListServiceImages", mock.Anything, int64(7)).
		Return([]*models.ServiceImage{{ID: 1, ServiceID: 7, Path: "services/a.png"}}, nil).Once()
	repo.On("DeleteService", mock.Anything, int64(7)).Return(nil).Once()
	files := new(FileStoreMock)
	// Missing file on disk must not fail the delete; the store swallows it.
	files.On("Delete", "services/a.png").Return(nil).Once()
	cache := new(CacheMock)
	cache.On("Invalidate", mock.Anything, "service:7").Return(nil).Once()

	svc := New(repo, cache, files, newNoopLogger())
	require.NoError(t, svc.Delete(context.Background(), "uid-2", 7))
	repo.AssertExpectations(t)
	files.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestGetUsesCache(t *testing.T) {
	t.Run("cache hit skips the database", func(t *testing.T) {
		cache := new(CacheMock)
		cache.On("Get", mock.Anything, "service:7", mock.Anything).
			Run(func(args mock.Arguments) {
				*args.Get(2).(*ServiceDetail) = ServiceDetail{
					Service: &models.Service{ID: 7, Name: "cached"},
				}
			}).Return(true, nil).Once()
		repo := new(RepoMock)

		svc := New(repo, cache, new(FileStoreMock), newNoopLogger())
		detail, err := svc.Get(context.Background(), 7)

		require.NoError(t, err)
		assert.Equal(t, "cached", detail.Service.Name)
		repo.AssertNotCalled(t, "GetService", mock.Anything, mock.Anything)
	})

	t.Run("cache miss loads and stores", func(t *testing.T) {
		cache := new(CacheMock)
		cache.On("Get", mock.Anything, "service:7", mock.Anything).Return(false, nil).Once()
		cache.On("Set", mock.Anything, "service:7", mock.Anything, detailCacheTTL).Return(nil).Once()
		repo := new(RepoMock)
		repo.On("GetService", mock.Anything, int64(7)).
			Return(&models.Service{ID: 7, Name: "fresh", Address: models.Address{
				Street: "Reforma", ExteriorNumber: "10", Neighborhood: "Centro", PostalCode: "06000",
			}}, nil).Once()
		repo.On("ListServiceImages", mock.Anything, int64(7)).
			Return([]*models.ServiceImage{{Path: "services/a.png"}}, nil).Once()

		svc := New(repo, cache, new(FileStoreMock), newNoopLogger())
		detail, err := svc.Get(context.Background(), 7)

		require.NoError(t, err)
		assert.Equal(t, []string{"services/a.png"}, detail.Images)
		assert.Equal(t, "Reforma%2010,%20Centro,%2006000", detail.MapsQuery)
		cache.AssertExpectations(t)
	})
}

func TestDetailKey(t *testing.T) {
	assert.Equal(t, "service:42", DetailKey(42))
	assert.Equal(t, fmt.Sprintf("service:%d", int64(7)), DetailKey(7))
}
