// Package catalog manages published services: create, edit, delete, list
// and the cached detail view. Image uploads are validated by extension and
// by payload before a single byte is persisted; one bad file rejects the
// whole batch.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/decorent/decorent/internal/lib/sl"
	"github.com/decorent/decorent/internal/models"
)

const (
	maxImages       = 5
	serviceImageDir = "services"
	detailCacheTTL  = 5 * time.Minute
)

var allowedExtensions = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"gif":  true,
	"webp": true,
}

type Repository interface {
	CreateService(ctx context.Context, svc models.Service, imagePaths []string) (int64, error)
	GetService(ctx context.Context, id int64) (*models.Service, error)
	ListServices(ctx context.Context, category string) ([]*models.Service, error)
	ListCategories(ctx context.Context) ([]string, error)
	ListServiceImages(ctx context.Context, serviceID int64) ([]*models.ServiceImage, error)
	UpdateService(ctx context.Context, svc models.Service) error
	ReplaceServiceImages(ctx context.Context, serviceID int64, paths []string) error
	DeleteService(ctx context.Context, id int64) error
	GetUserByUID(ctx context.Context, uid string) (*models.User, error)
	GetProviderByUserID(ctx context.Context, userID int64) (*models.Provider, error)
}

type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

type FileStore interface {
	Save(dir, name string, data []byte) (string, error)
	Delete(rel string) error
}

// ServiceDetail is the detail view: the service row, its image paths and
// the geocoding query for the map widget.
type ServiceDetail struct {
	Service   *models.Service `json:"service"`
	Images    []string        `json:"images"`
	MapsQuery string          `json:"maps_query"`
}

// Service is the catalog business logic.
type Service struct {
	repo  Repository
	cache Cache
	files FileStore
	log   *slog.Logger
}

func New(repo Repository, cache Cache, files FileStore, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		files: files,
		log:   log,
	}
}

// validateImages checks count, extension and payload of every upload and
// names the first offending file. Nothing is persisted when it fails.
func validateImages(uploads []models.ImageUpload) error {
	if len(uploads) > maxImages {
		return fmt.Errorf("at most %d images allowed, got %d: %w",
			maxImages, len(uploads), models.ErrValidation)
	}
	for _, u := range uploads {
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(u.Filename), "."))
		if !allowedExtensions[ext] {
			return fmt.Errorf("file %q has unsupported extension: %w",
				u.Filename, models.ErrValidation)
		}
		if !strings.HasPrefix(mimetype.Detect(u.Data).String(), "image/") {
			return fmt.Errorf("file %q is not an image: %w",
				u.Filename, models.ErrValidation)
		}
	}
	return nil
}

func (s *Service) saveImages(uploads []models.ImageUpload) ([]string, error) {
	paths := make([]string, 0, len(uploads))
	for _, u := range uploads {
		name := uuid.NewString() + strings.ToLower(filepath.Ext(u.Filename))
		path, err := s.files.Save(serviceImageDir, name, u.Data)
		if err != nil {
			s.removeFiles(paths)
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (s *Service) removeFiles(paths []string) {
	for _, p := range paths {
		if err := s.files.Delete(p); err != nil {
			s.log.Warn("image file not removed", "path", p, sl.Err(err))
		}
	}
}

func (s *Service) providerForUser(ctx context.Context, userUID string) (*models.Provider, error) {
	user, err := s.repo.GetUserByUID(ctx, userUID)
	if err != nil {
		return nil, err
	}
	if !user.IsProvider {
		return nil, fmt.Errorf("only providers manage services: %w", models.ErrPermissionDenied)
	}
	return s.repo.GetProviderByUserID(ctx, user.ID)
}

func upsertToService(dto models.ServiceUpsert) models.Service {
	return models.Service{
		Name:     dto.Name,
		Category: dto.Category,
		Address: models.Address{
			Street:         dto.Street,
			ExteriorNumber: dto.ExteriorNumber,
			InteriorNumber: dto.InteriorNumber,
			Neighborhood:   dto.Neighborhood,
			PostalCode:     dto.PostalCode,
			City:           dto.City,
		},
		MinPriceCents: models.Cents(dto.MinPrice),
		MaxPriceCents: models.Cents(dto.MaxPrice),
		Description:   dto.Description,
	}
}

// Publish validates the images, stores them and creates the service. A
// storage failure rolls the saved files back.
func (s *Service) Publish(ctx context.Context, userUID string, dto models.ServiceUpsert, images []models.ImageUpload) (int64, error) {
	const op = "catalog.Publish"

	provider, err := s.providerForUser(ctx, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if err := validateImages(images); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	paths, err := s.saveImages(images)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	svc := upsertToService(dto)
	svc.ProviderID = provider.ID

	id, err := s.repo.CreateService(ctx, svc, paths)
	if err != nil {
		s.removeFiles(paths)
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("service published", "service_id", id, "provider_id", provider.ID)
	return id, nil
}

// Edit updates a service the caller owns. A non-empty image batch replaces
// the existing image set entirely.
func (s *Service) Edit(ctx context.Context, userUID string, serviceID int64, dto models.ServiceUpsert, images []models.ImageUpload) error {
	const op = "catalog.Edit"

	provider, err := s.providerForUser(ctx, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	current, err := s.repo.GetService(ctx, serviceID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if current.ProviderID != provider.ID {
		return fmt.Errorf("%s: not the owner: %w", op, models.ErrPermissionDenied)
	}
	if len(images) > 0 {
		if err := validateImages(images); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	svc := upsertToService(dto)
	svc.ID = serviceID
	svc.ProviderID = provider.ID
	if err := s.repo.UpdateService(ctx, svc); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if len(images) > 0 {
		old, err := s.repo.ListServiceImages(ctx, serviceID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		paths, err := s.saveImages(images)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if err := s.repo.ReplaceServiceImages(ctx, serviceID, paths); err != nil {
			s.removeFiles(paths)
			return fmt.Errorf("%s: %w", op, err)
		}
		for _, img := range old {
			if err := s.files.Delete(img.Path); err != nil {
				s.log.Warn("replaced image not removed", "path", img.Path, sl.Err(err))
			}
		}
	}

	if err := s.cache.Invalidate(ctx, DetailKey(serviceID)); err != nil {
		s.log.Warn("detail cache not invalidated", "service_id", serviceID, sl.Err(err))
	}
	return nil
}

// Delete removes a service the caller owns, its image rows and its files.
// Files already missing from disk are ignored.
func (s *Service) Delete(ctx context.Context, userUID string, serviceID int64) error {
	const op = "catalog.Delete"

	provider, err := s.providerForUser(ctx, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	current, err := s.repo.GetService(ctx, serviceID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if current.ProviderID != provider.ID {
		return fmt.Errorf("%s: not the owner: %w", op, models.ErrPermissionDenied)
	}

	images, err := s.repo.ListServiceImages(ctx, serviceID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.DeleteService(ctx, serviceID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	for _, img := range images {
		if err := s.files.Delete(img.Path); err != nil {
			s.log.Warn("image file not removed", "path", img.Path, sl.Err(err))
		}
	}
	if err := s.cache.Invalidate(ctx, DetailKey(serviceID)); err != nil {
		s.log.Warn("detail cache not invalidated", "service_id", serviceID, sl.Err(err))
	}
	s.log.Info("service deleted", "service_id", serviceID, "provider_id", provider.ID)
	return nil
}

// Get returns the detail view, served from cache when possible.
func (s *Service) Get(ctx context.Context, serviceID int64) (*ServiceDetail, error) {
	const op = "catalog.Get"

	var cached ServiceDetail
	found, err := s.cache.Get(ctx, DetailKey(serviceID), &cached)
	if err != nil {
		s.log.Warn("detail cache read failed", "service_id", serviceID, sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	svc, err := s.repo.GetService(ctx, serviceID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	images, err := s.repo.ListServiceImages(ctx, serviceID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	paths := make([]string, 0, len(images))
	for _, img := range images {
		paths = append(paths, img.Path)
	}

	detail := &ServiceDetail{
		Service:   svc,
		Images:    paths,
		MapsQuery: svc.Address.MapsQuery(),
	}
	if err := s.cache.Set(ctx, DetailKey(serviceID), detail, detailCacheTTL); err != nil {
		s.log.Warn("detail cache write failed", "service_id", serviceID, sl.Err(err))
	}
	return detail, nil
}

// List returns services, optionally filtered by category.
func (s *Service) List(ctx context.Context, category string) ([]*models.Service, error) {
	return s.repo.ListServices(ctx, category)
}

// Categories returns the distinct categories in use.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.repo.ListCategories(ctx)
}

func DetailKey(serviceID int64) string {
	return fmt.Sprintf("service:%d", serviceID)
}
