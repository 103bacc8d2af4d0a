package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/tailorworks/tailorshop-api/utils"
)

// ImageService stores order style reference images
type ImageService interface {
	// UploadOrderImage validates and stores a PNG for the order, returning its key
	UploadOrderImage(ctx context.Context, orderNumber string, fileHeader *multipart.FileHeader) (string, error)

	// GetImageURL returns a presigned URL for key, or "" for an empty key
	GetImageURL(ctx context.Context, key string) (string, error)

	// DeleteImage removes key; an empty key is a no-op
	DeleteImage(ctx context.Context, key string) error
}

// StoreImageService implements ImageService on top of an ObjectStore
type StoreImageService struct {
	store ObjectStore
}

var imageServiceInstance ImageService

// NewImageService creates an image service backed by store
func NewImageService(store ObjectStore) *StoreImageService {
	return &StoreImageService{store: store}
}

// GetImageService returns the configured image service, nil when S3 is not configured
func GetImageService() ImageService {
	return imageServiceInstance
}

// SetImageService installs the process-wide image service
func SetImageService(service ImageService) {
	imageServiceInstance = service
}

// UploadOrderImage validates the upload and writes it to orders/<number>/<uuid>.png
func (s *StoreImageService) UploadOrderImage(ctx context.Context, orderNumber string, fileHeader *multipart.FileHeader) (string, error) {
	if err := utils.ValidateImageFile(fileHeader); err != nil {
		return "", err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	if err := utils.ValidateImageContent(content); err != nil {
		return "", err
	}

	key := OrderImageKey(orderNumber)
	if err := s.store.PutObject(ctx, key, "image/png", content); err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	return key, nil
}

// GetImageURL generates a presigned URL for an image key
func (s *StoreImageService) GetImageURL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}
	url, err := s.store.PresignGet(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to generate image URL: %w", err)
	}
	return url, nil
}

// DeleteImage removes an image from the store
func (s *StoreImageService) DeleteImage(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := s.store.DeleteObject(ctx, key); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}
