package utils

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// ErrStorageDisabled is returned when no object store is configured.
var ErrStorageDisabled = errors.New("document storage is not configured")

// DocumentStore keeps uploaded credential files.
type DocumentStore interface {
	Upload(ctx context.Context, file io.Reader, publicID, folder string) (string, error)
	Delete(ctx context.Context, publicID string) error
	Bucket() string
}

type CloudinaryStore struct {
	cld       *cloudinary.Cloudinary
	cloudName string
}

func NewCloudinaryStore(cloudName, apiKey, apiSecret string) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, err
	}
	return &CloudinaryStore{cld: cld, cloudName: cloudName}, nil
}

// Upload stores file as a raw asset and returns its secure URL.
func (s *CloudinaryStore) Upload(ctx context.Context, file io.Reader, publicID, folder string) (string, error) {
	resp, err := s.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		PublicID:     publicID,
		Folder:       folder,
		ResourceType: "raw",
	})
	if err != nil {
		return "", err
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", resp.Error.Message)
	}
	return resp.SecureURL, nil
}

func (s *CloudinaryStore) Delete(ctx context.Context, publicID string) error {
	_, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: "raw",
	})
	return err
}

func (s *CloudinaryStore) Bucket() string { return s.cloudName }

// DisabledStore refuses uploads.
type DisabledStore struct{}

func (DisabledStore) Upload(context.Context, io.Reader, string, string) (string, error) {
	return "", ErrStorageDisabled
}

func (DisabledStore) Delete(context.Context, string) error { return nil }

func (DisabledStore) Bucket() string { return "" }
