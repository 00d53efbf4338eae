package cloudinary

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"petmatch/internal/ports/blob"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Store sube a Cloudinary usando la key como public_id dentro de Folder.
type Store struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func New(cloudName, apiKey, apiSecret, folder string) (*Store, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true

	return &Store{cld: cld, folder: strings.Trim(strings.TrimSpace(folder), "/")}, nil
}

// publicID: Cloudinary agrega la extensión por su cuenta.
func (s *Store) publicID(key string) string {
	key = strings.Trim(strings.TrimSpace(key), "/")
	key = strings.TrimSuffix(key, path.Ext(key))
	if s.folder == "" {
		return key
	}
	return s.folder + "/" + key
}

func (s *Store) Put(ctx context.Context, key string, obj blob.Object) (blob.Stored, error) {
	if obj.Body == nil {
		return blob.Stored{}, errors.New("blob body required")
	}
	id := s.publicID(key)
	if id == "" {
		return blob.Stored{}, errors.New("blob key required")
	}

	res, err := s.cld.Upload.Upload(ctx, obj.Body, uploader.UploadParams{
		PublicID:       id,
		ResourceType:   "image",
		Overwrite:      api.Bool(true),
		UniqueFilename: api.Bool(false),
	})
	if err != nil {
		return blob.Stored{}, fmt.Errorf("cloudinary upload: %w", err)
	}
	if res.Error.Message != "" {
		return blob.Stored{}, fmt.Errorf("cloudinary upload: %s", res.Error.Message)
	}

	return blob.Stored{Key: res.PublicID, URL: res.SecureURL}, nil
}

// Delete recibe la Key que devolvió Put (el public_id completo).
func (s *Store) Delete(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}

	res, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     key,
		ResourceType: "image",
		Invalidate:   api.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("cloudinary destroy: %w", err)
	}
	// "not found" también cuenta como borrado
	if res.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy: %s", res.Error.Message)
	}
	return nil
}
