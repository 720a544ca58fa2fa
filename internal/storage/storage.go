package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/foodgram/apiserver/config"
	"github.com/google/uuid"
)

const (
	imageCacheControl = "public, max-age=31536000, immutable"
	maxImageBytes     = 10 << 20

	RecipeImagePrefix = "recipes/images"
	AvatarPrefix      = "avatars"
)

// ErrInvalidImage is returned when an inline image cannot be decoded.
var ErrInvalidImage = errors.New("invalid image: expected a base64 data URI of a png, jpeg, gif or webp image")

var imageExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// ObjectStorage is the subset of blob operations images need.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// Storage turns inline images into retrievable URLs under publicURL.
type Storage struct {
	backend   ObjectStorage
	publicURL string
	newKey    func() string
}

func NewStorage(backend ObjectStorage, publicURL string) *Storage {
	return &Storage{
		backend:   backend,
		publicURL: strings.TrimRight(publicURL, "/"),
		newKey:    func() string { return uuid.NewString() },
	}
}

// New builds the backend selected by cfg.Backend.
func New(ctx context.Context, cfg config.StorageConfig) (*Storage, error) {
	var backend ObjectStorage
	var err error
	switch cfg.Backend {
	case "", "minio":
		backend, err = NewMinioClient(cfg.Minio)
	case "gcs":
		backend, err = NewGCSClient(ctx, cfg.GCS)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return NewStorage(backend, cfg.PublicURL), nil
}

func (s *Storage) EnsureBucket(ctx context.Context) error {
	return s.backend.EnsureBucket(ctx)
}

func (s *Storage) Bucket() string {
	return s.backend.Bucket()
}

// Upload decodes a data URI and stores it under prefix with a random name.
// It returns the public URL of the stored object.
func (s *Storage) Upload(ctx context.Context, prefix, dataURI string) (string, error) {
	contentType, data, err := DecodeDataURI(dataURI)
	if err != nil {
		return "", err
	}
	key := path.Join(prefix, s.newKey()+"."+imageExtensions[contentType])
	if err := s.backend.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return s.publicURL + "/" + key, nil
}

// Remove deletes the object behind url. URLs that were not issued by this
// storage are ignored.
func (s *Storage) Remove(ctx context.Context, url string) error {
	key, ok := s.keyFor(url)
	if !ok {
		return nil
	}
	return s.backend.Delete(ctx, key)
}

// Owns reports whether url points into this storage.
func (s *Storage) Owns(url string) bool {
	_, ok := s.keyFor(url)
	return ok
}

func (s *Storage) keyFor(url string) (string, bool) {
	key, ok := strings.CutPrefix(url, s.publicURL+"/")
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

// IsDataURI reports whether s looks like an inline image payload.
func IsDataURI(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "data:")
}

// DecodeDataURI parses "data:<type>;base64,<payload>".
func DecodeDataURI(s string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(s), "data:")
	if !ok {
		return "", nil, ErrInvalidImage
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrInvalidImage
	}
	contentType, encoding, ok := strings.Cut(meta, ";")
	if !ok || !strings.EqualFold(encoding, "base64") {
		return "", nil, ErrInvalidImage
	}
	contentType = strings.ToLower(contentType)
	if _, known := imageExtensions[contentType]; !known {
		return "", nil, ErrInvalidImage
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > maxImageBytes {
		return "", nil, ErrInvalidImage
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(data) == 0 {
		return "", nil, ErrInvalidImage
	}
	return contentType, data, nil
}
