package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// RecipeImageDir is the storage prefix of every uploaded recipe image
const RecipeImageDir = "recipes/images"

var (
	ErrMalformedDataURL = errors.New("image must be a base64 data URL")
	ErrNotAnImage       = errors.New("data URL must carry an image/* payload")
	ErrEmptyImage       = errors.New("image payload is empty")
	ErrUnsupportedImage = errors.New("image must be a PNG, JPEG, GIF or WebP")
)

// rasterExtensions maps the accepted image content types to file extensions.
// Anything a browser would run as a document, such as SVG, is refused.
var rasterExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// Image is a decoded upload, ready to be stored
type Image struct {
	ContentType string
	Extension   string
	Data        []byte
}

// DecodeDataURL parses "data:image/<subtype>;base64,<payload>". Both the
// declared type and the sniffed payload must be raster formats; the stored
// type and extension follow the payload.
func DecodeDataURL(dataURL string) (Image, error) {
	header, payload, ok := strings.Cut(dataURL, ";base64,")
	if !ok || !strings.HasPrefix(header, "data:") {
		return Image{}, ErrMalformedDataURL
	}

	contentType := strings.ToLower(strings.TrimPrefix(header, "data:"))
	kind, subtype, ok := strings.Cut(contentType, "/")
	if !ok || kind != "image" || subtype == "" {
		return Image{}, ErrNotAnImage
	}
	if subtype == "jpg" {
		contentType = "image/jpeg"
	}
	if _, ok := rasterExtensions[contentType]; !ok {
		return Image{}, ErrUnsupportedImage
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrMalformedDataURL, err)
	}
	if len(data) == 0 {
		return Image{}, ErrEmptyImage
	}

	sniffed := http.DetectContentType(data)
	extension, ok := rasterExtensions[sniffed]
	if !ok {
		return Image{}, ErrUnsupportedImage
	}

	return Image{ContentType: sniffed, Extension: extension, Data: data}, nil
}

// NewImageKey returns a fresh storage key under RecipeImageDir
func NewImageKey(extension string) string {
	return path.Join(RecipeImageDir, uuid.NewString()+"."+extension)
}

// ImageStore persists recipe images and resolves their public URLs
type ImageStore interface {
	// Save stores img and returns the storage key to record on the recipe
	Save(ctx context.Context, img Image) (string, error)
	// URL returns the public location of a stored key
	URL(key string) string
}

// LocalImageStore keeps images on disk below Root and serves them under BaseURL
type LocalImageStore struct {
	Root    string
	BaseURL string
}

func NewLocalImageStore(root, baseURL string) *LocalImageStore {
	return &LocalImageStore{Root: root, BaseURL: baseURL}
}

func (s *LocalImageStore) Save(ctx context.Context, img Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := NewImageKey(img.Extension)
	target := filepath.Join(s.Root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create media directory: %w", err)
	}
	if err := os.WriteFile(target, img.Data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return key, nil
}

func (s *LocalImageStore) URL(key string) string {
	return joinURL(s.BaseURL, key)
}

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3ImageStore uploads images to a bucket. PublicURL is the bucket's (or its
// CDN's) base address.
type S3ImageStore struct {
	client    objectPutter
	bucket    string
	publicURL string
}

func NewS3ImageStore(client objectPutter, bucket, publicURL string) *S3ImageStore {
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.amazonaws.com", bucket)
	}
	return &S3ImageStore{client: client, bucket: bucket, publicURL: publicURL}
}

func (s *S3ImageStore) Save(ctx context.Context, img Image) (string, error) {
	key := NewImageKey(img.Extension)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(img.Data),
		ContentType: aws.String(img.ContentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload image to s3://%s/%s: %w", s.bucket, key, err)
	}
	return key, nil
}

func (s *S3ImageStore) URL(key string) string {
	return joinURL(s.publicURL, key)
}

func joinURL(base, key string) string {
	if key == "" {
		return ""
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
