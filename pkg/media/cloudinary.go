// Package media uploads images to Cloudinary.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"golang.org/x/sync/errgroup"
)

// maxParallelUploads bounds UploadMany
const maxParallelUploads = 4

// ErrNotConfigured is returned when credentials are missing
var ErrNotConfigured = errors.New("media storage is not configured")

// Config holds the storage credentials
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
}

// Upload is a stored image
type Upload struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}

// File is one image to upload
type File struct {
	Name   string
	Reader io.Reader
}

// FileError reports a failed upload within UploadMany
type FileError struct {
	Name string `json:"name"`
	Err  string `json:"error"`
}

// uploadAPI is the part of the Cloudinary upload API the client uses
type uploadAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

// Client stores images through the Cloudinary SDK
type Client struct {
	api uploadAPI
}

// NewClient creates a storage client. Without credentials the client is
// returned disabled.
func NewClient(cfg Config) (*Client, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return &Client{}, nil
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloudinary client: %w", err)
	}
	return &Client{api: &cld.Upload}, nil
}

// Enabled reports whether credentials are present
func (c *Client) Enabled() bool {
	return c != nil && c.api != nil
}

// Upload stores one image in folder
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader, folder string) (*Upload, error) {
	if !c.Enabled() {
		return nil, ErrNotConfigured
	}

	res, err := c.api.Upload(ctx, r, uploader.UploadParams{
		Folder:           folder,
		FilenameOverride: filename,
		UseFilename:      api.Bool(true),
		UniqueFilename:   api.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", filename, err)
	}
	if res.Error.Message != "" {
		return nil, fmt.Errorf("media api error: %s", res.Error.Message)
	}
	return &Upload{URL: res.SecureURL, PublicID: res.PublicID}, nil
}

// UploadMany uploads files concurrently. Failed files are reported individually
// and do not cancel the others.
func (c *Client) UploadMany(ctx context.Context, files []File, folder string) ([]Upload, []FileError) {
	var (
		mu       sync.Mutex
		uploads  = make([]*Upload, len(files))
		failures []FileError
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelUploads)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			up, err := c.Upload(gctx, f.Name, f.Reader, folder)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, FileError{Name: f.Name, Err: err.Error()})
				return nil
			}
			uploads[i] = up
			return nil
		})
	}
	_ = g.Wait()

	out := make([]Upload, 0, len(files))
	for _, up := range uploads {
		if up != nil {
			out = append(out, *up)
		}
	}
	return out, failures
}

// Delete removes an image by its public id
func (c *Client) Delete(ctx context.Context, publicID string) error {
	if !c.Enabled() {
		return ErrNotConfigured
	}
	res, err := c.api.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", publicID, err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("media api error: %s", res.Error.Message)
	}
	if res.Result != "ok" {
		return fmt.Errorf("failed to delete %s: %s", publicID, res.Result)
	}
	return nil
}
