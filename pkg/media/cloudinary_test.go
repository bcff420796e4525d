package media

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUploadAPI records calls. Uploads whose content is a key of rejected get
// that API error message back.
type fakeUploadAPI struct {
	mu        sync.Mutex
	uploads   []uploader.UploadParams
	destroyed []string
	rejected  map[string]string
	failWith  error
	result    string
}

func (f *fakeUploadAPI) Upload(_ context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error) {
	f.mu.Lock()
	f.uploads = append(f.uploads, params)
	f.mu.Unlock()

	if f.failWith != nil {
		return nil, f.failWith
	}
	body, err := io.ReadAll(file.(io.Reader))
	if err != nil {
		return nil, err
	}
	res := &uploader.UploadResult{}
	if msg, ok := f.rejected[string(body)]; ok {
		res.Error = api.ErrorResp{Message: msg}
		return res, nil
	}
	res.SecureURL = "https://cdn.example.com/" + params.FilenameOverride
	res.PublicID = joinFolder(params.Folder, params.FilenameOverride)
	return res, nil
}

func (f *fakeUploadAPI) Destroy(_ context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error) {
	f.mu.Lock()
	f.destroyed = append(f.destroyed, params.PublicID)
	f.mu.Unlock()

	if f.failWith != nil {
		return nil, f.failWith
	}
	return &uploader.DestroyResult{Result: f.result}, nil
}

func joinFolder(folder, name string) string {
	if folder == "" {
		return name
	}
	return folder + "/" + name
}

func TestNewClient(t *testing.T) {
	c, err := NewClient(Config{})
	require.NoError(t, err)
	assert.False(t, c.Enabled())
	assert.False(t, (*Client)(nil).Enabled())

	c, err = NewClient(Config{CloudName: "demo", APIKey: "key", APISecret: "secret"})
	require.NoError(t, err)
	assert.True(t, c.Enabled())
	assert.IsType(t, &uploader.API{}, c.api)
}

func TestUpload(t *testing.T) {
	fake := &fakeUploadAPI{}
	c := &Client{api: fake}

	up, err := c.Upload(context.Background(), "beach.jpg", strings.NewReader("img"), "packages")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/beach.jpg", up.URL)
	assert.Equal(t, "packages/beach.jpg", up.PublicID)

	require.Len(t, fake.uploads, 1)
	params := fake.uploads[0]
	assert.Equal(t, "packages", params.Folder)
	assert.Equal(t, "beach.jpg", params.FilenameOverride)
	require.NotNil(t, params.UseFilename)
	assert.True(t, *params.UseFilename)
}

func TestUploadAPIError(t *testing.T) {
	c := &Client{api: &fakeUploadAPI{rejected: map[string]string{"x": "Invalid Signature"}}}

	_, err := c.Upload(context.Background(), "a.jpg", strings.NewReader("x"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid Signature")
}

func TestUploadTransportError(t *testing.T) {
	c := &Client{api: &fakeUploadAPI{failWith: errors.New("connection reset")}}

	_, err := c.Upload(context.Background(), "a.jpg", strings.NewReader("x"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to upload a.jpg")
}

func TestUploadNotConfigured(t *testing.T) {
	c, err := NewClient(Config{})
	require.NoError(t, err)
	_, err = c.Upload(context.Background(), "a.jpg", strings.NewReader("x"), "")
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.ErrorIs(t, c.Delete(context.Background(), "a"), ErrNotConfigured)
}

func TestUploadManyPartialFailure(t *testing.T) {
	c := &Client{api: &fakeUploadAPI{rejected: map[string]string{"2": "Invalid image file"}}}

	files := []File{
		{Name: "one.jpg", Reader: strings.NewReader("1")},
		{Name: "bad.jpg", Reader: strings.NewReader("2")},
		{Name: "two.jpg", Reader: strings.NewReader("3")},
	}
	uploads, failures := c.UploadMany(context.Background(), files, "")

	require.Len(t, uploads, 2)
	assert.Equal(t, "one.jpg", uploads[0].PublicID)
	assert.Equal(t, "two.jpg", uploads[1].PublicID)
	require.Len(t, failures, 1)
	assert.Equal(t, "bad.jpg", failures[0].Name)
	assert.Contains(t, failures[0].Err, "Invalid image file")
}

func TestDelete(t *testing.T) {
	fake := &fakeUploadAPI{result: "ok"}
	c := &Client{api: fake}

	require.NoError(t, c.Delete(context.Background(), "packages/beach"))
	assert.Equal(t, []string{"packages/beach"}, fake.destroyed)

	fake.result = "not found"
	err := c.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
