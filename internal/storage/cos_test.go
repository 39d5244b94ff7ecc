package storage

import (
	"context"
	"hash/crc64"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thobe/thread-dump-analysis/pkg/config"
	"github.com/thobe/thread-dump-analysis/pkg/errors"
)

// fakeBucket is an in-memory stand-in for a COS bucket endpoint.
type fakeBucket struct {
	mu           sync.Mutex
	objects      map[string][]byte
	contentTypes map[string]string
}

func newFakeBucket(t *testing.T) (*fakeBucket, *COSStorage) {
	t.Helper()
	b := &fakeBucket{objects: map[string][]byte{}, contentTypes: map[string]string{}}
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return b, newCOSStorage(u, srv.Client())
}

func (b *fakeBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := strings.TrimPrefix(r.URL.Path, "/")
	switch r.Method {
	case http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		b.objects[key] = data
		b.contentTypes[key] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"etag"`)
		w.Header().Set("x-cos-hash-crc64ecma", strconv.FormatUint(crc64.Checksum(data, crc64.MakeTable(crc64.ECMA)), 10))
		w.WriteHeader(http.StatusOK)
	case http.MethodGet, http.MethodHead:
		data, ok := b.objects[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			w.Write(data)
		}
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestNewCOSStorage_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *COSConfig
		wantErr string
	}{
		{"MissingBucket", &COSConfig{Region: "ap-guangzhou", SecretID: "id", SecretKey: "key"}, "bucket and region are required"},
		{"MissingRegion", &COSConfig{Bucket: "b", SecretID: "id", SecretKey: "key"}, "bucket and region are required"},
		{"MissingCredentials", &COSConfig{Bucket: "b", Region: "ap-guangzhou"}, "credentials are required"},
		{"ValidConfig", &COSConfig{Bucket: "b", Region: "ap-guangzhou", SecretID: "id", SecretKey: "key"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, err := NewCOSStorage(tt.cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				assert.NotNil(t, storage)
				return
			}
			require.Error(t, err)
			assert.Nil(t, storage)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCOSStorage_GetURL(t *testing.T) {
	storage, err := NewCOSStorage(&COSConfig{
		Bucket:    "my-bucket",
		Region:    "ap-guangzhou",
		SecretID:  "test-id",
		SecretKey: "test-key",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://my-bucket.cos.ap-guangzhou.myqcloud.com/graphs/2024-01-01.gv",
		storage.GetURL("graphs/2024-01-01.gv"))
	assert.Equal(t, "https://my-bucket.cos.ap-guangzhou.myqcloud.com/a.gv", storage.GetURL("/a.gv"))
}

func TestCOSStorage_RoundTrip(t *testing.T) {
	bucket, storage := newFakeBucket(t)
	ctx := context.Background()

	err := storage.Upload(ctx, "dumps/2024-01-01.gv", strings.NewReader("digraph ThreadsAndLocks {}"))
	require.NoError(t, err)
	assert.Equal(t, "text/vnd.graphviz", bucket.contentTypes["dumps/2024-01-01.gv"])

	exists, err := storage.Exists(ctx, "dumps/2024-01-01.gv")
	require.NoError(t, err)
	assert.True(t, exists)

	rc, err := storage.Download(ctx, "dumps/2024-01-01.gv")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "digraph ThreadsAndLocks {}", string(data))
}

func TestCOSStorage_Missing(t *testing.T) {
	_, storage := newFakeBucket(t)
	ctx := context.Background()

	exists, err := storage.Exists(ctx, "missing.gv")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = storage.Download(ctx, "missing.gv")
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.GetErrorCode(err))
}

func TestCOSStorage_RejectsEscapingKey(t *testing.T) {
	_, storage := newFakeBucket(t)

	err := storage.Upload(context.Background(), "../etc/passwd", strings.NewReader("x"))
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetErrorCode(err))
}

func TestNewStorage_COS(t *testing.T) {
	storage, err := NewStorage(&config.StorageConfig{
		Type:      "cos",
		Bucket:    "test-bucket",
		Region:    "ap-guangzhou",
		SecretID:  "test-id",
		SecretKey: "test-key",
	})
	require.NoError(t, err)

	_, ok := storage.(*COSStorage)
	assert.True(t, ok)
}

func TestValidateConfig(t *testing.T) {
	t.Run("NilConfig", func(t *testing.T) {
		err := ValidateConfig(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage config is nil")
	})

	tests := []struct {
		name    string
		cfg     config.StorageConfig
		wantErr string
	}{
		{"InvalidStorageType", config.StorageConfig{Type: "s3"}, "unsupported storage type"},
		{"COSMissingBucket", config.StorageConfig{Type: "cos", Region: "r", SecretID: "i", SecretKey: "k"}, "COS bucket is required"},
		{"COSMissingRegion", config.StorageConfig{Type: "cos", Bucket: "b", SecretID: "i", SecretKey: "k"}, "COS region is required"},
		{"COSMissingCredentials", config.StorageConfig{Type: "cos", Bucket: "b", Region: "r"}, "COS credentials are required"},
		{"LocalMissingPath", config.StorageConfig{Type: "local"}, "local storage path is required"},
		{"EmptyTypeIsLocal", config.StorageConfig{LocalPath: "/tmp/graphs"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfig(&tt.cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, errors.CodeConfigError, errors.GetErrorCode(err))
		})
	}
}
