package objectstore

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basel-ax/promptpix/internal/config"
	"github.com/basel-ax/promptpix/internal/domain"
)

type fakeBucket struct {
	mu      sync.Mutex
	puts    int
	objects map[string][]byte
	headers map[string]http.Header
	deny    bool
}

func (b *fakeBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case r.Method == http.MethodPut:
		b.puts++
		if b.deny {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusForbidden)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>AccessDenied</Code><Message>Access Denied</Message></Error>`)
			return
		}
		key := strings.TrimPrefix(r.URL.Path, "/images/")
		body, _ := io.ReadAll(r.Body)
		b.objects[key] = body
		b.headers[key] = r.Header.Clone()
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodGet && r.URL.Query().Get("list-type") == "2":
		w.Header().Set("Content-Type", "application/xml")
		var sb strings.Builder
		sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?><ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/"><Name>images</Name>`)
		sb.WriteString(`<IsTruncated>false</IsTruncated>`)
		for key, body := range b.objects {
			sb.WriteString(`<Contents><Key>` + key + `</Key><LastModified>2026-01-02T03:04:05.000Z</LastModified><ETag>"etag"</ETag>`)
			sb.WriteString(`<Size>` + strconv.Itoa(len(body)) + `</Size><StorageClass>STANDARD</StorageClass></Contents>`)
		}
		sb.WriteString(`</ListBucketResult>`)
		_, _ = io.WriteString(w, sb.String())
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func newTestS3Store(t *testing.T, bucket *fakeBucket, publicBase string) *S3Store {
	t.Helper()
	srv := httptest.NewServer(bucket)
	t.Cleanup(srv.Close)

	cfg := config.S3Config{
		Bucket:          "images",
		Region:          "us-east-1",
		Endpoint:        srv.URL,
		PublicBaseURL:   publicBase,
		KeyPrefix:       "generated",
		ForcePathStyle:  true,
		AccessKeyID:     "test",
		SecretAccessKey: "test",
	}
	client, err := NewS3Client(context.Background(), cfg, func(o *s3.Options) {
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})
	require.NoError(t, err)
	return NewS3Store(client, cfg)
}

func TestS3StorePut(t *testing.T) {
	bucket := &fakeBucket{objects: map[string][]byte{}, headers: map[string]http.Header{}}
	store := newTestS3Store(t, bucket, "https://cdn.example.com")

	url, err := store.Put(context.Background(), []byte("jpeg-bytes"), "image/jpeg")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "https://cdn.example.com/generated/"))
	require.True(t, strings.HasSuffix(url, ".jpg"))

	key := strings.TrimPrefix(url, "https://cdn.example.com/")
	assert.Equal(t, []byte("jpeg-bytes"), bucket.objects[key])
	assert.Equal(t, "public-read", bucket.headers[key].Get("X-Amz-Acl"))
	assert.Equal(t, "image/jpeg", bucket.headers[key].Get("Content-Type"))
}

func TestS3StorePutFailure(t *testing.T) {
	bucket := &fakeBucket{objects: map[string][]byte{}, headers: map[string]http.Header{}, deny: true}
	store := newTestS3Store(t, bucket, "")

	_, err := store.Put(context.Background(), []byte("jpeg-bytes"), "image/jpeg")
	var storageErr *domain.StorageError
	require.True(t, errors.As(err, &storageErr))
	assert.True(t, strings.HasPrefix(storageErr.Key, "generated/"))
	assert.Equal(t, 1, bucket.puts, "upload is attempted exactly once")
}

func TestS3StoreList(t *testing.T) {
	bucket := &fakeBucket{
		objects: map[string][]byte{"generated/a.jpg": []byte("a"), "generated/b.png": []byte("bb")},
		headers: map[string]http.Header{},
	}
	store := newTestS3Store(t, bucket, "https://cdn.example.com")

	objects, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, objects, 2)

	urls := map[string]bool{}
	for _, obj := range objects {
		urls[obj.URL] = true
		assert.Equal(t, 2026, obj.LastModified.Year())
	}
	assert.True(t, urls["https://cdn.example.com/generated/a.jpg"])
	assert.True(t, urls["https://cdn.example.com/generated/b.png"])
}

func TestPublicBaseURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.S3Config
		want string
	}{
		{"Explicit", config.S3Config{Bucket: "b", PublicBaseURL: "https://cdn.example.com/"}, "https://cdn.example.com"},
		{"PathStyle", config.S3Config{Bucket: "b", Endpoint: "http://minio:9000", ForcePathStyle: true}, "http://minio:9000/b"},
		{"VirtualHostedEndpoint", config.S3Config{Bucket: "b", Endpoint: "https://r2.example.com"}, "https://b.r2.example.com"},
		{"AWS", config.S3Config{Bucket: "b", Region: "eu-west-1"}, "https://b.s3.eu-west-1.amazonaws.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, publicBaseURL(tt.cfg))
		})
	}
}
