package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects map[string][]byte
	gotKey  string
}

func (f *fakeS3) Download(ctx context.Context, bucket, key string) ([]byte, error) {
	f.gotKey = bucket + "/" + key
	b, ok := f.objects[f.gotKey]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return b, nil
}

func TestParseS3URL(t *testing.T) {
	bucket, key, err := ParseS3URL("s3://docs/in/2024/contract.pdf")
	require.NoError(t, err)
	assert.Equal(t, "docs", bucket)
	assert.Equal(t, "in/2024/contract.pdf", key)

	for _, bad := range []string{"s3://", "s3://bucket", "s3://bucket/", "s3:///key"} {
		_, _, err := ParseS3URL(bad)
		assert.Error(t, err, bad)
	}
}

func TestFetchLocalFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "scan.pdf")
	require.NoError(t, os.WriteFile(p, []byte("%PDF-1.4"), 0o644))

	f := &Fetcher{}
	b, name, err := f.Fetch(context.Background(), "file://"+p+"#page=2")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), b)
	assert.Equal(t, "scan.pdf", name)

	b, _, err = f.Fetch(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), b)
}

func TestFetchHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.pdf" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("%PDF-1.7 body"))
	}))
	defer srv.Close()

	f := &Fetcher{HTTPClient: srv.Client()}
	b, name, err := f.Fetch(context.Background(), srv.URL+"/files/deed.pdf?sig=abc")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 body", string(b))
	assert.Equal(t, "deed.pdf", name)

	_, _, err = f.Fetch(context.Background(), srv.URL+"/missing.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http 404")
}

func TestFetchHTTPTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 64))
	}))
	defer srv.Close()

	f := &Fetcher{HTTPClient: srv.Client(), MaxBytes: 32}
	_, _, err := f.Fetch(context.Background(), srv.URL+"/big.pdf")
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestFetchS3(t *testing.T) {
	s3 := &fakeS3{objects: map[string][]byte{"docs/a/b.pdf": []byte("%PDF")}}
	f := &Fetcher{S3: s3}

	b, name, err := f.Fetch(context.Background(), "s3://docs/a/b.pdf")
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(b))
	assert.Equal(t, "b.pdf", name)

	_, _, err = f.Fetch(context.Background(), "s3://docs/a/missing.pdf")
	assert.Error(t, err)
}

func TestFetchS3NotConfigured(t *testing.T) {
	_, _, err := (&Fetcher{}).Fetch(context.Background(), "s3://docs/a.pdf")
	assert.Error(t, err)
}
