// Package source loads document bytes from local paths, HTTP(S) URLs and S3.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"
	"time"
)

// DefaultMaxBytes caps a single document download.
const DefaultMaxBytes = 200 << 20

// ErrTooLarge is returned when a document exceeds MaxBytes.
var ErrTooLarge = errors.New("document exceeds size limit")

// Fetcher resolves a reference to document bytes and a display name.
// Supported refs:
//   - s3://bucket/key
//   - http(s)://...
//   - file://path or a plain filesystem path
//
// A trailing #fragment is ignored.
type Fetcher struct {
	HTTPClient *http.Client
	// S3 is required only for s3:// refs.
	S3       S3Downloader
	MaxBytes int64
}

func (f *Fetcher) maxBytes() int64 {
	if f.MaxBytes > 0 {
		return f.MaxBytes
	}
	return DefaultMaxBytes
}

func (f *Fetcher) Fetch(ctx context.Context, ref string) ([]byte, string, error) {
	if i := strings.Index(ref, "#"); i >= 0 {
		ref = ref[:i]
	}
	switch {
	case strings.HasPrefix(ref, "s3://"):
		bucket, key, err := ParseS3URL(ref)
		if err != nil {
			return nil, "", err
		}
		if f.S3 == nil {
			return nil, "", fmt.Errorf("s3 source not configured for %s", ref)
		}
		b, err := f.S3.Download(ctx, bucket, key)
		if err != nil {
			return nil, "", err
		}
		if int64(len(b)) > f.maxBytes() {
			return nil, "", ErrTooLarge
		}
		return b, path.Base(key), nil
	case strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://"):
		b, err := f.fetchHTTP(ctx, ref)
		if err != nil {
			return nil, "", err
		}
		return b, path.Base(strings.SplitN(ref, "?", 2)[0]), nil
	default:
		p := strings.TrimPrefix(ref, "file://")
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, "", err
		}
		if int64(len(b)) > f.maxBytes() {
			return nil, "", ErrTooLarge
		}
		return b, path.Base(p), nil
	}
}

func (f *Fetcher) fetchHTTP(ctx context.Context, url string) ([]byte, error) {
	client := f.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http %d fetching %s", resp.StatusCode, url)
	}
	limit := f.maxBytes()
	b, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, ErrTooLarge
	}
	return b, nil
}

// ParseS3URL splits s3://bucket/key.
func ParseS3URL(ref string) (bucket, key string, err error) {
	p := strings.TrimPrefix(ref, "s3://")
	slash := strings.Index(p, "/")
	if slash <= 0 || slash == len(p)-1 {
		return "", "", fmt.Errorf("invalid s3 url: %s", ref)
	}
	return p[:slash], p[slash+1:], nil
}
