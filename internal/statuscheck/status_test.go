package statuscheck

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
)

type pinger struct{ err error }

func (p pinger) Ping(ctx context.Context) error { return p.err }

type header struct {
	err    error
	bucket string
}

func (h *header) HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	h.bucket = *in.Bucket
	return &s3.HeadBucketOutput{}, h.err
}

func onlyOnPath(names ...string) func(string) (string, error) {
	return func(name string) (string, error) {
		for _, n := range names {
			if n == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", errors.New("not found")
	}
}

func TestSummaryAllHealthy(t *testing.T) {
	h := &header{}
	c := New(Options{
		Redis:    pinger{},
		S3Bucket: "docs",
		S3:       h,
		LookPath: onlyOnPath("mutool", "tesseract"),
	})

	s := c.Summary(context.Background())
	assert.True(t, s.Redis.OK)
	assert.True(t, s.S3.OK)
	assert.Equal(t, "docs", h.bucket)
	assert.True(t, s.MuPDF.OK)
	assert.True(t, s.Tesseract.OK)
	assert.True(t, s.Ready())
}

func TestSummaryFailures(t *testing.T) {
	c := New(Options{
		Redis:    pinger{err: errors.New("connection refused")},
		S3Bucket: "docs",
		S3:       &header{err: errors.New(strings.Repeat("x", 300))},
		LookPath: onlyOnPath("mutool"),
	})

	s := c.Summary(context.Background())
	assert.False(t, s.Redis.OK)
	assert.Equal(t, "connection refused", s.Redis.Message)
	assert.False(t, s.S3.OK)
	assert.Len(t, s.S3.Message, 120)
	assert.True(t, s.MuPDF.OK)
	assert.False(t, s.Tesseract.OK)
	assert.False(t, s.Ready())
}

func TestUnconfiguredDependencies(t *testing.T) {
	s := New(Options{LookPath: onlyOnPath()}).Summary(context.Background())
	assert.Equal(t, "client unavailable", s.Redis.Message)
	assert.Equal(t, "Bucket not configured", s.S3.Message)
}

func TestInProcessToolsNeedNoBinary(t *testing.T) {
	s := New(Options{LookPath: onlyOnPath(), InProcess: []string{"mutool", "tesseract"}}).Summary(context.Background())
	assert.True(t, s.Ready())
	assert.Equal(t, "In process", s.Tesseract.Message)
}
