package statuscheck

import (
	"context"
	"errors"
	"os/exec"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/local/ocrdispatcher/internal/source"
)

// RedisPinger models the minimal Redis capability we need for status checks.
type RedisPinger interface {
	Ping(ctx context.Context) error
}

// BucketHeader is the S3 call used to probe the bucket.
type BucketHeader interface {
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// Checker aggregates health checks for external dependencies.
type Checker struct {
	redis    RedisPinger
	s3Bucket string
	s3       BucketHeader
	aws      source.AWSOptions
	lookPath func(string) (string, error)
	mutool   string
	tess     string
	inProc   map[string]bool
}

// Options configures the Checker.
type Options struct {
	Redis    RedisPinger
	S3Bucket string
	// S3 is built from AWS on first use when nil.
	S3  BucketHeader
	AWS source.AWSOptions
	// MutoolBinary and TesseractBinary default to the names on PATH.
	MutoolBinary    string
	TesseractBinary string
	LookPath        func(string) (string, error)
	// InProcess marks tools replaced by linked libraries ("mutool",
	// "tesseract"); they report OK without a binary.
	InProcess []string
}

// Status represents the readiness of a subsystem.
type Status struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Summary bundles all subsystem statuses.
type Summary struct {
	Redis     Status `json:"redis"`
	S3        Status `json:"s3"`
	MuPDF     Status `json:"mupdf"`
	Tesseract Status `json:"tesseract"`
}

// Ready reports whether the OCR toolchain is usable. Redis and S3 are optional.
func (s Summary) Ready() bool { return s.MuPDF.OK && s.Tesseract.OK }

// New creates a new Checker with the provided options.
func New(opts Options) *Checker {
	c := &Checker{
		redis:    opts.Redis,
		s3Bucket: opts.S3Bucket,
		s3:       opts.S3,
		aws:      opts.AWS,
		lookPath: opts.LookPath,
		mutool:   opts.MutoolBinary,
		tess:     opts.TesseractBinary,
		inProc:   make(map[string]bool),
	}
	for _, name := range opts.InProcess {
		c.inProc[name] = true
	}
	if c.lookPath == nil {
		c.lookPath = exec.LookPath
	}
	if c.mutool == "" {
		c.mutool = "mutool"
	}
	if c.tess == "" {
		c.tess = "tesseract"
	}
	return c
}

// Summary returns the current status snapshot.
func (c *Checker) Summary(ctx context.Context) Summary {
	return Summary{
		Redis:     c.checkRedis(ctx),
		S3:        c.checkS3(ctx),
		MuPDF:     c.checkTool("mutool", c.mutool),
		Tesseract: c.checkTool("tesseract", c.tess),
	}
}

func (c *Checker) checkRedis(ctx context.Context) Status {
	if c.redis == nil {
		return Status{OK: false, Message: "client unavailable"}
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.redis.Ping(ctx); err != nil {
		return Status{OK: false, Message: trimError(err)}
	}
	return Status{OK: true, Message: "Connected"}
}

func (c *Checker) checkS3(ctx context.Context) Status {
	if c.s3Bucket == "" {
		return Status{OK: false, Message: "Bucket not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	cli := c.s3
	if cli == nil {
		cfg, err := source.LoadAWSConfig(ctx, c.aws)
		if err != nil {
			return Status{OK: false, Message: trimError(err)}
		}
		cli = s3.NewFromConfig(cfg)
	}
	if _, err := cli.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &c.s3Bucket}); err != nil {
		return Status{OK: false, Message: trimError(err)}
	}
	return Status{OK: true, Message: "Connected"}
}

func (c *Checker) checkTool(tool, binary string) Status {
	if c.inProc[tool] {
		return Status{OK: true, Message: "In process"}
	}
	if _, err := c.lookPath(binary); err != nil {
		return Status{OK: false, Message: "Binary not found"}
	}
	return Status{OK: true, Message: "Available"}
}

func trimError(err error) string {
	if err == nil {
		return ""
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	msg := err.Error()
	if len(msg) > 120 {
		return msg[:120]
	}
	return msg
}
