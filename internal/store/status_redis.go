package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Stage is the position of a document in the processing state machine.
type Stage string

const (
	StageQueued     Stage = "queued"
	StageExtracting Stage = "extracting"
	StageQuality    Stage = "quality"
	StageOCR        Stage = "ocr"
	StageDone       Stage = "done"
	StageFallback   Stage = "fallback"
	StageFailed     Stage = "failed"
)

// Terminal reports whether no further transitions follow s.
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageFallback || s == StageFailed
}

// DefaultTTL is how long a status record outlives its last update.
const DefaultTTL = 24 * time.Hour

type Status struct {
	Stage        Stage                  `json:"stage"`
	Pages        int                    `json:"pages"`
	Chunks       int                    `json:"chunks"`
	QualityScore int                    `json:"quality_score"`
	Chars        int                    `json:"chars"`
	Message      string                 `json:"message,omitempty"`
	Start        *time.Time             `json:"start_time,omitempty"`
	End          *time.Time             `json:"end_time,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// RedisStatus keeps one hash per document under ocrdoc:<id>:status.
type RedisStatus struct {
	client *redis.Client
	keyNS  string
	ttl    time.Duration
}

func NewRedisStatus(redisURL string) (*RedisStatus, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	c := redis.NewClient(opt)
	if err := c.Ping(context.Background()).Err(); err != nil {
		c.Close()
		return nil, err
	}
	return NewRedisStatusFromClient(c, DefaultTTL), nil
}

func NewRedisStatusFromClient(c *redis.Client, ttl time.Duration) *RedisStatus {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStatus{client: c, keyNS: "ocrdoc", ttl: ttl}
}

func (s *RedisStatus) key(docID string) string { return fmt.Sprintf("%s:%s:status", s.keyNS, docID) }

// Set writes the non-zero fields of st and refreshes the record's TTL.
// Fields left zero keep their previous value.
func (s *RedisStatus) Set(ctx context.Context, docID string, st Status) error {
	m := encode(st)
	key := s.key(docID)
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key, m)
		p.Expire(ctx, key, s.ttl)
		return nil
	})
	return err
}

func (s *RedisStatus) Get(ctx context.Context, docID string) (Status, bool, error) {
	res, err := s.client.HGetAll(ctx, s.key(docID)).Result()
	if err != nil {
		return Status{}, false, err
	}
	if len(res) == 0 {
		return Status{}, false, nil
	}
	return decode(res), true, nil
}

func (s *RedisStatus) Close() error { return s.client.Close() }

// Ping lets the store double as the health probe for Redis.
func (s *RedisStatus) Ping(ctx context.Context) error { return s.client.Ping(ctx).Err() }

// Client returns the underlying Redis client
func (s *RedisStatus) Client() *redis.Client { return s.client }

func encode(st Status) map[string]interface{} {
	m := map[string]interface{}{"stage": string(st.Stage)}
	if st.Pages > 0 {
		m["pages"] = st.Pages
	}
	if st.Chunks > 0 {
		m["chunks"] = st.Chunks
	}
	if st.QualityScore > 0 {
		m["quality_score"] = st.QualityScore
	}
	if st.Chars > 0 {
		m["chars"] = st.Chars
	}
	if st.Message != "" {
		m["message"] = st.Message
	}
	if st.Start != nil {
		m["start"] = st.Start.Format(time.RFC3339Nano)
	}
	if st.End != nil {
		m["end"] = st.End.Format(time.RFC3339Nano)
	}
	if st.Metadata != nil {
		b, _ := json.Marshal(st.Metadata)
		m["metadata"] = string(b)
	}
	return m
}

func decode(res map[string]string) Status {
	st := Status{
		Stage:   Stage(res["stage"]),
		Message: res["message"],
	}
	st.Pages = atoi(res["pages"])
	st.Chunks = atoi(res["chunks"])
	st.QualityScore = atoi(res["quality_score"])
	st.Chars = atoi(res["chars"])
	if v := res["start"]; v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			st.Start = &t
		}
	}
	if v := res["end"]; v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			st.End = &t
		}
	}
	if v := res["metadata"]; v != "" {
		_ = json.Unmarshal([]byte(v), &st.Metadata)
	}
	return st
}

// atoi ignores parse errors; a bad field reads as 0.
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
