package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"coursemarket/backend/models"
	"coursemarket/backend/utils"

	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "course:"

type Options struct {
	Addr     string
	Password string
	TTL      time.Duration
}

// CourseCache keeps read-through copies of course documents. A miss or a Redis
// failure is never fatal: callers fall back to the database.
type CourseCache struct {
	rdb *goredis.Client
	ttl time.Duration
	log *utils.Logger
}

func NewCourseCache(ctx context.Context, opts Options, log *utils.Logger) (*CourseCache, error) {
	addr := strings.TrimSpace(opts.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    opts.Password,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &CourseCache{rdb: rdb, ttl: ttl, log: log.With("service", "CourseCache")}, nil
}

func (c *CourseCache) Get(ctx context.Context, courseID string) (*models.Course, bool) {
	raw, err := c.rdb.Get(ctx, keyPrefix+courseID).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.log.Warn("course cache read failed", "course_id", courseID, "error", err)
		}
		return nil, false
	}
	var course models.Course
	if err := json.Unmarshal(raw, &course); err != nil {
		c.log.Warn("course cache entry corrupt", "course_id", courseID, "error", err)
		_ = c.rdb.Del(ctx, keyPrefix+courseID).Err()
		return nil, false
	}
	return &course, true
}

func (c *CourseCache) Set(ctx context.Context, course *models.Course) {
	if course == nil {
		return
	}
	raw, err := json.Marshal(course)
	if err != nil {
		c.log.Warn("course cache encode failed", "course_id", course.CourseID, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, keyPrefix+course.CourseID, raw, c.ttl).Err(); err != nil {
		c.log.Warn("course cache write failed", "course_id", course.CourseID, "error", err)
	}
}

func (c *CourseCache) Invalidate(ctx context.Context, courseID string) {
	if err := c.rdb.Del(ctx, keyPrefix+courseID).Err(); err != nil {
		c.log.Warn("course cache invalidate failed", "course_id", courseID, "error", err)
	}
}

func (c *CourseCache) Close() error {
	return c.rdb.Close()
}
