package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultPrefix：Redis 键前缀
const DefaultPrefix = "trihash:"

// 文档注释：Redis 共享缓存
// 背景：多实例部署时共享编码结果；值为前缀链的 JSON 数组。
// 约束：rc 为 nil 时所有操作退化为未命中/空操作，调用方无需判空。
type Redis struct {
	rc     *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedis(rc *redis.Client, prefix string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Redis{rc: rc, prefix: prefix, ttl: ttl}
}

// Get：命中返回 (值, true, nil)；键不存在返回 (nil, false, nil)
func (r *Redis) Get(ctx context.Context, k string) ([]string, bool, error) {
	if r == nil || r.rc == nil {
		return nil, false, nil
	}
	s, err := r.rc.Get(ctx, r.prefix+k).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var v []string
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (r *Redis) Set(ctx context.Context, k string, v []string) error {
	if r == nil || r.rc == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return r.rc.Set(ctx, r.prefix+k, b, r.ttl).Err()
}
