package cache

import (
	"context"
	"strconv"
	"time"

	"trihash/internal/logger"
	"trihash/internal/metrics"
	"trihash/internal/sphere"
	"trihash/internal/trihash"
)

// Key：缓存键，坐标按最短往返精度格式化，保证不同坐标不会共用一个键
func Key(lat, lon float64, depth int) string {
	return strconv.FormatFloat(lat, 'g', -1, 64) + "," + strconv.FormatFloat(lon, 'g', -1, 64) + "," + strconv.Itoa(depth)
}

// 文档注释：带缓存的编码器
// 背景：按 LRU → Redis → 计算的顺序查找；Redis 命中回填 LRU，计算结果同时写回两级。
// 约束：任一缓存层可为空；Redis 读写失败只记日志并回退计算，不影响结果正确性；错误结果不缓存。
type Encoder struct {
	enc *trihash.Encoder
	lru *LRU
	rds *Redis
}

func NewEncoder(enc *trihash.Encoder, lru *LRU, rds *Redis) *Encoder {
	if enc == nil {
		enc = trihash.Default()
	}
	return &Encoder{enc: enc, lru: lru, rds: rds}
}

// Inner：底层无缓存编码器（解码、网格等不经缓存的操作使用）
func (c *Encoder) Inner() *trihash.Encoder { return c.enc }

// EncodeAll：返回深度 0..depth 的全部前缀
func (c *Encoder) EncodeAll(ctx context.Context, lat, lon float64, depth int) ([]string, error) {
	start := time.Now()
	metrics.EncodeRequestsTotal.Inc()
	defer func() {
		metrics.EncodeDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000)
	}()

	k := Key(lat, lon, depth)
	if c.lru != nil {
		if v, ok := c.lru.Get(k); ok {
			metrics.CacheHitsTotal.WithLabelValues("lru").Inc()
			return v, nil
		}
	}
	if c.rds != nil {
		v, ok, err := c.rds.Get(ctx, k)
		if err != nil {
			logger.L().Debug("redis_get_error", "key", k, "err", err)
		} else if ok {
			metrics.CacheHitsTotal.WithLabelValues("redis").Inc()
			if c.lru != nil {
				c.lru.Set(k, v)
			}
			return v, nil
		}
	}
	metrics.CacheMissesTotal.Inc()

	v, err := c.enc.EncodeAll(lat, lon, depth)
	if err != nil {
		kind := sphere.KindOf(err)
		if kind == "" {
			kind = "unknown"
		}
		metrics.EncodeErrorsTotal.WithLabelValues(string(kind)).Inc()
		return nil, err
	}
	if c.lru != nil {
		c.lru.Set(k, v)
	}
	if c.rds != nil {
		if err := c.rds.Set(ctx, k, v); err != nil {
			logger.L().Debug("redis_set_error", "key", k, "err", err)
		}
	}
	return v, nil
}

// Encode：返回指定深度的哈希
func (c *Encoder) Encode(ctx context.Context, lat, lon float64, depth int) (string, error) {
	v, err := c.EncodeAll(ctx, lat, lon, depth)
	if err != nil {
		return "", err
	}
	return v[len(v)-1], nil
}
