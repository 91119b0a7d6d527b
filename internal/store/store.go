// 包 store: 提供与 PostgreSQL 的数据访问层，保存已编码的点并支持按哈希前缀查询
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"trihash/internal/logger"
	"trihash/internal/trihash"

	_ "github.com/lib/pq"
)

// UpsertSQL：按 id 写入或覆盖一行；批量导入复用同一语句
const UpsertSQL = `INSERT INTO _trihash_points(id, lat, lon, depth, hash, updated_at)
VALUES($1, $2, $3, $4, $5, now())
ON CONFLICT (id) DO UPDATE SET lat=EXCLUDED.lat, lon=EXCLUDED.lon, depth=EXCLUDED.depth, hash=EXCLUDED.hash, updated_at=now()`

// DefaultLimit / MaxLimit：前缀查询的默认与最大返回行数
const (
	DefaultLimit = 100
	MaxLimit     = 5000
)

// Store: 数据库访问入口，持有连接池
type Store struct {
	db *sql.DB
}

func AttachDB(db *sql.DB) *Store { return &Store{db: db} }

// Open: 使用 DSN 打开数据库连接并配置连接池参数
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	return &Store{db: db}, nil
}

// Close: 关闭数据库连接
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// Point: 一条已编码的点
type Point struct {
	ID        string    `json:"id"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Depth     int       `json:"depth"`
	Hash      string    `json:"hash"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ErrEmptyID：写入时缺少 id
var ErrEmptyID = errors.New("store: empty point id")

// UpsertPoint: 写入单个点
func (s *Store) UpsertPoint(ctx context.Context, p Point) error {
	if p.ID == "" {
		return ErrEmptyID
	}
	if _, err := s.db.ExecContext(ctx, UpsertSQL, p.ID, p.Lat, p.Lon, p.Depth, p.Hash); err != nil {
		return fmt.Errorf("store: upsert %s: %w", p.ID, err)
	}
	return nil
}

// 文档注释：按哈希前缀查询已存储的点
// 背景：哈希前缀即空间包含关系，"15|22" 返回落在该单元内（任意更深层级）的全部点。
// 约束：前缀必须是合法哈希（至少含根编号与分隔符），避免 "1" 同时匹配 "1|" 与 "10|"；limit 非正取默认值，超过上限截断。
func (s *Store) PointsByPrefix(ctx context.Context, prefix string, limit int) ([]Point, error) {
	if err := ValidatePrefix(prefix); err != nil {
		return nil, err
	}
	limit = ClampLimit(limit)
	logger.L().Debug("db_prefix_query", "prefix", prefix, "limit", limit)
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, lat, lon, depth, hash, updated_at FROM _trihash_points WHERE hash LIKE $1 ORDER BY hash, id LIMIT $2",
		prefix+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Point, 0, limit)
	for rows.Next() {
		var p Point
		if err := rows.Scan(&p.ID, &p.Lat, &p.Lon, &p.Depth, &p.Hash, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CountByPrefix: 统计前缀下的点数
func (s *Store) CountByPrefix(ctx context.Context, prefix string) (int64, error) {
	if err := ValidatePrefix(prefix); err != nil {
		return 0, err
	}
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM _trihash_points WHERE hash LIKE $1", prefix+"%").Scan(&n)
	return n, err
}

// IncrStats: 按日累计编码次数与失败次数；统计写入失败只记日志，不影响主流程
func (s *Store) IncrStats(ctx context.Context, failed bool) {
	q := "INSERT INTO _trihash_stats_daily(day, encodes) VALUES(current_date, 1) ON CONFLICT (day) DO UPDATE SET encodes=_trihash_stats_daily.encodes+1"
	if failed {
		q = "INSERT INTO _trihash_stats_daily(day, failures) VALUES(current_date, 1) ON CONFLICT (day) DO UPDATE SET failures=_trihash_stats_daily.failures+1"
	}
	if _, err := s.db.ExecContext(ctx, q); err != nil {
		logger.L().Debug("db_stats_error", "err", err)
	}
}

// ValidatePrefix：前缀必须能被解析为哈希
func ValidatePrefix(prefix string) error {
	if _, _, err := trihash.ParseHash(prefix); err != nil {
		return fmt.Errorf("store: prefix: %w", err)
	}
	return nil
}

// ClampLimit：规范化返回行数
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
