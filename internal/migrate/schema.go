package migrate

import (
	"context"
	"database/sql"

	"trihash/internal/logger"
)

// 背景：首次运行自动创建所需表与索引，保障后续导入与前缀查询
// 约束：使用 IF NOT EXISTS 避免与既有结构冲突；hash 列的 text_pattern_ops 索引服务于 LIKE 'prefix%' 查询
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS _trihash_points (
            id TEXT PRIMARY KEY,
            lat DOUBLE PRECISION NOT NULL,
            lon DOUBLE PRECISION NOT NULL,
            depth INT NOT NULL,
            hash TEXT NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_trihash_points_hash ON _trihash_points(hash text_pattern_ops)`,
		`CREATE TABLE IF NOT EXISTS _trihash_stats_daily (
            day DATE PRIMARY KEY,
            encodes BIGINT NOT NULL DEFAULT 0,
            failures BIGINT NOT NULL DEFAULT 0
        )`,
	}
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	logger.L().Debug("schema_done")
	return nil
}
