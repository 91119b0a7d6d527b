package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"trihash/internal/logger"
)

// 文档注释：拉取远端 CSV 并导入
// 异常：网络错误与非 200 状态直接返回，不做重试（交由调度层在下一周期处理）
func ImportURL(ctx context.Context, db *sql.DB, client *http.Client, srcURL string, enc Encoder, depth int) (Stats, error) {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srcURL, nil)
	if err != nil {
		return Stats{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return Stats{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Stats{}, fmt.Errorf("ingest: %s: bad status %d", srcURL, resp.StatusCode)
	}
	return Import(ctx, db, resp.Body, enc, depth)
}

// 文档注释：周期性刷新
// 背景：远端坐标集定期更新，服务进程内后台协程按固定间隔重新导入；错误记日志，任务继续调度。
// 约束：ctx 取消后退出；首轮在一个间隔之后执行，启动时是否立即导入由调用方决定。
func StartPeriodic(ctx context.Context, db *sql.DB, srcURL string, enc Encoder, depth int, every time.Duration) {
	l := logger.L()
	go func() {
		t := time.NewTicker(every)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				l.Info("ingest_scheduled", "src", srcURL)
				st, err := ImportURL(ctx, db, nil, srcURL, enc, depth)
				if err != nil {
					l.Error("ingest_error", "err", err, "imported", st.Imported)
					continue
				}
				l.Info("ingest_scheduled_done", "imported", st.Imported, "skipped", st.Skipped)
			}
		}
	}()
}
