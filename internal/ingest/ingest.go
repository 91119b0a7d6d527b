// 包 ingest：批量读取坐标 CSV，编码后分批写入 PostgreSQL，作为离线数据通道
package ingest

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"trihash/internal/logger"
	"trihash/internal/metrics"
	"trihash/internal/sphere"
	"trihash/internal/store"
)

// BatchSize：每批提交的行数，降低锁持有与 WAL 压力
const BatchSize = 5000

// Encoder：导入所需的编码能力
type Encoder interface {
	Encode(lat, lon float64, depth int) (string, error)
}

// Row：CSV 中的一行（id,lat,lon）
type Row struct {
	Line int
	ID   string
	Lat  float64
	Lon  float64
}

// Stats：一次导入的计数
type Stats struct {
	Rows     int `json:"rows"`
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// ErrBadRow：行格式不合法
var ErrBadRow = errors.New("bad row")

// ParseRow：解析一条记录，要求至少三列且经纬度为有限数值
func ParseRow(line int, rec []string) (Row, error) {
	if len(rec) < 3 {
		return Row{}, fmt.Errorf("%w: line %d: want id,lat,lon, got %d fields", ErrBadRow, line, len(rec))
	}
	id := strings.TrimSpace(rec[0])
	if id == "" {
		return Row{}, fmt.Errorf("%w: line %d: empty id", ErrBadRow, line)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
	if err != nil || math.IsNaN(lat) || math.IsInf(lat, 0) {
		return Row{}, fmt.Errorf("%w: line %d: lat %q", ErrBadRow, line, rec[1])
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(rec[2]), 64)
	if err != nil || math.IsNaN(lon) || math.IsInf(lon, 0) {
		return Row{}, fmt.Errorf("%w: line %d: lon %q", ErrBadRow, line, rec[2])
	}
	return Row{Line: line, ID: id, Lat: lat, Lon: lon}, nil
}

// 文档注释：逐行读取 CSV 并回调
// 背景：首行若为表头（第二列为 lat）则跳过；格式错误的行计入 skipped 并记录 debug 日志，不中断整体导入。
// 异常：底层读取错误或回调返回错误时立即停止并返回。
func Read(r io.Reader, fn func(Row) error) (skipped int, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return skipped, nil
		}
		line++
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				skipped++
				logger.L().Debug("ingest_row_skip", "line", line, "err", err)
				continue
			}
			return skipped, err
		}
		if line == 1 && len(rec) >= 2 && strings.EqualFold(strings.TrimSpace(rec[1]), "lat") {
			continue
		}
		row, err := ParseRow(line, rec)
		if err != nil {
			skipped++
			logger.L().Debug("ingest_row_skip", "line", line, "err", err)
			continue
		}
		if err := fn(row); err != nil {
			return skipped, err
		}
	}
}

// 文档注释：编码一行
// 约束：越界坐标返回 ErrRange 由调用方跳过；其他错误（定位失败）原样返回。
func ToPoint(enc Encoder, row Row, depth int) (store.Point, error) {
	h, err := enc.Encode(row.Lat, row.Lon, depth)
	if err != nil {
		return store.Point{}, err
	}
	return store.Point{ID: row.ID, Lat: row.Lat, Lon: row.Lon, Depth: depth, Hash: h}, nil
}

// 文档注释：读取 CSV、编码并分批写库
// 背景：每 BatchSize 行提交一次事务并重新开启，单批失败只回滚当前批次，已提交批次保留。
// 异常：坐标越界与定位失败的行跳过并计数（定位失败记 warn）；数据库错误直接返回，不做重试。
func Import(ctx context.Context, db *sql.DB, r io.Reader, enc Encoder, depth int) (Stats, error) {
	var st Stats
	l := logger.L()
	l.Info("ingest_start", "depth", depth)

	tx, stmt, err := begin(ctx, db)
	if err != nil {
		return st, err
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()
	pending := 0
	skipped, err := Read(r, func(row Row) error {
		st.Rows++
		p, err := ToPoint(enc, row, depth)
		if err != nil {
			st.Skipped++
			metrics.IngestRowsTotal.WithLabelValues("skipped").Inc()
			if sphere.KindOf(err) == sphere.KindRange {
				l.Debug("ingest_row_range", "line", row.Line, "id", row.ID, "err", err)
			} else {
				l.Warn("ingest_row_locate_error", "line", row.Line, "id", row.ID, "err", err)
			}
			return nil
		}
		if _, err := stmt.ExecContext(ctx, p.ID, p.Lat, p.Lon, p.Depth, p.Hash); err != nil {
			return fmt.Errorf("ingest: line %d: %w", row.Line, err)
		}
		pending++
		if pending == BatchSize {
			stmt.Close()
			if err := tx.Commit(); err != nil {
				tx = nil
				return err
			}
			st.Imported += pending
			metrics.IngestRowsTotal.WithLabelValues("ok").Add(float64(pending))
			pending = 0
			l.Info("ingest_progress", "count", st.Imported)
			tx, stmt, err = begin(ctx, db)
			if err != nil {
				return err
			}
		}
		return nil
	})
	st.Skipped += skipped
	if err != nil {
		return st, err
	}
	stmt.Close()
	err = tx.Commit()
	tx = nil
	if err != nil {
		return st, err
	}
	st.Imported += pending
	metrics.IngestRowsTotal.WithLabelValues("ok").Add(float64(pending))
	l.Info("ingest_done", "rows", st.Rows, "imported", st.Imported, "skipped", st.Skipped)
	return st, nil
}

func begin(ctx context.Context, db *sql.DB) (*sql.Tx, *sql.Stmt, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	stmt, err := tx.PrepareContext(ctx, store.UpsertSQL)
	if err != nil {
		_ = tx.Rollback()
		return nil, nil, err
	}
	return tx, stmt, nil
}
