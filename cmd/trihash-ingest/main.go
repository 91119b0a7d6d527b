// 数据导入工具：读取 id,lat,lon 坐标 CSV（文件、标准输入或远端 URL），编码后批量写入 PostgreSQL
package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	"trihash/internal/ingest"
	"trihash/internal/logger"
	"trihash/internal/migrate"
	"trihash/internal/trihash"
	"trihash/internal/utils"
)

func main() {
	utils.LoadEnv()
	file := flag.String("file", "", "CSV file path, '-' or empty for stdin")
	srcURL := flag.String("url", "", "fetch the CSV from this URL instead of a file")
	depth := flag.Int("depth", utils.EnvInt("INGEST_DEPTH", trihash.Km0_05), "subdivision depth (0..20)")
	flag.Parse()

	l := logger.Setup()
	if *depth < 0 || *depth > trihash.MaxDepth {
		l.Error("ingest_bad_depth", "depth", *depth)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := utils.OpenPostgresFromEnv()
	if err != nil {
		l.Error("db_open_error", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := migrate.EnsureSchema(ctx, db); err != nil {
		l.Error("schema_error", "err", err)
		os.Exit(1)
	}

	enc := trihash.Default()
	var st ingest.Stats
	if *srcURL != "" {
		st, err = ingest.ImportURL(ctx, db, nil, *srcURL, enc, *depth)
	} else {
		var r io.Reader = os.Stdin
		if *file != "" && *file != "-" {
			f, ferr := os.Open(*file)
			if ferr != nil {
				l.Error("ingest_open_error", "file", *file, "err", ferr)
				os.Exit(1)
			}
			defer f.Close()
			r = f
		}
		st, err = ingest.Import(ctx, db, r, enc, *depth)
	}
	if err != nil {
		l.Error("ingest_error", "err", err, "rows", st.Rows, "imported", st.Imported)
		os.Exit(1)
	}
	l.Info("ingest_summary", "rows", st.Rows, "imported", st.Imported, "skipped", st.Skipped)
}
