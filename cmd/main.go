// 程序入口：仅负责读取配置、初始化依赖并启动服务；API 注册在 internal/api 以便扩展
package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"trihash/internal/api"
	"trihash/internal/cache"
	"trihash/internal/icosa"
	"trihash/internal/ingest"
	"trihash/internal/ipgeo"
	"trihash/internal/logger"
	"trihash/internal/metrics"
	"trihash/internal/middleware"
	"trihash/internal/migrate"
	"trihash/internal/store"
	"trihash/internal/trihash"
	"trihash/internal/utils"
	"trihash/internal/version"
)

func main() {
	utils.LoadEnv()
	l := logger.Setup()
	l.Debug("log_init_ok", "commit", version.Commit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	apiBase := utils.EnvString("API_BASE", "/api")
	defaultDepth := utils.EnvInt("DEFAULT_DEPTH", trihash.Km6)
	l.Debug("config_api", "base", apiBase, "default_depth", defaultDepth)

	// 根索引构造一次，所有请求共享只读
	enc := trihash.NewEncoder(icosa.New())

	var lru *cache.LRU
	ttl := time.Duration(utils.EnvInt("CACHE_TTL_S", 3600)) * time.Second
	if n := utils.EnvInt("LRU_SIZE", 65536); n > 0 {
		lru = cache.NewLRU(n, ttl)
	}
	var rds *cache.Redis
	if rc := utils.OpenRedisFromEnv(); rc == nil {
		l.Info("redis_disabled")
	} else if err := rc.Ping(ctx).Err(); err != nil {
		l.Error("redis_ping_error", "err", err)
		_ = rc.Close()
	} else {
		l.Info("redis_ping_ok")
		rds = cache.NewRedis(rc, cache.DefaultPrefix, ttl)
		defer rc.Close()
	}
	deps := api.Deps{Enc: cache.NewEncoder(enc, lru, rds), DefaultDepth: defaultDepth}

	if utils.EnvBool("STORE_ENABLE", false) {
		db, err := utils.OpenPostgresFromEnv()
		if err != nil {
			l.Error("db_open_error", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			l.Error("db_ping_error", "err", err)
			os.Exit(1)
		}
		l.Info("db_ping_ok")
		if err := migrate.EnsureSchema(ctx, db); err != nil {
			l.Error("schema_error", "err", err)
			os.Exit(1)
		}
		deps.Store = store.AttachDB(db)
		startIngest(ctx, db, enc)
	} else {
		l.Info("store_disabled")
	}

	if path := os.Getenv("GEOIP_CITY_PATH"); path != "" {
		if g, err := ipgeo.Open(path, utils.EnvString("GEOIP_LANG", "zh-CN")); err != nil {
			l.Error("geoip_open_error", "err", err)
		} else {
			defer g.Close()
			deps.GeoIP = g
		}
	} else {
		l.Info("geoip_disabled")
	}

	mux := http.NewServeMux()
	mux.Handle(apiBase+"/", http.StripPrefix(apiBase, api.BuildRoutes(deps)))
	mux.Handle(apiBase+"/metrics", middleware.AllowlistFromEnv().Guard(metrics.Handler()))

	addr := utils.EnvString("ADDR", ":8080")
	handler := logger.AccessMiddleware(l)(mux)
	handler = middleware.Wrap(handler)
	s := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.Shutdown(sctx)
	}()

	var err error
	if utils.EnvBool("TLS_ENABLE", false) {
		certPath := utils.EnvString("TLS_CERT_PATH", filepath.Join("data", "certs", "server.crt"))
		keyPath := utils.EnvString("TLS_KEY_PATH", filepath.Join("data", "certs", "server.key"))
		if err := utils.EnsureSelfSignedCert(certPath, keyPath, "trihash.local"); err != nil {
			l.Error("tls_cert_error", "err", err)
			os.Exit(1)
		}
		l.Info("listening_tls", "addr", addr, "cert", certPath)
		err = s.ListenAndServeTLS(certPath, keyPath)
	} else {
		l.Info("listening", "addr", addr)
		err = s.ListenAndServe()
	}
	if err != nil && err != http.ErrServerClosed {
		l.Error("server_error", "err", err)
		os.Exit(1)
	}
	l.Info("server_stopped")
}

// startIngest：配置了 INGEST_SRC_URL 时启动周期导入
func startIngest(ctx context.Context, db *sql.DB, enc *trihash.Encoder) {
	src := os.Getenv("INGEST_SRC_URL")
	if src == "" {
		return
	}
	every := time.Duration(utils.EnvInt("INGEST_INTERVAL_H", 24)) * time.Hour
	depth := utils.EnvInt("INGEST_DEPTH", trihash.Km0_05)
	logger.L().Info("ingest_schedule", "src", src, "every", every, "depth", depth)
	ingest.StartPeriodic(ctx, db, src, enc, depth, every)
}
