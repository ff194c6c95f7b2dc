// cmd/web/main.go
//
// Anime catalog: HTTP entry point.
//
// Start-up sequence
// -----------------
//
//  1. Load configuration (`conf/global.yaml`, `.env`, CATALOG_* overrides).
//
//  2. Start the daily rotating logger (tees to console when in a TTY).
//
//  3. Run the database initialisation flow: connect, create, provision,
//     validate, and repair.  Only an unreachable server stops the process;
//     an unresolved schema problem is logged and the service starts
//     degraded.
//
//  4. Build the router:
//
//     • request info       – client IP, UA, GeoIP country
//     • access log         – zap + http_requests_total
//     • security headers   – HSTS, CSP, and friends
//     • HTTPS redirect     – when http.force_https is set
//     • /metrics           – Prometheus
//     • /api               – catalog admin API + schema health
//     • /*                 – static admin UI from http.static_dir
//
//  5. Serve until SIGINT or SIGTERM, then drain in-flight requests.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yanizio/animecatalog/internal/catalog"
	"github.com/yanizio/animecatalog/internal/config"
	"github.com/yanizio/animecatalog/internal/dbinit"
	"github.com/yanizio/animecatalog/internal/logger"
	"github.com/yanizio/animecatalog/internal/middleware"
	"github.com/yanizio/animecatalog/internal/requestinfo"
	"github.com/yanizio/animecatalog/internal/server"
)

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("load config: %v", err)
		return 1
	}

	logOut, err := logger.New(cfg.Paths.Root, runningInTTY(), cfg.Log.Level)
	if err != nil {
		log.Printf("start logger: %v", err)
		return 1
	}
	defer func() { _ = logOut.Sync() }()
	zl := logOut.Desugar()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//
	// ── 1.  Database initialisation ────────────────────────────────────
	//
	script, err := catalog.LoadScript(cfg.Database.SchemaFile)
	if err != nil {
		logOut.Errorw("✗ cannot read schema script", "err", err)
		return 1
	}

	conn, res, err := dbinit.Run(ctx, dbinit.FromConfig(cfg.Database, script, catalog.Descriptor(), zl))
	if err != nil {
		logOut.Errorw("✗ database unavailable; exiting", "err", err)
		return 1
	}
	defer conn.Close()
	if res.Degraded {
		logOut.Warnw("⚠ serving with an incomplete schema; see /api/health/schema",
			"errors", res.Final.Errors)
	}

	//
	// ── 2.  Optional GeoIP enrichment ──────────────────────────────────
	//
	if cfg.HTTP.GeoIPDB != "" {
		if err := requestinfo.InitGeo(cfg.HTTP.GeoIPDB); err != nil {
			logOut.Warnw("⚠ GeoIP disabled", "file", cfg.HTTP.GeoIPDB, "err", err)
		} else {
			defer requestinfo.CloseGeo()
		}
	}

	//
	// ── 3.  Router ─────────────────────────────────────────────────────
	//
	r := chi.NewRouter()
	r.Use(
		requestinfo.Enrich,
		middleware.AccessLog(zl),
		middleware.Security,
		middleware.ForceHTTPS(cfg.HTTP.ForceHTTPS),
	)

	r.Handle("/metrics", promhttp.Handler())

	api := catalog.NewHandler(catalog.NewRepository(conn.DB()), conn, catalog.Descriptor(), zl)
	r.Mount("/api", api.Routes())

	if dir := cfg.HTTP.StaticDir; dir != "" {
		r.Handle("/*", http.FileServer(http.Dir(dir)))
	}

	//
	// ── 4.  Serve ──────────────────────────────────────────────────────
	//
	if err := server.Run(ctx, server.New(cfg.HTTP.ListenAddr, r), zl); err != nil {
		logOut.Errorw("✗ http server", "err", err)
		return 1
	}
	logOut.Info("✓ shutdown complete")
	return 0
}
