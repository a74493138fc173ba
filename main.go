package main

import (
	"context"
	"evdesk/src-server/badge"
	"evdesk/src-server/ledger"
	"evdesk/src-server/metric"
	"evdesk/src-server/storage"
	"evdesk/src-server/utils"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func init() {
	if err := godotenv.Load(); err != nil {
		slog.Info(err.Error())
	}
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.RFC1123Z,
		}),
	))
}

func main() {
	as := utils.NewAppState()

	store, err := storage.NewStore(as.Config.GetDataDir())
	if err != nil {
		slog.Error("can't open the data dir", "error", err)
		os.Exit(1)
	}
	badges, err := badge.NewGenerator(as.Config.GetBadgeBaseURL(), as.Config.GetBadgeDir())
	if err != nil {
		slog.Error("can't open the badge dir", "error", err)
		os.Exit(1)
	}

	// seed the in-memory working set from the durable CSV tables
	if err := store.Load(context.Background(), as.BunDB); err != nil {
		slog.Error("can't load the CSV tables", "error", err)
		os.Exit(1)
	}

	led := ledger.New(as.BunDB, store, badges, as.MetricChans)

	go metric.Init(as)

	// http server, only for prometheus scraping
	go func() {
		muxer := http.NewServeMux()
		muxer.Handle("GET /metrics", promhttp.Handler())
		if err := http.ListenAndServe(":"+as.Config.GetPort(), muxer); err != nil {
			slog.Error("cannot start HTTP server", "error", err)
			as.AppCloseSignalChan <- syscall.SIGTERM
		}
	}()

	// operator console on stdin
	go commandLoop(as, led)

	slog.Info("app is now running, press Ctrl+C to exit")

	signal.Notify(as.AppCloseSignalChan, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-as.AppCloseSignalChan
	as.GracefulShutdown()

	slog.Info("Gracefully shutting down...")
}
