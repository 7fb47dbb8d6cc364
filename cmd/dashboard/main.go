// Command dashboard serves the monitoring API over the same alert log and
// evidence directory the pipeline writes to. It can run in a separate
// process from the pipeline.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dstps/dstps/internal/alertlog"
	"github.com/dstps/dstps/internal/config"
	"github.com/dstps/dstps/internal/dashboard"
	"github.com/dstps/dstps/internal/evidence"
	"github.com/dstps/dstps/internal/logging"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "dashboard:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store alertlog.Store
	if cfg.Storage.PostgresDSN != "" {
		store, err = alertlog.OpenPostgresStore(cfg.Storage.PostgresDSN, logger)
	} else {
		store, err = alertlog.OpenFileStore(
			filepath.Join(cfg.Storage.DataDir, "alerts_log.json"),
			filepath.Join(cfg.Storage.DataDir, "alerts_log.csv"),
			logger,
		)
	}
	if err != nil {
		return err
	}
	defer store.Close()

	ev, err := evidence.NewStore(filepath.Join(cfg.Storage.DataDir, "evidence"), logger)
	if err != nil {
		return err
	}

	srv := dashboard.NewServer(cfg.Dashboard.Addr, store, ev, logger)
	if err := srv.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
