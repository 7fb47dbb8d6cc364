// Command dstps runs the surveillance pipeline: one capture loop per
// configured camera, pose classification against a sidecar service, zone
// breach checks, and the alert dispatch path.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dstps/dstps/internal/alert"
	"github.com/dstps/dstps/internal/alertlog"
	"github.com/dstps/dstps/internal/camera"
	"github.com/dstps/dstps/internal/config"
	"github.com/dstps/dstps/internal/cooldown"
	"github.com/dstps/dstps/internal/detect"
	"github.com/dstps/dstps/internal/evidence"
	"github.com/dstps/dstps/internal/logging"
	"github.com/dstps/dstps/internal/notification"
)

// restartDelay paces camera reconnects after a stream failure.
const restartDelay = 5 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "dstps:", err)
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

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	ev, err := evidence.NewStore(filepath.Join(cfg.Storage.DataDir, "evidence"), logger)
	if err != nil {
		return err
	}
	if cfg.Minio.Endpoint != "" {
		if err := ev.WithMinio(cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.Bucket, cfg.Minio.Secure); err != nil {
			return err
		}
		logger.Info("evidence mirroring enabled", zap.String("endpoint", cfg.Minio.Endpoint))
	}

	email := notification.NewEmailNotifier(notification.EmailConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		From:     cfg.SMTP.From,
		Password: cfg.SMTP.Password,
	}, logger)
	sms := notification.NewTwilioNotifier(notification.TwilioConfig{
		AccountSID: cfg.Twilio.AccountSID,
		AuthToken:  cfg.Twilio.AuthToken,
		FromNumber: cfg.Twilio.FromNumber,
		ToNumber:   cfg.Twilio.ToNumber,
	}, logger)

	dispatcher := alert.New(
		cooldown.NewTracker(time.Duration(cfg.Detection.AlertCooldownSeconds)*time.Second),
		ev, store, email, sms,
		cfg.Detection.SMSAlertsEnabled,
		logger,
	)

	client := detect.NewClient(cfg.Detection.PoseServiceURL, logger)

	logger.Info("starting pipelines",
		zap.Int("cameras", len(cfg.Cameras)),
		zap.Int("cooldown_seconds", cfg.Detection.AlertCooldownSeconds),
		zap.Bool("sms_enabled", cfg.Detection.SMSAlertsEnabled),
	)

	var wg sync.WaitGroup
	for _, cam := range cfg.Cameras {
		worker := alert.NewWorker(dispatcher, cam.Name, 0, logger)
		worker.Start(ctx)
		pipeline := camera.NewPipeline(cam, cfg.Detection, client, worker, logger)

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer worker.Wait()
			superviseCamera(ctx, pipeline, logger.With(zap.String("camera", cam.Name)))
		}()
	}

	<-ctx.Done()
	logger.Info("shutdown signal received")
	wg.Wait()
	return nil
}

// superviseCamera restarts a camera pipeline after stream failures until
// ctx is cancelled. One camera's failures never affect the others.
func superviseCamera(ctx context.Context, p *camera.Pipeline, logger *zap.Logger) {
	for {
		err := p.Run(ctx)
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			// Display window closed by the operator.
			return
		}
		logger.Warn("camera pipeline stopped, restarting", zap.Error(err), zap.Duration("delay", restartDelay))
		select {
		case <-ctx.Done():
			return
		case <-time.After(restartDelay):
		}
	}
}

// openStore selects the alert log backend: Postgres when a DSN is set,
// otherwise the JSON/CSV file pair under the data directory.
func openStore(cfg *config.Config, logger *zap.Logger) (alertlog.Store, error) {
	if cfg.Storage.PostgresDSN != "" {
		return alertlog.OpenPostgresStore(cfg.Storage.PostgresDSN, logger)
	}
	return alertlog.OpenFileStore(
		filepath.Join(cfg.Storage.DataDir, "alerts_log.json"),
		filepath.Join(cfg.Storage.DataDir, "alerts_log.csv"),
		logger,
	)
}
