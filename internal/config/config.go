// Package config loads application configuration from a YAML file with
// environment-variable overrides on top.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/dstps/dstps/internal/zone"
)

// Config holds all application configuration.
type Config struct {
	Cameras   []Camera  `yaml:"cameras"`
	Detection Detection `yaml:"detection"`
	SMTP      SMTP      `yaml:"smtp"`
	Twilio    Twilio    `yaml:"twilio"`
	Minio     Minio     `yaml:"minio"`
	Storage   Storage   `yaml:"storage"`
	Dashboard Dashboard `yaml:"dashboard"`
	Log       Log       `yaml:"log"`
}

// Camera identifies one monitored stream and its alerting setup. Immutable
// for the process lifetime.
type Camera struct {
	Name            string      `yaml:"name"`
	StreamURL       string      `yaml:"stream_url"`
	Location        string      `yaml:"location"`
	RestrictedZones []zone.Zone `yaml:"restricted_zones"`
	AlertEmails     []string    `yaml:"alert_emails"`
}

// Detection holds pipeline tunables shared by all cameras.
type Detection struct {
	MinDetectionConfidence float64 `yaml:"min_detection_confidence" env:"MIN_DETECTION_CONFIDENCE"`
	PoseAnalysisEnabled    bool    `yaml:"pose_analysis_enabled" env:"POSE_ANALYSIS_ENABLED"`
	SMSAlertsEnabled       bool    `yaml:"sms_alerts_enabled" env:"SMS_ALERTS_ENABLED"`
	AlertCooldownSeconds   int     `yaml:"alert_cooldown_seconds" env:"ALERT_COOLDOWN_SECONDS"`
	FrameSkip              int     `yaml:"frame_skip" env:"FRAME_SKIP"`
	PoseServiceURL         string  `yaml:"pose_service_url" env:"POSE_SERVICE_URL"`
	Display                bool    `yaml:"display" env:"DISPLAY_ENABLED"`
}

type SMTP struct {
	Host     string `yaml:"host" env:"SMTP_SERVER"`
	Port     int    `yaml:"port" env:"SMTP_PORT"`
	From     string `yaml:"from" env:"SMTP_EMAIL"`
	Password string `yaml:"password" env:"SMTP_PASSWORD"`
}

type Twilio struct {
	AccountSID string `yaml:"account_sid" env:"TWILIO_ACCOUNT_SID"`
	AuthToken  string `yaml:"auth_token" env:"TWILIO_AUTH_TOKEN"`
	FromNumber string `yaml:"from_number" env:"TWILIO_PHONE_NUMBER"`
	ToNumber   string `yaml:"to_number" env:"ALERT_PHONE_NUMBER"`
}

// Minio configures the optional evidence mirror; empty endpoint disables it.
type Minio struct {
	Endpoint  string `yaml:"endpoint" env:"MINIO_ENDPOINT"`
	AccessKey string `yaml:"access_key" env:"MINIO_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"MINIO_SECRET_KEY"`
	Bucket    string `yaml:"bucket" env:"MINIO_BUCKET"`
	Secure    bool   `yaml:"secure" env:"MINIO_SECURE"`
}

// Storage selects the alert log backend. With a Postgres DSN set the
// database backend is used; otherwise the JSON/CSV file pair.
type Storage struct {
	DataDir     string `yaml:"data_dir" env:"DATA_DIR"`
	PostgresDSN string `yaml:"postgres_dsn" env:"DATABASE_DSN"`
}

type Dashboard struct {
	Addr string `yaml:"addr" env:"DASHBOARD_ADDR"`
}

type Log struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// Default returns a Config with default values.
func Default() *Config {
	cfg := &Config{}
	cfg.Detection.MinDetectionConfidence = 0.6
	cfg.Detection.PoseAnalysisEnabled = true
	cfg.Detection.AlertCooldownSeconds = 60
	cfg.Detection.FrameSkip = 5
	cfg.Detection.PoseServiceURL = "http://localhost:8500"
	cfg.SMTP.Host = "smtp.gmail.com"
	cfg.SMTP.Port = 587
	cfg.Storage.DataDir = "data"
	cfg.Dashboard.Addr = ":8080"
	cfg.Log.Level = "info"
	cfg.Log.Format = "json"
	return cfg
}

// Load reads the YAML file at path (skipped when empty), then applies
// environment overrides. Defaults fill anything left unset.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if len(cfg.Cameras) == 0 {
		return nil, fmt.Errorf("no cameras configured")
	}
	for i, cam := range cfg.Cameras {
		if cam.Name == "" {
			return nil, fmt.Errorf("camera %d has no name", i)
		}
		if cam.StreamURL == "" {
			return nil, fmt.Errorf("camera %q has no stream_url", cam.Name)
		}
	}
	return cfg, nil
}
