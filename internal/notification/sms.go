package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dstps/dstps/internal/metrics"
)

const twilioAPIBase = "https://api.twilio.com/2010-04-01"

// TwilioConfig holds SMS settings. Any empty field disables the notifier.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	ToNumber   string
}

// TwilioNotifier sends alert SMS messages through the Twilio REST API.
type TwilioNotifier struct {
	cfg        TwilioConfig
	httpClient *http.Client
	enabled    bool
	logger     *zap.Logger
}

// NewTwilioNotifier builds the notifier. Missing credentials produce a
// disabled notifier: Enabled() is false and Send always reports false.
func NewTwilioNotifier(cfg TwilioConfig, logger *zap.Logger) *TwilioNotifier {
	enabled := cfg.AccountSID != "" && cfg.AuthToken != "" &&
		cfg.FromNumber != "" && cfg.ToNumber != ""
	if !enabled {
		logger.Warn("sms notifier disabled, Twilio credentials not configured")
	}

	return &TwilioNotifier{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		enabled:    enabled,
		logger:     logger,
	}
}

// Enabled reports whether SMS delivery is configured.
func (n *TwilioNotifier) Enabled() bool {
	return n.enabled
}

// Send delivers one alert SMS. Returns true when Twilio queued the message.
func (n *TwilioNotifier) Send(ctx context.Context, camera, alertType, location string, confidence float64) bool {
	if !n.enabled {
		return false
	}

	body := buildSMSBody(camera, alertType, location, confidence, time.Now())

	err := sendWithRetry(ctx, func(ctx context.Context) error {
		return n.post(ctx, body)
	})
	if err != nil {
		n.logger.Error("sms send failed",
			zap.String("camera", camera),
			zap.String("alert_type", alertType),
			zap.Error(err),
		)
		metrics.NotificationFailures.WithLabelValues("sms").Inc()
		return false
	}

	n.logger.Info("alert sms sent",
		zap.String("camera", camera),
		zap.String("alert_type", alertType),
	)
	return true
}

func (n *TwilioNotifier) post(ctx context.Context, body string) error {
	form := url.Values{}
	form.Set("To", n.cfg.ToNumber)
	form.Set("From", n.cfg.FromNumber)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", twilioAPIBase, n.cfg.AccountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create sms request: %w", err)
	}
	req.SetBasicAuth(n.cfg.AccountSID, n.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sms request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(resp.Body)
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(raw, &apiErr)
		return fmt.Errorf("twilio status %d: %s", resp.StatusCode, apiErr.Message)
	}
	return nil
}

// buildSMSBody formats the message per alert type. Zone breaches read as
// intrusions; suspicious actions carry the action name and confidence.
func buildSMSBody(camera, alertType, location string, confidence float64, now time.Time) string {
	if alertType == "zone_breach" {
		return fmt.Sprintf(
			"DSTPS SECURITY ALERT\n\nINTRUDER DETECTED\nLocation: %s\nCamera: %s\nTime: %s\n\nIMMEDIATE ACTION REQUIRED",
			location, camera, now.Format("15:04:05"))
	}
	label := strings.ToUpper(strings.ReplaceAll(alertType, "_", " "))
	return fmt.Sprintf(
		"DSTPS SUSPICIOUS ACTIVITY\n\n%s DETECTED\nLocation: %s\nCamera: %s\nConfidence: %.0f%%\nTime: %s",
		label, location, camera, confidence*100, now.Format("15:04:05"))
}
