// Package alert implements the dispatch decision pipeline: given one
// frame's detection it decides between no alert, a cooldown-suppressed
// alert, and a fired alert, and runs the firing side effects (evidence,
// log append, notification fan-out, cooldown update).
package alert

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dstps/dstps/internal/alertlog"
	"github.com/dstps/dstps/internal/config"
	"github.com/dstps/dstps/internal/cooldown"
	"github.com/dstps/dstps/internal/detect"
	"github.com/dstps/dstps/internal/metrics"
	"github.com/dstps/dstps/internal/notification"
	"github.com/dstps/dstps/internal/pose"
)

// Decision is the single evaluation result consumed by both the renderer
// and the dispatcher, so visualization and alerting can never drift apart.
type Decision int

const (
	// DecisionNone: no breach and no suspicious action.
	DecisionNone Decision = iota
	// DecisionWouldAlert: the detection warrants an alert but the camera's
	// cooldown suppressed it. The frame still renders in alert state.
	DecisionWouldAlert
	// DecisionFired: the full firing path ran.
	DecisionFired
)

// Outcome reports what one Evaluate call did.
type Outcome struct {
	Decision   Decision
	DispatchID string
	AlertID    string
	AlertType  string

	EvidencePath   string
	EmailAttempts  int
	EmailSuccesses int
	SMSAttempted   bool
	SMSSuccess     bool
}

// EvidenceStore persists a snapshot and returns its path, empty on failure.
// It must not return an error: a lost image degrades the record, nothing
// else.
type EvidenceStore interface {
	Save(ctx context.Context, image []byte, camera, alertType string, ts time.Time) string
}

// Recorder appends one alert record and returns its assigned id.
type Recorder interface {
	Append(rec alertlog.Record) (string, error)
}

// Dispatcher orchestrates the detection-to-alert path. One instance serves
// all cameras; per-camera state lives in the cooldown tracker.
type Dispatcher struct {
	cooldown   *cooldown.Tracker
	evidence   EvidenceStore
	recorder   Recorder
	email      notification.EmailSender
	sms        notification.SMSSender
	smsEnabled bool
	logger     *zap.Logger
}

// New wires a dispatcher. smsEnabled is the global SMS toggle; it is ANDed
// with the notifier's own configuration state.
func New(
	tracker *cooldown.Tracker,
	evidence EvidenceStore,
	recorder Recorder,
	email notification.EmailSender,
	sms notification.SMSSender,
	smsEnabled bool,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		cooldown:   tracker,
		evidence:   evidence,
		recorder:   recorder,
		email:      email,
		sms:        sms,
		smsEnabled: smsEnabled,
		logger:     logger,
	}
}

// Evaluate runs the dispatch decision for one detection. Callers for the
// same camera must not run Evaluate concurrently; the per-camera Worker
// guarantees that.
//
// When firing, the sequence is: evidence capture, record append, email
// fan-out (every address independently), SMS, and finally the cooldown
// update. The cooldown update is unconditional once the firing path is
// entered: a delivery failure neither re-arms nor cancels it.
func (d *Dispatcher) Evaluate(ctx context.Context, det detect.Detection, cam config.Camera, frame []byte, now time.Time) Outcome {
	if !det.Anomalous() {
		return Outcome{Decision: DecisionNone}
	}

	// Breach takes priority in naming when both conditions hold.
	alertType := alertlog.TypeSuspiciousAction
	if det.Breach {
		alertType = alertlog.TypeZoneBreach
	}

	if !d.cooldown.CanAlert(cam.Name, now) {
		metrics.AlertsSuppressed.WithLabelValues(cam.Name).Inc()
		return Outcome{Decision: DecisionWouldAlert, AlertType: alertType}
	}

	out := Outcome{
		Decision:   DecisionFired,
		DispatchID: uuid.NewString(),
		AlertType:  alertType,
	}

	out.EvidencePath = d.evidence.Save(ctx, frame, cam.Name, alertType, now)

	smsPlanned := d.smsEnabled && d.sms != nil && d.sms.Enabled()
	rec := alertlog.Record{
		Timestamp:       now.Format(alertlog.TimestampLayout),
		CameraName:      cam.Name,
		Location:        cam.Location,
		AlertType:       alertType,
		ActionType:      det.Action.String(),
		Confidence:      det.Confidence,
		ZoneCoordinates: det.BBoxString(),
		ImagePath:       out.EvidencePath,
		// Attempt flags, decided at append time: a disabled channel is
		// recorded as not sent, an enabled one as attempted.
		SMSSent:   smsPlanned,
		EmailSent: len(cam.AlertEmails) > 0,
	}

	alertID, err := d.recorder.Append(rec)
	if err != nil {
		// The record is lost but notifications still go out; an unlogged
		// alert is better than an unsent one.
		d.logger.Error("alert record append failed",
			zap.String("dispatch_id", out.DispatchID),
			zap.String("camera", cam.Name),
			zap.Error(err),
		)
	}
	out.AlertID = alertID

	subject := fmt.Sprintf("%s - %s", titleCase(alertType), det.Action.String())
	body := fmt.Sprintf("Detected at %s. Confidence: %.2f", cam.Location, det.Confidence)

	// Fully independent fan-out: one bad address never blocks the rest.
	for _, addr := range cam.AlertEmails {
		out.EmailAttempts++
		if d.email != nil && d.email.Send(ctx, addr, subject, body, out.EvidencePath) {
			out.EmailSuccesses++
		}
	}

	if smsPlanned {
		out.SMSAttempted = true
		out.SMSSuccess = d.sms.Send(ctx, cam.Name, alertType, cam.Location, det.Confidence)
	}

	d.cooldown.Record(cam.Name, now)
	metrics.AlertsFired.WithLabelValues(cam.Name, alertType).Inc()

	d.logger.Info("alert fired",
		zap.String("dispatch_id", out.DispatchID),
		zap.String("alert_id", out.AlertID),
		zap.String("camera", cam.Name),
		zap.String("alert_type", alertType),
		zap.String("action", det.Action.String()),
		zap.String("evidence", out.EvidencePath),
		zap.Int("email_successes", out.EmailSuccesses),
		zap.Int("email_attempts", out.EmailAttempts),
		zap.Bool("sms_success", out.SMSSuccess),
	)
	return out
}

// RenderState classifies a detection for visualization only. It mirrors the
// alerting gate without touching cooldown state.
func RenderState(det detect.Detection) string {
	switch {
	case det.Breach:
		return "ZONE BREACH"
	case det.Action != pose.ActionNormal:
		return "SUSPICIOUS: " + strings.ToUpper(det.Action.String())
	default:
		return "NORMAL"
	}
}

// titleCase turns "zone_breach" into "Zone Breach" for email subjects.
func titleCase(s string) string {
	parts := strings.Split(s, "_")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}
