// Package metrics exposes prometheus instrumentation for the pipeline.
// Counters are package-level and registered on the default registry; the
// dashboard serves them at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FramesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dstps_frames_processed_total",
		Help: "Frames read and run through detection, per camera.",
	}, []string{"camera"})

	Detections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dstps_detections_total",
		Help: "Frames in which a person was detected, per camera.",
	}, []string{"camera"})

	AlertsFired = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dstps_alerts_fired_total",
		Help: "Alerts that completed the firing path.",
	}, []string{"camera", "alert_type"})

	AlertsSuppressed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dstps_alerts_suppressed_total",
		Help: "Would-be alerts suppressed by the per-camera cooldown.",
	}, []string{"camera"})

	NotificationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dstps_notification_failures_total",
		Help: "Notification attempts that the transport reported as failed.",
	}, []string{"channel"})

	DispatchQueueDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dstps_dispatch_queue_drops_total",
		Help: "Anomalous detections dropped because a camera's dispatch queue was full.",
	}, []string{"camera"})
)
