// Package alertlog persists fired alerts to an append-only store and serves
// the read side the dashboard consumes. Two backends exist: a JSON+CSV file
// pair (the default) and Postgres.
package alertlog

import (
	"fmt"
	"strconv"
	"strings"
)

// Alert type values stored on records.
const (
	TypeZoneBreach       = "zone_breach"
	TypeSuspiciousAction = "suspicious_action"
)

// TimestampLayout is the storage timestamp form, second granularity.
const TimestampLayout = "2006-01-02T15:04:05"

// dayLayout is the prefix used for "today" bucketing in Stats.
const dayLayout = "2006-01-02"

// Record is one persisted alert. Immutable once appended.
type Record struct {
	AlertID         string  `json:"alert_id" db:"alert_id"`
	Timestamp       string  `json:"timestamp" db:"timestamp"`
	CameraName      string  `json:"camera_name" db:"camera_name"`
	Location        string  `json:"location" db:"location"`
	AlertType       string  `json:"alert_type" db:"alert_type"`
	ActionType      string  `json:"action_type" db:"action_type"`
	Confidence      float64 `json:"confidence" db:"confidence"`
	ZoneCoordinates string  `json:"zone_coordinates" db:"zone_coordinates"`
	ImagePath       string  `json:"image_path" db:"image_path"`
	SMSSent         bool    `json:"sms_sent" db:"sms_sent"`
	EmailSent       bool    `json:"email_sent" db:"email_sent"`
}

// Stats aggregates the log for the dashboard.
type Stats struct {
	TotalAlerts       int `json:"total_alerts" db:"total_alerts"`
	TodayAlerts       int `json:"today_alerts" db:"today_alerts"`
	ZoneBreaches      int `json:"zone_breaches" db:"zone_breaches"`
	SuspiciousActions int `json:"suspicious_actions" db:"suspicious_actions"`
	SMSSent           int `json:"sms_sent" db:"sms_sent"`
	EmailsSent        int `json:"emails_sent" db:"emails_sent"`
}

// Store is the append-only alert log contract. Append assigns the record's
// id and returns it. Recent returns up to limit records, newest last.
// Read failures degrade to empty results, never errors.
type Store interface {
	Append(rec Record) (string, error)
	Recent(limit int) []Record
	Stats() Stats
	Close() error
}

// FormatAlertID renders a sequence number in the fixed-width id form.
func FormatAlertID(seq int) string {
	return fmt.Sprintf("ALT%06d", seq)
}

// parseAlertID extracts the sequence number from an id like "ALT000042".
// Unparseable ids count as zero so one bad row never blocks id assignment.
func parseAlertID(id string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(id, "ALT"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
