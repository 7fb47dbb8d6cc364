package alertlog

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

var csvHeader = []string{
	"alert_id", "timestamp", "camera_name", "location",
	"alert_type", "action_type", "confidence",
	"zone_coordinates", "image_path", "sms_sent", "email_sent",
}

// logDocument is the on-disk JSON shape. The CSV file mirrors every row for
// spreadsheet use; the JSON document is the authoritative copy.
type logDocument struct {
	Alerts     []Record   `json:"alerts"`
	SystemInfo systemInfo `json:"system_info"`
}

type systemInfo struct {
	Version string `json:"version"`
	Created string `json:"created"`
}

// FileStore is a file-backed alert log. Appends are serialized under one
// mutex so concurrent camera pipelines never interleave partial records.
type FileStore struct {
	mu       sync.Mutex
	jsonPath string
	csvPath  string
	doc      logDocument
	nextSeq  int
	loadedAt time.Time
	logger   *zap.Logger
}

// OpenFileStore loads (or initializes) the JSON log at jsonPath with a CSV
// mirror at csvPath. Existing records are kept and the next alert id
// continues from the highest one found, so ids stay unique across restarts.
// An unreadable or malformed log degrades to an empty one.
func OpenFileStore(jsonPath, csvPath string, logger *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(jsonPath), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	s := &FileStore{
		jsonPath: jsonPath,
		csvPath:  csvPath,
		logger:   logger,
		doc: logDocument{
			Alerts: []Record{},
			SystemInfo: systemInfo{
				Version: "2.0",
				Created: time.Now().Format(TimestampLayout),
			},
		},
		nextSeq: 1,
	}

	if data, err := os.ReadFile(jsonPath); err == nil {
		var doc logDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			logger.Warn("alert log unreadable, starting empty",
				zap.String("path", jsonPath),
				zap.Error(err),
			)
		} else {
			if doc.Alerts == nil {
				doc.Alerts = []Record{}
			}
			s.doc = doc
			for _, rec := range doc.Alerts {
				if seq := parseAlertID(rec.AlertID); seq >= s.nextSeq {
					s.nextSeq = seq + 1
				}
			}
		}
	}
	if info, err := os.Stat(jsonPath); err == nil {
		s.loadedAt = info.ModTime()
	}

	if err := s.ensureCSVHeader(); err != nil {
		return nil, err
	}
	return s, nil
}

// Append assigns the next alert id, persists the record to both files, and
// returns the id. The in-memory copy is updated first; a write failure is
// returned but later appends continue from consistent state.
func (s *FileStore) Append(rec Record) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.AlertID = FormatAlertID(s.nextSeq)
	s.nextSeq++
	s.doc.Alerts = append(s.doc.Alerts, rec)

	if err := s.writeJSON(); err != nil {
		return rec.AlertID, fmt.Errorf("write alert log: %w", err)
	}
	if err := s.appendCSV(rec); err != nil {
		// CSV is a convenience mirror; the JSON write already succeeded.
		s.logger.Warn("csv mirror write failed", zap.Error(err))
	}
	return rec.AlertID, nil
}

// Recent returns up to limit records, oldest first within the slice
// (newest last). A non-positive limit returns an empty slice.
func (s *FileStore) Recent(limit int) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked()

	if limit <= 0 {
		return []Record{}
	}
	n := len(s.doc.Alerts)
	if limit > n {
		limit = n
	}
	out := make([]Record, limit)
	copy(out, s.doc.Alerts[n-limit:])
	return out
}

// Stats aggregates the whole log.
func (s *FileStore) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked()

	today := time.Now().Format(dayLayout)
	alerts := s.doc.Alerts

	return Stats{
		TotalAlerts: len(alerts),
		TodayAlerts: lo.CountBy(alerts, func(r Record) bool {
			return len(r.Timestamp) >= len(today) && r.Timestamp[:len(today)] == today
		}),
		ZoneBreaches: lo.CountBy(alerts, func(r Record) bool {
			return r.AlertType == TypeZoneBreach
		}),
		SuspiciousActions: lo.CountBy(alerts, func(r Record) bool {
			return r.AlertType == TypeSuspiciousAction
		}),
		SMSSent:    lo.CountBy(alerts, func(r Record) bool { return r.SMSSent }),
		EmailsSent: lo.CountBy(alerts, func(r Record) bool { return r.EmailSent }),
	}
}

// Close is a no-op for the file backend; files are not held open.
func (s *FileStore) Close() error {
	return nil
}

// refreshLocked reloads the document when another process (the pipeline,
// while this store serves the dashboard) has rewritten the file since the
// last load. A read or parse failure keeps the current in-memory copy.
func (s *FileStore) refreshLocked() {
	info, err := os.Stat(s.jsonPath)
	if err != nil || !info.ModTime().After(s.loadedAt) {
		return
	}
	data, err := os.ReadFile(s.jsonPath)
	if err != nil {
		return
	}
	var doc logDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("alert log reload failed", zap.Error(err))
		return
	}
	if doc.Alerts == nil {
		doc.Alerts = []Record{}
	}
	s.doc = doc
	for _, rec := range doc.Alerts {
		if seq := parseAlertID(rec.AlertID); seq >= s.nextSeq {
			s.nextSeq = seq + 1
		}
	}
	s.loadedAt = info.ModTime()
}

func (s *FileStore) writeJSON() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return err
	}
	// Write-then-rename keeps readers (the dashboard) from observing a
	// partially written document.
	tmp := s.jsonPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.jsonPath); err != nil {
		return err
	}
	if info, err := os.Stat(s.jsonPath); err == nil {
		s.loadedAt = info.ModTime()
	}
	return nil
}

func (s *FileStore) ensureCSVHeader() error {
	if _, err := os.Stat(s.csvPath); err == nil {
		return nil
	}
	f, err := os.Create(s.csvPath)
	if err != nil {
		return fmt.Errorf("create csv log: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	w.Flush()
	return w.Error()
}

func (s *FileStore) appendCSV(rec Record) error {
	f, err := os.OpenFile(s.csvPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{
		rec.AlertID,
		rec.Timestamp,
		rec.CameraName,
		rec.Location,
		rec.AlertType,
		rec.ActionType,
		strconv.FormatFloat(rec.Confidence, 'f', -1, 64),
		rec.ZoneCoordinates,
		rec.ImagePath,
		strconv.FormatBool(rec.SMSSent),
		strconv.FormatBool(rec.EmailSent),
	}); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
