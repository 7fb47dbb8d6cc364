package alertlog

import (
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const alertsSchema = `
CREATE TABLE IF NOT EXISTS alerts (
	alert_id         TEXT PRIMARY KEY,
	timestamp        TEXT NOT NULL,
	camera_name      TEXT NOT NULL,
	location         TEXT NOT NULL,
	alert_type       TEXT NOT NULL,
	action_type      TEXT NOT NULL,
	confidence       DOUBLE PRECISION NOT NULL,
	zone_coordinates TEXT NOT NULL,
	image_path       TEXT NOT NULL DEFAULT '',
	sms_sent         BOOLEAN NOT NULL DEFAULT FALSE,
	email_sent       BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_alerts_timestamp ON alerts(timestamp);
`

// PostgresStore is the database-backed alert log. Id assignment continues
// from the highest persisted id, so restarts never reuse an alert id.
type PostgresStore struct {
	db      *sqlx.DB
	mu      sync.Mutex
	nextSeq int
	logger  *zap.Logger
}

// OpenPostgresStore connects with the given DSN, ensures the schema, and
// seeds the id counter from the persisted maximum.
func OpenPostgresStore(dsn string, logger *zap.Logger) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect alert database: %w", err)
	}
	return newPostgresStore(db, logger)
}

// newPostgresStore wires an existing connection; split out for tests.
func newPostgresStore(db *sqlx.DB, logger *zap.Logger) (*PostgresStore, error) {
	if _, err := db.Exec(alertsSchema); err != nil {
		return nil, fmt.Errorf("init alerts schema: %w", err)
	}

	s := &PostgresStore{db: db, nextSeq: 1, logger: logger}

	var maxSeq int
	err := db.Get(&maxSeq,
		`SELECT COALESCE(MAX(CAST(SUBSTRING(alert_id FROM 4) AS INTEGER)), 0) FROM alerts`)
	if err != nil {
		return nil, fmt.Errorf("read max alert id: %w", err)
	}
	s.nextSeq = maxSeq + 1
	return s, nil
}

// Append inserts the record under the next id. Appends from concurrent
// camera workers are serialized so ids stay gapless and unique.
func (s *PostgresStore) Append(rec Record) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.AlertID = FormatAlertID(s.nextSeq)
	_, err := s.db.NamedExec(`
		INSERT INTO alerts (
			alert_id, timestamp, camera_name, location, alert_type,
			action_type, confidence, zone_coordinates, image_path,
			sms_sent, email_sent
		) VALUES (
			:alert_id, :timestamp, :camera_name, :location, :alert_type,
			:action_type, :confidence, :zone_coordinates, :image_path,
			:sms_sent, :email_sent
		)`, rec)
	if err != nil {
		return "", fmt.Errorf("insert alert: %w", err)
	}
	s.nextSeq++
	return rec.AlertID, nil
}

// Recent returns up to limit records, newest last. Query failures degrade
// to an empty slice so dashboard reads never fail on history.
func (s *PostgresStore) Recent(limit int) []Record {
	if limit <= 0 {
		return []Record{}
	}

	var recs []Record
	err := s.db.Select(&recs, `
		SELECT alert_id, timestamp, camera_name, location, alert_type,
		       action_type, confidence, zone_coordinates, image_path,
		       sms_sent, email_sent
		FROM (
			SELECT * FROM alerts ORDER BY alert_id DESC LIMIT $1
		) latest
		ORDER BY alert_id ASC`, limit)
	if err != nil {
		s.logger.Warn("recent alerts query failed", zap.Error(err))
		return []Record{}
	}
	return recs
}

// Stats aggregates the table; failures degrade to zero values.
func (s *PostgresStore) Stats() Stats {
	today := time.Now().Format(dayLayout)

	var st Stats
	err := s.db.Get(&st, `
		SELECT
			COUNT(*)                                                        AS total_alerts,
			COUNT(*) FILTER (WHERE timestamp LIKE $1 || '%')                AS today_alerts,
			COUNT(*) FILTER (WHERE alert_type = 'zone_breach')              AS zone_breaches,
			COUNT(*) FILTER (WHERE alert_type = 'suspicious_action')        AS suspicious_actions,
			COUNT(*) FILTER (WHERE sms_sent)                                AS sms_sent,
			COUNT(*) FILTER (WHERE email_sent)                              AS emails_sent
		FROM alerts`, today)
	if err != nil {
		s.logger.Warn("alert stats query failed", zap.Error(err))
		return Stats{}
	}
	return st
}

// Close releases the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
