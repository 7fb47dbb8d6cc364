// Package evidence persists alert snapshot images. The primary copy lives
// on local disk; a MinIO bucket can be configured as an off-box mirror.
package evidence

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// filenameLayout gives second-level granularity. Two alerts for the same
// camera and type within one second share a name; last write wins.
const filenameLayout = "20060102_150405"

// Item describes one stored evidence image for the dashboard listing.
type Item struct {
	Path      string `json:"path"`
	Filename  string `json:"filename"`
	Camera    string `json:"camera"`
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
}

// Store writes evidence JPEGs to a directory and optionally mirrors them to
// object storage.
type Store struct {
	dir    string
	logger *zap.Logger

	mc     *minio.Client
	bucket string
}

// NewStore creates the evidence directory if needed.
func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create evidence directory: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// WithMinio attaches an object-storage mirror. Mirror failures never affect
// the disk write.
func (s *Store) WithMinio(endpoint, accessKey, secretKey, bucket string, secure bool) error {
	mc, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return fmt.Errorf("create minio client: %w", err)
	}
	s.mc = mc
	s.bucket = bucket
	return nil
}

// Save persists a JPEG snapshot and returns its path. Save never reports an
// error to the caller: any I/O failure is logged and the returned path is
// empty, so the alert proceeds with a degraded record.
func (s *Store) Save(ctx context.Context, image []byte, camera, alertType string, ts time.Time) string {
	if len(image) == 0 {
		return ""
	}

	name := fmt.Sprintf("%s_%s_%s.jpg", camera, alertType, ts.Format(filenameLayout))
	path := filepath.Join(s.dir, name)

	if err := os.WriteFile(path, image, 0o644); err != nil {
		s.logger.Error("evidence write failed",
			zap.String("camera", camera),
			zap.String("path", path),
			zap.Error(err),
		)
		return ""
	}

	if s.mc != nil {
		if _, err := s.mc.PutObject(ctx, s.bucket, name, bytes.NewReader(image),
			int64(len(image)), minio.PutObjectOptions{ContentType: "image/jpeg"}); err != nil {
			s.logger.Warn("evidence mirror upload failed",
				zap.String("object", name),
				zap.Error(err),
			)
		}
	}

	return path
}

// Recent lists up to limit stored images, newest first by modification
// time. Listing failures degrade to an empty slice.
func (s *Store) Recent(limit int) []Item {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Warn("evidence listing failed", zap.Error(err))
		return []Item{}
	}

	type fileWithTime struct {
		name  string
		mtime time.Time
	}
	files := make([]fileWithTime, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jpg") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, fileWithTime{name: e.Name(), mtime: info.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].mtime.After(files[j].mtime) })

	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}

	return lo.Map(files, func(f fileWithTime, _ int) Item {
		item := parseFilename(f.name)
		item.Path = filepath.Join(s.dir, f.name)
		return item
	})
}

// Open returns a stored image path if the filename is one of ours, guarding
// the dashboard's file-serving route against traversal.
func (s *Store) Open(filename string) (string, bool) {
	if filename != filepath.Base(filename) || !strings.HasSuffix(filename, ".jpg") {
		return "", false
	}
	path := filepath.Join(s.dir, filename)
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

// parseFilename splits "<camera>_<alertType>_<YYYYMMDD_HHMMSS>.jpg" back
// into its parts. Camera names may themselves contain underscores or
// spaces, so the alert type is located by its known values.
func parseFilename(name string) Item {
	item := Item{Filename: name}
	base := strings.TrimSuffix(name, ".jpg")

	for _, alertType := range []string{"zone_breach", "suspicious_action"} {
		sep := "_" + alertType + "_"
		if idx := strings.LastIndex(base, sep); idx >= 0 {
			item.Camera = base[:idx]
			item.Type = alertType
			item.Timestamp = base[idx+len(sep):]
			return item
		}
	}

	item.Camera = "Unknown"
	item.Type = "unknown"
	return item
}
