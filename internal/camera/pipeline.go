// Package camera runs one capture-and-analyze loop per configured camera.
package camera

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/dstps/dstps/internal/alert"
	"github.com/dstps/dstps/internal/config"
	"github.com/dstps/dstps/internal/detect"
	"github.com/dstps/dstps/internal/metrics"
	"github.com/dstps/dstps/internal/zone"
)

// Pipeline owns the frame loop for a single camera. Heavy work (pose
// extraction) runs inline at the skip cadence; alert dispatch is handed
// off to the camera's worker so a slow notification never stalls capture.
type Pipeline struct {
	cam    config.Camera
	det    config.Detection
	client *detect.Client
	worker *alert.Worker
	logger *zap.Logger
}

func NewPipeline(cam config.Camera, det config.Detection, client *detect.Client, worker *alert.Worker, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		cam:    cam,
		det:    det,
		client: client,
		worker: worker,
		logger: logger.With(zap.String("camera", cam.Name)),
	}
}

// Run captures frames until ctx is cancelled or the stream fails. A read
// failure ends only this camera; the caller decides whether to restart.
func (p *Pipeline) Run(ctx context.Context) error {
	capture, err := gocv.OpenVideoCapture(p.cam.StreamURL)
	if err != nil {
		return fmt.Errorf("opening stream %q for camera %s: %w", p.cam.StreamURL, p.cam.Name, err)
	}
	defer capture.Close()

	frame := gocv.NewMat()
	defer frame.Close()

	var window *gocv.Window
	if p.det.Display {
		window = gocv.NewWindow("DSTPS - " + p.cam.Name)
		defer window.Close()
	}

	p.logger.Info("camera pipeline started", zap.String("stream_url", p.cam.StreamURL))

	frameSkip := p.det.FrameSkip
	if frameSkip < 1 {
		frameSkip = 1
	}

	frameCount := 0
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if ok := capture.Read(&frame); !ok {
			return fmt.Errorf("stream read failed for camera %s", p.cam.Name)
		}
		if frame.Empty() {
			continue
		}

		frameCount++
		metrics.FramesProcessed.WithLabelValues(p.cam.Name).Inc()

		// Analysis runs every Nth frame; skipped frames still display.
		if frameCount%frameSkip == 0 {
			if err := p.analyze(ctx, &frame); err != nil {
				p.logger.Warn("frame analysis failed", zap.Error(err))
			}
		}

		if window != nil {
			window.IMShow(frame)
			if window.WaitKey(1) == 'q' {
				return nil
			}
		}
	}
}

// analyze extracts pose keypoints for the current frame, renders overlays
// onto it in place, and enqueues a dispatch job when the detection is
// anomalous.
func (p *Pipeline) analyze(ctx context.Context, frame *gocv.Mat) error {
	drawZones(frame, p.cam.RestrictedZones)

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return fmt.Errorf("encoding frame: %w", err)
	}
	jpeg := make([]byte, len(buf.GetBytes()))
	copy(jpeg, buf.GetBytes())
	buf.Close()

	kps, err := p.client.ExtractKeypoints(ctx, jpeg, frame.Cols(), frame.Rows())
	if err != nil {
		return fmt.Errorf("pose extraction: %w", err)
	}
	if kps == nil {
		return nil
	}
	metrics.Detections.WithLabelValues(p.cam.Name).Inc()

	det := detect.BuildDetection(kps, frame.Cols(), frame.Rows(), p.det.PoseAnalysisEnabled)
	det.Breach = zone.Breached(det.CenterX, det.CenterY, p.cam.RestrictedZones)

	drawDetection(frame, det)

	if det.Anomalous() {
		p.worker.Enqueue(alert.Job{
			Detection: det,
			Camera:    p.cam,
			Frame:     jpeg,
			Now:       time.Now(),
		})
	}
	return nil
}
