package alert

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dstps/dstps/internal/config"
	"github.com/dstps/dstps/internal/detect"
	"github.com/dstps/dstps/internal/metrics"
)

const defaultQueueSize = 8

// Job is one detection handed off from a camera loop to its worker.
type Job struct {
	Detection detect.Detection
	Camera    config.Camera
	Frame     []byte
	Now       time.Time
}

// Worker serializes dispatch for one camera. The frame loop enqueues jobs
// without blocking; evaluation order within the camera is the enqueue
// order, which keeps the cooldown tracker consistent.
type Worker struct {
	dispatcher *Dispatcher
	camera     string
	jobs       chan Job
	logger     *zap.Logger
	wg         sync.WaitGroup
}

// NewWorker builds a worker for one camera. queueSize <= 0 selects the
// default.
func NewWorker(d *Dispatcher, camera string, queueSize int, logger *zap.Logger) *Worker {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Worker{
		dispatcher: d,
		camera:     camera,
		jobs:       make(chan Job, queueSize),
		logger:     logger,
	}
}

// Start launches the worker goroutine. It drains until ctx is cancelled;
// a job already picked up runs to completion so a fired alert is never
// left half-dispatched.
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case job := <-w.jobs:
				w.dispatcher.Evaluate(ctx, job.Detection, job.Camera, job.Frame, job.Now)
			}
		}
	}()
}

// Enqueue hands a job to the worker without blocking the frame loop. A
// full queue drops the job; the next anomalous frame re-triggers, and
// cooldown would have suppressed most of the backlog anyway.
func (w *Worker) Enqueue(job Job) bool {
	select {
	case w.jobs <- job:
		return true
	default:
		metrics.DispatchQueueDrops.WithLabelValues(w.camera).Inc()
		w.logger.Warn("dispatch queue full, dropping job", zap.String("camera", w.camera))
		return false
	}
}

// Wait blocks until the worker goroutine has exited.
func (w *Worker) Wait() {
	w.wg.Wait()
}
