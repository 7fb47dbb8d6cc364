// Package detect turns frames into per-person detections: it calls the
// external pose-inference service for landmarks and derives the bounding
// box, center point, and classified action the dispatcher consumes.
package detect

import (
	"fmt"

	"github.com/dstps/dstps/internal/pose"
)

// PersonConfidence is the fixed detection confidence assigned to a person
// found by the pose model. The model itself does not report one.
const PersonConfidence = 0.8

// bboxPadding widens the landmark extent so the box covers the whole body.
const bboxPadding = 20

// Detection is one detected person in one frame. Constructed from that
// frame's keypoints, consumed synchronously, then discarded.
type Detection struct {
	XMin, YMin, XMax, YMax int
	CenterX, CenterY       int
	Confidence             float64

	Action           pose.Action
	ActionConfidence float64

	// Breach is set by the zone check after construction.
	Breach bool

	Keypoints pose.Keypoints
}

// Anomalous reports whether this detection should enter the alerting path.
func (d Detection) Anomalous() bool {
	return d.Breach || d.Action != pose.ActionNormal
}

// BBoxString renders the bounding box the way alert records store zone
// coordinates.
func (d Detection) BBoxString() string {
	return fmt.Sprintf("(%d, %d, %d, %d)", d.XMin, d.YMin, d.XMax, d.YMax)
}

// BuildDetection derives a Detection from one frame's keypoints. The box is
// the landmark extent plus padding, clamped to the frame; classification is
// skipped (action stays Normal/0) when poseAnalysis is off.
func BuildDetection(kps pose.Keypoints, frameWidth, frameHeight int, poseAnalysis bool) Detection {
	xMin, yMin := frameWidth, frameHeight
	xMax, yMax := 0, 0
	for _, p := range kps {
		if p.X < xMin {
			xMin = p.X
		}
		if p.X > xMax {
			xMax = p.X
		}
		if p.Y < yMin {
			yMin = p.Y
		}
		if p.Y > yMax {
			yMax = p.Y
		}
	}

	xMin = clamp(xMin-bboxPadding, 0, frameWidth)
	yMin = clamp(yMin-bboxPadding, 0, frameHeight)
	xMax = clamp(xMax+bboxPadding, 0, frameWidth)
	yMax = clamp(yMax+bboxPadding, 0, frameHeight)

	det := Detection{
		XMin: xMin, YMin: yMin, XMax: xMax, YMax: yMax,
		CenterX:    (xMin + xMax) / 2,
		CenterY:    (yMin + yMax) / 2,
		Confidence: PersonConfidence,
		Action:     pose.ActionNormal,
		Keypoints:  kps,
	}

	if poseAnalysis {
		det.Action, det.ActionConfidence = pose.Classify(kps, frameHeight)
	}
	return det
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
