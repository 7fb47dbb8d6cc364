package camera

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/dstps/dstps/internal/alert"
	"github.com/dstps/dstps/internal/detect"
	"github.com/dstps/dstps/internal/pose"
	"github.com/dstps/dstps/internal/zone"
)

var (
	colorBreach     = color.RGBA{R: 255}
	colorSuspicious = color.RGBA{R: 255, G: 165}
	colorNormal     = color.RGBA{G: 255}
)

// drawZones outlines every restricted zone in red.
func drawZones(frame *gocv.Mat, zones []zone.Zone) {
	for _, z := range zones {
		gocv.Rectangle(frame, image.Rect(z.X1, z.Y1, z.X2, z.Y2), colorBreach, 2)
	}
}

// drawDetection renders the bounding box, center marker, and status label
// for one detection. Box color tracks severity: red for a breach, orange
// for a suspicious action, green otherwise.
func drawDetection(frame *gocv.Mat, det detect.Detection) {
	c := colorNormal
	switch {
	case det.Breach:
		c = colorBreach
	case det.Action != pose.ActionNormal:
		c = colorSuspicious
	}

	gocv.Rectangle(frame, image.Rect(det.XMin, det.YMin, det.XMax, det.YMax), c, 2)
	gocv.Circle(frame, image.Pt(det.CenterX, det.CenterY), 4, c, -1)

	label := alert.RenderState(det)
	gocv.PutText(frame, label,
		image.Pt(det.XMin, det.YMin-8),
		gocv.FontHersheySimplex, 0.6, c, 2)
}
