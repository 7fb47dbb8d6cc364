package detect

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dstps/dstps/internal/pose"
)

func TestBuildDetectionBBoxAndCenter(t *testing.T) {
	kps := pose.Keypoints{
		pose.LandmarkNose:      {X: 100, Y: 50},
		pose.LandmarkLeftAnkle: {X: 140, Y: 450},
	}

	det := BuildDetection(kps, 640, 480, false)

	assert.Equal(t, 80, det.XMin, "padding applied")
	assert.Equal(t, 30, det.YMin)
	assert.Equal(t, 160, det.XMax)
	assert.Equal(t, 470, det.YMax)
	assert.Equal(t, 120, det.CenterX)
	assert.Equal(t, 250, det.CenterY)
	assert.Equal(t, PersonConfidence, det.Confidence)
	assert.Equal(t, pose.ActionNormal, det.Action)
}

func TestBuildDetectionClampsToFrame(t *testing.T) {
	kps := pose.Keypoints{
		pose.LandmarkNose:      {X: 5, Y: 5},
		pose.LandmarkLeftAnkle: {X: 635, Y: 478},
	}

	det := BuildDetection(kps, 640, 480, false)
	assert.Equal(t, 0, det.XMin)
	assert.Equal(t, 0, det.YMin)
	assert.Equal(t, 640, det.XMax)
	assert.Equal(t, 480, det.YMax)
}

func TestBuildDetectionClassifies(t *testing.T) {
	// Climbing pose: nose above shoulders, hips dropped well below.
	kps := pose.Keypoints{
		pose.LandmarkNose:          {X: 100, Y: 50},
		pose.LandmarkLeftShoulder:  {X: 80, Y: 100},
		pose.LandmarkRightShoulder: {X: 120, Y: 100},
		pose.LandmarkLeftHip:       {X: 85, Y: 250},
		pose.LandmarkRightHip:      {X: 115, Y: 250},
		pose.LandmarkLeftAnkle:     {X: 90, Y: 500},
		pose.LandmarkRightAnkle:    {X: 110, Y: 500},
	}

	det := BuildDetection(kps, 640, 720, true)
	assert.Equal(t, pose.ActionClimbing, det.Action)
	assert.Equal(t, pose.ClimbingConfidence, det.ActionConfidence)
	assert.True(t, det.Anomalous())

	// With pose analysis disabled the same keypoints stay Normal.
	det = BuildDetection(kps, 640, 720, false)
	assert.Equal(t, pose.ActionNormal, det.Action)
	assert.False(t, det.Anomalous())
}

func TestBBoxString(t *testing.T) {
	det := Detection{XMin: 100, YMin: 100, XMax: 400, YMax: 400}
	assert.Equal(t, "(100, 100, 400, 400)", det.BBoxString())
}

func TestExtractKeypoints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/pose", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1 << 20))
		_, _, err := r.FormFile("file")
		require.NoError(t, err)

		json.NewEncoder(w).Encode(map[string]any{
			"detected": true,
			"landmarks": []map[string]float64{
				{"x": 0.5, "y": 0.25, "visibility": 0.99},
				{"x": 0.1, "y": 0.9, "visibility": 0.8},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	kps, err := c.ExtractKeypoints(context.Background(), []byte("jpeg"), 640, 480)
	require.NoError(t, err)
	require.Len(t, kps, 2)
	assert.Equal(t, pose.Point{X: 320, Y: 120}, kps[0])
	assert.Equal(t, pose.Point{X: 64, Y: 432}, kps[1])
}

func TestExtractKeypointsNoPerson(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"detected": false})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	kps, err := c.ExtractKeypoints(context.Background(), []byte("jpeg"), 640, 480)
	require.NoError(t, err)
	assert.Nil(t, kps)
}

func TestExtractKeypointsServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model crashed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	_, err := c.ExtractKeypoints(context.Background(), []byte("jpeg"), 640, 480)
	assert.Error(t, err)
}
