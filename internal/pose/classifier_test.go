package pose

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// fullBody builds a keypoint set with both sides of each landmark pair at
// the given heights. X positions are irrelevant to the classifier.
func fullBody(noseY, shoulderY, hipY, ankleY int) Keypoints {
	return Keypoints{
		LandmarkNose:          {X: 100, Y: noseY},
		LandmarkLeftShoulder:  {X: 80, Y: shoulderY},
		LandmarkRightShoulder: {X: 120, Y: shoulderY},
		LandmarkLeftHip:       {X: 85, Y: hipY},
		LandmarkRightHip:      {X: 115, Y: hipY},
		LandmarkLeftAnkle:     {X: 90, Y: ankleY},
		LandmarkRightAnkle:    {X: 110, Y: ankleY},
	}
}

func TestClassifyMissingLandmarks(t *testing.T) {
	required := []int{
		LandmarkNose,
		LandmarkLeftShoulder, LandmarkRightShoulder,
		LandmarkLeftHip, LandmarkRightHip,
		LandmarkLeftAnkle, LandmarkRightAnkle,
	}

	for _, missing := range required {
		kps := fullBody(50, 100, 250, 500)
		delete(kps, missing)

		action, conf := Classify(kps, 720)
		assert.Equal(t, ActionNormal, action, "missing landmark %d", missing)
		assert.Equal(t, 0.0, conf, "missing landmark %d", missing)
	}

	action, conf := Classify(Keypoints{}, 720)
	assert.Equal(t, ActionNormal, action)
	assert.Equal(t, 0.0, conf)
}

func TestClassifyClimbing(t *testing.T) {
	// Body height 400, hip drop threshold 100+0.3*400=220, hip at 250.
	action, conf := Classify(fullBody(50, 100, 250, 500), 720)

	assert.Equal(t, ActionClimbing, action)
	assert.Equal(t, ClimbingConfidence, conf)
}

func TestClassifyFirstMatchWins(t *testing.T) {
	// This set satisfies both the climbing rule (nose above shoulders, hips
	// dropped past the threshold) and the crawling rule (ankles and hips in
	// the floor band of a 480px frame). The cascade must report climbing.
	kps := fullBody(50, 100, 300, 460)

	action, conf := Classify(kps, 480)
	assert.Equal(t, ActionClimbing, action)
	assert.Equal(t, ClimbingConfidence, conf)
}

func TestClassifyFalling(t *testing.T) {
	// Body height 200, flatness threshold 40, separation 10. Nose below the
	// shoulder line keeps the climbing rule out of the way.
	action, conf := Classify(fullBody(320, 300, 310, 500), 720)

	assert.Equal(t, ActionFalling, action)
	assert.Equal(t, FallingConfidence, conf)
}

func TestClassifyCrawling(t *testing.T) {
	// Frame height 480: ankle floor line 384, hip floor line 288.
	action, conf := Classify(fullBody(320, 300, 400, 460), 480)

	assert.Equal(t, ActionCrawling, action)
	assert.Equal(t, CrawlingConfidence, conf)
}

func TestClassifyUprightNormal(t *testing.T) {
	action, conf := Classify(fullBody(80, 100, 200, 500), 720)

	assert.Equal(t, ActionNormal, action)
	assert.Equal(t, 0.0, conf)
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "normal", ActionNormal.String())
	assert.Equal(t, "climbing", ActionClimbing.String())
	assert.Equal(t, "falling", ActionFalling.String())
	assert.Equal(t, "fighting", ActionFighting.String())
	assert.Equal(t, "crawling", ActionCrawling.String())
}
