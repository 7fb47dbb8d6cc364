package pose

// Classification thresholds and per-rule confidences. The confidences are
// fixed constants, not derived from landmark quality; downstream consumers
// depend on these exact values.
const (
	// ClimbingHipDropRatio: hips must sit below the shoulders by more than
	// this fraction of body height while the nose is above the shoulders.
	ClimbingHipDropRatio = 0.3
	// FallingFlatnessRatio: shoulder/hip vertical separation under this
	// fraction of body height reads as a horizontal body.
	FallingFlatnessRatio = 0.2
	// CrawlingAnkleFloorRatio and CrawlingHipFloorRatio place the ankles and
	// hips in the lower portion of the frame.
	CrawlingAnkleFloorRatio = 0.8
	CrawlingHipFloorRatio   = 0.6

	ClimbingConfidence = 0.8
	FallingConfidence  = 0.7
	CrawlingConfidence = 0.6
)

// requiredLandmarks are the landmarks the classifier cannot work without.
var requiredLandmarks = []int{
	LandmarkNose,
	LandmarkLeftShoulder,
	LandmarkRightShoulder,
	LandmarkLeftHip,
	LandmarkRightHip,
	LandmarkLeftAnkle,
	LandmarkRightAnkle,
}

// Classify evaluates one frame's keypoints against the suspicious-action
// rules and returns the first matching action with its confidence.
//
// The rules are an ordered cascade: climbing, then falling, then crawling.
// If any required landmark is missing the result is (ActionNormal, 0),
// which means "insufficient data", not "confirmed normal".
func Classify(kps Keypoints, frameHeight int) (Action, float64) {
	for _, idx := range requiredLandmarks {
		if _, ok := kps[idx]; !ok {
			return ActionNormal, 0
		}
	}

	nose := kps[LandmarkNose]
	shoulderY := avgY(kps[LandmarkLeftShoulder], kps[LandmarkRightShoulder])
	hipY := avgY(kps[LandmarkLeftHip], kps[LandmarkRightHip])
	ankleY := avgY(kps[LandmarkLeftAnkle], kps[LandmarkRightAnkle])

	// Expected positive for an upright person.
	bodyHeight := ankleY - shoulderY

	// Climbing: head above the shoulder line with the hips dropped well
	// below it (crouched, pulling up).
	if float64(nose.Y) < shoulderY && hipY > shoulderY+bodyHeight*ClimbingHipDropRatio {
		return ActionClimbing, ClimbingConfidence
	}

	// Falling: shoulders and hips at nearly the same height.
	if abs(hipY-shoulderY) < bodyHeight*FallingFlatnessRatio {
		return ActionFalling, FallingConfidence
	}

	// Crawling: whole lower body near the bottom of the frame.
	if ankleY > float64(frameHeight)*CrawlingAnkleFloorRatio &&
		hipY > float64(frameHeight)*CrawlingHipFloorRatio {
		return ActionCrawling, CrawlingConfidence
	}

	return ActionNormal, 0
}

func avgY(a, b Point) float64 {
	return float64(a.Y+b.Y) / 2
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
