// Package pose holds the per-frame body keypoint model and the geometric
// suspicious-action classifier that runs on top of it.
package pose

// Landmark indices follow the MediaPipe Pose numbering, which is what the
// inference service emits. Only a subset is needed by the classifier.
const (
	LandmarkNose          = 0
	LandmarkLeftShoulder  = 11
	LandmarkRightShoulder = 12
	LandmarkLeftHip       = 23
	LandmarkRightHip      = 24
	LandmarkLeftAnkle     = 27
	LandmarkRightAnkle    = 28

	// NumLandmarks is the size of a full landmark set.
	NumLandmarks = 33
)

// Point is a pixel coordinate within the current frame, y increasing downward.
type Point struct {
	X int
	Y int
}

// Keypoints maps landmark index to its pixel position for a single frame.
// A partial map (model lost some landmarks) is valid input everywhere.
type Keypoints map[int]Point

// Action is a suspicious-action category produced by the classifier.
type Action int

const (
	ActionNormal Action = iota
	ActionClimbing
	ActionFalling
	// ActionFighting is part of the category set but no classifier rule
	// currently produces it. Kept so stored records and future rules can
	// use it without a format change.
	ActionFighting
	ActionCrawling
)

// String returns the wire/storage form used in alert records.
func (a Action) String() string {
	switch a {
	case ActionClimbing:
		return "climbing"
	case ActionFalling:
		return "falling"
	case ActionFighting:
		return "fighting"
	case ActionCrawling:
		return "crawling"
	default:
		return "normal"
	}
}
