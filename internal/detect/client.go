package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"go.uber.org/zap"

	"github.com/dstps/dstps/internal/pose"
)

// Client talks to the pose-inference service. The service is a black box
// that accepts a JPEG frame and returns normalized landmarks.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *zap.Logger
}

// landmarkResponse is the service's reply. Landmark coordinates are
// normalized to [0,1] of the frame dimensions.
type landmarkResponse struct {
	Detected  bool `json:"detected"`
	Landmarks []struct {
		X          float64 `json:"x"`
		Y          float64 `json:"y"`
		Visibility float64 `json:"visibility"`
	} `json:"landmarks"`
}

// NewClient creates a pose-service client for the given base URL.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		url:        baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// ExtractKeypoints posts one JPEG frame and returns its landmark set in
// pixel coordinates. A nil map with nil error means no person was detected
// in this frame.
func (c *Client) ExtractKeypoints(ctx context.Context, frame []byte, frameWidth, frameHeight int) (pose.Keypoints, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="frame.jpg"`)
	h.Set("Content-Type", "image/jpeg")
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("create form part: %w", err)
	}
	if _, err := part.Write(frame); err != nil {
		return nil, fmt.Errorf("write frame data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close form writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/pose", &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pose request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("pose service status %s: %s", resp.Status, body)
	}

	var lr landmarkResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return nil, fmt.Errorf("decode pose response: %w", err)
	}
	if !lr.Detected || len(lr.Landmarks) == 0 {
		return nil, nil
	}

	kps := make(pose.Keypoints, len(lr.Landmarks))
	for idx, lm := range lr.Landmarks {
		kps[idx] = pose.Point{
			X: int(lm.X * float64(frameWidth)),
			Y: int(lm.Y * float64(frameHeight)),
		}
	}
	return kps, nil
}
