package face

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"time"

	"github.com/disintegration/imaging"
)

// Detection is the recogniser output for one image: how many faces were
// found and, when exactly one was, its fixed-length signature vector.
type Detection struct {
	Faces     int
	Signature []float64
}

// Encoder detects faces in a normalized image and extracts a signature
// vector. Implementations wrap a concrete recognition model; the verifier
// owns the single-face and distance policy, so the model stays swappable.
type Encoder interface {
	DetectAndEncode(ctx context.Context, img image.Image) (*Detection, error)
}

// HTTPEncoder calls an external face recognition service.
type HTTPEncoder struct {
	baseURL string
	client  *http.Client
}

// NewHTTPEncoder creates an encoder client with a configurable timeout.
func NewHTTPEncoder(baseURL string, timeout time.Duration) *HTTPEncoder {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPEncoder{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// DetectAndEncode posts the image to the recognition service and decodes the
// detection result.
func (e *HTTPEncoder) DetectAndEncode(ctx context.Context, img image.Image) (*Detection, error) {
	buf := &bytes.Buffer{}
	if err := imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, fmt.Errorf("encode image for recognition service: %w", err)
	}

	payload, _ := json.Marshal(map[string]string{
		"image": base64.StdEncoding.EncodeToString(buf.Bytes()),
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/detect", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("face service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("face service error %s: %s", resp.Status, string(body))
	}

	var out struct {
		FacesDetected int       `json:"faces_detected"`
		Signature     []float64 `json:"signature"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode face service response: %w", err)
	}

	return &Detection{Faces: out.FacesDetected, Signature: out.Signature}, nil
}
