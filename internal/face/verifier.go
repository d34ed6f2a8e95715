package face

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/floats"

	appErrors "github.com/campushq/attendance-api/pkg/errors"
)

// Result is the outcome of a completed comparison. Distance is always the
// Euclidean distance between the extracted signature and the stored
// template; Match reports whether it fell within the threshold.
type Result struct {
	Match    bool
	Distance float64
}

// Verifier runs the image pipeline: decode, normalize, detect exactly one
// face, extract its signature, and compare against a stored template.
type Verifier struct {
	encoder   Encoder
	threshold float64
	maxEdge   int
}

// NewVerifier constructs a verifier. Threshold and maxEdge fall back to the
// reference defaults (0.6, 1024 px) when unset.
func NewVerifier(encoder Encoder, threshold float64, maxEdge int) *Verifier {
	if threshold <= 0 {
		threshold = 0.6
	}
	if maxEdge <= 0 {
		maxEdge = 1024
	}
	return &Verifier{encoder: encoder, threshold: threshold, maxEdge: maxEdge}
}

// Verify decodes and normalizes the raw image, enforces the single-face
// policy, and compares the extracted signature against the template.
// Pipeline rejections (undecodable image, zero or multiple faces) come back
// as typed errors; a completed comparison returns a Result whether or not it
// matched, with the distance available for diagnostics.
func (v *Verifier) Verify(ctx context.Context, imageBytes []byte, template []float64) (*Result, error) {
	src, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidImage.Code, appErrors.ErrInvalidImage.Status, appErrors.ErrInvalidImage.Message)
	}

	normalized := v.normalize(src)

	detection, err := v.encoder.DetectAndEncode(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("detect and encode: %w", err)
	}
	if detection.Faces == 0 {
		return nil, appErrors.ErrNoFaceDetected
	}
	if detection.Faces > 1 {
		return nil, appErrors.ErrMultipleFacesDetected
	}
	if len(detection.Signature) == 0 {
		return nil, fmt.Errorf("recognizer returned one face but no signature")
	}
	if len(detection.Signature) != len(template) {
		return nil, fmt.Errorf("signature length %d does not match template length %d", len(detection.Signature), len(template))
	}

	distance := floats.Distance(detection.Signature, template, 2)
	return &Result{Match: distance <= v.threshold, Distance: distance}, nil
}

// Extract runs the pipeline up to signature extraction without comparing:
// decode, normalize, enforce the single-face policy, and return the
// signature. Used when enrolling a student's reference template.
func (v *Verifier) Extract(ctx context.Context, imageBytes []byte) ([]float64, error) {
	src, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidImage.Code, appErrors.ErrInvalidImage.Status, appErrors.ErrInvalidImage.Message)
	}

	detection, err := v.encoder.DetectAndEncode(ctx, v.normalize(src))
	if err != nil {
		return nil, fmt.Errorf("detect and encode: %w", err)
	}
	if detection.Faces == 0 {
		return nil, appErrors.ErrNoFaceDetected
	}
	if detection.Faces > 1 {
		return nil, appErrors.ErrMultipleFacesDetected
	}
	if len(detection.Signature) == 0 {
		return nil, fmt.Errorf("recognizer returned one face but no signature")
	}
	return detection.Signature, nil
}

// normalize clones the image into a fixed channel order and bounds the
// longer edge so extraction cost stays capped, preserving aspect ratio.
// The Box filter averages source pixels over each destination pixel.
func (v *Verifier) normalize(src image.Image) image.Image {
	img := imaging.Clone(src)

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= v.maxEdge && h <= v.maxEdge {
		return img
	}
	if w >= h {
		return imaging.Resize(img, v.maxEdge, 0, imaging.Box)
	}
	return imaging.Resize(img, 0, v.maxEdge, imaging.Box)
}
