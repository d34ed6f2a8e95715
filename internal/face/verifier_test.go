package face

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/campushq/attendance-api/pkg/errors"
)

type stubEncoder struct {
	detection *Detection
	err       error
	lastSize  image.Point
	calls     int
}

func (s *stubEncoder) DetectAndEncode(ctx context.Context, img image.Image) (*Detection, error) {
	s.calls++
	s.lastSize = img.Bounds().Size()
	if s.err != nil {
		return nil, s.err
	}
	return s.detection, nil
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y += 16 {
		for x := 0; x < w; x += 16 {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func singleFace(signature []float64) *Detection {
	return &Detection{Faces: 1, Signature: signature}
}

func TestVerifyInvalidImage(t *testing.T) {
	v := NewVerifier(&stubEncoder{}, 0.6, 1024)

	_, err := v.Verify(context.Background(), []byte("not an image"), []float64{0})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInvalidImage.Code, appErr.Code)
}

func TestVerifyNoFace(t *testing.T) {
	v := NewVerifier(&stubEncoder{detection: &Detection{Faces: 0}}, 0.6, 1024)

	_, err := v.Verify(context.Background(), jpegBytes(t, 64, 64), []float64{0})
	assert.ErrorIs(t, err, appErrors.ErrNoFaceDetected)
}

func TestVerifyMultipleFaces(t *testing.T) {
	v := NewVerifier(&stubEncoder{detection: &Detection{Faces: 2}}, 0.6, 1024)

	_, err := v.Verify(context.Background(), jpegBytes(t, 64, 64), []float64{0})
	assert.ErrorIs(t, err, appErrors.ErrMultipleFacesDetected)
}

func TestVerifyMatchAtThreshold(t *testing.T) {
	// Signature exactly 0.6 from the template; the threshold is inclusive.
	encoder := &stubEncoder{detection: singleFace([]float64{0.6, 0, 0})}
	v := NewVerifier(encoder, 0.6, 1024)

	result, err := v.Verify(context.Background(), jpegBytes(t, 64, 64), []float64{0, 0, 0})
	require.NoError(t, err)
	assert.True(t, result.Match)
	assert.InDelta(t, 0.6, result.Distance, 1e-9)
}

func TestVerifyMismatchBeyondThreshold(t *testing.T) {
	encoder := &stubEncoder{detection: singleFace([]float64{0.61, 0, 0})}
	v := NewVerifier(encoder, 0.6, 1024)

	result, err := v.Verify(context.Background(), jpegBytes(t, 64, 64), []float64{0, 0, 0})
	require.NoError(t, err, "a completed comparison is not an error")
	assert.False(t, result.Match)
	assert.InDelta(t, 0.61, result.Distance, 1e-9)
}

func TestVerifySignatureLengthMismatch(t *testing.T) {
	encoder := &stubEncoder{detection: singleFace([]float64{0.1, 0.2})}
	v := NewVerifier(encoder, 0.6, 1024)

	_, err := v.Verify(context.Background(), jpegBytes(t, 64, 64), []float64{0, 0, 0})
	require.Error(t, err)
}

func TestVerifyDownscalesLargeImage(t *testing.T) {
	encoder := &stubEncoder{detection: singleFace([]float64{0})}
	v := NewVerifier(encoder, 0.6, 1024)

	_, err := v.Verify(context.Background(), jpegBytes(t, 2048, 1024), []float64{0})
	require.NoError(t, err)
	assert.Equal(t, 1024, encoder.lastSize.X, "longer edge must be capped")
	assert.Equal(t, 512, encoder.lastSize.Y, "aspect ratio must be preserved")
}

func TestVerifyKeepsSmallImage(t *testing.T) {
	encoder := &stubEncoder{detection: singleFace([]float64{0})}
	v := NewVerifier(encoder, 0.6, 1024)

	_, err := v.Verify(context.Background(), jpegBytes(t, 640, 480), []float64{0})
	require.NoError(t, err)
	assert.Equal(t, image.Pt(640, 480), encoder.lastSize)
}

func TestVerifyPortraitDownscale(t *testing.T) {
	encoder := &stubEncoder{detection: singleFace([]float64{0})}
	v := NewVerifier(encoder, 0.6, 1024)

	_, err := v.Verify(context.Background(), jpegBytes(t, 1024, 2048), []float64{0})
	require.NoError(t, err)
	assert.Equal(t, 512, encoder.lastSize.X)
	assert.Equal(t, 1024, encoder.lastSize.Y)
}

func TestExtractSignature(t *testing.T) {
	encoder := &stubEncoder{detection: singleFace([]float64{0.1, 0.2, 0.3})}
	v := NewVerifier(encoder, 0.6, 1024)

	signature, err := v.Extract(context.Background(), jpegBytes(t, 64, 64))
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, signature)
}

func TestExtractRejectsMultipleFaces(t *testing.T) {
	v := NewVerifier(&stubEncoder{detection: &Detection{Faces: 3}}, 0.6, 1024)

	_, err := v.Extract(context.Background(), jpegBytes(t, 64, 64))
	assert.ErrorIs(t, err, appErrors.ErrMultipleFacesDetected)
}
