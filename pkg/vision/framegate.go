package vision

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"FocusGolang/internal/entity"
)

// ErrMalformedFrame marks a frame that violates the format/size contract
// and is rejected before any expensive processing.
var ErrMalformedFrame = errors.New("malformed frame")

type GateConfig struct {
	MinFrameBytes  int
	MaxFrameBytes  int
	MinFrameDim    int
	LightingFloor  float64
	SharpnessFloor float64
}

func DefaultGateConfig() GateConfig {
	return GateConfig{
		MinFrameBytes:  512,
		MaxFrameBytes:  5 * 1024 * 1024,
		MinFrameDim:    64,
		LightingFloor:  0.15,
		SharpnessFloor: 0.08,
	}
}

// FrameQuality carries the pixel-statistic estimates for one frame.
// Warning is empty when the frame clears both quality floors; a frame
// below a floor is tagged, never rejected.
type FrameQuality struct {
	Lighting  float64
	Sharpness float64
	Quality   float64
	Warning   string
}

// sampleGrid bounds the number of pixels inspected so gating cost stays
// flat regardless of frame resolution.
const sampleGrid = 96

// InspectFrame validates the format/size contract and estimates lighting
// (mean luma) and sharpness (mean absolute horizontal luma gradient) over
// a subsampled grid. Side-effect-free.
func InspectFrame(frame []byte, cfg GateConfig) (FrameQuality, error) {
	if len(frame) < cfg.MinFrameBytes {
		return FrameQuality{}, fmt.Errorf("%w: %d bytes below minimum %d", ErrMalformedFrame, len(frame), cfg.MinFrameBytes)
	}
	if len(frame) > cfg.MaxFrameBytes {
		return FrameQuality{}, fmt.Errorf("%w: %d bytes above maximum %d", ErrMalformedFrame, len(frame), cfg.MaxFrameBytes)
	}

	img, format, err := image.Decode(bytes.NewReader(frame))
	if err != nil {
		return FrameQuality{}, fmt.Errorf("%w: undecodable image: %v", ErrMalformedFrame, err)
	}
	if format != "jpeg" && format != "png" {
		return FrameQuality{}, fmt.Errorf("%w: unsupported format %q", ErrMalformedFrame, format)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < cfg.MinFrameDim || height < cfg.MinFrameDim {
		return FrameQuality{}, fmt.Errorf("%w: %dx%d below minimum dimension %d", ErrMalformedFrame, width, height, cfg.MinFrameDim)
	}

	stepX := width / sampleGrid
	if stepX < 1 {
		stepX = 1
	}
	stepY := height / sampleGrid
	if stepY < 1 {
		stepY = 1
	}

	var lumaSum, gradSum float64
	var lumaCount, gradCount int
	for y := bounds.Min.Y; y < bounds.Max.Y; y += stepY {
		var prev float64
		first := true
		for x := bounds.Min.X; x < bounds.Max.X; x += stepX {
			r, g, b, _ := img.At(x, y).RGBA()
			// Rec. 601 luma on 16-bit channel values.
			luma := (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 65535.0
			lumaSum += luma
			lumaCount++
			if !first {
				gradSum += absf(luma - prev)
				gradCount++
			}
			prev = luma
			first = false
		}
	}

	q := FrameQuality{
		Lighting: lumaSum / float64(lumaCount),
	}
	if gradCount > 0 {
		q.Sharpness = gradSum / float64(gradCount)
	}

	var warnings []string
	if q.Lighting < cfg.LightingFloor {
		warnings = append(warnings, entity.QualityWarningLowLight)
	}
	if q.Sharpness < cfg.SharpnessFloor {
		warnings = append(warnings, entity.QualityWarningLowSharpness)
	}
	q.Warning = strings.Join(warnings, ";")

	q.Quality = (clamp01(q.Lighting/cfg.LightingFloor) + clamp01(q.Sharpness/cfg.SharpnessFloor)) / 2

	return q, nil
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
