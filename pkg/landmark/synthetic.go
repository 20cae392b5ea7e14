package landmark

import "FocusGolang/internal/entity"

// SyntheticOpts parameterizes a generated frontal face in normalized
// image coordinates. Zero values mean neutral; Confidence and EyeOpenness
// default when unset.
type SyntheticOpts struct {
	Confidence  float64 // detection confidence, default 0.92
	EyeOpenness float64 // eye aspect ratio, default 0.3 (open)
	GazeShiftX  float64 // horizontal gaze deviation in interocular units
	GazeShiftY  float64 // vertical gaze deviation in interocular units
	Smile       float64 // 0..1 mouth-corner lift
	BrowLower   float64 // 0..1 inner-brow compression
}

const (
	synEyeY        = 0.40
	synEyeRightX   = 0.35
	synEyeLeftX    = 0.65
	synEyeWidth    = 0.12
	synInterocular = 0.30
)

// SyntheticFace builds a deterministic 68-point landmark set whose
// geometry round-trips through the vision estimators: the gaze shift,
// eye openness, smile and brow parameters come back out as the
// corresponding feature values.
func SyntheticFace(opts SyntheticOpts) *entity.LandmarkSet {
	if opts.Confidence == 0 {
		opts.Confidence = 0.92
	}
	if opts.EyeOpenness == 0 {
		opts.EyeOpenness = 0.3
	}

	points := make([]entity.LandmarkPoint, entity.LandmarkCount)

	// Jaw 0-16: right extreme, chin, left extreme with interpolation.
	jawRight := entity.LandmarkPoint{X: 0.18, Y: 0.45}
	chin := entity.LandmarkPoint{X: 0.5, Y: 0.96}
	jawLeft := entity.LandmarkPoint{X: 0.82, Y: 0.45}
	for i := 0; i <= 8; i++ {
		points[i] = lerp(jawRight, chin, float64(i)/8)
	}
	for i := 9; i <= 16; i++ {
		points[i] = lerp(chin, jawLeft, float64(i-8)/8)
	}

	// Brows 17-26.
	browY := 0.32 + opts.BrowLower*0.05
	for i := 0; i < 5; i++ {
		t := float64(i) / 4
		points[17+i] = entity.LandmarkPoint{X: 0.27 + t*0.16, Y: browY}
		points[22+i] = entity.LandmarkPoint{X: 0.57 + t*0.16, Y: browY}
	}

	// Nose 27-35; the tip carries the gaze shift.
	noseTip := entity.LandmarkPoint{
		X: 0.5 + opts.GazeShiftX*synInterocular,
		Y: 0.61 + opts.GazeShiftY*synInterocular,
	}
	bridge := entity.LandmarkPoint{X: 0.5, Y: 0.42}
	for i := 27; i <= 33; i++ {
		points[i] = lerp(bridge, noseTip, float64(i-27)/6)
	}
	points[31] = entity.LandmarkPoint{X: noseTip.X - 0.04, Y: noseTip.Y + 0.02}
	points[35] = entity.LandmarkPoint{X: noseTip.X + 0.04, Y: noseTip.Y + 0.02}
	points[32] = lerp(points[31], noseTip, 0.5)
	points[34] = lerp(noseTip, points[35], 0.5)
	points[33] = noseTip

	// Eyes 36-47: corner, two upper-lid, corner, two lower-lid points,
	// laid out so the eye aspect ratio equals EyeOpenness exactly.
	fillEye(points, 36, synEyeRightX, synEyeY, opts.EyeOpenness)
	fillEye(points, 42, synEyeLeftX, synEyeY, opts.EyeOpenness)

	// Mouth 48-67.
	cornerY := 0.78 - opts.Smile*0.06
	right := entity.LandmarkPoint{X: 0.40, Y: cornerY}
	left := entity.LandmarkPoint{X: 0.60, Y: cornerY}
	top := entity.LandmarkPoint{X: 0.5, Y: 0.76}
	bottom := entity.LandmarkPoint{X: 0.5, Y: 0.82}
	points[48] = right
	points[54] = left
	points[51] = top
	points[57] = bottom
	for i := 49; i <= 50; i++ {
		points[i] = lerp(right, top, float64(i-48)/3)
	}
	for i := 52; i <= 53; i++ {
		points[i] = lerp(top, left, float64(i-51)/3)
	}
	for i := 55; i <= 56; i++ {
		points[i] = lerp(left, bottom, float64(i-54)/3)
	}
	for i := 58; i <= 59; i++ {
		points[i] = lerp(bottom, right, float64(i-57)/3)
	}
	for i := 60; i <= 67; i++ {
		points[i] = lerp(points[i-12], entity.LandmarkPoint{X: 0.5, Y: 0.79}, 0.3)
	}

	return &entity.LandmarkSet{
		Points:     points,
		Confidence: opts.Confidence,
		FaceFound:  true,
	}
}

// NoFace is the zero-information landmark set for frames without a
// detected face.
func NoFace() *entity.LandmarkSet {
	return &entity.LandmarkSet{FaceFound: false, Confidence: 0}
}

func fillEye(points []entity.LandmarkPoint, start int, cx, cy, openness float64) {
	w := synEyeWidth
	h := openness * w
	points[start] = entity.LandmarkPoint{X: cx - w/2, Y: cy}
	points[start+1] = entity.LandmarkPoint{X: cx - w/6, Y: cy - h/2}
	points[start+2] = entity.LandmarkPoint{X: cx + w/6, Y: cy - h/2}
	points[start+3] = entity.LandmarkPoint{X: cx + w/2, Y: cy}
	points[start+4] = entity.LandmarkPoint{X: cx + w/6, Y: cy + h/2}
	points[start+5] = entity.LandmarkPoint{X: cx - w/6, Y: cy + h/2}
}

func lerp(a, b entity.LandmarkPoint, t float64) entity.LandmarkPoint {
	return entity.LandmarkPoint{
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
	}
}
