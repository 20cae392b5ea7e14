package vision

import (
	"math"

	"FocusGolang/internal/entity"
)

// Index ranges into the 68-point landmark layout.
const (
	JawRight      = 0
	JawChin       = 8
	JawLeft       = 16
	BrowRightOut  = 17
	BrowRightIn   = 21
	BrowLeftIn    = 22
	BrowLeftOut   = 26
	NoseBridgeTop = 27
	NoseTip       = 33
	EyeRightStart = 36
	EyeRightEnd   = 41
	EyeLeftStart  = 42
	EyeLeftEnd    = 47
	MouthRight    = 48
	MouthTopMid   = 51
	MouthLeft     = 54
	MouthBotMid   = 57
)

func dist(a, b entity.LandmarkPoint) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func centroid(points []entity.LandmarkPoint, start, end int) entity.LandmarkPoint {
	var x, y float64
	n := float64(end - start + 1)
	for i := start; i <= end; i++ {
		x += points[i].X
		y += points[i].Y
	}
	return entity.LandmarkPoint{X: x / n, Y: y / n}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func hasFullSet(ls *entity.LandmarkSet) bool {
	return ls != nil && ls.FaceFound && len(ls.Points) == entity.LandmarkCount
}
