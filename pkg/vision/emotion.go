package vision

import "FocusGolang/internal/entity"

type EmotionConfig struct {
	// ConfidenceFloor below which the result is flagged low-confidence.
	// The best label is still emitted, never withheld.
	ConfidenceFloor float64
}

func DefaultEmotionConfig() EmotionConfig {
	return EmotionConfig{ConfidenceFloor: 0.6}
}

type EmotionResult struct {
	Label         entity.EmotionLabel
	Confidence    float64
	Probabilities map[entity.EmotionLabel]float64
	LowConfidence bool
}

// neutralBias keeps the classifier from over-committing on weak evidence;
// it is the un-normalized score of the neutral class.
const neutralBias = 0.25

// ClassifyEmotion maps landmark geometry and the derived features to one
// label from the fixed vocabulary plus a probability mapping over it.
// Rule-based: mouth-corner lift scores happy, brow compression scores
// stressed, sustained low eye openness scores fatigued, and a constant
// neutral bias anchors the distribution. Scores normalize to
// probabilities; the best label always wins deterministically (vocabulary
// order breaks ties). A frame without a face classifies as neutral with
// zero confidence and a uniform probability map.
func ClassifyEmotion(ls *entity.LandmarkSet, features entity.FocusFeatures, cfg EmotionConfig) EmotionResult {
	if !hasFullSet(ls) {
		uniform := make(map[entity.EmotionLabel]float64, len(entity.EmotionVocabulary))
		for _, label := range entity.EmotionVocabulary {
			uniform[label] = 1.0 / float64(len(entity.EmotionVocabulary))
		}
		return EmotionResult{
			Label:         entity.EmotionNeutral,
			Confidence:    0,
			Probabilities: uniform,
			LowConfidence: true,
		}
	}

	scores := map[entity.EmotionLabel]float64{
		entity.EmotionNeutral:  neutralBias,
		entity.EmotionHappy:    happyScore(ls),
		entity.EmotionStressed: stressScore(ls),
		entity.EmotionFatigued: fatigueScore(features),
	}

	var total float64
	for _, s := range scores {
		total += s
	}

	probs := make(map[entity.EmotionLabel]float64, len(scores))
	best := entity.EmotionNeutral
	bestProb := -1.0
	for _, label := range entity.EmotionVocabulary {
		p := scores[label] / total
		probs[label] = p
		if p > bestProb {
			best = label
			bestProb = p
		}
	}

	return EmotionResult{
		Label:         best,
		Confidence:    bestProb,
		Probabilities: probs,
		LowConfidence: bestProb < cfg.ConfidenceFloor,
	}
}

// happyScore measures mouth-corner lift above the lip midline,
// normalized by mouth width.
func happyScore(ls *entity.LandmarkSet) float64 {
	right := ls.Points[MouthRight]
	left := ls.Points[MouthLeft]
	midY := (ls.Points[MouthTopMid].Y + ls.Points[MouthBotMid].Y) / 2

	width := dist(right, left)
	if width <= 0 {
		return 0
	}
	lift := (midY - (right.Y+left.Y)/2) / width
	return clamp01((lift - 0.06) * 5)
}

// stressScore measures brow compression: inner brows pulled down toward
// the eye midline, normalized by interocular distance.
func stressScore(ls *entity.LandmarkSet) float64 {
	rightEye := centroid(ls.Points, EyeRightStart, EyeRightEnd)
	leftEye := centroid(ls.Points, EyeLeftStart, EyeLeftEnd)
	interocular := dist(rightEye, leftEye)
	if interocular <= 0 {
		return 0
	}

	browInnerY := (ls.Points[BrowRightIn].Y + ls.Points[BrowLeftIn].Y) / 2
	eyeMidY := (rightEye.Y + leftEye.Y) / 2
	gap := (eyeMidY - browInnerY) / interocular

	return clamp01((0.25 - gap) * 8)
}

// fatigueScore rises as eye openness falls below a drowsiness band.
func fatigueScore(features entity.FocusFeatures) float64 {
	if features.EyeOpenness == nil {
		return 0
	}
	return clamp01((0.25 - *features.EyeOpenness) * 8)
}
