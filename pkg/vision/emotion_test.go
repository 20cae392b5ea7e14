package vision_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FocusGolang/internal/entity"
	"FocusGolang/pkg/landmark"
	"FocusGolang/pkg/vision"
)

func classify(t *testing.T, opts landmark.SyntheticOpts) vision.EmotionResult {
	t.Helper()
	face := landmark.SyntheticFace(opts)

	features := entity.FocusFeatures{}
	if blink := vision.EstimateBlink(face, vision.DefaultBlinkConfig()); blink != nil {
		features.EyeOpenness = &blink.Openness
	}

	return vision.ClassifyEmotion(face, features, vision.DefaultEmotionConfig())
}

func TestClassifyEmotionNeutralFace(t *testing.T) {
	result := classify(t, landmark.SyntheticOpts{})

	assert.Equal(t, entity.EmotionNeutral, result.Label)
	assert.False(t, result.LowConfidence)
	assert.InDelta(t, 1.0, result.Confidence, 1e-9)
}

func TestClassifyEmotionHappyFace(t *testing.T) {
	result := classify(t, landmark.SyntheticOpts{Smile: 1})

	assert.Equal(t, entity.EmotionHappy, result.Label)
	assert.False(t, result.LowConfidence)
	assert.Greater(t, result.Confidence, 0.6)
}

func TestClassifyEmotionStressedFace(t *testing.T) {
	result := classify(t, landmark.SyntheticOpts{BrowLower: 1})

	assert.Equal(t, entity.EmotionStressed, result.Label)
	assert.Greater(t, result.Confidence, 0.6)
}

func TestClassifyEmotionFatiguedFace(t *testing.T) {
	result := classify(t, landmark.SyntheticOpts{EyeOpenness: 0.1})

	assert.Equal(t, entity.EmotionFatigued, result.Label)
	assert.Greater(t, result.Confidence, 0.6)
}

func TestClassifyEmotionProbabilitiesSumToOne(t *testing.T) {
	result := classify(t, landmark.SyntheticOpts{Smile: 0.5, BrowLower: 0.3})

	require.Len(t, result.Probabilities, len(entity.EmotionVocabulary))
	var sum float64
	for _, label := range entity.EmotionVocabulary {
		p, ok := result.Probabilities[label]
		require.True(t, ok, "missing probability for %s", label)
		assert.GreaterOrEqual(t, p, 0.0)
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestClassifyEmotionNoFace(t *testing.T) {
	result := vision.ClassifyEmotion(landmark.NoFace(), entity.FocusFeatures{}, vision.DefaultEmotionConfig())

	assert.Equal(t, entity.EmotionNeutral, result.Label)
	assert.True(t, result.LowConfidence)
	assert.Equal(t, 0.0, result.Confidence)
	for _, label := range entity.EmotionVocabulary {
		assert.InDelta(t, 0.25, result.Probabilities[label], 1e-9)
	}
}
