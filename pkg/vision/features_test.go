package vision_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FocusGolang/pkg/landmark"
	"FocusGolang/pkg/vision"
)

func TestEstimateGazeNeutral(t *testing.T) {
	face := landmark.SyntheticFace(landmark.SyntheticOpts{})

	gaze := vision.EstimateGaze(face, vision.DefaultGazeConfig())
	require.NotNil(t, gaze)

	assert.InDelta(t, 0, gaze.Horizontal, 1e-9)
	assert.InDelta(t, 0, gaze.Vertical, 1e-9)
	assert.InDelta(t, 0, gaze.Deviation(), 1e-9)
}

func TestEstimateGazeRoundTripsShift(t *testing.T) {
	face := landmark.SyntheticFace(landmark.SyntheticOpts{GazeShiftX: 0.2, GazeShiftY: -0.1})

	gaze := vision.EstimateGaze(face, vision.DefaultGazeConfig())
	require.NotNil(t, gaze)

	assert.InDelta(t, 0.2, gaze.Horizontal, 1e-9)
	assert.InDelta(t, -0.1, gaze.Vertical, 1e-9)
	assert.Greater(t, gaze.Deviation(), 0.2)
}

func TestEstimateGazeNoFace(t *testing.T) {
	assert.Nil(t, vision.EstimateGaze(landmark.NoFace(), vision.DefaultGazeConfig()))
	assert.Nil(t, vision.EstimateGaze(nil, vision.DefaultGazeConfig()))
}

func TestEstimateBlinkRoundTripsOpenness(t *testing.T) {
	open := landmark.SyntheticFace(landmark.SyntheticOpts{EyeOpenness: 0.3})
	closed := landmark.SyntheticFace(landmark.SyntheticOpts{EyeOpenness: 0.1})

	cfg := vision.DefaultBlinkConfig()

	openEst := vision.EstimateBlink(open, cfg)
	require.NotNil(t, openEst)
	assert.InDelta(t, 0.3, openEst.Openness, 1e-9)
	assert.False(t, openEst.Closed)

	closedEst := vision.EstimateBlink(closed, cfg)
	require.NotNil(t, closedEst)
	assert.InDelta(t, 0.1, closedEst.Openness, 1e-9)
	assert.True(t, closedEst.Closed)
}

func TestEstimateBlinkNoFace(t *testing.T) {
	assert.Nil(t, vision.EstimateBlink(landmark.NoFace(), vision.DefaultBlinkConfig()))
}

func TestEstimateHeadPoseNeutral(t *testing.T) {
	face := landmark.SyntheticFace(landmark.SyntheticOpts{})

	pose := vision.EstimateHeadPose(face, vision.DefaultHeadPoseConfig())
	require.NotNil(t, pose)

	assert.InDelta(t, 0, pose.Yaw, 1e-9)
	assert.InDelta(t, 0, pose.Pitch, 1e-9)
}

func TestEstimateHeadPoseYawFollowsNoseShift(t *testing.T) {
	face := landmark.SyntheticFace(landmark.SyntheticOpts{GazeShiftX: 0.2})

	pose := vision.EstimateHeadPose(face, vision.DefaultHeadPoseConfig())
	require.NotNil(t, pose)

	assert.Greater(t, pose.Yaw, 5.0)
}

func TestEstimateHeadPoseBelowConfidenceFloor(t *testing.T) {
	face := landmark.SyntheticFace(landmark.SyntheticOpts{Confidence: 0.5})

	assert.Nil(t, vision.EstimateHeadPose(face, vision.DefaultHeadPoseConfig()))
}
