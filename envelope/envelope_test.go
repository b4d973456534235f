package envelope

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Alextopher/tinysynth/sf2"
)

func TestSetupWithNoDelaySkipsStraightToAttack(t *testing.T) {
	var e State
	e.Setup(sf2.Envelope{Attack: 0.1, Sustain: 0.5}, 60, 100, true)
	require.Equal(t, SegmentAttack, e.Segment)
	require.InDelta(t, 0.1*SampleRate, float64(e.SamplesUntilNextSegment), 1)
}

func TestSetupWithEverythingZeroReachesSustainImmediately(t *testing.T) {
	var e State
	e.Setup(sf2.Envelope{Sustain: 0.7}, 60, 100, true)
	require.Equal(t, SegmentSustain, e.Segment)
	require.Equal(t, float32(0.7), e.Level)
}

func TestAttackRampsLevelToOne(t *testing.T) {
	var e State
	e.Setup(sf2.Envelope{Attack: 0.01}, 60, 100, true)
	require.Equal(t, SegmentAttack, e.Segment)
	total := int(e.SamplesUntilNextSegment)
	// Stop one sample short of the segment end: the full count would
	// fall through Hold and Decay (both zero) into Sustain at level 0.
	e.Process(total - 1)
	require.InDelta(t, 1.0, float64(e.Level), 0.01)
}

func TestForceReleaseEntersReleaseSegment(t *testing.T) {
	var e State
	e.Setup(sf2.Envelope{Sustain: 0.5, Release: 0.2}, 60, 100, true)
	e.ForceRelease()
	require.Equal(t, SegmentRelease, e.Segment)
	require.True(t, e.IsExponential)
}

func TestForceQuickReleaseUsesFastReleaseTime(t *testing.T) {
	var e State
	e.Setup(sf2.Envelope{Sustain: 0.5, Release: 5}, 60, 100, true)
	e.ForceQuickRelease()
	require.Equal(t, SegmentRelease, e.Segment)
	require.InDelta(t, fastReleaseTime*SampleRate, float64(e.SamplesUntilNextSegment), 1)
}

func TestReleaseEventuallyReachesDone(t *testing.T) {
	var e State
	e.Setup(sf2.Envelope{Sustain: 0.5, Release: 0.01}, 60, 100, true)
	e.ForceRelease()
	for i := 0; i < 20 && e.Segment != SegmentDone; i++ {
		e.Process(128)
	}
	require.Equal(t, SegmentDone, e.Segment)
	require.Equal(t, float32(0), e.Level)
}

func TestKeynumToHoldShortensHoldForHigherKeys(t *testing.T) {
	var low, high State
	params := sf2.Envelope{Hold: 1000, KeynumToHold: 50}
	low.Setup(params, 40, 100, true)
	high.Setup(params, 80, 100, true)
	require.Less(t, high.Parameters.Hold, low.Parameters.Hold)
}
