package voice

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Alextopher/tinysynth/sf2"
	"github.com/Alextopher/tinysynth/units"
)

func testRegion() *sf2.Region {
	return &sf2.Region{
		LoopMode:       sf2.LoopNone,
		SampleRate:     11025,
		HiKey:          127,
		HiVel:          127,
		Offset:         0,
		End:            1000,
		PitchKeycenter: 60,
		PitchKeytrack:  100,
		Attenuation:    0,
		AmpEnv:         sf2.Envelope{Sustain: 1},
	}
}

func TestSetupInitializesFromOffset(t *testing.T) {
	v := New()
	region := testRegion()
	v.Setup(region, 3, 60, 100, 1)
	require.True(t, v.Active())
	require.Equal(t, 3, v.PlayingPreset)
	require.Equal(t, float32(0), v.SourceSamplePosition)
	require.Equal(t, uint32(0), v.LoopStart)
	require.Equal(t, uint32(0), v.LoopEnd)
}

func TestSetupEnablesLoopOnlyWhenLoopModeIsSet(t *testing.T) {
	v := New()
	region := testRegion()
	region.LoopMode = sf2.LoopContinuous
	region.LoopStart, region.LoopEnd = 100, 900
	v.Setup(region, 0, 60, 100, 1)
	require.Equal(t, uint32(100), v.LoopStart)
	require.Equal(t, uint32(900), v.LoopEnd)
}

func TestCalcPitchRatioAtKeycenterIsUnityAtNativeRate(t *testing.T) {
	v := New()
	region := testRegion()
	v.Region = region
	v.PlayingKey = 60
	v.CalcPitchRatio(0)
	require.Equal(t, float32(6000), v.PitchInputTimecents)

	pitchRatio := units.TimecentsToSecs(v.PitchInputTimecents) * v.PitchOutputFactor
	require.InDelta(t, 1.0, float64(pitchRatio), 0.001)
}

func TestCalcPitchRatioOneOctaveUpDoublesRatio(t *testing.T) {
	v := New()
	region := testRegion()
	v.Region = region
	v.PlayingKey = 72
	v.CalcPitchRatio(0)

	pitchRatio := units.TimecentsToSecs(v.PitchInputTimecents) * v.PitchOutputFactor
	require.InDelta(t, 2.0, float64(pitchRatio), 0.01)
}

func TestRenderKillsVoiceAtSampleEnd(t *testing.T) {
	v := New()
	region := testRegion()
	region.End = 4
	v.Setup(region, 0, 60, 127, 1)
	v.CalcPitchRatio(0)
	v.NoteGainDB = 0

	samples := make([]int16, 8)
	for i := range samples {
		samples[i] = 1000
	}
	accum := make([]int32, BlockSize)
	v.Render(accum, samples)
	require.False(t, v.Active())
}

func TestRenderAccumulatesNonZeroOutput(t *testing.T) {
	v := New()
	region := testRegion()
	region.End = 10000
	v.Setup(region, 0, 60, 127, 1)
	v.CalcPitchRatio(0)
	v.NoteGainDB = 0

	samples := make([]int16, 20000)
	for i := range samples {
		samples[i] = 5000
	}
	accum := make([]int32, BlockSize)
	v.Render(accum, samples)

	nonZero := false
	for _, s := range accum {
		if s != 0 {
			nonZero = true
			break
		}
	}
	require.True(t, nonZero)
	require.True(t, v.Active())
}

func TestEndTransitionsToRelease(t *testing.T) {
	v := New()
	region := testRegion()
	region.AmpEnv.Release = 0.1
	v.Setup(region, 0, 60, 100, 1)
	v.End(false)
	require.True(t, v.ReleaseSegment())
}

func TestEndQuickUsesFastRelease(t *testing.T) {
	v := New()
	region := testRegion()
	region.AmpEnv.Release = 5.0
	v.Setup(region, 0, 60, 100, 1)
	v.EndQuick(false)
	require.True(t, v.ReleaseSegment())
	require.Less(t, v.AmpEnv.SamplesUntilNextSegment, int32(SampleRate))
}
