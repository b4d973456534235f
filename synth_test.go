package tinysynth

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Alextopher/tinysynth/sf2"
)

func testFont() *sf2.Soundfont {
	samples := make([]int16, 20000)
	for i := range samples {
		samples[i] = 1000
	}
	region := sf2.Region{
		LoopMode:       sf2.LoopNone,
		SampleRate:     11025,
		HiKey:          127,
		HiVel:          127,
		End:            10000,
		PitchKeycenter: 60,
		PitchKeytrack:  100,
		AmpEnv:         sf2.Envelope{Sustain: 1, Release: 0.2},
	}
	groupedRegion := region
	groupedRegion.Group = 1

	presets := []sf2.Preset{
		{Name: "Piano", Bank: 0, Number: 0, Regions: []sf2.Region{region}},
		{Name: "Hi-Hat", Bank: 0, Number: 1, Regions: []sf2.Region{groupedRegion}},
	}
	return sf2.NewForTesting(presets, samples)
}

func TestNoteOnAllocatesAVoice(t *testing.T) {
	s := New(testFont())
	require.True(t, s.NoteOn(0, 60, 1.0))
	require.Equal(t, 1, s.ActiveVoiceCount())
}

func TestNoteOnWithOutOfRangePresetIsANoOp(t *testing.T) {
	s := New(testFont())
	require.True(t, s.NoteOn(99, 60, 1.0))
	require.Equal(t, 0, s.ActiveVoiceCount())
}

func TestNoteOnWithZeroVelocityActsAsNoteOff(t *testing.T) {
	s := New(testFont())
	s.NoteOn(0, 60, 1.0)
	require.Equal(t, 1, s.ActiveVoiceCount())
	s.NoteOn(0, 60, 0)
	require.True(t, s.voices[0].ReleaseOrLater())
}

func TestNoteOffMovesVoiceIntoRelease(t *testing.T) {
	s := New(testFont())
	s.NoteOn(0, 60, 1.0)
	s.NoteOff(0, 60)
	require.True(t, s.voices[0].ReleaseOrLater())
}

func TestNoteOffOnlyAffectsEarliestMatchingGroup(t *testing.T) {
	s := New(testFont())
	s.NoteOn(0, 60, 1.0)
	s.NoteOn(0, 60, 1.0)
	s.NoteOff(0, 60)

	released := 0
	for _, v := range s.voices {
		if v.Active() && v.ReleaseOrLater() {
			released++
		}
	}
	require.Equal(t, 1, released)
}

func TestNoteOnQuickEndsExclusiveGroupVoice(t *testing.T) {
	s := New(testFont())
	s.NoteOn(1, 42, 1.0)
	require.Equal(t, 1, s.ActiveVoiceCount())
	s.NoteOn(1, 43, 1.0)
	// Triggering another note in the same exclusive group quick-ends the
	// first; both slots briefly exist but only one stays sounding.
	activeStillAttacking := 0
	for _, v := range s.voices {
		if v.Active() && !v.ReleaseOrLater() {
			activeStillAttacking++
		}
	}
	require.Equal(t, 1, activeStillAttacking)
}

func TestSetMaxVoicesStealsFurthestReleasedVoice(t *testing.T) {
	s := New(testFont())
	s.SetMaxVoices(1)
	s.NoteOn(0, 60, 1.0)
	s.NoteOff(0, 60)
	require.True(t, s.NoteOn(0, 64, 1.0))
	require.Equal(t, 1, len(s.voices))
	require.Equal(t, 64, s.voices[0].PlayingKey)
}

func TestRenderShortProducesNonSilentClippedOutput(t *testing.T) {
	s := New(testFont())
	s.NoteOn(0, 60, 1.0)

	buf := make([]int16, 128)
	s.RenderShort(buf)

	nonZero := false
	for _, v := range buf {
		if v != 0 {
			nonZero = true
			break
		}
	}
	require.True(t, nonZero)
}

func TestResetReleasesEverythingAndClearsChannels(t *testing.T) {
	s := New(testFont())
	s.ChannelNoteOn(0, 60, 1.0)
	s.Reset()
	require.Nil(t, s.channels)
	require.True(t, s.voices[0].ReleaseOrLater())
}

func TestSetVolumeAtUnityLeavesGainUnchanged(t *testing.T) {
	s := New(testFont())
	s.SetVolume(1.0)
	require.Equal(t, float32(0), s.globalGainDB)
}
