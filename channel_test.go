package tinysynth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChannelDefaultsMatchGeneralMidi(t *testing.T) {
	s := New(testFont())
	ch := s.channelInit(0)
	require.Equal(t, uint16(8192), ch.pitchWheel)
	require.Equal(t, float32(2.0), ch.pitchRange)
	require.Equal(t, uint16(16383), ch.midiVolume)
}

func TestChannelNoteOnUsesChannelPreset(t *testing.T) {
	s := New(testFont())
	s.ChannelSetPresetIndex(0, 1)
	require.True(t, s.ChannelNoteOn(0, 42, 1.0))
	require.Equal(t, 1, s.voices[0].PlayingPreset)
	require.Equal(t, 0, s.voices[0].PlayingChannel)
}

func TestChannelSetPresetNumberDrumsFallsBackToMelodicBank(t *testing.T) {
	s := New(testFont())
	ok := s.ChannelSetPresetNumber(9, 0, true)
	require.True(t, ok)
	require.Equal(t, 0, s.channels[9].presetIndex)
}

func TestMidiControlVolumeAndExpressionCombineCubically(t *testing.T) {
	s := New(testFont())
	s.ChannelMIDIControl(0, ccVolume, 127)
	s.ChannelMIDIControl(0, ccExpression, 127)
	require.InDelta(t, float64(0), float64(s.channels[0].gainDB), 0.5)

	s.ChannelMIDIControl(0, ccVolume, 0)
	require.Less(t, s.channels[0].gainDB, float32(-50))
}

func TestMidiControlPanCentersAtDefault(t *testing.T) {
	s := New(testFont())
	s.ChannelMIDIControl(0, ccPan, 64)
	require.InDelta(t, 0.0, float64(s.channels[0].panOffset), 0.02)
}

func TestMidiControlPitchBendRangeRPN(t *testing.T) {
	s := New(testFont())
	s.ChannelMIDIControl(0, ccRegisteredMSB, 0)
	s.ChannelMIDIControl(0, ccRegisteredLSB, 0)
	s.ChannelMIDIControl(0, ccDataEntryMSB, 4)
	require.Equal(t, float32(4), s.channels[0].pitchRange)
}

func TestMidiControlNonRegisteredInvalidatesRPN(t *testing.T) {
	s := New(testFont())
	s.ChannelMIDIControl(0, ccRegisteredMSB, 0)
	s.ChannelMIDIControl(0, ccRegisteredLSB, 0)
	s.ChannelMIDIControl(0, ccNonRegisteredLSB, 0)
	s.ChannelMIDIControl(0, ccDataEntryMSB, 4)
	require.Equal(t, float32(2.0), s.channels[0].pitchRange)
}

func TestChannelAllSoundOffQuickReleasesVoices(t *testing.T) {
	s := New(testFont())
	s.ChannelNoteOn(0, 60, 1.0)
	s.ChannelMIDIControl(0, ccAllSoundOff, 0)
	require.True(t, s.voices[0].ReleaseOrLater())
}

func TestChannelNoteOffOnlyAffectsThatChannel(t *testing.T) {
	s := New(testFont())
	s.ChannelNoteOn(0, 60, 1.0)
	s.ChannelNoteOn(1, 60, 1.0)
	s.ChannelNoteOff(0, 60)

	require.True(t, s.voices[0].ReleaseOrLater())
	require.False(t, s.voices[1].ReleaseOrLater())
}

func TestPitchWheelRecomputesActiveVoicePitch(t *testing.T) {
	s := New(testFont())
	s.ChannelNoteOn(0, 60, 1.0)
	before := s.voices[0].PitchInputTimecents
	s.ChannelSetPitchWheel(0, 16383)
	require.NotEqual(t, before, s.voices[0].PitchInputTimecents)
}
