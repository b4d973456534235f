package tinysynth

import (
	"math"

	"github.com/Alextopher/tinysynth/units"
	"github.com/Alextopher/tinysynth/voice"
)

// MIDI controller numbers this package understands. Unlisted CCs are
// silently ignored, matching the reference engine.
const (
	ccBankSelectMSB    = 0
	ccModulation       = 1
	ccDataEntryMSB     = 6
	ccVolume           = 7
	ccPan              = 10
	ccExpression       = 11
	ccBankSelectLSB    = 32
	ccDataEntryLSB     = 38
	ccVolumeLSB        = 39
	ccPanLSB           = 42
	ccExpressionLSB    = 43
	ccSustain          = 64
	ccNonRegisteredLSB = 98
	ccNonRegisteredMSB = 99
	ccRegisteredLSB    = 100
	ccRegisteredMSB    = 101
	ccAllSoundOff      = 120
	ccAllCtrlOff       = 121
	ccAllNotesOff      = 123
)

const rpnNone = 0xFFFF
const rpnPitchBendRange = 0
const rpnFineTune = 1
const rpnCoarseTune = 2

// channel holds one MIDI channel's addressing and controller state. A
// channel never directly touches voices outside of NoteOn/NoteOff and
// the pitch/pan/gain recompute triggered by its setters; the Synth
// owns the voice pool.
type channel struct {
	presetIndex int
	bank        uint16

	pitchWheel     uint16
	pitchRange     float32
	tuning         float32
	panOffset      float32
	gainDB         float32
	midiVolume     uint16
	midiExpression uint16
	midiPan        uint16

	midiRPN  uint16
	midiData uint16
}

func newChannel() *channel {
	return &channel{
		presetIndex:    0,
		pitchWheel:     8192,
		pitchRange:     2.0,
		midiVolume:     16383,
		midiExpression: 16383,
		midiPan:        8192,
		midiRPN:        rpnNone,
	}
}

// channelInit returns channels[chIdx], lazily growing the channel
// slice (with SF2/GM defaults) to cover it. A channel exists as soon as
// any per-channel call is made, matching the reference engine's
// lazy-allocate-on-first-use behaviour.
func (s *Synth) channelInit(chIdx int) *channel {
	for len(s.channels) <= chIdx {
		s.channels = append(s.channels, newChannel())
	}
	return s.channels[chIdx]
}

// ChannelSetPresetIndex points channel chIdx directly at a preset index.
func (s *Synth) ChannelSetPresetIndex(chIdx, presetIndex int) {
	s.channelInit(chIdx).presetIndex = presetIndex
}

// ChannelSetPresetNumber points channel chIdx at the preset matching the
// channel's current bank and the given program number. With
// flagMIDIDrums set (on any channel), the drum bank is tried first:
// (128|bank, program), then (128, program), then (128, 0), then
// (bank, program). Either way, (0, program) is the last fallback; it
// reports false if none of them exists.
func (s *Synth) ChannelSetPresetNumber(chIdx, program int, flagMIDIDrums bool) bool {
	ch := s.channelInit(chIdx)
	// bank carries a transient 0x8000 "MSB seen" flag set by the
	// Bank Select MSB CC; strip it before using the value as an
	// actual SF2 bank number.
	bank := int(ch.bank & 0x7FFF)

	var idx int
	if flagMIDIDrums {
		idx = s.PresetIndex(128|bank, program)
		if idx == -1 {
			idx = s.PresetIndex(128, program)
		}
		if idx == -1 {
			idx = s.PresetIndex(128, 0)
		}
		if idx == -1 {
			idx = s.PresetIndex(bank, program)
		}
	} else {
		idx = s.PresetIndex(bank, program)
	}
	if idx == -1 {
		idx = s.PresetIndex(0, program)
	}
	if idx == -1 {
		return false
	}
	ch.presetIndex = idx
	return true
}

// ChannelSetBank sets the bank channel chIdx will use on its next
// ChannelSetPresetNumber call.
func (s *Synth) ChannelSetBank(chIdx, bank int) {
	s.channelInit(chIdx).bank = uint16(bank)
}

// ChannelSetPan sets channel chIdx's stereo pan in [-1,1].
func (s *Synth) ChannelSetPan(chIdx int, pan float32) {
	ch := s.channelInit(chIdx)
	ch.panOffset = pan / 2
	s.channelApplyPitch(chIdx)
}

// ChannelSetVolume sets channel chIdx's linear gain multiplier.
func (s *Synth) ChannelSetVolume(chIdx int, volume float32) {
	s.channelInit(chIdx).gainDB = units.GainToDecibels(volume)
}

// ChannelSetPitchWheel sets the raw 14-bit pitch wheel value (8192 is
// centered) and recomputes every active voice's pitch on that channel.
func (s *Synth) ChannelSetPitchWheel(chIdx int, pitchWheel uint16) {
	s.channelInit(chIdx).pitchWheel = pitchWheel
	s.channelApplyPitch(chIdx)
}

// ChannelSetPitchRange sets the pitch wheel's +/- range in semitones.
func (s *Synth) ChannelSetPitchRange(chIdx int, pitchRange float32) {
	s.channelInit(chIdx).pitchRange = pitchRange
	s.channelApplyPitch(chIdx)
}

// ChannelSetTuning sets a static per-channel tuning offset in semitones.
func (s *Synth) ChannelSetTuning(chIdx int, tuning float32) {
	s.channelInit(chIdx).tuning = tuning
	s.channelApplyPitch(chIdx)
}

// ChannelNoteOn is NoteOn routed through a channel's preset, pan,
// volume and pitch state.
func (s *Synth) ChannelNoteOn(chIdx, key int, vel float32) bool {
	ch := s.channelInit(chIdx)
	return s.noteOn(ch.presetIndex, key, vel, chIdx)
}

// ChannelNoteOff ends the earliest still-sounding voice group on
// channel chIdx at key.
func (s *Synth) ChannelNoteOff(chIdx, key int) {
	s.noteOffMatching(func(v *voice.Voice) bool {
		return v.PlayingChannel == chIdx && v.PlayingKey == key
	})
}

// ChannelNoteOffAll moves every still-sounding voice on channel chIdx
// into its release segment.
func (s *Synth) ChannelNoteOffAll(chIdx int) {
	for _, v := range s.voices {
		if v.Active() && v.PlayingChannel == chIdx && !v.ReleaseOrLater() {
			v.End(s.maxVoiceNum != 0)
		}
	}
}

// ChannelSoundsOffAll quick-ends every voice on channel chIdx: each one
// fades out over the 0.01s fast release instead of its own release.
func (s *Synth) ChannelSoundsOffAll(chIdx int) {
	for _, v := range s.voices {
		if v.Active() && v.PlayingChannel == chIdx {
			v.EndQuick(s.maxVoiceNum != 0)
		}
	}
}

// setupChannelVoice applies channel chIdx's gain, pan and pitch state to
// a freshly triggered voice.
func (s *Synth) setupChannelVoice(v *voice.Voice, chIdx int) {
	ch := s.channels[chIdx]
	v.PlayingChannel = chIdx
	v.NoteGainDB += ch.gainDB
	v.CalcPitchRatio(channelPitchShift(ch))
	applyPan(v, v.Region.Pan+ch.panOffset)
}

// channelApplyPitch recomputes pitch for every active voice on chIdx,
// used whenever the channel's pitch wheel, range or tuning changes.
func (s *Synth) channelApplyPitch(chIdx int) {
	if chIdx < 0 || chIdx >= len(s.channels) {
		return
	}
	ch := s.channels[chIdx]
	shift := channelPitchShift(ch)
	for _, v := range s.voices {
		if v.Active() && v.PlayingChannel == chIdx {
			v.CalcPitchRatio(shift)
		}
	}
}

func channelPitchShift(ch *channel) float32 {
	if ch.pitchWheel == 8192 {
		return ch.tuning
	}
	return (float32(ch.pitchWheel)/16383.0*ch.pitchRange*2.0 - ch.pitchRange) + ch.tuning
}

func applyPan(v *voice.Voice, pan float32) {
	switch {
	case pan <= -0.5:
		v.PanFactorLeft, v.PanFactorRight = 1, 0
	case pan >= 0.5:
		v.PanFactorLeft, v.PanFactorRight = 0, 1
	default:
		v.PanFactorLeft = float32(math.Sqrt(float64(0.5 - pan)))
		v.PanFactorRight = float32(math.Sqrt(float64(0.5 + pan)))
	}
}

// ChannelMIDIControl applies a MIDI control-change message (as listed
// by ccXxx above) to channel chIdx. ccModulation and ccSustain are
// named above but have no effect here; unrecognized controllers are
// ignored.
func (s *Synth) ChannelMIDIControl(chIdx, controller, value int) {
	ch := s.channelInit(chIdx)
	switch controller {
	case ccBankSelectMSB:
		// 0x8000 tags the bank as "MSB seen"; a bare MSB with no
		// following LSB acts like an LSB-only bank select.
		ch.bank = 0x8000 | uint16(value)
	case ccBankSelectLSB:
		if ch.bank&0x8000 != 0 {
			ch.bank = (ch.bank&0x7F)<<7 | uint16(value)
		} else {
			ch.bank = uint16(value)
		}
	case ccVolume:
		ch.midiVolume = (ch.midiVolume & 0x7F) | (uint16(value) << 7)
		s.applyChannelVolumeExpression(ch)
	case ccVolumeLSB:
		ch.midiVolume = (ch.midiVolume & 0x3F80) | uint16(value&0x7F)
		s.applyChannelVolumeExpression(ch)
	case ccExpression:
		ch.midiExpression = (ch.midiExpression & 0x7F) | (uint16(value) << 7)
		s.applyChannelVolumeExpression(ch)
	case ccExpressionLSB:
		ch.midiExpression = (ch.midiExpression & 0x3F80) | uint16(value&0x7F)
		s.applyChannelVolumeExpression(ch)
	case ccPan:
		ch.midiPan = (ch.midiPan & 0x7F) | (uint16(value) << 7)
		ch.panOffset = float32(ch.midiPan)/16383.0 - 0.5
		s.channelApplyPitch(chIdx)
	case ccPanLSB:
		ch.midiPan = (ch.midiPan & 0x3F80) | uint16(value&0x7F)
		ch.panOffset = float32(ch.midiPan)/16383.0 - 0.5
		s.channelApplyPitch(chIdx)
	case ccDataEntryMSB:
		ch.midiData = (ch.midiData & 0x7F) | (uint16(value) << 7)
		s.applyRPN(chIdx, ch)
	case ccDataEntryLSB:
		ch.midiData = (ch.midiData & 0x3F80) | uint16(value&0x7F)
		s.applyRPN(chIdx, ch)
	case ccRegisteredMSB:
		base := ch.midiRPN
		if base == rpnNone {
			base = 0
		}
		ch.midiRPN = (base & 0x7F) | (uint16(value) << 7)
	case ccRegisteredLSB:
		base := ch.midiRPN
		if base == rpnNone {
			base = 0
		}
		ch.midiRPN = (base & 0x3F80) | uint16(value&0x7F)
	case ccNonRegisteredMSB, ccNonRegisteredLSB:
		ch.midiRPN = rpnNone
	case ccAllSoundOff:
		s.ChannelSoundsOffAll(chIdx)
	case ccAllNotesOff:
		s.ChannelNoteOffAll(chIdx)
	case ccAllCtrlOff:
		ch.midiVolume = 16383
		ch.midiExpression = 16383
		ch.midiPan = 8192
		ch.panOffset = 0
		ch.pitchWheel = 8192
		ch.midiRPN = rpnNone
		s.applyChannelVolumeExpression(ch)
		s.channelApplyPitch(chIdx)
	}
}

// applyChannelVolumeExpression recombines volume and expression into a
// single gain using the cubic curve GM synths use so either control
// alone still sweeps close to the full perceived dynamic range.
func (s *Synth) applyChannelVolumeExpression(ch *channel) {
	vol := float64(ch.midiVolume) / 16383.0
	expr := float64(ch.midiExpression) / 16383.0
	gain := vol * expr
	gain = gain * gain * gain
	ch.gainDB = units.GainToDecibels(float32(gain))
}

// applyRPN dispatches a completed data-entry value to whichever
// parameter the channel's last Registered Parameter Number selected.
func (s *Synth) applyRPN(chIdx int, ch *channel) {
	switch ch.midiRPN {
	case rpnPitchBendRange:
		ch.pitchRange = float32(ch.midiData>>7) + float32(ch.midiData&0x7F)/100.0
		s.channelApplyPitch(chIdx)
	case rpnFineTune:
		ch.tuning = (float32(ch.midiData) - 8192.0) / 8192.0
		s.channelApplyPitch(chIdx)
	case rpnCoarseTune:
		ch.tuning = float32(int(ch.midiData>>7) - 64)
		s.channelApplyPitch(chIdx)
	}
}
