// Package tinysynth is a polyphonic SoundFont 2 synthesizer: load a
// bank with sf2.Load, create a Synth from it, trigger notes with
// NoteOn/NoteOff (optionally through MIDI Channels), and pull rendered
// audio with RenderShort.
//
// A Synth is not safe for concurrent use from more than one goroutine
// at a time for writes, but is designed the way the reference engine
// is: note dispatch and rendering are expected to run on separate
// goroutines without a lock between them, with End/EndQuick's double
// envelope transition as the only concession to that. The double
// transition is used only once SetMaxVoices has set a voice cap, and it
// narrows the race rather than closing it, and only for a split between
// one note-dispatch goroutine and one render goroutine.
package tinysynth

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/Alextopher/tinysynth/envelope"
	"github.com/Alextopher/tinysynth/sf2"
	"github.com/Alextopher/tinysynth/units"
	"github.com/Alextopher/tinysynth/voice"
)

// Synth renders a soundfont's presets into a 128-sample-block, 11025Hz
// mono PCM stream.
type Synth struct {
	font *sf2.Soundfont

	voices         []*voice.Voice
	maxVoiceNum    int
	voicePlayIndex uint32
	globalGainDB   float32

	channels []*channel

	renderScratch [voice.BlockSize]int32
}

// New creates a Synth over font. The Synth takes no ownership beyond
// what Soundfont.Clone/Close already model; call font.Close yourself
// once every Synth built over it is done.
func New(font *sf2.Soundfont) *Synth {
	return &Synth{font: font}
}

// Clone returns an independent Synth sharing the same underlying
// soundfont sample pool (via sf2.Soundfont.Clone) but with its own,
// empty voice and channel state.
func (s *Synth) Clone() *Synth {
	return &Synth{font: s.font.Clone(), globalGainDB: s.globalGainDB}
}

// Close releases this Synth's share of the underlying soundfont.
func (s *Synth) Close() {
	s.font.Close()
}

// PresetCount returns how many presets the underlying font has.
func (s *Synth) PresetCount() int {
	return len(s.font.Presets)
}

// PresetName returns the name of preset i, or "" if i is out of range.
func (s *Synth) PresetName(i int) string {
	if i < 0 || i >= len(s.font.Presets) {
		return ""
	}
	return s.font.Presets[i].Name
}

// PresetIndex returns the index of the preset matching bank/preset, or
// -1 if none does.
func (s *Synth) PresetIndex(bank, preset int) int {
	return s.font.PresetIndex(uint16(bank), uint16(preset))
}

// SetVolume sets a global linear gain multiplier applied to every voice.
func (s *Synth) SetVolume(gain float32) {
	if gain == 1.0 {
		s.globalGainDB = 0
		return
	}
	s.globalGainDB = -units.GainToDecibels(1.0 / gain)
}

// SetMaxVoices pre-allocates and caps the voice pool at n, switching
// the allocator from "grow by four on demand" to "steal the voice
// furthest into its release" once full. Passing a value below the
// current voice count is a no-op on the count, matching the reference
// engine (it only ever grows the backing array here, never shrinks).
func (s *Synth) SetMaxVoices(n int) {
	newLen := n
	if len(s.voices) > newLen {
		newLen = len(s.voices)
	}
	for len(s.voices) < newLen {
		s.voices = append(s.voices, voice.New())
	}
	s.voices = s.voices[:newLen]
	s.maxVoiceNum = newLen
}

// ActiveVoiceCount returns how many voice slots are currently sounding
// or releasing.
func (s *Synth) ActiveVoiceCount() int {
	count := 0
	for _, v := range s.voices {
		if v.Active() {
			count++
		}
	}
	return count
}

// Reset quick-releases every voice that hasn't already fully released,
// and drops all channel state.
func (s *Synth) Reset() {
	for _, v := range s.voices {
		if v.Active() && (v.AmpEnv.Segment < envelope.SegmentRelease || v.AmpEnv.Parameters.Release != 0) {
			v.EndQuick(s.maxVoiceNum != 0)
		}
	}
	s.channels = nil
}

// NoteOn triggers every region of preset presetIndex whose key/velocity
// range covers key/vel. vel is in [0,1]; a non-positive velocity is
// treated as a NoteOff. An out-of-range presetIndex is a silent no-op;
// the return value is always true.
func (s *Synth) NoteOn(presetIndex, key int, vel float32) bool {
	return s.noteOn(presetIndex, key, vel, -1)
}

// BankNoteOn looks up the preset for bank/program and triggers it; it
// reports false if no such preset exists.
func (s *Synth) BankNoteOn(bank, program, key int, vel float32) bool {
	idx := s.PresetIndex(bank, program)
	if idx == -1 {
		return false
	}
	return s.NoteOn(idx, key, vel)
}

func (s *Synth) noteOn(presetIndex, key int, vel float32, chIdx int) bool {
	if presetIndex < 0 || presetIndex >= len(s.font.Presets) {
		logrus.WithField("preset", presetIndex).Debug("tinysynth: NoteOn with out-of-range preset index")
		return true
	}
	if vel <= 0 {
		s.noteOffMatching(func(v *voice.Voice) bool { return v.PlayingPreset == presetIndex && v.PlayingKey == key })
		return true
	}
	midiVelocity := int16(vel * 127)

	playIndex := s.voicePlayIndex
	s.voicePlayIndex++

	preset := &s.font.Presets[presetIndex]
	samples := s.font.Samples()
	for ri := range preset.Regions {
		region := &preset.Regions[ri]
		if key < int(region.LoKey) || key > int(region.HiKey) ||
			midiVelocity < int16(region.LoVel) || midiVelocity > int16(region.HiVel) {
			continue
		}
		if region.Offset >= uint32(len(samples)) {
			continue
		}

		v := s.allocateVoice(presetIndex, region)
		if v == nil {
			continue
		}

		v.Setup(region, presetIndex, key, midiVelocity, playIndex)
		v.NoteGainDB = s.globalGainDB - region.Attenuation/10.0 - units.GainToDecibels(1.0/vel)

		if chIdx >= 0 {
			s.setupChannelVoice(v, chIdx)
		} else {
			v.CalcPitchRatio(0)
			v.ApplyDefaultPan()
		}
	}
	return true
}

func (s *Synth) allocateVoice(presetIndex int, region *sf2.Region) *voice.Voice {
	var free *voice.Voice
	if region.Group != 0 {
		for _, v := range s.voices {
			if v.Active() && v.PlayingPreset == presetIndex && v.Region.Group == region.Group {
				v.EndQuick(s.maxVoiceNum != 0)
			} else if !v.Active() && free == nil {
				free = v
			}
		}
	} else {
		for _, v := range s.voices {
			if !v.Active() {
				free = v
				break
			}
		}
	}
	if free != nil {
		return free
	}

	if s.maxVoiceNum != 0 {
		var best *voice.Voice
		bestReleaseDone := int32(math.MinInt32)
		for _, v := range s.voices {
			if !v.ReleaseSegment() {
				continue
			}
			releaseDone := v.AmpEnv.ReleaseSamplesTotal() - v.AmpEnv.SamplesUntilNextSegment
			if releaseDone > bestReleaseDone {
				bestReleaseDone = releaseDone
				best = v
			}
		}
		if best == nil {
			return nil
		}
		best.Kill()
		return best
	}

	s.voices = append(s.voices, voice.New(), voice.New(), voice.New(), voice.New())
	return s.voices[len(s.voices)-4]
}

// NoteOff stops the earliest-triggered, still-sounding voice group for
// presetIndex/key (every voice sharing its play index), letting it run
// out its release.
func (s *Synth) NoteOff(presetIndex, key int) {
	s.noteOffMatching(func(v *voice.Voice) bool { return v.PlayingPreset == presetIndex && v.PlayingKey == key })
}

// BankNoteOff is NoteOff looked up by bank/program; it reports false if
// no such preset exists.
func (s *Synth) BankNoteOff(bank, program, key int) bool {
	idx := s.PresetIndex(bank, program)
	if idx == -1 {
		return false
	}
	s.NoteOff(idx, key)
	return true
}

// NoteOffAll moves every still-sounding voice into its release segment.
func (s *Synth) NoteOffAll() {
	for _, v := range s.voices {
		if v.Active() && !v.ReleaseOrLater() {
			v.End(s.maxVoiceNum != 0)
		}
	}
}

// noteOffMatching replicates the reference note-off matching rule:
// among all active, not-yet-releasing voices matching the predicate,
// find the smallest play index, then end every voice sharing it that
// falls within that index's span in the voice array.
func (s *Synth) noteOffMatching(match func(v *voice.Voice) bool) {
	firstIdx, lastIdx := -1, -1
	var playIndex uint32
	for i, v := range s.voices {
		if !v.Active() || v.ReleaseOrLater() || !match(v) {
			continue
		}
		if firstIdx == -1 || v.PlayIndex < playIndex {
			firstIdx, lastIdx, playIndex = i, i, v.PlayIndex
		} else if v.PlayIndex == playIndex {
			lastIdx = i
		}
	}
	if firstIdx == -1 {
		return
	}
	for i := firstIdx; i <= lastIdx; i++ {
		v := s.voices[i]
		if i != firstIdx && i != lastIdx &&
			(v.PlayIndex != playIndex || !match(v) || v.ReleaseOrLater()) {
			continue
		}
		v.End(s.maxVoiceNum != 0)
	}
}

// RenderShort renders one 128-sample block of 16-bit mono PCM at
// 11025Hz, summing and clipping every active voice, and copies its
// first min(len(buffer), 128) samples into buffer. Every call advances
// the voices by a full block: samples past len(buffer) are dropped, and
// buffer entries past 128 are left untouched.
func (s *Synth) RenderShort(buffer []int16) {
	for i := range s.renderScratch {
		s.renderScratch[i] = 0
	}
	samples := s.font.Samples()
	for _, v := range s.voices {
		if v.Active() {
			v.Render(s.renderScratch[:], samples)
		}
	}
	n := len(buffer)
	if n > len(s.renderScratch) {
		n = len(s.renderScratch)
	}
	for i := 0; i < n; i++ {
		buffer[i] = clampInt16(s.renderScratch[i])
	}
}

func clampInt16(v int32) int16 {
	switch {
	case v < -32768:
		return -32768
	case v > 32767:
		return 32767
	default:
		return int16(v)
	}
}
