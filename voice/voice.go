// Package voice implements a single playing note: its pitch and gain
// setup at trigger time, its per-block sample rendering with loop-wrap
// handling, and the two ways a note can end (a natural release or an
// immediate steal/cutoff).
package voice

import (
	"math"

	"github.com/Alextopher/tinysynth/envelope"
	"github.com/Alextopher/tinysynth/sf2"
	"github.com/Alextopher/tinysynth/units"
)

// SampleRate is the fixed internal render rate; every region plays back
// against it regardless of its own sample rate, via PitchOutputFactor.
const SampleRate = envelope.SampleRate

// BlockSize is how many internal-rate samples one Render call produces.
const BlockSize = 128

// Voice is one slot in the polyphony pool. PlayingPreset is -1 when the
// slot is free.
type Voice struct {
	PlayingPreset  int
	PlayingKey     int
	PlayingChannel int
	Region         *sf2.Region

	PitchInputTimecents float32
	PitchOutputFactor   float32

	SourceSamplePosition float32
	NoteGainDB           float32
	PanFactorLeft        float32
	PanFactorRight       float32

	PlayIndex uint32
	LoopStart uint32
	LoopEnd   uint32

	AmpEnv envelope.State
}

// New returns a free voice slot.
func New() *Voice {
	return &Voice{PlayingPreset: -1}
}

// Active reports whether the voice is currently sounding or releasing.
func (v *Voice) Active() bool {
	return v.PlayingPreset != -1
}

// Kill silences the voice immediately without running out its release.
func (v *Voice) Kill() {
	v.PlayingPreset = -1
}

// End moves the voice into its release segment, as a NoteOff does. If
// the region loops only while sustaining, looping stops but playback
// continues through the release. With repeat set, the transition is
// applied twice.
func (v *Voice) End(repeat bool) {
	n := 1
	if repeat {
		n = 2
	}
	for ; n > 0; n-- {
		v.AmpEnv.ForceRelease()
		if v.Region.LoopMode == sf2.LoopSustain {
			v.LoopEnd = v.LoopStart
		}
	}
}

// EndQuick forces a fast, click-free release, used to steal a voice
// that's still needed for a new note.
func (v *Voice) EndQuick(repeat bool) {
	n := 1
	if repeat {
		n = 2
	}
	for ; n > 0; n-- {
		v.AmpEnv.ForceQuickRelease()
	}
}

// CalcPitchRatio derives the voice's pitch from its region, its playing
// key, and an optional extra shift in semitones (pitch wheel, channel
// tuning). Safe to call again after the shift changes without
// retriggering the voice.
func (v *Voice) CalcPitchRatio(pitchShift float32) {
	r := v.Region
	note := float32(v.PlayingKey) + float32(r.Transpose) + float32(r.Tune)/100.0
	adjustedPitch := float32(r.PitchKeycenter) + (note-float32(r.PitchKeycenter))*(float32(r.PitchKeytrack)/100.0)
	if pitchShift != 0 {
		adjustedPitch += pitchShift
	}
	v.PitchInputTimecents = adjustedPitch * 100.0
	v.PitchOutputFactor = float32(r.SampleRate) / (units.TimecentsToSecs(float32(r.PitchKeycenter)*100.0) * SampleRate)
}

// ApplyDefaultPan sets the voice's stereo split straight from the
// region's own pan generator, for use when no channel-level pan offset
// applies. The sqrt curve matches what several softsynths use as a
// constant-power pan law.
func (v *Voice) ApplyDefaultPan() {
	v.PanFactorLeft = sqrt32(0.5 - v.Region.Pan)
	v.PanFactorRight = sqrt32(0.5 + v.Region.Pan)
}

// Setup primes a freshly allocated voice for key/velocity at the given
// play index (a monotonically increasing counter used to group voices
// triggered by the same NoteOn for correct NoteOff matching).
func (v *Voice) Setup(region *sf2.Region, presetIndex, key int, midiVelocity int16, playIndex uint32) {
	v.Region = region
	v.PlayingPreset = presetIndex
	v.PlayingKey = key
	v.PlayingChannel = -1
	v.PlayIndex = playIndex

	v.SourceSamplePosition = float32(region.Offset)

	doLoop := region.LoopMode != sf2.LoopNone && region.LoopStart < region.LoopEnd
	if doLoop {
		v.LoopStart, v.LoopEnd = region.LoopStart, region.LoopEnd
	} else {
		v.LoopStart, v.LoopEnd = 0, 0
	}

	v.AmpEnv.Setup(region.AmpEnv, key, int(midiVelocity), true)
}

// ReleaseSegment reports whether the voice is currently in its release
// segment — used by the allocator to find a voice to steal.
func (v *Voice) ReleaseSegment() bool {
	return v.AmpEnv.Segment == envelope.SegmentRelease
}

// Done reports whether the voice's envelope has fully finished.
func (v *Voice) Done() bool {
	return v.AmpEnv.Segment == envelope.SegmentDone
}

// ReleaseOrLater reports whether the voice has already been told to end
// (it's in its release segment or fully done), so a second NoteOff for
// the same key should leave it alone.
func (v *Voice) ReleaseOrLater() bool {
	return v.AmpEnv.Segment >= envelope.SegmentRelease
}

// Render adds one BlockSize-sample block of this voice's output into
// accum (an int32 accumulation buffer shared by every active voice; the
// caller sums all voices before clipping to int16). fontSamples is the
// soundfont's full raw sample pool that Region.Offset/End index into.
func (v *Voice) Render(accum []int32, fontSamples []int16) {
	region := v.Region
	isLooping := v.LoopStart < v.LoopEnd
	loopStart, loopEnd := v.LoopStart, v.LoopEnd
	sampleEnd := float32(region.End)
	loopEndBoundary := float32(loopEnd) + 1.0
	sourcePos := v.SourceSamplePosition

	pitchRatio := units.TimecentsToSecs(v.PitchInputTimecents) * v.PitchOutputFactor
	noteGain := units.DecibelsToGain(v.NoteGainDB)

	// Gain is sampled once per block from the envelope level as of the
	// start of this block, then held fixed while the envelope itself
	// advances for the block that follows.
	gainMono := int32(noteGain * v.AmpEnv.Level * 256.0)
	v.AmpEnv.Process(BlockSize)

	accPos := float32(0)
	n := 0
	for n < len(accum) && sourcePos+accPos*pitchRatio < sampleEnd {
		pos := uint32(sourcePos + accPos*pitchRatio)
		accum[n] += (int32(fontSamples[pos]) * gainMono) >> 8

		n++
		accPos++
		if sourcePos+accPos*pitchRatio >= loopEndBoundary && isLooping {
			sourcePos += accPos * pitchRatio
			accPos = 0
			sourcePos -= float32(loopEnd-loopStart) + 1.0
		}
	}
	sourcePos += accPos * pitchRatio

	if sourcePos >= sampleEnd || v.Done() {
		v.Kill()
		return
	}
	v.SourceSamplePosition = sourcePos
}

func sqrt32(f float32) float32 {
	if f <= 0 {
		return 0
	}
	return float32(math.Sqrt(float64(f)))
}
