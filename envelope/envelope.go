// Package envelope implements the six-segment volume envelope that
// shapes every voice's amplitude: Delay, Attack, Hold, Decay, Sustain
// and Release, stepped in whole-block increments at a fixed 11025Hz
// control rate regardless of the font's actual sample rate.
package envelope

import (
	"math"

	"github.com/Alextopher/tinysynth/sf2"
)

// SampleRate is the fixed control rate the envelope is stepped at.
const SampleRate = 11025

// fastReleaseTime is substituted whenever a region specifies a release
// of zero or less, so a stolen voice always fades rather than clicking.
const fastReleaseTime = 0.01

// Segment names one state of the envelope state machine.
type Segment int

const (
	SegmentNone Segment = iota
	SegmentDelay
	SegmentAttack
	SegmentHold
	SegmentDecay
	SegmentSustain
	SegmentRelease
	SegmentDone
)

// State is one running instance of the envelope, bound to a single
// voice. Parameters is a copy of the region's envelope, possibly
// adjusted for key-tracked hold/decay at Setup time.
type State struct {
	Level                   float32
	Slope                   float32
	SamplesUntilNextSegment int32
	Segment                 Segment
	IsExponential           bool
	IsAmpEnv                bool
	MidiVelocity            int
	Parameters              sf2.Envelope
}

// Setup primes the envelope for a freshly triggered note. isAmpEnv
// selects the amplitude-envelope slope law (exponential decay/release)
// versus the linear one used for modulation envelopes.
func (e *State) Setup(params sf2.Envelope, midiNoteNumber, midiVelocity int, isAmpEnv bool) {
	e.Parameters = params
	if e.Parameters.KeynumToHold != 0 {
		e.Parameters.Hold += e.Parameters.KeynumToHold * float32(60-midiNoteNumber)
		e.Parameters.Hold = timecentsOrZero(e.Parameters.Hold)
	}
	if e.Parameters.KeynumToDecay != 0 {
		e.Parameters.Decay += e.Parameters.KeynumToDecay * float32(60-midiNoteNumber)
		e.Parameters.Decay = timecentsOrZero(e.Parameters.Decay)
	}
	e.MidiVelocity = midiVelocity
	e.IsAmpEnv = isAmpEnv
	e.nextSegment(SegmentNone)
}

func timecentsOrZero(tc float32) float32 {
	if tc < -10000 {
		return 0
	}
	return float32(math.Pow(2, float64(tc)/1200))
}

// Process advances the envelope by numSamples worth of control-rate
// ticks (normally one render block).
func (e *State) Process(numSamples int) {
	if e.Slope != 0 {
		if e.IsExponential {
			e.Level *= float32(math.Pow(float64(e.Slope), float64(numSamples)))
		} else {
			e.Level += e.Slope * float32(numSamples)
		}
	}
	e.SamplesUntilNextSegment -= int32(numSamples)
	if e.SamplesUntilNextSegment <= 0 {
		e.nextSegment(e.Segment)
	}
}

// ForceRelease jumps straight to the release segment, as NoteOff does.
func (e *State) ForceRelease() {
	e.nextSegment(SegmentSustain)
}

// ForceQuickRelease forces an immediate fast release, used when a voice
// is stolen or cut off and must vanish without a click.
func (e *State) ForceQuickRelease() {
	e.Parameters.Release = 0
	e.nextSegment(SegmentSustain)
}

// ReleaseSamplesTotal returns how many samples this envelope's release
// segment lasts in total (fastReleaseTime substituted for a zero or
// negative region release). Used by the voice allocator to find which
// releasing voice is furthest along and safest to steal.
func (e *State) ReleaseSamplesTotal() int32 {
	return e.releaseSamples()
}

func (e *State) releaseSamples() int32 {
	r := e.Parameters.Release
	if r <= 0 {
		r = fastReleaseTime
	}
	return int32(r * SampleRate)
}

// nextSegment advances from activeSegment to whichever segment comes
// next that actually has a nonzero duration, mirroring the reference
// envelope's fallthrough chain.
func (e *State) nextSegment(active Segment) {
	switch active {
	case SegmentNone:
		e.SamplesUntilNextSegment = int32(e.Parameters.Delay * SampleRate)
		if e.SamplesUntilNextSegment > 0 {
			e.Segment = SegmentDelay
			e.IsExponential = false
			e.Level = 0
			e.Slope = 0
			return
		}
		fallthrough
	case SegmentDelay:
		e.SamplesUntilNextSegment = int32(e.Parameters.Attack * SampleRate)
		if e.SamplesUntilNextSegment > 0 {
			if !e.IsAmpEnv {
				// Modulation envelope attack scales with velocity: full
				// duration at velocity 1, 0.125x duration at max velocity.
				e.SamplesUntilNextSegment = int32(e.Parameters.Attack * ((145 - float32(e.MidiVelocity)) / 144.0) * SampleRate)
			}
			e.Segment = SegmentAttack
			e.IsExponential = false
			e.Level = 0
			e.Slope = 1.0 / float32(e.SamplesUntilNextSegment)
			return
		}
		fallthrough
	case SegmentAttack:
		e.SamplesUntilNextSegment = int32(e.Parameters.Hold * SampleRate)
		if e.SamplesUntilNextSegment > 0 {
			e.Segment = SegmentHold
			e.IsExponential = false
			e.Level = 1
			e.Slope = 0
			return
		}
		fallthrough
	case SegmentHold:
		e.SamplesUntilNextSegment = int32(e.Parameters.Decay * SampleRate)
		if e.SamplesUntilNextSegment > 0 {
			e.Segment = SegmentDecay
			e.Level = 1
			if e.IsAmpEnv {
				mysterySlope := -9.226 / float32(e.SamplesUntilNextSegment)
				e.Slope = float32(math.Exp(float64(mysterySlope)))
				e.IsExponential = true
				if e.Parameters.Sustain > 0 {
					e.SamplesUntilNextSegment = int32(float32(math.Log(float64(e.Parameters.Sustain))) / mysterySlope)
				}
			} else {
				e.Slope = -1.0 / float32(e.SamplesUntilNextSegment)
				e.SamplesUntilNextSegment = int32(e.Parameters.Decay * (1 - e.Parameters.Sustain) * SampleRate)
				e.IsExponential = false
			}
			return
		}
		fallthrough
	case SegmentDecay:
		e.Segment = SegmentSustain
		e.Level = e.Parameters.Sustain
		e.Slope = 0
		e.SamplesUntilNextSegment = math.MaxInt32
		e.IsExponential = false
		return
	case SegmentSustain:
		e.Segment = SegmentRelease
		e.SamplesUntilNextSegment = e.releaseSamples()
		if e.IsAmpEnv {
			mysterySlope := -9.226 / float32(e.SamplesUntilNextSegment)
			e.Slope = float32(math.Exp(float64(mysterySlope)))
			e.IsExponential = true
		} else {
			e.Slope = -e.Level / float32(e.SamplesUntilNextSegment)
			e.IsExponential = false
		}
		return
	case SegmentRelease:
		fallthrough
	default:
		e.Segment = SegmentDone
		e.IsExponential = false
		e.Level = 0
		e.Slope = 0
		e.SamplesUntilNextSegment = math.MaxInt32
	}
}
