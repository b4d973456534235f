package sf2

import "github.com/Alextopher/tinysynth/units"

// Loop modes a region can play a sample with.
const (
	LoopNone = iota
	LoopContinuous
	LoopSustain
)

// Envelope holds one six-segment volume envelope's raw parameters, in
// seconds once envelopeToSeconds has run (timecents beforehand).
type Envelope struct {
	Delay, Attack, Hold, Decay, Sustain, Release float32
	KeynumToHold, KeynumToDecay                  float32
}

// Region is one flattened, playable slice of a preset: a sample range
// plus every generator that shapes how it's triggered and played back.
// It carries no pointers back into the hydra tables that produced it —
// by the time Load returns, the hydra is garbage.
type Region struct {
	LoopMode                        int
	SampleRate                      uint32
	LoKey, HiKey, LoVel, HiVel      uint8
	Group                           uint32
	Offset, End, LoopStart, LoopEnd uint32
	Transpose, Tune                 int
	PitchKeycenter, PitchKeytrack   int
	Attenuation, Pan                float32
	AmpEnv                          Envelope
}

// clearRegion mirrors tsf_region_clear. forRelative produces the
// all-zero baseline used for regions that only ever get merged into
// another region (the preset-side globalRegion/presetRegion); the full
// default set carries the SF2 defaults a real playable region needs.
func clearRegion(forRelative bool) Region {
	r := Region{HiKey: 127, HiVel: 127, PitchKeycenter: 60}
	if forRelative {
		return r
	}
	r.PitchKeytrack = 100
	r.PitchKeycenter = -1
	r.AmpEnv.Delay = -12000
	r.AmpEnv.Attack = -12000
	r.AmpEnv.Hold = -12000
	r.AmpEnv.Decay = -12000
	r.AmpEnv.Release = -12000
	return r
}

func envelopeToSeconds(e *Envelope, sustainIsGain bool) {
	e.Delay = timecentsOrZero(e.Delay)
	e.Attack = timecentsOrZero(e.Attack)
	e.Release = timecentsOrZero(e.Release)
	// Hold/decay stay in timecents when key-tracked: the voice needs the
	// raw timecent value to recompute them per note-on key number.
	if e.KeynumToHold == 0 {
		e.Hold = timecentsOrZero(e.Hold)
	}
	if e.KeynumToDecay == 0 {
		e.Decay = timecentsOrZero(e.Decay)
	}
	switch {
	case e.Sustain < 0:
		e.Sustain = 0
	case sustainIsGain:
		e.Sustain = units.DecibelsToGain(-e.Sustain / 10)
	default:
		e.Sustain = 1 - e.Sustain/1000
	}
}

func timecentsOrZero(tc float32) float32 {
	if tc < -11950 {
		return 0
	}
	return units.TimecentsToSecs(tc)
}
