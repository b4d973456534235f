package sf2

// Generator application follows tsf's two-mode tsf_region_operator: a
// single raw generator is applied as an absolute set (sample-offset
// generators are the one exception — they accumulate, since a region
// can carry both a fine and a coarse offset generator), while merging
// one region into another only touches the float/int/uint-add
// generator families and applies each family's scale and clamp once,
// on the merged sum.

const (
	genStartAddrsOffset        = 0
	genEndAddrsOffset          = 1
	genStartloopAddrsOffset    = 2
	genEndloopAddrsOffset      = 3
	genStartAddrsCoarseOffset  = 4
	genEndAddrsCoarseOffset    = 12
	genPan                     = 17
	genDelayVolEnv             = 33
	genAttackVolEnv            = 34
	genHoldVolEnv              = 35
	genDecayVolEnv             = 36
	genSustainVolEnv           = 37
	genReleaseVolEnv           = 38
	genKeynumToVolEnvHold      = 39
	genKeynumToVolEnvDecay     = 40
	genInstrument              = 41
	genKeyRange                = 43
	genVelRange                = 44
	genStartloopAddrsCoarseOff = 45
	genInitialAttenuation      = 48
	genEndloopAddrsCoarseOff   = 50
	genCoarseTune              = 51
	genFineTune                = 52
	genSampleID                = 53
	genSampleModes             = 54
	genScaleTuning             = 56
	genExclusiveClass          = 57
	genOverridingRootKey       = 58
)

// applyGenerator applies a single raw pgen/igen record to region as an
// absolute set, matching tsf_region_operator's amount!=NULL branch.
func applyGenerator(region *Region, oper uint16, amt generator) {
	add15 := func() int32 { return int32(amt.signed()) << 15 }
	switch oper {
	case genStartAddrsOffset:
		region.Offset += uint32(int32(amt.signed()))
	case genEndAddrsOffset:
		region.End += uint32(int32(amt.signed()))
	case genStartloopAddrsOffset:
		region.LoopStart += uint32(int32(amt.signed()))
	case genEndloopAddrsOffset:
		region.LoopEnd += uint32(int32(amt.signed()))
	case genStartAddrsCoarseOffset:
		region.Offset += uint32(add15())
	case genEndAddrsCoarseOffset:
		region.End += uint32(add15())
	case genPan:
		region.Pan = float32(amt.signed())
	case genDelayVolEnv:
		region.AmpEnv.Delay = float32(amt.signed())
	case genAttackVolEnv:
		region.AmpEnv.Attack = float32(amt.signed())
	case genHoldVolEnv:
		region.AmpEnv.Hold = float32(amt.signed())
	case genDecayVolEnv:
		region.AmpEnv.Decay = float32(amt.signed())
	case genSustainVolEnv:
		region.AmpEnv.Sustain = float32(amt.signed())
	case genReleaseVolEnv:
		region.AmpEnv.Release = float32(amt.signed())
	case genKeynumToVolEnvHold:
		region.AmpEnv.KeynumToHold = float32(amt.signed())
	case genKeynumToVolEnvDecay:
		region.AmpEnv.KeynumToDecay = float32(amt.signed())
	case genKeyRange:
		region.LoKey, region.HiKey = amt.rangeLo(), amt.rangeHi()
	case genVelRange:
		region.LoVel, region.HiVel = amt.rangeLo(), amt.rangeHi()
	case genStartloopAddrsCoarseOff:
		region.LoopStart += uint32(add15())
	case genInitialAttenuation:
		region.Attenuation = float32(amt.signed())
	case genEndloopAddrsCoarseOff:
		region.LoopEnd += uint32(add15())
	case genCoarseTune:
		region.Transpose = int(amt.signed())
	case genFineTune:
		region.Tune = int(amt.signed())
	case genSampleModes:
		switch amt.unsigned() & 3 {
		case 3:
			region.LoopMode = LoopSustain
		case 1:
			region.LoopMode = LoopContinuous
		default:
			region.LoopMode = LoopNone
		}
	case genScaleTuning:
		region.PitchKeytrack = int(amt.signed())
	case genExclusiveClass:
		region.Group = uint32(amt.unsigned())
	case genOverridingRootKey:
		region.PitchKeycenter = int(amt.signed())
	}
	// Everything else (LFOs, filter cutoff/Q, modulation envelope, chorus
	// and reverb sends, keynum/velocity overrides) is outside this
	// engine's scope and left untouched, same as tsf's genMetas table
	// maps them to mode 0.
}

// mergeRegion adds src onto dst for the float/int/uint-add generator
// families only, scaling and clamping each float field once on the sum.
// This is tsf_region_operator's amount==NULL branch.
func mergeRegion(dst, src *Region) {
	dst.Pan = clampScale(dst.Pan+src.Pan, 0.001, -0.5, 0.5)
	dst.AmpEnv.Delay = clampScale(dst.AmpEnv.Delay+src.AmpEnv.Delay, 1, -12000, 5000)
	dst.AmpEnv.Attack = clampScale(dst.AmpEnv.Attack+src.AmpEnv.Attack, 1, -12000, 8000)
	dst.AmpEnv.Hold = clampScale(dst.AmpEnv.Hold+src.AmpEnv.Hold, 1, -12000, 5000)
	dst.AmpEnv.Decay = clampScale(dst.AmpEnv.Decay+src.AmpEnv.Decay, 1, -12000, 8000)
	dst.AmpEnv.Sustain = clampScale(dst.AmpEnv.Sustain+src.AmpEnv.Sustain, 1, 0, 1440)
	dst.AmpEnv.Release = clampScale(dst.AmpEnv.Release+src.AmpEnv.Release, 1, -12000, 8000)
	dst.AmpEnv.KeynumToHold = clampScale(dst.AmpEnv.KeynumToHold+src.AmpEnv.KeynumToHold, 1, -1200, 1200)
	dst.AmpEnv.KeynumToDecay = clampScale(dst.AmpEnv.KeynumToDecay+src.AmpEnv.KeynumToDecay, 1, -1200, 1200)
	dst.Attenuation = clampScale(dst.Attenuation+src.Attenuation, 0.1, 0, 144)

	dst.Transpose += src.Transpose
	dst.Tune += src.Tune
	dst.PitchKeytrack += src.PitchKeytrack

	dst.Offset += src.Offset
	dst.End += src.End
	dst.LoopStart += src.LoopStart
	dst.LoopEnd += src.LoopEnd
}

func clampScale(v, factor, min, max float32) float32 {
	v *= factor
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func (g generator) signed() int16   { return int16(g.amount) }
func (g generator) unsigned() uint16 { return g.amount }
func (g generator) rangeLo() uint8  { return uint8(g.amount) }
func (g generator) rangeHi() uint8  { return uint8(g.amount >> 8) }
