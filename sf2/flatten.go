package sf2

import "fmt"

// Preset is one flattened SoundFont preset: a name, a bank/program pair
// and every region a NoteOn needs to scan to find playable samples.
type Preset struct {
	Name    string
	Bank    uint16
	Number  uint16
	Regions []Region
}

// flattenPresets walks the hydra's nine tables and builds the list of
// playable presets, each already expanded into flat Region slices. This
// follows tsf_load_presets exactly: a first counting pass sizes each
// preset's region slice, then a second pass fills it in, applying the
// preset's own generators as an absolute set, the instrument's
// generators as an absolute set on top of a separate region, and
// merging the two (plus the sample's own start/end/loop coordinates)
// only once a SampleID generator is reached.
//
// Every hydra table carries a trailing terminator record whose only
// useful field is the *Ndx that bounds the real preceding record's
// range, so all loops below run to len(table)-1.
func flattenPresets(h *hydra, fontSampleCount uint32) ([]Preset, error) {
	if len(h.phdr) < 2 {
		return nil, fmt.Errorf("%w: phdr must contain at least one preset and its terminator", ErrIncomplete)
	}
	numPresets := len(h.phdr) - 1
	presets := make([]Preset, numPresets)

	for pi := 0; pi < numPresets; pi++ {
		phdr := h.phdr[pi]

		sortedIndex := 0
		for oi := 0; oi < numPresets; oi++ {
			other := h.phdr[oi]
			switch {
			case oi == pi || other.bank > phdr.bank:
				continue
			case other.bank < phdr.bank:
				sortedIndex++
			case other.preset > phdr.preset:
				continue
			case other.preset < phdr.preset:
				sortedIndex++
			case oi < pi:
				sortedIndex++
			}
		}

		pbagLo, pbagHi, err := bagRange(int(phdr.presetBagNdx), int(h.phdr[pi+1].presetBagNdx), len(h.pbag))
		if err != nil {
			return nil, fmt.Errorf("preset %q: %w", trimNulls(phdr.name[:]), err)
		}

		regionCount, err := countRegions(h, pbagLo, pbagHi)
		if err != nil {
			return nil, fmt.Errorf("preset %q: %w", trimNulls(phdr.name[:]), err)
		}

		regions := make([]Region, 0, regionCount)
		global := clearRegion(true)

		for bi := pbagLo; bi < pbagHi; bi++ {
			presetRegion := global
			hadInstrument := false

			genLo, genHi, err := bagRange(int(h.pbag[bi].genNdx), int(h.pbag[bi+1].genNdx), len(h.pgen))
			if err != nil {
				return nil, fmt.Errorf("preset %q: %w", trimNulls(phdr.name[:]), err)
			}

			for gi := genLo; gi < genHi; gi++ {
				pgen := h.pgen[gi]
				if pgen.oper != genInstrument {
					applyGenerator(&presetRegion, pgen.oper, pgen)
					continue
				}
				hadInstrument = true
				instIdx := int(pgen.unsigned())
				if instIdx >= len(h.inst)-1 {
					continue
				}
				built, err := flattenInstrument(h, instIdx, presetRegion, fontSampleCount)
				if err != nil {
					return nil, err
				}
				regions = append(regions, built...)
			}

			if bi == pbagLo && !hadInstrument {
				global = presetRegion
			}
		}

		presets[sortedIndex] = Preset{
			Name:    trimNulls(phdr.name[:]),
			Bank:    phdr.bank,
			Number:  phdr.preset,
			Regions: regions,
		}
	}

	return presets, nil
}

// bagRange validates and returns [lo, hi) into a bag/generator table.
func bagRange(lo, hi, tableLen int) (int, int, error) {
	if lo < 0 || hi > tableLen || lo > hi {
		return 0, 0, fmt.Errorf("%w: invalid index range [%d,%d) into table of %d", ErrIncomplete, lo, hi, tableLen)
	}
	return lo, hi, nil
}

// countRegions performs tsf_load_presets' counting pass: how many
// instrument zones carry a SampleID whose key/velocity range intersects
// the enclosing preset zone's range.
func countRegions(h *hydra, pbagLo, pbagHi int) (int, error) {
	count := 0
	for bi := pbagLo; bi < pbagHi; bi++ {
		plokey, phikey, plovel, phivel := uint8(0), uint8(127), uint8(0), uint8(127)

		genLo, genHi, err := bagRange(int(h.pbag[bi].genNdx), int(h.pbag[bi+1].genNdx), len(h.pgen))
		if err != nil {
			return 0, err
		}

		for gi := genLo; gi < genHi; gi++ {
			pgen := h.pgen[gi]
			switch pgen.oper {
			case genKeyRange:
				plokey, phikey = pgen.rangeLo(), pgen.rangeHi()
			case genVelRange:
				plovel, phivel = pgen.rangeLo(), pgen.rangeHi()
			case genInstrument:
				instIdx := int(pgen.unsigned())
				if instIdx >= len(h.inst)-1 {
					continue
				}
				n, err := countInstrumentRegions(h, instIdx, plokey, phikey, plovel, phivel)
				if err != nil {
					return 0, err
				}
				count += n
			}
		}
	}
	return count, nil
}

func countInstrumentRegions(h *hydra, instIdx int, plokey, phikey, plovel, phivel uint8) (int, error) {
	inst := h.inst[instIdx]
	ibagLo, ibagHi, err := bagRange(int(inst.instBagNdx), int(h.inst[instIdx+1].instBagNdx), len(h.ibag))
	if err != nil {
		return 0, err
	}

	count := 0
	for bi := ibagLo; bi < ibagHi; bi++ {
		ilokey, ihikey, ilovel, ihivel := uint8(0), uint8(127), uint8(0), uint8(127)

		genLo, genHi, err := bagRange(int(h.ibag[bi].genNdx), int(h.ibag[bi+1].genNdx), len(h.igen))
		if err != nil {
			return 0, err
		}

		for gi := genLo; gi < genHi; gi++ {
			igen := h.igen[gi]
			switch igen.oper {
			case genKeyRange:
				ilokey, ihikey = igen.rangeLo(), igen.rangeHi()
			case genVelRange:
				ilovel, ihivel = igen.rangeLo(), igen.rangeHi()
			case genSampleID:
				if ihikey >= plokey && ilokey <= phikey && ihivel >= plovel && ilovel <= phivel {
					count++
				}
			}
		}
	}
	return count, nil
}

// flattenInstrument builds the regions contributed by one Instrument
// generator within a preset zone: each instrument zone with a SampleID
// becomes one Region, merged with presetRegion and fixed up against its
// sample header.
func flattenInstrument(h *hydra, instIdx int, presetRegion Region, fontSampleCount uint32) ([]Region, error) {
	inst := h.inst[instIdx]
	ibagLo, ibagHi, err := bagRange(int(inst.instBagNdx), int(h.inst[instIdx+1].instBagNdx), len(h.ibag))
	if err != nil {
		return nil, err
	}

	instRegion := clearRegion(false)
	var out []Region

	for bi := ibagLo; bi < ibagHi; bi++ {
		zoneRegion := instRegion
		hadSampleID := false

		genLo, genHi, err := bagRange(int(h.ibag[bi].genNdx), int(h.ibag[bi+1].genNdx), len(h.igen))
		if err != nil {
			return nil, err
		}

		for gi := genLo; gi < genHi; gi++ {
			igen := h.igen[gi]
			if igen.oper != genSampleID {
				applyGenerator(&zoneRegion, igen.oper, igen)
				continue
			}

			// Preset zone's key/vel ranges filter which zone regions pass through.
			if zoneRegion.HiKey < presetRegion.LoKey || zoneRegion.LoKey > presetRegion.HiKey {
				continue
			}
			if zoneRegion.HiVel < presetRegion.LoVel || zoneRegion.LoVel > presetRegion.HiVel {
				continue
			}
			if presetRegion.LoKey > zoneRegion.LoKey {
				zoneRegion.LoKey = presetRegion.LoKey
			}
			if presetRegion.HiKey < zoneRegion.HiKey {
				zoneRegion.HiKey = presetRegion.HiKey
			}
			if presetRegion.LoVel > zoneRegion.LoVel {
				zoneRegion.LoVel = presetRegion.LoVel
			}
			if presetRegion.HiVel < zoneRegion.HiVel {
				zoneRegion.HiVel = presetRegion.HiVel
			}

			mergeRegion(&zoneRegion, &presetRegion)
			envelopeToSeconds(&zoneRegion.AmpEnv, true)

			sampleIdx := int(igen.unsigned())
			if sampleIdx < 0 || sampleIdx >= len(h.shdr) {
				return nil, fmt.Errorf("%w: SampleID %d out of range", ErrIncomplete, sampleIdx)
			}
			shdr := h.shdr[sampleIdx]

			zoneRegion.Offset += shdr.start
			zoneRegion.End += shdr.end
			zoneRegion.LoopStart += shdr.startLoop
			zoneRegion.LoopEnd += shdr.endLoop
			if shdr.endLoop > 0 {
				zoneRegion.LoopEnd--
			}
			if zoneRegion.LoopEnd > fontSampleCount {
				zoneRegion.LoopEnd = fontSampleCount
			}
			if zoneRegion.PitchKeycenter == -1 {
				zoneRegion.PitchKeycenter = int(shdr.originalPitch)
			}
			zoneRegion.Tune += int(shdr.pitchCorrection)
			zoneRegion.SampleRate = shdr.sampleRate
			if zoneRegion.End != 0 && zoneRegion.End < fontSampleCount {
				zoneRegion.End++
			} else {
				zoneRegion.End = fontSampleCount
			}

			out = append(out, zoneRegion)
			hadSampleID = true
		}

		if bi == ibagLo && !hadSampleID {
			instRegion = zoneRegion
		}
	}

	return out, nil
}
