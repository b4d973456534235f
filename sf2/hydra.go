package sf2

import (
	"encoding/binary"
	"fmt"

	"github.com/Alextopher/tinysynth/stream"
)

// The hydra is the collective name for the nine interlinked SF2 metadata
// tables. Each has a fixed record size; readHydra rejects a chunk whose
// size isn't an exact multiple of its record size and fails the whole
// load if any of the nine is never seen (spec.md §4.2).

type presetHeader struct {
	name         [20]byte
	preset       uint16
	bank         uint16
	presetBagNdx uint16
	library      uint32
	genre        uint32
	morphology   uint32
}

type bag struct {
	genNdx uint16
	modNdx uint16
}

type modulator struct {
	srcOper     uint16
	destOper    uint16
	amount      int16
	amtSrcOper  uint16
	transOper   uint16
}

type generator struct {
	oper   uint16
	amount uint16 // reinterpreted per-generator as signed/unsigned/range
}

type instHeader struct {
	name       [20]byte
	instBagNdx uint16
}

type sampleHeader struct {
	name            [20]byte
	start           uint32
	end             uint32
	startLoop       uint32
	endLoop         uint32
	sampleRate      uint32
	originalPitch   uint8
	pitchCorrection int8
	sampleLink      uint16
	sampleType      uint16
}

// hydra holds the nine raw tables for the duration of the flattening
// pass; none of it is retained on the built *Soundfont.
type hydra struct {
	phdr []presetHeader
	pbag []bag
	pmod []modulator
	pgen []generator
	inst []instHeader
	ibag []bag
	imod []modulator
	igen []generator
	shdr []sampleHeader
}

const (
	phdrRecordSize = 38
	bagRecordSize  = 4
	modRecordSize  = 10
	genRecordSize  = 4
	instRecordSize = 22
	shdrRecordSize = 46
)

// readHydra parses the body of a pdta list chunk into the nine hydra
// tables, given the caller has already consumed the "pdta" sub-type
// literal.
func readHydra(src stream.Source, payloadSize uint32) (*hydra, error) {
	remaining := int64(payloadSize)

	h := &hydra{}
	seen := make(map[[4]byte]bool, 9)

	for remaining > 0 {
		var ck chunk
		if err := ck.parseHeader(src); err != nil {
			return nil, fmt.Errorf("sf2: reading pdta chunk header: %w", err)
		}
		remaining -= 8 + int64(ck.size) + int64(ck.size&1)

		switch ck.id {
		case [4]byte{'p', 'h', 'd', 'r'}, [4]byte{'p', 'b', 'a', 'g'}, [4]byte{'p', 'm', 'o', 'd'},
			[4]byte{'p', 'g', 'e', 'n'}, [4]byte{'i', 'n', 's', 't'}, [4]byte{'i', 'b', 'a', 'g'},
			[4]byte{'i', 'm', 'o', 'd'}, [4]byte{'i', 'g', 'e', 'n'}, [4]byte{'s', 'h', 'd', 'r'}:
			if err := ck.readData(src); err != nil {
				return nil, err
			}
			seen[ck.id] = true
			if err := h.decode(ck); err != nil {
				return nil, err
			}
		default:
			if err := ck.skipData(src); err != nil {
				return nil, err
			}
		}
		if ck.size&1 == 1 && !src.Skip(1) {
			return nil, fmt.Errorf("sf2: failed to skip pdta pad byte")
		}
	}

	for _, id := range [][4]byte{
		{'p', 'h', 'd', 'r'}, {'p', 'b', 'a', 'g'}, {'p', 'm', 'o', 'd'}, {'p', 'g', 'e', 'n'},
		{'i', 'n', 's', 't'}, {'i', 'b', 'a', 'g'}, {'i', 'm', 'o', 'd'}, {'i', 'g', 'e', 'n'}, {'s', 'h', 'd', 'r'},
	} {
		if !seen[id] {
			return nil, fmt.Errorf("%w: missing %q chunk", ErrIncomplete, id)
		}
	}

	return h, nil
}

// decode dispatches a fully-buffered hydra chunk into its table.
func (h *hydra) decode(ck chunk) error {
	switch ck.id {
	case [4]byte{'p', 'h', 'd', 'r'}:
		recs, err := fixedRecords(ck, phdrRecordSize)
		if err != nil {
			return err
		}
		h.phdr = make([]presetHeader, recs)
		r := ck.newReader()
		for i := range h.phdr {
			copy(h.phdr[i].name[:], readBytes(r, 20))
			h.phdr[i].preset = readU16(r)
			h.phdr[i].bank = readU16(r)
			h.phdr[i].presetBagNdx = readU16(r)
			h.phdr[i].library = readU32(r)
			h.phdr[i].genre = readU32(r)
			h.phdr[i].morphology = readU32(r)
		}
	case [4]byte{'p', 'b', 'a', 'g'}:
		recs, err := fixedRecords(ck, bagRecordSize)
		if err != nil {
			return err
		}
		h.pbag = decodeBags(ck.data, recs)
	case [4]byte{'p', 'm', 'o', 'd'}:
		recs, err := fixedRecords(ck, modRecordSize)
		if err != nil {
			return err
		}
		h.pmod = decodeModulators(ck.data, recs)
	case [4]byte{'p', 'g', 'e', 'n'}:
		recs, err := fixedRecords(ck, genRecordSize)
		if err != nil {
			return err
		}
		h.pgen = decodeGenerators(ck.data, recs)
	case [4]byte{'i', 'n', 's', 't'}:
		recs, err := fixedRecords(ck, instRecordSize)
		if err != nil {
			return err
		}
		h.inst = make([]instHeader, recs)
		r := ck.newReader()
		for i := range h.inst {
			copy(h.inst[i].name[:], readBytes(r, 20))
			h.inst[i].instBagNdx = readU16(r)
		}
	case [4]byte{'i', 'b', 'a', 'g'}:
		recs, err := fixedRecords(ck, bagRecordSize)
		if err != nil {
			return err
		}
		h.ibag = decodeBags(ck.data, recs)
	case [4]byte{'i', 'm', 'o', 'd'}:
		recs, err := fixedRecords(ck, modRecordSize)
		if err != nil {
			return err
		}
		h.imod = decodeModulators(ck.data, recs)
	case [4]byte{'i', 'g', 'e', 'n'}:
		recs, err := fixedRecords(ck, genRecordSize)
		if err != nil {
			return err
		}
		h.igen = decodeGenerators(ck.data, recs)
	case [4]byte{'s', 'h', 'd', 'r'}:
		recs, err := fixedRecords(ck, shdrRecordSize)
		if err != nil {
			return err
		}
		h.shdr = make([]sampleHeader, recs)
		r := ck.newReader()
		for i := range h.shdr {
			copy(h.shdr[i].name[:], readBytes(r, 20))
			h.shdr[i].start = readU32(r)
			h.shdr[i].end = readU32(r)
			h.shdr[i].startLoop = readU32(r)
			h.shdr[i].endLoop = readU32(r)
			h.shdr[i].sampleRate = readU32(r)
			h.shdr[i].originalPitch = readBytes(r, 1)[0]
			h.shdr[i].pitchCorrection = int8(readBytes(r, 1)[0])
			h.shdr[i].sampleLink = readU16(r)
			h.shdr[i].sampleType = readU16(r)
		}
	}
	return nil
}

func fixedRecords(ck chunk, recordSize int) (int, error) {
	if int(ck.size)%recordSize != 0 {
		return 0, fmt.Errorf("sf2: invalid %q chunk size %d (record size %d)", ck.id, ck.size, recordSize)
	}
	return int(ck.size) / recordSize, nil
}

func decodeBags(data []byte, n int) []bag {
	out := make([]bag, n)
	for i := range out {
		out[i].genNdx = binary.LittleEndian.Uint16(data[4*i:])
		out[i].modNdx = binary.LittleEndian.Uint16(data[4*i+2:])
	}
	return out
}

func decodeGenerators(data []byte, n int) []generator {
	out := make([]generator, n)
	for i := range out {
		out[i].oper = binary.LittleEndian.Uint16(data[4*i:])
		out[i].amount = binary.LittleEndian.Uint16(data[4*i+2:])
	}
	return out
}

func decodeModulators(data []byte, n int) []modulator {
	out := make([]modulator, n)
	for i := range out {
		out[i].srcOper = binary.LittleEndian.Uint16(data[10*i:])
		out[i].destOper = binary.LittleEndian.Uint16(data[10*i+2:])
		out[i].amount = int16(binary.LittleEndian.Uint16(data[10*i+4:]))
		out[i].amtSrcOper = binary.LittleEndian.Uint16(data[10*i+6:])
		out[i].transOper = binary.LittleEndian.Uint16(data[10*i+8:])
	}
	return out
}
