package sf2

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/Alextopher/tinysynth/stream"
)

// riffChunk wraps id+data as one RIFF chunk: 4-byte id, little-endian
// uint32 size, the data itself, and a pad byte if the size is odd.
func riffChunk(id string, data []byte) []byte {
	if len(id) != 4 {
		panic("riffChunk: id must be 4 bytes")
	}
	out := make([]byte, 0, 8+len(data)+1)
	out = append(out, []byte(id)...)
	var sizeBuf [4]byte
	binary.LittleEndian.PutUint32(sizeBuf[:], uint32(len(data)))
	out = append(out, sizeBuf[:]...)
	out = append(out, data...)
	if len(data)%2 == 1 {
		out = append(out, 0)
	}
	return out
}

func listChunk(subtype string, body []byte) []byte {
	return riffChunk("LIST", append([]byte(subtype), body...))
}

func u16leBytes(v uint16) []byte {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return b[:]
}

func u32leBytes(v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return b[:]
}

func name20Bytes(s string) []byte {
	b := make([]byte, 20)
	copy(b, s)
	return b
}

// phdrRecordBytes/instRecordBytes/shdrRecordBytes mirror hydra.go's
// decode switch in reverse, building one raw record each.
func phdrRecordBytes(name string, preset, bank, bagNdx uint16) []byte {
	out := append([]byte{}, name20Bytes(name)...)
	out = append(out, u16leBytes(preset)...)
	out = append(out, u16leBytes(bank)...)
	out = append(out, u16leBytes(bagNdx)...)
	out = append(out, u32leBytes(0)...) // library
	out = append(out, u32leBytes(0)...) // genre
	out = append(out, u32leBytes(0)...) // morphology
	return out
}

func bagRecordBytes(genNdx, modNdx uint16) []byte {
	return append(u16leBytes(genNdx), u16leBytes(modNdx)...)
}

func genRecordBytes(oper, amount uint16) []byte {
	return append(u16leBytes(oper), u16leBytes(amount)...)
}

func instRecordBytes(name string, bagNdx uint16) []byte {
	return append(name20Bytes(name), u16leBytes(bagNdx)...)
}

func shdrRecordBytes(name string, start, end, startLoop, endLoop, sampleRate uint32, originalPitch uint8, pitchCorrection int8, sampleLink, sampleType uint16) []byte {
	out := append([]byte{}, name20Bytes(name)...)
	out = append(out, u32leBytes(start)...)
	out = append(out, u32leBytes(end)...)
	out = append(out, u32leBytes(startLoop)...)
	out = append(out, u32leBytes(endLoop)...)
	out = append(out, u32leBytes(sampleRate)...)
	out = append(out, originalPitch, byte(pitchCorrection))
	out = append(out, u16leBytes(sampleLink)...)
	out = append(out, u16leBytes(sampleType)...)
	return out
}

// buildMinimalSF2 assembles a complete, parseable SF2 byte buffer with a
// single preset wired straight to a single sample, and deliberately no
// INFO list, to exercise Load's RIFF walk, the full hydra decode and the
// flattening pass together, and to confirm the INFO list is optional.
func buildMinimalSF2() []byte {
	samples := make([]int16, 200)
	smplData := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(smplData[i*2:], uint16(s))
	}
	sdta := listChunk("sdta", riffChunk("smpl", smplData))

	phdr := append(phdrRecordBytes("TestPreset", 5, 2, 0), phdrRecordBytes("EOP", 0, 0, 1)...)
	pbag := append(bagRecordBytes(0, 0), bagRecordBytes(1, 0)...)
	pmod := []byte{}
	pgen := genRecordBytes(genInstrument, 0)

	inst := append(instRecordBytes("TestInst", 0), instRecordBytes("EOI", 1)...)
	ibag := append(bagRecordBytes(0, 0), bagRecordBytes(1, 0)...)
	imod := []byte{}
	igen := genRecordBytes(genSampleID, 0)

	shdr := shdrRecordBytes("TestSample", 10, 110, 20, 100, 44100, 60, 0, 0, 1)

	pdtaBody := make([]byte, 0, 256)
	pdtaBody = append(pdtaBody, riffChunk("phdr", phdr)...)
	pdtaBody = append(pdtaBody, riffChunk("pbag", pbag)...)
	pdtaBody = append(pdtaBody, riffChunk("pmod", pmod)...)
	pdtaBody = append(pdtaBody, riffChunk("pgen", pgen)...)
	pdtaBody = append(pdtaBody, riffChunk("inst", inst)...)
	pdtaBody = append(pdtaBody, riffChunk("ibag", ibag)...)
	pdtaBody = append(pdtaBody, riffChunk("imod", imod)...)
	pdtaBody = append(pdtaBody, riffChunk("igen", igen)...)
	pdtaBody = append(pdtaBody, riffChunk("shdr", shdr)...)
	pdta := listChunk("pdta", pdtaBody)

	body := append([]byte("sfbk"), sdta...)
	body = append(body, pdta...)
	return riffChunk("RIFF", body)
}

func TestLoadWithoutInfoList(t *testing.T) {
	font, err := Load(stream.NewMemory(buildMinimalSF2()))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer font.Close()

	if font.Info != (Info{}) {
		t.Errorf("Info = %+v, want zero value (no INFO list was supplied)", font.Info)
	}

	if len(font.Presets) != 1 {
		t.Fatalf("got %d presets, want 1", len(font.Presets))
	}
	p := font.Presets[0]
	if p.Name != "TestPreset" || p.Bank != 2 || p.Number != 5 {
		t.Fatalf("preset header mismatch: %+v", p)
	}
	if len(p.Regions) != 1 {
		t.Fatalf("got %d regions, want 1", len(p.Regions))
	}

	r := p.Regions[0]
	if r.Offset != 10 || r.End != 111 || r.LoopStart != 20 || r.LoopEnd != 99 {
		t.Errorf("region sample pointers = %+v, want Offset=10 End=111 LoopStart=20 LoopEnd=99", r)
	}
	if r.PitchKeycenter != 60 {
		t.Errorf("PitchKeycenter = %d, want 60", r.PitchKeycenter)
	}
	if r.SampleRate != 44100 {
		t.Errorf("SampleRate = %d, want 44100", r.SampleRate)
	}
	if len(font.Samples()) != 200 {
		t.Errorf("got %d samples, want 200", len(font.Samples()))
	}
}

func TestLoadRejectsNonRIFF(t *testing.T) {
	_, err := Load(stream.NewMemory([]byte("not a riff file at all....")))
	if !errors.Is(err, ErrNoHeader) {
		t.Fatalf("err = %v, want ErrNoHeader", err)
	}
}

func TestLoadRejectsMissingSampleData(t *testing.T) {
	phdr := append(phdrRecordBytes("TestPreset", 5, 2, 0), phdrRecordBytes("EOP", 0, 0, 1)...)
	pbag := append(bagRecordBytes(0, 0), bagRecordBytes(1, 0)...)
	pgen := genRecordBytes(genInstrument, 0)
	inst := append(instRecordBytes("TestInst", 0), instRecordBytes("EOI", 1)...)
	ibag := append(bagRecordBytes(0, 0), bagRecordBytes(1, 0)...)
	igen := genRecordBytes(genSampleID, 0)
	shdr := shdrRecordBytes("TestSample", 10, 110, 20, 100, 44100, 60, 0, 0, 1)

	pdtaBody := make([]byte, 0, 256)
	pdtaBody = append(pdtaBody, riffChunk("phdr", phdr)...)
	pdtaBody = append(pdtaBody, riffChunk("pbag", pbag)...)
	pdtaBody = append(pdtaBody, riffChunk("pmod", nil)...)
	pdtaBody = append(pdtaBody, riffChunk("pgen", pgen)...)
	pdtaBody = append(pdtaBody, riffChunk("inst", inst)...)
	pdtaBody = append(pdtaBody, riffChunk("ibag", ibag)...)
	pdtaBody = append(pdtaBody, riffChunk("imod", nil)...)
	pdtaBody = append(pdtaBody, riffChunk("igen", igen)...)
	pdtaBody = append(pdtaBody, riffChunk("shdr", shdr)...)
	pdta := listChunk("pdta", pdtaBody)

	// No sdta list at all: the sample pool is empty.
	body := append([]byte("sfbk"), pdta...)
	full := riffChunk("RIFF", body)

	_, err := Load(stream.NewMemory(full))
	if !errors.Is(err, ErrNoSampleData) {
		t.Fatalf("err = %v, want ErrNoSampleData", err)
	}
}

func TestLoadRejectsIncompleteHydra(t *testing.T) {
	samples := make([]byte, 16)
	sdta := listChunk("sdta", riffChunk("smpl", samples))

	// pdta present but missing every hydra sub-chunk.
	pdta := listChunk("pdta", nil)

	body := append([]byte("sfbk"), sdta...)
	body = append(body, pdta...)
	full := riffChunk("RIFF", body)

	_, err := Load(stream.NewMemory(full))
	if !errors.Is(err, ErrIncomplete) {
		t.Fatalf("err = %v, want ErrIncomplete", err)
	}
}
