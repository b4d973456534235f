// Package output turns a *tinysynth.Synth into a byte stream ready for
// a sound card: fixed-point PCM at the engine's native 11025Hz, mono,
// resampled up to an arbitrary output rate (and optionally duplicated
// to stereo) via github.com/tphakala/go-audio-resampling.
package output

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"

	"github.com/Alextopher/tinysynth"
	"github.com/Alextopher/tinysynth/voice"
)

// Format describes a raw 16-bit PCM stream's layout.
type Format struct {
	SampleRate int
	Stereo     bool
}

// SynthSource is an io.Reader that pulls audio straight out of a
// *tinysynth.Synth, one native-rate render block at a time, as
// little-endian mono int16 bytes.
type SynthSource struct {
	synth   *tinysynth.Synth
	block   [voice.BlockSize]int16
	pending []byte
}

// NewSynthSource wraps synth as a raw native-rate PCM16 mono reader.
func NewSynthSource(synth *tinysynth.Synth) *SynthSource {
	return &SynthSource{synth: synth}
}

// Read implements io.Reader, rendering further native-rate blocks as
// needed to fill p.
func (s *SynthSource) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(s.pending) == 0 {
			s.synth.RenderShort(s.block[:])
			s.pending = int16SliceToBytes(s.block[:])
		}
		copied := copy(p[n:], s.pending)
		s.pending = s.pending[copied:]
		n += copied
	}
	return n, nil
}

func int16SliceToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, v := range samples {
		out[i*2] = byte(v)
		out[i*2+1] = byte(v >> 8)
	}
	return out
}

// Stream wraps a SynthSource with sample-rate conversion to dstFmt and,
// for Stereo outputs, duplicates the engine's mono signal across both
// channels (tinysynth's per-voice pan factors are consumed upstream by
// a caller that wants true stereo; Stream's resampler stage here is
// channel-count only, not panning).
type Stream struct {
	src        *SynthSource
	dstFmt     Format
	resampler  resampling.Resampler
	leftover   []byte
}

// NewStream builds a resampled reader for synth's output at dstFmt.
func NewStream(synth *tinysynth.Synth, dstFmt Format) (*Stream, error) {
	config := &resampling.Config{
		InputRate:  float64(voice.SampleRate),
		OutputRate: float64(dstFmt.SampleRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	}
	rs, err := resampling.New(config)
	if err != nil {
		return nil, fmt.Errorf("output: creating resampler: %w", err)
	}
	return &Stream{
		src:       NewSynthSource(synth),
		dstFmt:    dstFmt,
		resampler: rs,
	}, nil
}

// Read implements io.Reader, producing resampled (and, if dstFmt is
// stereo, channel-duplicated) PCM16 bytes.
func (s *Stream) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	if len(s.leftover) > 0 {
		n := copy(p, s.leftover)
		s.leftover = s.leftover[n:]
		return n, nil
	}

	srcBuf := make([]byte, voice.BlockSize*2)
	rn, err := s.src.Read(srcBuf)
	if rn == 0 {
		return 0, err
	}

	input := make([]float64, rn/2)
	for i := range input {
		sample := int16(srcBuf[i*2]) | int16(srcBuf[i*2+1])<<8
		input[i] = float64(sample) / 32768.0
	}

	resampled, rerr := s.resampler.Process(input)
	if rerr != nil {
		return 0, fmt.Errorf("output: resampling: %w", rerr)
	}

	monoBytes := make([]byte, len(resampled)*2)
	for i, v := range resampled {
		sample := clampFloatToInt16(v)
		monoBytes[i*2] = byte(sample)
		monoBytes[i*2+1] = byte(sample >> 8)
	}

	out := monoBytes
	if s.dstFmt.Stereo {
		out = make([]byte, len(monoBytes)*2)
		for i := 0; i < len(monoBytes); i += 2 {
			copy(out[i*2:], monoBytes[i:i+2])
			copy(out[i*2+2:], monoBytes[i:i+2])
		}
	}

	n := copy(p, out)
	if n < len(out) {
		s.leftover = append(s.leftover, out[n:]...)
	}
	return n, nil
}

func clampFloatToInt16(v float64) int16 {
	switch {
	case v > 1.0:
		return 32767
	case v < -1.0:
		return -32768
	default:
		return int16(v * 32767.0)
	}
}
