// Package sf2 parses SoundFont 2 (.sf2) files: the RIFF container, its
// INFO/sdta/pdta lists, and the nine-table "hydra" describing how
// presets, instruments and samples link together. Load flattens all of
// that into a plain slice of playable Regions per preset, discarding
// the hydra once flattening is done.
package sf2

import (
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/Alextopher/tinysynth/stream"
)

// Soundfont is an immutable, loaded SoundFont bank. Clone hands back a
// cheap shallow copy that shares the underlying sample pool; the pool
// is only released once every clone has been Closed.
type Soundfont struct {
	Info    Info
	Presets []Preset

	data   *sharedFontData
	closed bool
}

type sharedFontData struct {
	refs    int32
	samples []int16
}

// Load parses a complete SoundFont from src and flattens every preset's
// regions, ready for playback.
func Load(src stream.Source) (*Soundfont, error) {
	var top chunk
	if err := top.parseHeader(src); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoHeader, err)
	}
	if top.id != [4]byte{'R', 'I', 'F', 'F'} {
		return nil, ErrNoHeader
	}
	if err := expectLiteral(src, []byte("sfbk")); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoHeader, err)
	}
	remaining := int64(top.size) - 4

	var info *Info
	var samples []int16
	var h *hydra

	for remaining > 0 {
		var list chunk
		if err := list.parseHeader(src); err != nil {
			return nil, fmt.Errorf("sf2: reading top-level chunk header: %w", err)
		}
		remaining -= 8 + int64(list.size) + int64(list.size&1)

		if list.id != [4]byte{'L', 'I', 'S', 'T'} {
			logrus.WithField("chunk", string(list.id[:])).Debug("sf2: skipping non-LIST top-level chunk")
			if err := list.skipData(src); err != nil {
				return nil, err
			}
			if list.size&1 == 1 && !src.Skip(1) {
				return nil, fmt.Errorf("sf2: failed to skip top-level pad byte")
			}
			continue
		}

		var subtype [4]byte
		if _, err := src.Read(subtype[:]); err != nil {
			return nil, fmt.Errorf("sf2: reading LIST subtype: %w", err)
		}
		payloadSize := list.size - 4

		switch subtype {
		case [4]byte{'I', 'N', 'F', 'O'}:
			var err error
			info, err = readInfo(src, payloadSize)
			if err != nil {
				return nil, err
			}
		case [4]byte{'s', 'd', 't', 'a'}:
			var err error
			samples, err = readSamplePool(src, payloadSize)
			if err != nil {
				return nil, err
			}
		case [4]byte{'p', 'd', 't', 'a'}:
			var err error
			h, err = readHydra(src, payloadSize)
			if err != nil {
				return nil, err
			}
		default:
			logrus.WithField("subtype", string(subtype[:])).Debug("sf2: skipping unknown LIST subtype")
			if !src.Skip(payloadSize) {
				return nil, fmt.Errorf("sf2: failed to skip LIST subtype %q", subtype)
			}
		}

		if list.size&1 == 1 && !src.Skip(1) {
			return nil, fmt.Errorf("sf2: failed to skip top-level pad byte")
		}
	}

	if len(samples) == 0 {
		return nil, ErrNoSampleData
	}
	if h == nil {
		return nil, fmt.Errorf("%w: missing pdta list", ErrIncomplete)
	}

	presets, err := flattenPresets(h, uint32(len(samples)))
	if err != nil {
		return nil, err
	}

	// INFO is metadata only, never required to play a bank; tsf_load
	// itself never parses it. A font missing the INFO list (or with a
	// truncated one) still loads, just with a zero-value Info.
	if info == nil {
		info = &Info{}
	}

	return &Soundfont{
		Info:    *info,
		Presets: presets,
		data:    &sharedFontData{refs: 1, samples: samples},
	}, nil
}

// NewForTesting builds a Soundfont directly from an already-flattened
// preset list and sample pool, bypassing RIFF parsing entirely. It
// exists so packages that consume a *Soundfont can unit test against
// hand-built presets without a real .sf2 file on disk.
func NewForTesting(presets []Preset, samples []int16) *Soundfont {
	return &Soundfont{
		Presets: presets,
		data:    &sharedFontData{refs: 1, samples: samples},
	}
}

// Samples returns the shared 16-bit PCM pool backing every region's
// sample coordinates. Callers must not modify it.
func (sf *Soundfont) Samples() []int16 {
	return sf.data.samples
}

// Clone returns a shallow copy sharing the same underlying sample pool
// and preset list. The clone must be Closed independently of sf.
func (sf *Soundfont) Clone() *Soundfont {
	atomic.AddInt32(&sf.data.refs, 1)
	return &Soundfont{
		Info:    sf.Info,
		Presets: sf.Presets,
		data:    sf.data,
	}
}

// Close releases this handle's share of the sample pool. Once every
// clone sharing the pool has been Closed, the pool is dropped.
func (sf *Soundfont) Close() {
	if sf.closed {
		return
	}
	sf.closed = true
	if atomic.AddInt32(&sf.data.refs, -1) == 0 {
		sf.data.samples = nil
	}
}

// PresetIndex returns the index into Presets matching bank/preset, or
// -1 if none does.
func (sf *Soundfont) PresetIndex(bank, preset uint16) int {
	for i := range sf.Presets {
		if sf.Presets[i].Bank == bank && sf.Presets[i].Number == preset {
			return i
		}
	}
	return -1
}

// PresetIndexByName returns the index of the first preset whose name
// matches, or -1 if none does.
func (sf *Soundfont) PresetIndexByName(name string) int {
	for i := range sf.Presets {
		if sf.Presets[i].Name == name {
			return i
		}
	}
	return -1
}
