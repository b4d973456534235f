package sf2

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Alextopher/tinysynth/stream"
)

// readSamplePool parses the body of an sdta list chunk, given the caller
// has already consumed the "sdta" sub-type literal, returning the raw
// 16-bit PCM samples from its smpl sub-chunk. Any other children (sm24
// 24-bit extension data, reserved chunks) are skipped; this engine only
// ever plays back the 16-bit pool.
func readSamplePool(src stream.Source, payloadSize uint32) ([]int16, error) {
	remaining := int64(payloadSize)

	var samples []int16
	haveSmpl := false

	for remaining > 0 {
		var ck chunk
		if err := ck.parseHeader(src); err != nil {
			return nil, fmt.Errorf("sf2: reading sdta chunk header: %w", err)
		}
		remaining -= 8 + int64(ck.size) + int64(ck.size&1)

		if ck.id == [4]byte{'s', 'm', 'p', 'l'} && ck.size > 0 {
			if err := ck.readData(src); err != nil {
				return nil, err
			}
			samples = make([]int16, ck.size/2)
			for i := range samples {
				samples[i] = int16(ck.data[i*2]) | int16(ck.data[i*2+1])<<8
			}
			haveSmpl = true
		} else {
			logrus.WithField("chunk", string(ck.id[:])).Debug("sf2: skipping sdta chunk")
			if err := ck.skipData(src); err != nil {
				return nil, err
			}
		}
		if ck.size&1 == 1 && !src.Skip(1) {
			return nil, fmt.Errorf("sf2: failed to skip sdta pad byte")
		}
	}

	if !haveSmpl || len(samples) == 0 {
		return nil, fmt.Errorf("sf2: %w", ErrNoSampleData)
	}
	return samples, nil
}
