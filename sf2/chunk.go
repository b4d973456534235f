package sf2

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/Alextopher/tinysynth/stream"
)

// SoundFont files use the RIFF (Resource Interchange File Format) container.
// chunk holds one RIFF chunk header plus either its buffered data (for
// chunks the parser needs to decode) or nothing (for chunks the parser
// skips over via the stream's skip-forward operation).
type chunk struct {
	id   [4]byte
	size uint32
	data []byte
}

// parseHeader reads only the 8-byte chunk id+size header from src.
func (ck *chunk) parseHeader(src stream.Source) error {
	if _, err := src.Read(ck.id[:]); err != nil {
		return err
	}
	var sizeBuf [4]byte
	if _, err := src.Read(sizeBuf[:]); err != nil {
		return err
	}
	ck.size = binary.LittleEndian.Uint32(sizeBuf[:])
	return nil
}

// readData reads the chunk's size bytes of payload into ck.data.
func (ck *chunk) readData(src stream.Source) error {
	ck.data = make([]byte, ck.size)
	if ck.size == 0 {
		return nil
	}
	_, err := src.Read(ck.data)
	return err
}

// skipData advances src past the chunk's payload without buffering it.
func (ck *chunk) skipData(src stream.Source) error {
	if ck.size == 0 {
		return nil
	}
	if !src.Skip(ck.size) {
		return fmt.Errorf("sf2: failed to skip %d bytes of chunk %q", ck.size, ck.id)
	}
	return nil
}

// expect reads a chunk header and its data, verifying the id matches id.
func (ck *chunk) expect(src stream.Source, id [4]byte) error {
	if err := ck.parseHeader(src); err != nil {
		return err
	}
	if ck.id != id {
		return fmt.Errorf("sf2: expected chunk id %q, got %q", id, ck.id)
	}
	return ck.readData(src)
}

// newReader returns an io.Reader over the chunk's already-buffered data.
func (ck *chunk) newReader() io.Reader {
	return bytes.NewReader(ck.data)
}

// expectLiteral reads len(b) bytes from src and verifies they equal b.
func expectLiteral(src stream.Source, b []byte) error {
	buf := make([]byte, len(b))
	if _, err := src.Read(buf); err != nil {
		return err
	}
	if !bytes.Equal(buf, b) {
		return fmt.Errorf("sf2: expected literal %q, got %q", b, buf)
	}
	return nil
}
