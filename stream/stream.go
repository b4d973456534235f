// Package stream provides the abstract byte source the SF2 parser reads
// from: a read-exact and a skip-forward operation, with a memory-backed
// and a file-backed implementation supplied for callers.
package stream

import (
	"bytes"
	"io"
	"os"
)

// Source is the minimal byte source the SF2 parser needs. Short reads and
// failed skips are format errors that abort the load; no backward seeking
// is required.
type Source interface {
	// Read fills buf completely or returns an error. It never returns a
	// short read without an error, mirroring io.ReadFull semantics.
	Read(buf []byte) (int, error)

	// Skip advances the source by n bytes, returning false if n bytes were
	// not available.
	Skip(n uint32) bool
}

// memorySource is a Source backed by an in-memory byte slice.
type memorySource struct {
	r *bytes.Reader
}

// NewMemory returns a Source that reads from b.
func NewMemory(b []byte) Source {
	return &memorySource{r: bytes.NewReader(b)}
}

func (m *memorySource) Read(buf []byte) (int, error) {
	return io.ReadFull(m.r, buf)
}

func (m *memorySource) Skip(n uint32) bool {
	if int64(n) > int64(m.r.Len()) {
		return false
	}
	_, err := m.r.Seek(int64(n), io.SeekCurrent)
	return err == nil
}

// fileSource is a Source backed by an *os.File, advancing strictly
// forward via Read + discard (no backward seeking is ever required).
type fileSource struct {
	f *os.File
}

// NewFile returns a Source that reads from f.
func NewFile(f *os.File) Source {
	return &fileSource{f: f}
}

func (fs *fileSource) Read(buf []byte) (int, error) {
	return io.ReadFull(fs.f, buf)
}

func (fs *fileSource) Skip(n uint32) bool {
	_, err := io.CopyN(io.Discard, fs.f, int64(n))
	return err == nil
}
