package sf2

import (
	"encoding/binary"
	"io"
)

// readBytes reads n bytes from r, panicking on short read. It is only ever
// called against a bytes.Reader already sized to a validated fixed-record
// chunk, so a short read here means our own record-size accounting is
// wrong, not a malformed file.
func readBytes(r io.Reader, n int) []byte {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		panic(err)
	}
	return buf
}

func readU16(r io.Reader) uint16 {
	return binary.LittleEndian.Uint16(readBytes(r, 2))
}

func readU32(r io.Reader) uint32 {
	return binary.LittleEndian.Uint32(readBytes(r, 4))
}
