package sf2

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Alextopher/tinysynth/stream"
)

// Info holds the bank metadata from the SF2 INFO chunk. The engine never
// reads these fields to make playback decisions; they exist so a host
// program can show the user what it loaded.
type Info struct {
	VersionMajor, VersionMinor uint16
	Engine                     string
	Name                       string
	ROM                        string
	ROMVerMajor, ROMVerMinor   uint16
	CreationDate               string
	Engineers                  string
	Product                    string
	Copyright                  string
	Comments                   string
	Software                   string
}

var infoChunkIDs = map[[4]byte]bool{
	{'i', 'f', 'i', 'l'}: false,
	{'i', 's', 'n', 'g'}: false,
	{'I', 'N', 'A', 'M'}: false,
	{'i', 'r', 'o', 'm'}: false,
	{'i', 'v', 'e', 'r'}: false,
	{'I', 'C', 'R', 'D'}: false,
	{'I', 'E', 'N', 'G'}: false,
	{'I', 'P', 'R', 'D'}: false,
	{'I', 'C', 'O', 'P'}: false,
	{'I', 'C', 'M', 'T'}: false,
	{'I', 'S', 'F', 'T'}: false,
}

// readInfo parses the body of an INFO list chunk, given the caller has
// already consumed the "INFO" sub-type literal. payloadSize bounds how
// many bytes of src still belong to this list.
func readInfo(src stream.Source, payloadSize uint32) (*Info, error) {
	remaining := int64(payloadSize)

	info := &Info{}
	seen := make(map[[4]byte]bool, len(infoChunkIDs))

	for remaining > 0 {
		var ck chunk
		if err := ck.parseHeader(src); err != nil {
			return nil, fmt.Errorf("sf2: reading INFO chunk header: %w", err)
		}
		remaining -= 8 + int64(ck.size) + int64(ck.size&1)

		if _, known := infoChunkIDs[ck.id]; !known {
			logrus.WithField("chunk", string(ck.id[:])).Debug("sf2: skipping unknown INFO chunk")
			if err := ck.skipData(src); err != nil {
				return nil, err
			}
			if ck.size&1 == 1 && !src.Skip(1) {
				return nil, fmt.Errorf("sf2: failed to skip INFO pad byte")
			}
			continue
		}
		if seen[ck.id] {
			return nil, fmt.Errorf("sf2: duplicate INFO chunk %q", ck.id)
		}
		seen[ck.id] = true

		if err := ck.readData(src); err != nil {
			return nil, err
		}
		if ck.size&1 == 1 && !src.Skip(1) {
			return nil, fmt.Errorf("sf2: failed to skip INFO pad byte")
		}

		switch ck.id {
		case [4]byte{'i', 'f', 'i', 'l'}:
			if ck.size != 4 {
				return nil, fmt.Errorf("sf2: ifil subchunk must contain 4 bytes")
			}
			info.VersionMajor = uint16(ck.data[1])<<8 | uint16(ck.data[0])
			info.VersionMinor = uint16(ck.data[3])<<8 | uint16(ck.data[2])
		case [4]byte{'i', 's', 'n', 'g'}:
			info.Engine = trimNulls(ck.data)
		case [4]byte{'I', 'N', 'A', 'M'}:
			info.Name = trimNulls(ck.data)
		case [4]byte{'i', 'r', 'o', 'm'}:
			info.ROM = trimNulls(ck.data)
		case [4]byte{'i', 'v', 'e', 'r'}:
			if ck.size != 4 {
				return nil, fmt.Errorf("sf2: iver subchunk must contain 4 bytes")
			}
			info.ROMVerMajor = uint16(ck.data[1])<<8 | uint16(ck.data[0])
			info.ROMVerMinor = uint16(ck.data[3])<<8 | uint16(ck.data[2])
		case [4]byte{'I', 'C', 'R', 'D'}:
			info.CreationDate = trimNulls(ck.data)
		case [4]byte{'I', 'E', 'N', 'G'}:
			info.Engineers = trimNulls(ck.data)
		case [4]byte{'I', 'P', 'R', 'D'}:
			info.Product = trimNulls(ck.data)
		case [4]byte{'I', 'C', 'O', 'P'}:
			info.Copyright = trimNulls(ck.data)
		case [4]byte{'I', 'C', 'M', 'T'}:
			info.Comments = trimNulls(ck.data)
		case [4]byte{'I', 'S', 'F', 'T'}:
			info.Software = trimNulls(ck.data)
		}
	}

	if !seen[[4]byte{'i', 's', 'n', 'g'}] {
		info.Engine = "EMU8000"
	}

	return info, nil
}

func trimNulls(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
