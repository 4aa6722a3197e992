// Package protocol implements the relay's binary wire format: a fixed
// 20-byte header followed by a typed, variable-length body. All
// multi-byte integers are little-endian.
package protocol

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

// HeaderSize is the fixed on-wire size of a packet header, in bytes.
const HeaderSize = 20

// Tag identifies the wire encoding of a packet's body.
type Tag int16

const (
	TagUnknown     Tag = 0
	TagInit        Tag = 1
	TagPlayer      Tag = 2
	TagCap         Tag = 3
	TagGame        Tag = 4
	TagTag         Tag = 5
	TagConnect     Tag = 6
	TagDisconnect  Tag = 7
	TagCostume     Tag = 8
	TagShine       Tag = 9
	TagCapture     Tag = 10
	TagChangeStage Tag = 11
)

// Header is the fixed 20-byte prefix of every frame on the wire.
type Header struct {
	ID     uuid.UUID
	Tag    Tag
	Length int16
}

// encodeHeader writes a Header's 20 bytes into buf, which must be at
// least HeaderSize long.
func encodeHeader(buf []byte, h Header) {
	copy(buf[0:16], h.ID[:])
	binary.LittleEndian.PutUint16(buf[16:18], uint16(h.Tag))
	binary.LittleEndian.PutUint16(buf[18:20], uint16(h.Length))
}

// decodeHeader parses a Header from the first HeaderSize bytes of buf.
func decodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, fmt.Errorf("protocol: short header: got %d bytes, want %d", len(buf), HeaderSize)
	}
	var h Header
	copy(h.ID[:], buf[0:16])
	h.Tag = Tag(binary.LittleEndian.Uint16(buf[16:18]))
	h.Length = int16(binary.LittleEndian.Uint16(buf[18:20]))
	return h, nil
}
