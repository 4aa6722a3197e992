package protocol

import (
	"fmt"
	"io"

	"github.com/google/uuid"
)

// Packet pairs a sender's PlayerId with a typed body. It is immutable
// once constructed.
type Packet struct {
	ID      uuid.UUID
	Content Content
}

// NewPacket builds a Packet from an id and a body variant.
func NewPacket(id uuid.UUID, content Content) Packet {
	return Packet{ID: id, Content: content}
}

// Encode serializes p to its complete on-wire form: a 20-byte header
// followed by the body. Encoding is total and never fails.
func (p Packet) Encode() []byte {
	body := p.Content.encodeBody()
	if len(body) > 0x7FFF {
		// Bodies this large never occur for any variant in this protocol;
		// truncation here would corrupt a write, so the body is dropped
		// and a zero-length header is sent instead, rather than panicking
		// in a hot broadcast path.
		body = nil
	}
	buf := make([]byte, HeaderSize+len(body))
	encodeHeader(buf[:HeaderSize], Header{ID: p.ID, Tag: p.Content.Tag(), Length: int16(len(body))})
	copy(buf[HeaderSize:], body)
	return buf
}

// WriteTo writes the packet's full wire encoding to w.
func (p Packet) WriteTo(w io.Writer) (int64, error) {
	buf := p.Encode()
	n, err := w.Write(buf)
	return int64(n), err
}

// ReadPacket reads one full frame (header + body) from r and decodes
// it into a Packet. Returns an error (including io.EOF on a clean
// close) if the header or body cannot be fully read, or if the body
// contains invalid UTF-8 in a string field. An unrecognized tag value
// decodes to Unknown rather than returning an error.
func ReadPacket(r io.Reader) (Packet, error) {
	hdrBuf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, hdrBuf); err != nil {
		return Packet{}, err
	}
	h, err := decodeHeader(hdrBuf)
	if err != nil {
		return Packet{}, err
	}
	var body []byte
	if h.Length > 0 {
		body = make([]byte, h.Length)
		if _, err := io.ReadFull(r, body); err != nil {
			return Packet{}, fmt.Errorf("protocol: short body (want %d bytes): %w", h.Length, err)
		}
	}
	content, err := decodeContent(h.Tag, body)
	if err != nil {
		return Packet{}, err
	}
	return Packet{ID: h.ID, Content: content}, nil
}
