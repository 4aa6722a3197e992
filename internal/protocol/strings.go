package protocol

import (
	"fmt"
	"unicode/utf8"
)

// putFixedString writes s into buf (exactly len(buf) bytes), zero-padding
// any remainder. s must fit; callers choose buffer widths large enough
// for the field (0x20, 0x30, 0x40, 0x10 per the wire layout table).
func putFixedString(buf []byte, s string) {
	n := copy(buf, s)
	for i := n; i < len(buf); i++ {
		buf[i] = 0
	}
}

// getFixedString decodes a fixed-width, zero-padded ASCII field by
// stripping trailing NULs, then validating the remainder is valid UTF-8.
func getFixedString(buf []byte) (string, error) {
	n := len(buf)
	for n > 0 && buf[n-1] == 0 {
		n--
	}
	s := string(buf[:n])
	if !utf8.ValidString(s) {
		return "", fmt.Errorf("protocol: invalid UTF-8 in fixed-width string field")
	}
	return s, nil
}
