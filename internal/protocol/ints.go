package protocol

import "encoding/binary"

func putUint16(buf []byte, v uint16) { binary.LittleEndian.PutUint16(buf, v) }
func getUint16(buf []byte) uint16    { return binary.LittleEndian.Uint16(buf) }
func putUint32(buf []byte, v uint32) { binary.LittleEndian.PutUint32(buf, v) }
func getUint32(buf []byte) uint32    { return binary.LittleEndian.Uint32(buf) }
