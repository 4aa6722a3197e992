package protocol

import (
	"encoding/binary"
	"math"
)

// Vec3 is a 3-component single-precision position, as it appears in
// Player and Cap packet bodies.
type Vec3 struct {
	X, Y, Z float32
}

// Quat is a single-precision quaternion (x, y, z, w order on the wire).
type Quat struct {
	X, Y, Z, W float32
}

func putFloat32(buf []byte, v float32) {
	binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
}

func getFloat32(buf []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf))
}

func putVec3(buf []byte, v Vec3) {
	putFloat32(buf[0:4], v.X)
	putFloat32(buf[4:8], v.Y)
	putFloat32(buf[8:12], v.Z)
}

func getVec3(buf []byte) Vec3 {
	return Vec3{X: getFloat32(buf[0:4]), Y: getFloat32(buf[4:8]), Z: getFloat32(buf[8:12])}
}

func putQuat(buf []byte, q Quat) {
	putFloat32(buf[0:4], q.X)
	putFloat32(buf[4:8], q.Y)
	putFloat32(buf[8:12], q.Z)
	putFloat32(buf[12:16], q.W)
}

func getQuat(buf []byte) Quat {
	return Quat{
		X: getFloat32(buf[0:4]),
		Y: getFloat32(buf[4:8]),
		Z: getFloat32(buf[8:12]),
		W: getFloat32(buf[12:16]),
	}
}

// MulQuat composes two quaternions (a then b applied, Hamilton product a*b).
func MulQuat(a, b Quat) Quat {
	return Quat{
		X: a.W*b.X + a.X*b.W + a.Y*b.Z - a.Z*b.Y,
		Y: a.W*b.Y - a.X*b.Z + a.Y*b.W + a.Z*b.X,
		Z: a.W*b.Z + a.X*b.Y - a.Y*b.X + a.Z*b.W,
		W: a.W*b.W - a.X*b.X - a.Y*b.Y - a.Z*b.Z,
	}
}

// RotationX builds the quaternion for a rotation of angle radians about X.
func RotationX(angle float64) Quat {
	h := angle / 2
	return Quat{X: float32(math.Sin(h)), Y: 0, Z: 0, W: float32(math.Cos(h))}
}

// RotationY builds the quaternion for a rotation of angle radians about Y.
func RotationY(angle float64) Quat {
	h := angle / 2
	return Quat{X: 0, Y: float32(math.Sin(h)), Z: 0, W: float32(math.Cos(h))}
}
