package utils

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// result in radians
func QuatToEuler(q mgl32.Quat) (e mgl32.Vec3) {
	sinr_cosp := float64(2 * (q.W*q.X() + q.Y()*q.Z()))
	cosr_cosp := float64(1 - 2*(q.X()*q.X()+q.Y()*q.Y()))

	e[0] = float32(math.Atan2(sinr_cosp, cosr_cosp))

	sinp := float64(2 * (q.W*q.Y() - q.Z()*q.X()))
	if math.Abs(sinp) >= 1 {
		e[1] = math.Pi / 2
		if sinp < 0 {
			e[1] *= -1
		}
	} else {
		e[1] = float32(math.Asin(sinp))
	}

	siny_cosp := float64(2 * (q.W*q.Z() + q.X()*q.Y()))
	cosy_cosp := float64(1 - 2*(q.Y()*q.Y()+q.Z()*q.Z()))
	e[2] = float32(math.Atan2(siny_cosp, cosy_cosp))

	return e
}

func FloatArray32to64(in []float32) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}

func SwapYZ(v mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{v[0], v[2], v[1]}
}

func (bs *BufStack) ReadVec3() (mgl32.Vec3, error) {
	f, err := bs.ReadLFs(3)
	if err != nil {
		return mgl32.Vec3{}, err
	}
	return mgl32.Vec3{f[0], f[1], f[2]}, nil
}

func (bs *BufStack) ReadVec4() (mgl32.Vec4, error) {
	f, err := bs.ReadLFs(4)
	if err != nil {
		return mgl32.Vec4{}, err
	}
	return mgl32.Vec4{f[0], f[1], f[2], f[3]}, nil
}

// ReadMat4 reads 16 floats in column-major order.
func (bs *BufStack) ReadMat4() (mgl32.Mat4, error) {
	var m mgl32.Mat4
	f, err := bs.ReadLFs(16)
	if err != nil {
		return m, err
	}
	copy(m[:], f)
	return m, nil
}

// ReadVec3Array reads a u32 count followed by that many 3-float vectors.
func (bs *BufStack) ReadVec3Array() ([]mgl32.Vec3, error) {
	count, err := bs.ReadCount(12)
	if err != nil {
		return nil, err
	}
	r := make([]mgl32.Vec3, count)
	for i := range r {
		if r[i], err = bs.ReadVec3(); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// DecomposeMat4 splits an affine matrix into translation, rotation and scale.
// A mirrored basis is expressed as a negative x scale.
func DecomposeMat4(m mgl32.Mat4) (t mgl32.Vec3, r mgl32.Quat, s mgl32.Vec3) {
	t = m.Col(3).Vec3()
	cols := [3]mgl32.Vec3{m.Col(0).Vec3(), m.Col(1).Vec3(), m.Col(2).Vec3()}
	for i, c := range cols {
		s[i] = c.Len()
	}
	if m.Mat3().Det() < 0 {
		s[0] = -s[0]
	}
	if s[0] == 0 || s[1] == 0 || s[2] == 0 {
		return t, mgl32.QuatIdent(), s
	}

	rot := mgl32.Ident4()
	for i, c := range cols {
		rot.SetCol(i, c.Mul(1/s[i]).Vec4(0))
	}
	return t, mgl32.Mat4ToQuat(rot).Normalize(), s
}
