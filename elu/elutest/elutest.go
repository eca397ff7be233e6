// Package elutest builds small model files for tests outside of the elu package.
package elutest

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/zlabs/elu_browser/elu"
)

type writer struct {
	bytes.Buffer
}

func (w *writer) u32(vs ...uint32) {
	for _, v := range vs {
		binary.Write(w, binary.LittleEndian, v)
	}
}

func (w *writer) u16(vs ...uint16) {
	for _, v := range vs {
		binary.Write(w, binary.LittleEndian, v)
	}
}

func (w *writer) f32(vs ...float32) {
	for _, v := range vs {
		w.u32(math.Float32bits(v))
	}
}

func (w *writer) name(s string) {
	w.u32(uint32(len(s)))
	w.WriteString(s)
}

func (w *writer) vec3s(vs ...[3]float32) {
	w.u32(uint32(len(vs)))
	for _, v := range vs {
		w.f32(v[:]...)
	}
}

// Empty is a valid header without materials or meshes.
func Empty() []byte {
	var w writer
	w.u32(elu.Magic, uint32(elu.Version5011), 0, 0)
	return w.Bytes()
}

// Triangles is a 0x5011 file with one root triangle mesh per name.
func Triangles(names ...string) []byte {
	var w writer
	w.u32(elu.Magic, uint32(elu.Version5011), 0, uint32(len(names)))
	for i, name := range names {
		w.name(name)
		w.name("")
		w.u32(elu.NoParentIndex)
		w.Write(make([]byte, 8))
		w.f32(1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, float32(i), 0, 0, 1)
		w.Write(make([]byte, 4))

		w.vec3s([3]float32{0, 0, 0}, [3]float32{1, 0, 0}, [3]float32{0, 1, 0})
		w.vec3s([3]float32{0, 0, 1})
		// reserved pools
		w.u32(0, 0)
		w.vec3s([3]float32{0, 0, 0}, [3]float32{1, 0, 0}, [3]float32{0, 1, 0})
		w.u32(0, 0, 0)
		w.Write(make([]byte, 4))
		// blend vertices, bone matrices
		w.u32(0, 0)

		w.u32(3)
		for k := uint16(0); k < 3; k++ {
			w.u16(k, 0)
			w.u32(uint32(k))
			w.u16(0, 0)
		}
		w.Write(make([]byte, 4))
		w.u32(3)
		w.u16(0, 1, 2)

		w.u32(0)
		w.Write(make([]byte, 24))
	}
	return w.Bytes()
}

// BadMagic has a valid layout behind a wrong magic.
func BadMagic() []byte {
	b := Empty()
	b[0] ^= 0xff
	return b
}
