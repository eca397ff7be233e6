package elu

import (
	"bytes"
	"encoding/binary"
	"math"
)

type eluWriter struct {
	bytes.Buffer
}

func (w *eluWriter) u32(vs ...uint32) *eluWriter {
	for _, v := range vs {
		binary.Write(w, binary.LittleEndian, v)
	}
	return w
}

func (w *eluWriter) u16(vs ...uint16) *eluWriter {
	for _, v := range vs {
		binary.Write(w, binary.LittleEndian, v)
	}
	return w
}

func (w *eluWriter) f32(vs ...float32) *eluWriter {
	for _, v := range vs {
		w.u32(math.Float32bits(v))
	}
	return w
}

func (w *eluWriter) zero(n int) *eluWriter {
	w.Write(make([]byte, n))
	return w
}

func (w *eluWriter) fixed(s string, n int) *eluWriter {
	b := make([]byte, n)
	copy(b, s)
	w.Write(b)
	return w
}

func (w *eluWriter) name(s string) *eluWriter {
	w.u32(uint32(len(s)))
	w.WriteString(s)
	return w
}

func (w *eluWriter) vec3s(vs [][3]float32) *eluWriter {
	w.u32(uint32(len(vs)))
	for _, v := range vs {
		w.f32(v[:]...)
	}
	return w
}

func (w *eluWriter) header(v Version, materials, meshes uint32) *eluWriter {
	return w.u32(Magic, uint32(v), materials, meshes)
}

var identity = [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

func translation(x, y, z float32) [16]float32 {
	m := identity
	m[12], m[13], m[14] = x, y, z
	return m
}

type materialA struct {
	index, subIndex uint32
	diffuse         [4]float32
	texture         string
	alternate       string
	twoSided        uint32
	additive        uint32
	alpha           uint32
}

func (w *eluWriter) materialA(v Version, m materialA) *eluWriter {
	w.u32(m.index, m.subIndex)
	w.f32(0.1, 0.1, 0.1, 1)
	w.f32(m.diffuse[:]...)
	w.f32(0.5, 0.5, 0.5, 1)
	w.f32(20)
	w.zero(4)

	length := 40
	if v > Version5006 {
		length = 256
	}
	w.fixed(m.texture, length)
	w.fixed(m.alternate, length)

	if v > Version5001 {
		w.u32(m.twoSided)
	}
	if v > Version5003 {
		w.u32(m.additive)
	}
	if v > Version5006 {
		w.u32(m.alpha)
	}
	return w
}

type faceA struct {
	idx    [3]uint32
	uv     [3][2]float32
	smooth uint32
}

type influenceA struct {
	bones   [4]string
	weights [4]float32
}

type meshA struct {
	name, parent string
	world        [16]float32 // stored order
	positions    [][3]float32
	faces        []faceA
	colors       [][3]float32
	material     uint32
	influences   []influenceA
}

func (w *eluWriter) meshA(v Version, m meshA) *eluWriter {
	w.fixed(m.name, 40)
	w.fixed(m.parent, 40)
	w.f32(m.world[:]...)
	if v > Version11 {
		w.f32(1, 1, 1)
	}
	if v > Version5002 {
		w.f32(0, 0, 1, 0)
		w.f32(0, 0, 1, 0)
		w.f32(identity[:]...)
	}
	w.vec3s(m.positions)

	w.u32(uint32(len(m.faces)))
	for _, f := range m.faces {
		w.u32(f.idx[:]...)
		for _, uv := range f.uv {
			w.f32(uv[0], uv[1], 0)
		}
		w.u32(0)
		if v > Version5001 {
			w.u32(f.smooth)
		}
	}

	if v > Version5004 {
		w.zero(len(m.faces) * 48)
		w.vec3s(m.colors)
	}

	w.u32(m.material, uint32(len(m.influences)))
	for _, in := range m.influences {
		for _, b := range in.bones {
			w.fixed(b, 40)
		}
		w.f32(in.weights[:]...)
		w.zero(16 + 4 + 48)
	}
	return w
}

type influenceB struct {
	bone   uint16
	weight float32
}

type meshB struct {
	name, parent string
	parentIndex  uint32
	local        [16]float32
	positions    [][3]float32
	normals      [][3]float32
	texcoords    [][3]float32
	reserved     uint32 // records in the first reserved pool
	// nonzero values are written without payload where the version forbids them
	secondReserved uint32
	blend          [][]influenceB
	vertices       [][5]uint32 // position, normal, texcoord, reserved0, reserved1
	faces          [][3]uint16

	// records skipped by the decoder, each written with its payload
	extraTexcoords uint32   // 12 byte records, 0x500E and later except 0x5010
	groups         []uint32 // entries per group, after 0x500A
	pool           uint32   // 12 byte records before the blend table
	trailing       uint32   // 12 byte records after the faces
}

func (w *eluWriter) meshB(v Version, m meshB) *eluWriter {
	w.name(m.name)
	w.name(m.parent)
	w.u32(m.parentIndex)

	if v == Version5008 {
		w.zero(20)
	} else {
		w.zero(8)
	}
	w.f32(m.local[:]...)
	switch {
	case v >= Version500E && v <= Version5010:
		w.zero(12)
	case v > Version5008:
		w.zero(4)
	}

	w.vec3s(m.positions)
	w.vec3s(m.normals)

	w.u32(m.reserved)
	if v > Version500E {
		w.zero(int(m.reserved) * 16)
	} else {
		w.zero(int(m.reserved) * 12)
	}

	w.u32(m.secondReserved)
	if v <= Version500E {
		w.zero(int(m.secondReserved) * 12)
	}

	w.vec3s(m.texcoords)

	if v >= Version500E && v != Version5010 {
		w.u32(m.extraTexcoords)
		w.zero(int(m.extraTexcoords) * 12)
	}

	if v > Version500A {
		w.u32(uint32(len(m.groups)))
		if len(m.groups) != 0 {
			w.zero(8)
		}
		entrySize := 10
		if v >= Version500E {
			entrySize = 12
		}
		for _, entries := range m.groups {
			w.u32(entries)
			w.zero(int(entries) * entrySize)
			w.zero(2)
		}
	} else {
		w.u32(uint32(len(m.faces)))
		w.zero(len(m.faces) * 32)
	}

	w.u32(m.pool)
	w.zero(int(m.pool) * 12)
	w.zero(4)

	w.u32(uint32(len(m.blend)))
	if v >= Version500E {
		for _, infl := range m.blend {
			w.u32(uint32(len(infl)))
			for _, in := range infl {
				w.zero(2)
				w.u16(in.bone)
				w.f32(in.weight)
			}
		}
	}

	w.u32(0)

	w.u32(uint32(len(m.vertices)))
	for _, vt := range m.vertices {
		switch {
		case v < Version500E:
			w.u16(uint16(vt[0]), uint16(vt[1]), uint16(vt[2]), uint16(vt[3]), uint16(vt[4]))
		case v == Version500E:
			w.u16(uint16(vt[0]), uint16(vt[1]))
			w.u32(vt[4])
			w.u16(uint16(vt[3]), uint16(vt[2]))
		default:
			w.u16(uint16(vt[0]), uint16(vt[1]))
			w.u32(vt[2])
			w.u16(uint16(vt[3]), uint16(vt[4]))
		}
	}

	if v > Version500A {
		w.zero(4)
		w.u32(uint32(len(m.faces) * 3))
	}
	for _, f := range m.faces {
		w.u16(f[:]...)
	}

	w.u32(m.trailing)
	w.zero(int(m.trailing) * 12)
	if v >= Version500E {
		w.zero(24)
	}
	return w
}

// triangleB is one face over three vertices, all pools bound.
func triangleB(name string, parentIndex uint32, local [16]float32) meshB {
	return meshB{
		name:        name,
		parentIndex: parentIndex,
		local:       local,
		positions:   [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		normals:     [][3]float32{{0, 0, 1}},
		texcoords:   [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		vertices:    [][5]uint32{{0, 0, 0, 0, 0}, {1, 0, 1, 0, 0}, {2, 0, 2, 0, 0}},
		faces:       [][3]uint16{{0, 1, 2}},
	}
}

func jointB(name string, parentIndex uint32, local [16]float32) meshB {
	return meshB{name: name, parentIndex: parentIndex, local: local}
}
