package utils

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// ErrTruncatedInput is returned by every BufStack read that runs past the end of the buffer.
var ErrTruncatedInput = errors.New("truncated input")

// BufStack is a forward cursor over an in-memory buffer.
// Reads never panic: running out of bytes leaves the position untouched and
// returns an error wrapping ErrTruncatedInput.
type BufStack struct {
	buf  []byte
	pos  int
	kind string
	name string
}

func NewBufStack(kind string, b []byte) *BufStack {
	return &BufStack{
		buf:  b,
		kind: kind,
	}
}

func (bs *BufStack) SetName(name string) *BufStack {
	bs.name = name
	return bs
}

func (bs *BufStack) Name() string { return bs.name }
func (bs *BufStack) Kind() string { return bs.kind }
func (bs *BufStack) Size() int    { return len(bs.buf) }
func (bs *BufStack) Pos() int     { return bs.pos }

func (bs *BufStack) Remaining() int {
	return len(bs.buf) - bs.pos
}

func (bs *BufStack) String() string {
	return fmt.Sprintf("buf<%v>(%v)[p:0x%x,s:0x%x]", bs.kind, bs.name, bs.pos, len(bs.buf))
}

func (bs *BufStack) truncated(need int) error {
	return errors.Wrapf(ErrTruncatedInput, "%v: need 0x%x bytes at 0x%x, have 0x%x",
		bs, need, bs.pos, bs.Remaining())
}

// Need checks that count elements of stride bytes are still available.
// Used before allocating pools sized by counts read from the file.
func (bs *BufStack) Need(count, stride int) error {
	if count < 0 || stride < 0 {
		return bs.truncated(math.MaxInt32)
	}
	if stride != 0 && count > bs.Remaining()/stride {
		return bs.truncated(count * stride)
	}
	return nil
}

func (bs *BufStack) Read(amount int) ([]byte, error) {
	if amount < 0 || amount > bs.Remaining() {
		return nil, bs.truncated(amount)
	}
	oldPos := bs.pos
	bs.pos += amount
	return bs.buf[oldPos:bs.pos], nil
}

func (bs *BufStack) Skip(amount int) error {
	if amount < 0 || amount > bs.Remaining() {
		return bs.truncated(amount)
	}
	bs.pos += amount
	return nil
}

// SkipN skips count records of stride bytes each.
func (bs *BufStack) SkipN(count, stride int) error {
	if err := bs.Need(count, stride); err != nil {
		return err
	}
	bs.pos += count * stride
	return nil
}

func (bs *BufStack) ReadLU32() (uint32, error) {
	b, err := bs.Read(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (bs *BufStack) ReadLU16() (uint16, error) {
	b, err := bs.Read(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (bs *BufStack) ReadLF() (float32, error) {
	v, err := bs.ReadLU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadLFs reads count little-endian floats in one bounds check.
func (bs *BufStack) ReadLFs(count int) ([]float32, error) {
	b, err := bs.Read(count * 4)
	if err != nil {
		return nil, err
	}
	r := make([]float32, count)
	for i := range r {
		r[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return r, nil
}

// ReadCount reads a u32 element count and checks the following records fit.
func (bs *BufStack) ReadCount(stride int) (int, error) {
	v, err := bs.ReadLU32()
	if err != nil {
		return 0, err
	}
	if uint64(v) > math.MaxInt32 {
		return 0, bs.truncated(math.MaxInt32)
	}
	count := int(v)
	if err := bs.Need(count, stride); err != nil {
		return 0, err
	}
	return count, nil
}
