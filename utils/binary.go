package utils

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"golang.org/x/text/encoding"
)

var ErrUnexpectedEndOfData = errors.New("unexpected end of data")

// ByteCursor reads little-endian values from an in-memory buffer.
// A read that would run past the end fails and leaves the offset untouched.
type ByteCursor struct {
	data     []byte
	position int
}

func NewByteCursor(data []byte) *ByteCursor {
	return &ByteCursor{data: data}
}

func (c *ByteCursor) Tell() int {
	return c.position
}

func (c *ByteCursor) Len() int {
	return len(c.data)
}

func (c *ByteCursor) RemainingLength() int {
	return len(c.data) - c.position
}

func (c *ByteCursor) take(n int) ([]byte, error) {
	if n < 0 || n > c.RemainingLength() {
		return nil, fmt.Errorf("need %d bytes at offset %d, %d left: %w", n, c.position, c.RemainingLength(), ErrUnexpectedEndOfData)
	}
	b := c.data[c.position : c.position+n]
	c.position += n
	return b, nil
}

func (c *ByteCursor) ReadUChar() (uint8, error) {
	b, err := c.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *ByteCursor) ReadUInt16() (uint16, error) {
	b, err := c.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (c *ByteCursor) ReadUInt32() (uint32, error) {
	b, err := c.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c *ByteCursor) ReadInt32() (int32, error) {
	v, err := c.ReadUInt32()
	return int32(v), err
}

func (c *ByteCursor) ReadFloat32() (float32, error) {
	v, err := c.ReadUInt32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadBytes returns a copy, so callers never alias the source buffer.
func (c *ByteCursor) ReadBytes(n int) ([]byte, error) {
	b, err := c.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

func (c *ByteCursor) Skip(n int) error {
	_, err := c.take(n)
	return err
}

// ReadFixedString consumes exactly n bytes and decodes them as a
// NUL-terminated legacy text field.
func (c *ByteCursor) ReadFixedString(n int, enc encoding.Encoding) (string, error) {
	b, err := c.take(n)
	if err != nil {
		return "", err
	}
	return DecodeLegacyText(b, enc)
}
