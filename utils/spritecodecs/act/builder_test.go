package act

import (
	"bytes"
	"encoding/binary"
	"math"
)

// fileBuilder assembles ACT byte streams for tests.
type fileBuilder struct {
	buf bytes.Buffer
	v   Version
}

func newFile(major, minor uint8, actionCount uint16) *fileBuilder {
	b := &fileBuilder{v: Version{Major: major, Minor: minor}}
	b.buf.WriteString("AC")
	b.u8(major, minor)
	b.u16(actionCount)
	b.zeros(headerReserved)
	return b
}

func (b *fileBuilder) u8(vs ...uint8) *fileBuilder {
	b.buf.Write(vs)
	return b
}

func (b *fileBuilder) u16(v uint16) *fileBuilder {
	_ = binary.Write(&b.buf, binary.LittleEndian, v)
	return b
}

func (b *fileBuilder) u32(v uint32) *fileBuilder {
	_ = binary.Write(&b.buf, binary.LittleEndian, v)
	return b
}

func (b *fileBuilder) i32(vs ...int32) *fileBuilder {
	for _, v := range vs {
		_ = binary.Write(&b.buf, binary.LittleEndian, v)
	}
	return b
}

func (b *fileBuilder) f32(v float32) *fileBuilder {
	return b.u32(math.Float32bits(v))
}

func (b *fileBuilder) zeros(n int) *fileBuilder {
	b.buf.Write(make([]byte, n))
	return b
}

func (b *fileBuilder) text(s string, width int) *fileBuilder {
	field := make([]byte, width)
	copy(field, s)
	b.buf.Write(field)
	return b
}

type layerSpec struct {
	pos     [2]int32
	index   int32
	mirror  int32
	color   [4]uint8
	scale   [2]float32
	angle   int32
	sprType int32
	width   int32
	height  int32
}

// layer writes only the fields the builder's version stores.
func (b *fileBuilder) layer(l layerSpec) *fileBuilder {
	b.i32(l.pos[0], l.pos[1], l.index, l.mirror)
	if !b.v.AtLeast(VersionExtendedLayer) {
		return b
	}
	b.u8(l.color[:]...)
	b.f32(l.scale[0])
	if b.v.AtLeast(VersionScaleXY) {
		b.f32(l.scale[1])
	}
	b.i32(l.angle, l.sprType)
	if b.v.AtLeast(VersionSizeOverride) {
		b.i32(l.width, l.height)
	}
	return b
}

// animation writes the reserved block, the layers, and the optional trailer.
func (b *fileBuilder) animation(sound int32, positions []Position, layers ...layerSpec) *fileBuilder {
	b.zeros(animationReserved)
	b.u32(uint32(len(layers)))
	for _, l := range layers {
		b.layer(l)
	}
	if b.v.AtLeast(VersionExtendedLayer) {
		b.i32(sound)
	}
	if b.v.AtLeast(VersionAttachPoints) {
		b.i32(int32(len(positions)))
		for _, p := range positions {
			b.i32(0x11111111, p[0], p[1], 0x22222222)
		}
	}
	return b
}

func (b *fileBuilder) sounds(names ...string) *fileBuilder {
	b.i32(int32(len(names)))
	for _, n := range names {
		b.text(n, soundNameWidth)
	}
	return b
}

func (b *fileBuilder) bytes() []byte {
	return append([]byte(nil), b.buf.Bytes()...)
}

func defaultLayer() layerSpec {
	return layerSpec{
		pos:     [2]int32{-3, 7},
		index:   5,
		mirror:  1,
		color:   [4]uint8{255, 255, 255, 255},
		scale:   [2]float32{1.5, 2.5},
		angle:   90,
		sprType: 1,
		width:   32,
		height:  64,
	}
}

// singleLayerFile is a complete file with one action, one animation and one layer.
func singleLayerFile(major, minor uint8, l layerSpec) []byte {
	b := newFile(major, minor, 1)
	b.u32(1)
	b.animation(NoSound, nil, l)
	if b.v.AtLeast(VersionSoundTable) {
		b.sounds()
	}
	if b.v.AtLeast(VersionFrameDelay) {
		b.f32(4)
	}
	return b.bytes()
}
