package act

import (
	"fmt"

	"haruki-sprite-action/utils"
)

// layerSize is the on-disk width of one layer record for a version.
func layerSize(v Version) int {
	n := 16
	if v.AtLeast(VersionExtendedLayer) {
		n += 4 + 4 + 4 + 4
	}
	if v.AtLeast(VersionScaleXY) {
		n += 4
	}
	if v.AtLeast(VersionSizeOverride) {
		n += 8
	}
	return n
}

func readLayer(c *utils.ByteCursor, v Version) (Layer, error) {
	layer := Layer{
		Scale: [2]float32{1, 1},
		Color: [4]float32{1, 1, 1, 1},
	}
	var err error
	if layer.Pos[0], err = c.ReadInt32(); err != nil {
		return layer, err
	}
	if layer.Pos[1], err = c.ReadInt32(); err != nil {
		return layer, err
	}
	if layer.Index, err = c.ReadInt32(); err != nil {
		return layer, err
	}
	if layer.IsMirror, err = c.ReadInt32(); err != nil {
		return layer, err
	}
	if !v.AtLeast(VersionExtendedLayer) {
		return layer, nil
	}

	for i := range layer.Color {
		b, err := c.ReadUChar()
		if err != nil {
			return layer, err
		}
		layer.Color[i] = float32(b) / 255.0
	}

	if layer.Scale[0], err = c.ReadFloat32(); err != nil {
		return layer, err
	}
	if v.AtLeast(VersionScaleXY) {
		if layer.Scale[1], err = c.ReadFloat32(); err != nil {
			return layer, err
		}
	} else {
		layer.Scale[1] = layer.Scale[0]
	}

	if layer.Angle, err = c.ReadInt32(); err != nil {
		return layer, err
	}
	if layer.SprType, err = c.ReadInt32(); err != nil {
		return layer, err
	}

	if v.AtLeast(VersionSizeOverride) {
		if layer.Width, err = c.ReadInt32(); err != nil {
			return layer, err
		}
		if layer.Height, err = c.ReadInt32(); err != nil {
			return layer, err
		}
	}
	return layer, nil
}

func readLayers(c *utils.ByteCursor, v Version) ([]Layer, error) {
	count, err := c.ReadUInt32()
	if err != nil {
		return nil, fmt.Errorf("failed to read layer count: %w", err)
	}
	if err := checkCount(c, uint64(count), layerSize(v)); err != nil {
		return nil, fmt.Errorf("layer count %d: %w", count, err)
	}
	layers := make([]Layer, 0, count)
	for i := 0; i < int(count); i++ {
		layer, err := readLayer(c, v)
		if err != nil {
			return nil, fmt.Errorf("failed to read layer %d: %w", i, err)
		}
		layers = append(layers, layer)
	}
	return layers, nil
}

// checkCount rejects counts whose records cannot fit in the remaining bytes,
// before anything is allocated for them.
func checkCount(c *utils.ByteCursor, count uint64, recordSize int) error {
	if need := count * uint64(recordSize); need > uint64(c.RemainingLength()) {
		return fmt.Errorf("need %d bytes at offset %d, %d left: %w", need, c.Tell(), c.RemainingLength(), utils.ErrUnexpectedEndOfData)
	}
	return nil
}
