package act

import (
	"fmt"

	"haruki-sprite-action/utils"
)

const positionSize = attachPadding + 8 + attachPadding

func animationSize(v Version) int {
	n := animationReserved + 4
	if v.AtLeast(VersionExtendedLayer) {
		n += 4
	}
	if v.AtLeast(VersionAttachPoints) {
		n += 4
	}
	return n
}

func readAnimation(c *utils.ByteCursor, v Version) (Animation, error) {
	anim := Animation{Sound: NoSound, Positions: []Position{}}

	if err := c.Skip(animationReserved); err != nil {
		return anim, fmt.Errorf("failed to skip reserved block: %w", err)
	}
	layers, err := readLayers(c, v)
	if err != nil {
		return anim, err
	}
	anim.Layers = layers

	if v.AtLeast(VersionExtendedLayer) {
		if anim.Sound, err = c.ReadInt32(); err != nil {
			return anim, fmt.Errorf("failed to read sound cue: %w", err)
		}
	}
	if v.AtLeast(VersionAttachPoints) {
		if anim.Positions, err = readPositions(c); err != nil {
			return anim, err
		}
	}
	return anim, nil
}

func readPositions(c *utils.ByteCursor) ([]Position, error) {
	count, err := c.ReadInt32()
	if err != nil {
		return nil, fmt.Errorf("failed to read attach point count: %w", err)
	}
	if count <= 0 {
		return []Position{}, nil
	}
	if err := checkCount(c, uint64(count), positionSize); err != nil {
		return nil, fmt.Errorf("attach point count %d: %w", count, err)
	}
	positions := make([]Position, 0, count)
	for i := int32(0); i < count; i++ {
		if err := c.Skip(attachPadding); err != nil {
			return nil, err
		}
		x, err := c.ReadInt32()
		if err != nil {
			return nil, err
		}
		y, err := c.ReadInt32()
		if err != nil {
			return nil, err
		}
		if err := c.Skip(attachPadding); err != nil {
			return nil, err
		}
		positions = append(positions, Position{x, y})
	}
	return positions, nil
}

func readAnimations(c *utils.ByteCursor, v Version) ([]Animation, error) {
	count, err := c.ReadUInt32()
	if err != nil {
		return nil, fmt.Errorf("failed to read animation count: %w", err)
	}
	if err := checkCount(c, uint64(count), animationSize(v)); err != nil {
		return nil, fmt.Errorf("animation count %d: %w", count, err)
	}
	animations := make([]Animation, 0, count)
	for i := 0; i < int(count); i++ {
		anim, err := readAnimation(c, v)
		if err != nil {
			return nil, fmt.Errorf("failed to read animation %d: %w", i, err)
		}
		animations = append(animations, anim)
	}
	return animations, nil
}
