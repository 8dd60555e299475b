package act

import (
	"errors"
	"fmt"
	"os"

	"haruki-sprite-action/utils"

	"golang.org/x/text/encoding"
)

var ErrInvalidHeader = errors.New("invalid action header")

// Re-exported so callers can match failures without importing utils.
var (
	ErrUnexpectedEndOfData = utils.ErrUnexpectedEndOfData
	ErrTextDecode          = utils.ErrTextDecode
)

// Decoder decodes ACT files. The zero value decodes sound names as Windows-1252.
type Decoder struct {
	TextEncoding encoding.Encoding
}

func NewDecoder(textEncoding encoding.Encoding) *Decoder {
	return &Decoder{TextEncoding: textEncoding}
}

// Load decodes data with the default code page.
func Load(data []byte) (*ActionFile, error) {
	return (&Decoder{}).Decode(data)
}

// LoadFile reads a whole file and decodes it.
func LoadFile(path string) (*ActionFile, error) {
	return (&Decoder{}).DecodeFile(path)
}

func (d *Decoder) DecodeFile(path string) (*ActionFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	file, err := d.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return file, nil
}

// Decode decodes a complete ACT file. On failure no partial result is returned.
func (d *Decoder) Decode(data []byte) (*ActionFile, error) {
	c := utils.NewByteCursor(data)

	version, actionCount, err := readHeader(c)
	if err != nil {
		return nil, err
	}

	// each action holds at least its animation count
	if err := checkCount(c, uint64(actionCount), 4); err != nil {
		return nil, fmt.Errorf("action count %d: %w", actionCount, err)
	}
	actions := make([]Action, 0, actionCount)
	for i := 0; i < int(actionCount); i++ {
		animations, err := readAnimations(c, version)
		if err != nil {
			return nil, fmt.Errorf("failed to read action %d: %w", i, err)
		}
		actions = append(actions, Action{Animations: animations, Delay: DefaultDelay})
	}

	// The sound table and the delays follow all action data.
	sounds := []string{}
	if version.AtLeast(VersionSoundTable) {
		if sounds, err = d.readSounds(c); err != nil {
			return nil, err
		}
	}
	if version.AtLeast(VersionFrameDelay) {
		for i := range actions {
			delay, err := c.ReadFloat32()
			if err != nil {
				return nil, fmt.Errorf("failed to read delay of action %d: %w", i, err)
			}
			actions[i].Delay = delay * delayScale
		}
	}

	return &ActionFile{
		Version: version,
		Actions: actions,
		Sounds:  sounds,
	}, nil
}

func readHeader(c *utils.ByteCursor) (Version, uint16, error) {
	var v Version
	magic, err := c.ReadBytes(len(headerMagic))
	if err != nil {
		return v, 0, fmt.Errorf("failed to read header: %w", err)
	}
	if string(magic) != headerMagic {
		return v, 0, fmt.Errorf("%w: got %q", ErrInvalidHeader, magic)
	}
	if v.Major, err = c.ReadUChar(); err != nil {
		return v, 0, fmt.Errorf("failed to read major version: %w", err)
	}
	if v.Minor, err = c.ReadUChar(); err != nil {
		return v, 0, fmt.Errorf("failed to read minor version: %w", err)
	}
	count, err := c.ReadUInt16()
	if err != nil {
		return v, 0, fmt.Errorf("failed to read action count: %w", err)
	}
	if err := c.Skip(headerReserved); err != nil {
		return v, 0, fmt.Errorf("failed to skip header reserved bytes: %w", err)
	}
	return v, count, nil
}

func (d *Decoder) readSounds(c *utils.ByteCursor) ([]string, error) {
	count, err := c.ReadInt32()
	if err != nil {
		return nil, fmt.Errorf("failed to read sound count: %w", err)
	}
	if count <= 0 {
		return []string{}, nil
	}
	if err := checkCount(c, uint64(count), soundNameWidth); err != nil {
		return nil, fmt.Errorf("sound count %d: %w", count, err)
	}
	sounds := make([]string, 0, count)
	for i := int32(0); i < count; i++ {
		name, err := c.ReadFixedString(soundNameWidth, d.TextEncoding)
		if err != nil {
			return nil, fmt.Errorf("failed to read sound name %d: %w", i, err)
		}
		sounds = append(sounds, name)
	}
	return sounds, nil
}
