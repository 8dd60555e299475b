package act

import "time"

const (
	// DefaultDelay is the frame delay used when the file stores none.
	DefaultDelay float32 = 150.0
	// NoSound marks an animation without a sound cue.
	NoSound int32 = -1

	headerMagic       = "AC"
	headerReserved    = 10
	animationReserved = 32
	attachPadding     = 4
	soundNameWidth    = 40
	delayScale        = 25.0
)

// ActionFile is a decoded ACT file.
type ActionFile struct {
	Version Version  `json:"version" msgpack:"version"`
	Actions []Action `json:"actions" msgpack:"actions"`
	Sounds  []string `json:"sounds" msgpack:"sounds"`
}

type Action struct {
	Animations []Animation `json:"animations" msgpack:"animations"`
	Delay      float32     `json:"delay" msgpack:"delay"`
}

// FrameDuration interprets Delay as milliseconds per frame.
func (a Action) FrameDuration() time.Duration {
	return time.Duration(float64(a.Delay) * float64(time.Millisecond))
}

type Animation struct {
	Layers    []Layer    `json:"layers" msgpack:"layers"`
	Sound     int32      `json:"sound" msgpack:"sound"`
	Positions []Position `json:"positions" msgpack:"positions"`
}

// Position is an attachment point for external effect or weapon sprites.
type Position [2]int32

type Layer struct {
	Pos      [2]int32   `json:"pos" msgpack:"pos"`
	Index    int32      `json:"index" msgpack:"index"`
	IsMirror int32      `json:"is_mirror" msgpack:"is_mirror"`
	Scale    [2]float32 `json:"scale" msgpack:"scale"`
	Color    [4]float32 `json:"color" msgpack:"color"`
	Angle    int32      `json:"angle" msgpack:"angle"`
	SprType  int32      `json:"spr_type" msgpack:"spr_type"`
	Width    int32      `json:"width" msgpack:"width"`
	Height   int32      `json:"height" msgpack:"height"`
}

func (l Layer) Mirrored() bool {
	return l.IsMirror != 0
}
