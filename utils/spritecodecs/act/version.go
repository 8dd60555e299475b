package act

import "fmt"

// Format revisions that change the record layout, in tenths of a version
// (major*10 + minor). Comparing 10*major+minor against these is the same as
// comparing major+minor/10 against the decimal revision.
const (
	VersionExtendedLayer Threshold = 20 // layer color/scale/angle/type, animation sound cue
	VersionSoundTable    Threshold = 21
	VersionFrameDelay    Threshold = 22
	VersionAttachPoints  Threshold = 23
	VersionScaleXY       Threshold = 24 // independent vertical scale
	VersionSizeOverride  Threshold = 25
)

type Threshold int

func (t Threshold) String() string {
	return fmt.Sprintf("%d.%d", t/10, t%10)
}

// Version is the major/minor pair stored after the "AC" magic.
type Version struct {
	Major uint8 `json:"major" msgpack:"major"`
	Minor uint8 `json:"minor" msgpack:"minor"`
}

// Float is the decimal revision number, e.g. bytes 2,3 give 2.3.
func (v Version) Float() float64 {
	return float64(v.Major) + float64(v.Minor)/10.0
}

func (v Version) tenths() int {
	return int(v.Major)*10 + int(v.Minor)
}

func (v Version) AtLeast(t Threshold) bool {
	return v.tenths() >= int(t)
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}
