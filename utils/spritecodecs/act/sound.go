package act

import (
	"errors"
	"fmt"
)

// SoundDir is where the game keeps the wav files named by the sound table.
const SoundDir = `data\wav\`

// SoundName resolves an animation's sound cue against the file's sound table.
func (f *ActionFile) SoundName(anim Animation) (string, bool) {
	if anim.Sound < 0 || int(anim.Sound) >= len(f.Sounds) {
		return "", false
	}
	return f.Sounds[anim.Sound], true
}

// SoundPath returns the game-relative wav path of an animation's sound cue.
func (f *ActionFile) SoundPath(anim Animation) (string, bool) {
	name, ok := f.SoundName(anim)
	if !ok || name == "" {
		return "", false
	}
	return SoundDir + name, true
}

// Validate reports sound cues that point outside the sound table. Decoding
// accepts such files; this is for tools that want to flag them.
func (f *ActionFile) Validate() error {
	var errs []error
	for i, action := range f.Actions {
		for j, anim := range action.Animations {
			if anim.Sound == NoSound {
				continue
			}
			if anim.Sound < 0 || int(anim.Sound) >= len(f.Sounds) {
				errs = append(errs, fmt.Errorf("action %d animation %d: sound cue %d out of range (%d sounds)", i, j, anim.Sound, len(f.Sounds)))
			}
		}
	}
	return errors.Join(errs...)
}

// Stats counts the records of a decoded file.
type Stats struct {
	Actions    int
	Animations int
	Layers     int
	Positions  int
}

func (f *ActionFile) Stats() Stats {
	s := Stats{Actions: len(f.Actions)}
	for _, action := range f.Actions {
		s.Animations += len(action.Animations)
		for _, anim := range action.Animations {
			s.Layers += len(anim.Layers)
			s.Positions += len(anim.Positions)
		}
	}
	return s
}
