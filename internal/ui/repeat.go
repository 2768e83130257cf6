package ui

// RepeatMode decides what happens when the track ends.
type RepeatMode int

const (
	RepeatOne RepeatMode = iota
	RepeatOff
)

func (r RepeatMode) Next() RepeatMode {
	if r == RepeatOne {
		return RepeatOff
	}
	return RepeatOne
}

func (r RepeatMode) String() string {
	if r == RepeatOne {
		return "loop"
	}
	return "once"
}
