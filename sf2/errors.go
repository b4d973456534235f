package sf2

import "errors"

// The three load failure kinds named in spec.md §7. tsf-style loaders
// return a null handle on any of these; this package instead returns a
// wrapped sentinel so callers can tell them apart with errors.Is.
var (
	// ErrNoHeader means the top-level RIFF container wasn't an "sfbk" form.
	ErrNoHeader = errors.New("sf2: not a SoundFont (missing RIFF/sfbk header)")

	// ErrIncomplete means one of the nine hydra arrays was absent.
	ErrIncomplete = errors.New("sf2: incomplete hydra tables")

	// ErrNoSampleData means the sample pool was empty or absent.
	ErrNoSampleData = errors.New("sf2: no sample data")
)
