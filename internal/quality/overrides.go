package quality

import "maps"

// Overrides remembers the quality a user picked by hand for each video.
//
// It is not safe for concurrent use; the engine only touches it from its scheduler goroutine.
type Overrides struct {
	entries map[string]Level
}

// NewOverrides creates an empty override memory.
func NewOverrides() *Overrides {
	return &Overrides{entries: make(map[string]Level)}
}

// Get returns the override for videoID, if any.
func (o *Overrides) Get(videoID string) (Level, bool) {
	if o == nil {
		return "", false
	}
	l, ok := o.entries[videoID]
	return l, ok
}

// Remember records level as the manual choice for videoID.
func (o *Overrides) Remember(videoID string, level Level) {
	o.entries[videoID] = level
}

// Forget removes any override for videoID.
func (o *Overrides) Forget(videoID string) {
	delete(o.entries, videoID)
}

// Clear removes every override.
func (o *Overrides) Clear() {
	clear(o.entries)
}

// Len returns the number of remembered overrides.
func (o *Overrides) Len() int {
	if o == nil {
		return 0
	}
	return len(o.entries)
}

// Snapshot returns a copy of the override map.
func (o *Overrides) Snapshot() map[string]Level {
	if o == nil {
		return map[string]Level{}
	}
	return maps.Clone(o.entries)
}
