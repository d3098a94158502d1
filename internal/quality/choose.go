package quality

// Choose picks the level to apply for videoID from the levels the player offers.
//
// The only side effect is forgetting a stale override for videoID. The second return value is
// false when nothing is offered.
func Choose(available []Level, videoID string, overrides *Overrides, desired string) (Level, bool) {
	if len(available) == 0 {
		return "", false
	}

	if manual, ok := overrides.Get(videoID); ok && videoID != "" {
		if Contains(available, manual) {
			return manual, true
		}
		overrides.Forget(videoID)
	}

	if target := LevelFor(desired); Contains(available, target) {
		return target, true
	}

	return SortByRank(available)[0], true
}
