package quality

import (
	"fmt"
	"sort"

	"github.com/desertthunder/tubetune/internal/shared"
)

// Level is a quality token understood by the player.
type Level string

const (
	Tiny    Level = "tiny"
	Small   Level = "small"
	Medium  Level = "medium"
	Large   Level = "large"
	HD720   Level = "hd720"
	HD1080  Level = "hd1080"
	HD1440  Level = "hd1440"
	HD2160  Level = "hd2160"
	HD2880  Level = "hd2880"
	HD4320  Level = "hd4320"
	Highres Level = "highres"
	Auto    Level = "auto"
)

// DefaultLabel is used when configuration carries no quality.
const DefaultLabel = "1080p"

// hd4320 has no entry: the player's own table never ranked it.
var ranks = map[Level]int{
	Highres: 100,
	HD2880:  95,
	HD2160:  90,
	HD1440:  85,
	HD1080:  80,
	HD720:   70,
	Large:   60,
	Medium:  50,
	Small:   40,
	Tiny:    30,
	Auto:    20,
}

type labelEntry struct {
	label string
	level Level
}

var labels = []labelEntry{
	{"144p", Tiny},
	{"240p", Small},
	{"360p", Medium},
	{"480p", Large},
	{"720p", HD720},
	{"1080p", HD1080},
	{"1440p", HD1440},
	{"2160p", HD2160},
	{"2880p", HD2880},
	{"4320p", HD4320},
	{"highres", Highres},
}

// Rank returns the fallback ordering weight of l; unknown levels rank 0.
func (l Level) Rank() int {
	return ranks[l]
}

func (l Level) String() string {
	return string(l)
}

// Label returns the user-facing label for l, or the raw token when l has none.
func (l Level) Label() string {
	for _, e := range labels {
		if e.level == l {
			return e.label
		}
	}
	return string(l)
}

// ParseLabel maps a configuration label onto its level.
func ParseLabel(label string) (Level, error) {
	for _, e := range labels {
		if e.label == label {
			return e.level, nil
		}
	}
	return "", fmt.Errorf("%w: %q", shared.ErrInvalidQuality, label)
}

// LevelFor maps a label onto its level, falling back to hd1080 for unknown labels.
func LevelFor(label string) Level {
	if l, err := ParseLabel(label); err == nil {
		return l
	}
	return HD1080
}

// Labels returns the label vocabulary from lowest to highest resolution.
func Labels() []string {
	out := make([]string, len(labels))
	for i, e := range labels {
		out[i] = e.label
	}
	return out
}

// ValidLabel reports whether label belongs to the vocabulary.
func ValidLabel(label string) bool {
	_, err := ParseLabel(label)
	return err == nil
}

// SortByRank returns a copy of levels ordered by descending rank.
// Equal ranks keep their input order.
func SortByRank(levels []Level) []Level {
	sorted := append([]Level(nil), levels...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Rank() > sorted[j].Rank()
	})
	return sorted
}

// Contains reports whether l is present in levels.
func Contains(levels []Level, l Level) bool {
	for _, v := range levels {
		if v == l {
			return true
		}
	}
	return false
}
