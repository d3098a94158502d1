package quality

import (
	"errors"
	"testing"

	"github.com/desertthunder/tubetune/internal/shared"
)

func TestChoose(t *testing.T) {
	tests := []struct {
		name      string
		available []Level
		videoID   string
		overrides map[string]Level
		desired   string
		want      Level
		wantOK    bool
	}{
		{
			name:      "desired level offered",
			available: []Level{Tiny, Small, Medium, HD720, HD1080},
			videoID:   "V1",
			desired:   "1080p",
			want:      HD1080,
			wantOK:    true,
		},
		{
			name:      "fallback to highest rank",
			available: []Level{Tiny, Small},
			videoID:   "V1",
			desired:   "1080p",
			want:      Small,
			wantOK:    true,
		},
		{
			name:      "override wins over desired",
			available: []Level{Tiny, HD720, HD1080},
			videoID:   "V1",
			overrides: map[string]Level{"V1": HD720},
			desired:   "1080p",
			want:      HD720,
			wantOK:    true,
		},
		{
			name:      "stale override falls through",
			available: []Level{Tiny, Small},
			videoID:   "V1",
			overrides: map[string]Level{"V1": HD1440},
			desired:   "1080p",
			want:      Small,
			wantOK:    true,
		},
		{
			name:      "override for another video ignored",
			available: []Level{HD720, HD1080},
			videoID:   "V2",
			overrides: map[string]Level{"V1": HD720},
			desired:   "1080p",
			want:      HD1080,
			wantOK:    true,
		},
		{
			name:      "unknown label maps to hd1080",
			available: []Level{HD720, HD1080},
			videoID:   "V1",
			desired:   "999p",
			want:      HD1080,
			wantOK:    true,
		},
		{
			name:      "unknown tokens rank below known",
			available: []Level{"weird", Tiny},
			desired:   "1080p",
			want:      Tiny,
			wantOK:    true,
		},
		{
			name:      "ties keep first occurrence",
			available: []Level{"mystery", "other"},
			desired:   "1080p",
			want:      "mystery",
			wantOK:    true,
		},
		{
			name:    "nothing offered",
			desired: "1080p",
			wantOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			overrides := NewOverrides()
			for id, l := range tt.overrides {
				overrides.Remember(id, l)
			}

			got, ok := Choose(tt.available, tt.videoID, overrides, tt.desired)
			if ok != tt.wantOK {
				t.Fatalf("Choose() ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("Choose() = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("stale override is forgotten", func(t *testing.T) {
		overrides := NewOverrides()
		overrides.Remember("V1", HD1440)

		Choose([]Level{Tiny, Small}, "V1", overrides, "1080p")

		if _, ok := overrides.Get("V1"); ok {
			t.Error("expected stale override to be removed")
		}
	})

	t.Run("valid override is kept", func(t *testing.T) {
		overrides := NewOverrides()
		overrides.Remember("V1", HD720)

		Choose([]Level{Tiny, HD720}, "V1", overrides, "1080p")

		if l, ok := overrides.Get("V1"); !ok || l != HD720 {
			t.Errorf("expected override to survive, got %v %v", l, ok)
		}
	})

	t.Run("identical inputs give identical output", func(t *testing.T) {
		available := []Level{Medium, HD720, Large}
		overrides := NewOverrides()
		first, _ := Choose(available, "V9", overrides, "2160p")
		for range 10 {
			got, _ := Choose(available, "V9", overrides, "2160p")
			if got != first {
				t.Fatalf("Choose() not deterministic: %v then %v", first, got)
			}
		}
		if available[0] != Medium {
			t.Error("Choose() must not reorder its input")
		}
	})

	t.Run("nil overrides", func(t *testing.T) {
		got, ok := Choose([]Level{HD720}, "V1", nil, "1080p")
		if !ok || got != HD720 {
			t.Errorf("Choose() = %v %v, want hd720", got, ok)
		}
	})
}

func TestRank(t *testing.T) {
	t.Run("table", func(t *testing.T) {
		want := map[Level]int{
			Tiny: 30, Small: 40, Medium: 50, Large: 60, HD720: 70, HD1080: 80,
			HD1440: 85, HD2160: 90, HD2880: 95, Highres: 100, Auto: 20, HD4320: 0,
		}
		for l, r := range want {
			if l.Rank() != r {
				t.Errorf("%s.Rank() = %d, want %d", l, l.Rank(), r)
			}
		}
	})

	t.Run("SortByRank", func(t *testing.T) {
		got := SortByRank([]Level{Tiny, Highres, Auto, HD720})
		want := []Level{Highres, HD720, Tiny, Auto}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("SortByRank() = %v, want %v", got, want)
			}
		}
	})
}

func TestLabels(t *testing.T) {
	t.Run("ParseLabel", func(t *testing.T) {
		cases := map[string]Level{
			"144p": Tiny, "240p": Small, "360p": Medium, "480p": Large, "720p": HD720,
			"1080p": HD1080, "1440p": HD1440, "2160p": HD2160, "2880p": HD2880,
			"4320p": HD4320, "highres": Highres,
		}
		for label, want := range cases {
			got, err := ParseLabel(label)
			if err != nil || got != want {
				t.Errorf("ParseLabel(%q) = %v, %v; want %v", label, got, err, want)
			}
			if got.Label() != label {
				t.Errorf("%v.Label() = %q, want %q", got, got.Label(), label)
			}
		}
	})

	t.Run("ParseLabel unknown", func(t *testing.T) {
		_, err := ParseLabel("auto")
		if !errors.Is(err, shared.ErrInvalidQuality) {
			t.Errorf("expected ErrInvalidQuality, got %v", err)
		}
		if ValidLabel("auto") {
			t.Error("auto is not a selectable label")
		}
	})

	t.Run("Labels order", func(t *testing.T) {
		got := Labels()
		if len(got) != 11 || got[0] != "144p" || got[len(got)-1] != "highres" {
			t.Errorf("unexpected labels: %v", got)
		}
	})
}

func TestOverrides(t *testing.T) {
	o := NewOverrides()
	o.Remember("a", HD720)
	o.Remember("b", Tiny)

	snap := o.Snapshot()
	snap["c"] = Small
	if o.Len() != 2 {
		t.Errorf("snapshot must be a copy, len = %d", o.Len())
	}

	o.Forget("a")
	if _, ok := o.Get("a"); ok {
		t.Error("expected a to be forgotten")
	}

	o.Clear()
	if o.Len() != 0 {
		t.Errorf("expected empty overrides after Clear, got %d", o.Len())
	}

	var nilOverrides *Overrides
	if _, ok := nilOverrides.Get("x"); ok || nilOverrides.Len() != 0 {
		t.Error("nil overrides should behave as empty")
	}
}
