package model

import (
	"errors"
	"reflect"
	"testing"
)

func TestSequence(t *testing.T) {
	tests := []struct {
		name       string
		preferFLAC bool
		want       []Quality
	}{
		{"prefer flac", true, []Quality{QualityFLAC, Quality320, Quality128}},
		{"mp3 only", false, []Quality{Quality320, Quality128}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sequence(tt.preferFLAC)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Sequence(%v) = %v, want %v", tt.preferFLAC, got, tt.want)
			}
		})
	}
}

func TestSequence_FreshSlice(t *testing.T) {
	a := Sequence(true)
	a[0] = Quality128
	if b := Sequence(true); b[0] != QualityFLAC {
		t.Errorf("Sequence shares state between calls, got %v", b)
	}
}

func TestQuality_Attributes(t *testing.T) {
	tests := []struct {
		q      Quality
		name   string
		ext    string
		prefix string
	}{
		{QualityFLAC, "FLAC", ".flac", "F000"},
		{Quality320, "320kbps", ".mp3", "M800"},
		{Quality128, "128kbps", ".mp3", "M500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.String(); got != tt.name {
				t.Errorf("String() = %q, want %q", got, tt.name)
			}
			if got := tt.q.Extension(); got != tt.ext {
				t.Errorf("Extension() = %q, want %q", got, tt.ext)
			}
			if got := tt.q.Prefix(); got != tt.prefix {
				t.Errorf("Prefix() = %q, want %q", got, tt.prefix)
			}
		})
	}
}

func TestTrack_Validate(t *testing.T) {
	var nilTrack *Track
	if err := nilTrack.Validate(); !errors.Is(err, ErrEmptyTrackID) {
		t.Errorf("nil track: got %v, want ErrEmptyTrackID", err)
	}
	if err := (&Track{Name: "x"}).Validate(); !errors.Is(err, ErrEmptyTrackID) {
		t.Errorf("empty mid: got %v, want ErrEmptyTrackID", err)
	}
	if err := (&Track{MID: "T1"}).Validate(); err != nil {
		t.Errorf("valid track: unexpected error %v", err)
	}
}

func TestTrack_DisplayName(t *testing.T) {
	if got := (&Track{Name: "Song", Singers: "A/B"}).DisplayName(); got != "Song - A/B" {
		t.Errorf("DisplayName() = %q", got)
	}
	if got := (&Track{Name: "Song"}).DisplayName(); got != "Song" {
		t.Errorf("DisplayName() without singers = %q", got)
	}
}

func TestParseManifest(t *testing.T) {
	data := []byte(`
tracks:
  - mid: T1
    name: First
    singers: Someone
    vip: true
    interval: 215
  - mid: T2
`)
	m, err := ParseManifest(data)
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}
	if len(m.Tracks) != 2 {
		t.Fatalf("got %d tracks, want 2", len(m.Tracks))
	}
	first := m.Tracks[0]
	if first.MID != "T1" || first.Name != "First" || !first.VIP || first.Interval != 215 {
		t.Errorf("unexpected first track: %+v", first)
	}
}

func TestParseManifest_MissingID(t *testing.T) {
	_, err := ParseManifest([]byte("tracks:\n  - name: nameless\n"))
	if !errors.Is(err, ErrEmptyTrackID) {
		t.Errorf("got %v, want ErrEmptyTrackID", err)
	}
}

func TestParsePlaylistFormat(t *testing.T) {
	tests := []struct {
		in   string
		want PlaylistFormat
		ext  string
	}{
		{"m3u", PlaylistFormatM3U, ".m3u"},
		{"pls", PlaylistFormatPLS, ".pls"},
		{"wpl", PlaylistFormatWPL, ".wpl"},
		{"zpl", PlaylistFormatZPL, ".zpl"},
		{"bogus", PlaylistFormatM3U, ".m3u"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParsePlaylistFormat(tt.in)
			if got != tt.want {
				t.Errorf("ParsePlaylistFormat(%q) = %v, want %v", tt.in, got, tt.want)
			}
			if got.Extension() != tt.ext {
				t.Errorf("Extension() = %q, want %q", got.Extension(), tt.ext)
			}
		})
	}
}

func TestParseTrackIDs(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"  ", nil},
		{"a", []string{"a"}},
		{"a b,c;d\ne", []string{"a", "b", "c", "d", "e"}},
		{"a,,b", []string{"a", "b"}},
	}
	for _, tt := range tests {
		got := ParseTrackIDs(tt.in)
		if len(got) == 0 && len(tt.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseTrackIDs(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
