package audio

import (
	"strings"
	"testing"

	"github.com/tooplick/qqmusic-web/internal/model"
)

func TestPlaylistCreator_M3U(t *testing.T) {
	creator := NewPlaylistCreator(model.PlaylistFormatM3U, false)

	content := creator.CreatePlaylist("Downloads", createTestItems())

	if !strings.Contains(content, "track1 - Test Artist.mp3") {
		t.Error("M3U should contain track filename")
	}
	if strings.Contains(content, "#EXTINF") {
		t.Error("plain M3U should not contain #EXTINF")
	}
}

func TestPlaylistCreator_M3UExtended(t *testing.T) {
	creator := NewPlaylistCreator(model.PlaylistFormatM3U, true)

	content := creator.CreatePlaylist("Downloads", createTestItems())

	if !strings.HasPrefix(content, "#EXTM3U") {
		t.Error("Extended M3U should start with #EXTM3U")
	}
	if !strings.Contains(content, "#EXTINF:180,Test Artist - track1") {
		t.Errorf("Extended M3U should contain #EXTINF with duration, got:\n%s", content)
	}
}

func TestPlaylistCreator_PLS(t *testing.T) {
	creator := NewPlaylistCreator(model.PlaylistFormatPLS, false)

	content := creator.CreatePlaylist("Downloads", createTestItems())

	if !strings.HasPrefix(content, "[playlist]") {
		t.Error("PLS should start with [playlist]")
	}
	if !strings.Contains(content, "File1=") {
		t.Error("PLS should contain File1=")
	}
	if !strings.Contains(content, "NumberOfEntries=2") {
		t.Error("PLS should contain NumberOfEntries=2")
	}
}

func TestPlaylistCreator_WPL(t *testing.T) {
	creator := NewPlaylistCreator(model.PlaylistFormatWPL, false)

	content := creator.CreatePlaylist("Downloads", createTestItems())

	if !strings.Contains(content, "<?wpl") {
		t.Error("WPL should contain XML declaration")
	}
	if !strings.Contains(content, "<smil>") {
		t.Error("WPL should contain smil element")
	}
	if !strings.Contains(content, "<media src=") {
		t.Error("WPL should contain media elements")
	}
}

func TestPlaylistCreator_ZPL(t *testing.T) {
	creator := NewPlaylistCreator(model.PlaylistFormatZPL, false)

	content := creator.CreatePlaylist("Downloads", createTestItems())

	if !strings.Contains(content, "<?zpl") {
		t.Error("ZPL should contain XML declaration")
	}
	if !strings.Contains(content, "albumTitle=") {
		t.Error("ZPL should contain albumTitle attribute")
	}
	if !strings.Contains(content, `duration="180000"`) {
		t.Error("ZPL should contain duration in milliseconds")
	}
}

func TestPlaylistCreator_XMLEscape(t *testing.T) {
	track := &model.Track{MID: "x", Name: "Track & \"Quote\"", Singers: "Artist & Co", Album: "Album <Special>"}
	items := []PlaylistItem{{
		Track:  track,
		Result: &model.DownloadResult{Path: "/music/track.mp3"},
	}}

	creator := NewPlaylistCreator(model.PlaylistFormatZPL, false)
	content := creator.CreatePlaylist("Mix <1>", items)

	if !strings.Contains(content, "Artist &amp; Co") {
		t.Error("ZPL should escape & as &amp;")
	}
	if strings.Contains(content, "<Special>") || strings.Contains(content, "<1>") {
		t.Error("ZPL should escape < and >")
	}
}

func TestPlaylistCreator_SkipsFailed(t *testing.T) {
	items := append(createTestItems(), PlaylistItem{Track: &model.Track{MID: "failed"}})

	content := NewPlaylistCreator(model.PlaylistFormatPLS, false).CreatePlaylist("Downloads", items)
	if !strings.Contains(content, "NumberOfEntries=2") {
		t.Errorf("items without a result should be skipped, got:\n%s", content)
	}
}

func TestPlaylistCreator_Extension(t *testing.T) {
	if got := NewPlaylistCreator(model.PlaylistFormatWPL, false).Extension(); got != ".wpl" {
		t.Errorf("Extension = %q, want .wpl", got)
	}
}

func createTestItems() []PlaylistItem {
	track1 := &model.Track{MID: "1", Name: "track1", Singers: "Test Artist", Album: "Test Album", Interval: 180}
	track2 := &model.Track{MID: "2", Name: "track2", Singers: "Test Artist", Album: "Test Album", Interval: 200}

	return []PlaylistItem{
		{Track: track1, Result: &model.DownloadResult{Path: "/music/track1 - Test Artist.mp3"}},
		{Track: track2, Result: &model.DownloadResult{Path: "/music/track2 - Test Artist.flac"}},
	}
}
