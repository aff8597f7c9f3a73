package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tooplick/qqmusic-web/internal/model"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	if s.MaxFilenameLength != 100 {
		t.Errorf("MaxFilenameLength = %d, want 100", s.MaxFilenameLength)
	}
	if s.DownloadTimeout != 60*time.Second {
		t.Errorf("DownloadTimeout = %v, want 60s", s.DownloadTimeout)
	}
	if s.MinContentSize != 1024 {
		t.Errorf("MinContentSize = %d, want 1024", s.MinContentSize)
	}
	if s.TrackTimeout != 0 {
		t.Errorf("TrackTimeout = %v, want 0", s.TrackTimeout)
	}
	if !s.EmbedMetadata || s.PreferFLAC {
		t.Error("expected metadata on and FLAC off by default")
	}
	if s.Credential.Backend != "file" || !strings.HasSuffix(s.Credential.File, "credential.json") {
		t.Errorf("unexpected credential defaults: %+v", s.Credential)
	}
}

func TestLoadMissingFile(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.MaxFilenameLength != 100 {
		t.Errorf("expected defaults, got MaxFilenameLength=%d", s.MaxFilenameLength)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
music_dir: /srv/music
max_filename_length: 80
download_timeout: 30s
prefer_flac: true
credential:
  backend: bolt
  file: /var/lib/qq/credential.db
playlist:
  create: true
  format: pls
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if s.MusicDir != "/srv/music" {
		t.Errorf("MusicDir = %q", s.MusicDir)
	}
	if s.MaxFilenameLength != 80 {
		t.Errorf("MaxFilenameLength = %d", s.MaxFilenameLength)
	}
	if s.DownloadTimeout != 30*time.Second {
		t.Errorf("DownloadTimeout = %v", s.DownloadTimeout)
	}
	if !s.PreferFLAC {
		t.Error("PreferFLAC should be true")
	}
	if s.Credential.Backend != "bolt" || s.Credential.File != "/var/lib/qq/credential.db" {
		t.Errorf("Credential = %+v", s.Credential)
	}
	if s.ToPlaylistFormat() != model.PlaylistFormatPLS {
		t.Errorf("playlist format = %v", s.ToPlaylistFormat())
	}
	// Keys absent from the file keep their defaults.
	if s.MinContentSize != 1024 || !s.EmbedMetadata {
		t.Errorf("defaults lost: MinContentSize=%d EmbedMetadata=%v", s.MinContentSize, s.EmbedMetadata)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("QQMUSIC_MUSIC_DIR", "/env/music")
	t.Setenv("QQMUSIC_MAX_CONCURRENT_TRACKS", "9")
	t.Setenv("QQMUSIC_CREDENTIAL_BACKEND", "blob")
	t.Setenv("QQMUSIC_CREDENTIAL_BUCKET_URL", "mem://")

	s, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.MusicDir != "/env/music" {
		t.Errorf("MusicDir = %q", s.MusicDir)
	}
	if s.MaxConcurrentTracks != 9 {
		t.Errorf("MaxConcurrentTracks = %d", s.MaxConcurrentTracks)
	}
	if s.Credential.Backend != "blob" || s.Credential.BucketURL != "mem://" {
		t.Errorf("Credential = %+v", s.Credential)
	}
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("music_dir: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	s := DefaultSettings()
	s.MusicDir = "/saved/music"
	s.TrackTimeout = 2 * time.Minute
	s.Tags.CoverArtMaxSize = 500
	if err := s.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.MusicDir != "/saved/music" || loaded.TrackTimeout != 2*time.Minute || loaded.Tags.CoverArtMaxSize != 500 {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
}

func TestConversions(t *testing.T) {
	s := DefaultSettings()
	s.DownloadMaxRetries = 3
	s.Catalog.UserAgent = "test-agent"

	opts := s.ToHTTPOptions()
	if opts.Timeout != 60*time.Second || opts.MinContentSize != 1024 || opts.RetryAttempts != 3 {
		t.Errorf("http options = %+v", opts)
	}
	if opts.RetryCooldown != 200*time.Millisecond {
		t.Errorf("RetryCooldown = %v", opts.RetryCooldown)
	}
	if opts.UserAgent != "test-agent" {
		t.Errorf("UserAgent = %q", opts.UserAgent)
	}

	if sc := s.ToStoreConfig(); sc.Backend != "file" || sc.File != s.Credential.File {
		t.Errorf("store config = %+v", sc)
	}
	if hc := s.ToHookConfig(); !hc.SaveCoverArt || hc.CoverArtMaxSize != 800 {
		t.Errorf("hook config = %+v", hc)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := ExpandHome("~/music"); got != filepath.Join(home, "music") {
		t.Errorf("ExpandHome = %q", got)
	}
	if got := ExpandHome("/abs"); got != "/abs" {
		t.Errorf("ExpandHome = %q", got)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLogLevel(tt.in); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetupLoggerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "qq.log")
	logger, closeLog, err := SetupLogger(LoggingConfig{File: path, Level: "debug"})
	if err != nil {
		t.Fatalf("SetupLogger: %v", err)
	}
	logger.Debug("hello", "mid", "abc")
	if err := closeLog(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"hello"`) || !strings.Contains(string(data), `"mid":"abc"`) {
		t.Errorf("unexpected log output: %s", data)
	}
}

func TestSetupLoggerStderr(t *testing.T) {
	logger, closeLog, err := SetupLogger(LoggingConfig{Level: "error"})
	if err != nil {
		t.Fatalf("SetupLogger: %v", err)
	}
	defer closeLog()
	if logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info should be disabled at error level")
	}
}

func TestNullLogger(t *testing.T) {
	NullLogger().Info("discarded")
}
