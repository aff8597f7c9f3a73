package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/tooplick/qqmusic-web/internal/audio"
	"github.com/tooplick/qqmusic-web/internal/credential"
	"github.com/tooplick/qqmusic-web/internal/http"
	"github.com/tooplick/qqmusic-web/internal/model"
)

// EnvPrefix is the prefix of environment overrides, e.g. QQMUSIC_MUSIC_DIR
// or QQMUSIC_CREDENTIAL_BACKEND.
const EnvPrefix = "QQMUSIC"

// Settings holds all configuration options.
type Settings struct {
	// Download settings
	MusicDir              string        `mapstructure:"music_dir"`
	MaxFilenameLength     int           `mapstructure:"max_filename_length"`
	DownloadTimeout       time.Duration `mapstructure:"download_timeout"`
	MinContentSize        int           `mapstructure:"min_content_size"`
	TrackTimeout          time.Duration `mapstructure:"track_timeout"`
	MaxConcurrentTracks   int           `mapstructure:"max_concurrent_tracks"`
	DownloadMaxRetries    int           `mapstructure:"download_max_retries"`
	DownloadRetryCooldown float64       `mapstructure:"download_retry_cooldown"`
	DownloadRetryExponent float64       `mapstructure:"download_retry_exponent"`
	PreferFLAC            bool          `mapstructure:"prefer_flac"`
	EmbedMetadata         bool          `mapstructure:"embed_metadata"`

	Credential CredentialConfig `mapstructure:"credential"`
	Catalog    CatalogConfig    `mapstructure:"catalog"`
	Tags       TagsConfig       `mapstructure:"tags"`
	Playlist   PlaylistConfig   `mapstructure:"playlist"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// CredentialConfig selects where the credential is stored.
type CredentialConfig struct {
	Backend   string `mapstructure:"backend"` // file, bolt, blob
	File      string `mapstructure:"file"`
	BucketURL string `mapstructure:"bucket_url"`
}

// CatalogConfig holds catalog API settings.
type CatalogConfig struct {
	APIURL    string `mapstructure:"api_url"`
	UserAgent string `mapstructure:"user_agent"`
}

// TagsConfig holds cover art settings for embedded tags.
type TagsConfig struct {
	SaveCoverArt         bool `mapstructure:"save_cover_art"`
	CoverArtMaxSize      int  `mapstructure:"cover_art_max_size"`
	ConvertCoverArtToJPG bool `mapstructure:"convert_cover_art_to_jpg"`
}

// PlaylistConfig holds playlist settings for batch downloads.
type PlaylistConfig struct {
	Create      bool   `mapstructure:"create"`
	Format      string `mapstructure:"format"` // m3u, pls, wpl, zpl
	M3UExtended bool   `mapstructure:"m3u_extended"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	homeDir, _ := os.UserHomeDir()
	return &Settings{
		MusicDir:              filepath.Join(homeDir, "Music", "QQMusic"),
		MaxFilenameLength:     100,
		DownloadTimeout:       60 * time.Second,
		MinContentSize:        1024,
		TrackTimeout:          0,
		MaxConcurrentTracks:   4,
		DownloadMaxRetries:    0,
		DownloadRetryCooldown: 0.2,
		DownloadRetryExponent: 4.0,
		PreferFLAC:            false,
		EmbedMetadata:         true,

		Credential: CredentialConfig{
			Backend: credential.BackendFile,
			File:    filepath.Join(DefaultConfigDir(), "credential.json"),
		},
		Catalog: CatalogConfig{},
		Tags: TagsConfig{
			SaveCoverArt:         true,
			CoverArtMaxSize:      800,
			ConvertCoverArtToJPG: true,
		},
		Playlist: PlaylistConfig{
			Create:      false,
			Format:      "m3u",
			M3UExtended: true,
		},
		Logging: LoggingConfig{
			File:  "",
			Level: "INFO",
		},
	}
}

// DefaultConfigDir returns the default config directory for the current OS.
func DefaultConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "qqmusic-web")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "qqmusic-web")
	}
}

// Load reads settings from a YAML file and the environment.
//
// With an empty path, config.yaml is looked up in DefaultConfigDir() and the
// working directory; a missing file is not an error. Environment variables
// with the QQMUSIC_ prefix override file values.
func Load(path string) (*Settings, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(DefaultConfigDir())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Every key needs a default so environment overrides reach Unmarshal.
	for key, value := range DefaultSettings().values() {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound && !(path != "" && errors.Is(err, fs.ErrNotExist)) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	settings := DefaultSettings()
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	settings.MusicDir = ExpandHome(settings.MusicDir)
	settings.Credential.File = ExpandHome(settings.Credential.File)
	settings.Logging.File = ExpandHome(settings.Logging.File)

	return settings, nil
}

// Save writes settings to a YAML file.
func (s *Settings) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	for key, value := range s.values() {
		v.Set(key, value)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// values flattens the settings into viper keys.
func (s *Settings) values() map[string]any {
	return map[string]any{
		"music_dir":               s.MusicDir,
		"max_filename_length":     s.MaxFilenameLength,
		"download_timeout":        s.DownloadTimeout.String(),
		"min_content_size":        s.MinContentSize,
		"track_timeout":           s.TrackTimeout.String(),
		"max_concurrent_tracks":   s.MaxConcurrentTracks,
		"download_max_retries":    s.DownloadMaxRetries,
		"download_retry_cooldown": s.DownloadRetryCooldown,
		"download_retry_exponent": s.DownloadRetryExponent,
		"prefer_flac":             s.PreferFLAC,
		"embed_metadata":          s.EmbedMetadata,

		"credential.backend":    s.Credential.Backend,
		"credential.file":       s.Credential.File,
		"credential.bucket_url": s.Credential.BucketURL,

		"catalog.api_url":    s.Catalog.APIURL,
		"catalog.user_agent": s.Catalog.UserAgent,

		"tags.save_cover_art":           s.Tags.SaveCoverArt,
		"tags.cover_art_max_size":       s.Tags.CoverArtMaxSize,
		"tags.convert_cover_art_to_jpg": s.Tags.ConvertCoverArtToJPG,

		"playlist.create":       s.Playlist.Create,
		"playlist.format":       s.Playlist.Format,
		"playlist.m3u_extended": s.Playlist.M3UExtended,

		"logging.file":  s.Logging.File,
		"logging.level": s.Logging.Level,
	}
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// ToHTTPOptions converts settings to http client options.
func (s *Settings) ToHTTPOptions() http.Options {
	opts := http.DefaultOptions()
	opts.Timeout = s.DownloadTimeout
	opts.MinContentSize = s.MinContentSize
	opts.RetryAttempts = s.DownloadMaxRetries
	opts.RetryCooldown = time.Duration(s.DownloadRetryCooldown * float64(time.Second))
	opts.RetryExponent = s.DownloadRetryExponent
	if s.Catalog.UserAgent != "" {
		opts.UserAgent = s.Catalog.UserAgent
	}
	return opts
}

// ToStoreConfig converts settings to a credential store configuration.
func (s *Settings) ToStoreConfig() credential.StoreConfig {
	return credential.StoreConfig{
		Backend:   s.Credential.Backend,
		File:      s.Credential.File,
		BucketURL: s.Credential.BucketURL,
	}
}

// ToHookConfig converts settings to metadata hook options.
func (s *Settings) ToHookConfig() audio.HookConfig {
	return audio.HookConfig{
		SaveCoverArt:         s.Tags.SaveCoverArt,
		CoverArtMaxSize:      s.Tags.CoverArtMaxSize,
		ConvertCoverArtToJPG: s.Tags.ConvertCoverArtToJPG,
	}
}

// ToPlaylistFormat returns the configured playlist format.
func (s *Settings) ToPlaylistFormat() model.PlaylistFormat {
	return model.ParsePlaylistFormat(s.Playlist.Format)
}
