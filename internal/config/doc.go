// Package config provides configuration and logging setup for qqmusic-web.
//
// This package handles:
//   - Loading settings from YAML files and QQMUSIC_* environment variables
//   - Default configuration values
//   - Conversion to the option types of the http, credential and audio packages
//   - Building the slog logger
//
// # Default Settings
//
//	settings := config.DefaultSettings()
//	// Downloads to ~/Music/QQMusic
//	// Credential in ~/.config/qqmusic-web/credential.json
//	// Metadata embedding enabled
//
// # Loading
//
//	settings, err := config.Load("")              // config.yaml in the usual places
//	settings, err := config.Load("/etc/qq.yaml")  // explicit file
//
// A missing file is not an error; defaults and environment overrides apply:
//
//	QQMUSIC_MUSIC_DIR=/srv/music QQMUSIC_PREFER_FLAC=true qqmusic-dl -mid ...
//
// # Saving Settings
//
//	settings.MusicDir = "/custom/path"
//	err := settings.Save("/path/to/config.yaml")
//
// # Logging
//
//	logger, closeLog, err := config.SetupLogger(settings.Logging)
//	defer closeLog()
package config
