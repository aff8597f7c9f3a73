// Package model defines the core data structures shared by the downloader.
//
// # Track
//
// Track is the catalog descriptor of one song:
//
//	track := &model.Track{MID: "0039MnYb0qxYhV", Name: "晴天", Singers: "周杰伦"}
//
// Tracks can also be listed in a YAML manifest and loaded with LoadManifest.
//
// # Quality
//
// Quality is the ordered tier enum. Sequence builds the attempt order:
//
//	model.Sequence(true)  // [FLAC 320kbps 128kbps]
//	model.Sequence(false) // [320kbps 128kbps]
//
// # DownloadResult
//
// DownloadResult is returned for every successful download and records which
// tier won, where the file lives and whether it came from the local cache.
package model
