package model

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrEmptyTrackID is returned when a track descriptor has no catalog id.
var ErrEmptyTrackID = errors.New("model: track id is empty")

// Track describes a single catalog track.
//
// Track is the identity plus display metadata the downloader needs:
//   - MID is the catalog id used to resolve stream URLs and lyrics
//   - Name and Singers form the local file name
//   - VIP marks restricted content that needs an entitled credential
//   - Album, AlbumMID and Interval are carried for tagging and playlists
//
// Raw holds provider-specific fields untouched so post-processing can use
// them later. The downloader never modifies a Track.
//
// Example:
//
//	track := &Track{MID: "0039MnYb0qxYhV", Name: "晴天", Singers: "周杰伦", VIP: true}
//	if err := track.Validate(); err != nil {
//	    log.Fatal(err)
//	}
type Track struct {
	// MID is the catalog id of the track. Must not be empty.
	MID string `json:"mid" yaml:"mid"`

	// Name is the track title.
	Name string `json:"name" yaml:"name"`

	// Singers is the display artist string (several singers joined by "/").
	Singers string `json:"singers" yaml:"singers"`

	// VIP is true when full-quality access requires an entitled credential.
	VIP bool `json:"vip" yaml:"vip"`

	// Album is the album title.
	Album string `json:"album" yaml:"album"`

	// AlbumMID is the catalog id of the album, used for cover art.
	AlbumMID string `json:"album_mid" yaml:"album_mid"`

	// Interval is the track length in seconds.
	Interval int `json:"interval" yaml:"interval"`

	// Raw carries provider fields through to post-processing.
	Raw map[string]any `json:"raw_data,omitempty" yaml:"raw_data,omitempty"`
}

// Validate checks the descriptor invariants.
func (t *Track) Validate() error {
	if t == nil || t.MID == "" {
		return ErrEmptyTrackID
	}
	return nil
}

// DisplayName returns "Name - Singers", the base used for file names.
func (t *Track) DisplayName() string {
	if t.Singers == "" {
		return t.Name
	}
	return fmt.Sprintf("%s - %s", t.Name, t.Singers)
}

// Manifest is a YAML list of tracks to download in one batch.
//
// Example file:
//
//	tracks:
//	  - mid: 0039MnYb0qxYhV
//	    name: 晴天
//	    singers: 周杰伦
//	    vip: true
//	  - mid: 002WCV372JMZJw
type Manifest struct {
	Tracks []*Track `yaml:"tracks"`
}

// LoadManifest reads a track manifest from a YAML file.
//
// Every entry must carry a mid; entries without one are rejected so that a
// typo never silently drops a track from a batch.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseManifest(data)
}

// ParseManifest decodes manifest YAML.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	for i, t := range m.Tracks {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("manifest entry %d: %w", i+1, err)
		}
	}
	return &m, nil
}

// ParseTrackIDs splits user input such as "id1, id2 id3" into track ids.
func ParseTrackIDs(input string) []string {
	return strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\n' || r == '\t'
	})
}
