package audio

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2"
	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"
	ioutils "github.com/tooplick/qqmusic-web/internal/io"
)

// ErrUnsupportedFormat is returned for files the tagger cannot write.
var ErrUnsupportedFormat = errors.New("audio: unsupported file format")

// TagEditAction defines how to handle individual tags.
//
// Each tag field can be configured independently to determine whether
// it should be modified, cleared, or left unchanged.
type TagEditAction int

const (
	// TagEmpty clears the tag value.
	TagEmpty TagEditAction = iota

	// TagModify updates the tag with the value from the catalog.
	TagModify

	// TagDoNotModify leaves the existing tag value unchanged.
	TagDoNotModify
)

// TagConfig holds tagging configuration for each field.
//
// Example:
//
//	cfg := &TagConfig{
//	    ModifyTags:  true,
//	    Artist:      TagModify,
//	    Album:       TagModify,
//	    TrackTitle:  TagModify,
//	    Lyrics:      TagModify,
//	    Comments:    TagEmpty,       // Clear any existing comments
//	    AlbumArtist: TagDoNotModify, // Keep existing album artist
//	}
type TagConfig struct {
	// ModifyTags is a master switch. If false, no text tags are modified.
	ModifyTags bool

	// Artist controls TPE1 / ARTIST.
	Artist TagEditAction

	// AlbumArtist controls TPE2 / ALBUMARTIST.
	AlbumArtist TagEditAction

	// Album controls TALB / ALBUM.
	Album TagEditAction

	// TrackTitle controls TIT2 / TITLE.
	TrackTitle TagEditAction

	// Lyrics controls USLT / LYRICS.
	Lyrics TagEditAction

	// Comments controls COMM / COMMENT.
	Comments TagEditAction
}

// DefaultTagConfig returns the default tag configuration.
//
// All fields are set to TagModify except comments, which are cleared.
func DefaultTagConfig() *TagConfig {
	return &TagConfig{
		ModifyTags:  true,
		Artist:      TagModify,
		AlbumArtist: TagModify,
		Album:       TagModify,
		TrackTitle:  TagModify,
		Lyrics:      TagModify,
		Comments:    TagEmpty,
	}
}

// TagData is the metadata written into one file.
type TagData struct {
	Title       string
	Artist      string
	Album       string
	AlbumArtist string
	Lyrics      string

	// Cover is JPEG data for the front cover; nil skips the picture.
	Cover []byte
}

// Tagger writes metadata into MP3 (ID3v2) and FLAC (Vorbis comment) files.
//
// Example:
//
//	tagger := NewTagger(DefaultTagConfig())
//	err := tagger.SaveTags("/music/晴天 - 周杰伦.flac", TagData{Title: "晴天"})
type Tagger struct {
	config *TagConfig
}

// NewTagger creates a new Tagger with the given configuration.
//
// If config is nil, DefaultTagConfig() is used.
func NewTagger(config *TagConfig) *Tagger {
	if config == nil {
		config = DefaultTagConfig()
	}
	return &Tagger{config: config}
}

// Supports reports whether the tagger can write files with path's extension.
func Supports(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3", ".flac":
		return true
	default:
		return false
	}
}

// SaveTags writes data into the file at path, choosing the tag format by
// extension.
func (t *Tagger) SaveTags(path string, data TagData) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return t.saveID3(path, data)
	case ".flac":
		return t.saveFLAC(path, data)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// coverMIME sniffs the image type of cover art.
func coverMIME(cover []byte) string {
	return http.DetectContentType(cover)
}

// saveID3 writes ID3v2 frames into an MP3 file.
func (t *Tagger) saveID3(path string, data TagData) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return err
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)

	if t.config.ModifyTags {
		t.updateID3Text(tag, data)
	}

	if data.Cover != nil {
		tag.DeleteFrames(tag.CommonID("Attached picture"))
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    coverMIME(data.Cover),
			PictureType: id3v2.PTFrontCover,
			Description: "Cover",
			Picture:     data.Cover,
		})
	}

	return tag.Save()
}

func (t *Tagger) updateID3Text(tag *id3v2.Tag, data TagData) {
	switch t.config.TrackTitle {
	case TagEmpty:
		tag.SetTitle("")
	case TagModify:
		tag.SetTitle(data.Title)
	}

	switch t.config.Artist {
	case TagEmpty:
		tag.SetArtist("")
	case TagModify:
		tag.SetArtist(data.Artist)
	}

	switch t.config.Album {
	case TagEmpty:
		tag.SetAlbum("")
	case TagModify:
		tag.SetAlbum(data.Album)
	}

	switch t.config.AlbumArtist {
	case TagEmpty:
		tag.DeleteFrames("TPE2")
	case TagModify:
		if data.AlbumArtist != "" {
			tag.AddTextFrame("TPE2", id3v2.EncodingUTF8, data.AlbumArtist)
		}
	}

	lyricsID := tag.CommonID("Unsynchronised lyrics/text transcription")
	switch t.config.Lyrics {
	case TagEmpty:
		tag.DeleteFrames(lyricsID)
	case TagModify:
		if data.Lyrics != "" {
			tag.DeleteFrames(lyricsID)
			tag.AddUnsynchronisedLyricsFrame(id3v2.UnsynchronisedLyricsFrame{
				Encoding:          id3v2.EncodingUTF8,
				Language:          "chi",
				ContentDescriptor: "",
				Lyrics:            data.Lyrics,
			})
		}
	}

	if t.config.Comments == TagEmpty {
		tag.DeleteFrames(tag.CommonID("Comments"))
	}
}

// saveFLAC rewrites the Vorbis comment and picture blocks of a FLAC file.
//
// The whole file is re-encoded in memory and put back with an atomic
// rename, so an interrupted write never corrupts the stored track.
func (t *Tagger) saveFLAC(path string, data TagData) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	f, err := flac.ParseBytes(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("parse flac: %w", err)
	}

	var comments *flacvorbis.MetaDataBlockVorbisComment
	commentIdx := -1
	for i, meta := range f.Meta {
		if meta.Type == flac.VorbisComment {
			comments, err = flacvorbis.ParseFromMetaDataBlock(*meta)
			if err != nil {
				return fmt.Errorf("parse vorbis comment: %w", err)
			}
			commentIdx = i
			break
		}
	}
	if comments == nil {
		comments = flacvorbis.New()
	}

	if t.config.ModifyTags {
		if err := t.updateVorbis(comments, data); err != nil {
			return err
		}
	}

	block := comments.Marshal()
	if commentIdx >= 0 {
		f.Meta[commentIdx] = &block
	} else {
		f.Meta = append(f.Meta, &block)
	}

	// Picture blocks only take JPEG or PNG; other covers are left out.
	if mime := coverMIME(data.Cover); data.Cover != nil && (mime == "image/jpeg" || mime == "image/png") {
		pic, err := flacpicture.NewFromImageData(flacpicture.PictureTypeFrontCover, "Cover", data.Cover, mime)
		if err != nil {
			return fmt.Errorf("build picture: %w", err)
		}
		meta := f.Meta[:0]
		for _, m := range f.Meta {
			if m.Type != flac.Picture {
				meta = append(meta, m)
			}
		}
		picBlock := pic.Marshal()
		f.Meta = append(meta, &picBlock)
	}

	return ioutils.WriteFileAtomic(path, f.Marshal(), 0644)
}

func (t *Tagger) updateVorbis(c *flacvorbis.MetaDataBlockVorbisComment, data TagData) error {
	fields := []struct {
		name   string
		action TagEditAction
		value  string
	}{
		{flacvorbis.FIELD_TITLE, t.config.TrackTitle, data.Title},
		{flacvorbis.FIELD_ARTIST, t.config.Artist, data.Artist},
		{flacvorbis.FIELD_ALBUM, t.config.Album, data.Album},
		{"ALBUMARTIST", t.config.AlbumArtist, data.AlbumArtist},
		{"LYRICS", t.config.Lyrics, data.Lyrics},
		{"COMMENT", t.config.Comments, ""},
	}

	for _, field := range fields {
		switch field.action {
		case TagEmpty:
			removeVorbis(c, field.name)
		case TagModify:
			if field.value == "" {
				continue
			}
			removeVorbis(c, field.name)
			if err := c.Add(field.name, field.value); err != nil {
				return fmt.Errorf("set %s: %w", field.name, err)
			}
		}
	}
	return nil
}

// removeVorbis drops every comment with the given field name.
func removeVorbis(c *flacvorbis.MetaDataBlockVorbisComment, name string) {
	prefix := strings.ToUpper(name) + "="
	kept := c.Comments[:0]
	for _, cmt := range c.Comments {
		if !strings.HasPrefix(strings.ToUpper(cmt), prefix) {
			kept = append(kept, cmt)
		}
	}
	c.Comments = kept
}
