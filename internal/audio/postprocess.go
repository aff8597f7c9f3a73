package audio

import (
	"context"
	"log/slog"

	ioutils "github.com/tooplick/qqmusic-web/internal/io"
	"github.com/tooplick/qqmusic-web/internal/model"
	"github.com/tooplick/qqmusic-web/internal/qqmusic"
)

// LyricsSource fetches lyrics for a track id.
type LyricsSource interface {
	Lyrics(ctx context.Context, mid string) (string, error)
}

// CoverFetcher downloads cover art.
type CoverFetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// HookConfig controls what the metadata hook embeds.
type HookConfig struct {
	// SaveCoverArt embeds the album cover.
	SaveCoverArt bool

	// CoverArtMaxSize bounds the embedded cover (pixels per side, 0 = no limit).
	CoverArtMaxSize int

	// ConvertCoverArtToJPG re-encodes non-JPEG covers.
	ConvertCoverArtToJPG bool
}

// MetadataHook embeds lyrics, cover art and text tags into a freshly
// downloaded file.
//
// Missing lyrics or cover art are not failures; the file is tagged with what
// could be fetched. Only a failure to write the tags makes Process report
// false.
type MetadataHook struct {
	lyrics LyricsSource
	covers CoverFetcher
	images *ioutils.ImageService
	tagger *Tagger
	cfg    HookConfig
	logger *slog.Logger
}

// NewMetadataHook creates a hook. logger may be nil.
func NewMetadataHook(lyrics LyricsSource, covers CoverFetcher, tagger *Tagger, cfg HookConfig, logger *slog.Logger) *MetadataHook {
	if logger == nil {
		logger = slog.Default()
	}
	if tagger == nil {
		tagger = NewTagger(nil)
	}
	return &MetadataHook{
		lyrics: lyrics,
		covers: covers,
		images: ioutils.NewImageService(),
		tagger: tagger,
		cfg:    cfg,
		logger: logger,
	}
}

// Process tags result's file with track's metadata.
//
// It returns true when tags were written. Files of an unsupported type
// return false without an error.
func (h *MetadataHook) Process(ctx context.Context, track *model.Track, result *model.DownloadResult) (bool, error) {
	if !Supports(result.Path) {
		return false, nil
	}

	logger := h.logger.With("mid", track.MID, "file", result.Filename)

	data := TagData{
		Title:       track.Name,
		Artist:      track.Singers,
		Album:       track.Album,
		AlbumArtist: track.Singers,
	}

	if h.lyrics != nil {
		lrc, err := h.lyrics.Lyrics(ctx, track.MID)
		if err != nil {
			logger.Warn("failed to fetch lyrics", "error", err)
		} else {
			data.Lyrics = lrc
		}
	}

	if h.cfg.SaveCoverArt && h.covers != nil {
		data.Cover = h.cover(ctx, track, logger)
	}

	if err := h.tagger.SaveTags(result.Path, data); err != nil {
		logger.Error("failed to write tags", "error", err)
		return false, err
	}

	logger.Debug("metadata added", "lyrics", data.Lyrics != "", "cover", data.Cover != nil)
	return true, nil
}

func (h *MetadataHook) cover(ctx context.Context, track *model.Track, logger *slog.Logger) []byte {
	url := qqmusic.CoverURL(track.AlbumMID)
	if url == "" {
		return nil
	}

	raw, err := h.covers.Get(ctx, url)
	if err != nil {
		logger.Warn("failed to fetch cover", "url", url, "error", err)
		return nil
	}

	cover, err := h.images.PrepareCover(ctx, raw, h.cfg.CoverArtMaxSize, h.cfg.ConvertCoverArtToJPG)
	if err != nil {
		logger.Warn("failed to prepare cover", "error", err)
		return nil
	}
	return cover
}
