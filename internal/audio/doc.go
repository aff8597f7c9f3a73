// Package audio provides audio file post-processing: tag writing, the
// metadata hook run after a fresh download, and playlist generation.
//
// # Tagging
//
// Tagger writes ID3v2 frames into MP3 files and Vorbis comments into FLAC
// files:
//
//	tagger := audio.NewTagger(audio.DefaultTagConfig())
//	err := tagger.SaveTags(path, audio.TagData{Title: "晴天", Artist: "周杰伦"})
//
// The tagger supports:
//   - Title, Artist, Album, Album Artist
//   - Lyrics
//   - Cover Art (front cover picture)
//
// # Metadata hook
//
// MetadataHook fetches lyrics and cover art for a track and tags the file.
// Lyrics and cover failures are logged and skipped; only a tagging failure
// is reported:
//
//	ok, err := hook.Process(ctx, track, result)
//
// # Playlist Generation
//
//	creator := audio.NewPlaylistCreator(model.PlaylistFormatM3U, true)
//	content := creator.CreatePlaylist("Downloads", items)
//
// Supported formats:
//   - M3U (with optional extended info)
//   - PLS
//   - WPL (Windows Media Player)
//   - ZPL (Zune Media Player)
package audio
