package audio

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/tooplick/qqmusic-web/internal/model"
)

// PlaylistItem is one downloaded track in a playlist.
type PlaylistItem struct {
	Track  *model.Track
	Result *model.DownloadResult
}

// PlaylistCreator generates playlist files in various formats.
//
// Formats and their compatibility:
//   - M3U: Simple text format, widely supported
//   - PLS: INI-style format, used by Winamp
//   - WPL: XML format, Windows Media Player
//   - ZPL: XML format, Zune/Groove Music
//
// Example:
//
//	creator := NewPlaylistCreator(model.PlaylistFormatM3U, true)
//	content := creator.CreatePlaylist("Downloads", items)
//	os.WriteFile("/music/downloads.m3u", []byte(content), 0644)
//
//	// Result:
//	// #EXTM3U
//	// #EXTINF:269,周杰伦 - 晴天
//	// 晴天 - 周杰伦.flac
type PlaylistCreator struct {
	format   model.PlaylistFormat
	extended bool // For M3U: include EXTINF lines with duration/title
}

// NewPlaylistCreator creates a new PlaylistCreator.
//
// extended only affects M3U output.
func NewPlaylistCreator(format model.PlaylistFormat, extended bool) *PlaylistCreator {
	return &PlaylistCreator{
		format:   format,
		extended: extended,
	}
}

// Extension returns the playlist file extension.
func (p *PlaylistCreator) Extension() string {
	return p.format.Extension()
}

// CreatePlaylist generates playlist content.
//
// Entries use the bare file name, so the playlist is expected to live in the
// music directory next to the tracks. Items without a result are skipped.
func (p *PlaylistCreator) CreatePlaylist(title string, items []PlaylistItem) string {
	items = usable(items)

	switch p.format {
	case model.PlaylistFormatPLS:
		return p.createPLS(items)
	case model.PlaylistFormatWPL:
		return p.createWPL(title, items)
	case model.PlaylistFormatZPL:
		return p.createZPL(title, items)
	default:
		return p.createM3U(items)
	}
}

func usable(items []PlaylistItem) []PlaylistItem {
	out := make([]PlaylistItem, 0, len(items))
	for _, it := range items {
		if it.Track != nil && it.Result != nil {
			out = append(out, it)
		}
	}
	return out
}

// createM3U generates an M3U playlist.
//
// Extended M3U format (when extended=true):
//
//	#EXTM3U
//	#EXTINF:269,Singers - Name
//	filename.flac
func (p *PlaylistCreator) createM3U(items []PlaylistItem) string {
	var sb strings.Builder

	if p.extended {
		sb.WriteString("#EXTM3U\n")
	}

	for _, it := range items {
		if p.extended {
			sb.WriteString(fmt.Sprintf("#EXTINF:%d,%s - %s\n", it.Track.Interval, it.Track.Singers, it.Track.Name))
		}
		sb.WriteString(filepath.Base(it.Result.Path) + "\n")
	}

	return sb.String()
}

// createPLS generates a PLS playlist.
//
//	[playlist]
//	File1=filename.mp3
//	Title1=Song Title
//	Length1=180
//	NumberOfEntries=1
//	Version=2
func (p *PlaylistCreator) createPLS(items []PlaylistItem) string {
	var sb strings.Builder

	sb.WriteString("[playlist]\n")

	for i, it := range items {
		idx := i + 1
		sb.WriteString(fmt.Sprintf("File%d=%s\n", idx, filepath.Base(it.Result.Path)))
		sb.WriteString(fmt.Sprintf("Title%d=%s\n", idx, it.Track.DisplayName()))
		sb.WriteString(fmt.Sprintf("Length%d=%d\n", idx, it.Track.Interval))
	}

	sb.WriteString(fmt.Sprintf("NumberOfEntries=%d\n", len(items)))
	sb.WriteString("Version=2\n")

	return sb.String()
}

// createWPL generates a Windows Media Player playlist.
func (p *PlaylistCreator) createWPL(title string, items []PlaylistItem) string {
	var sb strings.Builder

	sb.WriteString("<?wpl version=\"1.0\"?>\n")
	sb.WriteString("<smil>\n")
	sb.WriteString("  <head>\n")
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", escapeXML(title)))
	sb.WriteString("  </head>\n")
	sb.WriteString("  <body>\n")
	sb.WriteString("    <seq>\n")

	for _, it := range items {
		sb.WriteString(fmt.Sprintf("      <media src=\"%s\"/>\n", escapeXML(filepath.Base(it.Result.Path))))
	}

	sb.WriteString("    </seq>\n")
	sb.WriteString("  </body>\n")
	sb.WriteString("</smil>\n")

	return sb.String()
}

// createZPL generates a Zune/Groove Music playlist with per-track metadata.
func (p *PlaylistCreator) createZPL(title string, items []PlaylistItem) string {
	var sb strings.Builder

	sb.WriteString("<?zpl version=\"2.0\"?>\n")
	sb.WriteString("<smil>\n")
	sb.WriteString("  <head>\n")
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", escapeXML(title)))
	sb.WriteString("    <meta name=\"Generator\" content=\"qqmusic-web\"/>\n")
	sb.WriteString(fmt.Sprintf("    <meta name=\"ItemCount\" content=\"%d\"/>\n", len(items)))
	sb.WriteString("  </head>\n")
	sb.WriteString("  <body>\n")
	sb.WriteString("    <seq>\n")

	for _, it := range items {
		duration := time.Duration(it.Track.Interval) * time.Second
		sb.WriteString(fmt.Sprintf("      <media src=\"%s\" albumTitle=\"%s\" trackTitle=\"%s\" trackArtist=\"%s\" duration=\"%d\"/>\n",
			escapeXML(filepath.Base(it.Result.Path)),
			escapeXML(it.Track.Album),
			escapeXML(it.Track.Name),
			escapeXML(it.Track.Singers),
			duration.Milliseconds()))
	}

	sb.WriteString("    </seq>\n")
	sb.WriteString("  </body>\n")
	sb.WriteString("</smil>\n")

	return sb.String()
}

// escapeXML escapes special XML characters in a string.
//
// Replaces: & < > " '
// With:     &amp; &lt; &gt; &quot; &apos;
func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	s = strings.ReplaceAll(s, "'", "&apos;")
	return s
}
