package qqmusic

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
)

// Lyrics fetches the LRC lyrics of mid.
//
// The catalog usually returns base64-encoded text; plain text is passed
// through. An empty string means the track has no lyrics.
func (c *Client) Lyrics(ctx context.Context, mid string) (string, error) {
	param := map[string]any{
		"songMID": mid,
		"crypt":   0,
		"ct":      clientType,
		"cv":      clientVersion,
		"lrc_t":   0,
		"qrc":     0,
		"qrc_t":   0,
		"roma":    0,
		"roma_t":  0,
		"trans":   1,
		"trans_t": 0,
		"type":    1,
	}

	data, err := c.call(ctx, "music.musichallSong.PlayLyricInfo", "GetPlayLyricInfo", param, nil)
	if err != nil {
		return "", fmt.Errorf("lyrics: %w", err)
	}
	return decodeLyric(data.Get("lyric").String()), nil
}

func decodeLyric(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if decoded, err := base64.StdEncoding.DecodeString(s); err == nil {
		return string(decoded)
	}
	return s
}
