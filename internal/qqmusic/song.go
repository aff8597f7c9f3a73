package qqmusic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/tooplick/qqmusic-web/internal/model"
	"github.com/tooplick/qqmusic-web/internal/qqmusic/dto"
)

// TrackURL resolves a stream URL for mid at quality q.
//
// cred may be nil for anonymous access. An empty string with a nil error
// means the catalog offered no URL for this tier (usually missing
// entitlement); callers move on to the next tier.
func (c *Client) TrackURL(ctx context.Context, mid string, q model.Quality, cred *Credential) (string, error) {
	if mid == "" {
		return "", model.ErrEmptyTrackID
	}

	filename := q.Prefix() + mid + mid + q.Extension()
	param := map[string]any{
		"filename":  []string{filename},
		"guid":      strings.ReplaceAll(uuid.NewString(), "-", ""),
		"songmid":   []string{mid},
		"songtype":  []int{0},
		"uin":       cred.UIN(),
		"loginflag": 1,
		"platform":  "20",
	}

	data, err := c.call(ctx, "music.vkey.GetVkey", "UrlGetVkey", param, cred)
	if err != nil {
		return "", fmt.Errorf("track url: %w", err)
	}

	// Several entries may come back; the first usable one wins.
	var purl string
	for _, info := range data.Get("midurlinfo").Array() {
		if p := info.Get("purl").String(); p != "" {
			purl = p
			break
		}
	}
	if purl == "" {
		return "", nil
	}

	host := c.streamHost
	if sip := data.Get("sip.0").String(); sip != "" {
		host = sip
	}
	if !strings.HasSuffix(host, "/") {
		host += "/"
	}
	return host + strings.TrimPrefix(purl, "/"), nil
}

// TrackInfo fetches the catalog descriptor of mid.
func (c *Client) TrackInfo(ctx context.Context, mid string) (*model.Track, error) {
	if mid == "" {
		return nil, model.ErrEmptyTrackID
	}

	data, err := c.call(ctx, "music.pf_song_detail_svr", "get_song_detail_yqq", map[string]any{"song_mid": mid}, nil)
	if err != nil {
		return nil, fmt.Errorf("track info: %w", err)
	}

	raw := data.Get("track_info")
	if !raw.Exists() || raw.Get("mid").String() == "" {
		return nil, fmt.Errorf("%w: %s", ErrTrackNotFound, mid)
	}

	var song dto.JSONSong
	if err := json.Unmarshal([]byte(raw.Raw), &song); err != nil {
		return nil, errors.Join(ErrInvalidResponse, err)
	}
	return song.ToTrack(), nil
}

// CoverURL returns the 800x800 album cover URL for albumMID, or "" when the
// track has no album.
func CoverURL(albumMID string) string {
	if albumMID == "" {
		return ""
	}
	return "https://y.gtimg.cn/music/photo_new/T002R800x800M000" + albumMID + ".jpg"
}
