// Package qqmusic implements the parts of the QQ Music catalog API the
// downloader needs.
//
// All calls go to a single endpoint (musicu.fcg) as a JSON body with a
// "comm" block and one module request. Responses are read with gjson, and
// non-zero module codes become *APIError.
//
// # Sessions
//
// Credential is the catalog session. The lifecycle calls are:
//
//	expired, err := client.CheckExpired(ctx, cred)
//	ok, _ := client.CanRefresh(ctx, cred)
//	next, err := client.Refresh(ctx, cred) // cred is not modified
//
// # Tracks
//
//	url, err := client.TrackURL(ctx, mid, model.QualityFLAC, cred) // "" = not offered
//	lrc, err := client.Lyrics(ctx, mid)
//	track, err := client.TrackInfo(ctx, mid)
//	cover := qqmusic.CoverURL(track.AlbumMID)
package qqmusic
