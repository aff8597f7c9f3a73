package dto

import (
	"strings"

	"github.com/samber/lo"
	"github.com/tooplick/qqmusic-web/internal/model"
)

// JSONSong represents the track_info object of a song detail response.
type JSONSong struct {
	MID      string       `json:"mid"`
	Name     string       `json:"name"`
	Title    string       `json:"title"`
	Interval int          `json:"interval"`
	Singer   []JSONSinger `json:"singer"`
	Album    JSONAlbum    `json:"album"`
	Pay      JSONPay      `json:"pay"`
}

// JSONSinger is one performer of a song.
type JSONSinger struct {
	MID  string `json:"mid"`
	Name string `json:"name"`
}

// JSONAlbum is the album a song belongs to.
type JSONAlbum struct {
	MID  string `json:"mid"`
	Name string `json:"name"`
}

// JSONPay carries the entitlement flags of a song.
type JSONPay struct {
	PayPlay  int `json:"pay_play"`
	PayMonth int `json:"pay_month"`
}

// ToTrack converts JSONSong to a model.Track.
func (js *JSONSong) ToTrack() *model.Track {
	name := lo.Ternary(js.Name != "", js.Name, js.Title)
	singers := lo.FilterMap(js.Singer, func(s JSONSinger, _ int) (string, bool) {
		return s.Name, s.Name != ""
	})

	return &model.Track{
		MID:      js.MID,
		Name:     name,
		Singers:  strings.Join(singers, "/"),
		VIP:      js.Pay.PayPlay == 1,
		Album:    js.Album.Name,
		AlbumMID: js.Album.MID,
		Interval: js.Interval,
		Raw: map[string]any{
			"singer_mids": lo.Map(js.Singer, func(s JSONSinger, _ int) string { return s.MID }),
			"pay_month":   js.Pay.PayMonth,
		},
	}
}
