package qqmusic

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tidwall/gjson"
	apphttp "github.com/tooplick/qqmusic-web/internal/http"
	"github.com/tooplick/qqmusic-web/internal/model"
)

// catalogServer answers module calls with handler(module, request).
func catalogServer(t *testing.T, handler func(module string, req gjson.Result) string) *Client {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		req := gjson.ParseBytes(body)
		module := req.Get("req_0.module").String()
		fmt.Fprintf(w, `{"code":0,"req_0":%s}`, handler(module, req))
	}))
	t.Cleanup(server.Close)

	opts := apphttp.DefaultOptions()
	opts.Timeout = 5 * time.Second
	httpClient := apphttp.NewClient(opts)
	t.Cleanup(httpClient.Close)

	return NewClient(httpClient, Options{APIURL: server.URL})
}

func testCredential() *Credential {
	return &Credential{
		MusicID:      12345,
		MusicKey:     "Q_H_L_key",
		RefreshKey:   "rk",
		RefreshToken: "rt",
		AccessToken:  "at",
		OpenID:       "oid",
	}
}

func TestCheckExpired(t *testing.T) {
	tests := []struct {
		name    string
		code    int
		want    bool
		wantErr bool
	}{
		{"valid", 0, false, false},
		{"expired", 1000, true, false},
		{"other failure", 2000, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := catalogServer(t, func(module string, req gjson.Result) string {
				if module != "music.UserInfo.userInfoServer" {
					t.Errorf("unexpected module %s", module)
				}
				if got := req.Get("comm.authst").String(); got != "Q_H_L_key" {
					t.Errorf("authst = %q", got)
				}
				if got := req.Get("comm.uin").String(); got != "12345" {
					t.Errorf("uin = %q", got)
				}
				return fmt.Sprintf(`{"code":%d,"data":{}}`, tt.code)
			})

			got, err := client.CheckExpired(context.Background(), testCredential())
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("expired = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckExpiredWithoutKey(t *testing.T) {
	client := catalogServer(t, func(string, gjson.Result) string {
		t.Error("no request expected")
		return `{"code":0}`
	})

	expired, err := client.CheckExpired(context.Background(), &Credential{})
	if err != nil || !expired {
		t.Errorf("got (%v, %v), want (true, nil)", expired, err)
	}
	if _, err := client.CheckExpired(context.Background(), nil); !errors.Is(err, ErrNoCredential) {
		t.Errorf("expected ErrNoCredential, got %v", err)
	}
}

func TestCanRefresh(t *testing.T) {
	client := NewClient(nil, Options{})
	tests := []struct {
		name string
		cred *Credential
		want bool
	}{
		{"full", testCredential(), true},
		{"no refresh key", &Credential{RefreshToken: "rt"}, false},
		{"no refresh token", &Credential{RefreshKey: "rk"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := client.CanRefresh(context.Background(), tt.cred)
			if err != nil {
				t.Fatalf("CanRefresh: %v", err)
			}
			if got != tt.want {
				t.Errorf("CanRefresh = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRefresh(t *testing.T) {
	client := catalogServer(t, func(module string, req gjson.Result) string {
		if module != "music.login.LoginServer" {
			t.Errorf("unexpected module %s", module)
		}
		if got := req.Get("req_0.param.refresh_key").String(); got != "rk" {
			t.Errorf("refresh_key = %q", got)
		}
		return `{"code":0,"data":{"musickey":"Q_H_L_new","refresh_key":"rk2","musicid":12345,"musickeyCreateTime":1700000000,"keyExpiresIn":259200}}`
	})

	old := testCredential()
	next, err := client.Refresh(context.Background(), old)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if next == old {
		t.Fatal("Refresh must return a new credential")
	}
	if old.MusicKey != "Q_H_L_key" {
		t.Errorf("original credential modified: %q", old.MusicKey)
	}
	if next.MusicKey != "Q_H_L_new" || next.RefreshKey != "rk2" {
		t.Errorf("unexpected refreshed credential: %+v", next)
	}
	if next.RefreshToken != "rt" {
		t.Errorf("fields absent from response should be kept, got %q", next.RefreshToken)
	}
	if next.KeyExpiresIn != 259200 {
		t.Errorf("KeyExpiresIn = %d", next.KeyExpiresIn)
	}
}

func TestRefreshNotRefreshable(t *testing.T) {
	client := NewClient(nil, Options{})
	if _, err := client.Refresh(context.Background(), &Credential{MusicKey: "k"}); !errors.Is(err, ErrNotRefreshable) {
		t.Errorf("expected ErrNotRefreshable, got %v", err)
	}
}

func TestTrackURL(t *testing.T) {
	tests := []struct {
		name     string
		quality  model.Quality
		response string
		wantFile string
		want     string
	}{
		{
			name:     "flac with sip",
			quality:  model.QualityFLAC,
			response: `{"code":0,"data":{"sip":["http://ws.stream.qqmusic.qq.com/"],"midurlinfo":[{"purl":"F000abcabc.flac?vkey=1"}]}}`,
			wantFile: "F000abcabc.flac",
			want:     "http://ws.stream.qqmusic.qq.com/F000abcabc.flac?vkey=1",
		},
		{
			name:     "320 default host",
			quality:  model.Quality320,
			response: `{"code":0,"data":{"midurlinfo":[{"purl":"M800abcabc.mp3?vkey=2"}]}}`,
			wantFile: "M800abcabc.mp3",
			want:     DefaultStreamHost + "M800abcabc.mp3?vkey=2",
		},
		{
			name:     "no entitlement",
			quality:  model.Quality128,
			response: `{"code":0,"data":{"midurlinfo":[{"purl":""}]}}`,
			wantFile: "M500abcabc.mp3",
			want:     "",
		},
		{
			name:     "first of several",
			quality:  model.Quality128,
			response: `{"code":0,"data":{"midurlinfo":[{"purl":""},{"purl":"first.mp3"},{"purl":"second.mp3"}]}}`,
			wantFile: "M500abcabc.mp3",
			want:     DefaultStreamHost + "first.mp3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := catalogServer(t, func(module string, req gjson.Result) string {
				if module != "music.vkey.GetVkey" {
					t.Errorf("unexpected module %s", module)
				}
				if got := req.Get("req_0.param.filename.0").String(); got != tt.wantFile {
					t.Errorf("filename = %q, want %q", got, tt.wantFile)
				}
				if req.Get("comm.authst").Exists() {
					t.Error("anonymous request must not carry authst")
				}
				return tt.response
			})

			got, err := client.TrackURL(context.Background(), "abc", tt.quality, nil)
			if err != nil {
				t.Fatalf("TrackURL: %v", err)
			}
			if got != tt.want {
				t.Errorf("TrackURL = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTrackURLError(t *testing.T) {
	client := catalogServer(t, func(string, gjson.Result) string {
		return `{"code":500001}`
	})

	_, err := client.TrackURL(context.Background(), "abc", model.Quality128, nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != 500001 {
		t.Errorf("expected APIError 500001, got %v", err)
	}
}

func TestLyrics(t *testing.T) {
	lrc := "[00:00.00]晴天 - 周杰伦"
	client := catalogServer(t, func(module string, req gjson.Result) string {
		if module != "music.musichallSong.PlayLyricInfo" {
			t.Errorf("unexpected module %s", module)
		}
		return fmt.Sprintf(`{"code":0,"data":{"lyric":%q}}`, base64.StdEncoding.EncodeToString([]byte(lrc)))
	})

	got, err := client.Lyrics(context.Background(), "abc")
	if err != nil {
		t.Fatalf("Lyrics: %v", err)
	}
	if got != lrc {
		t.Errorf("Lyrics = %q, want %q", got, lrc)
	}
}

func TestDecodeLyric(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"[00:01.00]plain", "[00:01.00]plain"},
		{base64.StdEncoding.EncodeToString([]byte("encoded")), "encoded"},
	}
	for _, tt := range tests {
		if got := decodeLyric(tt.in); got != tt.want {
			t.Errorf("decodeLyric(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTrackInfo(t *testing.T) {
	client := catalogServer(t, func(module string, req gjson.Result) string {
		if got := req.Get("req_0.param.song_mid").String(); got != "0039MnYb0qxYhV" {
			t.Errorf("song_mid = %q", got)
		}
		return `{"code":0,"data":{"track_info":{
			"mid":"0039MnYb0qxYhV","name":"晴天","interval":269,
			"singer":[{"mid":"0025NhlN2yWrP4","name":"周杰伦"}],
			"album":{"mid":"000MkMni19ClKG","name":"叶惠美"},
			"pay":{"pay_play":1}}}}`
	})

	track, err := client.TrackInfo(context.Background(), "0039MnYb0qxYhV")
	if err != nil {
		t.Fatalf("TrackInfo: %v", err)
	}
	want := model.Track{MID: "0039MnYb0qxYhV", Name: "晴天", Singers: "周杰伦", VIP: true, Album: "叶惠美", AlbumMID: "000MkMni19ClKG", Interval: 269}
	if track.MID != want.MID || track.Name != want.Name || track.Singers != want.Singers ||
		track.VIP != want.VIP || track.Album != want.Album || track.AlbumMID != want.AlbumMID || track.Interval != want.Interval {
		t.Errorf("TrackInfo = %+v, want %+v", track, want)
	}
}

func TestTrackInfoNotFound(t *testing.T) {
	client := catalogServer(t, func(string, gjson.Result) string {
		return `{"code":0,"data":{"track_info":{}}}`
	})
	if _, err := client.TrackInfo(context.Background(), "missing"); !errors.Is(err, ErrTrackNotFound) {
		t.Errorf("expected ErrTrackNotFound, got %v", err)
	}
}

func TestCoverURL(t *testing.T) {
	if got := CoverURL(""); got != "" {
		t.Errorf("CoverURL(\"\") = %q", got)
	}
	want := "https://y.gtimg.cn/music/photo_new/T002R800x800M000000MkMni19ClKG.jpg"
	if got := CoverURL("000MkMni19ClKG"); got != want {
		t.Errorf("CoverURL = %q, want %q", got, want)
	}
}

func TestCredentialUIN(t *testing.T) {
	tests := []struct {
		cred *Credential
		want string
	}{
		{nil, "0"},
		{&Credential{}, "0"},
		{&Credential{MusicID: 42}, "42"},
		{&Credential{MusicID: 42, StrMusicID: "o42"}, "o42"},
	}
	for _, tt := range tests {
		if got := tt.cred.UIN(); got != tt.want {
			t.Errorf("UIN() = %q, want %q", got, tt.want)
		}
	}
}
