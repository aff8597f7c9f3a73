package qqmusic

import (
	"maps"
	"strconv"
	"strings"
)

// Login types reported by the catalog.
const (
	LoginTypeWeChat = 1
	LoginTypeQQ     = 2
)

// Credential is an authenticated catalog session.
//
// Field names follow the catalog login response so a stored credential can
// be produced by any login tool that speaks the same format. A Credential is
// treated as immutable once it has been handed out: Refresh returns a new
// value instead of modifying the receiver.
type Credential struct {
	OpenID       string `json:"openid"`
	RefreshToken string `json:"refresh_token"`
	AccessToken  string `json:"access_token"`
	ExpiredAt    int64  `json:"expired_at"`
	MusicID      int64  `json:"musicid"`
	MusicKey     string `json:"musickey"`
	UnionID      string `json:"unionid"`
	StrMusicID   string `json:"str_musicid"`
	RefreshKey   string `json:"refresh_key"`
	EncryptUin   string `json:"encrypt_uin"`
	LoginType    int    `json:"login_type"`

	// CreateTime is the unix time the music key was issued.
	CreateTime int64 `json:"musickey_create_time,omitempty"`

	// KeyExpiresIn is the music key lifetime in seconds.
	KeyExpiresIn int64 `json:"key_expires_in,omitempty"`

	// Extra keeps unknown fields of the login response.
	Extra map[string]any `json:"extra_fields,omitempty"`
}

// HasMusicKey reports whether the credential carries a session key at all.
func (c *Credential) HasMusicKey() bool {
	return c != nil && c.MusicKey != ""
}

// CanRefresh reports whether the credential holds the material needed for a
// refresh call.
func (c *Credential) CanRefresh() bool {
	return c != nil && c.RefreshKey != "" && c.RefreshToken != ""
}

// UIN returns the catalog user id as a string, "0" when anonymous.
func (c *Credential) UIN() string {
	if c == nil {
		return "0"
	}
	if c.StrMusicID != "" {
		return c.StrMusicID
	}
	if c.MusicID != 0 {
		return strconv.FormatInt(c.MusicID, 10)
	}
	return "0"
}

// EffectiveLoginType returns LoginType, deriving it from the music key prefix
// when the stored value is missing.
func (c *Credential) EffectiveLoginType() int {
	if c.LoginType != 0 {
		return c.LoginType
	}
	if strings.HasPrefix(c.MusicKey, "W_X") {
		return LoginTypeWeChat
	}
	return LoginTypeQQ
}

// Clone returns a deep copy of c.
func (c *Credential) Clone() *Credential {
	if c == nil {
		return nil
	}
	out := *c
	out.Extra = maps.Clone(c.Extra)
	return &out
}
