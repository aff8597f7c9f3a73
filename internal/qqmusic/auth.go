package qqmusic

import (
	"context"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// codeLoginExpired is the module code the catalog uses for a stale session.
const codeLoginExpired = 1000

// CheckExpired asks the catalog whether cred is still a valid session.
//
// A credential without a music key is reported as expired without a network
// call. Any failure other than the catalog's explicit "expired" answer is
// returned as an error so callers can tell "expired" from "unknown".
func (c *Client) CheckExpired(ctx context.Context, cred *Credential) (bool, error) {
	if cred == nil {
		return false, ErrNoCredential
	}
	if !cred.HasMusicKey() {
		return true, nil
	}

	_, err := c.call(ctx, "music.UserInfo.userInfoServer", "GetLoginUserInfo", map[string]any{}, cred)
	if err == nil {
		return false, nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Code == codeLoginExpired {
		return true, nil
	}
	return false, fmt.Errorf("check expired: %w", err)
}

// CanRefresh reports whether cred can be refreshed.
//
// The check is local; the error return exists so callers can treat it like
// the other remote lifecycle calls.
func (c *Client) CanRefresh(_ context.Context, cred *Credential) (bool, error) {
	if cred == nil {
		return false, ErrNoCredential
	}
	return cred.CanRefresh(), nil
}

// Refresh exchanges cred's refresh material for a new session.
//
// The returned credential is a new value; cred itself is never modified.
func (c *Client) Refresh(ctx context.Context, cred *Credential) (*Credential, error) {
	if cred == nil {
		return nil, ErrNoCredential
	}
	if !cred.CanRefresh() {
		return nil, ErrNotRefreshable
	}

	param := map[string]any{
		"openid":        cred.OpenID,
		"access_token":  cred.AccessToken,
		"refresh_token": cred.RefreshToken,
		"expired_in":    0,
		"musicid":       cred.MusicID,
		"musickey":      cred.MusicKey,
		"refresh_key":   cred.RefreshKey,
		"loginMode":     2,
	}

	data, err := c.call(ctx, "music.login.LoginServer", "Login", param, cred)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	if data.Get("musickey").String() == "" {
		return nil, fmt.Errorf("%w: refresh returned no music key", ErrInvalidResponse)
	}

	next := cred.Clone()
	mergeLogin(next, data)
	return next, nil
}

// mergeLogin copies the fields present in a login response into cred.
func mergeLogin(cred *Credential, data gjson.Result) {
	setString := func(dst *string, key string) {
		if v := data.Get(key); v.Exists() && v.String() != "" {
			*dst = v.String()
		}
	}
	setInt := func(dst *int64, key string) {
		if v := data.Get(key); v.Exists() && v.Int() != 0 {
			*dst = v.Int()
		}
	}

	setString(&cred.OpenID, "openid")
	setString(&cred.RefreshToken, "refresh_token")
	setString(&cred.AccessToken, "access_token")
	setInt(&cred.ExpiredAt, "expired_at")
	setInt(&cred.MusicID, "musicid")
	setString(&cred.MusicKey, "musickey")
	setString(&cred.UnionID, "unionid")
	setString(&cred.StrMusicID, "str_musicid")
	setString(&cred.RefreshKey, "refresh_key")
	setString(&cred.EncryptUin, "encryptUin")
	setInt(&cred.CreateTime, "musickeyCreateTime")
	setInt(&cred.KeyExpiresIn, "keyExpiresIn")

	if v := data.Get("loginType"); v.Exists() && v.Int() != 0 {
		cred.LoginType = int(v.Int())
	}
}
