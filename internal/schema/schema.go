// Package schema normalizes the divergent vendor JSON shapes into canonical
// records. Each canonical field has an ordered list of candidate paths; the
// first path holding a usable value wins.
package schema

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/lox/creator-discovery/internal/types"
)

// Object is an undecoded vendor JSON object
type Object = map[string]any

// Field is a canonical profile field
type Field string

const (
	FieldIdentifier  Field = "identifier"
	FieldDisplayName Field = "display_name"
	FieldBio         Field = "bio"
	FieldFollowers   Field = "followers"
	FieldFollowing   Field = "following"
	FieldLikes       Field = "likes"
	FieldVerified    Field = "verified"
	FieldInternalID  Field = "internal_id"
	FieldSecUID      Field = "sec_uid"
	FieldAvatar      Field = "avatar"
)

// Table maps each canonical field to its candidate paths. Dotted paths walk
// nested objects ("stats.followerCount" for the web endpoint's split shape).
type Table map[Field][]string

// ProfileTable covers the primary vendor's snake_case app schema, its web
// endpoint's camelCase user/stats split, search results and the alternate vendor.
var ProfileTable = Table{
	FieldIdentifier:  {"unique_id", "uniqueId", "user.uniqueId", "user.unique_id", "username"},
	FieldDisplayName: {"nickname", "user.nickname", "display_name", "nickName"},
	FieldBio:         {"signature", "user.signature", "bio", "bio_description"},
	FieldFollowers:   {"follower_count", "followerCount", "stats.followerCount", "stats.follower_count", "fans", "fans_count", "mplatform_followers_count"},
	FieldFollowing:   {"following_count", "followingCount", "stats.followingCount", "stats.following_count"},
	FieldLikes:       {"total_favorited", "heart_count", "heartCount", "stats.heartCount", "stats.heart", "stats.diggCount", "likes"},
	FieldVerified:    {"verified", "user.verified", "custom_verify", "is_verified", "enterprise_verify_reason"},
	FieldInternalID:  {"uid", "user_id", "user.id", "id"},
	FieldSecUID:      {"sec_uid", "secUid", "user.secUid"},
	FieldAvatar: {
		"avatar_larger", "avatar_medium", "avatar_thumb",
		"avatarLarger", "avatarMedium", "avatarThumb",
		"user.avatarLarger", "user.avatar_larger", "avatar", "avatar_url",
	},
}

// ThumbnailPaths is the ordered list of thumbnail fields on a post
var ThumbnailPaths = []string{
	"video.cover", "video.origin_cover", "video.dynamic_cover",
	"cover", "origin_cover", "thumbnail", "thumbnail_url",
}

// Lookup walks a dotted path
func Lookup(obj Object, path string) (any, bool) {
	var cur any = obj
	for _, key := range strings.Split(path, ".") {
		m, ok := cur.(Object)
		if !ok {
			return nil, false
		}
		if cur, ok = m[key]; !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

// String returns the first non-empty string found on paths
func String(obj Object, paths ...string) string {
	for _, p := range paths {
		v, ok := Lookup(obj, p)
		if !ok {
			continue
		}
		switch s := v.(type) {
		case string:
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(s, 'f', -1, 64)
		case json.Number:
			return s.String()
		}
	}
	return ""
}

// Int returns the first numeric value found on paths. Numeric strings,
// including "1.2K" and "3M" forms, are accepted.
func Int(obj Object, paths ...string) int64 {
	for _, p := range paths {
		v, ok := Lookup(obj, p)
		if !ok {
			continue
		}
		if n, ok := toInt(v); ok {
			return n
		}
	}
	return 0
}

// Bool reports whether any path holds a truthy value: true, a non-zero number
// or a non-empty string (custom_verify carries a label, not a flag).
func Bool(obj Object, paths ...string) bool {
	for _, p := range paths {
		v, ok := Lookup(obj, p)
		if !ok {
			continue
		}
		switch b := v.(type) {
		case bool:
			if b {
				return true
			}
		case float64:
			if b != 0 {
				return true
			}
		case json.Number:
			if f, err := b.Float64(); err == nil && f != 0 {
				return true
			}
		case string:
			if s := strings.TrimSpace(strings.ToLower(b)); s != "" && s != "false" && s != "0" {
				return true
			}
		}
	}
	return false
}

// MediaURL returns the first URL found on paths, accepting a plain string,
// a {"url_list": [...]} object or a {"url": ...} object
func MediaURL(obj Object, paths ...string) string {
	for _, p := range paths {
		v, ok := Lookup(obj, p)
		if !ok {
			continue
		}
		switch m := v.(type) {
		case string:
			if m != "" {
				return m
			}
		case Object:
			if list, ok := m["url_list"].([]any); ok {
				for _, u := range list {
					if s, ok := u.(string); ok && s != "" {
						return s
					}
				}
			}
			if s, ok := m["url"].(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// AvatarURL extracts a profile picture URL
func AvatarURL(obj Object) string {
	return MediaURL(obj, ProfileTable[FieldAvatar]...)
}

// ThumbnailURL extracts a post thumbnail URL
func ThumbnailURL(obj Object) string {
	return MediaURL(obj, ThumbnailPaths...)
}

// Profile normalizes a vendor user object. fallbackID is used when the
// payload does not carry its own handle.
func Profile(obj Object, fallbackID string) types.Profile {
	t := ProfileTable
	id := String(obj, t[FieldIdentifier]...)
	if id == "" {
		id = fallbackID
	}
	return types.Profile{
		Identifier:  strings.ToLower(id),
		DisplayName: String(obj, t[FieldDisplayName]...),
		Bio:         String(obj, t[FieldBio]...),
		Followers:   Int(obj, t[FieldFollowers]...),
		Following:   Int(obj, t[FieldFollowing]...),
		Likes:       Int(obj, t[FieldLikes]...),
		Verified:    Bool(obj, t[FieldVerified]...),
		AvatarURL:   AvatarURL(obj),
		InternalID:  String(obj, t[FieldInternalID]...),
		SecUID:      String(obj, t[FieldSecUID]...),
	}
}

// Video normalizes a post object
func Video(obj Object) types.Video {
	v := types.Video{
		ID:        String(obj, "aweme_id", "id", "video_id"),
		Caption:   String(obj, "desc", "title", "caption"),
		Thumbnail: ThumbnailURL(obj),
	}
	if ts := Int(obj, "create_time", "createTime"); ts > 0 {
		v.CreatedAt = time.Unix(ts, 0).UTC()
	}
	return v
}

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		return int64(f), err == nil
	case string:
		return parseCount(n)
	}
	return 0, false
}

func parseCount(s string) (int64, bool) {
	s = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
	if s == "" {
		return 0, false
	}
	mult := 1.0
	switch {
	case strings.HasSuffix(s, "K"):
		mult, s = 1e3, strings.TrimSuffix(s, "K")
	case strings.HasSuffix(s, "M"):
		mult, s = 1e6, strings.TrimSuffix(s, "M")
	case strings.HasSuffix(s, "B"):
		mult, s = 1e9, strings.TrimSuffix(s, "B")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return int64(math.Round(f * mult)), true
}
