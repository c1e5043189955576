package schema

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/lox/creator-discovery/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, s string) Object {
	t.Helper()
	var obj Object
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&obj))
	return obj
}

func TestProfileNormalizesVendorShapes(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    types.Profile
	}{
		{
			name: "app schema snake case with url list avatar",
			payload: `{"unique_id":"Jane.Doe","nickname":"Jane","signature":"Chef from Lagos","follower_count":12000,
				"following_count":10,"total_favorited":99000,"custom_verify":"Verified","uid":"123","sec_uid":"MS4",
				"avatar_larger":{"url_list":["https://img/large.jpg","https://img/large2.jpg"]}}`,
			want: types.Profile{
				Identifier: "jane.doe", DisplayName: "Jane", Bio: "Chef from Lagos", Followers: 12000,
				Following: 10, Likes: 99000, Verified: true, InternalID: "123", SecUID: "MS4",
				AvatarURL: "https://img/large.jpg",
			},
		},
		{
			name: "web schema nested user and stats",
			payload: `{"user":{"uniqueId":"bob","nickname":"Bob","signature":"hi","id":"77","verified":false,
				"avatarLarger":"https://img/bob.jpg","secUid":"S1"},"stats":{"followerCount":5,"followingCount":6,"heartCount":7}}`,
			want: types.Profile{
				Identifier: "bob", DisplayName: "Bob", Bio: "hi", Followers: 5, Following: 6, Likes: 7,
				InternalID: "77", SecUID: "S1", AvatarURL: "https://img/bob.jpg",
			},
		},
		{
			name:    "alternate vendor string counts",
			payload: `{"nickname":"Ann","fans":"1.5K","avatar":"https://img/ann.jpg","id":"9"}`,
			want: types.Profile{
				Identifier: "fallback", DisplayName: "Ann", Followers: 1500, InternalID: "9",
				AvatarURL: "https://img/ann.jpg",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Profile(decode(t, tt.payload), "fallback")
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Profile() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestProfileKeepsLargeNumericIDs(t *testing.T) {
	obj := decode(t, `{"unique_id":"kemi","uid":6812345678901234567,"follower_count":1200,"verified":1}`)

	p := Profile(obj, "")

	assert.Equal(t, "6812345678901234567", p.InternalID)
	assert.Equal(t, int64(1200), p.Followers)
	assert.True(t, p.Verified)
	assert.Equal(t, int64(6812345678901234567), Int(obj, "uid"))
}

func TestMediaURL(t *testing.T) {
	obj := decode(t, `{"a":"","b":{"url_list":[]},"c":{"url_list":["","https://c"]},"d":{"url":"https://d"}}`)
	assert.Equal(t, "https://c", MediaURL(obj, "a", "b", "c", "d"))
	assert.Equal(t, "https://d", MediaURL(obj, "d"))
	assert.Equal(t, "", MediaURL(obj, "a", "b", "missing"))
}

func TestVideo(t *testing.T) {
	v := Video(decode(t, `{"aweme_id":"1","desc":"phishing 101","create_time":1700000000,"video":{"cover":{"url_list":["https://thumb"]}}}`))
	assert.Equal(t, types.Video{
		ID:        "1",
		Caption:   "phishing 101",
		Thumbnail: "https://thumb",
		CreatedAt: time.Unix(1700000000, 0).UTC(),
	}, v)
}

func TestParseCount(t *testing.T) {
	for in, want := range map[string]int64{"12": 12, "1,234": 1234, "2.5M": 2_500_000, "3k": 3000} {
		got, ok := parseCount(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := parseCount("lots")
	assert.False(t, ok)
}
