package extract

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/lox/creator-discovery/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestExtractMentionsAreCaseFoldedAndDeduped(t *testing.T) {
	got := Extract("", "", "Top creator @jane.doe · @jane.doe2 (@JANE.DOE)")
	want := []string{"jane.doe", "jane.doe2"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Extract() mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractPatterns(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		title   string
		content string
		want    []string
	}{
		{
			name:    "url embedded handle comes first",
			url:     "https://www.tiktok.com/@cyber.sam/video/123",
			content: "Also check @other_creator",
			want:    []string{"cyber.sam", "other_creator"},
		},
		{
			name:    "name dot handle list",
			content: "Jane Smith · @janesmith\nBob Jones • @bobjones",
			want:    []string{"janesmith", "bobjones"},
		},
		{
			name:    "numbered list",
			content: "1. Privacy Pete - @privacypete\n2. Sec Sally: @secsally",
			want:    []string{"privacypete", "secsally"},
		},
		{
			name:    "labeled fields",
			content: "Username: hackerhannah\nhandle = @opsec_olly",
			want:    []string{"hackerhannah", "opsec_olly"},
		},
		{
			name:    "json fields",
			content: `{"username": "dataguard", "uniqueId": "@infosec.ian"}`,
			want:    []string{"dataguard", "infosec.ian"},
		},
		{
			name:    "markdown links",
			content: "See [zerotrustzoe](https://www.tiktok.com/@zerotrustzoe) for more",
			want:    []string{"zerotrustzoe"},
		},
		{
			name:    "emails are not mentions",
			content: "Contact pr@agency.com or follow @realcreator",
			want:    []string{"realcreator"},
		},
		{
			name:    "stop list and invalid handles are dropped",
			content: "@tiktok @Influencers @a @_hidden @" + "abcdefghijklmnopqrstuvwxyz",
			want:    []string{},
		},
		{
			name: "over-long url handle is not truncated",
			url:  "https://www.tiktok.com/@abcdefghijklmnopqrstuvwxyz123",
			want: []string{},
		},
		{
			name:    "over-long dotted mention is not truncated",
			content: "Try @this.handle.is.far.too.long.to.be.valid instead",
			want:    []string{},
		},
		{
			name:    "handle at the length limit",
			content: "Follow @abcdefghijklmnopqrstuvwx today",
			want:    []string{"abcdefghijklmnopqrstuvwx"},
		},
		{
			name:    "trailing punctuation",
			content: "Follow @kenyancook. She is great.",
			want:    []string{"kenyancook"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.url, tt.title, tt.content)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Extract() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtractIsIdempotent(t *testing.T) {
	text := "1. Alice - @alice\n@bob · @carol (@ALICE) tiktok.com/@dave"
	first := Extract("", "", text)
	second := Extract("", "", text)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"dave", "alice", "bob", "carol"}, first)
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("jane.doe"))
	assert.True(t, Valid("a1"))
	assert.True(t, Valid("user_123"))
	assert.False(t, Valid("a"))
	assert.False(t, Valid(".jane"))
	assert.False(t, Valid("_jane"))
	assert.False(t, Valid("jane-doe"))
	assert.False(t, Valid("abcdefghijklmnopqrstuvwxy"))
	assert.False(t, Valid("TikTok"))
	assert.False(t, Valid("HTTPS"))
}

func TestDedupe(t *testing.T) {
	got := Dedupe([]string{"Alice", "bob", "ALICE", "Bob", "carol"})
	assert.Equal(t, []string{"Alice", "bob", "carol"}, got)
}

func TestFromHitsStopsAtLimit(t *testing.T) {
	hits := []types.RawHit{
		{URL: "https://tiktok.com/@first", Content: "@second @third", Source: types.SourceWeb},
		{URL: "https://example.com", Content: "@fourth", Source: types.SourceWeb},
	}

	got := FromHits(hits, 2)
	assert.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Identifier)
	assert.Equal(t, "second", got[1].Identifier)
	assert.Equal(t, types.SourceWeb, got[0].Source)
	assert.Equal(t, "https://tiktok.com/@first", got[0].Origin)
	assert.Nil(t, got[0].SearchRelevance)

	all := FromHits(hits, 0)
	assert.Len(t, all, 4)
}
